package domain

import (
	"fmt"
	"strings"
)

// ListName identifies one of the two policy lists.
type ListName uint8

const (
	ListAllow ListName = iota
	ListBlock
)

// String returns the wire representation of the list name.
func (l ListName) String() string {
	switch l {
	case ListAllow:
		return "allow"
	case ListBlock:
		return "block"
	default:
		return fmt.Sprintf("ListName(%d)", l)
	}
}

// ParseListName converts a wire string into a ListName.
// Accepts: "allow", "block" (case-insensitive).
func ParseListName(s string) (ListName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return ListAllow, nil
	case "block":
		return ListBlock, nil
	default:
		return 0, fmt.Errorf("unsupported ListName: %q", s)
	}
}
