package domain

import (
	"fmt"
	"strings"
)

// Action is the decision engine's verdict for a scored page.
//
// ok      - nothing noteworthy, no UI reaction
// warn    - score reached the threshold, caller should surface a warning
// allowed - the domain is allow-listed, suppress warnings regardless of score
type Action uint8

const (
	ActionOK Action = iota
	ActionWarn
	ActionAllowed
)

// String returns the wire representation of the action.
func (a Action) String() string {
	switch a {
	case ActionOK:
		return "ok"
	case ActionWarn:
		return "warn"
	case ActionAllowed:
		return "allowed"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// ParseAction converts a wire string into an Action.
// Accepts: "ok", "warn", "allowed" (case-insensitive).
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ok":
		return ActionOK, nil
	case "warn":
		return ActionWarn, nil
	case "allowed":
		return ActionAllowed, nil
	default:
		return 0, fmt.Errorf("unsupported Action: %q", s)
	}
}

// MarshalJSON encodes the action as its wire string.
func (a Action) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON decodes an action from its wire string.
func (a *Action) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
