package domain

import (
	"fmt"
	"strings"
)

// FilterRule is one compiled network-filter rule. Rules are derived from the
// block list and match document loads (top-level and nested) whose host is
// the rule's domain or any subdomain of it, which is what the ||domain^
// pattern expresses.
type FilterRule struct {
	ID      int64  // engine rule id, unique while installed
	Pattern string // anchor pattern, e.g. "||example.com^"
	Domain  string // canonical domain the rule was compiled from
}

// NewFilterRule builds a rule for the given engine id and canonical domain.
func NewFilterRule(id int64, domain string) (FilterRule, error) {
	domain = strings.TrimSpace(strings.ToLower(domain))
	if id <= 0 {
		return FilterRule{}, fmt.Errorf("rule id must be positive: %d", id)
	}
	if domain == "" {
		return FilterRule{}, fmt.Errorf("rule domain must not be empty")
	}
	if strings.ContainsAny(domain, "/^|") {
		return FilterRule{}, fmt.Errorf("rule domain contains pattern metacharacters: %q", domain)
	}
	return FilterRule{
		ID:      id,
		Pattern: "||" + domain + "^",
		Domain:  domain,
	}, nil
}

// Matches reports whether a document load from host falls under the rule:
// the host equals the rule domain or is a subdomain of it.
func (r FilterRule) Matches(host string) bool {
	if host == r.Domain {
		return true
	}
	return strings.HasSuffix(host, "."+r.Domain)
}
