// Package urlx holds the URL and hostname helpers shared by the scorer,
// the policy service, and the rule compiler.
package urlx

import (
	"net/url"
	"strings"
)

// CanonicalHost returns a hostname in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dot, so the same site always maps to the same policy key.
func CanonicalHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.ToLower(host)
	for strings.HasSuffix(host, ".") {
		host = strings.TrimSuffix(host, ".")
	}
	return host
}

// Hostname parses a raw URL and returns its canonical hostname without any
// port. ok is false when the URL cannot be parsed or carries no host, which
// callers treat as zero signal rather than an error.
func Hostname(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	host := CanonicalHost(u.Hostname())
	if host == "" {
		return "", false
	}
	return host, true
}

// SchemeOf returns the lowercase scheme of a raw URL, or "" when the URL
// cannot be parsed.
func SchemeOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Scheme)
}

// RegistrableDomain reduces a hostname to the last two dot-separated labels.
// This is a deliberate approximation: it does not consult the public suffix
// list, so multi-label suffixes like co.uk collapse to the suffix itself.
// Policy keys only need to be stable and cheap, not registry-accurate.
func RegistrableDomain(host string) string {
	host = CanonicalHost(host)
	if host == "" {
		return ""
	}
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// IsIPv4Literal reports whether host is written as a dotted IPv4 address:
// exactly four dot-separated groups of one to three digits. The check is
// syntactic on purpose; octet range validation buys nothing here.
func IsIPv4Literal(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) < 1 || len(p) > 3 {
			return false
		}
		for _, c := range p {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
