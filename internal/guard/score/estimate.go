package score

import (
	"strings"

	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
)

// Estimate runs the URL-only heuristics against a navigation target before
// the page exists. Unlike the full scorer, the punycode and suspicious-TLD
// weights come from settings so users can tune pre-navigation sensitivity
// without touching post-load scoring. A URL that cannot be parsed, or that
// has no host, yields the zero sentinel rather than an error.
func Estimate(rawURL string, s domain.Settings) domain.EarlyEstimate {
	host, ok := urlx.Hostname(rawURL)
	if !ok {
		return domain.EarlyEstimate{}
	}

	total := 0
	if strings.Contains(host, "xn--") {
		total += s.PunycodeWeight
	}
	if _, ok := suspiciousFinalLabel(host); ok {
		total += s.SuspiciousTLDWeight
	}
	if urlx.IsIPv4Literal(host) {
		total += weightIPv4Host
	}
	if len(host) > longHostLength {
		total += weightLongHost
	}

	return domain.EarlyEstimate{
		Score:  total,
		Host:   host,
		Domain: urlx.RegistrableDomain(host),
	}
}
