// Package score implements the phishing heuristics. Score evaluates a full
// page snapshot; Estimate is the URL-only subset cheap enough to run before
// navigation commits. Both are pure functions over their inputs.
package score

import (
	"fmt"
	"strings"

	"github.com/haukened/phishguard/internal/guard/common/urlx"
	"github.com/haukened/phishguard/internal/guard/domain"
)

// Fixed weights applied by the full scorer.
const (
	weightPunycode       = 25
	weightSuspiciousTLD  = 15
	weightIPv4Host       = 10
	weightPasswordInput  = 20
	weightCredentialText = 10
	weightAnchorMismatch = 10
	weightOverlay        = 10
	weightDataScheme     = 20
	weightLongHost       = 10
)

// Evaluation bounds. Text and anchor scanning are capped so a hostile page
// cannot make scoring arbitrarily expensive.
const (
	visibleTextLimit = 20000
	anchorScanLimit  = 200
	longHostLength   = 55
)

// Finding labels for heuristics with no variable part.
const (
	findingPunycode      = "punycode hostname (xn--)"
	findingIPv4Host      = "IP literal hostname"
	findingPasswordInput = "password input present"
	findingCredText      = "credential keywords in page text"
	findingOverlay       = "overlay element detected"
	findingDataScheme    = "page served from data: URL"
	findingLongHost      = "unusually long hostname"
)

// Score evaluates every heuristic against the snapshot and URL and returns
// the resulting report. Findings appear in evaluation order, one per
// triggered heuristic; the score is their unclamped sum. A URL without a
// usable host simply contributes nothing through the host heuristics.
func Score(snap domain.PageSnapshot, rawURL string) domain.RiskReport {
	var (
		total    int
		findings []string
	)

	host, _ := urlx.Hostname(rawURL)

	if strings.Contains(host, "xn--") {
		total += weightPunycode
		findings = append(findings, findingPunycode)
	}

	if tld, ok := suspiciousFinalLabel(host); ok {
		total += weightSuspiciousTLD
		findings = append(findings, fmt.Sprintf("suspicious TLD .%s", tld))
	}

	if urlx.IsIPv4Literal(host) {
		total += weightIPv4Host
		findings = append(findings, findingIPv4Host)
	}

	if snap.HasPasswordInput {
		total += weightPasswordInput
		findings = append(findings, findingPasswordInput)
	}

	if hasCredentialLanguage(snap.VisibleText) {
		total += weightCredentialText
		findings = append(findings, findingCredText)
	}

	if brand, target, ok := firstAnchorMismatch(snap.Anchors); ok {
		total += weightAnchorMismatch
		findings = append(findings, fmt.Sprintf("link text mentions %s but targets %s", brand, target))
	}

	if hasOverlayCandidate(snap.Overlays) {
		total += weightOverlay
		findings = append(findings, findingOverlay)
	}

	if urlx.SchemeOf(rawURL) == "data" {
		total += weightDataScheme
		findings = append(findings, findingDataScheme)
	}

	if len(host) > longHostLength {
		total += weightLongHost
		findings = append(findings, findingLongHost)
	}

	return domain.RiskReport{
		Score:    total,
		Findings: findings,
		Host:     host,
		Domain:   urlx.RegistrableDomain(host),
	}
}

// suspiciousFinalLabel returns the host's final label when it is in the
// suspicious TLD set.
func suspiciousFinalLabel(host string) (string, bool) {
	if host == "" {
		return "", false
	}
	label := host
	if i := strings.LastIndex(host, "."); i >= 0 {
		label = host[i+1:]
	}
	_, ok := suspiciousTLDs[label]
	return label, ok
}

// hasCredentialLanguage reports whether a bounded prefix of the visible text
// contains both a brand or security keyword and an action verb.
func hasCredentialLanguage(text string) bool {
	lower := strings.ToLower(runePrefix(text, visibleTextLimit))

	keyword := false
	for _, b := range brands {
		if strings.Contains(lower, b.name) {
			keyword = true
			break
		}
	}
	if !keyword {
		for _, kw := range securityKeywords {
			if strings.Contains(lower, kw) {
				keyword = true
				break
			}
		}
	}
	if !keyword {
		return false
	}

	for _, verb := range actionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

// firstAnchorMismatch scans up to anchorScanLimit anchors for one whose text
// names a brand while its destination host does not end with that brand's
// domain. The first hit wins and ends the scan. Anchors whose destination
// could not be resolved are skipped rather than treated as mismatches.
func firstAnchorMismatch(anchors []domain.Anchor) (brand, target string, ok bool) {
	n := len(anchors)
	if n > anchorScanLimit {
		n = anchorScanLimit
	}
	for _, a := range anchors[:n] {
		if a.Host == "" {
			continue
		}
		text := strings.ToLower(a.Text)
		host := strings.ToLower(a.Host)
		for _, b := range brands {
			if !strings.Contains(text, b.name) {
				continue
			}
			if !strings.HasSuffix(host, b.domain) {
				return b.name, host, true
			}
		}
	}
	return "", "", false
}

// hasOverlayCandidate reports whether any element qualifies as an overlay:
// a large iframe, a near-viewport fixed element stacked above everything,
// or an element hidden via zero opacity or hidden visibility. The weight is
// applied once no matter how many elements qualify.
func hasOverlayCandidate(overlays []domain.Overlay) bool {
	for _, o := range overlays {
		if o.Tag == "iframe" && o.Width > 600 && o.Height > 400 {
			return true
		}
		if o.CoverX >= 0.9 && o.CoverY >= 0.9 && o.FixedPos && o.ZIndex > 9999 {
			return true
		}
		if o.Opacity == 0 || o.Hidden {
			return true
		}
	}
	return false
}

// runePrefix returns the first n characters of s without splitting a rune.
func runePrefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for idx := range s {
		if count == n {
			return s[:idx]
		}
		count++
	}
	return s
}
