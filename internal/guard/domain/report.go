package domain

import "fmt"

// RiskReport is the result of scoring one page load.
// Produced fresh per evaluation and never persisted as policy; the history
// log keeps copies for audit only.
//
// Score is the unclamped sum of triggered heuristic weights, so it has no
// upper bound. Findings are human-readable descriptions of each triggered
// heuristic, in evaluation order.
type RiskReport struct {
	Score    int      `json:"score"`
	Findings []string `json:"findings"`
	Host     string   `json:"host"`
	Domain   string   `json:"domain"`
}

// Validate checks a report received over the wire for obvious misuse.
// An empty Host or Domain is legitimate: hostless pages (data: URIs,
// unparseable URLs) score through the host heuristics as zero signal and
// still need a verdict.
func (r RiskReport) Validate() error {
	if r.Score < 0 {
		return fmt.Errorf("report score must not be negative: %d", r.Score)
	}
	return nil
}

// EarlyEstimate is the URL-only risk estimate computed before navigation
// completes. The zero value doubles as the sentinel for URLs that could not
// be parsed.
type EarlyEstimate struct {
	Score  int    `json:"score"`
	Host   string `json:"host"`
	Domain string `json:"domain"`
}

// IsZero reports whether the estimate is the malformed-URL sentinel.
func (e EarlyEstimate) IsZero() bool {
	return e.Score == 0 && e.Host == "" && e.Domain == ""
}
