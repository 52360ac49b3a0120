package bloom

import (
	bitsbloom "github.com/bits-and-blooms/bloom/v3"

	"github.com/haukened/phishguard/internal/guard/repos/ruleset"
)

// factory implements ruleset.RuleFilterFactory using the sizing formulas in
// this package.
type factory struct{}

// NewFactory returns a RuleFilterFactory that sizes filters from capacity
// and target false-positive rate.
func NewFactory() ruleset.RuleFilterFactory { return factory{} }

// New constructs a RuleFilter sized for the given capacity and FP rate.
func (factory) New(capacity uint64, fpRate float64) ruleset.RuleFilter {
	m, k := size(capacity, fpRate)
	return &filter{bf: bitsbloom.New(uint(m), uint(k))}
}
