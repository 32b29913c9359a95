package insurance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CompositeCoverage stacks multiple coverages and answers queries across all
// of them: broadest item coverage, summed accident payouts, the highest
// deductible, the lowest coinsurance, additively combined annual/lifetime
// limits and the union of covered benefits. It never holds limits or
// exclusions of its own.
type CompositeCoverage struct {
	coverages []Coverage
}

// NewCompositeCoverage combines the given coverages. At least one is required
// and none may be nil.
func NewCompositeCoverage(coverages ...Coverage) (*CompositeCoverage, error) {
	if len(coverages) == 0 {
		return nil, fmt.Errorf("at least one coverage is required")
	}
	for i, c := range coverages {
		if c == nil {
			return nil, fmt.Errorf("coverage %d is nil", i)
		}
	}
	return &CompositeCoverage{coverages: coverages}, nil
}

// IsItemCovered reports whether any component coverage covers the item.
func (cc *CompositeCoverage) IsItemCovered(item ClaimableItem, inpatient bool) bool {
	for _, c := range cc.coverages {
		if c.IsItemCovered(item, inpatient) {
			return true
		}
	}
	return false
}

// CalculateAccidentPayout sums the payouts of all components.
func (cc *CompositeCoverage) CalculateAccidentPayout(t AccidentType) decimal.Decimal {
	total := decimal.Zero
	for _, c := range cc.coverages {
		total = total.Add(c.CalculateAccidentPayout(t))
	}
	return total
}

// DeductibleAmount returns the highest deductible among the components: the
// claimant must clear the most conservative one.
func (cc *CompositeCoverage) DeductibleAmount() decimal.Decimal {
	max := decimal.Zero
	for _, c := range cc.coverages {
		if d := c.DeductibleAmount(); d.GreaterThan(max) {
			max = d
		}
	}
	return max
}

// CalculateCoinsurance returns the lowest coinsurance amount among the
// components, the most favourable to the claimant.
func (cc *CompositeCoverage) CalculateCoinsurance(claimAmount decimal.Decimal) decimal.Decimal {
	var min decimal.Decimal
	for i, c := range cc.coverages {
		amt := c.CalculateCoinsurance(claimAmount)
		if i == 0 || amt.LessThan(min) {
			min = amt
		}
	}
	return min
}

// Limits combines the components' annual and lifetime limits additively.
// Benefit, ward and accident sub-limit maps are not merged.
func (cc *CompositeCoverage) Limits() CoverageLimit {
	annual := decimal.Zero
	lifetime := decimal.Zero
	for _, c := range cc.coverages {
		l := c.Limits()
		annual = annual.Add(l.AnnualLimit())
		lifetime = lifetime.Add(l.LifetimeLimit())
	}
	return NewCoverageLimit(LimitSpec{AnnualLimit: annual, LifetimeLimit: lifetime})
}

// CoveredBenefits returns the union of all components' benefit sets.
func (cc *CompositeCoverage) CoveredBenefits() []BenefitType {
	seen := make(map[BenefitType]bool)
	var out []BenefitType
	for _, c := range cc.coverages {
		for _, b := range c.CoveredBenefits() {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// Components returns the stacked coverages in order.
func (cc *CompositeCoverage) Components() []Coverage {
	return cc.coverages
}
