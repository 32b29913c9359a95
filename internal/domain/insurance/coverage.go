package insurance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClaimableItem is a charge line eligible for insurance evaluation. Items
// without a diagnosis or procedure code return "" from the respective method;
// items without an accident sub-type return ok=false.
type ClaimableItem interface {
	ResolveBenefitType(inpatient bool) BenefitType
	BenefitDescription(inpatient bool) string
	DiagnosisCode() string
	ProcedureCode() string
	AccidentSubType() (AccidentType, bool)
}

// Coverage decides item coverage, computes accident payouts and coinsurance,
// and reports its limits and covered benefits. Exactly two implementations
// exist: BaseCoverage for a single plan and CompositeCoverage for stacked
// plans.
type Coverage interface {
	IsItemCovered(item ClaimableItem, inpatient bool) bool
	CalculateAccidentPayout(t AccidentType) decimal.Decimal
	DeductibleAmount() decimal.Decimal
	CalculateCoinsurance(claimAmount decimal.Decimal) decimal.Decimal
	Limits() CoverageLimit
	CoveredBenefits() []BenefitType
}

// BaseCoverage is a single plan's coverage terms: one limit set, one
// deductible, one coinsurance rate, a covered-benefit set and exclusions.
type BaseCoverage struct {
	limits             CoverageLimit
	deductible         decimal.Decimal
	coinsurance        decimal.Decimal
	deathBenefitAmount decimal.Decimal
	coveredBenefits    map[BenefitType]bool
	benefitOrder       []BenefitType
	exclusions         ExclusionCriteria
}

// CoverageSpec configures a BaseCoverage. A non-empty covered-benefit set is
// required; deductible, coinsurance and death benefit default to zero.
type CoverageSpec struct {
	Limits             LimitSpec       `json:"limits"`
	Deductible         decimal.Decimal `json:"deductible"`
	Coinsurance        decimal.Decimal `json:"coinsurance"`
	DeathBenefitAmount decimal.Decimal `json:"deathBenefitAmount"`
	CoveredBenefits    []BenefitType   `json:"coveredBenefits"`
	Exclusions         ExclusionSpec   `json:"exclusions"`
}

// NewBaseCoverage validates the spec and builds the coverage.
func NewBaseCoverage(spec CoverageSpec) (*BaseCoverage, error) {
	if len(spec.CoveredBenefits) == 0 {
		return nil, fmt.Errorf("covered benefits must be set and non-empty")
	}
	exclusions, err := NewExclusionCriteria(spec.Exclusions)
	if err != nil {
		return nil, err
	}

	benefits := make(map[BenefitType]bool, len(spec.CoveredBenefits))
	order := make([]BenefitType, 0, len(spec.CoveredBenefits))
	for _, b := range spec.CoveredBenefits {
		if !benefits[b] {
			order = append(order, b)
		}
		benefits[b] = true
	}

	return &BaseCoverage{
		limits:             NewCoverageLimit(spec.Limits),
		deductible:         spec.Deductible,
		coinsurance:        spec.Coinsurance,
		deathBenefitAmount: spec.DeathBenefitAmount,
		coveredBenefits:    benefits,
		benefitOrder:       order,
		exclusions:         exclusions,
	}, nil
}

// IsItemCovered reports whether the item's resolved benefit type is in the
// covered set and the item is not excluded.
func (c *BaseCoverage) IsItemCovered(item ClaimableItem, inpatient bool) bool {
	return c.coveredBenefits[item.ResolveBenefitType(inpatient)] &&
		!c.exclusions.Applies(item, inpatient)
}

// CalculateAccidentPayout returns the payout for the accident type: zero when
// the type is excluded or no positive sub-limit is configured, the death
// benefit amount for DEATH, otherwise the sub-limit amount.
func (c *BaseCoverage) CalculateAccidentPayout(t AccidentType) decimal.Decimal {
	if c.exclusions.IsExcludedAccident(t) {
		return decimal.Zero
	}

	limit, ok := c.limits.AccidentLimit(t)
	if !ok || limit.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	if t == AccidentDeath {
		return c.deathBenefitAmount
	}
	return limit
}

func (c *BaseCoverage) DeductibleAmount() decimal.Decimal {
	return c.deductible
}

// CalculateCoinsurance returns claimAmount x rate rounded half-up to 2 dp.
func (c *BaseCoverage) CalculateCoinsurance(claimAmount decimal.Decimal) decimal.Decimal {
	return claimAmount.Mul(c.coinsurance).Round(2)
}

func (c *BaseCoverage) Limits() CoverageLimit {
	return c.limits
}

func (c *BaseCoverage) CoveredBenefits() []BenefitType {
	return append([]BenefitType(nil), c.benefitOrder...)
}
