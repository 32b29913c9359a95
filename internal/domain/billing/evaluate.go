package billing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/claims"
	"github.com/hms/hms/internal/domain/insurance"
)

// Denial reasons returned by coverage evaluation. Denials are outcomes, not
// errors; only evaluating a bill in the wrong lifecycle state is an error.
const (
	DenialNoPolicy       = "No insurance policy attached"
	DenialPolicyInactive = "Policy is not active"
	DenialNoItems        = "No billable items"
	DenialDeductible     = "Bill amount does not exceed deductible"
	DenialNothingToClaim = "No claimable amount"
)

// EvaluateCoverage runs the bill's claimable lines against the policy's
// coverage and decides the claimable amount.
//
// The bill moves to INSURANCE_PENDING once an amount has been computed, before
// the final approve/deny decision, so a zero-amount denial still leaves the
// bill awaiting insurer action.
func (b *Bill) EvaluateCoverage(policy *insurance.HeldInsurancePolicy) (claims.CoverageResult, error) {
	if b.Status == BillDraft {
		return claims.CoverageResult{}, fmt.Errorf("%w: bill %s must be submitted before coverage evaluation", ErrStateConflict, b.BillNumber)
	}
	if b.Status.Finalized() {
		return claims.CoverageResult{}, b.conflict("evaluate coverage on")
	}

	if policy == nil {
		return claims.Denied(DenialNoPolicy), nil
	}
	if !policy.Active() {
		return claims.Denied(DenialPolicyInactive), nil
	}
	if len(b.Items) == 0 {
		return claims.Denied(DenialNoItems), nil
	}

	coverage := policy.Coverage()
	limits := coverage.Limits()

	claimable := decimal.Zero
	accident := decimal.Zero
	for _, li := range b.Items {
		if !li.Claimable {
			continue
		}
		if !coverage.IsItemCovered(li, b.Inpatient) {
			continue
		}
		claimable = claimable.Add(li.TotalPrice)

		// accident payouts only accrue on covered lines
		if b.Emergency {
			if sub, ok := li.AccidentSubType(); ok {
				payout := coverage.CalculateAccidentPayout(sub)
				// over the sub-limit the payout is dropped entirely, not capped
				if payout.GreaterThan(decimal.Zero) && limits.IsWithinAccidentLimit(sub, payout) {
					accident = accident.Add(payout)
				}
			}
		}
	}

	deductible := coverage.DeductibleAmount()
	if deductible.GreaterThan(decimal.Zero) && claimable.LessThanOrEqual(deductible) {
		return claims.Denied(DenialDeductible), nil
	}
	claimAmount := claimable.Sub(deductible)

	if !limits.IsWithinAnnualLimit(claimAmount) {
		claimAmount = limits.AnnualLimit()
	}

	totalCoverage := claimAmount.Add(accident)

	b.Status = BillInsurancePending

	if totalCoverage.GreaterThan(decimal.Zero) {
		return claims.Approved(totalCoverage), nil
	}
	return claims.Denied(DenialNothingToClaim), nil
}
