package claims

import "github.com/shopspring/decimal"

// CoverageResult is the outcome of evaluating a bill against a policy:
// either an approved payable amount or a denial with its reason. A denial is
// an ordinary outcome, not an error.
type CoverageResult struct {
	Approved       bool            `json:"approved"`
	ApprovedAmount decimal.Decimal `json:"approved_amount"`
	DenialReason   string          `json:"denial_reason,omitempty"`
}

// Approved builds a successful result for the given payable amount.
func Approved(amount decimal.Decimal) CoverageResult {
	return CoverageResult{Approved: true, ApprovedAmount: amount}
}

// Denied builds a denial with the given reason.
func Denied(reason string) CoverageResult {
	return CoverageResult{Approved: false, ApprovedAmount: decimal.Zero, DenialReason: reason}
}
