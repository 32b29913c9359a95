package insurance

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CoverageLimit holds the annual/lifetime caps and per-benefit, per-ward and
// per-accident sub-limits of a coverage. A limit that is absent means
// "unlimited": every isWithin query answers true for it. Immutable once built.
type CoverageLimit struct {
	annualLimit       decimal.Decimal
	lifetimeLimit     decimal.Decimal
	benefitLimits     map[BenefitType]decimal.Decimal
	wardLimits        map[WardClassType]decimal.Decimal
	accidentSubLimits map[AccidentType]decimal.Decimal
}

// LimitSpec configures a CoverageLimit. Zero or negative annual/lifetime
// values and nil maps mean the corresponding limit is not set.
type LimitSpec struct {
	AnnualLimit       decimal.Decimal                `json:"annualLimit"`
	LifetimeLimit     decimal.Decimal                `json:"lifetimeLimit"`
	BenefitLimits     map[BenefitType]decimal.Decimal  `json:"benefitLimits,omitempty"`
	WardLimits        map[WardClassType]decimal.Decimal `json:"wardLimits,omitempty"`
	AccidentSubLimits map[AccidentType]decimal.Decimal  `json:"accidentSubLimits,omitempty"`
}

// NewCoverageLimit builds an immutable CoverageLimit from the spec. The maps
// are copied so later mutation of the spec cannot leak in.
func NewCoverageLimit(spec LimitSpec) CoverageLimit {
	return CoverageLimit{
		annualLimit:       spec.AnnualLimit,
		lifetimeLimit:     spec.LifetimeLimit,
		benefitLimits:     copyLimits(spec.BenefitLimits),
		wardLimits:        copyLimits(spec.WardLimits),
		accidentSubLimits: copyLimits(spec.AccidentSubLimits),
	}
}

func copyLimits[K comparable](m map[K]decimal.Decimal) map[K]decimal.Decimal {
	out := make(map[K]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HasAnnualLimit reports whether an annual limit is configured and positive.
func (l CoverageLimit) HasAnnualLimit() bool {
	return l.annualLimit.GreaterThan(decimal.Zero)
}

func (l CoverageLimit) HasLifetimeLimit() bool {
	return l.lifetimeLimit.GreaterThan(decimal.Zero)
}

// AnnualLimit returns the annual cap, zero when not set.
func (l CoverageLimit) AnnualLimit() decimal.Decimal { return l.annualLimit }

// LifetimeLimit returns the lifetime cap, zero when not set.
func (l CoverageLimit) LifetimeLimit() decimal.Decimal { return l.lifetimeLimit }

// BenefitLimit returns the sub-limit for the benefit type, reporting whether
// one is configured.
func (l CoverageLimit) BenefitLimit(t BenefitType) (decimal.Decimal, bool) {
	v, ok := l.benefitLimits[t]
	return v, ok
}

func (l CoverageLimit) WardLimit(w WardClassType) (decimal.Decimal, bool) {
	v, ok := l.wardLimits[w]
	return v, ok
}

func (l CoverageLimit) AccidentLimit(t AccidentType) (decimal.Decimal, bool) {
	v, ok := l.accidentSubLimits[t]
	return v, ok
}

func (l CoverageLimit) IsWithinAnnualLimit(amount decimal.Decimal) bool {
	return !l.HasAnnualLimit() || amount.LessThanOrEqual(l.annualLimit)
}

func (l CoverageLimit) IsWithinLifetimeLimit(amount decimal.Decimal) bool {
	return !l.HasLifetimeLimit() || amount.LessThanOrEqual(l.lifetimeLimit)
}

func (l CoverageLimit) IsWithinBenefitLimit(t BenefitType, amount decimal.Decimal) bool {
	limit, ok := l.benefitLimits[t]
	return !ok || amount.LessThanOrEqual(limit)
}

func (l CoverageLimit) IsWithinWardLimit(w WardClassType, amount decimal.Decimal) bool {
	limit, ok := l.wardLimits[w]
	return !ok || amount.LessThanOrEqual(limit)
}

func (l CoverageLimit) IsWithinAccidentLimit(t AccidentType, amount decimal.Decimal) bool {
	limit, ok := l.accidentSubLimits[t]
	return !ok || amount.LessThanOrEqual(limit)
}

// Spec returns a serialisable view of the limit set.
func (l CoverageLimit) Spec() LimitSpec {
	return LimitSpec{
		AnnualLimit:       l.annualLimit,
		LifetimeLimit:     l.lifetimeLimit,
		BenefitLimits:     copyLimits(l.benefitLimits),
		WardLimits:        copyLimits(l.wardLimits),
		AccidentSubLimits: copyLimits(l.accidentSubLimits),
	}
}

func (l CoverageLimit) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Spec())
}

func (l *CoverageLimit) UnmarshalJSON(data []byte) error {
	var spec LimitSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return err
	}
	*l = NewCoverageLimit(spec)
	return nil
}
