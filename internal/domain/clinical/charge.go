package clinical

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/insurance"
)

// ChargeItem is a priced clinical charge that can be placed on a bill and,
// when it carries codes, evaluated against an insurance coverage. It
// implements both billing.BillableItem and insurance.ClaimableItem.
type ChargeItem struct {
	description string
	category    string
	charges     decimal.Decimal
	diagnosis   *DiagnosticCode
	procedure   *ProcedureCode
	accident    *insurance.AccidentType
}

// NewDiagnosisCharge bills a charge attributed to a diagnosis.
func NewDiagnosisCharge(description, category string, charges decimal.Decimal, diagnosis DiagnosticCode) ChargeItem {
	return ChargeItem{
		description: description,
		category:    category,
		charges:     charges,
		diagnosis:   &diagnosis,
	}
}

// NewProcedureCharge bills a performed procedure, with the diagnosis that
// motivated it.
func NewProcedureCharge(description, category string, charges decimal.Decimal, procedure ProcedureCode, diagnosis DiagnosticCode) ChargeItem {
	return ChargeItem{
		description: description,
		category:    category,
		charges:     charges,
		procedure:   &procedure,
		diagnosis:   &diagnosis,
	}
}

// NewAccidentCharge bills accident treatment. The sub-type drives accident
// payout sub-limits during coverage evaluation.
func NewAccidentCharge(description, category string, charges decimal.Decimal, subType insurance.AccidentType, diagnosis DiagnosticCode) ChargeItem {
	return ChargeItem{
		description: description,
		category:    category,
		charges:     charges,
		accident:    &subType,
		diagnosis:   &diagnosis,
	}
}

// NewWardCharge bills a ward stay at the class's fixed daily rate.
func NewWardCharge(ward insurance.WardClassType, days int) (ChargeItem, error) {
	if days <= 0 {
		return ChargeItem{}, fmt.Errorf("days must be positive")
	}
	rate := ward.DailyRate()
	if rate.IsZero() {
		return ChargeItem{}, fmt.Errorf("unknown ward class: %s", ward)
	}
	return ChargeItem{
		description: fmt.Sprintf("%s, %d day(s)", ward.Description(), days),
		category:    "ACCOMMODATION",
		charges:     rate.Mul(decimal.NewFromInt(int64(days))),
	}, nil
}

// NewMiscCharge bills a charge with no clinical coding. It is billed but
// never claimed.
func NewMiscCharge(description, category string, charges decimal.Decimal) ChargeItem {
	return ChargeItem{description: description, category: category, charges: charges}
}

func (c ChargeItem) Description() string      { return c.description }
func (c ChargeItem) Category() string         { return c.category }
func (c ChargeItem) Charges() decimal.Decimal { return c.charges }

func (c ChargeItem) DiagnosisCode() string {
	if c.diagnosis == nil {
		return ""
	}
	return c.diagnosis.Code()
}

func (c ChargeItem) ProcedureCode() string {
	if c.procedure == nil {
		return ""
	}
	return c.procedure.Code()
}

func (c ChargeItem) AccidentSubType() (insurance.AccidentType, bool) {
	if c.accident == nil {
		return "", false
	}
	return *c.accident, true
}

func (c ChargeItem) ResolveBenefitType(inpatient bool) insurance.BenefitType {
	if c.accident != nil {
		return insurance.BenefitAccident
	}
	if c.procedure != nil {
		return insurance.ResolveProcedureBenefit(c.procedure.Code(), inpatient)
	}
	return insurance.ResolveDiagnosisBenefit(c.DiagnosisCode(), inpatient)
}

func (c ChargeItem) BenefitDescription(inpatient bool) string {
	return string(c.ResolveBenefitType(inpatient))
}
