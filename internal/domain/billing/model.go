package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/insurance"
)

// ErrStateConflict marks bill lifecycle violations: illegal transitions and
// operations attempted against a finalized bill. Handlers map it to 409.
var ErrStateConflict = errors.New("state conflict")

// BillingStatus is the lifecycle state of a bill.
type BillingStatus string

const (
	BillDraft             BillingStatus = "DRAFT"
	BillPending           BillingStatus = "PENDING"
	BillSubmitted         BillingStatus = "SUBMITTED"
	BillInsurancePending  BillingStatus = "INSURANCE_PENDING"
	BillInsuranceApproved BillingStatus = "INSURANCE_APPROVED"
	BillInsuranceRejected BillingStatus = "INSURANCE_REJECTED"
	BillPartiallyPaid     BillingStatus = "PARTIALLY_PAID"
	BillPaid              BillingStatus = "PAID"
	BillOverdue           BillingStatus = "OVERDUE"
	BillCancelled         BillingStatus = "CANCELLED"
	BillInDispute         BillingStatus = "IN_DISPUTE"
	BillRefundPending     BillingStatus = "REFUND_PENDING"
	BillRefunded          BillingStatus = "REFUNDED"
)

// Finalized reports whether the status is terminal. Finalized bills reject
// every further mutation.
func (s BillingStatus) Finalized() bool {
	return s == BillPaid || s == BillCancelled || s == BillRefunded
}

// RequiresAction reports whether the bill is waiting on someone.
func (s BillingStatus) RequiresAction() bool {
	switch s {
	case BillInsurancePending, BillPartiallyPaid, BillOverdue, BillInDispute, BillRefundPending:
		return true
	}
	return false
}

// InsuranceRelated reports whether the status belongs to the claim flow.
func (s BillingStatus) InsuranceRelated() bool {
	return s == BillInsurancePending || s == BillInsuranceApproved || s == BillInsuranceRejected
}

// PaymentMethod is how a bill was (or will be) settled.
type PaymentMethod string

const (
	PayCash          PaymentMethod = "CASH"
	PayCreditCard    PaymentMethod = "CREDIT_CARD"
	PayPayNow        PaymentMethod = "PAYNOW"
	PayInsurance     PaymentMethod = "INSURANCE"
	PayNotApplicable PaymentMethod = "NOT_APPLICABLE"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToUpper(s)); m {
	case PayCash, PayCreditCard, PayPayNow, PayInsurance, PayNotApplicable:
		return m, nil
	default:
		return "", fmt.Errorf("unknown payment method: %s", s)
	}
}

// Tariff rates applied to every bill.
var (
	residentDiscountRate = decimal.RequireFromString("0.30")
	taxRate              = decimal.RequireFromString("0.09")
)

// BillableItem is a clinical charge that can be placed on a bill. Items that
// additionally implement insurance.ClaimableItem are eligible for coverage
// evaluation.
type BillableItem interface {
	Description() string
	Charges() decimal.Decimal
	Category() string
}

// LineItem is an immutable charge line on a bill. The total price is fixed at
// construction so historical bills stay stable when catalog prices change.
// Claim-relevant codes are captured flat so a stored line can still answer
// insurance.ClaimableItem queries.
type LineItem struct {
	ID          uuid.UUID               `json:"id"`
	BillID      uuid.UUID               `json:"bill_id"`
	Description string                  `json:"description"`
	Category    string                  `json:"category"`
	Quantity    int                     `json:"quantity"`
	UnitPrice   decimal.Decimal         `json:"unit_price"`
	TotalPrice  decimal.Decimal         `json:"total_price"`
	Claimable   bool                    `json:"claimable"`
	Diagnosis   *string                 `json:"diagnosis_code,omitempty"`
	Procedure   *string                 `json:"procedure_code,omitempty"`
	Accident    *insurance.AccidentType `json:"accident_type,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

// NewLineItem prices the item at construction time. Claim codes are captured
// when the item is also claimable.
func NewLineItem(item BillableItem, quantity int) (*LineItem, error) {
	if item == nil {
		return nil, fmt.Errorf("billable item is required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive")
	}

	unit := item.Charges()
	li := &LineItem{
		ID:          uuid.New(),
		Description: item.Description(),
		Category:    item.Category(),
		Quantity:    quantity,
		UnitPrice:   unit,
		TotalPrice:  unit.Mul(decimal.NewFromInt(int64(quantity))),
	}

	if ci, ok := item.(insurance.ClaimableItem); ok {
		li.Claimable = true
		if code := ci.DiagnosisCode(); code != "" {
			li.Diagnosis = &code
		}
		if code := ci.ProcedureCode(); code != "" {
			li.Procedure = &code
		}
		if sub, ok := ci.AccidentSubType(); ok {
			li.Accident = &sub
		}
	}
	return li, nil
}

// ResolveBenefitType classifies the line for coverage matching: accident
// lines are ACCIDENT, otherwise the procedure code decides, then the
// diagnosis code.
func (li *LineItem) ResolveBenefitType(inpatient bool) insurance.BenefitType {
	if li.Accident != nil {
		return insurance.BenefitAccident
	}
	if li.Procedure != nil {
		return insurance.ResolveProcedureBenefit(*li.Procedure, inpatient)
	}
	return insurance.ResolveDiagnosisBenefit(li.DiagnosisCode(), inpatient)
}

func (li *LineItem) BenefitDescription(inpatient bool) string {
	return string(li.ResolveBenefitType(inpatient))
}

func (li *LineItem) DiagnosisCode() string {
	if li.Diagnosis == nil {
		return ""
	}
	return *li.Diagnosis
}

func (li *LineItem) ProcedureCode() string {
	if li.Procedure == nil {
		return ""
	}
	return *li.Procedure
}

func (li *LineItem) AccidentSubType() (insurance.AccidentType, bool) {
	if li.Accident == nil {
		return "", false
	}
	return *li.Accident, true
}

// Bill aggregates a patient's charge lines, keeps a category breakdown in
// sync with them, owns the payment lifecycle and computes the
// discount/tax/grand-total pipeline.
type Bill struct {
	ID            uuid.UUID       `json:"id"`
	BillNumber    string          `json:"bill_number"`
	PatientID     uuid.UUID       `json:"patient_id"`
	PolicyID      *uuid.UUID      `json:"policy_id,omitempty"`
	Inpatient     bool            `json:"inpatient"`
	Emergency     bool            `json:"emergency"`
	Resident      bool            `json:"resident"`
	Status        BillingStatus   `json:"status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	SettledAmount decimal.Decimal `json:"settled_amount"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Items   []*LineItem                `json:"items,omitempty"`
	Charges map[string]decimal.Decimal `json:"charges,omitempty"`
}

// AddLineItem prices and attaches a charge, then rebuilds the category
// breakdown. Finalized bills reject new charges.
func (b *Bill) AddLineItem(item BillableItem, quantity int) (*LineItem, error) {
	if b.Status.Finalized() {
		return nil, fmt.Errorf("%w: bill %s is %s", ErrStateConflict, b.BillNumber, b.Status)
	}
	li, err := NewLineItem(item, quantity)
	if err != nil {
		return nil, err
	}
	li.BillID = b.ID
	b.Items = append(b.Items, li)
	b.RecalculateCharges()
	return li, nil
}

// RecalculateCharges rebuilds the category breakdown from the current lines.
func (b *Bill) RecalculateCharges() {
	charges := make(map[string]decimal.Decimal, len(b.Items))
	for _, li := range b.Items {
		charges[li.Category] = charges[li.Category].Add(li.TotalPrice)
	}
	b.Charges = charges
}

// TotalAmount is the pre-discount, pre-tax sum of all charges.
func (b *Bill) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range b.Charges {
		total = total.Add(amount)
	}
	return total
}

// DiscountAmount is the resident subsidy on the total, zero for
// non-residents.
func (b *Bill) DiscountAmount() decimal.Decimal {
	if !b.Resident {
		return decimal.Zero
	}
	return b.TotalAmount().Mul(residentDiscountRate)
}

// TaxAmount is the tax due on the discounted total.
func (b *Bill) TaxAmount() decimal.Decimal {
	return b.TotalAmount().Sub(b.DiscountAmount()).Mul(taxRate)
}

// GrandTotal = (total - discount) * (1 + tax rate).
func (b *Bill) GrandTotal() decimal.Decimal {
	discounted := b.TotalAmount().Sub(b.DiscountAmount())
	return discounted.Add(discounted.Mul(taxRate))
}

// OutstandingBalance is what remains payable after settlements.
func (b *Bill) OutstandingBalance() decimal.Decimal {
	return b.GrandTotal().Sub(b.SettledAmount)
}
