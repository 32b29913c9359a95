package billing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/insurance"
)

// plainItem is a billable charge without clinical codes.
type plainItem struct {
	desc     string
	category string
	price    string
}

func (i plainItem) Description() string      { return i.desc }
func (i plainItem) Category() string         { return i.category }
func (i plainItem) Charges() decimal.Decimal { return decimal.RequireFromString(i.price) }

// codedItem is a billable charge carrying clinical codes, making it claimable.
type codedItem struct {
	plainItem
	diagnosis string
	procedure string
	accident  *insurance.AccidentType
}

func (i codedItem) DiagnosisCode() string { return i.diagnosis }
func (i codedItem) ProcedureCode() string { return i.procedure }

func (i codedItem) AccidentSubType() (insurance.AccidentType, bool) {
	if i.accident == nil {
		return "", false
	}
	return *i.accident, true
}

func (i codedItem) ResolveBenefitType(inpatient bool) insurance.BenefitType {
	if i.accident != nil {
		return insurance.BenefitAccident
	}
	if i.procedure != "" {
		return insurance.ResolveProcedureBenefit(i.procedure, inpatient)
	}
	return insurance.ResolveDiagnosisBenefit(i.diagnosis, inpatient)
}

func (i codedItem) BenefitDescription(inpatient bool) string {
	return string(i.ResolveBenefitType(inpatient))
}

func newTestBill(resident bool) *Bill {
	return &Bill{
		ID:            uuid.New(),
		BillNumber:    "BILL-20260831-0001",
		PatientID:     uuid.New(),
		Resident:      resident,
		Status:        BillDraft,
		PaymentMethod: PayNotApplicable,
		SettledAmount: decimal.Zero,
	}
}

func TestNewLineItem(t *testing.T) {
	li, err := NewLineItem(plainItem{"Ward stay", "ACCOMMODATION", "200"}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !li.TotalPrice.Equal(decimal.RequireFromString("600")) {
		t.Errorf("total = %s, want 600", li.TotalPrice)
	}
	if li.Claimable {
		t.Error("item without codes should not be claimable")
	}

	if _, err := NewLineItem(nil, 1); err == nil {
		t.Error("expected error for nil item")
	}
	if _, err := NewLineItem(plainItem{"x", "y", "1"}, 0); err == nil {
		t.Error("expected error for zero quantity")
	}
}

func TestNewLineItem_CapturesClaimCodes(t *testing.T) {
	sub := insurance.AccidentFracture
	li, err := NewLineItem(codedItem{
		plainItem: plainItem{"Fracture treatment", "TREATMENT", "800"},
		diagnosis: "S52.5",
		accident:  &sub,
	}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !li.Claimable {
		t.Error("coded item should be claimable")
	}
	if li.DiagnosisCode() != "S52.5" {
		t.Errorf("diagnosis = %q, want S52.5", li.DiagnosisCode())
	}
	if got, ok := li.AccidentSubType(); !ok || got != insurance.AccidentFracture {
		t.Errorf("accident = %v %v, want FRACTURE true", got, ok)
	}
	if li.ResolveBenefitType(true) != insurance.BenefitAccident {
		t.Errorf("benefit = %s, want ACCIDENT", li.ResolveBenefitType(true))
	}
}

func TestBill_MoneyPipeline_Resident(t *testing.T) {
	b := newTestBill(true)
	if _, err := b.AddLineItem(plainItem{"Consultation", "CONSULTATION", "150"}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !b.TotalAmount().Equal(decimal.RequireFromString("150")) {
		t.Errorf("total = %s, want 150", b.TotalAmount())
	}
	if !b.DiscountAmount().Equal(decimal.RequireFromString("45")) {
		t.Errorf("discount = %s, want 45", b.DiscountAmount())
	}
	if !b.TaxAmount().Equal(decimal.RequireFromString("9.45")) {
		t.Errorf("tax = %s, want 9.45", b.TaxAmount())
	}
	if !b.GrandTotal().Equal(decimal.RequireFromString("114.45")) {
		t.Errorf("grand total = %s, want 114.45", b.GrandTotal())
	}
	if !b.OutstandingBalance().Equal(decimal.RequireFromString("114.45")) {
		t.Errorf("outstanding = %s, want 114.45", b.OutstandingBalance())
	}
}

func TestBill_MoneyPipeline_NonResident(t *testing.T) {
	b := newTestBill(false)
	if _, err := b.AddLineItem(plainItem{"Consultation", "CONSULTATION", "150"}, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !b.DiscountAmount().IsZero() {
		t.Errorf("discount = %s, want 0", b.DiscountAmount())
	}
	if !b.GrandTotal().Equal(decimal.RequireFromString("163.5")) {
		t.Errorf("grand total = %s, want 163.5", b.GrandTotal())
	}
}

func TestBill_ChargesByCategory(t *testing.T) {
	b := newTestBill(false)
	mustAdd(t, b, plainItem{"Ward stay", "ACCOMMODATION", "200"}, 2)
	mustAdd(t, b, plainItem{"X-ray", "IMAGING", "80"}, 1)
	mustAdd(t, b, plainItem{"MRI", "IMAGING", "700"}, 1)

	if !b.Charges["ACCOMMODATION"].Equal(decimal.RequireFromString("400")) {
		t.Errorf("accommodation = %s, want 400", b.Charges["ACCOMMODATION"])
	}
	if !b.Charges["IMAGING"].Equal(decimal.RequireFromString("780")) {
		t.Errorf("imaging = %s, want 780", b.Charges["IMAGING"])
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("1180")) {
		t.Errorf("total = %s, want 1180", b.TotalAmount())
	}
}

func mustAdd(t *testing.T, b *Bill, item BillableItem, qty int) {
	t.Helper()
	if _, err := b.AddLineItem(item, qty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBill_Lifecycle(t *testing.T) {
	b := newTestBill(false)
	mustAdd(t, b, plainItem{"Consultation", "CONSULTATION", "100"}, 1)

	if err := b.SubmitForProcessing(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillSubmitted {
		t.Fatalf("status = %s, want SUBMITTED", b.Status)
	}
	// resubmission conflicts
	if err := b.SubmitForProcessing(); !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}

	b.Status = BillInsurancePending
	if err := b.ApproveInsurance(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillInsuranceApproved {
		t.Fatalf("status = %s, want INSURANCE_APPROVED", b.Status)
	}
	if err := b.RejectInsurance(); !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}
}

func TestBill_Payments(t *testing.T) {
	b := newTestBill(false)
	mustAdd(t, b, plainItem{"Surgery", "SURGERY", "1000"}, 1)
	b.Status = BillSubmitted
	grand := b.GrandTotal()

	if err := b.RecordPartialPayment(decimal.RequireFromString("500"), PayCash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillPartiallyPaid {
		t.Fatalf("status = %s, want PARTIALLY_PAID", b.Status)
	}
	if !b.OutstandingBalance().Equal(grand.Sub(decimal.RequireFromString("500"))) {
		t.Errorf("outstanding = %s", b.OutstandingBalance())
	}

	// a payment covering the full balance must go through RecordFullPayment
	if err := b.RecordPartialPayment(grand, PayCash); err == nil {
		t.Error("expected error for payment covering the bill")
	}
	if err := b.RecordPartialPayment(decimal.Zero, PayCash); err == nil {
		t.Error("expected error for zero payment")
	}

	// repeated partials are bounded by the outstanding balance, not the
	// grand total: 600 is under the 1090 grand total but over the 590 left
	if err := b.RecordPartialPayment(decimal.RequireFromString("600"), PayCash); err == nil {
		t.Error("expected error for partial exceeding the outstanding balance")
	}
	if !b.SettledAmount.Equal(decimal.RequireFromString("500")) {
		t.Errorf("settled = %s, want 500 after rejected partial", b.SettledAmount)
	}

	if err := b.RecordFullPayment(PayCreditCard); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillPaid {
		t.Fatalf("status = %s, want PAID", b.Status)
	}
	if !b.OutstandingBalance().IsZero() {
		t.Errorf("outstanding = %s, want 0", b.OutstandingBalance())
	}
	if !b.SettledAmount.Equal(grand) {
		t.Errorf("settled = %s, want %s", b.SettledAmount, grand)
	}
}

func TestBill_FinalizedRejectsMutations(t *testing.T) {
	for _, status := range []BillingStatus{BillPaid, BillCancelled, BillRefunded} {
		t.Run(string(status), func(t *testing.T) {
			b := newTestBill(false)
			mustAdd(t, b, plainItem{"Consultation", "CONSULTATION", "100"}, 1)
			b.Status = status

			if _, err := b.AddLineItem(plainItem{"Extra", "MISC", "10"}, 1); !errors.Is(err, ErrStateConflict) {
				t.Errorf("AddLineItem err = %v, want ErrStateConflict", err)
			}
			if err := b.RecordPartialPayment(decimal.RequireFromString("10"), PayCash); !errors.Is(err, ErrStateConflict) {
				t.Errorf("RecordPartialPayment err = %v, want ErrStateConflict", err)
			}
			if err := b.RecordFullPayment(PayCash); !errors.Is(err, ErrStateConflict) {
				t.Errorf("RecordFullPayment err = %v, want ErrStateConflict", err)
			}
			if err := b.CancelBill(); !errors.Is(err, ErrStateConflict) {
				t.Errorf("CancelBill err = %v, want ErrStateConflict", err)
			}
			if err := b.MarkAsOverdue(); !errors.Is(err, ErrStateConflict) {
				t.Errorf("MarkAsOverdue err = %v, want ErrStateConflict", err)
			}
			if err := b.MarkInDispute(); !errors.Is(err, ErrStateConflict) {
				t.Errorf("MarkInDispute err = %v, want ErrStateConflict", err)
			}
		})
	}
}

func TestBill_RefundFlow(t *testing.T) {
	b := newTestBill(false)
	mustAdd(t, b, plainItem{"Surgery", "SURGERY", "1000"}, 1)
	b.Status = BillSubmitted

	// only paid bills can be refunded
	if err := b.InitiateRefund(); !errors.Is(err, ErrStateConflict) {
		t.Fatalf("err = %v, want ErrStateConflict", err)
	}

	if err := b.RecordFullPayment(PayCash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.InitiateRefund(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillRefundPending {
		t.Fatalf("status = %s, want REFUND_PENDING", b.Status)
	}
	if err := b.CompleteRefund(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillRefunded {
		t.Fatalf("status = %s, want REFUNDED", b.Status)
	}
	if !b.SettledAmount.IsZero() {
		t.Errorf("settled = %s, want 0", b.SettledAmount)
	}
	// refunded is terminal
	if err := b.InitiateRefund(); !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}
}

func TestBillingStatus_Predicates(t *testing.T) {
	if !BillPaid.Finalized() || !BillCancelled.Finalized() || !BillRefunded.Finalized() {
		t.Error("PAID, CANCELLED and REFUNDED are finalized")
	}
	if BillRefundPending.Finalized() {
		t.Error("REFUND_PENDING is not finalized")
	}
	if !BillInsurancePending.RequiresAction() || !BillOverdue.RequiresAction() {
		t.Error("INSURANCE_PENDING and OVERDUE require action")
	}
	if BillDraft.RequiresAction() {
		t.Error("DRAFT does not require action")
	}
	if !BillInsuranceApproved.InsuranceRelated() || BillPaid.InsuranceRelated() {
		t.Error("insurance-related predicate mismatch")
	}
}

func TestParsePaymentMethod(t *testing.T) {
	if m, err := ParsePaymentMethod("paynow"); err != nil || m != PayPayNow {
		t.Errorf("got %s, %v", m, err)
	}
	if _, err := ParsePaymentMethod("BARTER"); err == nil {
		t.Error("expected error for unknown method")
	}
}
