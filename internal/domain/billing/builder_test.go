package billing

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubVisit struct {
	finalized bool
	emergency bool
	items     []BillableItem
}

func (v stubVisit) Finalized() bool               { return v.finalized }
func (v stubVisit) Emergency() bool               { return v.emergency }
func (v stubVisit) BillableItems() []BillableItem { return v.items }

type stubConsultation struct {
	items []BillableItem
}

func (c stubConsultation) BillableItems() []BillableItem { return c.items }

func TestBuilder_FromVisit(t *testing.T) {
	patientID := uuid.New()
	policyID := uuid.New()
	visit := stubVisit{
		finalized: true,
		emergency: true,
		items: []BillableItem{
			plainItem{"Ward stay", "ACCOMMODATION", "200"},
			plainItem{"X-ray", "IMAGING", "80"},
		},
	}

	b, err := NewBuilder(patientID).
		WithPolicy(policyID).
		AsResident(true).
		WithVisit(visit).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.Status != BillDraft {
		t.Errorf("status = %s, want DRAFT", b.Status)
	}
	if b.PaymentMethod != PayNotApplicable {
		t.Errorf("payment method = %s, want NOT_APPLICABLE", b.PaymentMethod)
	}
	if !b.Inpatient || !b.Emergency || !b.Resident {
		t.Errorf("flags = inpatient %v emergency %v resident %v", b.Inpatient, b.Emergency, b.Resident)
	}
	if b.PolicyID == nil || *b.PolicyID != policyID {
		t.Errorf("policy id = %v, want %s", b.PolicyID, policyID)
	}
	if len(b.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(b.Items))
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("280")) {
		t.Errorf("total = %s, want 280", b.TotalAmount())
	}
	if !strings.HasPrefix(b.BillNumber, "BILL-") {
		t.Errorf("bill number = %q", b.BillNumber)
	}
	if !b.SettledAmount.IsZero() {
		t.Errorf("settled = %s, want 0", b.SettledAmount)
	}
}

func TestBuilder_FromConsultations(t *testing.T) {
	b, err := NewBuilder(uuid.New()).
		WithConsultation(stubConsultation{items: []BillableItem{plainItem{"Consultation", "CONSULTATION", "150"}}}).
		WithConsultation(stubConsultation{items: []BillableItem{plainItem{"Medication", "MEDICATION", "30"}}}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Inpatient || b.Emergency {
		t.Error("consultation bills are outpatient and non-emergency")
	}
	if len(b.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(b.Items))
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("180")) {
		t.Errorf("total = %s, want 180", b.TotalAmount())
	}
}

func TestBuilder_Validation(t *testing.T) {
	if _, err := NewBuilder(uuid.Nil).WithVisit(stubVisit{finalized: true}).Build(); err == nil {
		t.Error("expected error for missing patient")
	}
	if _, err := NewBuilder(uuid.New()).Build(); err == nil {
		t.Error("expected error for missing encounter")
	}
	if _, err := NewBuilder(uuid.New()).WithVisit(stubVisit{finalized: false}).Build(); err == nil {
		t.Error("expected error for unfinalized visit")
	}
}
