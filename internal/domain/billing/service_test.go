package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/claims"
	"github.com/hms/hms/internal/domain/insurance"
)

type mockBillRepo struct {
	items map[uuid.UUID]*Bill
}

func newMockBillRepo() *mockBillRepo {
	return &mockBillRepo{items: make(map[uuid.UUID]*Bill)}
}

func (m *mockBillRepo) Create(_ context.Context, b *Bill) error {
	m.items[b.ID] = b
	return nil
}

func (m *mockBillRepo) GetByID(_ context.Context, id uuid.UUID) (*Bill, error) {
	b, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return b, nil
}

func (m *mockBillRepo) GetByBillNumber(_ context.Context, billNumber string) (*Bill, error) {
	for _, b := range m.items {
		if b.BillNumber == billNumber {
			return b, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockBillRepo) Update(_ context.Context, b *Bill) error {
	m.items[b.ID] = b
	return nil
}

func (m *mockBillRepo) AddItem(_ context.Context, _ *LineItem) error { return nil }

func (m *mockBillRepo) ListByPatient(_ context.Context, patientID uuid.UUID, _, _ int) ([]*Bill, int, error) {
	var result []*Bill
	for _, b := range m.items {
		if b.PatientID == patientID {
			result = append(result, b)
		}
	}
	return result, len(result), nil
}

func (m *mockBillRepo) ListByStatus(_ context.Context, status BillingStatus, _, _ int) ([]*Bill, int, error) {
	var result []*Bill
	for _, b := range m.items {
		if b.Status == status {
			result = append(result, b)
		}
	}
	return result, len(result), nil
}

type mockPolicyProvider struct {
	policies map[uuid.UUID]*insurance.HeldInsurancePolicy
}

func (m *mockPolicyProvider) GetPolicy(_ context.Context, id uuid.UUID) (*insurance.HeldInsurancePolicy, error) {
	p, ok := m.policies[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return p, nil
}

func (m *mockPolicyProvider) ActivePolicyForPatient(_ context.Context, patientID uuid.UUID) (*insurance.HeldInsurancePolicy, error) {
	for _, p := range m.policies {
		if p.PatientID() == patientID && p.Active() {
			return p, nil
		}
	}
	return nil, nil
}

type mockFiler struct {
	filed []*claims.Claim
}

func (m *mockFiler) CreateClaim(_ context.Context, req claims.CreateClaimRequest) (*claims.Claim, error) {
	c := &claims.Claim{
		ID:          uuid.New(),
		ClaimNumber: fmt.Sprintf("CLM-TEST-%04d", len(m.filed)+1),
		BillID:      req.BillID,
		PolicyID:    req.PolicyID,
		PatientID:   req.PatientID,
		ClaimAmount: req.ClaimAmount,
		Status:      claims.StatusDraft,
	}
	m.filed = append(m.filed, c)
	return c, nil
}

func newTestService() (*Service, *mockBillRepo, *mockPolicyProvider, *mockFiler) {
	bills := newMockBillRepo()
	policies := &mockPolicyProvider{policies: make(map[uuid.UUID]*insurance.HeldInsurancePolicy)}
	filer := &mockFiler{}
	return NewService(bills, policies, filer), bills, policies, filer
}

func registerPolicy(t *testing.T, provider *mockPolicyProvider, patientID uuid.UUID, spec insurance.CoverageSpec) *insurance.HeldInsurancePolicy {
	t.Helper()
	cov, err := insurance.NewBaseCoverage(spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	policy, err := insurance.NewHeldPolicy(insurance.PolicySpec{
		PolicyNumber: "POL-100",
		PatientID:    patientID,
		ProviderName: "NTUC Income",
		Coverage:     cov,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.policies[policy.ID()] = policy
	return policy
}

func TestCreateBill(t *testing.T) {
	svc, _, _, _ := newTestService()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: uuid.New(),
		Resident:  true,
		Charges: []ChargePayload{
			{ItemDescription: "Consultation", ItemCategory: "CONSULTATION", UnitPrice: decimal.RequireFromString("150"), ItemQuantity: 1},
			{ItemDescription: "Medication", ItemCategory: "MEDICATION", UnitPrice: decimal.RequireFromString("10"), ItemQuantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillDraft {
		t.Errorf("status = %s, want DRAFT", b.Status)
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("180")) {
		t.Errorf("total = %s, want 180", b.TotalAmount())
	}
	// the quantity is priced into the line at construction
	if len(b.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(b.Items))
	}
	if b.Items[1].Quantity != 3 || !b.Items[1].TotalPrice.Equal(decimal.RequireFromString("30")) {
		t.Errorf("medication line = qty %d total %s, want qty 3 total 30", b.Items[1].Quantity, b.Items[1].TotalPrice)
	}
	// (180 - 54) * 1.09
	if !b.GrandTotal().Equal(decimal.RequireFromString("137.34")) {
		t.Errorf("grand total = %s, want 137.34", b.GrandTotal())
	}
}

func TestCreateBill_Validation(t *testing.T) {
	svc, _, _, _ := newTestService()

	if _, err := svc.CreateBill(context.Background(), CreateBillRequest{
		Charges: []ChargePayload{{ItemDescription: "x", ItemCategory: "y", UnitPrice: decimal.NewFromInt(1)}},
	}); err == nil {
		t.Error("expected error for missing patient")
	}
}

func TestCreateBillFromVisit(t *testing.T) {
	svc, bills, _, _ := newTestService()

	visit := stubVisit{
		finalized: true,
		emergency: true,
		items: []BillableItem{
			plainItem{"Ward stay", "ACCOMMODATION", "200"},
			plainItem{"X-ray", "IMAGING", "80"},
		},
	}
	b, err := svc.CreateBillFromVisit(context.Background(), EncounterBillRequest{
		PatientID: uuid.New(),
		Resident:  true,
	}, visit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !b.Inpatient || !b.Emergency {
		t.Errorf("inpatient = %v emergency = %v, want both true", b.Inpatient, b.Emergency)
	}
	if len(b.Items) != 2 {
		t.Fatalf("lines = %d, want 2", len(b.Items))
	}
	if _, ok := bills.items[b.ID]; !ok {
		t.Error("bill was not persisted")
	}
}

func TestCreateBillFromVisit_OpenVisit(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.CreateBillFromVisit(context.Background(), EncounterBillRequest{
		PatientID: uuid.New(),
	}, stubVisit{finalized: false})
	if err == nil {
		t.Error("expected error for an unfinalized visit")
	}
}

func TestCreateBillFromConsultation(t *testing.T) {
	svc, _, _, _ := newTestService()

	b, err := svc.CreateBillFromConsultation(context.Background(), EncounterBillRequest{
		PatientID: uuid.New(),
	}, stubConsultation{items: []BillableItem{plainItem{"Consultation", "CONSULTATION", "150"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Inpatient {
		t.Error("consultation bill must not be inpatient")
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("150")) {
		t.Errorf("total = %s, want 150", b.TotalAmount())
	}
}

func TestEvaluateCoverage_FilesClaimOnApproval(t *testing.T) {
	svc, _, policies, filer := newTestService()
	patientID := uuid.New()
	policy := registerPolicy(t, policies, patientID, insurance.CoverageSpec{
		Deductible:      decimal.RequireFromString("200"),
		CoveredBenefits: []insurance.BenefitType{insurance.BenefitHospitalization},
	})
	policyID := policy.ID()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: patientID,
		PolicyID:  &policyID,
		Inpatient: true,
		Charges: []ChargePayload{
			{ItemDescription: "Ward stay", ItemCategory: "ACCOMMODATION", UnitPrice: decimal.RequireFromString("500"), ItemQuantity: 1, Diagnosis: "A00.0"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitBill(context.Background(), b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, claim, err := svc.EvaluateCoverage(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Approved {
		t.Fatalf("denied: %s", result.DenialReason)
	}
	if claim == nil {
		t.Fatal("expected a filed claim")
	}
	if !claim.ClaimAmount.Equal(decimal.RequireFromString("300")) {
		t.Errorf("claim amount = %s, want 300", claim.ClaimAmount)
	}
	if claim.BillID != b.ID || claim.PolicyID != policyID {
		t.Errorf("claim refs = %s %s", claim.BillID, claim.PolicyID)
	}
	if len(filer.filed) != 1 {
		t.Errorf("filed = %d, want 1", len(filer.filed))
	}

	stored, err := svc.GetBill(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Status != BillInsurancePending {
		t.Errorf("status = %s, want INSURANCE_PENDING", stored.Status)
	}
}

func TestEvaluateCoverage_NoActivePolicy(t *testing.T) {
	svc, _, _, filer := newTestService()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: uuid.New(),
		Charges: []ChargePayload{
			{ItemDescription: "Consultation", ItemCategory: "CONSULTATION", UnitPrice: decimal.RequireFromString("150"), ItemQuantity: 1, Diagnosis: "J06.9"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitBill(context.Background(), b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, claim, err := svc.EvaluateCoverage(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Approved || claim != nil {
		t.Errorf("result = %+v, claim = %v", result, claim)
	}
	if result.DenialReason != DenialNoPolicy {
		t.Errorf("reason = %q, want %q", result.DenialReason, DenialNoPolicy)
	}
	if len(filer.filed) != 0 {
		t.Errorf("filed = %d, want 0", len(filer.filed))
	}
}

func TestBillPaymentFlow(t *testing.T) {
	svc, _, _, _ := newTestService()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: uuid.New(),
		Charges: []ChargePayload{
			{ItemDescription: "Surgery", ItemCategory: "SURGERY", UnitPrice: decimal.RequireFromString("1000"), ItemQuantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitBill(context.Background(), b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err = svc.RecordPayment(context.Background(), b.ID, decimal.RequireFromString("500"), PayCash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillPartiallyPaid {
		t.Fatalf("status = %s, want PARTIALLY_PAID", b.Status)
	}

	b, err = svc.PayBill(context.Background(), b.ID, PayCreditCard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillPaid {
		t.Fatalf("status = %s, want PAID", b.Status)
	}
	if !b.OutstandingBalance().IsZero() {
		t.Errorf("outstanding = %s, want 0", b.OutstandingBalance())
	}

	// paid is terminal for payments and cancellation
	if _, err := svc.CancelBill(context.Background(), b.ID); !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}

	b, err = svc.InitiateRefund(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillRefundPending {
		t.Fatalf("status = %s, want REFUND_PENDING", b.Status)
	}
	b, err = svc.CompleteRefund(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillRefunded || !b.SettledAmount.IsZero() {
		t.Errorf("status = %s settled = %s", b.Status, b.SettledAmount)
	}
}

func TestAddCharge(t *testing.T) {
	svc, _, _, _ := newTestService()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: uuid.New(),
		Charges: []ChargePayload{
			{ItemDescription: "Consultation", ItemCategory: "CONSULTATION", UnitPrice: decimal.RequireFromString("150"), ItemQuantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err = svc.AddCharge(context.Background(), b.ID, ChargePayload{
		ItemDescription: "Blood test", ItemCategory: "LABORATORY",
		UnitPrice: decimal.RequireFromString("45"), ItemQuantity: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(b.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(b.Items))
	}
	if !b.TotalAmount().Equal(decimal.RequireFromString("240")) {
		t.Errorf("total = %s, want 240", b.TotalAmount())
	}
}

func TestMarkOverdueAndDispute(t *testing.T) {
	svc, _, _, _ := newTestService()

	b, err := svc.CreateBill(context.Background(), CreateBillRequest{
		PatientID: uuid.New(),
		Charges: []ChargePayload{
			{ItemDescription: "Consultation", ItemCategory: "CONSULTATION", UnitPrice: decimal.RequireFromString("150"), ItemQuantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitBill(context.Background(), b.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b, err = svc.MarkOverdue(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillOverdue {
		t.Fatalf("status = %s, want OVERDUE", b.Status)
	}
	if _, err := svc.MarkOverdue(context.Background(), b.ID); !errors.Is(err, ErrStateConflict) {
		t.Errorf("err = %v, want ErrStateConflict", err)
	}

	b, err = svc.MarkInDispute(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Status != BillInDispute {
		t.Fatalf("status = %s, want IN_DISPUTE", b.Status)
	}
}
