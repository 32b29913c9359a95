package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/claims"
	"github.com/hms/hms/internal/domain/insurance"
)

// PolicyProvider resolves the insurance policy a bill is evaluated against.
type PolicyProvider interface {
	GetPolicy(ctx context.Context, id uuid.UUID) (*insurance.HeldInsurancePolicy, error)
	ActivePolicyForPatient(ctx context.Context, patientID uuid.UUID) (*insurance.HeldInsurancePolicy, error)
}

// ClaimFiler opens an insurance claim once coverage has been approved.
type ClaimFiler interface {
	CreateClaim(ctx context.Context, req claims.CreateClaimRequest) (*claims.Claim, error)
}

type Service struct {
	bills    Repository
	policies PolicyProvider
	filer    ClaimFiler
}

func NewService(bills Repository, policies PolicyProvider, filer ClaimFiler) *Service {
	return &Service{bills: bills, policies: policies, filer: filer}
}

// ChargePayload is a billable charge supplied over the API. It satisfies both
// BillableItem and insurance.ClaimableItem, so claimable charges carry their
// clinical codes onto the line.
type ChargePayload struct {
	ItemDescription string                  `json:"description"`
	ItemCategory    string                  `json:"category"`
	UnitPrice       decimal.Decimal         `json:"unit_price"`
	ItemQuantity    int                     `json:"quantity"`
	Diagnosis       string                  `json:"diagnosis_code"`
	Procedure       string                  `json:"procedure_code"`
	Accident        *insurance.AccidentType `json:"accident_type"`
}

func (p ChargePayload) Description() string      { return p.ItemDescription }
func (p ChargePayload) Category() string         { return p.ItemCategory }
func (p ChargePayload) Charges() decimal.Decimal { return p.UnitPrice }

// Quantity normalises an omitted count to one unit.
func (p ChargePayload) Quantity() int {
	if p.ItemQuantity <= 0 {
		return 1
	}
	return p.ItemQuantity
}

func (p ChargePayload) DiagnosisCode() string { return p.Diagnosis }
func (p ChargePayload) ProcedureCode() string { return p.Procedure }

func (p ChargePayload) AccidentSubType() (insurance.AccidentType, bool) {
	if p.Accident == nil {
		return "", false
	}
	return *p.Accident, true
}

func (p ChargePayload) ResolveBenefitType(inpatient bool) insurance.BenefitType {
	if p.Accident != nil {
		return insurance.BenefitAccident
	}
	if p.Procedure != "" {
		return insurance.ResolveProcedureBenefit(p.Procedure, inpatient)
	}
	return insurance.ResolveDiagnosisBenefit(p.Diagnosis, inpatient)
}

func (p ChargePayload) BenefitDescription(inpatient bool) string {
	return string(p.ResolveBenefitType(inpatient))
}

// claimable reports whether the payload carries any clinical code. Charges
// without codes are billed but never claimed.
func (p ChargePayload) claimable() bool {
	return p.Diagnosis != "" || p.Procedure != "" || p.Accident != nil
}

// payloadEncounter adapts a charge list to the builder's encounter interfaces.
type payloadEncounter struct {
	charges   []ChargePayload
	emergency bool
}

func (e payloadEncounter) Finalized() bool { return true }
func (e payloadEncounter) Emergency() bool { return e.emergency }

func (e payloadEncounter) BillableItems() []BillableItem {
	items := make([]BillableItem, 0, len(e.charges))
	for _, c := range e.charges {
		if c.claimable() {
			items = append(items, claimableCharge{c})
		} else {
			items = append(items, billedCharge{c})
		}
	}
	return items
}

// claimableCharge exposes the full ClaimableItem surface.
type claimableCharge struct{ ChargePayload }

// billedCharge hides the claim methods so the line is billed without ever
// entering coverage evaluation.
type billedCharge struct{ p ChargePayload }

func (b billedCharge) Description() string      { return b.p.ItemDescription }
func (b billedCharge) Category() string         { return b.p.ItemCategory }
func (b billedCharge) Charges() decimal.Decimal { return b.p.UnitPrice }
func (b billedCharge) Quantity() int            { return b.p.Quantity() }

// CreateBillRequest assembles a bill from charges supplied over the API.
type CreateBillRequest struct {
	PatientID uuid.UUID       `json:"patient_id"`
	PolicyID  *uuid.UUID      `json:"policy_id"`
	Inpatient bool            `json:"inpatient"`
	Emergency bool            `json:"emergency"`
	Resident  bool            `json:"resident"`
	Charges   []ChargePayload `json:"charges"`
}

func (s *Service) CreateBill(ctx context.Context, req CreateBillRequest) (*Bill, error) {
	builder := s.newBuilder(EncounterBillRequest{
		PatientID: req.PatientID,
		PolicyID:  req.PolicyID,
		Resident:  req.Resident,
	})
	enc := payloadEncounter{charges: req.Charges, emergency: req.Emergency}
	if req.Inpatient {
		builder = builder.WithVisit(enc)
	} else {
		builder = builder.WithConsultation(enc)
	}
	return s.buildAndStore(ctx, builder)
}

// EncounterBillRequest carries the billing context for a bill assembled from
// a clinical encounter.
type EncounterBillRequest struct {
	PatientID uuid.UUID
	PolicyID  *uuid.UUID
	Resident  bool
}

// CreateBillFromVisit bills a discharged inpatient visit, including its ward
// accommodation charge. The visit must be finalized.
func (s *Service) CreateBillFromVisit(ctx context.Context, req EncounterBillRequest, v Visit) (*Bill, error) {
	return s.buildAndStore(ctx, s.newBuilder(req).WithVisit(v))
}

// CreateBillFromConsultation bills an outpatient consultation.
func (s *Service) CreateBillFromConsultation(ctx context.Context, req EncounterBillRequest, cons Consultation) (*Bill, error) {
	return s.buildAndStore(ctx, s.newBuilder(req).WithConsultation(cons))
}

func (s *Service) newBuilder(req EncounterBillRequest) *Builder {
	builder := NewBuilder(req.PatientID).AsResident(req.Resident)
	if req.PolicyID != nil {
		builder = builder.WithPolicy(*req.PolicyID)
	}
	return builder
}

func (s *Service) buildAndStore(ctx context.Context, builder *Builder) (*Bill, error) {
	b, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if err := s.bills.Create(ctx, b); err != nil {
		return nil, err
	}
	log.Info().Str("bill_number", b.BillNumber).Str("patient_id", b.PatientID.String()).Msg("bill created")
	return b, nil
}

func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.bills.GetByID(ctx, id)
}

func (s *Service) GetBillByNumber(ctx context.Context, billNumber string) (*Bill, error) {
	return s.bills.GetByBillNumber(ctx, billNumber)
}

func (s *Service) ListBillsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) ListBillsByStatus(ctx context.Context, status BillingStatus, limit, offset int) ([]*Bill, int, error) {
	return s.bills.ListByStatus(ctx, status, limit, offset)
}

// AddCharge prices and attaches a charge to an open bill.
func (s *Service) AddCharge(ctx context.Context, id uuid.UUID, charge ChargePayload) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var item BillableItem = claimableCharge{charge}
	if !charge.claimable() {
		item = billedCharge{charge}
	}
	li, err := b.AddLineItem(item, charge.Quantity())
	if err != nil {
		return nil, err
	}
	if err := s.bills.AddItem(ctx, li); err != nil {
		return nil, err
	}
	return b, nil
}

// SubmitBill moves a draft bill into SUBMITTED.
func (s *Service) SubmitBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.SubmitForProcessing()
	})
}

// EvaluateCoverage resolves the bill's policy, runs coverage evaluation and,
// on approval, files a draft claim for the approved amount. The bill's status
// move to INSURANCE_PENDING is persisted for denials too.
func (s *Service) EvaluateCoverage(ctx context.Context, id uuid.UUID) (claims.CoverageResult, *claims.Claim, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return claims.CoverageResult{}, nil, err
	}

	policy, err := s.resolvePolicy(ctx, b)
	if err != nil {
		return claims.CoverageResult{}, nil, err
	}

	result, err := b.EvaluateCoverage(policy)
	if err != nil {
		return claims.CoverageResult{}, nil, err
	}
	if b.Status == BillInsurancePending {
		if err := s.bills.Update(ctx, b); err != nil {
			return claims.CoverageResult{}, nil, err
		}
	}

	if !result.Approved {
		log.Info().Str("bill_number", b.BillNumber).Str("reason", result.DenialReason).Msg("coverage denied")
		return result, nil, nil
	}

	claim, err := s.filer.CreateClaim(ctx, claims.CreateClaimRequest{
		BillID:      b.ID,
		PolicyID:    policy.ID(),
		PatientID:   b.PatientID,
		ClaimAmount: result.ApprovedAmount,
	})
	if err != nil {
		return claims.CoverageResult{}, nil, err
	}
	log.Info().
		Str("bill_number", b.BillNumber).
		Str("claim_number", claim.ClaimNumber).
		Str("amount", result.ApprovedAmount.String()).
		Msg("coverage approved")
	return result, claim, nil
}

func (s *Service) resolvePolicy(ctx context.Context, b *Bill) (*insurance.HeldInsurancePolicy, error) {
	if b.PolicyID != nil {
		policy, err := s.policies.GetPolicy(ctx, *b.PolicyID)
		if err != nil {
			return nil, fmt.Errorf("resolving policy %s: %w", b.PolicyID, err)
		}
		return policy, nil
	}
	// nil is a legitimate answer here, evaluation denies it
	return s.policies.ActivePolicyForPatient(ctx, b.PatientID)
}

// ApproveInsurance records the insurer's decision on a pending bill.
func (s *Service) ApproveInsurance(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.ApproveInsurance()
	})
}

func (s *Service) RejectInsurance(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.RejectInsurance()
	})
}

// RecordPayment settles part of the bill.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, amount decimal.Decimal, method PaymentMethod) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.RecordPartialPayment(amount, method)
	})
}

// PayBill settles the bill in full.
func (s *Service) PayBill(ctx context.Context, id uuid.UUID, method PaymentMethod) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.RecordFullPayment(method)
	})
}

func (s *Service) CancelBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.CancelBill()
	})
}

func (s *Service) InitiateRefund(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.InitiateRefund()
	})
}

func (s *Service) CompleteRefund(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.CompleteRefund()
	})
}

func (s *Service) MarkOverdue(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.MarkAsOverdue()
	})
}

func (s *Service) MarkInDispute(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.mutate(ctx, id, func(b *Bill) error {
		return b.MarkInDispute()
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Bill) error) (*Bill, error) {
	b, err := s.bills.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := s.bills.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}
