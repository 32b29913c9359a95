package claims

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service struct {
	claims Repository
}

func NewService(claims Repository) *Service {
	return &Service{claims: claims}
}

// newClaimNumber builds a human-quotable reference like CLM-20260831-4821.
func newClaimNumber(now time.Time) string {
	return fmt.Sprintf("CLM-%s-%04d", now.Format("20060102"), rand.Intn(10000))
}

// CreateClaimRequest opens a draft claim for a bill's claimable amount.
type CreateClaimRequest struct {
	BillID      uuid.UUID       `json:"bill_id"`
	PolicyID    uuid.UUID       `json:"policy_id"`
	PatientID   uuid.UUID       `json:"patient_id"`
	ClaimAmount decimal.Decimal `json:"claim_amount"`
}

func (s *Service) CreateClaim(ctx context.Context, req CreateClaimRequest) (*Claim, error) {
	if req.BillID == uuid.Nil {
		return nil, fmt.Errorf("bill_id is required")
	}
	if req.PolicyID == uuid.Nil {
		return nil, fmt.Errorf("policy_id is required")
	}
	if req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if req.ClaimAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("claim amount must be positive")
	}

	now := time.Now()
	c := &Claim{
		ID:             uuid.New(),
		ClaimNumber:    newClaimNumber(now),
		BillID:         req.BillID,
		PolicyID:       req.PolicyID,
		PatientID:      req.PatientID,
		ClaimAmount:    req.ClaimAmount,
		ApprovedAmount: decimal.Zero,
		Status:         StatusDraft,
	}
	if err := s.claims.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Documents, err = s.claims.GetDocuments(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListClaimsByBill(ctx context.Context, billID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListByBill(ctx, billID, limit, offset)
}

func (s *Service) ListClaimsByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error) {
	return s.claims.ListByPatient(ctx, patientID, limit, offset)
}

// SubmitClaim moves a draft claim into the review pipeline.
func (s *Service) SubmitClaim(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return s.mutate(ctx, id, func(c *Claim) error {
		return c.Submit(time.Now())
	})
}

// UpdateStatus applies a reviewer's lifecycle move.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status ClaimStatus, reason string) (*Claim, error) {
	return s.mutate(ctx, id, func(c *Claim) error {
		return c.UpdateStatus(status, reason, time.Now())
	})
}

// ProcessPartialApproval resolves an in-review claim below the full amount.
func (s *Service) ProcessPartialApproval(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*Claim, error) {
	return s.mutate(ctx, id, func(c *Claim) error {
		return c.ProcessPartialApproval(amount, time.Now())
	})
}

func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*Claim) error) (*Claim, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.claims.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddDocument attaches a supporting document reference to the claim.
func (s *Service) AddDocument(ctx context.Context, id uuid.UUID, document string) (*SupportingDocument, error) {
	c, err := s.claims.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := c.AddSupportingDocument(document, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.claims.AddDocument(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) GetDocuments(ctx context.Context, id uuid.UUID) ([]SupportingDocument, error) {
	return s.claims.GetDocuments(ctx, id)
}
