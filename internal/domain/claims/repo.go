package claims

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists claims and their supporting documents.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error)
	Update(ctx context.Context, c *Claim) error
	ListByBill(ctx context.Context, billID uuid.UUID, limit, offset int) ([]*Claim, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Claim, int, error)

	AddDocument(ctx context.Context, doc *SupportingDocument) error
	GetDocuments(ctx context.Context, claimID uuid.UUID) ([]SupportingDocument, error)
}
