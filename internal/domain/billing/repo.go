package billing

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists bills together with their line items.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByBillNumber(ctx context.Context, billNumber string) (*Bill, error)
	Update(ctx context.Context, b *Bill) error
	AddItem(ctx context.Context, li *LineItem) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error)
	ListByStatus(ctx context.Context, status BillingStatus, limit, offset int) ([]*Bill, int, error)
}
