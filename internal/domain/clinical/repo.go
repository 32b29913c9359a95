package clinical

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists encounters. Updates rewrite the charge rows so the
// stored encounter always mirrors the aggregate.
type Repository interface {
	CreateVisit(ctx context.Context, v *Visit) error
	GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error)
	UpdateVisit(ctx context.Context, v *Visit) error

	CreateConsultation(ctx context.Context, c *Consultation) error
	GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error)
	UpdateConsultation(ctx context.Context, c *Consultation) error
}
