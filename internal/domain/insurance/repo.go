package insurance

import (
	"context"

	"github.com/google/uuid"
)

// PolicyRepository persists held insurance policies.
type PolicyRepository interface {
	Create(ctx context.Context, p *HeldInsurancePolicy) error
	GetByID(ctx context.Context, id uuid.UUID) (*HeldInsurancePolicy, error)
	GetByPolicyNumber(ctx context.Context, policyNumber string) (*HeldInsurancePolicy, error)
	Update(ctx context.Context, p *HeldInsurancePolicy) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HeldInsurancePolicy, int, error)
}
