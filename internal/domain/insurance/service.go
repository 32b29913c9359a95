package insurance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStateConflict marks lifecycle violations, such as cancelling a policy
// that is already cancelled. Handlers map it to 409.
var ErrStateConflict = errors.New("state conflict")

type Service struct {
	policies PolicyRepository
}

func NewService(policies PolicyRepository) *Service {
	return &Service{policies: policies}
}

// Plans returns the standard plan catalog.
func (s *Service) Plans() []Plan {
	return StandardPlans()
}

// Plan looks up a catalog plan by code.
func (s *Service) Plan(code string) (Plan, error) {
	p, ok := PlanByCode(strings.ToUpper(code))
	if !ok {
		return Plan{}, fmt.Errorf("unknown plan code: %s", code)
	}
	return p, nil
}

// RegisterPolicyRequest enrolls a patient into one or more catalog plans.
// More than one plan code yields a composite coverage stacking all of them.
type RegisterPolicyRequest struct {
	PolicyNumber   string     `json:"policy_number"`
	PatientID      uuid.UUID  `json:"patient_id"`
	PlanCodes      []string   `json:"plan_codes"`
	Name           string     `json:"name"`
	ExpirationDate *time.Time `json:"expiration_date"`
}

// RegisterPolicy mints a held policy from catalog plans and stores it.
func (s *Service) RegisterPolicy(ctx context.Context, req RegisterPolicyRequest) (*HeldInsurancePolicy, error) {
	if len(req.PlanCodes) == 0 {
		return nil, fmt.Errorf("at least one plan code is required")
	}

	var (
		coverages []Coverage
		providers []string
		planNames []string
	)
	for _, code := range req.PlanCodes {
		plan, err := s.Plan(code)
		if err != nil {
			return nil, err
		}
		cov, err := plan.Coverage()
		if err != nil {
			return nil, fmt.Errorf("plan %s: %w", plan.Code, err)
		}
		coverages = append(coverages, cov)
		planNames = append(planNames, plan.Name)
		if !contains(providers, plan.ProviderName) {
			providers = append(providers, plan.ProviderName)
		}
	}

	coverage := coverages[0]
	if len(coverages) > 1 {
		composite, err := NewCompositeCoverage(coverages...)
		if err != nil {
			return nil, err
		}
		coverage = composite
	}

	name := req.Name
	if name == "" {
		name = strings.Join(planNames, " + ")
	}

	policy, err := NewHeldPolicy(PolicySpec{
		PolicyNumber:   req.PolicyNumber,
		PatientID:      req.PatientID,
		ProviderName:   strings.Join(providers, " / "),
		Name:           name,
		Coverage:       coverage,
		ExpirationDate: req.ExpirationDate,
	})
	if err != nil {
		return nil, err
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*HeldInsurancePolicy, error) {
	return s.policies.GetByID(ctx, id)
}

func (s *Service) GetPolicyByNumber(ctx context.Context, policyNumber string) (*HeldInsurancePolicy, error) {
	return s.policies.GetByPolicyNumber(ctx, policyNumber)
}

func (s *Service) ListPoliciesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*HeldInsurancePolicy, int, error) {
	return s.policies.ListByPatient(ctx, patientID, limit, offset)
}

// ActivePolicyForPatient returns the patient's most recent usable policy, or
// nil when none is active.
func (s *Service) ActivePolicyForPatient(ctx context.Context, patientID uuid.UUID) (*HeldInsurancePolicy, error) {
	policies, _, err := s.policies.ListByPatient(ctx, patientID, 100, 0)
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		if p.Active() {
			return p, nil
		}
	}
	return nil, nil
}

// CancelPolicy cancels the policy. Cancelling a cancelled policy conflicts.
func (s *Service) CancelPolicy(ctx context.Context, id uuid.UUID) (*HeldInsurancePolicy, error) {
	policy, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Cancel(time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateConflict, err)
	}
	if err := s.policies.Update(ctx, policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
