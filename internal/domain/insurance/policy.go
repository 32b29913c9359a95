package insurance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HeldInsurancePolicy binds a coverage to a policy holder and provider and
// tracks its activation, expiry and cancellation state. Expiry is evaluated
// lazily: the first activity check past the expiration date flips the stored
// status to EXPIRED.
type HeldInsurancePolicy struct {
	id               uuid.UUID
	policyNumber     string
	patientID        uuid.UUID
	providerName     string
	name             string
	coverage         Coverage
	expirationDate   *time.Time
	cancellationDate *time.Time
	status           PolicyStatus
	createdAt        time.Time
	updatedAt        time.Time
}

// PolicySpec configures a HeldInsurancePolicy. PolicyNumber, PatientID,
// Coverage and ProviderName are required; Status defaults to ACTIVE.
type PolicySpec struct {
	ID               uuid.UUID
	PolicyNumber     string
	PatientID        uuid.UUID
	ProviderName     string
	Name             string
	Coverage         Coverage
	ExpirationDate   *time.Time
	CancellationDate *time.Time
	Status           PolicyStatus
}

// NewHeldPolicy validates the spec and builds the policy.
func NewHeldPolicy(spec PolicySpec) (*HeldInsurancePolicy, error) {
	if spec.PolicyNumber == "" {
		return nil, fmt.Errorf("policy number is required")
	}
	if spec.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patient_id is required")
	}
	if spec.Coverage == nil {
		return nil, fmt.Errorf("coverage is required")
	}
	if spec.ProviderName == "" {
		return nil, fmt.Errorf("provider name is required")
	}

	status := spec.Status
	if status == "" {
		status = PolicyActive
	}
	switch status {
	case PolicyActive, PolicyExpired, PolicyCancelled, PolicyPending:
	default:
		return nil, fmt.Errorf("invalid policy status: %s", status)
	}

	id := spec.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	now := time.Now()
	return &HeldInsurancePolicy{
		id:               id,
		policyNumber:     spec.PolicyNumber,
		patientID:        spec.PatientID,
		providerName:     spec.ProviderName,
		name:             spec.Name,
		coverage:         spec.Coverage,
		expirationDate:   spec.ExpirationDate,
		cancellationDate: spec.CancellationDate,
		status:           status,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

func (p *HeldInsurancePolicy) ID() uuid.UUID            { return p.id }
func (p *HeldInsurancePolicy) PolicyNumber() string     { return p.policyNumber }
func (p *HeldInsurancePolicy) PatientID() uuid.UUID     { return p.patientID }
func (p *HeldInsurancePolicy) ProviderName() string     { return p.providerName }
func (p *HeldInsurancePolicy) PolicyName() string       { return p.name }
func (p *HeldInsurancePolicy) Coverage() Coverage       { return p.coverage }
func (p *HeldInsurancePolicy) Status() PolicyStatus     { return p.status }
func (p *HeldInsurancePolicy) ExpirationDate() *time.Time { return p.expirationDate }

func (p *HeldInsurancePolicy) CancellationDate() *time.Time { return p.cancellationDate }

// Active reports whether the policy is usable for claims: status ACTIVE, not
// past its expiration date and not cancelled.
func (p *HeldInsurancePolicy) Active() bool {
	return p.status == PolicyActive && !p.Expired(time.Now()) && !p.Cancelled()
}

// Expired reports whether the policy has lapsed, flipping the stored status
// to EXPIRED on first detection.
func (p *HeldInsurancePolicy) Expired(now time.Time) bool {
	if p.status == PolicyExpired {
		return true
	}
	if p.expirationDate != nil && now.After(*p.expirationDate) {
		p.status = PolicyExpired
		return true
	}
	return false
}

// Cancelled reports whether the policy is cancelled, either by status or by a
// recorded cancellation date.
func (p *HeldInsurancePolicy) Cancelled() bool {
	return p.status == PolicyCancelled || p.cancellationDate != nil
}

// Pending reports whether the policy is awaiting activation.
func (p *HeldInsurancePolicy) Pending() bool {
	return p.status == PolicyPending
}

type policyDoc struct {
	ID               uuid.UUID       `json:"id"`
	PolicyNumber     string          `json:"policy_number"`
	PatientID        uuid.UUID       `json:"patient_id"`
	ProviderName     string          `json:"provider_name"`
	Name             string          `json:"name,omitempty"`
	Status           PolicyStatus    `json:"status"`
	ExpirationDate   *time.Time      `json:"expiration_date,omitempty"`
	CancellationDate *time.Time      `json:"cancellation_date,omitempty"`
	Coverage         json.RawMessage `json:"coverage"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (p *HeldInsurancePolicy) MarshalJSON() ([]byte, error) {
	coverage, err := MarshalCoverage(p.coverage)
	if err != nil {
		return nil, err
	}
	return json.Marshal(policyDoc{
		ID:               p.id,
		PolicyNumber:     p.policyNumber,
		PatientID:        p.patientID,
		ProviderName:     p.providerName,
		Name:             p.name,
		Status:           p.status,
		ExpirationDate:   p.expirationDate,
		CancellationDate: p.cancellationDate,
		Coverage:         coverage,
		CreatedAt:        p.createdAt,
		UpdatedAt:        p.updatedAt,
	})
}

// Cancel marks the policy cancelled as of now. Cancelling twice is an error.
func (p *HeldInsurancePolicy) Cancel(now time.Time) error {
	if p.Cancelled() {
		return fmt.Errorf("policy %s is already cancelled", p.policyNumber)
	}
	p.status = PolicyCancelled
	p.cancellationDate = &now
	p.updatedAt = now
	return nil
}
