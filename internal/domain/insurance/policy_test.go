package insurance

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testCoverage(t *testing.T) Coverage {
	t.Helper()
	return mustBaseCoverage(t, CoverageSpec{
		CoveredBenefits: []BenefitType{BenefitHospitalization},
	})
}

func TestNewHeldPolicy_Validation(t *testing.T) {
	cov := testCoverage(t)
	patientID := uuid.New()

	tests := []struct {
		name string
		spec PolicySpec
	}{
		{"missing policy number", PolicySpec{PatientID: patientID, Coverage: cov, ProviderName: "p"}},
		{"missing patient", PolicySpec{PolicyNumber: "POL-1", Coverage: cov, ProviderName: "p"}},
		{"missing coverage", PolicySpec{PolicyNumber: "POL-1", PatientID: patientID, ProviderName: "p"}},
		{"missing provider", PolicySpec{PolicyNumber: "POL-1", PatientID: patientID, Coverage: cov}},
		{"bad status", PolicySpec{PolicyNumber: "POL-1", PatientID: patientID, Coverage: cov, ProviderName: "p", Status: "SUSPENDED"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewHeldPolicy(tt.spec); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewHeldPolicy_DefaultsToActive(t *testing.T) {
	p, err := NewHeldPolicy(PolicySpec{
		PolicyNumber: "POL-1",
		PatientID:    uuid.New(),
		ProviderName: "provider",
		Coverage:     testCoverage(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Status() != PolicyActive {
		t.Errorf("status = %s, want ACTIVE", p.Status())
	}
	if !p.Active() {
		t.Error("expected policy to be active")
	}
	if p.ID() == uuid.Nil {
		t.Error("expected a generated id")
	}
}

func TestHeldPolicy_ExpiryFlipsStatus(t *testing.T) {
	past := time.Now().Add(-24 * time.Hour)
	p, err := NewHeldPolicy(PolicySpec{
		PolicyNumber:   "POL-1",
		PatientID:      uuid.New(),
		ProviderName:   "provider",
		Coverage:       testCoverage(t),
		ExpirationDate: &past,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Active() {
		t.Error("expired policy should not be active")
	}
	if p.Status() != PolicyExpired {
		t.Errorf("status after expiry check = %s, want EXPIRED", p.Status())
	}
}

func TestHeldPolicy_Cancel(t *testing.T) {
	p, err := NewHeldPolicy(PolicySpec{
		PolicyNumber: "POL-1",
		PatientID:    uuid.New(),
		ProviderName: "provider",
		Coverage:     testCoverage(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := time.Now()
	if err := p.Cancel(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Cancelled() {
		t.Error("expected policy to be cancelled")
	}
	if p.Active() {
		t.Error("cancelled policy should not be active")
	}
	if p.CancellationDate() == nil {
		t.Error("expected a cancellation date")
	}

	if err := p.Cancel(now); err == nil {
		t.Error("expected error cancelling twice")
	}
}

func TestHeldPolicy_Pending(t *testing.T) {
	p, err := NewHeldPolicy(PolicySpec{
		PolicyNumber: "POL-1",
		PatientID:    uuid.New(),
		ProviderName: "provider",
		Coverage:     testCoverage(t),
		Status:       PolicyPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Pending() {
		t.Error("expected pending policy")
	}
	if p.Active() {
		t.Error("pending policy should not be active")
	}
}
