package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/insurance"
)

// Biller assembles and persists a bill for a finalized encounter.
type Biller interface {
	CreateBillFromVisit(ctx context.Context, req billing.EncounterBillRequest, v billing.Visit) (*billing.Bill, error)
	CreateBillFromConsultation(ctx context.Context, req billing.EncounterBillRequest, c billing.Consultation) (*billing.Bill, error)
}

type Service struct {
	encounters Repository
	biller     Biller
}

func NewService(encounters Repository, biller Biller) *Service {
	return &Service{encounters: encounters, biller: biller}
}

// ChargeRequest is a clinical charge supplied over the API. The codes it
// carries are validated before the charge is accepted.
type ChargeRequest struct {
	Description          string                  `json:"description"`
	Category             string                  `json:"category"`
	Amount               decimal.Decimal         `json:"amount"`
	DiagnosisCode        string                  `json:"diagnosis_code"`
	DiagnosisDescription string                  `json:"diagnosis_description"`
	ProcedureCode        string                  `json:"procedure_code"`
	ProcedureDescription string                  `json:"procedure_description"`
	AccidentType         *insurance.AccidentType `json:"accident_type"`
}

func (r ChargeRequest) toItem() (ChargeItem, error) {
	if r.Description == "" {
		return ChargeItem{}, fmt.Errorf("description is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ChargeItem{}, fmt.Errorf("amount must be positive")
	}

	switch {
	case r.AccidentType != nil:
		if _, err := insurance.ParseAccidentType(string(*r.AccidentType)); err != nil {
			return ChargeItem{}, err
		}
		diagnosis, err := NewDiagnosticCode(r.DiagnosisCode, r.DiagnosisDescription)
		if err != nil {
			return ChargeItem{}, err
		}
		return NewAccidentCharge(r.Description, r.Category, r.Amount, *r.AccidentType, diagnosis), nil
	case r.ProcedureCode != "":
		procedure, err := NewProcedureCode(r.ProcedureCode, r.ProcedureDescription)
		if err != nil {
			return ChargeItem{}, err
		}
		diagnosis, err := NewDiagnosticCode(r.DiagnosisCode, r.DiagnosisDescription)
		if err != nil {
			return ChargeItem{}, err
		}
		return NewProcedureCharge(r.Description, r.Category, r.Amount, procedure, diagnosis), nil
	case r.DiagnosisCode != "":
		diagnosis, err := NewDiagnosticCode(r.DiagnosisCode, r.DiagnosisDescription)
		if err != nil {
			return ChargeItem{}, err
		}
		return NewDiagnosisCharge(r.Description, r.Category, r.Amount, diagnosis), nil
	default:
		return NewMiscCharge(r.Description, r.Category, r.Amount), nil
	}
}

// AdmitPatient opens an inpatient visit in the given ward.
func (s *Service) AdmitPatient(ctx context.Context, patientID uuid.UUID, ward insurance.WardClassType, emergency bool) (*Visit, error) {
	v, err := NewVisit(patientID, ward, emergency, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.encounters.CreateVisit(ctx, v); err != nil {
		return nil, err
	}
	log.Info().Str("visit_id", v.ID().String()).Str("ward", string(ward)).Bool("emergency", emergency).Msg("patient admitted")
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.encounters.GetVisit(ctx, id)
}

// AddVisitCharge validates and attaches a charge to an open visit.
func (s *Service) AddVisitCharge(ctx context.Context, id uuid.UUID, req ChargeRequest) (*Visit, error) {
	v, err := s.encounters.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := req.toItem()
	if err != nil {
		return nil, err
	}
	if err := v.AddCharge(item); err != nil {
		return nil, err
	}
	if err := s.encounters.UpdateVisit(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// DischargeVisit closes the visit, adding the ward accommodation charge for
// the stay.
func (s *Service) DischargeVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := s.encounters.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := v.Discharge(time.Now()); err != nil {
		return nil, err
	}
	if err := s.encounters.UpdateVisit(ctx, v); err != nil {
		return nil, err
	}
	log.Info().Str("visit_id", v.ID().String()).Msg("patient discharged")
	return v, nil
}

// BillVisit assembles a bill from a discharged visit.
func (s *Service) BillVisit(ctx context.Context, id uuid.UUID, policyID *uuid.UUID, resident bool) (*billing.Bill, error) {
	v, err := s.encounters.GetVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.biller.CreateBillFromVisit(ctx, billing.EncounterBillRequest{
		PatientID: v.PatientID(),
		PolicyID:  policyID,
		Resident:  resident,
	}, v)
}

// StartConsultation opens an outpatient consultation.
func (s *Service) StartConsultation(ctx context.Context, patientID uuid.UUID) (*Consultation, error) {
	c, err := NewConsultation(patientID, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.encounters.CreateConsultation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) GetConsultation(ctx context.Context, id uuid.UUID) (*Consultation, error) {
	return s.encounters.GetConsultation(ctx, id)
}

// AddConsultationCharge validates and attaches a charge to a consultation.
func (s *Service) AddConsultationCharge(ctx context.Context, id uuid.UUID, req ChargeRequest) (*Consultation, error) {
	c, err := s.encounters.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := req.toItem()
	if err != nil {
		return nil, err
	}
	c.AddCharge(item)
	if err := s.encounters.UpdateConsultation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// BillConsultation assembles a bill from a consultation.
func (s *Service) BillConsultation(ctx context.Context, id uuid.UUID, policyID *uuid.UUID, resident bool) (*billing.Bill, error) {
	c, err := s.encounters.GetConsultation(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.biller.CreateBillFromConsultation(ctx, billing.EncounterBillRequest{
		PatientID: c.PatientID(),
		PolicyID:  policyID,
		Resident:  resident,
	}, c)
}
