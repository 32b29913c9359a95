package clinical

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/internal/domain/billing"
	"github.com/hms/hms/internal/domain/insurance"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/visits", h.AdmitPatient)
	api.GET("/visits/:id", h.GetVisit)
	api.POST("/visits/:id/charges", h.AddVisitCharge)
	api.POST("/visits/:id/discharge", h.DischargeVisit)
	api.POST("/visits/:id/bill", h.BillVisit)

	api.POST("/consultations", h.StartConsultation)
	api.GET("/consultations/:id", h.GetConsultation)
	api.POST("/consultations/:id/charges", h.AddConsultationCharge)
	api.POST("/consultations/:id/bill", h.BillConsultation)
}

// visitDoc is the JSON view of a visit; the aggregate keeps its fields
// unexported to protect the discharge invariant.
type visitDoc struct {
	ID           uuid.UUID               `json:"id"`
	PatientID    uuid.UUID               `json:"patient_id"`
	Ward         insurance.WardClassType `json:"ward"`
	Emergency    bool                    `json:"emergency"`
	AdmittedAt   time.Time               `json:"admitted_at"`
	DischargedAt *time.Time              `json:"discharged_at,omitempty"`
	Charges      []chargeDoc             `json:"charges"`
}

type consultationDoc struct {
	ID        uuid.UUID   `json:"id"`
	PatientID uuid.UUID   `json:"patient_id"`
	SeenAt    time.Time   `json:"seen_at"`
	Charges   []chargeDoc `json:"charges"`
}

type chargeDoc struct {
	Description   string                  `json:"description"`
	Category      string                  `json:"category"`
	Amount        decimal.Decimal         `json:"amount"`
	DiagnosisCode string                  `json:"diagnosis_code,omitempty"`
	ProcedureCode string                  `json:"procedure_code,omitempty"`
	AccidentType  *insurance.AccidentType `json:"accident_type,omitempty"`
}

func chargeDocs(charges []ChargeItem) []chargeDoc {
	docs := make([]chargeDoc, len(charges))
	for i, c := range charges {
		docs[i] = chargeDoc{
			Description:   c.Description(),
			Category:      c.Category(),
			Amount:        c.Charges(),
			DiagnosisCode: c.DiagnosisCode(),
			ProcedureCode: c.ProcedureCode(),
		}
		if sub, ok := c.AccidentSubType(); ok {
			docs[i].AccidentType = &sub
		}
	}
	return docs
}

func newVisitDoc(v *Visit) visitDoc {
	return visitDoc{
		ID:           v.ID(),
		PatientID:    v.PatientID(),
		Ward:         v.Ward(),
		Emergency:    v.Emergency(),
		AdmittedAt:   v.AdmittedAt(),
		DischargedAt: v.DischargedAt(),
		Charges:      chargeDocs(v.Charges()),
	}
}

func newConsultationDoc(c *Consultation) consultationDoc {
	return consultationDoc{
		ID:        c.ID(),
		PatientID: c.PatientID(),
		SeenAt:    c.SeenAt(),
		Charges:   chargeDocs(c.Charges()),
	}
}

type admitRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	Ward      string    `json:"ward"`
	Emergency bool      `json:"emergency"`
}

func (h *Handler) AdmitPatient(c echo.Context) error {
	var req admitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ward := insurance.WardClassType(strings.ToUpper(req.Ward))
	v, err := h.svc.AdmitPatient(c.Request().Context(), req.PatientID, ward, req.Emergency)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, newVisitDoc(v))
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "visit not found")
	}
	return c.JSON(http.StatusOK, newVisitDoc(v))
}

func (h *Handler) AddVisitCharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req ChargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.AddVisitCharge(c.Request().Context(), id, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, newVisitDoc(v))
}

func (h *Handler) DischargeVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := h.svc.DischargeVisit(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return c.JSON(http.StatusOK, newVisitDoc(v))
}

type billEncounterRequest struct {
	PolicyID *uuid.UUID `json:"policy_id"`
	Resident bool       `json:"resident"`
}

func (h *Handler) BillVisit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req billEncounterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.BillVisit(c.Request().Context(), id, req.PolicyID, req.Resident)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, billing.NewBillDoc(b))
}

type startConsultationRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

func (h *Handler) StartConsultation(c echo.Context) error {
	var req startConsultationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.StartConsultation(c.Request().Context(), req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, newConsultationDoc(cons))
}

func (h *Handler) GetConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.GetConsultation(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	return c.JSON(http.StatusOK, newConsultationDoc(cons))
}

func (h *Handler) AddConsultationCharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req ChargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.AddConsultationCharge(c.Request().Context(), id, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, newConsultationDoc(cons))
}

func (h *Handler) BillConsultation(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req billEncounterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.BillConsultation(c.Request().Context(), id, req.PolicyID, req.Resident)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, billing.NewBillDoc(b))
}
