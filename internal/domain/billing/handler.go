package billing

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/bills", h.CreateBill)
	api.GET("/bills", h.ListBills)
	api.GET("/bills/:id", h.GetBill)
	api.POST("/bills/:id/items", h.AddCharge)
	api.POST("/bills/:id/submit", h.SubmitBill)
	api.POST("/bills/:id/evaluate-coverage", h.EvaluateCoverage)
	api.POST("/bills/:id/insurance-approve", h.ApproveInsurance)
	api.POST("/bills/:id/insurance-reject", h.RejectInsurance)
	api.POST("/bills/:id/payments", h.RecordPayment)
	api.POST("/bills/:id/pay", h.PayBill)
	api.POST("/bills/:id/cancel", h.CancelBill)
	api.POST("/bills/:id/refund", h.InitiateRefund)
	api.POST("/bills/:id/refund/complete", h.CompleteRefund)
	api.POST("/bills/:id/overdue", h.MarkOverdue)
	api.POST("/bills/:id/dispute", h.MarkInDispute)
}

func billError(err error) error {
	if errors.Is(err, ErrStateConflict) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

// BillDoc decorates the stored bill with its computed money pipeline.
type BillDoc struct {
	*Bill
	TotalAmount        decimal.Decimal `json:"total_amount"`
	DiscountAmount     decimal.Decimal `json:"discount_amount"`
	TaxAmount          decimal.Decimal `json:"tax_amount"`
	GrandTotal         decimal.Decimal `json:"grand_total"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
}

func NewBillDoc(b *Bill) BillDoc {
	return BillDoc{
		Bill:               b,
		TotalAmount:        b.TotalAmount(),
		DiscountAmount:     b.DiscountAmount(),
		TaxAmount:          b.TaxAmount(),
		GrandTotal:         b.GrandTotal(),
		OutstandingBalance: b.OutstandingBalance(),
	}
}

func newBillDocs(bills []*Bill) []BillDoc {
	docs := make([]BillDoc, 0, len(bills))
	for _, b := range bills {
		docs = append(docs, NewBillDoc(b))
	}
	return docs
}

func (h *Handler) CreateBill(c echo.Context) error {
	var req CreateBillRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreateBill(c.Request().Context(), req)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusCreated, NewBillDoc(b))
}

func (h *Handler) GetBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := h.svc.GetBill(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, NewBillDoc(b))
}

func (h *Handler) ListBills(c echo.Context) error {
	pg := pagination.FromContext(c)
	ctx := c.Request().Context()

	if raw := c.QueryParam("patient_id"); raw != "" {
		patientID, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		bills, total, err := h.svc.ListBillsByPatient(ctx, patientID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(newBillDocs(bills), total, pg.Limit, pg.Offset))
	}
	if raw := c.QueryParam("status"); raw != "" {
		bills, total, err := h.svc.ListBillsByStatus(ctx, BillingStatus(raw), pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, pagination.NewResponse(newBillDocs(bills), total, pg.Limit, pg.Offset))
	}
	return echo.NewHTTPError(http.StatusBadRequest, "patient_id or status query parameter is required")
}

func (h *Handler) AddCharge(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var charge ChargePayload
	if err := c.Bind(&charge); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.AddCharge(c.Request().Context(), id, charge)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, NewBillDoc(b))
}

func (h *Handler) SubmitBill(c echo.Context) error {
	return h.lifecycle(c, h.svc.SubmitBill)
}

func (h *Handler) EvaluateCoverage(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	result, claim, err := h.svc.EvaluateCoverage(c.Request().Context(), id)
	if err != nil {
		return billError(err)
	}
	resp := map[string]interface{}{"result": result}
	if claim != nil {
		resp["claim"] = claim
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) ApproveInsurance(c echo.Context) error {
	return h.lifecycle(c, h.svc.ApproveInsurance)
}

func (h *Handler) RejectInsurance(c echo.Context) error {
	return h.lifecycle(c, h.svc.RejectInsurance)
}

type paymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

func (h *Handler) RecordPayment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	method, err := ParsePaymentMethod(req.Method)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.RecordPayment(c.Request().Context(), id, req.Amount, method)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, NewBillDoc(b))
}

func (h *Handler) PayBill(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	method, err := ParsePaymentMethod(req.Method)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.PayBill(c.Request().Context(), id, method)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, NewBillDoc(b))
}

func (h *Handler) CancelBill(c echo.Context) error {
	return h.lifecycle(c, h.svc.CancelBill)
}

func (h *Handler) InitiateRefund(c echo.Context) error {
	return h.lifecycle(c, h.svc.InitiateRefund)
}

func (h *Handler) CompleteRefund(c echo.Context) error {
	return h.lifecycle(c, h.svc.CompleteRefund)
}

func (h *Handler) MarkOverdue(c echo.Context) error {
	return h.lifecycle(c, h.svc.MarkOverdue)
}

func (h *Handler) MarkInDispute(c echo.Context) error {
	return h.lifecycle(c, h.svc.MarkInDispute)
}

func (h *Handler) lifecycle(c echo.Context, fn func(ctx context.Context, id uuid.UUID) (*Bill, error)) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	b, err := fn(c.Request().Context(), id)
	if err != nil {
		return billError(err)
	}
	return c.JSON(http.StatusOK, NewBillDoc(b))
}
