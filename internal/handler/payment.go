package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/engine"
	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// PaymentHandler records and cancels payments against sessions.
type PaymentHandler struct {
	Ledger   *engine.PaymentLedger
	Payments *repository.PaymentRepo
	Sessions *repository.SessionRepo
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(ledger *engine.PaymentLedger, payments *repository.PaymentRepo, sessions *repository.SessionRepo) *PaymentHandler {
	if ledger == nil || payments == nil || sessions == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Ledger: ledger, Payments: payments, Sessions: sessions}
}

func paymentJSON(p *model.Payment) echo.Map {
	m := echo.Map{
		"id":           p.ID,
		"session_id":   p.SessionID,
		"amount":       p.Amount.StringFixed(2),
		"method_id":    p.MethodID,
		"receipt_code": p.ReceiptCode,
		"state":        p.State,
		"paid_at":      p.PaidAt.Format(time.RFC3339),
		"operator_id":  p.OperatorID,
	}
	if p.Reference != nil {
		m["reference"] = *p.Reference
	}
	if p.ShiftID != nil {
		m["shift_id"] = *p.ShiftID
	}
	return m
}

// Record handles POST /v1/sessions/:id/payments.
func (h *PaymentHandler) Record(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		Amount    decimal.Decimal `json:"amount"`
		MethodID  uint64          `json:"method_id"`
		Reference *string         `json:"reference"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MethodID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method_id is required"})
	}
	p, err := h.Ledger.RecordPayment(c.Request().Context(), engine.RecordPaymentInput{
		SessionID:  sessionID,
		Amount:     body.Amount,
		MethodID:   body.MethodID,
		Reference:  body.Reference,
		OperatorID: operatorID,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, paymentJSON(p))
}

// List handles GET /v1/sessions/:id/payments, returning every payment
// of the session, cancelled ones included, with the completed total.
func (h *PaymentHandler) List(c echo.Context) error {
	sessionID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, sessionID); err != nil {
		return domainError(c, err)
	}
	payments, err := h.Payments.ListBySession(ctx, sessionID)
	if err != nil {
		return domainError(c, err)
	}
	total, err := h.Payments.CompletedTotal(ctx, sessionID)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(payments))
	for i := range payments {
		out = append(out, paymentJSON(&payments[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"session_id": sessionID,
		"payments":   out,
		"paid_total": total.StringFixed(2),
	})
}

// Cancel handles POST /v1/payments/:id/cancel, voiding a completed
// payment. A cancelled payment stays in the ledger but no longer
// counts toward the session's paid total.
func (h *PaymentHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	p, err := h.Ledger.CancelPayment(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, paymentJSON(p))
}
