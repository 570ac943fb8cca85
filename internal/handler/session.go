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

// SessionHandler exposes the rental session lifecycle over HTTP. All
// methods assume JWT authentication and role validation has already
// been performed by middleware.
type SessionHandler struct {
	Engine      *engine.SessionEngine
	Ledger      *engine.PaymentLedger
	Sessions    *repository.SessionRepo
	Consumption *repository.ConsumptionRepo
	Payments    *repository.PaymentRepo
	Transfers   *repository.TransferRepo
}

// NewSessionHandler constructs a SessionHandler. All dependencies must
// be non-nil.
func NewSessionHandler(eng *engine.SessionEngine, ledger *engine.PaymentLedger, sessions *repository.SessionRepo, consumption *repository.ConsumptionRepo, payments *repository.PaymentRepo, transfers *repository.TransferRepo) *SessionHandler {
	if eng == nil || ledger == nil || sessions == nil || consumption == nil || payments == nil || transfers == nil {
		panic("nil dependency passed to NewSessionHandler")
	}
	return &SessionHandler{
		Engine:      eng,
		Ledger:      ledger,
		Sessions:    sessions,
		Consumption: consumption,
		Payments:    payments,
		Transfers:   transfers,
	}
}

// sessionJSON renders a session for API responses. Money renders as
// fixed two-decimal strings.
func sessionJSON(s *model.RentalSession) echo.Map {
	m := echo.Map{
		"id":               s.ID,
		"table_id":         s.TableID,
		"operator_id":      s.OperatorID,
		"started_at":       s.StartedAt.Format(time.RFC3339),
		"mode":             s.Mode,
		"allotted_minutes": s.AllottedMinutes,
		"rental_amount":    s.RentalAmount.StringFixed(2),
		"discount":         s.Discount.StringFixed(2),
		"state":            s.State,
	}
	if s.CustomerID != nil {
		m["customer_id"] = *s.CustomerID
	}
	if s.EndedAt != nil {
		m["ended_at"] = s.EndedAt.Format(time.RFC3339)
	}
	if s.ScheduledEndAt != nil {
		m["scheduled_end_at"] = s.ScheduledEndAt.Format(time.RFC3339)
	}
	if s.PrevTableID != nil {
		m["prev_table_id"] = *s.PrevTableID
	}
	if s.ShiftID != nil {
		m["shift_id"] = *s.ShiftID
	}
	return m
}

// Open handles POST /v1/sessions. The body selects the table, optional
// mode, allotted minutes and discount; omitting minutes (or sending 0)
// opens an open-ended session.
func (h *SessionHandler) Open(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		TableID         uint64          `json:"table_id"`
		CustomerID      *uint64         `json:"customer_id"`
		Mode            string          `json:"mode"`
		AllottedMinutes int             `json:"allotted_minutes"`
		Discount        decimal.Decimal `json:"discount"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "table_id is required"})
	}
	s, err := h.Engine.Open(c.Request().Context(), engine.OpenSessionInput{
		TableID:         body.TableID,
		CustomerID:      body.CustomerID,
		OperatorID:      operatorID,
		Mode:            model.BillingMode(body.Mode),
		AllottedMinutes: body.AllottedMinutes,
		Discount:        body.Discount,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionJSON(s))
}

// Get handles GET /v1/sessions/:id and returns the session with its
// live bill: elapsed and remaining minutes, consumption, payments and
// whether the bill is settled.
func (h *SessionHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	bill, err := h.Engine.BillFor(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	resp := sessionJSON(bill.Session)
	resp["elapsed_minutes"] = bill.ElapsedMinutes
	resp["remaining_minutes"] = bill.RemainingMinutes
	resp["consumption_total"] = bill.ConsumptionTotal.StringFixed(2)
	resp["grand_total"] = bill.GrandTotal.StringFixed(2)
	resp["paid_total"] = bill.PaidTotal.StringFixed(2)
	resp["balance"] = bill.Balance.StringFixed(2)
	resp["fully_paid"] = bill.FullyPaid
	return c.JSON(http.StatusOK, resp)
}

// AddConsumption handles POST /v1/sessions/:id/consumptions, charging
// a product to the session and deducting stock.
func (h *SessionHandler) AddConsumption(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		ProductID uint64           `json:"product_id"`
		Quantity  int              `json:"quantity"`
		UnitPrice *decimal.Decimal `json:"unit_price"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}
	line, err := h.Engine.AddConsumption(c.Request().Context(), engine.AddConsumptionInput{
		SessionID:  id,
		ProductID:  body.ProductID,
		Quantity:   body.Quantity,
		UnitPrice:  body.UnitPrice,
		OperatorID: operatorID,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":         line.ID,
		"session_id": line.SessionID,
		"product_id": line.ProductID,
		"quantity":   line.Quantity,
		"unit_price": line.UnitPrice.StringFixed(2),
		"subtotal":   line.Subtotal.StringFixed(2),
	})
}

// ListConsumptions handles GET /v1/sessions/:id/consumptions.
func (h *SessionHandler) ListConsumptions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, id); err != nil {
		return domainError(c, err)
	}
	lines, err := h.Consumption.ListBySession(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	total, err := h.Consumption.Total(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(lines))
	for _, l := range lines {
		out = append(out, echo.Map{
			"id":         l.ID,
			"product_id": l.ProductID,
			"quantity":   l.Quantity,
			"unit_price": l.UnitPrice.StringFixed(2),
			"subtotal":   l.Subtotal.StringFixed(2),
			"created_at": l.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": id, "lines": out, "total": total.StringFixed(2)})
}

// Finalize handles POST /v1/sessions/:id/finalize, closing the session
// and freeing its table. The response carries the settled bill.
func (h *SessionHandler) Finalize(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	res, err := h.Engine.Finalize(c.Request().Context(), id, operatorID)
	if err != nil {
		return domainError(c, err)
	}
	resp := sessionJSON(res.Session)
	resp["consumption_total"] = res.ConsumptionTotal.StringFixed(2)
	resp["grand_total"] = res.GrandTotal.StringFixed(2)
	resp["paid_total"] = res.PaidTotal.StringFixed(2)
	resp["fully_paid"] = res.FullyPaid
	return c.JSON(http.StatusOK, resp)
}

// Cancel handles POST /v1/sessions/:id/cancel. Cancelled sessions bill
// nothing and free their table.
func (h *SessionHandler) Cancel(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	s, err := h.Engine.Cancel(c.Request().Context(), id, operatorID)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(s))
}

// Transfer handles POST /v1/sessions/:id/transfer, moving the session
// to another table atomically.
func (h *SessionHandler) Transfer(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	var body struct {
		ToTableID uint64  `json:"to_table_id"`
		Reason    *string `json:"reason"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.ToTableID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_table_id is required"})
	}
	res, err := h.Engine.Transfer(c.Request().Context(), engine.TransferInput{
		SessionID:  id,
		ToTableID:  body.ToTableID,
		Reason:     body.Reason,
		OperatorID: operatorID,
	})
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"from":              sessionJSON(res.From),
		"to":                sessionJSON(res.To),
		"remaining_minutes": res.Transfer.RemainingMinutes,
		"transferred_at":    res.Transfer.TransferredAt.Format(time.RFC3339),
	})
}

// ListTransfers handles GET /v1/sessions/:id/transfers, returning the
// transfer audit records touching the session.
func (h *SessionHandler) ListTransfers(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid session id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Sessions.GetByID(ctx, id); err != nil {
		return domainError(c, err)
	}
	transfers, err := h.Transfers.ListBySession(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(transfers))
	for _, t := range transfers {
		m := echo.Map{
			"id":                t.ID,
			"from_session_id":   t.FromSessionID,
			"to_session_id":     t.ToSessionID,
			"from_table_id":     t.FromTableID,
			"to_table_id":       t.ToTableID,
			"remaining_minutes": t.RemainingMinutes,
			"operator_id":       t.OperatorID,
			"transferred_at":    t.TransferredAt.Format(time.RFC3339),
		}
		if t.Reason != nil {
			m["reason"] = *t.Reason
		}
		out = append(out, m)
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": id, "transfers": out})
}
