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

// ShiftHandler opens and closes cash-drawer shifts.
type ShiftHandler struct {
	Manager *engine.ShiftManager
	Shifts  *repository.ShiftRepo
}

// NewShiftHandler constructs a ShiftHandler.
func NewShiftHandler(manager *engine.ShiftManager, shifts *repository.ShiftRepo) *ShiftHandler {
	if manager == nil || shifts == nil {
		panic("nil dependency passed to NewShiftHandler")
	}
	return &ShiftHandler{Manager: manager, Shifts: shifts}
}

func shiftJSON(s *model.CashShift) echo.Map {
	m := echo.Map{
		"id":            s.ID,
		"opened_at":     s.OpenedAt.Format(time.RFC3339),
		"opening_float": s.OpeningFloat.StringFixed(2),
		"sales_total":   s.SalesTotal.StringFixed(2),
		"discrepancy":   s.Discrepancy.StringFixed(2),
		"opened_by":     s.OpenedBy,
	}
	if s.ClosedAt != nil {
		m["closed_at"] = s.ClosedAt.Format(time.RFC3339)
	}
	if s.CountedAmount != nil {
		m["counted_amount"] = s.CountedAmount.StringFixed(2)
	}
	if s.ClosedBy != nil {
		m["closed_by"] = *s.ClosedBy
	}
	if s.Notes != nil {
		m["notes"] = *s.Notes
	}
	return m
}

// Open handles POST /v1/shifts/open. Only one shift may be open at a
// time; a second open attempt answers 409.
func (h *ShiftHandler) Open(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		OpeningFloat decimal.Decimal `json:"opening_float"`
		Notes        *string         `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s, err := h.Manager.OpenShift(c.Request().Context(), body.OpeningFloat, operatorID, body.Notes)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, shiftJSON(s))
}

// Close handles POST /v1/shifts/:id/close, reconciling the drawer.
func (h *ShiftHandler) Close(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
	}
	var body struct {
		CountedAmount decimal.Decimal `json:"counted_amount"`
		Notes         *string         `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	s, err := h.Manager.CloseShift(c.Request().Context(), id, body.CountedAmount, operatorID, body.Notes)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, shiftJSON(s))
}

// Current handles GET /v1/shifts/current, answering 404 when the
// drawer is closed.
func (h *ShiftHandler) Current(c echo.Context) error {
	s, err := h.Manager.CurrentShift(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, shiftJSON(s))
}

// Get handles GET /v1/shifts/:id.
func (h *ShiftHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid shift id"})
	}
	s, err := h.Shifts.GetByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, shiftJSON(s))
}
