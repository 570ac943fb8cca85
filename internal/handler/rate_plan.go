package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// RatePlanHandler manages billing policies. Editing a plan only
// affects future sessions; amounts already billed are snapshotted on
// the session.
type RatePlanHandler struct {
	Plans *repository.RatePlanRepo
}

// NewRatePlanHandler constructs a RatePlanHandler.
func NewRatePlanHandler(plans *repository.RatePlanRepo) *RatePlanHandler {
	if plans == nil {
		panic("nil repository passed to NewRatePlanHandler")
	}
	return &RatePlanHandler{Plans: plans}
}

func ratePlanJSON(p *model.RatePlan) echo.Map {
	return echo.Map{
		"id":              p.ID,
		"name":            p.Name,
		"price_per_hour":  p.PricePerHour.StringFixed(2),
		"price_per_block": p.PricePerBlock.StringFixed(2),
		"block_minutes":   p.BlockMinutes,
		"default_mode":    p.DefaultMode,
		"is_active":       p.IsActive,
	}
}

// Create handles POST /v1/rate-plans.
func (h *RatePlanHandler) Create(c echo.Context) error {
	var body struct {
		Name          string          `json:"name"`
		PricePerHour  decimal.Decimal `json:"price_per_hour"`
		PricePerBlock decimal.Decimal `json:"price_per_block"`
		BlockMinutes  int             `json:"block_minutes"`
		DefaultMode   string          `json:"default_mode"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	if body.PricePerHour.IsNegative() || body.PricePerBlock.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "prices must not be negative"})
	}
	if body.BlockMinutes <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "block_minutes must be positive"})
	}
	mode := model.BillingMode(strings.ToUpper(strings.TrimSpace(body.DefaultMode)))
	if mode == "" {
		mode = model.ModeOpen
	}
	if mode != model.ModeFixed && mode != model.ModeOpen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown default_mode"})
	}
	p := &model.RatePlan{
		Name:          name,
		PricePerHour:  body.PricePerHour.Round(2),
		PricePerBlock: body.PricePerBlock.Round(2),
		BlockMinutes:  body.BlockMinutes,
		DefaultMode:   mode,
		IsActive:      true,
	}
	if err := h.Plans.Create(c.Request().Context(), p); err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusCreated, ratePlanJSON(p))
}

// List handles GET /v1/rate-plans.
func (h *RatePlanHandler) List(c echo.Context) error {
	plans, err := h.Plans.List(c.Request().Context())
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(plans))
	for i := range plans {
		out = append(out, ratePlanJSON(&plans[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"rate_plans": out})
}

// Get handles GET /v1/rate-plans/:id.
func (h *RatePlanHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rate plan id"})
	}
	p, err := h.Plans.GetByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, ratePlanJSON(p))
}
