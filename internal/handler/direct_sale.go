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

// DirectSaleHandler sells products over the counter.
type DirectSaleHandler struct {
	Service *engine.DirectSaleService
	Sales   *repository.DirectSaleRepo
}

// NewDirectSaleHandler constructs a DirectSaleHandler.
func NewDirectSaleHandler(service *engine.DirectSaleService, sales *repository.DirectSaleRepo) *DirectSaleHandler {
	if service == nil || sales == nil {
		panic("nil dependency passed to NewDirectSaleHandler")
	}
	return &DirectSaleHandler{Service: service, Sales: sales}
}

func saleJSON(s *model.DirectSale, lines []model.DirectSaleLine) echo.Map {
	m := echo.Map{
		"id":          s.ID,
		"ticket_code": s.TicketCode,
		"operator_id": s.OperatorID,
		"sold_at":     s.SoldAt.Format(time.RFC3339),
		"subtotal":    s.Subtotal.StringFixed(2),
		"discount":    s.Discount.StringFixed(2),
		"total":       s.Total.StringFixed(2),
		"method_id":   s.MethodID,
		"state":       s.State,
	}
	if s.CustomerID != nil {
		m["customer_id"] = *s.CustomerID
	}
	if s.Reference != nil {
		m["reference"] = *s.Reference
	}
	if s.Notes != nil {
		m["notes"] = *s.Notes
	}
	if s.ShiftID != nil {
		m["shift_id"] = *s.ShiftID
	}
	if lines != nil {
		out := make([]echo.Map, 0, len(lines))
		for _, l := range lines {
			out = append(out, echo.Map{
				"product_id": l.ProductID,
				"quantity":   l.Quantity,
				"unit_price": l.UnitPrice.StringFixed(2),
				"subtotal":   l.Subtotal.StringFixed(2),
			})
		}
		m["lines"] = out
	}
	return m
}

// Create handles POST /v1/sales. Lines carry product and quantity
// only; prices come from the catalog and stock is deducted per line in
// the same transaction.
func (h *DirectSaleHandler) Create(c echo.Context) error {
	operatorID, err := getOperatorID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		Lines []struct {
			ProductID uint64 `json:"product_id"`
			Quantity  int    `json:"quantity"`
		} `json:"lines"`
		Discount   decimal.Decimal `json:"discount"`
		MethodID   uint64          `json:"method_id"`
		Reference  *string         `json:"reference"`
		CustomerID *uint64         `json:"customer_id"`
		Notes      *string         `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MethodID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "method_id is required"})
	}
	lines := make([]engine.SaleLineInput, 0, len(body.Lines))
	for _, l := range body.Lines {
		lines = append(lines, engine.SaleLineInput{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	s, err := h.Service.CreateSale(c.Request().Context(), engine.CreateSaleInput{
		Lines:      lines,
		Discount:   body.Discount,
		MethodID:   body.MethodID,
		Reference:  body.Reference,
		CustomerID: body.CustomerID,
		OperatorID: operatorID,
		Notes:      body.Notes,
	})
	if err != nil {
		return domainError(c, err)
	}
	saved, lerr := h.Sales.ListLines(c.Request().Context(), s.ID)
	if lerr != nil {
		saved = nil
	}
	return c.JSON(http.StatusCreated, saleJSON(s, saved))
}

// Get handles GET /v1/sales/:id with its lines.
func (h *DirectSaleHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sale id"})
	}
	ctx := c.Request().Context()
	s, err := h.Sales.GetByID(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	lines, err := h.Sales.ListLines(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, saleJSON(s, lines))
}
