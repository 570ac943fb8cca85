package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// TableHandler exposes the table registry: listing, lookup and manual
// state changes (reserved, maintenance). Occupancy itself is driven by
// the session engine, never set directly through this handler.
type TableHandler struct {
	Tables   *repository.TableRepo
	Sessions *repository.SessionRepo
	Store    repository.Store
}

// NewTableHandler constructs a TableHandler.
func NewTableHandler(tables *repository.TableRepo, sessions *repository.SessionRepo, store repository.Store) *TableHandler {
	if tables == nil || sessions == nil || store == nil {
		panic("nil dependency passed to NewTableHandler")
	}
	return &TableHandler{Tables: tables, Sessions: sessions, Store: store}
}

func tableJSON(t *model.Table) echo.Map {
	return echo.Map{
		"id":           t.ID,
		"name":         t.Name,
		"code":         t.Code,
		"rate_plan_id": t.RatePlanID,
		"state":        t.State,
		"is_active":    t.IsActive,
	}
}

// List handles GET /v1/tables. With ?available=true only free, active
// tables are returned.
func (h *TableHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		tables []model.Table
		err    error
	)
	if strings.EqualFold(c.QueryParam("available"), "true") {
		tables, err = h.Tables.ListAvailable(ctx)
	} else {
		tables, err = h.Tables.List(ctx)
	}
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(tables))
	for i := range tables {
		out = append(out, tableJSON(&tables[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"tables": out})
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	t, err := h.Tables.GetByID(c.Request().Context(), id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, tableJSON(t))
}

// SetState handles PATCH /v1/tables/:id/state for manual transitions:
// reserving a table, taking it into maintenance, or freeing it again.
// Freeing a table that still has an active session is rejected.
func (h *TableHandler) SetState(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var body struct {
		State string `json:"state"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	state := model.TableState(strings.ToUpper(strings.TrimSpace(body.State)))
	if !model.ValidTableState(state) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown table state"})
	}
	if state == model.TableOccupied {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "occupancy is controlled by sessions"})
	}
	ctx := c.Request().Context()
	err = h.Store.InTx(ctx, func(tx repository.Tx) error {
		return tx.SetTableState(ctx, id, state)
	})
	if err != nil {
		return domainError(c, err)
	}
	t, err := h.Tables.GetByID(ctx, id)
	if err != nil {
		return domainError(c, err)
	}
	return c.JSON(http.StatusOK, tableJSON(t))
}

// ListSessions handles GET /v1/tables/:id/sessions, returning the
// table's most recent sessions.
func (h *TableHandler) ListSessions(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Tables.GetByID(ctx, id); err != nil {
		return domainError(c, err)
	}
	sessions, err := h.Sessions.ListByTable(ctx, id, 50)
	if err != nil {
		return domainError(c, err)
	}
	out := make([]echo.Map, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionJSON(&sessions[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"table_id": id, "sessions": out})
}
