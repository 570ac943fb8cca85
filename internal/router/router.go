// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/emanuelrdz/billarpos/internal/config"
	"github.com/emanuelrdz/billarpos/internal/handler"
	"github.com/emanuelrdz/billarpos/internal/middleware"
)

// Handlers bundles every handler the API mounts.
type Handlers struct {
	Tables    *handler.TableHandler
	RatePlans *handler.RatePlanHandler
	Sessions  *handler.SessionHandler
	Payments  *handler.PaymentHandler
	Shifts    *handler.ShiftHandler
	Sales     *handler.DirectSaleHandler
}

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI mounts the protected API under /v1. Every route requires
// a valid access token with an ADMIN or OPERATOR role. Rate limiting
// applies to the whole group; the response cache only wraps the
// floor-plan reads, which tolerate a few seconds of staleness.
func RegisterAPI(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN", "OPERATOR"))
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Tables
	g.GET("/tables", h.Tables.List, cached)
	g.GET("/tables/:id", h.Tables.Get)
	g.PATCH("/tables/:id/state", h.Tables.SetState)
	g.GET("/tables/:id/sessions", h.Tables.ListSessions)

	// Rate plans
	g.GET("/rate-plans", h.RatePlans.List, cached)
	g.GET("/rate-plans/:id", h.RatePlans.Get)
	g.POST("/rate-plans", h.RatePlans.Create)

	// Sessions
	g.POST("/sessions", h.Sessions.Open)
	g.GET("/sessions/:id", h.Sessions.Get)
	g.POST("/sessions/:id/consumptions", h.Sessions.AddConsumption)
	g.GET("/sessions/:id/consumptions", h.Sessions.ListConsumptions)
	g.POST("/sessions/:id/finalize", h.Sessions.Finalize)
	g.POST("/sessions/:id/cancel", h.Sessions.Cancel)
	g.POST("/sessions/:id/transfer", h.Sessions.Transfer)
	g.GET("/sessions/:id/transfers", h.Sessions.ListTransfers)

	// Payments
	g.POST("/sessions/:id/payments", h.Payments.Record)
	g.GET("/sessions/:id/payments", h.Payments.List)
	g.POST("/payments/:id/cancel", h.Payments.Cancel)

	// Cash shifts
	g.POST("/shifts/open", h.Shifts.Open)
	g.POST("/shifts/:id/close", h.Shifts.Close)
	g.GET("/shifts/current", h.Shifts.Current)
	g.GET("/shifts/:id", h.Shifts.Get)

	// Direct sales
	g.POST("/sales", h.Sales.Create)
	g.GET("/sales/:id", h.Sales.Get)
}
