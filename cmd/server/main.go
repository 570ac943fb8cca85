package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/emanuelrdz/billarpos/internal/config"
	"github.com/emanuelrdz/billarpos/internal/database"
	"github.com/emanuelrdz/billarpos/internal/engine"
	"github.com/emanuelrdz/billarpos/internal/handler"
	"github.com/emanuelrdz/billarpos/internal/queue"
	"github.com/emanuelrdz/billarpos/internal/repository"
	"github.com/emanuelrdz/billarpos/internal/router"
	queue_publisher "github.com/emanuelrdz/billarpos/internal/service"
)

func main() {
	// .env is optional; in production everything comes from the
	// environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; cache and rate limiting disabled")
	}

	store := repository.NewSQLStore(db)
	pub := queue_publisher.Broker{}

	sessions := engine.NewSessionEngine(store, pub, nil)
	ledger := engine.NewPaymentLedger(store, nil)
	shifts := engine.NewShiftManager(store, nil)
	sales := engine.NewDirectSaleService(store, pub, nil)

	h := router.Handlers{
		Tables:    handler.NewTableHandler(store.Tables, store.Sessions, store),
		RatePlans: handler.NewRatePlanHandler(store.RatePlans),
		Sessions:  handler.NewSessionHandler(sessions, ledger, store.Sessions, store.Consumption, store.Payments, store.Transfers),
		Payments:  handler.NewPaymentHandler(ledger, store.Payments, store.Sessions),
		Shifts:    handler.NewShiftHandler(shifts, store.Shifts),
		Sales:     handler.NewDirectSaleHandler(sales, store.Sales),
	}

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAPI(e, h, cfg.JWTSecret, rdb)

	// Background consumer mirrors finished sessions into logs/.
	go func() {
		if err := queue.StartSessionConsumer(); err != nil {
			log.Printf("session consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
