// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for domain events. Routing key equals queue name on
// the default exchange.
const (
	SessionFinishedQueue = "session.finished"
	StockLowQueue        = "stock.low"
)

// SessionFinishedEvent is published when a rental session is finalized.
// It carries enough for downstream consumers to log, print receipts or
// feed analytics without querying the primary database.
type SessionFinishedEvent struct {
	SessionID        uint64 `json:"session_id"`
	TableID          uint64 `json:"table_id"`
	TableName        string `json:"table_name"`
	OperatorID       uint64 `json:"operator_id"`
	Mode             string `json:"mode"`
	StartedAt        string `json:"started_at"`
	EndedAt          string `json:"ended_at"`
	ElapsedMinutes   int    `json:"elapsed_minutes"`
	RentalAmount     string `json:"rental_amount"`
	ConsumptionTotal string `json:"consumption_total"`
	GrandTotal       string `json:"grand_total"`
	FullyPaid        bool   `json:"fully_paid"`
}

// StockLowEvent is published when a stock deduction leaves a product at
// or below its minimum level.
type StockLowEvent struct {
	ProductID   uint64 `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
	MinStock    int    `json:"min_stock"`
	OperatorID  uint64 `json:"operator_id"`
	OccurredAt  string `json:"occurred_at"`
}
