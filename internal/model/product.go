package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the minimal catalog entry the billing core needs: a sale
// price and stock counters. Full catalog management lives elsewhere;
// the engine only reads prices and deducts stock.
type Product struct {
	ID        uint64          // products.id
	Name      string          // products.name
	SalePrice decimal.Decimal // products.sale_price
	Stock     int             // products.stock
	MinStock  int             // products.min_stock
	IsService bool            // products.is_service (services skip stock checks)
	IsActive  bool            // products.is_active
	CreatedAt time.Time       // products.created_at
	UpdatedAt time.Time       // products.updated_at
}

// MovementType enumerates stock ledger directions.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// StockMovement is one entry in the stock ledger. Exactly one OUT
// movement is written per consumption line or direct-sale line; the
// engine performs no deduplication, retries are the caller's problem.
type StockMovement struct {
	ID         uint64       // stock_movements.id
	ProductID  uint64       // stock_movements.product_id
	Type       MovementType // stock_movements.type
	Quantity   int          // stock_movements.quantity
	StockAfter int          // stock_movements.stock_after
	Reason     string       // stock_movements.reason
	OperatorID uint64       // stock_movements.operator_id
	CreatedAt  time.Time    // stock_movements.created_at
}
