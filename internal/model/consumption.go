package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConsumptionLine attaches a purchased product or service to an active
// rental session. Lines are immutable once written; corrections are new
// compensating lines. The subtotal is recomputed from quantity and unit
// price at write time and never trusted from input.
type ConsumptionLine struct {
	ID         uint64          // consumption_lines.id
	SessionID  uint64          // consumption_lines.session_id
	ProductID  uint64          // consumption_lines.product_id
	Quantity   int             // consumption_lines.quantity
	UnitPrice  decimal.Decimal // consumption_lines.unit_price
	Subtotal   decimal.Decimal // consumption_lines.subtotal
	OperatorID uint64          // consumption_lines.operator_id
	CreatedAt  time.Time       // consumption_lines.created_at
}

// NewConsumptionLine builds a line with its subtotal derived from
// quantity × unit price.
func NewConsumptionLine(sessionID, productID uint64, quantity int, unitPrice decimal.Decimal, operatorID uint64) ConsumptionLine {
	return ConsumptionLine{
		SessionID:  sessionID,
		ProductID:  productID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Subtotal:   unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		OperatorID: operatorID,
	}
}
