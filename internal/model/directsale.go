package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleState enumerates direct-sale lifecycle values.
type SaleState string

const (
	SaleCompleted SaleState = "COMPLETED"
	SaleCancelled SaleState = "CANCELLED"
)

// DirectSale is a retail sale with no table session behind it. Its
// subtotal is always recomputed from the line subtotals; the persisted
// column is a cache for listing, never an input to arithmetic.
// Completed direct sales feed the owning shift's sales total the same
// way session payments do.
type DirectSale struct {
	ID         uint64          // direct_sales.id
	TicketCode string          // direct_sales.ticket_code
	CustomerID *uint64         // direct_sales.customer_id (nullable)
	OperatorID uint64          // direct_sales.operator_id
	SoldAt     time.Time       // direct_sales.sold_at
	Subtotal   decimal.Decimal // direct_sales.subtotal
	Discount   decimal.Decimal // direct_sales.discount
	Total      decimal.Decimal // direct_sales.total
	MethodID   uint64          // direct_sales.method_id
	Reference  *string         // direct_sales.reference (nullable)
	State      SaleState       // direct_sales.state
	Notes      *string         // direct_sales.notes (nullable)
	ShiftID    *uint64         // direct_sales.shift_id (nullable)
	CreatedAt  time.Time       // direct_sales.created_at
	UpdatedAt  time.Time       // direct_sales.updated_at
}

// DirectSaleLine is one product position inside a direct sale.
type DirectSaleLine struct {
	ID        uint64          // direct_sale_lines.id
	SaleID    uint64          // direct_sale_lines.sale_id
	ProductID uint64          // direct_sale_lines.product_id
	Quantity  int             // direct_sale_lines.quantity
	UnitPrice decimal.Decimal // direct_sale_lines.unit_price
	Subtotal  decimal.Decimal // direct_sale_lines.subtotal
	CreatedAt time.Time       // direct_sale_lines.created_at
}

// SaleTotals recomputes a sale's subtotal and total from its lines.
// total = subtotal − discount.
func SaleTotals(lines []DirectSaleLine, discount decimal.Decimal) (subtotal, total decimal.Decimal) {
	subtotal = decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.Subtotal)
	}
	subtotal = subtotal.Round(2)
	return subtotal, subtotal.Sub(discount).Round(2)
}
