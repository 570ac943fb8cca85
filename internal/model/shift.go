package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashShift is the accounting period between cash-drawer open and
// close. At most one shift is open at any time. Closed shifts are
// immutable and are never deleted.
//
// Fields:
//  ID            – primary key identifier.
//  OpenedAt      – opening timestamp.
//  ClosedAt      – closing timestamp, nil while open.
//  OpeningFloat  – cash placed in the drawer at open.
//  CountedAmount – cash counted at close, nil while open.
//  SalesTotal    – completed payments + completed direct sales inside
//                  [OpenedAt, ClosedAt), computed at close.
//  Discrepancy   – CountedAmount − OpeningFloat − SalesTotal.
//  OpenedBy      – operator who opened the shift.
//  ClosedBy      – operator who closed it, nil while open.
type CashShift struct {
	ID            uint64           // cash_shifts.id
	OpenedAt      time.Time        // cash_shifts.opened_at
	ClosedAt      *time.Time       // cash_shifts.closed_at (nullable)
	OpeningFloat  decimal.Decimal  // cash_shifts.opening_float
	CountedAmount *decimal.Decimal // cash_shifts.counted_amount (nullable)
	SalesTotal    decimal.Decimal  // cash_shifts.sales_total
	Discrepancy   decimal.Decimal  // cash_shifts.discrepancy
	OpenedBy      uint64           // cash_shifts.opened_by
	ClosedBy      *uint64          // cash_shifts.closed_by (nullable)
	Notes         *string          // cash_shifts.notes (nullable)
	IsActive      bool             // cash_shifts.is_active
	CreatedAt     time.Time        // cash_shifts.created_at
	UpdatedAt     time.Time        // cash_shifts.updated_at
}

// IsClosed reports whether the shift has been closed.
func (s *CashShift) IsClosed() bool { return s.ClosedAt != nil }

// ShiftDiscrepancy computes counted − openingFloat − salesTotal: the
// amount by which the drawer is over (positive) or short (negative).
func ShiftDiscrepancy(counted, openingFloat, salesTotal decimal.Decimal) decimal.Decimal {
	return counted.Sub(openingFloat).Sub(salesTotal).Round(2)
}
