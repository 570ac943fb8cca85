package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentState enumerates payment lifecycle values. Cancelled payments
// never count toward a session being fully paid.
type PaymentState string

const (
	PaymentCompleted PaymentState = "COMPLETED"
	PaymentCancelled PaymentState = "CANCELLED"
)

// PaymentMethod is a catalog entry for how money was taken (cash,
// card, transfer). Methods that demand an external reference, such as
// card vouchers, set RequiresReference and recording a payment without
// one is rejected.
type PaymentMethod struct {
	ID                uint64    // payment_methods.id
	Name              string    // payment_methods.name
	RequiresReference bool      // payment_methods.requires_reference
	IsActive          bool      // payment_methods.is_active
	CreatedAt         time.Time // payment_methods.created_at
	UpdatedAt         time.Time // payment_methods.updated_at
}

// Payment records money received against a rental session. The shift
// reference is resolved when the payment is created, from whichever
// cash shift is open at that moment; it is never backfilled later.
type Payment struct {
	ID          uint64          // payments.id
	SessionID   uint64          // payments.session_id
	Amount      decimal.Decimal // payments.amount
	MethodID    uint64          // payments.method_id
	Reference   *string         // payments.reference (nullable)
	ReceiptCode string          // payments.receipt_code
	State       PaymentState    // payments.state
	PaidAt      time.Time       // payments.paid_at
	OperatorID  uint64          // payments.operator_id
	ShiftID     *uint64         // payments.shift_id (nullable)
	CreatedAt   time.Time       // payments.created_at
	UpdatedAt   time.Time       // payments.updated_at
}
