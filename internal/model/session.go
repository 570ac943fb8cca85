package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionState enumerates the rental session state machine. Active is
// the only non-terminal state; Finished, Cancelled and Transferred are
// terminal and freeze the session's timestamps and totals.
type SessionState string

const (
	SessionActive      SessionState = "ACTIVE"
	SessionFinished    SessionState = "FINISHED"
	SessionCancelled   SessionState = "CANCELLED"
	SessionTransferred SessionState = "TRANSFERRED"
)

// RentalSession is one billed occupancy period of a table. Sessions are
// never physically deleted; terminal sessions remain for audit and
// shift reconciliation.
//
// Fields:
//  ID              – primary key identifier.
//  TableID         – table being rented.
//  CustomerID      – optional customer reference.
//  OperatorID      – operator who opened the session.
//  StartedAt       – opening timestamp (UTC).
//  EndedAt         – closing timestamp, nil while active.
//  ScheduledEndAt  – planned end, fixed mode only.
//  Mode            – FIXED or OPEN billing.
//  AllottedMinutes – minutes purchased up front; 0 means unbounded.
//  RentalAmount    – time charge; set at open for fixed mode,
//                    at finalize (or transfer) for open mode.
//  Discount        – flat discount applied to the grand total.
//  State           – session state machine value.
//  PrevTableID     – source table when this session came from a transfer.
//  ShiftID         – cash shift that was open when the session closed, if any.
type RentalSession struct {
	ID              uint64          // rental_sessions.id
	TableID         uint64          // rental_sessions.table_id
	CustomerID      *uint64         // rental_sessions.customer_id (nullable)
	OperatorID      uint64          // rental_sessions.operator_id
	StartedAt       time.Time       // rental_sessions.started_at
	EndedAt         *time.Time      // rental_sessions.ended_at (nullable)
	ScheduledEndAt  *time.Time      // rental_sessions.scheduled_end_at (nullable)
	Mode            BillingMode     // rental_sessions.mode
	AllottedMinutes int             // rental_sessions.allotted_minutes
	RentalAmount    decimal.Decimal // rental_sessions.rental_amount
	Discount        decimal.Decimal // rental_sessions.discount
	State           SessionState    // rental_sessions.state
	PrevTableID     *uint64         // rental_sessions.prev_table_id (nullable)
	ShiftID         *uint64         // rental_sessions.shift_id (nullable)
	CreatedAt       time.Time       // rental_sessions.created_at
	UpdatedAt       time.Time       // rental_sessions.updated_at
}

// IsActive reports whether the session still accepts mutations.
func (s *RentalSession) IsActive() bool { return s.State == SessionActive }

// IsTerminal reports whether the session reached a terminal state.
func (s *RentalSession) IsTerminal() bool { return s.State != SessionActive }

// ElapsedMinutes returns the whole minutes between the session start
// and its end (or now, while active), rounded up.
func (s *RentalSession) ElapsedMinutes(now time.Time) int {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	return CeilMinutes(end.Sub(s.StartedAt))
}

// RemainingMinutes returns the whole minutes left before the scheduled
// end, rounded up, clamped at zero. Only active fixed-duration sessions
// have remaining time; everything else reports 0.
func (s *RentalSession) RemainingMinutes(now time.Time) int {
	if s.State != SessionActive || s.Mode != ModeFixed || s.ScheduledEndAt == nil {
		return 0
	}
	return CeilMinutes(s.ScheduledEndAt.Sub(now))
}

// GrandTotal is the amount the customer owes for this session:
// rental amount plus the consumption total minus the discount.
// The consumption total is always recomputed from line subtotals by the
// caller, never read from a stored duplicate.
func (s *RentalSession) GrandTotal(consumptionTotal decimal.Decimal) decimal.Decimal {
	return s.RentalAmount.Add(consumptionTotal).Sub(s.Discount)
}

// FullyPaid compares a sum of completed payments against a grand total
// with fixed two-decimal rounding. Overpayment counts as paid.
func FullyPaid(paid, grandTotal decimal.Decimal) bool {
	return paid.Round(2).GreaterThanOrEqual(grandTotal.Round(2))
}
