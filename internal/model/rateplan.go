package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BillingMode selects how a rental session is priced.
type BillingMode string

const (
	// ModeFixed bills an allotted number of minutes up front, in blocks.
	ModeFixed BillingMode = "FIXED"
	// ModeOpen bills elapsed time at finalize, pro-rated to the minute.
	ModeOpen BillingMode = "OPEN"
)

// RatePlan is a named billing policy for tables. Plans are referenced
// by sessions but never copied into them wholesale: a session snapshots
// the amount it was billed, so editing a plan only affects future
// sessions.
type RatePlan struct {
	ID            uint64          // rate_plans.id
	Name          string          // rate_plans.name
	PricePerHour  decimal.Decimal // rate_plans.price_per_hour
	PricePerBlock decimal.Decimal // rate_plans.price_per_block
	BlockMinutes  int             // rate_plans.block_minutes (e.g. 15)
	DefaultMode   BillingMode     // rate_plans.default_mode
	IsActive      bool            // rate_plans.is_active
	CreatedAt     time.Time       // rate_plans.created_at
	UpdatedAt     time.Time       // rate_plans.updated_at
}

// EffectiveMode resolves the billing mode for a session opened with the
// given allotted minutes. Zero allotted minutes always means open-ended
// regardless of the requested mode, because the closing time of an
// unbounded session is only known at finalize.
func EffectiveMode(requested BillingMode, allottedMinutes int) BillingMode {
	if allottedMinutes <= 0 {
		return ModeOpen
	}
	return requested
}

// PriceFor computes the rental amount for the given mode and minutes.
// Fixed mode prices the allotted minutes in blocks, rounding up to the
// plan's block granularity. Open mode prices elapsed minutes against
// the hourly rate, pro-rated to the minute. Results are rounded to two
// decimal places.
func (p *RatePlan) PriceFor(mode BillingMode, minutes int) decimal.Decimal {
	if minutes <= 0 {
		return decimal.Zero
	}
	switch mode {
	case ModeFixed:
		blocks := CeilBlocks(minutes, p.BlockMinutes)
		return p.PricePerBlock.Mul(decimal.NewFromInt(int64(blocks))).Round(2)
	default:
		return p.PricePerHour.
			Mul(decimal.NewFromInt(int64(minutes))).
			Div(decimal.NewFromInt(60)).
			Round(2)
	}
}
