package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// ShiftManager opens and closes cash-drawer shifts. At most one shift
// is open at any time; opening a second fails with ErrShiftAlreadyOpen
// and closing twice fails with ErrShiftClosed.
type ShiftManager struct {
	store repository.Store
	now   Clock
}

// NewShiftManager builds a ShiftManager.
func NewShiftManager(store repository.Store, now Clock) *ShiftManager {
	if now == nil {
		now = UTCNow
	}
	return &ShiftManager{store: store, now: now}
}

// OpenShift opens a new shift with the given drawer float. The opening
// float must not be negative.
func (m *ShiftManager) OpenShift(ctx context.Context, openingFloat decimal.Decimal, openedBy uint64, notes *string) (*model.CashShift, error) {
	if openingFloat.IsNegative() {
		return nil, fmt.Errorf("opening float must not be negative, got %s: %w", openingFloat, repository.ErrInvalidAmount)
	}
	var shift *model.CashShift
	err := m.store.InTx(ctx, func(tx repository.Tx) error {
		s := &model.CashShift{
			OpenedAt:     m.now(),
			OpeningFloat: openingFloat.Round(2),
			SalesTotal:   decimal.Zero,
			Discrepancy:  decimal.Zero,
			OpenedBy:     openedBy,
			Notes:        notes,
			IsActive:     true,
		}
		if err := tx.OpenShift(ctx, s); err != nil {
			return err
		}
		shift = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// CloseShift closes the shift, reconciling the drawer. The sales total
// is recomputed inside the closing transaction as the sum of completed
// session payments and completed direct sales whose timestamps fall in
// [OpenedAt, now); the discrepancy is counted − float − sales.
func (m *ShiftManager) CloseShift(ctx context.Context, shiftID uint64, counted decimal.Decimal, closedBy uint64, notes *string) (*model.CashShift, error) {
	if counted.IsNegative() {
		return nil, fmt.Errorf("counted amount must not be negative, got %s: %w", counted, repository.ErrInvalidAmount)
	}
	var shift *model.CashShift
	err := m.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetShiftForUpdate(ctx, shiftID)
		if err != nil {
			return err
		}
		if s.IsClosed() {
			return fmt.Errorf("shift %d closed at %s: %w", s.ID, s.ClosedAt, repository.ErrShiftClosed)
		}

		now := m.now()
		payments, err := tx.PaidTotalBetween(ctx, s.OpenedAt, now)
		if err != nil {
			return err
		}
		sales, err := tx.DirectSaleTotalBetween(ctx, s.OpenedAt, now)
		if err != nil {
			return err
		}
		salesTotal := payments.Add(sales).Round(2)

		c := counted.Round(2)
		discrepancy := model.ShiftDiscrepancy(c, s.OpeningFloat, salesTotal)
		if err := tx.CloseShift(ctx, s.ID, now, c, salesTotal, discrepancy, closedBy, notes); err != nil {
			return err
		}

		s.ClosedAt = &now
		s.CountedAmount = &c
		s.SalesTotal = salesTotal
		s.Discrepancy = discrepancy
		s.ClosedBy = &closedBy
		if notes != nil {
			s.Notes = notes
		}
		shift = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}

// CurrentShift returns the open shift, or ErrShiftNotFound when the
// drawer is closed.
func (m *ShiftManager) CurrentShift(ctx context.Context) (*model.CashShift, error) {
	var shift *model.CashShift
	err := m.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.CurrentOpenShift(ctx)
		if err != nil {
			return err
		}
		if s == nil {
			return fmt.Errorf("no open shift: %w", repository.ErrShiftNotFound)
		}
		shift = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shift, nil
}
