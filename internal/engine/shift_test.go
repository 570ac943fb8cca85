package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

func TestOpenShift(t *testing.T) {
	var created *model.CashShift
	tx := &fakeTx{
		OpenShiftFn: func(ctx context.Context, s *model.CashShift) error {
			s.ID = 5
			created = s
			return nil
		},
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	s, err := mgr.OpenShift(context.Background(), dec("200.00"), 3, nil)
	if err != nil {
		t.Fatalf("OpenShift: %v", err)
	}
	if created == nil || s.ID != 5 {
		t.Fatal("shift was not persisted")
	}
	if !s.OpenedAt.Equal(t0) || s.OpenedBy != 3 {
		t.Fatalf("opened at %v by %d", s.OpenedAt, s.OpenedBy)
	}
	if s.OpeningFloat.StringFixed(2) != "200.00" || !s.IsActive {
		t.Fatalf("float = %s active = %v", s.OpeningFloat, s.IsActive)
	}
}

func TestOpenShiftNegativeFloat(t *testing.T) {
	mgr := NewShiftManager(&fakeStore{tx: &fakeTx{}}, fixedClock(t0))
	_, err := mgr.OpenShift(context.Background(), dec("-1.00"), 3, nil)
	if !errors.Is(err, repository.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestOpenShiftWhileOneIsOpen(t *testing.T) {
	tx := &fakeTx{
		OpenShiftFn: func(ctx context.Context, s *model.CashShift) error {
			return repository.ErrShiftAlreadyOpen
		},
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	_, err := mgr.OpenShift(context.Background(), dec("200.00"), 3, nil)
	if !errors.Is(err, repository.ErrShiftAlreadyOpen) {
		t.Fatalf("err = %v, want ErrShiftAlreadyOpen", err)
	}
}

func TestCloseShiftReconciles(t *testing.T) {
	opened := t0.Add(-8 * time.Hour)
	var closedSales, closedDiscrepancy decimal.Decimal
	tx := &fakeTx{
		GetShiftForUpdateFn: func(ctx context.Context, id uint64) (*model.CashShift, error) {
			return &model.CashShift{ID: id, OpenedAt: opened, OpeningFloat: dec("200.00"), OpenedBy: 3, IsActive: true}, nil
		},
		PaidTotalBetweenFn: func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
			if !from.Equal(opened) || !to.Equal(t0) {
				t.Fatalf("payment window [%v, %v), want [%v, %v)", from, to, opened, t0)
			}
			return dec("350.00"), nil
		},
		DirectSaleTotalBetweenFn: func(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
			return dec("80.50"), nil
		},
		CloseShiftFn: func(ctx context.Context, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error {
			closedSales = salesTotal
			closedDiscrepancy = discrepancy
			return nil
		},
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	// drawer counted $5 short of float + sales
	s, err := mgr.CloseShift(context.Background(), 5, dec("625.50"), 4, nil)
	if err != nil {
		t.Fatalf("CloseShift: %v", err)
	}
	if closedSales.StringFixed(2) != "430.50" {
		t.Fatalf("sales total = %s, want 430.50", closedSales)
	}
	if closedDiscrepancy.StringFixed(2) != "-5.00" {
		t.Fatalf("discrepancy = %s, want -5.00", closedDiscrepancy)
	}
	if s.ClosedAt == nil || !s.ClosedAt.Equal(t0) {
		t.Fatalf("closed at %v, want %v", s.ClosedAt, t0)
	}
	if s.ClosedBy == nil || *s.ClosedBy != 4 {
		t.Fatalf("closed by %v, want 4", s.ClosedBy)
	}
	if s.CountedAmount == nil || s.CountedAmount.StringFixed(2) != "625.50" {
		t.Fatalf("counted = %v", s.CountedAmount)
	}
}

func TestCloseShiftTwice(t *testing.T) {
	closed := t0.Add(-time.Hour)
	tx := &fakeTx{
		GetShiftForUpdateFn: func(ctx context.Context, id uint64) (*model.CashShift, error) {
			return &model.CashShift{ID: id, OpenedAt: t0.Add(-9 * time.Hour), ClosedAt: &closed}, nil
		},
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	_, err := mgr.CloseShift(context.Background(), 5, dec("100.00"), 4, nil)
	if !errors.Is(err, repository.ErrShiftClosed) {
		t.Fatalf("err = %v, want ErrShiftClosed", err)
	}
}

func TestCloseShiftNegativeCount(t *testing.T) {
	mgr := NewShiftManager(&fakeStore{tx: &fakeTx{}}, fixedClock(t0))
	_, err := mgr.CloseShift(context.Background(), 5, dec("-0.01"), 4, nil)
	if !errors.Is(err, repository.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestCurrentShift(t *testing.T) {
	tx := &fakeTx{
		CurrentOpenShiftFn: func(ctx context.Context) (*model.CashShift, error) {
			return &model.CashShift{ID: 5, IsActive: true}, nil
		},
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	s, err := mgr.CurrentShift(context.Background())
	if err != nil || s.ID != 5 {
		t.Fatalf("s=%v err=%v", s, err)
	}
}

func TestCurrentShiftNoneOpen(t *testing.T) {
	tx := &fakeTx{
		CurrentOpenShiftFn: func(ctx context.Context) (*model.CashShift, error) { return nil, nil },
	}
	mgr := NewShiftManager(&fakeStore{tx: tx}, fixedClock(t0))

	_, err := mgr.CurrentShift(context.Background())
	if !errors.Is(err, repository.ErrShiftNotFound) {
		t.Fatalf("err = %v, want ErrShiftNotFound", err)
	}
}
