package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

func cashMethod() *model.PaymentMethod {
	return &model.PaymentMethod{ID: 1, Name: "cash", RequiresReference: false, IsActive: true}
}

func cardMethod() *model.PaymentMethod {
	return &model.PaymentMethod{ID: 2, Name: "card", RequiresReference: true, IsActive: true}
}

func TestRecordPayment(t *testing.T) {
	var created *model.Payment
	tx := &fakeTx{
		GetSessionForUpdateFn: func(ctx context.Context, id uint64) (*model.RentalSession, error) {
			return &model.RentalSession{ID: id, State: model.SessionActive}, nil
		},
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		CurrentOpenShiftFn: func(ctx context.Context) (*model.CashShift, error) {
			return &model.CashShift{ID: 5}, nil
		},
		CreatePaymentFn: func(ctx context.Context, p *model.Payment) error {
			p.ID = 100
			created = p
			return nil
		},
	}
	ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

	p, err := ledger.RecordPayment(context.Background(), RecordPaymentInput{
		SessionID:  42,
		Amount:     dec("14.005"),
		MethodID:   1,
		OperatorID: 3,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if created == nil || p.ID != 100 {
		t.Fatal("payment was not persisted")
	}
	if p.Amount.StringFixed(2) != "14.01" {
		t.Fatalf("amount = %s, want 14.01 after rounding", p.Amount)
	}
	if p.State != model.PaymentCompleted {
		t.Fatalf("state = %s, want COMPLETED", p.State)
	}
	if p.ShiftID == nil || *p.ShiftID != 5 {
		t.Fatalf("shift id = %v, want 5", p.ShiftID)
	}
	if p.ReceiptCode == "" {
		t.Fatal("receipt code must be assigned")
	}
	if !p.PaidAt.Equal(t0) {
		t.Fatalf("paid at %v, want %v", p.PaidAt, t0)
	}
}

func TestRecordPaymentWithoutOpenShift(t *testing.T) {
	tx := &fakeTx{
		GetSessionForUpdateFn: func(ctx context.Context, id uint64) (*model.RentalSession, error) {
			return &model.RentalSession{ID: id, State: model.SessionFinished}, nil
		},
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		CurrentOpenShiftFn: func(ctx context.Context) (*model.CashShift, error) { return nil, nil },
		CreatePaymentFn:    func(ctx context.Context, p *model.Payment) error { p.ID = 100; return nil },
	}
	ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

	// finished sessions still settle their bill
	p, err := ledger.RecordPayment(context.Background(), RecordPaymentInput{
		SessionID: 42, Amount: dec("5.00"), MethodID: 1, OperatorID: 3,
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if p.ShiftID != nil {
		t.Fatalf("shift id = %v, want none", p.ShiftID)
	}
}

func TestRecordPaymentInvalidAmount(t *testing.T) {
	ledger := NewPaymentLedger(&fakeStore{tx: &fakeTx{}}, fixedClock(t0))
	for _, amount := range []string{"0", "-1.00"} {
		_, err := ledger.RecordPayment(context.Background(), RecordPaymentInput{
			SessionID: 42, Amount: dec(amount), MethodID: 1, OperatorID: 3,
		})
		if !errors.Is(err, repository.ErrInvalidAmount) {
			t.Fatalf("amount %s: err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestRecordPaymentReferenceRequired(t *testing.T) {
	tx := &fakeTx{
		GetSessionForUpdateFn: func(ctx context.Context, id uint64) (*model.RentalSession, error) {
			return &model.RentalSession{ID: id, State: model.SessionActive}, nil
		},
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cardMethod(), nil
		},
	}
	ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

	blank := "   "
	for _, ref := range []*string{nil, &blank} {
		_, err := ledger.RecordPayment(context.Background(), RecordPaymentInput{
			SessionID: 42, Amount: dec("5.00"), MethodID: 2, Reference: ref, OperatorID: 3,
		})
		if !errors.Is(err, repository.ErrReferenceRequired) {
			t.Fatalf("ref %v: err = %v, want ErrReferenceRequired", ref, err)
		}
	}
}

func TestRecordPaymentOnVoidedSession(t *testing.T) {
	for _, state := range []model.SessionState{model.SessionCancelled, model.SessionTransferred} {
		tx := &fakeTx{
			GetSessionForUpdateFn: func(ctx context.Context, id uint64) (*model.RentalSession, error) {
				return &model.RentalSession{ID: id, State: state}, nil
			},
		}
		ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

		_, err := ledger.RecordPayment(context.Background(), RecordPaymentInput{
			SessionID: 42, Amount: dec("5.00"), MethodID: 1, OperatorID: 3,
		})
		if !errors.Is(err, repository.ErrSessionNotActive) {
			t.Fatalf("%s: err = %v, want ErrSessionNotActive", state, err)
		}
	}
}

func TestCancelPayment(t *testing.T) {
	cancelled := false
	tx := &fakeTx{
		GetPaymentForUpdateFn: func(ctx context.Context, id uint64) (*model.Payment, error) {
			return &model.Payment{ID: id, State: model.PaymentCompleted}, nil
		},
		CancelPaymentFn: func(ctx context.Context, id uint64) error {
			cancelled = true
			return nil
		},
	}
	ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

	p, err := ledger.CancelPayment(context.Background(), 100)
	if err != nil {
		t.Fatalf("CancelPayment: %v", err)
	}
	if !cancelled || p.State != model.PaymentCancelled {
		t.Fatalf("cancelled=%v state=%s", cancelled, p.State)
	}
}

func TestCancelPaymentTwice(t *testing.T) {
	tx := &fakeTx{
		GetPaymentForUpdateFn: func(ctx context.Context, id uint64) (*model.Payment, error) {
			return &model.Payment{ID: id, State: model.PaymentCancelled}, nil
		},
		CancelPaymentFn: func(ctx context.Context, id uint64) error {
			return repository.ErrPaymentAlreadyCancelled
		},
	}
	ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

	_, err := ledger.CancelPayment(context.Background(), 100)
	if !errors.Is(err, repository.ErrPaymentAlreadyCancelled) {
		t.Fatalf("err = %v, want ErrPaymentAlreadyCancelled", err)
	}
}

func TestIsFullyPaid(t *testing.T) {
	cases := []struct {
		paid string
		want bool
	}{
		{"13.99", false},
		{"14.00", true},
		{"20.00", true}, // overpayment still settles
	}
	for _, tc := range cases {
		tx := &fakeTx{
			GetSessionForUpdateFn: func(ctx context.Context, id uint64) (*model.RentalSession, error) {
				return &model.RentalSession{ID: id, RentalAmount: dec("8.00"), Discount: dec("0"), State: model.SessionFinished}, nil
			},
			ConsumptionTotalFn: func(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
				return dec("6.00"), nil
			},
			PaidTotalFn: func(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
				return dec(tc.paid), nil
			},
		}
		ledger := NewPaymentLedger(&fakeStore{tx: tx}, fixedClock(t0))

		got, err := ledger.IsFullyPaid(context.Background(), 42)
		if err != nil {
			t.Fatalf("paid %s: %v", tc.paid, err)
		}
		if got != tc.want {
			t.Fatalf("paid %s against 14.00: got %v, want %v", tc.paid, got, tc.want)
		}
	}
}
