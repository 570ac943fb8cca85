package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// PaymentLedger records and voids payments against rental sessions.
// Payments are append-only: a mistaken payment is cancelled, never
// edited or deleted, and cancelled payments stop counting toward the
// session's paid total.
type PaymentLedger struct {
	store repository.Store
	now   Clock
}

// NewPaymentLedger builds a PaymentLedger.
func NewPaymentLedger(store repository.Store, now Clock) *PaymentLedger {
	if now == nil {
		now = UTCNow
	}
	return &PaymentLedger{store: store, now: now}
}

// RecordPaymentInput carries the parameters for taking a payment.
type RecordPaymentInput struct {
	SessionID  uint64
	Amount     decimal.Decimal
	MethodID   uint64
	Reference  *string
	OperatorID uint64
}

// RecordPayment takes money against a session. The amount must be
// strictly positive; methods that require an external reference reject
// a missing or blank one with ErrReferenceRequired. Overpayment is
// allowed. Payments attach to the cash shift open at recording time,
// or to none. Cancelled and transferred sessions take no payments;
// finished sessions still do, so a bill can be settled after the table
// is freed.
func (l *PaymentLedger) RecordPayment(ctx context.Context, in RecordPaymentInput) (*model.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("payment amount must be positive, got %s: %w", in.Amount, repository.ErrInvalidAmount)
	}

	var payment *model.Payment
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if s.State == model.SessionCancelled || s.State == model.SessionTransferred {
			return fmt.Errorf("session %d is %s: %w", s.ID, s.State, repository.ErrSessionNotActive)
		}
		m, err := tx.GetPaymentMethod(ctx, in.MethodID)
		if err != nil {
			return err
		}
		if m.RequiresReference && (in.Reference == nil || strings.TrimSpace(*in.Reference) == "") {
			return fmt.Errorf("method %q requires a reference: %w", m.Name, repository.ErrReferenceRequired)
		}

		var shiftID *uint64
		shift, err := tx.CurrentOpenShift(ctx)
		if err != nil {
			return err
		}
		if shift != nil {
			shiftID = &shift.ID
		}

		p := &model.Payment{
			SessionID:   s.ID,
			Amount:      in.Amount.Round(2),
			MethodID:    m.ID,
			Reference:   in.Reference,
			ReceiptCode: uuid.NewString(),
			State:       model.PaymentCompleted,
			PaidAt:      l.now(),
			OperatorID:  in.OperatorID,
			ShiftID:     shiftID,
		}
		if err := tx.CreatePayment(ctx, p); err != nil {
			return err
		}
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// CancelPayment voids a completed payment. Cancelling twice fails with
// ErrPaymentAlreadyCancelled.
func (l *PaymentLedger) CancelPayment(ctx context.Context, paymentID uint64) (*model.Payment, error) {
	var payment *model.Payment
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		p, err := tx.GetPaymentForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}
		if err := tx.CancelPayment(ctx, p.ID); err != nil {
			return err
		}
		p.State = model.PaymentCancelled
		payment = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// IsFullyPaid reports whether the session's completed payments cover
// its grand total, comparing at two decimal places.
func (l *PaymentLedger) IsFullyPaid(ctx context.Context, sessionID uint64) (bool, error) {
	var fully bool
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		cons, err := tx.ConsumptionTotal(ctx, s.ID)
		if err != nil {
			return err
		}
		paid, err := tx.PaidTotal(ctx, s.ID)
		if err != nil {
			return err
		}
		fully = model.FullyPaid(paid, s.GrandTotal(cons))
		return nil
	})
	if err != nil {
		return false, err
	}
	return fully, nil
}
