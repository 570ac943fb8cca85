package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// PaymentRepo provides persistence for session payments and the
// payment-method catalog.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, session_id, amount, method_id, reference, receipt_code, state, paid_at, operator_id, shift_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	var (
		p         model.Payment
		reference sql.NullString
		shiftID   sql.NullInt64
	)
	err := row.Scan(&p.ID, &p.SessionID, &p.Amount, &p.MethodID, &reference, &p.ReceiptCode,
		&p.State, &p.PaidAt, &p.OperatorID, &shiftID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reference.Valid {
		v := reference.String
		p.Reference = &v
	}
	if shiftID.Valid {
		v := uint64(shiftID.Int64)
		p.ShiftID = &v
	}
	return &p, nil
}

// GetMethodTx loads an active payment method inside the transaction.
func (r *PaymentRepo) GetMethodTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.PaymentMethod, error) {
	const q = `SELECT id, name, requires_reference, is_active, created_at, updated_at
	           FROM payment_methods WHERE id = ? AND is_active = 1`
	var m model.PaymentMethod
	err := tx.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.RequiresReference, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment method %d: %w", id, ErrMethodNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateTx inserts a payment within the transaction and populates its
// generated ID and timestamps.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (session_id, amount, method_id, reference, receipt_code, state, paid_at, operator_id, shift_id)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.SessionID, p.Amount, p.MethodID, nullableString(p.Reference),
		p.ReceiptCode, p.State, p.PaidAt.UTC(), p.OperatorID, nullableID(p.ShiftID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ?`
	got, err := scanPayment(tx.QueryRowContext(ctx, sel, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetForUpdateTx loads a payment with a row lock so a double cancel is
// serialized and the second attempt sees CANCELLED.
func (r *PaymentRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE id = ? FOR UPDATE`
	p, err := scanPayment(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("payment %d: %w", id, ErrPaymentNotFound)
	}
	return p, err
}

// CancelTx flips a completed payment to CANCELLED.
func (r *PaymentRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE payments SET state = ? WHERE id = ? AND state = ?`
	res, err := tx.ExecContext(ctx, q, model.PaymentCancelled, id, model.PaymentCompleted)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("payment %d: %w", id, ErrPaymentAlreadyCancelled)
	}
	return nil
}

// CompletedTotalTx sums completed payments of a session inside the
// transaction.
func (r *PaymentRepo) CompletedTotalTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE session_id = ? AND state = ?`
	var total decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, sessionID, model.PaymentCompleted).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CompletedTotal sums completed payments of a session.
func (r *PaymentRepo) CompletedTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE session_id = ? AND state = ?`
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, sessionID, model.PaymentCompleted).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// CompletedTotalBetweenTx sums completed payments whose paid_at falls
// inside [from, to), for shift reconciliation.
func (r *PaymentRepo) CompletedTotalBetweenTx(ctx context.Context, tx *sql.Tx, from, to time.Time) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE state = ? AND paid_at >= ? AND paid_at < ?`
	var total decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, model.PaymentCompleted, from.UTC(), to.UTC()).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListBySession returns a session's payments, newest first.
func (r *PaymentRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE session_id = ? ORDER BY paid_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
