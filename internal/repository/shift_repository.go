package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// ShiftRepo provides persistence for cash shifts. The single-open-shift
// invariant is enforced twice: a locked existence probe inside the
// opening transaction and a partial unique index on the open flag in
// the schema, so a race can never leave two drawers open.
type ShiftRepo struct {
	db *sql.DB
}

// NewShiftRepo returns a ShiftRepo bound to the given database.
func NewShiftRepo(db *sql.DB) *ShiftRepo { return &ShiftRepo{db: db} }

const shiftColumns = `id, opened_at, closed_at, opening_float, counted_amount, sales_total, discrepancy,
	opened_by, closed_by, notes, is_active, created_at, updated_at`

func scanShift(row interface{ Scan(...interface{}) error }) (*model.CashShift, error) {
	var (
		s        model.CashShift
		closedAt sql.NullTime
		counted  sql.NullString
		closedBy sql.NullInt64
		notes    sql.NullString
	)
	err := row.Scan(&s.ID, &s.OpenedAt, &closedAt, &s.OpeningFloat, &counted, &s.SalesTotal, &s.Discrepancy,
		&s.OpenedBy, &closedBy, &notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		s.ClosedAt = &t
	}
	if counted.Valid {
		d, derr := decimal.NewFromString(counted.String)
		if derr != nil {
			return nil, derr
		}
		s.CountedAmount = &d
	}
	if closedBy.Valid {
		v := uint64(closedBy.Int64)
		s.ClosedBy = &v
	}
	if notes.Valid {
		v := notes.String
		s.Notes = &v
	}
	return &s, nil
}

// OpenTx creates a new open shift. It first probes for an existing open
// shift under a row lock and fails with ErrShiftAlreadyOpen when one
// exists.
func (r *ShiftRepo) OpenTx(ctx context.Context, tx *sql.Tx, s *model.CashShift) error {
	var openID uint64
	err := tx.QueryRowContext(ctx, `SELECT id FROM cash_shifts WHERE closed_at IS NULL LIMIT 1 FOR UPDATE`).Scan(&openID)
	switch {
	case err == nil:
		return fmt.Errorf("shift %d is open: %w", openID, ErrShiftAlreadyOpen)
	case err != sql.ErrNoRows:
		return err
	}
	const q = `INSERT INTO cash_shifts (opened_at, opening_float, sales_total, discrepancy, opened_by, notes, is_active)
	           VALUES (?, ?, 0, 0, ?, ?, 1)`
	res, err := tx.ExecContext(ctx, q, s.OpenedAt.UTC(), s.OpeningFloat, s.OpenedBy, nullableString(s.Notes))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + shiftColumns + ` FROM cash_shifts WHERE id = ?`
	got, err := scanShift(tx.QueryRowContext(ctx, sel, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// CurrentOpenTx returns the open shift with a row lock, or nil when the
// drawer is closed. Payment and sale creation use this to resolve their
// owning shift at write time.
func (r *ShiftRepo) CurrentOpenTx(ctx context.Context, tx *sql.Tx) (*model.CashShift, error) {
	const q = `SELECT ` + shiftColumns + ` FROM cash_shifts WHERE closed_at IS NULL LIMIT 1 FOR UPDATE`
	s, err := scanShift(tx.QueryRowContext(ctx, q))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// GetForUpdateTx loads a shift with a row lock.
func (r *ShiftRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.CashShift, error) {
	const q = `SELECT ` + shiftColumns + ` FROM cash_shifts WHERE id = ? FOR UPDATE`
	s, err := scanShift(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shift %d: %w", id, ErrShiftNotFound)
	}
	return s, err
}

// GetByID returns a shift by ID.
func (r *ShiftRepo) GetByID(ctx context.Context, id uint64) (*model.CashShift, error) {
	const q = `SELECT ` + shiftColumns + ` FROM cash_shifts WHERE id = ?`
	s, err := scanShift(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("shift %d: %w", id, ErrShiftNotFound)
	}
	return s, err
}

// CloseTx persists the closing snapshot of a shift. The WHERE clause
// re-checks that the shift is still open so a racing close loses with
// ErrShiftClosed.
func (r *ShiftRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error {
	const q = `UPDATE cash_shifts
	           SET closed_at = ?, counted_amount = ?, sales_total = ?, discrepancy = ?, closed_by = ?, notes = ?
	           WHERE id = ? AND closed_at IS NULL`
	res, err := tx.ExecContext(ctx, q, closedAt.UTC(), counted, salesTotal, discrepancy, closedBy, nullableString(notes), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("shift %d: %w", id, ErrShiftClosed)
	}
	return nil
}
