package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// SessionRepo provides persistence for rental sessions. All writes that
// change the state machine happen through Tx methods so the engine can
// commit them together with the table occupancy they imply.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo returns a SessionRepo bound to the given database.
func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{db: db} }

const sessionColumns = `id, table_id, customer_id, operator_id, started_at, ended_at, scheduled_end_at,
	mode, allotted_minutes, rental_amount, discount, state, prev_table_id, shift_id, created_at, updated_at`

func scanSession(row interface{ Scan(...interface{}) error }) (*model.RentalSession, error) {
	var (
		s          model.RentalSession
		customerID sql.NullInt64
		endedAt    sql.NullTime
		schedEnd   sql.NullTime
		prevTable  sql.NullInt64
		shiftID    sql.NullInt64
	)
	err := row.Scan(
		&s.ID, &s.TableID, &customerID, &s.OperatorID, &s.StartedAt, &endedAt, &schedEnd,
		&s.Mode, &s.AllottedMinutes, &s.RentalAmount, &s.Discount, &s.State, &prevTable, &shiftID,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		v := uint64(customerID.Int64)
		s.CustomerID = &v
	}
	if endedAt.Valid {
		t := endedAt.Time
		s.EndedAt = &t
	}
	if schedEnd.Valid {
		t := schedEnd.Time
		s.ScheduledEndAt = &t
	}
	if prevTable.Valid {
		v := uint64(prevTable.Int64)
		s.PrevTableID = &v
	}
	if shiftID.Valid {
		v := uint64(shiftID.Int64)
		s.ShiftID = &v
	}
	return &s, nil
}

// CreateTx inserts a new session within the transaction and populates
// its generated ID and timestamps.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.RentalSession) error {
	const q = `INSERT INTO rental_sessions
	    (table_id, customer_id, operator_id, started_at, scheduled_end_at, mode, allotted_minutes,
	     rental_amount, discount, state, prev_table_id)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		s.TableID, nullableID(s.CustomerID), s.OperatorID, s.StartedAt.UTC(), nullableTime(s.ScheduledEndAt),
		s.Mode, s.AllottedMinutes, s.RentalAmount, s.Discount, s.State, nullableID(s.PrevTableID),
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE id = ?`
	got, err := scanSession(tx.QueryRowContext(ctx, sel, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// GetByID returns a session by ID.
func (r *SessionRepo) GetByID(ctx context.Context, id uint64) (*model.RentalSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE id = ?`
	s, err := scanSession(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d: %w", id, ErrSessionNotFound)
	}
	return s, err
}

// GetForUpdateTx loads a session with a row lock, serializing
// consumption adds against finalize, cancel and transfer.
func (r *SessionRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.RentalSession, error) {
	const q = `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE id = ? FOR UPDATE`
	s, err := scanSession(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %d: %w", id, ErrSessionNotFound)
	}
	return s, err
}

// CloseTx moves an active session to a terminal state, fixing its end
// timestamp, final rental amount and owning shift. The WHERE clause
// re-checks ACTIVE so a racing close loses cleanly.
func (r *SessionRepo) CloseTx(ctx context.Context, tx *sql.Tx, id uint64, state model.SessionState, endedAt time.Time, rentalAmount decimal.Decimal, shiftID *uint64) error {
	const q = `UPDATE rental_sessions
	           SET state = ?, ended_at = ?, rental_amount = ?, shift_id = ?
	           WHERE id = ? AND state = ?`
	res, err := tx.ExecContext(ctx, q, state, endedAt.UTC(), rentalAmount, nullableID(shiftID), id, model.SessionActive)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %d: %w", id, ErrSessionNotActive)
	}
	return nil
}

// ListByTable returns the sessions of a table, newest first.
func (r *SessionRepo) ListByTable(ctx context.Context, tableID uint64, limit int) ([]model.RentalSession, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT ` + sessionColumns + ` FROM rental_sessions WHERE table_id = ? ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, tableID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sessions := make([]model.RentalSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

func nullableID(v *uint64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
