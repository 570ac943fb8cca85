package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// TableRepo provides persistence for billiard tables. Occupancy
// transitions that guard against double-booking are expressed as
// conditional UPDATEs so that two racing transactions cannot both
// observe FREE and both occupy the same table.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, name, code, rate_plan_id, state, is_active, created_at, updated_at`

func scanTable(row interface{ Scan(...interface{}) error }) (*model.Table, error) {
	var t model.Table
	if err := row.Scan(&t.ID, &t.Name, &t.Code, &t.RatePlanID, &t.State, &t.IsActive, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID returns a table by ID regardless of its active flag.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table %d: %w", id, ErrTableNotFound)
	}
	return t, err
}

// List returns all tables ordered by name. Inactive tables are
// included so the floor plan can show them greyed out.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// ListAvailable returns active tables currently in the FREE state.
func (r *TableRepo) ListAvailable(ctx context.Context) ([]model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE state = ? AND is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, model.TableFree)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

// GetForUpdateTx loads a table inside the transaction with a row lock,
// serializing concurrent session operations on the same table.
func (r *TableRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ? FOR UPDATE`
	t, err := scanTable(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table %d: %w", id, ErrTableNotFound)
	}
	return t, err
}

// OccupyTx flips an active, FREE table to OCCUPIED. The compare-and-set
// fails with ErrTableBusy when the table is in any other state, which
// is how exactly one of two racing open() calls wins.
func (r *TableRepo) OccupyTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE tables SET state = ? WHERE id = ? AND state = ? AND is_active = 1`
	res, err := tx.ExecContext(ctx, q, model.TableOccupied, id, model.TableFree)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Distinguish a busy table from a missing one for the caller.
		t, gerr := r.GetForUpdateTx(ctx, tx, id)
		if gerr != nil {
			return gerr
		}
		if !t.IsActive {
			return fmt.Errorf("table %d: %w", id, ErrTableNotFound)
		}
		return fmt.Errorf("table %d is %s: %w", id, t.State, ErrTableBusy)
	}
	return nil
}

// ReleaseTx sets a table back to FREE. It errors when the table does
// not exist; releasing an already-free table is a no-op.
func (r *TableRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const q = `UPDATE tables SET state = ? WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, model.TableFree, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// RowsAffected is 0 both for a missing row and for an untouched
		// one; probe existence to tell them apart.
		var exists uint64
		if serr := tx.QueryRowContext(ctx, `SELECT id FROM tables WHERE id = ?`, id).Scan(&exists); serr == sql.ErrNoRows {
			return fmt.Errorf("table %d: %w", id, ErrTableNotFound)
		} else if serr != nil {
			return serr
		}
	}
	return nil
}

// SetStateTx applies an administrative state override (for example
// MAINTENANCE). Forcing a table FREE while it still carries an active
// session is refused with ErrTableBusy; that transition must go through
// session finalize, cancel or transfer.
func (r *TableRepo) SetStateTx(ctx context.Context, tx *sql.Tx, id uint64, state model.TableState) error {
	if state == model.TableFree {
		var sessionID uint64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM rental_sessions WHERE table_id = ? AND state = ? LIMIT 1 FOR UPDATE`,
			id, model.SessionActive,
		).Scan(&sessionID)
		switch {
		case err == nil:
			return fmt.Errorf("table %d has active session %d: %w", id, sessionID, ErrTableBusy)
		case err != sql.ErrNoRows:
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `UPDATE tables SET state = ? WHERE id = ?`, state, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		var exists uint64
		if serr := tx.QueryRowContext(ctx, `SELECT id FROM tables WHERE id = ?`, id).Scan(&exists); serr == sql.ErrNoRows {
			return fmt.Errorf("table %d: %w", id, ErrTableNotFound)
		} else if serr != nil {
			return serr
		}
	}
	return nil
}
