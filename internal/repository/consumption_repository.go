package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// ConsumptionRepo provides persistence for consumption lines. Lines are
// append-only; the session's consumption total is always aggregated
// from line subtotals rather than read from a cached column.
type ConsumptionRepo struct {
	db *sql.DB
}

// NewConsumptionRepo returns a ConsumptionRepo bound to the database.
func NewConsumptionRepo(db *sql.DB) *ConsumptionRepo { return &ConsumptionRepo{db: db} }

// CreateTx appends a line within the transaction and populates its
// generated ID and timestamp.
func (r *ConsumptionRepo) CreateTx(ctx context.Context, tx *sql.Tx, l *model.ConsumptionLine) error {
	const q = `INSERT INTO consumption_lines (session_id, product_id, quantity, unit_price, subtotal, operator_id)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, l.SessionID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal, l.OperatorID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	l.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM consumption_lines WHERE id = ?`, l.ID).Scan(&l.CreatedAt)
}

// TotalTx sums the line subtotals of a session inside the transaction.
func (r *ConsumptionRepo) TotalTx(ctx context.Context, tx *sql.Tx, sessionID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(subtotal), 0) FROM consumption_lines WHERE session_id = ?`
	var total decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, sessionID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// Total sums the line subtotals of a session.
func (r *ConsumptionRepo) Total(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(subtotal), 0) FROM consumption_lines WHERE session_id = ?`
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListBySession returns the lines of a session in insertion order.
func (r *ConsumptionRepo) ListBySession(ctx context.Context, sessionID uint64) ([]model.ConsumptionLine, error) {
	const q = `SELECT id, session_id, product_id, quantity, unit_price, subtotal, operator_id, created_at
	           FROM consumption_lines WHERE session_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]model.ConsumptionLine, 0)
	for rows.Next() {
		var l model.ConsumptionLine
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.OperatorID, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
