package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// DirectSaleRepo provides persistence for retail sales that have no
// table session behind them. The cash drawer manager reads their
// completed totals when reconciling a shift.
type DirectSaleRepo struct {
	db *sql.DB
}

// NewDirectSaleRepo returns a DirectSaleRepo bound to the database.
func NewDirectSaleRepo(db *sql.DB) *DirectSaleRepo { return &DirectSaleRepo{db: db} }

const saleColumns = `id, ticket_code, customer_id, operator_id, sold_at, subtotal, discount, total,
	method_id, reference, state, notes, shift_id, created_at, updated_at`

func scanSale(row interface{ Scan(...interface{}) error }) (*model.DirectSale, error) {
	var (
		s          model.DirectSale
		customerID sql.NullInt64
		reference  sql.NullString
		notes      sql.NullString
		shiftID    sql.NullInt64
	)
	err := row.Scan(&s.ID, &s.TicketCode, &customerID, &s.OperatorID, &s.SoldAt, &s.Subtotal, &s.Discount, &s.Total,
		&s.MethodID, &reference, &s.State, &notes, &shiftID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		v := uint64(customerID.Int64)
		s.CustomerID = &v
	}
	if reference.Valid {
		v := reference.String
		s.Reference = &v
	}
	if notes.Valid {
		v := notes.String
		s.Notes = &v
	}
	if shiftID.Valid {
		v := uint64(shiftID.Int64)
		s.ShiftID = &v
	}
	return &s, nil
}

// CreateTx inserts a sale header within the transaction and populates
// its generated ID and timestamps.
func (r *DirectSaleRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.DirectSale) error {
	const q = `INSERT INTO direct_sales
	    (ticket_code, customer_id, operator_id, sold_at, subtotal, discount, total, method_id, reference, state, notes, shift_id)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, s.TicketCode, nullableID(s.CustomerID), s.OperatorID, s.SoldAt.UTC(),
		s.Subtotal, s.Discount, s.Total, s.MethodID, nullableString(s.Reference), s.State, nullableString(s.Notes), nullableID(s.ShiftID))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT ` + saleColumns + ` FROM direct_sales WHERE id = ?`
	got, err := scanSale(tx.QueryRowContext(ctx, sel, s.ID))
	if err != nil {
		return err
	}
	*s = *got
	return nil
}

// CreateLinesTx inserts the sale's lines in a single statement.
func (r *DirectSaleRepo) CreateLinesTx(ctx context.Context, tx *sql.Tx, lines []model.DirectSaleLine) error {
	if len(lines) == 0 {
		return nil
	}
	query := `INSERT INTO direct_sale_lines (sale_id, product_id, quantity, unit_price, subtotal) VALUES `
	args := make([]interface{}, 0, len(lines)*5)
	for i, l := range lines {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, l.SaleID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID returns a sale header by ID.
func (r *DirectSaleRepo) GetByID(ctx context.Context, id uint64) (*model.DirectSale, error) {
	const q = `SELECT ` + saleColumns + ` FROM direct_sales WHERE id = ?`
	s, err := scanSale(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale %d: %w", id, ErrSaleNotFound)
	}
	return s, err
}

// ListLines returns the lines of a sale in insertion order.
func (r *DirectSaleRepo) ListLines(ctx context.Context, saleID uint64) ([]model.DirectSaleLine, error) {
	const q = `SELECT id, sale_id, product_id, quantity, unit_price, subtotal, created_at
	           FROM direct_sale_lines WHERE sale_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]model.DirectSaleLine, 0)
	for rows.Next() {
		var l model.DirectSaleLine
		if err := rows.Scan(&l.ID, &l.SaleID, &l.ProductID, &l.Quantity, &l.UnitPrice, &l.Subtotal, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// CompletedTotalBetweenTx sums completed sale totals whose sold_at
// falls inside [from, to), recomputing each total from its lines
// rather than trusting the cached columns.
func (r *DirectSaleRepo) CompletedTotalBetweenTx(ctx context.Context, tx *sql.Tx, from, to time.Time) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(l.subtotal), 0)
	           FROM direct_sale_lines l
	           JOIN direct_sales s ON s.id = l.sale_id
	           WHERE s.state = ? AND s.sold_at >= ? AND s.sold_at < ?`
	var lineTotal decimal.Decimal
	if err := tx.QueryRowContext(ctx, q, model.SaleCompleted, from.UTC(), to.UTC()).Scan(&lineTotal); err != nil {
		return decimal.Zero, err
	}
	const dq = `SELECT COALESCE(SUM(discount), 0) FROM direct_sales WHERE state = ? AND sold_at >= ? AND sold_at < ?`
	var discounts decimal.Decimal
	if err := tx.QueryRowContext(ctx, dq, model.SaleCompleted, from.UTC(), to.UTC()).Scan(&discounts); err != nil {
		return decimal.Zero, err
	}
	return lineTotal.Sub(discounts), nil
}
