package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// StockRepo is the stock collaborator: it owns products' stock counters
// and the movement ledger. A deduction decrements stock and writes its
// OUT movement in the same statement sequence, inside the caller's
// transaction, so the counter and the ledger can never diverge.
type StockRepo struct {
	db *sql.DB
}

// NewStockRepo returns a StockRepo bound to the given database.
func NewStockRepo(db *sql.DB) *StockRepo { return &StockRepo{db: db} }

const productColumns = `id, name, sale_price, stock, min_stock, is_service, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.SalePrice, &p.Stock, &p.MinStock, &p.IsService, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductForUpdateTx loads a product with a row lock so concurrent
// deductions on the same product serialize.
func (r *StockRepo) GetProductForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ? AND is_active = 1 FOR UPDATE`
	p, err := scanProduct(tx.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	return p, err
}

// DeductTx removes quantity units from a product's stock and records
// the OUT movement. Products flagged as services skip the availability
// check and keep their counter untouched by convention (the movement is
// still written for the audit trail). Insufficient stock rejects the
// whole operation with ErrInsufficientStock.
func (r *StockRepo) DeductTx(ctx context.Context, tx *sql.Tx, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
	p, err := r.GetProductForUpdateTx(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	stockAfter := p.Stock
	if !p.IsService {
		if p.Stock < quantity {
			return nil, fmt.Errorf("product %d has %d, need %d: %w", productID, p.Stock, quantity, ErrInsufficientStock)
		}
		stockAfter = p.Stock - quantity
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = ? WHERE id = ?`, stockAfter, productID); err != nil {
			return nil, err
		}
	}
	m := &model.StockMovement{
		ProductID:  productID,
		Type:       model.MovementOut,
		Quantity:   quantity,
		StockAfter: stockAfter,
		Reason:     reason,
		OperatorID: operatorID,
	}
	const ins = `INSERT INTO stock_movements (product_id, type, quantity, stock_after, reason, operator_id)
	             VALUES (?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, m.ProductID, m.Type, m.Quantity, m.StockAfter, m.Reason, m.OperatorID)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	m.ID = uint64(id)
	return m, nil
}

// LowStockTx reports whether the product sits at or below its minimum
// after the movements of this transaction. Used to decide whether a
// stock.low event should be published after commit.
func (r *StockRepo) LowStockTx(ctx context.Context, tx *sql.Tx, productID uint64) (bool, *model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = ?`
	p, err := scanProduct(tx.QueryRowContext(ctx, q, productID))
	if err != nil {
		return false, nil, err
	}
	return !p.IsService && p.Stock <= p.MinStock, p, nil
}
