package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// RatePlanRepo provides persistence for billing policies. Plans stay
// editable; historical sessions are unaffected because they snapshot
// the amount they were billed.
type RatePlanRepo struct {
	db *sql.DB
}

// NewRatePlanRepo returns a RatePlanRepo bound to the given database.
func NewRatePlanRepo(db *sql.DB) *RatePlanRepo { return &RatePlanRepo{db: db} }

const ratePlanColumns = `id, name, price_per_hour, price_per_block, block_minutes, default_mode, is_active, created_at, updated_at`

func scanRatePlan(row interface{ Scan(...interface{}) error }) (*model.RatePlan, error) {
	var p model.RatePlan
	if err := row.Scan(&p.ID, &p.Name, &p.PricePerHour, &p.PricePerBlock, &p.BlockMinutes, &p.DefaultMode, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a plan and populates its generated ID and timestamps.
func (r *RatePlanRepo) Create(ctx context.Context, p *model.RatePlan) error {
	const q = `INSERT INTO rate_plans (name, price_per_hour, price_per_block, block_minutes, default_mode, is_active)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.PricePerHour, p.PricePerBlock, p.BlockMinutes, p.DefaultMode, p.IsActive)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE id = ?`
	got, err := scanRatePlan(r.db.QueryRowContext(ctx, sel, p.ID))
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// GetByID returns a plan by ID.
func (r *RatePlanRepo) GetByID(ctx context.Context, id uint64) (*model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE id = ?`
	p, err := scanRatePlan(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rate plan %d: %w", id, ErrRatePlanNotFound)
	}
	return p, err
}

// GetForTableTx loads the active plan referenced by a table, inside the
// transaction pricing a session.
func (r *RatePlanRepo) GetForTableTx(ctx context.Context, tx *sql.Tx, tableID uint64) (*model.RatePlan, error) {
	const q = `SELECT p.id, p.name, p.price_per_hour, p.price_per_block, p.block_minutes, p.default_mode, p.is_active, p.created_at, p.updated_at
	           FROM rate_plans p
	           JOIN tables t ON t.rate_plan_id = p.id
	           WHERE t.id = ? AND p.is_active = 1`
	p, err := scanRatePlan(tx.QueryRowContext(ctx, q, tableID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table %d: %w", tableID, ErrRatePlanNotFound)
	}
	return p, err
}

// List returns all active plans ordered by name.
func (r *RatePlanRepo) List(ctx context.Context) ([]model.RatePlan, error) {
	const q = `SELECT ` + ratePlanColumns + ` FROM rate_plans WHERE is_active = 1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	plans := make([]model.RatePlan, 0)
	for rows.Next() {
		p, err := scanRatePlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}
