package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
)

// Tx is the set of operations available inside a single database
// transaction. The engine package drives its state changes through
// this interface so its unit tests can run against an in-memory fake.
type Tx interface {
	// Tables
	GetTableForUpdate(ctx context.Context, id uint64) (*model.Table, error)
	OccupyTable(ctx context.Context, id uint64) error
	ReleaseTable(ctx context.Context, id uint64) error
	SetTableState(ctx context.Context, id uint64, state model.TableState) error

	// Rate plans
	RatePlanForTable(ctx context.Context, tableID uint64) (*model.RatePlan, error)

	// Sessions
	CreateSession(ctx context.Context, s *model.RentalSession) error
	GetSessionForUpdate(ctx context.Context, id uint64) (*model.RentalSession, error)
	CloseSession(ctx context.Context, id uint64, state model.SessionState, endedAt time.Time, rentalAmount decimal.Decimal, shiftID *uint64) error

	// Consumption
	AddConsumption(ctx context.Context, l *model.ConsumptionLine) error
	ConsumptionTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error)

	// Stock
	GetProductForUpdate(ctx context.Context, id uint64) (*model.Product, error)
	DeductStock(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error)
	LowStock(ctx context.Context, productID uint64) (bool, *model.Product, error)

	// Payments
	GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error)
	CreatePayment(ctx context.Context, p *model.Payment) error
	GetPaymentForUpdate(ctx context.Context, id uint64) (*model.Payment, error)
	CancelPayment(ctx context.Context, id uint64) error
	PaidTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error)
	PaidTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)

	// Transfers
	CreateTransfer(ctx context.Context, t *model.SessionTransfer) error

	// Cash shifts
	OpenShift(ctx context.Context, s *model.CashShift) error
	CurrentOpenShift(ctx context.Context) (*model.CashShift, error)
	GetShiftForUpdate(ctx context.Context, id uint64) (*model.CashShift, error)
	CloseShift(ctx context.Context, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error

	// Direct sales
	CreateDirectSale(ctx context.Context, s *model.DirectSale) error
	CreateDirectSaleLines(ctx context.Context, lines []model.DirectSaleLine) error
	DirectSaleTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// Store opens transactions. Everything the engine persists goes
// through InTx so a failure anywhere rolls back the whole step.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

// SQLStore is the MySQL-backed Store. It composes the per-entity
// repositories and hands their Tx variants a shared *sql.Tx.
type SQLStore struct {
	db          *sql.DB
	Tables      *TableRepo
	RatePlans   *RatePlanRepo
	Sessions    *SessionRepo
	Consumption *ConsumptionRepo
	Stock       *StockRepo
	Payments    *PaymentRepo
	Transfers   *TransferRepo
	Shifts      *ShiftRepo
	Sales       *DirectSaleRepo
}

// NewSQLStore builds the store and all entity repositories over one
// database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		db:          db,
		Tables:      NewTableRepo(db),
		RatePlans:   NewRatePlanRepo(db),
		Sessions:    NewSessionRepo(db),
		Consumption: NewConsumptionRepo(db),
		Stock:       NewStockRepo(db),
		Payments:    NewPaymentRepo(db),
		Transfers:   NewTransferRepo(db),
		Shifts:      NewShiftRepo(db),
		Sales:       NewDirectSaleRepo(db),
	}
}

// InTx runs fn inside a transaction, committing on success and
// rolling back on error or panic.
func (s *SQLStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(&sqlTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// sqlTx adapts one *sql.Tx to the Tx interface by delegating to the
// repositories' Tx methods.
type sqlTx struct {
	tx    *sql.Tx
	store *SQLStore
}

func (t *sqlTx) GetTableForUpdate(ctx context.Context, id uint64) (*model.Table, error) {
	return t.store.Tables.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) OccupyTable(ctx context.Context, id uint64) error {
	return t.store.Tables.OccupyTx(ctx, t.tx, id)
}

func (t *sqlTx) ReleaseTable(ctx context.Context, id uint64) error {
	return t.store.Tables.ReleaseTx(ctx, t.tx, id)
}

func (t *sqlTx) SetTableState(ctx context.Context, id uint64, state model.TableState) error {
	return t.store.Tables.SetStateTx(ctx, t.tx, id, state)
}

func (t *sqlTx) RatePlanForTable(ctx context.Context, tableID uint64) (*model.RatePlan, error) {
	return t.store.RatePlans.GetForTableTx(ctx, t.tx, tableID)
}

func (t *sqlTx) CreateSession(ctx context.Context, s *model.RentalSession) error {
	return t.store.Sessions.CreateTx(ctx, t.tx, s)
}

func (t *sqlTx) GetSessionForUpdate(ctx context.Context, id uint64) (*model.RentalSession, error) {
	return t.store.Sessions.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) CloseSession(ctx context.Context, id uint64, state model.SessionState, endedAt time.Time, rentalAmount decimal.Decimal, shiftID *uint64) error {
	return t.store.Sessions.CloseTx(ctx, t.tx, id, state, endedAt, rentalAmount, shiftID)
}

func (t *sqlTx) AddConsumption(ctx context.Context, l *model.ConsumptionLine) error {
	return t.store.Consumption.CreateTx(ctx, t.tx, l)
}

func (t *sqlTx) ConsumptionTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	return t.store.Consumption.TotalTx(ctx, t.tx, sessionID)
}

func (t *sqlTx) GetProductForUpdate(ctx context.Context, id uint64) (*model.Product, error) {
	return t.store.Stock.GetProductForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) DeductStock(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
	return t.store.Stock.DeductTx(ctx, t.tx, productID, quantity, reason, operatorID)
}

func (t *sqlTx) LowStock(ctx context.Context, productID uint64) (bool, *model.Product, error) {
	return t.store.Stock.LowStockTx(ctx, t.tx, productID)
}

func (t *sqlTx) GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
	return t.store.Payments.GetMethodTx(ctx, t.tx, id)
}

func (t *sqlTx) CreatePayment(ctx context.Context, p *model.Payment) error {
	return t.store.Payments.CreateTx(ctx, t.tx, p)
}

func (t *sqlTx) GetPaymentForUpdate(ctx context.Context, id uint64) (*model.Payment, error) {
	return t.store.Payments.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) CancelPayment(ctx context.Context, id uint64) error {
	return t.store.Payments.CancelTx(ctx, t.tx, id)
}

func (t *sqlTx) PaidTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	return t.store.Payments.CompletedTotalTx(ctx, t.tx, sessionID)
}

func (t *sqlTx) PaidTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return t.store.Payments.CompletedTotalBetweenTx(ctx, t.tx, from, to)
}

func (t *sqlTx) CreateTransfer(ctx context.Context, tr *model.SessionTransfer) error {
	return t.store.Transfers.CreateTx(ctx, t.tx, tr)
}

func (t *sqlTx) OpenShift(ctx context.Context, s *model.CashShift) error {
	return t.store.Shifts.OpenTx(ctx, t.tx, s)
}

func (t *sqlTx) CurrentOpenShift(ctx context.Context) (*model.CashShift, error) {
	return t.store.Shifts.CurrentOpenTx(ctx, t.tx)
}

func (t *sqlTx) GetShiftForUpdate(ctx context.Context, id uint64) (*model.CashShift, error) {
	return t.store.Shifts.GetForUpdateTx(ctx, t.tx, id)
}

func (t *sqlTx) CloseShift(ctx context.Context, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error {
	return t.store.Shifts.CloseTx(ctx, t.tx, id, closedAt, counted, salesTotal, discrepancy, closedBy, notes)
}

func (t *sqlTx) CreateDirectSale(ctx context.Context, s *model.DirectSale) error {
	return t.store.Sales.CreateTx(ctx, t.tx, s)
}

func (t *sqlTx) CreateDirectSaleLines(ctx context.Context, lines []model.DirectSaleLine) error {
	return t.store.Sales.CreateLinesTx(ctx, t.tx, lines)
}

func (t *sqlTx) DirectSaleTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	return t.store.Sales.CompletedTotalBetweenTx(ctx, t.tx, from, to)
}
