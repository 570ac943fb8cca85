package engine

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// fakeTx implements repository.Tx with one func field per method so
// each test wires exactly the calls it expects. An unwired call
// panics, which surfaces as a test failure naming the method.
type fakeTx struct {
	GetTableForUpdateFn      func(ctx context.Context, id uint64) (*model.Table, error)
	OccupyTableFn            func(ctx context.Context, id uint64) error
	ReleaseTableFn           func(ctx context.Context, id uint64) error
	SetTableStateFn          func(ctx context.Context, id uint64, state model.TableState) error
	RatePlanForTableFn       func(ctx context.Context, tableID uint64) (*model.RatePlan, error)
	CreateSessionFn          func(ctx context.Context, s *model.RentalSession) error
	GetSessionForUpdateFn    func(ctx context.Context, id uint64) (*model.RentalSession, error)
	CloseSessionFn           func(ctx context.Context, id uint64, state model.SessionState, endedAt time.Time, rentalAmount decimal.Decimal, shiftID *uint64) error
	AddConsumptionFn         func(ctx context.Context, l *model.ConsumptionLine) error
	ConsumptionTotalFn       func(ctx context.Context, sessionID uint64) (decimal.Decimal, error)
	GetProductForUpdateFn    func(ctx context.Context, id uint64) (*model.Product, error)
	DeductStockFn            func(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error)
	LowStockFn               func(ctx context.Context, productID uint64) (bool, *model.Product, error)
	GetPaymentMethodFn       func(ctx context.Context, id uint64) (*model.PaymentMethod, error)
	CreatePaymentFn          func(ctx context.Context, p *model.Payment) error
	GetPaymentForUpdateFn    func(ctx context.Context, id uint64) (*model.Payment, error)
	CancelPaymentFn          func(ctx context.Context, id uint64) error
	PaidTotalFn              func(ctx context.Context, sessionID uint64) (decimal.Decimal, error)
	PaidTotalBetweenFn       func(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
	CreateTransferFn         func(ctx context.Context, t *model.SessionTransfer) error
	OpenShiftFn              func(ctx context.Context, s *model.CashShift) error
	CurrentOpenShiftFn       func(ctx context.Context) (*model.CashShift, error)
	GetShiftForUpdateFn      func(ctx context.Context, id uint64) (*model.CashShift, error)
	CloseShiftFn             func(ctx context.Context, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error
	CreateDirectSaleFn       func(ctx context.Context, s *model.DirectSale) error
	CreateDirectSaleLinesFn  func(ctx context.Context, lines []model.DirectSaleLine) error
	DirectSaleTotalBetweenFn func(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

func (f *fakeTx) GetTableForUpdate(ctx context.Context, id uint64) (*model.Table, error) {
	if f.GetTableForUpdateFn == nil {
		panic("unexpected call: GetTableForUpdate")
	}
	return f.GetTableForUpdateFn(ctx, id)
}

func (f *fakeTx) OccupyTable(ctx context.Context, id uint64) error {
	if f.OccupyTableFn == nil {
		panic("unexpected call: OccupyTable")
	}
	return f.OccupyTableFn(ctx, id)
}

func (f *fakeTx) ReleaseTable(ctx context.Context, id uint64) error {
	if f.ReleaseTableFn == nil {
		panic("unexpected call: ReleaseTable")
	}
	return f.ReleaseTableFn(ctx, id)
}

func (f *fakeTx) SetTableState(ctx context.Context, id uint64, state model.TableState) error {
	if f.SetTableStateFn == nil {
		panic("unexpected call: SetTableState")
	}
	return f.SetTableStateFn(ctx, id, state)
}

func (f *fakeTx) RatePlanForTable(ctx context.Context, tableID uint64) (*model.RatePlan, error) {
	if f.RatePlanForTableFn == nil {
		panic("unexpected call: RatePlanForTable")
	}
	return f.RatePlanForTableFn(ctx, tableID)
}

func (f *fakeTx) CreateSession(ctx context.Context, s *model.RentalSession) error {
	if f.CreateSessionFn == nil {
		panic("unexpected call: CreateSession")
	}
	return f.CreateSessionFn(ctx, s)
}

func (f *fakeTx) GetSessionForUpdate(ctx context.Context, id uint64) (*model.RentalSession, error) {
	if f.GetSessionForUpdateFn == nil {
		panic("unexpected call: GetSessionForUpdate")
	}
	return f.GetSessionForUpdateFn(ctx, id)
}

func (f *fakeTx) CloseSession(ctx context.Context, id uint64, state model.SessionState, endedAt time.Time, rentalAmount decimal.Decimal, shiftID *uint64) error {
	if f.CloseSessionFn == nil {
		panic("unexpected call: CloseSession")
	}
	return f.CloseSessionFn(ctx, id, state, endedAt, rentalAmount, shiftID)
}

func (f *fakeTx) AddConsumption(ctx context.Context, l *model.ConsumptionLine) error {
	if f.AddConsumptionFn == nil {
		panic("unexpected call: AddConsumption")
	}
	return f.AddConsumptionFn(ctx, l)
}

func (f *fakeTx) ConsumptionTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	if f.ConsumptionTotalFn == nil {
		panic("unexpected call: ConsumptionTotal")
	}
	return f.ConsumptionTotalFn(ctx, sessionID)
}

func (f *fakeTx) GetProductForUpdate(ctx context.Context, id uint64) (*model.Product, error) {
	if f.GetProductForUpdateFn == nil {
		panic("unexpected call: GetProductForUpdate")
	}
	return f.GetProductForUpdateFn(ctx, id)
}

func (f *fakeTx) DeductStock(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
	if f.DeductStockFn == nil {
		panic("unexpected call: DeductStock")
	}
	return f.DeductStockFn(ctx, productID, quantity, reason, operatorID)
}

func (f *fakeTx) LowStock(ctx context.Context, productID uint64) (bool, *model.Product, error) {
	if f.LowStockFn == nil {
		panic("unexpected call: LowStock")
	}
	return f.LowStockFn(ctx, productID)
}

func (f *fakeTx) GetPaymentMethod(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
	if f.GetPaymentMethodFn == nil {
		panic("unexpected call: GetPaymentMethod")
	}
	return f.GetPaymentMethodFn(ctx, id)
}

func (f *fakeTx) CreatePayment(ctx context.Context, p *model.Payment) error {
	if f.CreatePaymentFn == nil {
		panic("unexpected call: CreatePayment")
	}
	return f.CreatePaymentFn(ctx, p)
}

func (f *fakeTx) GetPaymentForUpdate(ctx context.Context, id uint64) (*model.Payment, error) {
	if f.GetPaymentForUpdateFn == nil {
		panic("unexpected call: GetPaymentForUpdate")
	}
	return f.GetPaymentForUpdateFn(ctx, id)
}

func (f *fakeTx) CancelPayment(ctx context.Context, id uint64) error {
	if f.CancelPaymentFn == nil {
		panic("unexpected call: CancelPayment")
	}
	return f.CancelPaymentFn(ctx, id)
}

func (f *fakeTx) PaidTotal(ctx context.Context, sessionID uint64) (decimal.Decimal, error) {
	if f.PaidTotalFn == nil {
		panic("unexpected call: PaidTotal")
	}
	return f.PaidTotalFn(ctx, sessionID)
}

func (f *fakeTx) PaidTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	if f.PaidTotalBetweenFn == nil {
		panic("unexpected call: PaidTotalBetween")
	}
	return f.PaidTotalBetweenFn(ctx, from, to)
}

func (f *fakeTx) CreateTransfer(ctx context.Context, t *model.SessionTransfer) error {
	if f.CreateTransferFn == nil {
		panic("unexpected call: CreateTransfer")
	}
	return f.CreateTransferFn(ctx, t)
}

func (f *fakeTx) OpenShift(ctx context.Context, s *model.CashShift) error {
	if f.OpenShiftFn == nil {
		panic("unexpected call: OpenShift")
	}
	return f.OpenShiftFn(ctx, s)
}

func (f *fakeTx) CurrentOpenShift(ctx context.Context) (*model.CashShift, error) {
	if f.CurrentOpenShiftFn == nil {
		panic("unexpected call: CurrentOpenShift")
	}
	return f.CurrentOpenShiftFn(ctx)
}

func (f *fakeTx) GetShiftForUpdate(ctx context.Context, id uint64) (*model.CashShift, error) {
	if f.GetShiftForUpdateFn == nil {
		panic("unexpected call: GetShiftForUpdate")
	}
	return f.GetShiftForUpdateFn(ctx, id)
}

func (f *fakeTx) CloseShift(ctx context.Context, id uint64, closedAt time.Time, counted, salesTotal, discrepancy decimal.Decimal, closedBy uint64, notes *string) error {
	if f.CloseShiftFn == nil {
		panic("unexpected call: CloseShift")
	}
	return f.CloseShiftFn(ctx, id, closedAt, counted, salesTotal, discrepancy, closedBy, notes)
}

func (f *fakeTx) CreateDirectSale(ctx context.Context, s *model.DirectSale) error {
	if f.CreateDirectSaleFn == nil {
		panic("unexpected call: CreateDirectSale")
	}
	return f.CreateDirectSaleFn(ctx, s)
}

func (f *fakeTx) CreateDirectSaleLines(ctx context.Context, lines []model.DirectSaleLine) error {
	if f.CreateDirectSaleLinesFn == nil {
		panic("unexpected call: CreateDirectSaleLines")
	}
	return f.CreateDirectSaleLinesFn(ctx, lines)
}

func (f *fakeTx) DirectSaleTotalBetween(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	if f.DirectSaleTotalBetweenFn == nil {
		panic("unexpected call: DirectSaleTotalBetween")
	}
	return f.DirectSaleTotalBetweenFn(ctx, from, to)
}

// fakeStore runs the transaction function against a fakeTx. There is
// no commit/rollback distinction; the test asserts on what was called.
type fakeStore struct {
	tx *fakeTx
}

func (s *fakeStore) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return fn(s.tx)
}

// fixedClock returns a Clock pinned to t.
func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
