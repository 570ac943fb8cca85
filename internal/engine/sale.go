package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/queue"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// DirectSaleService sells products over the counter with no table
// session behind them. Stock is deducted in the same transaction that
// writes the sale, and completed sales feed shift reconciliation.
type DirectSaleService struct {
	store repository.Store
	pub   Publisher
	now   Clock
}

// NewDirectSaleService builds a DirectSaleService. pub may be nil,
// which disables event publishing.
func NewDirectSaleService(store repository.Store, pub Publisher, now Clock) *DirectSaleService {
	if now == nil {
		now = UTCNow
	}
	return &DirectSaleService{store: store, pub: pub, now: now}
}

// SaleLineInput is one product position requested for a sale. The unit
// price always comes from the product catalog, never from the caller.
type SaleLineInput struct {
	ProductID uint64
	Quantity  int
}

// CreateSaleInput carries the parameters for a direct sale.
type CreateSaleInput struct {
	Lines      []SaleLineInput
	Discount   decimal.Decimal
	MethodID   uint64
	Reference  *string
	CustomerID *uint64
	OperatorID uint64
	Notes      *string
}

// CreateSale writes a completed sale with its lines, deducting stock
// per line with one OUT movement each. Totals are recomputed from the
// line subtotals; the discount may not exceed the subtotal. A sale with
// no lines, a non-positive quantity or a negative discount is rejected
// with ErrInvalidAmount, and short stock on any line aborts the whole
// sale.
func (d *DirectSaleService) CreateSale(ctx context.Context, in CreateSaleInput) (*model.DirectSale, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("sale needs at least one line: %w", repository.ErrInvalidAmount)
	}
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive, got %d: %w", l.Quantity, repository.ErrInvalidAmount)
		}
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("discount must not be negative: %w", repository.ErrInvalidAmount)
	}

	var (
		sale      *model.DirectSale
		lowEvents []queue.StockLowEvent
	)
	err := d.store.InTx(ctx, func(tx repository.Tx) error {
		m, err := tx.GetPaymentMethod(ctx, in.MethodID)
		if err != nil {
			return err
		}
		if m.RequiresReference && (in.Reference == nil || strings.TrimSpace(*in.Reference) == "") {
			return fmt.Errorf("method %q requires a reference: %w", m.Name, repository.ErrReferenceRequired)
		}

		now := d.now()
		lines := make([]model.DirectSaleLine, 0, len(in.Lines))
		for _, req := range in.Lines {
			p, err := tx.GetProductForUpdate(ctx, req.ProductID)
			if err != nil {
				return err
			}
			if _, err := tx.DeductStock(ctx, p.ID, req.Quantity, "direct sale", in.OperatorID); err != nil {
				return err
			}
			lines = append(lines, model.DirectSaleLine{
				ProductID: p.ID,
				Quantity:  req.Quantity,
				UnitPrice: p.SalePrice,
				Subtotal:  p.SalePrice.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
			})

			low, after, err := tx.LowStock(ctx, p.ID)
			if err != nil {
				return err
			}
			if low {
				lowEvents = append(lowEvents, queue.StockLowEvent{
					ProductID:   after.ID,
					ProductName: after.Name,
					Stock:       after.Stock,
					MinStock:    after.MinStock,
					OperatorID:  in.OperatorID,
					OccurredAt:  now.Format(time.RFC3339),
				})
			}
		}

		discount := in.Discount.Round(2)
		subtotal, total := model.SaleTotals(lines, discount)
		if total.IsNegative() {
			return fmt.Errorf("discount %s exceeds subtotal %s: %w", discount, subtotal, repository.ErrInvalidAmount)
		}

		var shiftID *uint64
		shift, err := tx.CurrentOpenShift(ctx)
		if err != nil {
			return err
		}
		if shift != nil {
			shiftID = &shift.ID
		}

		s := &model.DirectSale{
			TicketCode: uuid.NewString(),
			CustomerID: in.CustomerID,
			OperatorID: in.OperatorID,
			SoldAt:     now,
			Subtotal:   subtotal,
			Discount:   discount,
			Total:      total,
			MethodID:   m.ID,
			Reference:  in.Reference,
			State:      model.SaleCompleted,
			Notes:      in.Notes,
			ShiftID:    shiftID,
		}
		if err := tx.CreateDirectSale(ctx, s); err != nil {
			return err
		}
		for i := range lines {
			lines[i].SaleID = s.ID
		}
		if err := tx.CreateDirectSaleLines(ctx, lines); err != nil {
			return err
		}
		sale = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, ev := range lowEvents {
		ev := ev
		publishAsync(d.pub, func(ctx context.Context) error { return d.pub.StockLow(ctx, ev) })
	}
	return sale, nil
}
