package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/queue"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

func catalog() map[uint64]*model.Product {
	return map[uint64]*model.Product{
		1: {ID: 1, Name: "soda", SalePrice: dec("1.50"), Stock: 24, MinStock: 6},
		2: {ID: 2, Name: "beer", SalePrice: dec("3.00"), Stock: 12, MinStock: 4},
	}
}

func TestCreateSale(t *testing.T) {
	products := catalog()
	deductions := map[uint64]int{}
	var sale *model.DirectSale
	var lines []model.DirectSaleLine
	tx := &fakeTx{
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		GetProductForUpdateFn: func(ctx context.Context, id uint64) (*model.Product, error) {
			return products[id], nil
		},
		DeductStockFn: func(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
			if reason != "direct sale" {
				t.Fatalf("movement reason %q", reason)
			}
			deductions[productID] += quantity
			products[productID].Stock -= quantity
			return &model.StockMovement{ProductID: productID, Quantity: quantity}, nil
		},
		LowStockFn: func(ctx context.Context, productID uint64) (bool, *model.Product, error) {
			p := products[productID]
			return p.Stock <= p.MinStock, p, nil
		},
		CurrentOpenShiftFn: func(ctx context.Context) (*model.CashShift, error) {
			return &model.CashShift{ID: 5}, nil
		},
		CreateDirectSaleFn: func(ctx context.Context, s *model.DirectSale) error {
			s.ID = 9
			sale = s
			return nil
		},
		CreateDirectSaleLinesFn: func(ctx context.Context, ls []model.DirectSaleLine) error {
			lines = ls
			return nil
		},
	}
	svc := NewDirectSaleService(&fakeStore{tx: tx}, nil, fixedClock(t0))

	// 2 sodas + 1 beer = $6.00, $0.50 off
	s, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines: []SaleLineInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
		Discount:   dec("0.50"),
		MethodID:   1,
		OperatorID: 3,
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale == nil || s.ID != 9 {
		t.Fatal("sale was not persisted")
	}
	if s.Subtotal.StringFixed(2) != "6.00" || s.Total.StringFixed(2) != "5.50" {
		t.Fatalf("subtotal = %s total = %s", s.Subtotal, s.Total)
	}
	if s.State != model.SaleCompleted {
		t.Fatalf("state = %s, want COMPLETED", s.State)
	}
	if s.TicketCode == "" {
		t.Fatal("ticket code must be assigned")
	}
	if s.ShiftID == nil || *s.ShiftID != 5 {
		t.Fatalf("shift id = %v, want 5", s.ShiftID)
	}
	if deductions[1] != 2 || deductions[2] != 1 {
		t.Fatalf("deductions = %v", deductions)
	}
	if len(lines) != 2 {
		t.Fatalf("persisted %d lines, want 2", len(lines))
	}
	for _, l := range lines {
		if l.SaleID != 9 {
			t.Fatalf("line sale id = %d, want 9", l.SaleID)
		}
	}
	if lines[0].Subtotal.StringFixed(2) != "3.00" {
		t.Fatalf("line subtotal = %s, want 3.00", lines[0].Subtotal)
	}
}

func TestCreateSaleRejectsBadInput(t *testing.T) {
	svc := NewDirectSaleService(&fakeStore{tx: &fakeTx{}}, nil, fixedClock(t0))
	cases := []struct {
		name string
		in   CreateSaleInput
	}{
		{"no lines", CreateSaleInput{MethodID: 1, OperatorID: 3}},
		{"zero quantity", CreateSaleInput{Lines: []SaleLineInput{{ProductID: 1, Quantity: 0}}, MethodID: 1, OperatorID: 3}},
		{"negative discount", CreateSaleInput{Lines: []SaleLineInput{{ProductID: 1, Quantity: 1}}, Discount: dec("-1"), MethodID: 1, OperatorID: 3}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateSale(context.Background(), tc.in); !errors.Is(err, repository.ErrInvalidAmount) {
			t.Fatalf("%s: err = %v, want ErrInvalidAmount", tc.name, err)
		}
	}
}

func TestCreateSaleDiscountExceedsSubtotal(t *testing.T) {
	products := catalog()
	tx := &fakeTx{
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		GetProductForUpdateFn: func(ctx context.Context, id uint64) (*model.Product, error) {
			return products[id], nil
		},
		DeductStockFn: func(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
			return &model.StockMovement{}, nil
		},
		LowStockFn: func(ctx context.Context, productID uint64) (bool, *model.Product, error) {
			return false, products[productID], nil
		},
	}
	svc := NewDirectSaleService(&fakeStore{tx: tx}, nil, fixedClock(t0))

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines:      []SaleLineInput{{ProductID: 1, Quantity: 1}},
		Discount:   dec("2.00"),
		MethodID:   1,
		OperatorID: 3,
	})
	if !errors.Is(err, repository.ErrInvalidAmount) {
		t.Fatalf("err = %v, want ErrInvalidAmount", err)
	}
}

func TestCreateSaleReferenceRequired(t *testing.T) {
	tx := &fakeTx{
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cardMethod(), nil
		},
	}
	svc := NewDirectSaleService(&fakeStore{tx: tx}, nil, fixedClock(t0))

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines:      []SaleLineInput{{ProductID: 1, Quantity: 1}},
		MethodID:   2,
		OperatorID: 3,
	})
	if !errors.Is(err, repository.ErrReferenceRequired) {
		t.Fatalf("err = %v, want ErrReferenceRequired", err)
	}
}

func TestCreateSaleShortStockAborts(t *testing.T) {
	products := catalog()
	tx := &fakeTx{
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		GetProductForUpdateFn: func(ctx context.Context, id uint64) (*model.Product, error) {
			return products[id], nil
		},
		DeductStockFn: func(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
			return nil, repository.ErrInsufficientStock
		},
	}
	svc := NewDirectSaleService(&fakeStore{tx: tx}, nil, fixedClock(t0))

	_, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines:      []SaleLineInput{{ProductID: 1, Quantity: 100}},
		MethodID:   1,
		OperatorID: 3,
	})
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
}

func TestCreateSalePublishesLowStock(t *testing.T) {
	products := catalog()
	products[2].Stock = 4 // at the threshold after any sale
	pub := &capturePublisher{}
	tx := &fakeTx{
		GetPaymentMethodFn: func(ctx context.Context, id uint64) (*model.PaymentMethod, error) {
			return cashMethod(), nil
		},
		GetProductForUpdateFn: func(ctx context.Context, id uint64) (*model.Product, error) {
			return products[id], nil
		},
		DeductStockFn: func(ctx context.Context, productID uint64, quantity int, reason string, operatorID uint64) (*model.StockMovement, error) {
			products[productID].Stock -= quantity
			return &model.StockMovement{}, nil
		},
		LowStockFn: func(ctx context.Context, productID uint64) (bool, *model.Product, error) {
			p := products[productID]
			return p.Stock <= p.MinStock, p, nil
		},
		CurrentOpenShiftFn:      func(ctx context.Context) (*model.CashShift, error) { return nil, nil },
		CreateDirectSaleFn:      func(ctx context.Context, s *model.DirectSale) error { s.ID = 9; return nil },
		CreateDirectSaleLinesFn: func(ctx context.Context, ls []model.DirectSaleLine) error { return nil },
	}
	svc := NewDirectSaleService(&fakeStore{tx: tx}, pub, fixedClock(t0))

	if _, err := svc.CreateSale(context.Background(), CreateSaleInput{
		Lines:      []SaleLineInput{{ProductID: 2, Quantity: 1}},
		MethodID:   1,
		OperatorID: 3,
	}); err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	ev := pub.waitStockLow(t)
	if ev.ProductID != 2 || ev.Stock != 3 {
		t.Fatalf("event = %+v", ev)
	}
}

// capturePublisher records events across publishing goroutines.
type capturePublisher struct {
	mu       sync.Mutex
	stockLow []queue.StockLowEvent
	finished []queue.SessionFinishedEvent
	notify   chan struct{}
}

func (p *capturePublisher) SessionFinished(ctx context.Context, ev queue.SessionFinishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished = append(p.finished, ev)
	p.signal()
	return nil
}

func (p *capturePublisher) StockLow(ctx context.Context, ev queue.StockLowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stockLow = append(p.stockLow, ev)
	p.signal()
	return nil
}

func (p *capturePublisher) signal() {
	if p.notify != nil {
		select {
		case p.notify <- struct{}{}:
		default:
		}
	}
}

func (p *capturePublisher) waitStockLow(t *testing.T) queue.StockLowEvent {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p.mu.Lock()
		if len(p.stockLow) > 0 {
			ev := p.stockLow[0]
			p.mu.Unlock()
			return ev
		}
		p.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no stock.low event published")
	return queue.StockLowEvent{}
}
