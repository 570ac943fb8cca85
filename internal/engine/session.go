package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/emanuelrdz/billarpos/internal/model"
	"github.com/emanuelrdz/billarpos/internal/queue"
	"github.com/emanuelrdz/billarpos/internal/repository"
)

// SessionEngine drives the rental session state machine. A session is
// created Active against a free table and ends in exactly one of
// Finished, Cancelled or Transferred; terminal sessions reject every
// further mutation.
type SessionEngine struct {
	store repository.Store
	pub   Publisher
	now   Clock
}

// NewSessionEngine builds a SessionEngine. pub may be nil, which
// disables event publishing.
func NewSessionEngine(store repository.Store, pub Publisher, now Clock) *SessionEngine {
	if now == nil {
		now = UTCNow
	}
	return &SessionEngine{store: store, pub: pub, now: now}
}

// OpenSessionInput carries the parameters for opening a session.
// AllottedMinutes <= 0 forces open-ended billing regardless of Mode;
// an empty Mode falls back to the table's rate plan default.
type OpenSessionInput struct {
	TableID         uint64
	CustomerID      *uint64
	OperatorID      uint64
	Mode            model.BillingMode
	AllottedMinutes int
	Discount        decimal.Decimal
}

// Open atomically claims the table and creates an Active session on it.
// Fixed-duration sessions are billed up front in rate-plan blocks and
// get a scheduled end; open-ended sessions are billed at finalize.
// Opening against a non-free table fails with ErrTableBusy and two
// concurrent opens on the same table produce exactly one session.
func (e *SessionEngine) Open(ctx context.Context, in OpenSessionInput) (*model.RentalSession, error) {
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("discount must not be negative: %w", repository.ErrInvalidAmount)
	}
	switch in.Mode {
	case "", model.ModeFixed, model.ModeOpen:
	default:
		return nil, fmt.Errorf("unknown billing mode %q: %w", in.Mode, repository.ErrInvalidAmount)
	}

	var session *model.RentalSession
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.OccupyTable(ctx, in.TableID); err != nil {
			return err
		}
		plan, err := tx.RatePlanForTable(ctx, in.TableID)
		if err != nil {
			return err
		}

		requested := in.Mode
		if requested == "" {
			requested = plan.DefaultMode
		}
		mode := model.EffectiveMode(requested, in.AllottedMinutes)

		now := e.now()
		s := &model.RentalSession{
			TableID:    in.TableID,
			CustomerID: in.CustomerID,
			OperatorID: in.OperatorID,
			StartedAt:  now,
			Mode:       mode,
			Discount:   in.Discount.Round(2),
			State:      model.SessionActive,
		}
		if mode == model.ModeFixed {
			s.AllottedMinutes = in.AllottedMinutes
			end := now.Add(time.Duration(in.AllottedMinutes) * time.Minute)
			s.ScheduledEndAt = &end
			s.RentalAmount = plan.PriceFor(model.ModeFixed, in.AllottedMinutes)
		} else {
			s.RentalAmount = decimal.Zero
		}
		if err := tx.CreateSession(ctx, s); err != nil {
			return err
		}
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddConsumptionInput identifies what to charge to which session.
// UnitPrice overrides the catalog price when set, for negotiated or
// promotional pricing; nil means charge the product's sale price.
type AddConsumptionInput struct {
	SessionID  uint64
	ProductID  uint64
	Quantity   int
	UnitPrice  *decimal.Decimal
	OperatorID uint64
}

// AddConsumption charges a product to an active session and deducts
// stock in the same transaction, writing exactly one OUT movement.
// Terminal sessions reject the charge with ErrSessionNotActive; short
// stock rejects it with ErrInsufficientStock and nothing is written.
func (e *SessionEngine) AddConsumption(ctx context.Context, in AddConsumptionInput) (*model.ConsumptionLine, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d: %w", in.Quantity, repository.ErrInvalidAmount)
	}
	if in.UnitPrice != nil && in.UnitPrice.IsNegative() {
		return nil, fmt.Errorf("unit price must not be negative, got %s: %w", in.UnitPrice, repository.ErrInvalidAmount)
	}

	var (
		line     *model.ConsumptionLine
		lowEvent *queue.StockLowEvent
	)
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if !s.IsActive() {
			return fmt.Errorf("session %d is %s: %w", s.ID, s.State, repository.ErrSessionNotActive)
		}
		p, err := tx.GetProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if _, err := tx.DeductStock(ctx, p.ID, in.Quantity, "session consumption", in.OperatorID); err != nil {
			return err
		}
		price := p.SalePrice
		if in.UnitPrice != nil {
			price = in.UnitPrice.Round(2)
		}
		l := model.NewConsumptionLine(s.ID, p.ID, in.Quantity, price, in.OperatorID)
		if err := tx.AddConsumption(ctx, &l); err != nil {
			return err
		}
		line = &l

		low, after, err := tx.LowStock(ctx, p.ID)
		if err != nil {
			return err
		}
		if low {
			lowEvent = &queue.StockLowEvent{
				ProductID:   after.ID,
				ProductName: after.Name,
				Stock:       after.Stock,
				MinStock:    after.MinStock,
				OperatorID:  in.OperatorID,
				OccurredAt:  e.now().Format(time.RFC3339),
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if lowEvent != nil {
		ev := *lowEvent
		publishAsync(e.pub, func(ctx context.Context) error { return e.pub.StockLow(ctx, ev) })
	}
	return line, nil
}

// FinalizeResult is the settled view of a finished session.
type FinalizeResult struct {
	Session          *model.RentalSession
	ConsumptionTotal decimal.Decimal
	GrandTotal       decimal.Decimal
	PaidTotal        decimal.Decimal
	FullyPaid        bool
}

// Finalize closes an active session as Finished and frees its table.
// Open-ended sessions get their rental amount computed here from the
// elapsed minutes, rounded up; fixed sessions keep the amount billed at
// open. The session is stamped with the currently open cash shift, if
// any. Finalize does not require the bill to be paid; the result
// reports whether it is.
func (e *SessionEngine) Finalize(ctx context.Context, sessionID, operatorID uint64) (*FinalizeResult, error) {
	var (
		res   FinalizeResult
		event *queue.SessionFinishedEvent
	)
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !s.IsActive() {
			return fmt.Errorf("session %d is %s: %w", s.ID, s.State, repository.ErrSessionNotActive)
		}
		table, err := tx.GetTableForUpdate(ctx, s.TableID)
		if err != nil {
			return err
		}

		now := e.now()
		rental := s.RentalAmount
		if s.Mode == model.ModeOpen {
			plan, err := tx.RatePlanForTable(ctx, s.TableID)
			if err != nil {
				return err
			}
			rental = plan.PriceFor(model.ModeOpen, model.CeilMinutes(now.Sub(s.StartedAt)))
		}

		var shiftID *uint64
		shift, err := tx.CurrentOpenShift(ctx)
		if err != nil {
			return err
		}
		if shift != nil {
			shiftID = &shift.ID
		}

		if err := tx.CloseSession(ctx, s.ID, model.SessionFinished, now, rental, shiftID); err != nil {
			return err
		}
		if err := tx.ReleaseTable(ctx, s.TableID); err != nil {
			return err
		}

		cons, err := tx.ConsumptionTotal(ctx, s.ID)
		if err != nil {
			return err
		}
		paid, err := tx.PaidTotal(ctx, s.ID)
		if err != nil {
			return err
		}

		s.State = model.SessionFinished
		s.EndedAt = &now
		s.RentalAmount = rental
		s.ShiftID = shiftID

		res = FinalizeResult{
			Session:          s,
			ConsumptionTotal: cons,
			GrandTotal:       s.GrandTotal(cons),
			PaidTotal:        paid,
			FullyPaid:        model.FullyPaid(paid, s.GrandTotal(cons)),
		}
		event = &queue.SessionFinishedEvent{
			SessionID:        s.ID,
			TableID:          table.ID,
			TableName:        table.Name,
			OperatorID:       operatorID,
			Mode:             string(s.Mode),
			StartedAt:        s.StartedAt.Format(time.RFC3339),
			EndedAt:          now.Format(time.RFC3339),
			ElapsedMinutes:   s.ElapsedMinutes(now),
			RentalAmount:     rental.StringFixed(2),
			ConsumptionTotal: cons.StringFixed(2),
			GrandTotal:       res.GrandTotal.StringFixed(2),
			FullyPaid:        res.FullyPaid,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event != nil {
		ev := *event
		publishAsync(e.pub, func(ctx context.Context) error { return e.pub.SessionFinished(ctx, ev) })
	}
	return &res, nil
}

// Cancel closes an active session as Cancelled and frees its table.
// Cancelled sessions bill nothing: the rental amount is zeroed even for
// fixed-duration sessions that were priced at open.
func (e *SessionEngine) Cancel(ctx context.Context, sessionID, operatorID uint64) (*model.RentalSession, error) {
	var session *model.RentalSession
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if !s.IsActive() {
			return fmt.Errorf("session %d is %s: %w", s.ID, s.State, repository.ErrSessionNotActive)
		}
		now := e.now()
		if err := tx.CloseSession(ctx, s.ID, model.SessionCancelled, now, decimal.Zero, nil); err != nil {
			return err
		}
		if err := tx.ReleaseTable(ctx, s.TableID); err != nil {
			return err
		}
		s.State = model.SessionCancelled
		s.EndedAt = &now
		s.RentalAmount = decimal.Zero
		session = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// TransferInput carries the parameters for moving a session to another
// table.
type TransferInput struct {
	SessionID  uint64
	ToTableID  uint64
	Reason     *string
	OperatorID uint64
}

// TransferResult pairs the closed source session with its continuation
// and the audit record linking them.
type TransferResult struct {
	From     *model.RentalSession
	To       *model.RentalSession
	Transfer *model.SessionTransfer
}

// Transfer moves an active session to a free table in one transaction:
// the destination table is claimed, the source session closes as
// Transferred, a continuation session opens on the destination, the
// source table frees, and an audit record ties the pair together.
// Either all five marks land or none do.
//
// Billing splits at the transfer point. A fixed-duration source already
// billed its full allotment at open, so the continuation carries the
// remaining minutes at zero additional charge. An open-ended source has
// its elapsed time priced and frozen on the closed session, and the
// continuation starts a fresh elapsed clock.
func (e *SessionEngine) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	var res TransferResult
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		src, err := tx.GetSessionForUpdate(ctx, in.SessionID)
		if err != nil {
			return err
		}
		if !src.IsActive() {
			return fmt.Errorf("session %d is %s: %w", src.ID, src.State, repository.ErrSessionNotActive)
		}
		if in.ToTableID == src.TableID {
			return fmt.Errorf("session %d already occupies table %d: %w", src.ID, src.TableID, repository.ErrTableBusy)
		}
		if err := tx.OccupyTable(ctx, in.ToTableID); err != nil {
			return err
		}

		now := e.now()
		remaining := src.RemainingMinutes(now)
		rental := src.RentalAmount
		if src.Mode == model.ModeOpen {
			plan, err := tx.RatePlanForTable(ctx, src.TableID)
			if err != nil {
				return err
			}
			rental = plan.PriceFor(model.ModeOpen, model.CeilMinutes(now.Sub(src.StartedAt)))
		}

		if err := tx.CloseSession(ctx, src.ID, model.SessionTransferred, now, rental, nil); err != nil {
			return err
		}
		if err := tx.ReleaseTable(ctx, src.TableID); err != nil {
			return err
		}

		dest := &model.RentalSession{
			TableID:      in.ToTableID,
			CustomerID:   src.CustomerID,
			OperatorID:   in.OperatorID,
			StartedAt:    now,
			Mode:         src.Mode,
			RentalAmount: decimal.Zero,
			State:        model.SessionActive,
			PrevTableID:  &src.TableID,
		}
		if src.Mode == model.ModeFixed {
			dest.AllottedMinutes = remaining
			end := now.Add(time.Duration(remaining) * time.Minute)
			dest.ScheduledEndAt = &end
		}
		if err := tx.CreateSession(ctx, dest); err != nil {
			return err
		}

		tr := &model.SessionTransfer{
			FromSessionID:    src.ID,
			ToSessionID:      dest.ID,
			FromTableID:      src.TableID,
			ToTableID:        in.ToTableID,
			RemainingMinutes: remaining,
			Reason:           in.Reason,
			OperatorID:       in.OperatorID,
			TransferredAt:    now,
		}
		if err := tx.CreateTransfer(ctx, tr); err != nil {
			return err
		}

		src.State = model.SessionTransferred
		src.EndedAt = &now
		src.RentalAmount = rental
		res = TransferResult{From: src, To: dest, Transfer: tr}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Bill is a consistent snapshot of what a session owes and has paid.
type Bill struct {
	Session          *model.RentalSession
	ElapsedMinutes   int
	RemainingMinutes int
	ConsumptionTotal decimal.Decimal
	GrandTotal       decimal.Decimal
	PaidTotal        decimal.Decimal
	Balance          decimal.Decimal
	FullyPaid        bool
}

// BillFor computes the session's bill inside one transaction so the
// consumption and payment totals belong to the same instant. For an
// active open-ended session the grand total prices elapsed time as if
// it were finalized now.
func (e *SessionEngine) BillFor(ctx context.Context, sessionID uint64) (*Bill, error) {
	var bill Bill
	err := e.store.InTx(ctx, func(tx repository.Tx) error {
		s, err := tx.GetSessionForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		now := e.now()
		rental := s.RentalAmount
		if s.IsActive() && s.Mode == model.ModeOpen {
			plan, err := tx.RatePlanForTable(ctx, s.TableID)
			if err != nil {
				return err
			}
			rental = plan.PriceFor(model.ModeOpen, s.ElapsedMinutes(now))
		}
		cons, err := tx.ConsumptionTotal(ctx, s.ID)
		if err != nil {
			return err
		}
		paid, err := tx.PaidTotal(ctx, s.ID)
		if err != nil {
			return err
		}
		total := rental.Add(cons).Sub(s.Discount)
		bill = Bill{
			Session:          s,
			ElapsedMinutes:   s.ElapsedMinutes(now),
			RemainingMinutes: s.RemainingMinutes(now),
			ConsumptionTotal: cons,
			GrandTotal:       total,
			PaidTotal:        paid,
			Balance:          total.Sub(paid).Round(2),
			FullyPaid:        model.FullyPaid(paid, total),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}
