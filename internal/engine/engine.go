// Package engine implements the table-rental billing core: session
// lifecycle, consumption and payment ledgers, cash shifts and direct
// sales. All state changes run inside a single store transaction;
// domain events are published only after the transaction commits.
package engine

import (
	"context"
	"log"
	"time"

	"github.com/emanuelrdz/billarpos/internal/queue"
)

// Clock supplies the current time. Production code uses UTCNow;
// tests inject a fixed clock.
type Clock func() time.Time

// UTCNow is the default Clock.
func UTCNow() time.Time { return time.Now().UTC() }

// Publisher sends domain events to the message broker. Publish failures
// must never fail the business operation; implementations log and
// return the error, callers ignore it.
type Publisher interface {
	SessionFinished(ctx context.Context, ev queue.SessionFinishedEvent) error
	StockLow(ctx context.Context, ev queue.StockLowEvent) error
}

// publishAsync fires an event publish in the background, detached from
// the request context so an already-answered request cannot cancel it.
func publishAsync(pub Publisher, fn func(ctx context.Context) error) {
	if pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("engine: event publish failed: %v", err)
		}
	}()
}
