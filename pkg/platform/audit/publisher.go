package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher is the sink the ledger emits into. Emit appends to the backing
// store synchronously, so a store failure surfaces to the caller and no
// dangling event outlives a failed append. Forwarding to external sinks
// happens off the feed channel; because the ledger emits under its write
// lock, feed order equals mutation order.
type Publisher struct {
	store  Store
	logger *slog.Logger
	feed   chan Event
}

const defaultFeedDepth = 1024

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		logger: logger,
		feed:   make(chan Event, defaultFeedDepth),
	}
}

// Emit records a mutation event. The event ID and timestamp are filled in
// when unset. Delivery to the feed is best-effort: a full feed drops the
// forwarded copy (the store remains the durable record) and logs the drop.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	select {
	case p.feed <- event:
	default:
		p.logger.WarnContext(ctx, "audit feed full, dropping forwarded event",
			"event_id", event.ID.String(),
			"kind", string(event.Kind),
		)
	}
	return nil
}

// Feed exposes the ordered stream of emitted events for forwarding workers.
func (p *Publisher) Feed() <-chan Event { return p.feed }

// ListRecent returns the most recent events from the backing store.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
