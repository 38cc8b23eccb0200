// Package worker drains the publisher feed into an external sink.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "iotledger/pkg/platform/audit"
)

// Sink is anything that can deliver one event externally (Kafka in
// production, fakes in tests).
type Sink interface {
	Publish(ctx context.Context, event audit.Event) error
}

// Outbox is a durable store that tracks which events have been delivered.
// The SQL outbox stores implement it; the memory store does not need to.
type Outbox interface {
	ListUnpublished(ctx context.Context, limit int) ([]audit.Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

const (
	defaultSweepInterval = 30 * time.Second
	sweepBatch           = 256
)

// Worker forwards events from the publisher feed to the sink, preserving feed
// order. With an outbox attached, every delivery is stamped, events from
// before a restart are re-sent on startup, and failed or dropped deliveries
// are retried by a periodic sweep — delivery becomes at-least-once, and
// downstream consumers deduplicate by event ID. Without an outbox, delivery
// failures are logged and skipped: the audit store remains the durable
// record, and a mutation's success is never contingent on forwarding.
type Worker struct {
	sink          Sink
	inbox         <-chan audit.Event
	logger        *slog.Logger
	outbox        Outbox
	sweepInterval time.Duration
}

// Option configures optional worker behavior.
type Option func(*Worker)

// WithOutbox makes the worker stamp deliveries and re-send undelivered rows.
func WithOutbox(outbox Outbox) Option {
	return func(w *Worker) { w.outbox = outbox }
}

// WithSweepInterval overrides how often undelivered rows are retried.
func WithSweepInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.sweepInterval = d
		}
	}
}

func New(sink Sink, inbox <-chan audit.Event, logger *slog.Logger, opts ...Option) *Worker {
	w := &Worker{
		sink:          sink,
		inbox:         inbox,
		logger:        logger,
		sweepInterval: defaultSweepInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run forwards events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	var sweep <-chan time.Time
	if w.outbox != nil {
		// Re-send whatever a previous run left undelivered.
		w.drainOutbox(ctx)
		ticker := time.NewTicker(w.sweepInterval)
		defer ticker.Stop()
		sweep = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit event delivery failed",
					"event_id", event.ID.String(),
					"kind", string(event.Kind),
					"error", err,
				)
				continue
			}
			w.markPublished(ctx, []uuid.UUID{event.ID})
		case <-sweep:
			w.drainOutbox(ctx)
		}
	}
}

// drainOutbox delivers undelivered rows oldest first. A delivery failure
// stops the sweep so ordering is preserved for the retry; whatever made it
// out is stamped. A row already delivered through the feed but swept before
// its stamp landed goes out twice — consumers dedupe by event ID.
func (w *Worker) drainOutbox(ctx context.Context) {
	for {
		events, err := w.outbox.ListUnpublished(ctx, sweepBatch)
		if err != nil {
			w.logger.ErrorContext(ctx, "failed to list undelivered audit events", "error", err)
			return
		}
		if len(events) == 0 {
			return
		}

		published := make([]uuid.UUID, 0, len(events))
		for _, event := range events {
			if ctx.Err() != nil {
				break
			}
			if err := w.sink.Publish(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit event delivery failed, will retry next sweep",
					"event_id", event.ID.String(),
					"kind", string(event.Kind),
					"error", err,
				)
				break
			}
			published = append(published, event.ID)
		}
		w.markPublished(ctx, published)

		if len(published) < len(events) || len(events) < sweepBatch {
			return
		}
	}
}

func (w *Worker) markPublished(ctx context.Context, ids []uuid.UUID) {
	if w.outbox == nil || len(ids) == 0 {
		return
	}
	if err := w.outbox.MarkPublished(ctx, ids, time.Now()); err != nil {
		w.logger.ErrorContext(ctx, "failed to stamp delivered audit events", "error", err)
	}
}
