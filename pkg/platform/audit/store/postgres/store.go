package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "iotledger/pkg/platform/audit"
)

// Store implements audit.Store using the transactional outbox pattern. Events
// are written to the outbox table and forwarded to Kafka by the audit worker;
// Kafka is the source of truth for downstream consumers.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema creates the outbox table. Called at startup; idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	category    TEXT NOT NULL,
	payload     JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	published_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS audit_outbox_unpublished_idx
	ON audit_outbox (created_at) WHERE published_at IS NULL;
`

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := audit.MarshalPayload(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	const query = `
		INSERT INTO audit_outbox (id, kind, category, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.Kind),
		string(event.Kind.Category()),
		payload,
		event.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListAll returns every outbox event in append order.
func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	return s.list(ctx, `SELECT payload FROM audit_outbox ORDER BY created_at, id`)
}

// ListRecent returns the most recent events in append order.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.list(ctx, fmt.Sprintf(`
		SELECT payload FROM (
			SELECT payload, created_at, id FROM audit_outbox
			ORDER BY created_at DESC, id DESC LIMIT %d
		) recent ORDER BY created_at, id`, limit))
}

func (s *Store) list(ctx context.Context, query string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := audit.UnmarshalPayload(payload)
		if err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ListUnpublished returns undelivered rows oldest first, for the audit
// worker's sweep. The partial index keeps this cheap once the table grows.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.list(ctx, fmt.Sprintf(`
		SELECT payload FROM audit_outbox
		WHERE published_at IS NULL
		ORDER BY created_at, id LIMIT %d`, limit))
}

// MarkPublished stamps outbox rows after successful Kafka delivery.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	encoded := make([]string, len(ids))
	for i, eventID := range ids {
		encoded[i] = eventID.String()
	}
	const query = `UPDATE audit_outbox SET published_at = $1 WHERE id = ANY($2::uuid[])`
	if _, err := s.db.ExecContext(ctx, query, at.UTC(), encoded); err != nil {
		return fmt.Errorf("mark audit events published: %w", err)
	}
	return nil
}
