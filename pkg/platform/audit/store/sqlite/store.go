// Package sqlite provides an embedded audit store for single-binary
// deployments where neither Postgres nor Kafka is available.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	audit "iotledger/pkg/platform/audit"
)

// Store implements audit.Store on a local SQLite file.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL,
	kind       TEXT NOT NULL,
	category   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

// Open opens (and initializes) a SQLite-backed audit store at path. Use
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite audit store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload, err := audit.MarshalPayload(event)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	const query = `
		INSERT INTO audit_events (id, kind, category, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		event.ID.String(),
		string(event.Kind),
		string(event.Kind.Category()),
		string(payload),
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.999999999Z07:00"),
	); err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	return s.list(ctx, `SELECT payload FROM audit_events ORDER BY seq`)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	return s.list(ctx, fmt.Sprintf(`
		SELECT payload FROM (
			SELECT payload, seq FROM audit_events ORDER BY seq DESC LIMIT %d
		) ORDER BY seq`, limit))
}

func (s *Store) list(ctx context.Context, query string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event, err := audit.UnmarshalPayload([]byte(payload))
		if err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
