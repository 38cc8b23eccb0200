package access

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// Postgres persists access permissions in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed permission store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the access_permissions table. Called at startup; idempotent.
// A NULL expires_at means the grant never lapses.
const Schema = `
CREATE TABLE IF NOT EXISTS access_permissions (
	requester   UUID NOT NULL,
	resource_id TEXT NOT NULL,
	granted     BOOLEAN NOT NULL,
	granted_at  TIMESTAMPTZ NOT NULL,
	expires_at  TIMESTAMPTZ,
	PRIMARY KEY (requester, resource_id)
);
`

func (s *Postgres) Upsert(ctx context.Context, permission AccessPermission) error {
	const query = `
		INSERT INTO access_permissions (requester, resource_id, granted, granted_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (requester, resource_id) DO UPDATE SET
			granted = EXCLUDED.granted,
			granted_at = EXCLUDED.granted_at,
			expires_at = EXCLUDED.expires_at
	`
	var expiresAt any
	if !permission.ExpiresAt.IsZero() {
		expiresAt = permission.ExpiresAt.UTC()
	}
	if _, err := s.db.ExecContext(ctx, query,
		permission.Requester.String(),
		permission.ResourceID,
		permission.Granted,
		permission.GrantedAt.UTC(),
		expiresAt,
	); err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}
	return nil
}

func (s *Postgres) Find(ctx context.Context, requester id.AccountID, resourceID string) (*AccessPermission, error) {
	const query = `
		SELECT requester, resource_id, granted, granted_at, expires_at
		FROM access_permissions WHERE requester = $1 AND resource_id = $2
	`
	var (
		permission AccessPermission
		rawReq     string
		expiresAt  sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, requester.String(), resourceID).
		Scan(&rawReq, &permission.ResourceID, &permission.Granted, &permission.GrantedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find permission: %w", err)
	}
	if permission.Requester, err = id.ParseAccountID(rawReq); err != nil {
		return nil, fmt.Errorf("decode permission requester: %w", err)
	}
	if expiresAt.Valid {
		permission.ExpiresAt = expiresAt.Time
	} else {
		permission.ExpiresAt = time.Time{}
	}
	return &permission, nil
}

func (s *Postgres) Revoke(ctx context.Context, requester id.AccountID, resourceID string) error {
	const query = `
		UPDATE access_permissions SET granted = FALSE
		WHERE requester = $1 AND resource_id = $2
	`
	result, err := s.db.ExecContext(ctx, query, requester.String(), resourceID)
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke permission: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
