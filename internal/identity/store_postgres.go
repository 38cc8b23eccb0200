package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// Postgres persists device identities in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed device identity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the devices table. Called at startup; idempotent. Rows are
// never deleted, so the unique constraints on did and key enforce
// terminal-once-consumed registration.
const Schema = `
CREATE TABLE IF NOT EXISTS devices (
	key           UUID PRIMARY KEY,
	did           TEXT NOT NULL UNIQUE,
	controller    UUID NOT NULL,
	public_key    BYTEA,
	metadata      TEXT NOT NULL DEFAULT '',
	registered_at TIMESTAMPTZ NOT NULL,
	active        BOOLEAN NOT NULL,
	seq           BIGSERIAL
);
CREATE INDEX IF NOT EXISTS devices_seq_idx ON devices (seq);
`

const deviceColumns = `key, did, controller, public_key, metadata, registered_at, active`

func (s *Postgres) Create(ctx context.Context, device *DeviceIdentity) error {
	const query = `
		INSERT INTO devices (` + deviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		device.Key.String(),
		device.DID.String(),
		device.Controller.String(),
		device.PublicKey,
		device.Metadata,
		device.RegisteredAt.UTC(),
		device.Active,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (s *Postgres) FindByKey(ctx context.Context, key id.DeviceKey) (*DeviceIdentity, error) {
	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE key = $1`
	return scanDevice(s.db.QueryRowContext(ctx, query, key.String()))
}

func (s *Postgres) FindByDID(ctx context.Context, did id.DID) (*DeviceIdentity, error) {
	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE did = $1`
	return scanDevice(s.db.QueryRowContext(ctx, query, did.String()))
}

// Execute validates and mutates a device inside one transaction, holding a row
// lock so the validate callback and the update see the same record.
func (s *Postgres) Execute(ctx context.Context, key id.DeviceKey, validate func(*DeviceIdentity) error, mutate func(*DeviceIdentity)) (*DeviceIdentity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin device update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `SELECT ` + deviceColumns + ` FROM devices WHERE key = $1 FOR UPDATE`
	device, err := scanDevice(tx.QueryRowContext(ctx, query, key.String()))
	if err != nil {
		return nil, err
	}
	if err := validate(device); err != nil {
		return nil, err
	}
	mutate(device)

	const update = `
		UPDATE devices SET controller = $2, public_key = $3, metadata = $4, active = $5
		WHERE key = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		device.Key.String(),
		device.Controller.String(),
		device.PublicKey,
		device.Metadata,
		device.Active,
	); err != nil {
		return nil, fmt.Errorf("update device: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit device update: %w", err)
	}
	return device, nil
}

func (s *Postgres) ListKeys(ctx context.Context) ([]id.DeviceKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM devices ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list device keys: %w", err)
	}
	defer rows.Close()

	var keys []id.DeviceKey
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan device key: %w", err)
		}
		key, err := id.ParseDeviceKey(raw)
		if err != nil {
			return nil, fmt.Errorf("decode device key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM devices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDevice(row rowScanner) (*DeviceIdentity, error) {
	var (
		device  DeviceIdentity
		rawKey  string
		rawDID  string
		rawCtrl string
	)
	err := row.Scan(&rawKey, &rawDID, &rawCtrl, &device.PublicKey, &device.Metadata, &device.RegisteredAt, &device.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan device: %w", err)
	}
	if device.Key, err = id.ParseDeviceKey(rawKey); err != nil {
		return nil, fmt.Errorf("decode device key: %w", err)
	}
	if device.DID, err = id.ParseDID(rawDID); err != nil {
		return nil, fmt.Errorf("decode device did: %w", err)
	}
	if device.Controller, err = id.ParseAccountID(rawCtrl); err != nil {
		return nil, fmt.Errorf("decode device controller: %w", err)
	}
	return &device, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
