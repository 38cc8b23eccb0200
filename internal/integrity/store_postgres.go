package integrity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// Postgres persists data integrity records in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed integrity store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Schema creates the data_records table. Called at startup; idempotent. The
// primary key on resource_id plus the absence of any UPDATE or DELETE path
// makes records write-once.
const Schema = `
CREATE TABLE IF NOT EXISTS data_records (
	resource_id TEXT PRIMARY KEY,
	data_type   TEXT NOT NULL,
	owner_key   UUID NOT NULL,
	hash        TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	valid       BOOLEAN NOT NULL,
	seq         BIGSERIAL
);
CREATE INDEX IF NOT EXISTS data_records_owner_idx ON data_records (owner_key, seq);
`

const recordColumns = `resource_id, data_type, owner_key, hash, created_at, valid`

func (s *Postgres) Create(ctx context.Context, record *DataRecord) error {
	const query = `
		INSERT INTO data_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ResourceID,
		record.DataType,
		record.OwnerKey.String(),
		record.Hash.String(),
		record.CreatedAt.UTC(),
		record.Valid,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create data record: %w", err)
	}
	return nil
}

func (s *Postgres) FindByResource(ctx context.Context, resourceID string) (*DataRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM data_records WHERE resource_id = $1`
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, resourceID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

func (s *Postgres) ListByOwner(ctx context.Context, owner id.DeviceKey) ([]*DataRecord, error) {
	const query = `SELECT ` + recordColumns + ` FROM data_records WHERE owner_key = $1 ORDER BY seq`
	rows, err := s.db.QueryContext(ctx, query, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list records by owner: %w", err)
	}
	defer rows.Close()

	records := []*DataRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Postgres) ListResourceIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT resource_id FROM data_records ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list resource ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var resourceID string
		if err := rows.Scan(&resourceID); err != nil {
			return nil, fmt.Errorf("scan resource id: %w", err)
		}
		ids = append(ids, resourceID)
	}
	return ids, rows.Err()
}

func (s *Postgres) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM data_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count data records: %w", err)
	}
	return count, nil
}

func scanRecord(row interface{ Scan(dest ...any) error }) (*DataRecord, error) {
	var (
		record   DataRecord
		rawOwner string
		rawHash  string
	)
	err := row.Scan(&record.ResourceID, &record.DataType, &rawOwner, &rawHash, &record.CreatedAt, &record.Valid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan data record: %w", err)
	}
	if record.OwnerKey, err = id.ParseDeviceKey(rawOwner); err != nil {
		return nil, fmt.Errorf("decode record owner: %w", err)
	}
	if record.Hash, err = id.ParseIntegrityHash(rawHash); err != nil {
		return nil, fmt.Errorf("decode record hash: %w", err)
	}
	return &record, nil
}
