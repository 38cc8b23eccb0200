package integrity

import (
	"context"

	id "iotledger/pkg/domain"
)

// Store persists data records. Implementations return sentinel errors; the
// ledger translates them into domain errors.
type Store interface {
	// Create inserts a new record. Returns sentinel.ErrConflict when the
	// resource ID is already occupied; the existing record is never touched.
	Create(ctx context.Context, record *DataRecord) error

	// FindByResource returns the record for a resource ID, or
	// sentinel.ErrNotFound.
	FindByResource(ctx context.Context, resourceID string) (*DataRecord, error)

	// ListByOwner returns the records owned by a device in insertion order.
	// Unknown owners yield an empty slice, not an error.
	ListByOwner(ctx context.Context, owner id.DeviceKey) ([]*DataRecord, error)

	// ListResourceIDs returns all resource IDs in insertion order.
	ListResourceIDs(ctx context.Context) ([]string, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
