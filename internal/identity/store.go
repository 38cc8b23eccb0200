package identity

import (
	"context"

	id "iotledger/pkg/domain"
)

// Store persists device identities. Implementations return sentinel errors;
// the ledger translates them into domain errors.
type Store interface {
	// Create inserts a new device. Returns sentinel.ErrConflict when the DID
	// or the device key is already registered, active or not: registration is
	// terminal-once-consumed for a given (did, key) pair.
	Create(ctx context.Context, device *DeviceIdentity) error

	// FindByKey returns the device registered under the given key, or
	// sentinel.ErrNotFound.
	FindByKey(ctx context.Context, key id.DeviceKey) (*DeviceIdentity, error)

	// FindByDID resolves the DID index, or sentinel.ErrNotFound.
	FindByDID(ctx context.Context, did id.DID) (*DeviceIdentity, error)

	// Execute atomically validates and mutates the device under the store's
	// lock. The validate callback sees the current record; mutate is applied
	// only when validate returns nil. Returns the updated record.
	Execute(ctx context.Context, key id.DeviceKey, validate func(*DeviceIdentity) error, mutate func(*DeviceIdentity)) (*DeviceIdentity, error)

	// ListKeys returns all registered device keys in insertion order.
	ListKeys(ctx context.Context) ([]id.DeviceKey, error)

	// Count returns the number of registered devices.
	Count(ctx context.Context) (int, error)
}
