package access

import (
	"context"

	id "iotledger/pkg/domain"
)

// Store persists access permissions. Implementations return sentinel errors;
// the ledger translates them into domain errors.
type Store interface {
	// Upsert creates or overwrites the permission for its
	// (requester, resource) key.
	Upsert(ctx context.Context, permission AccessPermission) error

	// Find returns the stored permission, or sentinel.ErrNotFound.
	Find(ctx context.Context, requester id.AccountID, resourceID string) (*AccessPermission, error)

	// Revoke clears the granted flag on an existing entry. Revoking an absent
	// entry returns sentinel.ErrNotFound; the entry itself is never removed.
	Revoke(ctx context.Context, requester id.AccountID, resourceID string) error
}
