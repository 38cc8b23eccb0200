package audit

import "context"

// Store persists audit events. Append-only: no implementation exposes update
// or delete.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListAll(ctx context.Context) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
