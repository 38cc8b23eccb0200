// Package blobstore abstracts the content-addressed store that holds raw
// device artifacts. The ledger never stores payloads, only their integrity
// digests; the blobstore hands back the resource ID those digests are keyed
// under.
package blobstore

import "context"

// Store writes artifacts and returns their content-addressed resource ID.
type Store interface {
	// Add stores the payload and returns its resource ID. Adding the same
	// payload twice returns the same ID.
	Add(ctx context.Context, payload []byte) (string, error)

	// Get retrieves a stored payload by resource ID.
	Get(ctx context.Context, resourceID string) ([]byte, error)
}
