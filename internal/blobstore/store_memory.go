package blobstore

import (
	"context"
	"fmt"
	"sync"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// InMemory is the blobstore used when no node is configured, and in tests.
// Resource IDs are derived from the payload digest so identical payloads
// collapse to one entry, matching content addressing.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Add(_ context.Context, payload []byte) (string, error) {
	resourceID := fmt.Sprintf("mem-%s", id.DigestOf(payload))

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[resourceID]; !ok {
		s.blobs[resourceID] = append([]byte{}, payload...)
	}
	return resourceID, nil
}

func (s *InMemory) Get(_ context.Context, resourceID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.blobs[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte{}, payload...), nil
}
