package integrity

import (
	"context"
	"sync"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// InMemory keeps data records in mutex-guarded maps with an insertion order
// slice for listing.
type InMemory struct {
	mu      sync.RWMutex
	records map[string]*DataRecord
	byOwner map[id.DeviceKey][]string
	order   []string
}

func NewInMemory() *InMemory {
	return &InMemory{
		records: make(map[string]*DataRecord),
		byOwner: make(map[id.DeviceKey][]string),
	}
}

func (s *InMemory) Create(_ context.Context, record *DataRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ResourceID]; ok {
		return sentinel.ErrConflict
	}
	clone := *record
	s.records[record.ResourceID] = &clone
	s.byOwner[record.OwnerKey] = append(s.byOwner[record.OwnerKey], record.ResourceID)
	s.order = append(s.order, record.ResourceID)
	return nil
}

func (s *InMemory) FindByResource(_ context.Context, resourceID string) (*DataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[resourceID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (s *InMemory) ListByOwner(_ context.Context, owner id.DeviceKey) ([]*DataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[owner]
	records := make([]*DataRecord, 0, len(ids))
	for _, resourceID := range ids {
		clone := *s.records[resourceID]
		records = append(records, &clone)
	}
	return records, nil
}

func (s *InMemory) ListResourceIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.order...), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
