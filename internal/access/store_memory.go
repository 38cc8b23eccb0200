package access

import (
	"context"
	"sync"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

type permissionKey struct {
	requester  id.AccountID
	resourceID string
}

// InMemory keeps permissions in a mutex-guarded map keyed by
// (requester, resource).
type InMemory struct {
	mu          sync.RWMutex
	permissions map[permissionKey]AccessPermission
}

func NewInMemory() *InMemory {
	return &InMemory{permissions: make(map[permissionKey]AccessPermission)}
}

func (s *InMemory) Upsert(_ context.Context, permission AccessPermission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[permissionKey{permission.Requester, permission.ResourceID}] = permission
	return nil
}

func (s *InMemory) Find(_ context.Context, requester id.AccountID, resourceID string) (*AccessPermission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	permission, ok := s.permissions[permissionKey{requester, resourceID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &permission, nil
}

func (s *InMemory) Revoke(_ context.Context, requester id.AccountID, resourceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := permissionKey{requester, resourceID}
	permission, ok := s.permissions[key]
	if !ok {
		return sentinel.ErrNotFound
	}
	permission.Granted = false
	s.permissions[key] = permission
	return nil
}
