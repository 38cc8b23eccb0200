package identity

import (
	"context"
	"sync"

	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
)

// InMemory keeps device identities in mutex-guarded maps with an insertion
// order slice for listing. It favors clarity over performance.
type InMemory struct {
	mu       sync.RWMutex
	devices  map[id.DeviceKey]*DeviceIdentity
	didIndex map[id.DID]id.DeviceKey
	order    []id.DeviceKey
}

func NewInMemory() *InMemory {
	return &InMemory{
		devices:  make(map[id.DeviceKey]*DeviceIdentity),
		didIndex: make(map[id.DID]id.DeviceKey),
	}
}

func (s *InMemory) Create(_ context.Context, device *DeviceIdentity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[device.Key]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.didIndex[device.DID]; ok {
		return sentinel.ErrConflict
	}
	clone := *device
	s.devices[device.Key] = &clone
	s.didIndex[device.DID] = device.Key
	s.order = append(s.order, device.Key)
	return nil
}

func (s *InMemory) FindByKey(_ context.Context, key id.DeviceKey) (*DeviceIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *device
	return &clone, nil
}

func (s *InMemory) FindByDID(_ context.Context, did id.DID) (*DeviceIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	key, ok := s.didIndex[did]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	clone := *s.devices[key]
	return &clone, nil
}

func (s *InMemory) Execute(_ context.Context, key id.DeviceKey, validate func(*DeviceIdentity) error, mutate func(*DeviceIdentity)) (*DeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	device, ok := s.devices[key]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(device); err != nil {
		return nil, err
	}
	mutate(device)
	clone := *device
	return &clone, nil
}

func (s *InMemory) ListKeys(_ context.Context) ([]id.DeviceKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.DeviceKey{}, s.order...), nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices), nil
}
