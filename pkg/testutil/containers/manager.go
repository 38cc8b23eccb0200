//go:build integration

// Package containers manages shared test containers. Starting one container
// per suite is slow; the Manager starts each backend once per test binary and
// hands the same instance to every suite. Suites are responsible for wiping
// state between tests (TruncateTables, FlushAll).
package containers

import (
	"sync"
	"testing"

	"iotledger/internal/access"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	auditpg "iotledger/pkg/platform/audit/store/postgres"
)

// Manager is the process-wide container registry.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	redis    *RedisContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the singleton container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns the shared PostgreSQL container, starting it on first
// use with every ledger schema applied.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.postgres == nil {
		m.postgres = NewPostgresContainer(t,
			identity.Schema,
			integrity.Schema,
			access.Schema,
			auditpg.Schema,
		)
	}
	return m.postgres
}

// GetRedis returns the shared Redis container, starting it on first use.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.redis == nil {
		m.redis = NewRedisContainer(t)
	}
	return m.redis
}
