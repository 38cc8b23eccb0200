//go:build integration

package identity_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"iotledger/internal/identity"
	id "iotledger/pkg/domain"
	"iotledger/pkg/platform/sentinel"
	"iotledger/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *identity.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = identity.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "devices"))
}

func (s *PostgresStoreSuite) newDevice(did string) *identity.DeviceIdentity {
	device, err := identity.NewDeviceIdentity(
		id.DID(did),
		id.DeviceKey(uuid.New()),
		id.AccountID(uuid.New()),
		[]byte("pubkey"),
		"bench sensor",
		time.Now().UTC().Truncate(time.Microsecond),
	)
	s.Require().NoError(err)
	return device
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	device := s.newDevice("did:iot:pg-1")
	s.Require().NoError(s.store.Create(ctx, device))

	byKey, err := s.store.FindByKey(ctx, device.Key)
	s.Require().NoError(err)
	s.Equal(device.DID, byKey.DID)
	s.Equal(device.Controller, byKey.Controller)
	s.True(byKey.Active)

	byDID, err := s.store.FindByDID(ctx, device.DID)
	s.Require().NoError(err)
	s.Equal(device.Key, byDID.Key)
}

func (s *PostgresStoreSuite) TestUniquenessIsTerminal() {
	ctx := context.Background()
	device := s.newDevice("did:iot:pg-dup")
	s.Require().NoError(s.store.Create(ctx, device))

	dupDID := s.newDevice("did:iot:pg-dup")
	s.ErrorIs(s.store.Create(ctx, dupDID), sentinel.ErrConflict)

	dupKey := s.newDevice("did:iot:pg-other")
	dupKey.Key = device.Key
	s.ErrorIs(s.store.Create(ctx, dupKey), sentinel.ErrConflict)

	// Deactivation does not free the did or key.
	_, err := s.store.Execute(ctx, device.Key,
		func(*identity.DeviceIdentity) error { return nil },
		func(d *identity.DeviceIdentity) { d.Active = false },
	)
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(ctx, s.newDevice("did:iot:pg-dup")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestExecute() {
	ctx := context.Background()
	device := s.newDevice("did:iot:pg-exec")
	s.Require().NoError(s.store.Create(ctx, device))

	s.Run("mutation applies when validate passes", func() {
		updated, err := s.store.Execute(ctx, device.Key,
			func(*identity.DeviceIdentity) error { return nil },
			func(d *identity.DeviceIdentity) { d.Active = false },
		)
		s.Require().NoError(err)
		s.False(updated.Active)

		found, err := s.store.FindByKey(ctx, device.Key)
		s.Require().NoError(err)
		s.False(found.Active)
	})

	s.Run("validate failure leaves the row untouched", func() {
		wantErr := errors.New("rejected")
		_, err := s.store.Execute(ctx, device.Key,
			func(*identity.DeviceIdentity) error { return wantErr },
			func(d *identity.DeviceIdentity) { d.Active = true },
		)
		s.ErrorIs(err, wantErr)

		found, err := s.store.FindByKey(ctx, device.Key)
		s.Require().NoError(err)
		s.False(found.Active)
	})

	s.Run("unknown key is not found", func() {
		_, err := s.store.Execute(ctx, id.DeviceKey(uuid.New()),
			func(*identity.DeviceIdentity) error { return nil },
			func(*identity.DeviceIdentity) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestConcurrentRegistrationSameDID() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var created atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Create(ctx, s.newDevice("did:iot:pg-race")); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), created.Load(), "exactly one registration may win")
	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestListKeysInsertionOrder() {
	ctx := context.Background()
	var want []id.DeviceKey
	for i := 0; i < 5; i++ {
		device := s.newDevice("did:iot:pg-order-" + string(rune('a'+i)))
		s.Require().NoError(s.store.Create(ctx, device))
		want = append(want, device.Key)
	}

	got, err := s.store.ListKeys(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)
}
