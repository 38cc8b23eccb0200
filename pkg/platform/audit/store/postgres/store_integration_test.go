//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	audit "iotledger/pkg/platform/audit"
	auditpg "iotledger/pkg/platform/audit/store/postgres"
	"iotledger/pkg/testutil/containers"
)

type OutboxStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *auditpg.Store
}

func TestOutboxStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(OutboxStoreSuite))
}

func (s *OutboxStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = auditpg.New(s.postgres.DB)
}

func (s *OutboxStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_outbox"))
}

func (s *OutboxStoreSuite) appendEvent(kind audit.Kind, at time.Time) audit.Event {
	event := audit.Event{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: at,
	}
	s.Require().NoError(s.store.Append(context.Background(), event))
	return event
}

func (s *OutboxStoreSuite) TestAppendAndListOrder() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	first := s.appendEvent(audit.KindDeviceRegistered, base)
	second := s.appendEvent(audit.KindDataHashStored, base.Add(time.Second))

	events, err := s.store.ListAll(ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(first.ID, events[0].ID)
	s.Equal(second.ID, events[1].ID)

	recent, err := s.store.ListRecent(ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(recent, 1)
	s.Equal(second.ID, recent[0].ID)
}

func (s *OutboxStoreSuite) TestMarkPublished() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	delivered := s.appendEvent(audit.KindAccessGranted, base)
	pending := s.appendEvent(audit.KindAccessRevoked, base.Add(time.Second))

	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{delivered.ID}, time.Now()))

	unpublished, err := s.store.ListUnpublished(ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(unpublished, 1)
	s.Equal(pending.ID, unpublished[0].ID)

	// Stamping is idempotent and empty batches are a no-op.
	s.Require().NoError(s.store.MarkPublished(ctx, []uuid.UUID{delivered.ID}, time.Now()))
	s.Require().NoError(s.store.MarkPublished(ctx, nil, time.Now()))
}

func (s *OutboxStoreSuite) TestListUnpublishedHonorsLimit() {
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Microsecond)

	var appended []audit.Event
	for i := 0; i < 3; i++ {
		appended = append(appended, s.appendEvent(audit.KindDataHashStored, base.Add(time.Duration(i)*time.Second)))
	}

	batch, err := s.store.ListUnpublished(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(batch, 2)
	s.Equal(appended[0].ID, batch[0].ID)
	s.Equal(appended[1].ID, batch[1].ID)
}
