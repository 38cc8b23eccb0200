package ledger

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"iotledger/internal/access"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	audit "iotledger/pkg/platform/audit"
	auditmem "iotledger/pkg/platform/audit/store/memory"
	"iotledger/pkg/requestcontext"
)

var baseTime = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

type LedgerSuite struct {
	suite.Suite
	ledger     *Ledger
	auditStore *auditmem.InMemoryStore

	admin      Caller
	controller Caller
	stranger   Caller
}

func (s *LedgerSuite) SetupTest() {
	s.auditStore = auditmem.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ledger = New(
		identity.NewInMemory(),
		integrity.NewInMemory(),
		access.NewInMemory(),
		WithAudit(audit.NewPublisher(s.auditStore, logger)),
		WithLogger(logger),
	)

	s.admin = Caller{ID: id.AccountID(uuid.New()), Admin: true}
	s.controller = Caller{ID: id.AccountID(uuid.New())}
	s.stranger = Caller{ID: id.AccountID(uuid.New())}
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

// at returns a context whose clock reads the given offset from baseTime.
func (s *LedgerSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), baseTime.Add(offset))
}

func (s *LedgerSuite) registerDevice(did string) *identity.DeviceIdentity {
	device, err := s.ledger.RegisterDevice(s.at(0), s.admin, id.DID(did), id.DeviceKey(uuid.New()), s.controller.ID, nil, "temperature sensor")
	s.Require().NoError(err)
	return device
}

func (s *LedgerSuite) storeRecord(device *identity.DeviceIdentity, resourceID string, payload []byte) id.IntegrityHash {
	hash := id.DigestOf(payload)
	_, err := s.ledger.StoreDataHash(s.at(0), s.controller, resourceID, "sensor", device.Key, hash)
	s.Require().NoError(err)
	return hash
}

func (s *LedgerSuite) auditKinds() []audit.Kind {
	events, err := s.auditStore.ListAll(context.Background())
	s.Require().NoError(err)
	kinds := make([]audit.Kind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

// -----------------------------------------------------------------------------
// Device registration
// -----------------------------------------------------------------------------

func (s *LedgerSuite) TestRegisterDevice() {
	s.Run("admin registers an active device", func() {
		device := s.registerDevice("did:iot:temp-001")
		s.True(device.Active)

		found, err := s.ledger.GetDeviceByDID(s.at(0), "did:iot:temp-001")
		s.Require().NoError(err)
		s.Equal(device.Key, found.Key)
	})

	s.Run("non-admin is rejected with no state change", func() {
		before, err := s.ledger.TotalDevices(s.at(0))
		s.Require().NoError(err)

		_, err = s.ledger.RegisterDevice(s.at(0), s.controller, "did:iot:rogue", id.DeviceKey(uuid.New()), s.controller.ID, nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		after, err := s.ledger.TotalDevices(s.at(0))
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("empty controller is invalid input", func() {
		_, err := s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:x", id.DeviceKey(uuid.New()), id.AccountID{}, nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func (s *LedgerSuite) TestRegistrationUniqueness() {
	s.Run("same did twice fails and cardinality is unchanged", func() {
		s.registerDevice("did:iot:dup")
		before, err := s.ledger.TotalDevices(s.at(0))
		s.Require().NoError(err)

		_, err = s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:dup", id.DeviceKey(uuid.New()), s.controller.ID, nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		after, err := s.ledger.TotalDevices(s.at(0))
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("same key with a different did fails", func() {
		device := s.registerDevice("did:iot:orig")
		_, err := s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:other", device.Key, s.controller.ID, nil, "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})

	s.Run("deactivation does not reopen the did or key", func() {
		device := s.registerDevice("did:iot:once")
		_, err := s.ledger.UpdateDeviceStatus(s.at(0), s.admin, device.Key, false)
		s.Require().NoError(err)

		_, err = s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:once", id.DeviceKey(uuid.New()), s.controller.ID, nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

		_, err = s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:fresh", device.Key, s.controller.ID, nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
	})
}

func (s *LedgerSuite) TestUpdateDeviceStatus() {
	device := s.registerDevice("did:iot:toggle")

	s.Run("controller can deactivate and reactivate", func() {
		updated, err := s.ledger.UpdateDeviceStatus(s.at(0), s.controller, device.Key, false)
		s.Require().NoError(err)
		s.False(updated.Active)

		updated, err = s.ledger.UpdateDeviceStatus(s.at(0), s.controller, device.Key, true)
		s.Require().NoError(err)
		s.True(updated.Active)
	})

	s.Run("stranger is rejected and the flag is untouched", func() {
		_, err := s.ledger.UpdateDeviceStatus(s.at(0), s.stranger, device.Key, false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		found, err := s.ledger.GetDeviceByDID(s.at(0), device.DID)
		s.Require().NoError(err)
		s.True(found.Active)
	})

	s.Run("unknown device is not found", func() {
		_, err := s.ledger.UpdateDeviceStatus(s.at(0), s.admin, id.DeviceKey(uuid.New()), false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LedgerSuite) TestGetDeviceByDID() {
	_, err := s.ledger.GetDeviceByDID(s.at(0), "did:iot:nowhere")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// -----------------------------------------------------------------------------
// Integrity records
// -----------------------------------------------------------------------------

func (s *LedgerSuite) TestStoreDataHash() {
	device := s.registerDevice("did:iot:sensor")

	s.Run("controller stores a record", func() {
		hash := s.storeRecord(device, "blob-1", []byte("reading-1"))
		s.True(s.ledger.VerifyDataIntegrity(s.at(0), "blob-1", hash))
	})

	s.Run("the device itself stores a record", func() {
		deviceCaller := Caller{ID: id.AccountID(uuid.New()), Device: device.Key}
		hash := id.DigestOf([]byte("reading-2"))
		_, err := s.ledger.StoreDataHash(s.at(0), deviceCaller, "blob-2", "sensor", device.Key, hash)
		s.Require().NoError(err)
	})

	s.Run("admin without controller role is rejected", func() {
		_, err := s.ledger.StoreDataHash(s.at(0), s.admin, "blob-admin", "sensor", device.Key, id.DigestOf([]byte("x")))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.False(s.ledger.VerifyDataIntegrity(s.at(0), "blob-admin", id.DigestOf([]byte("x"))))
	})

	s.Run("stranger is rejected with no record created", func() {
		before, err := s.ledger.TotalDataRecords(s.at(0))
		s.Require().NoError(err)

		_, err = s.ledger.StoreDataHash(s.at(0), s.stranger, "blob-rogue", "sensor", device.Key, id.DigestOf([]byte("y")))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		after, err := s.ledger.TotalDataRecords(s.at(0))
		s.Require().NoError(err)
		s.Equal(before, after)
	})

	s.Run("empty data type is invalid input", func() {
		_, err := s.ledger.StoreDataHash(s.at(0), s.controller, "blob-3", "", device.Key, id.DigestOf([]byte("z")))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("unknown owner device is not found", func() {
		_, err := s.ledger.StoreDataHash(s.at(0), s.controller, "blob-4", "sensor", id.DeviceKey(uuid.New()), id.DigestOf([]byte("w")))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *LedgerSuite) TestStoreDataHashInactiveDevice() {
	device := s.registerDevice("did:iot:dormant")
	_, err := s.ledger.UpdateDeviceStatus(s.at(0), s.controller, device.Key, false)
	s.Require().NoError(err)

	_, err = s.ledger.StoreDataHash(s.at(0), s.controller, "blob-dormant", "sensor", device.Key, id.DigestOf([]byte("r")))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInactiveDevice))
}

func (s *LedgerSuite) TestWriteOnceResource() {
	device := s.registerDevice("did:iot:wo")
	original := s.storeRecord(device, "blob-wo", []byte("original"))

	_, err := s.ledger.StoreDataHash(s.at(0), s.controller, "blob-wo", "sensor", device.Key, id.DigestOf([]byte("tampered")))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))

	// The original digest must survive the rejected overwrite.
	s.True(s.ledger.VerifyDataIntegrity(s.at(0), "blob-wo", original))
	s.False(s.ledger.VerifyDataIntegrity(s.at(0), "blob-wo", id.DigestOf([]byte("tampered"))))
}

func (s *LedgerSuite) TestVerifyDataIntegrity() {
	device := s.registerDevice("did:iot:verify")
	hash := s.storeRecord(device, "blob-v", []byte("payload"))

	s.True(s.ledger.VerifyDataIntegrity(s.at(0), "blob-v", hash))
	s.False(s.ledger.VerifyDataIntegrity(s.at(0), "blob-v", id.DigestOf([]byte("other"))))
	s.False(s.ledger.VerifyDataIntegrity(s.at(0), "blob-unknown", hash), "unknown resource is a definitive no, not an error")
}

func (s *LedgerSuite) TestGetDeviceDataHashes() {
	device := s.registerDevice("did:iot:lister")
	s.storeRecord(device, "blob-l1", []byte("a"))
	s.storeRecord(device, "blob-l2", []byte("b"))

	records, err := s.ledger.GetDeviceDataHashes(s.at(0), device.Key)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("blob-l1", records[0].ResourceID)
	s.Equal("blob-l2", records[1].ResourceID)

	s.Run("unknown device yields an empty list", func() {
		records, err := s.ledger.GetDeviceDataHashes(s.at(0), id.DeviceKey(uuid.New()))
		s.Require().NoError(err)
		s.Empty(records)
	})
}

// -----------------------------------------------------------------------------
// Access control
// -----------------------------------------------------------------------------

func (s *LedgerSuite) TestGrantAccessUnlimited() {
	device := s.registerDevice("did:iot:open")
	s.storeRecord(device, "blob-open", []byte("data"))
	requester := id.AccountID(uuid.New())

	_, err := s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-open", time.Time{})
	s.Require().NoError(err)

	// Zero expiry holds arbitrarily far into the future.
	s.True(s.ledger.CheckAccess(s.at(0), requester, "blob-open"))
	s.True(s.ledger.CheckAccess(s.at(24*time.Hour*365*100), requester, "blob-open"))
}

func (s *LedgerSuite) TestGrantAccessExpiry() {
	device := s.registerDevice("did:iot:timed")
	s.storeRecord(device, "blob-timed", []byte("data"))
	requester := id.AccountID(uuid.New())
	expiry := baseTime.Add(time.Hour)

	_, err := s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-timed", expiry)
	s.Require().NoError(err)

	s.True(s.ledger.CheckAccess(s.at(0), requester, "blob-timed"))
	s.True(s.ledger.CheckAccess(s.at(time.Hour), requester, "blob-timed"), "access holds exactly at the expiry instant")
	s.False(s.ledger.CheckAccess(s.at(time.Hour+time.Second), requester, "blob-timed"), "access lapses after the expiry instant")

	s.Run("expiry is evaluated lazily, not stored", func() {
		// After lapsing, an earlier clock still sees the grant: nothing was
		// flipped by the passage of time.
		s.True(s.ledger.CheckAccess(s.at(30*time.Minute), requester, "blob-timed"))
	})

	s.Run("re-grant after expiry restores access", func() {
		_, err := s.ledger.GrantAccess(s.at(2*time.Hour), s.controller, requester, "blob-timed", time.Time{})
		s.Require().NoError(err)
		s.True(s.ledger.CheckAccess(s.at(3*time.Hour), requester, "blob-timed"))
	})
}

func (s *LedgerSuite) TestRevokeAccess() {
	device := s.registerDevice("did:iot:revocable")
	s.storeRecord(device, "blob-r", []byte("data"))
	requester := id.AccountID(uuid.New())

	_, err := s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-r", baseTime.Add(time.Hour))
	s.Require().NoError(err)

	s.Run("revocation is immediate, even before expiry", func() {
		s.Require().NoError(s.ledger.RevokeAccess(s.at(time.Minute), s.controller, requester, "blob-r"))
		s.False(s.ledger.CheckAccess(s.at(time.Minute), requester, "blob-r"))
	})

	s.Run("revoked permission can be re-granted", func() {
		_, err := s.ledger.GrantAccess(s.at(2*time.Minute), s.admin, requester, "blob-r", time.Time{})
		s.Require().NoError(err)
		s.True(s.ledger.CheckAccess(s.at(3*time.Minute), requester, "blob-r"))
	})

	s.Run("revoking a grant that was never made is a no-op", func() {
		s.Require().NoError(s.ledger.RevokeAccess(s.at(0), s.controller, id.AccountID(uuid.New()), "blob-r"))
	})
}

func (s *LedgerSuite) TestAccessAuthorization() {
	device := s.registerDevice("did:iot:guarded")
	s.storeRecord(device, "blob-g", []byte("data"))
	requester := id.AccountID(uuid.New())

	s.Run("unknown resource is not found", func() {
		_, err := s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-missing", time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("stranger cannot grant", func() {
		_, err := s.ledger.GrantAccess(s.at(0), s.stranger, requester, "blob-g", time.Time{})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.False(s.ledger.CheckAccess(s.at(0), requester, "blob-g"))
	})

	s.Run("stranger cannot revoke", func() {
		_, err := s.ledger.GrantAccess(s.at(0), s.admin, requester, "blob-g", time.Time{})
		s.Require().NoError(err)

		err = s.ledger.RevokeAccess(s.at(0), s.stranger, requester, "blob-g")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.True(s.ledger.CheckAccess(s.at(0), requester, "blob-g"), "failed revoke must not change state")
	})
}

// -----------------------------------------------------------------------------
// Counters and audit trail
// -----------------------------------------------------------------------------

func (s *LedgerSuite) TestCountersMatchSuccessfulMutations() {
	first := s.registerDevice("did:iot:c1")
	s.registerDevice("did:iot:c2")

	// A failed registration must not count.
	_, err := s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:c1", id.DeviceKey(uuid.New()), s.controller.ID, nil, "")
	s.Require().Error(err)

	devices, err := s.ledger.TotalDevices(s.at(0))
	s.Require().NoError(err)
	s.Equal(2, devices)

	s.storeRecord(first, "blob-c1", []byte("a"))
	s.storeRecord(first, "blob-c2", []byte("b"))
	_, err = s.ledger.StoreDataHash(s.at(0), s.stranger, "blob-c3", "sensor", first.Key, id.DigestOf([]byte("c")))
	s.Require().Error(err)

	records, err := s.ledger.TotalDataRecords(s.at(0))
	s.Require().NoError(err)
	s.Equal(2, records)
}

func (s *LedgerSuite) TestAuditTrail() {
	device := s.registerDevice("did:iot:audited")
	hash := s.storeRecord(device, "blob-a", []byte("data"))
	requester := id.AccountID(uuid.New())

	_, err := s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-a", time.Time{})
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.RevokeAccess(s.at(0), s.controller, requester, "blob-a"))
	_, err = s.ledger.UpdateDeviceStatus(s.at(0), s.admin, device.Key, false)
	s.Require().NoError(err)

	// Failed mutations must not append events.
	_, err = s.ledger.StoreDataHash(s.at(0), s.stranger, "blob-b", "sensor", device.Key, hash)
	s.Require().Error(err)

	s.Equal([]audit.Kind{
		audit.KindDeviceRegistered,
		audit.KindDataHashStored,
		audit.KindAccessGranted,
		audit.KindAccessRevoked,
		audit.KindDeviceStatusUpdated,
	}, s.auditKinds())

	events, err := s.ledger.AuditTrail(s.at(0), 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.KindDeviceStatusUpdated, events[1].Kind)
}

// -----------------------------------------------------------------------------
// End-to-end scenario
// -----------------------------------------------------------------------------

func (s *LedgerSuite) TestEndToEndScenario() {
	key := id.DeviceKey(uuid.New())
	requester := id.AccountID(uuid.New())

	// Admin registers the device for controller C1.
	_, err := s.ledger.RegisterDevice(s.at(0), s.admin, "did:iot:temp-001", key, s.controller.ID, nil, "rooftop sensor")
	s.Require().NoError(err)

	// C1 records the integrity hash for blob-42.
	h1 := id.DigestOf([]byte(`{"temperature":21.5}`))
	h2 := id.DigestOf([]byte(`{"temperature":99.9}`))
	_, err = s.ledger.StoreDataHash(s.at(0), s.controller, "blob-42", "temperature", key, h1)
	s.Require().NoError(err)

	s.True(s.ledger.VerifyDataIntegrity(s.at(0), "blob-42", h1))
	s.False(s.ledger.VerifyDataIntegrity(s.at(0), "blob-42", h2))

	// C1 grants U1 an hour of access.
	_, err = s.ledger.GrantAccess(s.at(0), s.controller, requester, "blob-42", baseTime.Add(time.Hour))
	s.Require().NoError(err)
	s.True(s.ledger.CheckAccess(s.at(0), requester, "blob-42"))

	// Past the expiry the grant lapses without any stored transition.
	s.False(s.ledger.CheckAccess(s.at(time.Hour+time.Second), requester, "blob-42"))

	// A fresh grant revoked before expiry is dead immediately.
	_, err = s.ledger.GrantAccess(s.at(2*time.Hour), s.controller, requester, "blob-42", baseTime.Add(3*time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.ledger.RevokeAccess(s.at(2*time.Hour+time.Minute), s.controller, requester, "blob-42"))
	s.False(s.ledger.CheckAccess(s.at(2*time.Hour+time.Minute), requester, "blob-42"))
}
