// Package ledger composes the identity registry, the integrity ledger, and
// the access-control ledger behind one atomic, serialized API surface.
//
// Every mutating operation runs under a single write lock spanning all three
// sub-stores: the capability check, the mutation, and the audit emission
// observe (and produce) one consistent state, and no operation ever sees a
// partially applied update from another. Queries share a read lock and never
// block each other. Failed operations leave every sub-store untouched and
// emit nothing.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"iotledger/internal/access"
	"iotledger/internal/authz"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	ledgermetrics "iotledger/internal/ledger/metrics"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	audit "iotledger/pkg/platform/audit"
	"iotledger/pkg/platform/sentinel"
	"iotledger/pkg/requestcontext"
)

// Caller is the already-authenticated identity performing an operation.
type Caller = requestcontext.AuthenticatedCaller

// Ledger is the orchestrator. Construct with New; the zero value is not
// usable.
type Ledger struct {
	mu sync.RWMutex

	devices     identity.Store
	records     integrity.Store
	permissions access.Store

	audit   *audit.Publisher
	metrics *ledgermetrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures optional ledger collaborators.
type Option func(*Ledger)

// WithAudit attaches the audit publisher. Without it mutations are not
// recorded, which is acceptable only in tests.
func WithAudit(publisher *audit.Publisher) Option {
	return func(l *Ledger) { l.audit = publisher }
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func New(devices identity.Store, records integrity.Store, permissions access.Store, opts ...Option) *Ledger {
	l := &Ledger{
		devices:     devices,
		records:     records,
		permissions: permissions,
		logger:      slog.Default(),
		tracer:      otel.Tracer("iotledger/ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// -----------------------------------------------------------------------------
// Identity registry operations
// -----------------------------------------------------------------------------

// RegisterDevice creates an active device identity under a fresh DID and
// device key. Admin capability required. Registration is terminal: a DID or
// key, once consumed, can never be registered again.
func (l *Ledger) RegisterDevice(ctx context.Context, caller Caller, did id.DID, key id.DeviceKey, controller id.AccountID, publicKey []byte, metadata string) (*identity.DeviceIdentity, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.RegisterDevice")
	defer span.End()
	start := time.Now()

	if !authz.IsAdmin(caller) {
		return nil, l.unauthorized(ctx, "device registration requires admin capability")
	}
	device, err := identity.NewDeviceIdentity(did, key, controller, publicKey, metadata, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.devices.Create(ctx, device); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyExists, "did or device key already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register device")
	}

	l.emit(ctx, audit.Event{
		Kind:      audit.KindDeviceRegistered,
		DeviceKey: device.Key,
		DID:       device.DID,
		Actor:     caller.ID,
	})
	l.metrics.IncDeviceRegistered()
	l.metrics.ObserveMutation(start)
	return device, nil
}

// UpdateDeviceStatus toggles the active flag. Controller or admin only.
func (l *Ledger) UpdateDeviceStatus(ctx context.Context, caller Caller, key id.DeviceKey, active bool) (*identity.DeviceIdentity, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.UpdateDeviceStatus")
	defer span.End()
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	var unauthorized error
	device, err := l.devices.Execute(ctx, key,
		func(d *identity.DeviceIdentity) error {
			if !authz.CanAdminister(caller, d) {
				unauthorized = l.unauthorized(ctx, "status update requires the device controller or admin")
				return unauthorized
			}
			return nil
		},
		func(d *identity.DeviceIdentity) {
			d.Active = active
		},
	)
	if err != nil {
		if unauthorized != nil {
			return nil, unauthorized
		}
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "device not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update device status")
	}

	l.emit(ctx, audit.Event{
		Kind:      audit.KindDeviceStatusUpdated,
		DeviceKey: device.Key,
		DID:       device.DID,
		Actor:     caller.ID,
	})
	l.metrics.ObserveMutation(start)
	return device, nil
}

// GetDeviceByDID resolves the DID index.
func (l *Ledger) GetDeviceByDID(ctx context.Context, did id.DID) (*identity.DeviceIdentity, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	device, err := l.devices.FindByDID(ctx, did)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "did not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve did")
	}
	return device, nil
}

// TotalDevices returns the number of registered devices, active or not.
func (l *Ledger) TotalDevices(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.devices.Count(ctx)
}

// -----------------------------------------------------------------------------
// Integrity ledger operations
// -----------------------------------------------------------------------------

// StoreDataHash records the write-once integrity digest for an externally
// stored artifact. The owning device must be active, and the caller must be
// its controller or the device identity itself; admin capability deliberately
// does not qualify.
func (l *Ledger) StoreDataHash(ctx context.Context, caller Caller, resourceID, dataType string, owner id.DeviceKey, hash id.IntegrityHash) (*integrity.DataRecord, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.StoreDataHash")
	defer span.End()
	start := time.Now()

	record, err := integrity.NewDataRecord(resourceID, dataType, owner, hash, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	device, err := l.devices.FindByKey(ctx, owner)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "owner device not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load owner device")
	}
	if !authz.IsActiveDevice(device) {
		return nil, dErrors.New(dErrors.CodeInactiveDevice, "owner device is deactivated")
	}
	if !authz.CanWriteFor(caller, device) {
		return nil, l.unauthorized(ctx, "storing data requires the device controller or the device itself")
	}
	if err := l.records.Create(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeAlreadyExists, "resource already recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store data hash")
	}

	l.emit(ctx, audit.Event{
		Kind:       audit.KindDataHashStored,
		DeviceKey:  owner,
		DID:        device.DID,
		ResourceID: resourceID,
		Actor:      caller.ID,
	})
	l.metrics.IncDataRecordStored()
	l.metrics.ObserveMutation(start)
	return record, nil
}

// VerifyDataIntegrity reports whether a valid record exists for resourceID
// with exactly the candidate digest. Never errors: unknown resources are a
// definitive no, not an exceptional input.
func (l *Ledger) VerifyDataIntegrity(ctx context.Context, resourceID string, candidate id.IntegrityHash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, err := l.records.FindByResource(ctx, resourceID)
	if err != nil {
		return false
	}
	return record.Matches(candidate)
}

// GetDeviceDataHashes lists the records owned by a device in insertion order.
// Unknown devices yield an empty list.
func (l *Ledger) GetDeviceDataHashes(ctx context.Context, key id.DeviceKey) ([]*integrity.DataRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records.ListByOwner(ctx, key)
}

// TotalDataRecords returns the number of stored integrity records.
func (l *Ledger) TotalDataRecords(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.records.Count(ctx)
}

// -----------------------------------------------------------------------------
// Access control operations
// -----------------------------------------------------------------------------

// GrantAccess upserts a time-bounded permission for (requester, resource).
// The caller must be the controller of the resource's owning device, or
// admin. A zero expiry never lapses. Re-granting overwrites any prior entry,
// including revoked or expired ones.
func (l *Ledger) GrantAccess(ctx context.Context, caller Caller, requester id.AccountID, resourceID string, expiresAt time.Time) (*access.AccessPermission, error) {
	ctx, span := l.tracer.Start(ctx, "ledger.GrantAccess")
	defer span.End()
	start := time.Now()

	if requester.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "requester is required")
	}
	if resourceID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "resource id is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	device, err := l.resourceOwner(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	if !authz.CanAdminister(caller, device) {
		return nil, l.unauthorized(ctx, "granting access requires the resource owner's controller or admin")
	}

	permission := access.AccessPermission{
		Requester:  requester,
		ResourceID: resourceID,
		Granted:    true,
		GrantedAt:  requestcontext.Now(ctx),
		ExpiresAt:  expiresAt,
	}
	if err := l.permissions.Upsert(ctx, permission); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to grant access")
	}

	l.emit(ctx, audit.Event{
		Kind:       audit.KindAccessGranted,
		DeviceKey:  device.Key,
		ResourceID: resourceID,
		Requester:  requester,
		Actor:      caller.ID,
	})
	l.metrics.IncAccessGranted()
	l.metrics.ObserveMutation(start)
	return &permission, nil
}

// RevokeAccess clears the granted flag for (requester, resource). Revoking a
// grant that was never made is a no-op, not an error. Same capability rule as
// GrantAccess.
func (l *Ledger) RevokeAccess(ctx context.Context, caller Caller, requester id.AccountID, resourceID string) error {
	ctx, span := l.tracer.Start(ctx, "ledger.RevokeAccess")
	defer span.End()
	start := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	device, err := l.resourceOwner(ctx, resourceID)
	if err != nil {
		return err
	}
	if !authz.CanAdminister(caller, device) {
		return l.unauthorized(ctx, "revoking access requires the resource owner's controller or admin")
	}

	if err := l.permissions.Revoke(ctx, requester, resourceID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke access")
	}

	l.emit(ctx, audit.Event{
		Kind:       audit.KindAccessRevoked,
		DeviceKey:  device.Key,
		ResourceID: resourceID,
		Requester:  requester,
		Actor:      caller.ID,
	})
	l.metrics.IncAccessRevoked()
	l.metrics.ObserveMutation(start)
	return nil
}

// CheckAccess reports whether the requester holds effective access to the
// resource right now. Expiry is evaluated on every call against the
// request-scoped clock; the stored entry is never modified by time passing.
// Never errors: unknown pairs are a definitive no.
func (l *Ledger) CheckAccess(ctx context.Context, requester id.AccountID, resourceID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	permission, err := l.permissions.Find(ctx, requester, resourceID)
	if err != nil {
		return false
	}
	return permission.EffectiveAt(requestcontext.Now(ctx))
}

// -----------------------------------------------------------------------------
// Audit trail
// -----------------------------------------------------------------------------

// AuditTrail returns the most recent audit events, oldest first.
func (l *Ledger) AuditTrail(ctx context.Context, limit int) ([]audit.Event, error) {
	if l.audit == nil {
		return nil, nil
	}
	return l.audit.ListRecent(ctx, limit)
}

// -----------------------------------------------------------------------------
// Internal helpers
// -----------------------------------------------------------------------------

// resourceOwner loads the device owning a resource. Must be called under a
// lock so the authorization check and the mutation see the same snapshot.
func (l *Ledger) resourceOwner(ctx context.Context, resourceID string) (*identity.DeviceIdentity, error) {
	record, err := l.records.FindByResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "resource not recorded")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resource record")
	}
	device, err := l.devices.FindByKey(ctx, record.OwnerKey)
	if err != nil {
		// A record always references a registered device; a miss here means
		// the stores disagree.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "resource owner missing from identity registry")
	}
	return device, nil
}

func (l *Ledger) unauthorized(ctx context.Context, message string) error {
	l.metrics.IncUnauthorized()
	l.logger.WarnContext(ctx, "capability check failed",
		"reason", message,
		"request_id", requestcontext.RequestID(ctx),
	)
	return dErrors.New(dErrors.CodeUnauthorized, message)
}

// emit records a successful mutation. Delivery failures are logged, never
// surfaced: the mutation has already committed and its result does not depend
// on audit delivery.
func (l *Ledger) emit(ctx context.Context, event audit.Event) {
	if l.audit == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := l.audit.Emit(ctx, event); err != nil {
		l.logger.ErrorContext(ctx, "audit emission failed",
			"kind", string(event.Kind),
			"error", err,
		)
	}
}
