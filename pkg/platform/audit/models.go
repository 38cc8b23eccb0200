// Package audit provides the append-only record of every successful ledger
// mutation. Events are emitted synchronously after a mutation commits and
// fanned out to external sinks (Kafka, SQL) asynchronously; delivery never
// gates the mutation's result, but emission order matches mutation order.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "iotledger/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with regulatory significance: identity
	// registrations, integrity records, permission changes. These require
	// tamper-proof storage and long retention.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring, such as
	// device deactivations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity useful for debugging; these
	// can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Kind names a ledger mutation.
type Kind string

const (
	KindDeviceRegistered    Kind = "device_registered"
	KindDeviceStatusUpdated Kind = "device_status_updated"
	KindDataHashStored      Kind = "data_hash_stored"
	KindAccessGranted       Kind = "access_granted"
	KindAccessRevoked       Kind = "access_revoked"
)

// kindCategories maps each event kind to its category.
var kindCategories = map[Kind]EventCategory{
	KindDeviceRegistered:    CategoryCompliance,
	KindDataHashStored:      CategoryCompliance,
	KindAccessGranted:       CategoryCompliance,
	KindAccessRevoked:       CategoryCompliance,
	KindDeviceStatusUpdated: CategorySecurity,
}

// Category returns the EventCategory for this kind. Unknown kinds default to
// CategoryOperations.
func (k Kind) Category() EventCategory {
	if cat, ok := kindCategories[k]; ok {
		return cat
	}
	return CategoryOperations
}

// Event captures one successful mutation. It holds weak references (plain
// identifiers) into the ledger stores and is never mutated after creation.
type Event struct {
	ID        uuid.UUID
	Kind      Kind
	Timestamp time.Time

	// Identifiers of the affected entities; zero values where not applicable.
	DeviceKey  id.DeviceKey
	DID        id.DID
	ResourceID string
	Requester  id.AccountID

	// Actor is the authenticated caller that performed the mutation.
	Actor id.AccountID

	// RequestID is the transport correlation ID, when the mutation originated
	// from an HTTP request.
	RequestID string
}
