// Package domain holds the typed identifiers shared across the ledger.
//
// IDs are distinct types over uuid.UUID so the compiler rejects cross-type
// assignment (an AccountID can never be passed where a DeviceKey is expected).
// Construct IDs via the Parse functions at trust boundaries; direct casting
// bypasses validation.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "iotledger/pkg/domain-errors"
)

// AccountID identifies a caller: an admin, a device controller, or a
// requester asking for access to a resource.
type AccountID uuid.UUID

// DeviceKey is the public-key identity of a registered device. It is the
// primary key of the device table and immutable once registered.
type DeviceKey uuid.UUID

// DID is a decentralized identifier naming a device independent of its key,
// e.g. "did:iot:temp-001".
type DID string

// ParseAccountID constructs an AccountID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

// ParseDeviceKey constructs a DeviceKey from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or the nil UUID.
func ParseDeviceKey(s string) (DeviceKey, error) {
	u, err := parseUUID(s)
	if err != nil {
		return DeviceKey{}, err
	}
	return DeviceKey(u), nil
}

// ParseDID validates a decentralized identifier. The ledger treats DIDs as
// opaque beyond the "did:" method prefix; uniqueness is enforced by the
// identity registry, not here.
func ParseDID(s string) (DID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "did cannot be empty")
	}
	if !strings.HasPrefix(s, "did:") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "did must use the did: scheme")
	}
	return DID(s), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

// IsZero reports whether the account ID is unset.
func (a AccountID) IsZero() bool { return uuid.UUID(a) == uuid.Nil }

func (a AccountID) String() string { return uuid.UUID(a).String() }

// IsZero reports whether the device key is unset.
func (k DeviceKey) IsZero() bool { return uuid.UUID(k) == uuid.Nil }

func (k DeviceKey) String() string { return uuid.UUID(k).String() }

func (d DID) String() string { return string(d) }
