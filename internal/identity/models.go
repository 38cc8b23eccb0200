// Package identity owns device identity records: the DID-addressable,
// key-addressable entries the rest of the ledger authorizes against.
package identity

import (
	"time"

	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
)

// DeviceIdentity is a registered device. DID and Key are immutable once
// created; only Active may toggle. Records are never deleted.
type DeviceIdentity struct {
	DID          id.DID
	Key          id.DeviceKey
	Controller   id.AccountID
	PublicKey    []byte // raw verification key material, opaque to the ledger
	Metadata     string
	RegisteredAt time.Time
	Active       bool
}

// NewDeviceIdentity validates inputs and builds an active device record.
// Uniqueness of DID and Key is the store's concern, not checked here.
func NewDeviceIdentity(did id.DID, key id.DeviceKey, controller id.AccountID, publicKey []byte, metadata string, now time.Time) (*DeviceIdentity, error) {
	if did == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "did is required")
	}
	if key.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "device key is required")
	}
	if controller.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "controller is required")
	}
	return &DeviceIdentity{
		DID:          did,
		Key:          key,
		Controller:   controller,
		PublicKey:    publicKey,
		Metadata:     metadata,
		RegisteredAt: now,
		Active:       true,
	}, nil
}
