package handler

import (
	"encoding/base64"
	"time"

	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
)

type registerDeviceRequest struct {
	DID        string `json:"did"`
	DeviceKey  string `json:"device_key"`
	Controller string `json:"controller"`
	PublicKey  string `json:"public_key,omitempty"` // base64, raw key material
	Metadata   string `json:"metadata,omitempty"`
}

type parsedRegisterDevice struct {
	did        id.DID
	key        id.DeviceKey
	controller id.AccountID
	publicKey  []byte
}

func (r registerDeviceRequest) parse() (parsedRegisterDevice, error) {
	var out parsedRegisterDevice
	var err error
	if out.did, err = id.ParseDID(r.DID); err != nil {
		return out, err
	}
	if out.key, err = id.ParseDeviceKey(r.DeviceKey); err != nil {
		return out, err
	}
	if out.controller, err = id.ParseAccountID(r.Controller); err != nil {
		return out, err
	}
	if r.PublicKey != "" {
		if out.publicKey, err = base64.StdEncoding.DecodeString(r.PublicKey); err != nil {
			return out, dErrors.New(dErrors.CodeBadRequest, "public_key must be base64 encoded")
		}
	}
	return out, nil
}

type updateStatusRequest struct {
	// Pointer so a missing field is distinguishable from an explicit false.
	Active *bool `json:"active"`
}

type storeRecordRequest struct {
	ResourceID string `json:"resource_id"`
	DataType   string `json:"data_type"`
	OwnerKey   string `json:"owner_key"`
	Hash       string `json:"hash"` // hex-encoded sha-256
}

type parsedStoreRecord struct {
	owner id.DeviceKey
	hash  id.IntegrityHash
}

func (r storeRecordRequest) parse() (parsedStoreRecord, error) {
	var out parsedStoreRecord
	var err error
	if out.owner, err = id.ParseDeviceKey(r.OwnerKey); err != nil {
		return out, err
	}
	if out.hash, err = id.ParseIntegrityHash(r.Hash); err != nil {
		return out, err
	}
	return out, nil
}

type grantAccessRequest struct {
	Requester  string `json:"requester"`
	ResourceID string `json:"resource_id"`
	// RFC 3339; omitted or empty means the grant never expires.
	ExpiresAt string `json:"expires_at,omitempty"`
}

type parsedGrantAccess struct {
	requester id.AccountID
	expiresAt time.Time
}

func (r grantAccessRequest) parse() (parsedGrantAccess, error) {
	var out parsedGrantAccess
	var err error
	if out.requester, err = id.ParseAccountID(r.Requester); err != nil {
		return out, err
	}
	if r.ExpiresAt != "" {
		if out.expiresAt, err = time.Parse(time.RFC3339, r.ExpiresAt); err != nil {
			return out, dErrors.New(dErrors.CodeBadRequest, "expires_at must be RFC 3339")
		}
	}
	return out, nil
}

type revokeAccessRequest struct {
	Requester  string `json:"requester"`
	ResourceID string `json:"resource_id"`
}
