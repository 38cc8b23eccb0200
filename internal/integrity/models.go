// Package integrity owns write-once data-integrity records: one fixed digest
// per externally stored artifact, keyed by its storage identifier.
package integrity

import (
	"time"

	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
)

// DataRecord pins the integrity hash of an external artifact. A resource ID,
// once occupied, is never overwritten or removed; Valid is set at creation and
// there is no update path.
type DataRecord struct {
	ResourceID string
	DataType   string
	OwnerKey   id.DeviceKey
	Hash       id.IntegrityHash
	CreatedAt  time.Time
	Valid      bool
}

// NewDataRecord validates inputs and builds a valid record. Write-once
// enforcement on ResourceID is the store's concern.
func NewDataRecord(resourceID, dataType string, owner id.DeviceKey, hash id.IntegrityHash, now time.Time) (*DataRecord, error) {
	if resourceID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "resource id is required")
	}
	if dataType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "data type is required")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "owner device key is required")
	}
	if hash.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "integrity hash is required")
	}
	return &DataRecord{
		ResourceID: resourceID,
		DataType:   dataType,
		OwnerKey:   owner,
		Hash:       hash,
		CreatedAt:  now,
		Valid:      true,
	}, nil
}

// Matches reports whether the stored digest equals the candidate and the
// record is valid.
func (r *DataRecord) Matches(candidate id.IntegrityHash) bool {
	return r.Valid && r.Hash == candidate
}
