// Package ingest implements the device upload pipeline: a signed artifact
// comes in, the payload goes to the blobstore, and its digest is pinned in the
// ledger under the device's identity. The ledger write is keyed to the
// blobstore's content address, so a later VerifyDataIntegrity on the same
// resource ID proves the stored artifact is untouched.
package ingest

import (
	"context"
	"log/slog"

	"iotledger/internal/authn"
	"iotledger/internal/blobstore"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	"iotledger/internal/ledger"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
)

// Ledger is the slice of the ledger API the pipeline needs.
type Ledger interface {
	GetDeviceByDID(ctx context.Context, did id.DID) (*identity.DeviceIdentity, error)
	StoreDataHash(ctx context.Context, caller ledger.Caller, resourceID, dataType string, owner id.DeviceKey, hash id.IntegrityHash) (*integrity.DataRecord, error)
}

// Upload is one signed artifact submission.
type Upload struct {
	DID       id.DID
	DataType  string
	Payload   []byte
	Signature []byte
}

// Result reports where the artifact landed and the record pinning it.
type Result struct {
	ResourceID string
	Record     *integrity.DataRecord
}

// Service runs the upload pipeline.
type Service struct {
	ledger Ledger
	blobs  blobstore.Store
	logger *slog.Logger
}

func New(ledger Ledger, blobs blobstore.Store, logger *slog.Logger) *Service {
	return &Service{
		ledger: ledger,
		blobs:  blobs,
		logger: logger,
	}
}

// Ingest verifies the device signature, stores the payload, and records its
// digest. The signature is checked before anything is written: an upload that
// fails verification leaves no trace in either store.
func (s *Service) Ingest(ctx context.Context, upload Upload) (*Result, error) {
	if len(upload.Payload) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "payload is required")
	}
	if upload.DataType == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "data type is required")
	}

	device, err := s.ledger.GetDeviceByDID(ctx, upload.DID)
	if err != nil {
		return nil, err
	}
	if err := authn.VerifyDeviceSignature(device.PublicKey, upload.Payload, upload.Signature); err != nil {
		s.logger.WarnContext(ctx, "rejected upload with bad signature",
			"did", device.DID.String(),
		)
		return nil, err
	}

	resourceID, err := s.blobs.Add(ctx, upload.Payload)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store artifact")
	}

	// The ledger re-checks device status and capability under its own lock;
	// the pipeline acts as the device itself.
	caller := ledger.Caller{ID: device.Controller, Device: device.Key}
	record, err := s.ledger.StoreDataHash(ctx, caller, resourceID, upload.DataType, device.Key, id.DigestOf(upload.Payload))
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "artifact ingested",
		"did", device.DID.String(),
		"resource_id", resourceID,
	)
	return &Result{ResourceID: resourceID, Record: record}, nil
}
