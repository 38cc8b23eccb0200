package authn

import (
	"crypto/ed25519"

	dErrors "iotledger/pkg/domain-errors"
)

// VerifyDeviceSignature checks an Ed25519 signature over a payload against a
// device's registered public key. The ingest pipeline uses this to establish
// that an upload really came from the device before any state is touched.
func VerifyDeviceSignature(publicKey, payload, signature []byte) error {
	if len(publicKey) != ed25519.PublicKeySize {
		return dErrors.New(dErrors.CodeUnauthorized, "device has no usable verification key")
	}
	if len(signature) != ed25519.SignatureSize {
		return dErrors.New(dErrors.CodeUnauthorized, "malformed device signature")
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, signature) {
		return dErrors.New(dErrors.CodeUnauthorized, "device signature does not match payload")
	}
	return nil
}
