package domain

import (
	"crypto/sha256"
	"encoding/hex"

	dErrors "iotledger/pkg/domain-errors"
)

// IntegrityHash is the fixed-size digest recorded for an external artifact.
// The ledger only ever compares these byte-for-byte; it never inspects the
// artifact behind the resource ID.
type IntegrityHash [sha256.Size]byte

// DigestOf computes the integrity hash of raw artifact bytes.
func DigestOf(data []byte) IntegrityHash {
	return IntegrityHash(sha256.Sum256(data))
}

// ParseIntegrityHash decodes a hex-encoded 32-byte digest from external input.
// Errors: CodeInvalidInput when the value is empty, not hex, or the wrong length.
func ParseIntegrityHash(s string) (IntegrityHash, error) {
	if s == "" {
		return IntegrityHash{}, dErrors.New(dErrors.CodeInvalidInput, "integrity hash cannot be empty")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return IntegrityHash{}, dErrors.New(dErrors.CodeInvalidInput, "integrity hash must be hex encoded")
	}
	if len(raw) != sha256.Size {
		return IntegrityHash{}, dErrors.New(dErrors.CodeInvalidInput, "integrity hash must be 32 bytes")
	}
	var h IntegrityHash
	copy(h[:], raw)
	return h, nil
}

// IsZero reports whether the hash is unset. The all-zero digest is treated as
// absent because no real artifact hashes to it in practice.
func (h IntegrityHash) IsZero() bool { return h == IntegrityHash{} }

func (h IntegrityHash) String() string { return hex.EncodeToString(h[:]) }
