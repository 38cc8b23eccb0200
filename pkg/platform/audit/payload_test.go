package audit_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "iotledger/pkg/domain"
	audit "iotledger/pkg/platform/audit"
)

// The wire payload is a consumer contract; the golden file pins it so an
// accidental field rename shows up as a diff, not a broken consumer.
func TestMarshalPayloadGolden(t *testing.T) {
	event := audit.Event{
		ID:         uuid.MustParse("6fa459ea-ee8a-3ca4-894e-db77e160355e"),
		Kind:       audit.KindDataHashStored,
		Timestamp:  time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC),
		DeviceKey:  id.DeviceKey(uuid.MustParse("886313e1-3b8a-5372-9b90-0c9aee199e5d")),
		DID:        "did:iot:temp-001",
		ResourceID: "blob-42",
		Requester:  id.AccountID(uuid.MustParse("16fd2706-8baf-433b-82eb-8c7fada847da")),
		Actor:      id.AccountID(uuid.MustParse("91461c99-f89d-49d2-af96-d8e2e14e9b58")),
		RequestID:  "req-123",
	}

	payload, err := audit.MarshalPayload(event)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "data_hash_stored", payload)
}

func TestPayloadRoundTrip(t *testing.T) {
	event := audit.Event{
		ID:         uuid.New(),
		Kind:       audit.KindAccessGranted,
		Timestamp:  time.Date(2026, 8, 27, 10, 0, 0, 123456789, time.UTC),
		DeviceKey:  id.DeviceKey(uuid.New()),
		DID:        "did:iot:cam-007",
		ResourceID: "bafybeigdyrzt5",
		Requester:  id.AccountID(uuid.New()),
		Actor:      id.AccountID(uuid.New()),
	}

	payload, err := audit.MarshalPayload(event)
	require.NoError(t, err)

	decoded, err := audit.UnmarshalPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, event, decoded)
}

func TestUnmarshalPayloadRejectsGarbage(t *testing.T) {
	_, err := audit.UnmarshalPayload([]byte(`{"id":"not-a-uuid"}`))
	assert.Error(t, err)
}
