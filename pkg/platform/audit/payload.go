package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "iotledger/pkg/domain"
)

// wirePayload is the JSON structure shared by the Kafka publisher and the SQL
// outbox. Field names are part of the consumer contract; treat them as stable.
type wirePayload struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Category   string `json:"category"`
	Timestamp  string `json:"timestamp"`
	DeviceKey  string `json:"device_key,omitempty"`
	DID        string `json:"did,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	Requester  string `json:"requester,omitempty"`
	Actor      string `json:"actor,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// MarshalPayload encodes an event for external consumers.
func MarshalPayload(event Event) ([]byte, error) {
	payload := wirePayload{
		ID:         event.ID.String(),
		Kind:       string(event.Kind),
		Category:   string(event.Kind.Category()),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		ResourceID: event.ResourceID,
		DID:        event.DID.String(),
		RequestID:  event.RequestID,
	}
	if !event.DeviceKey.IsZero() {
		payload.DeviceKey = event.DeviceKey.String()
	}
	if !event.Requester.IsZero() {
		payload.Requester = event.Requester.String()
	}
	if !event.Actor.IsZero() {
		payload.Actor = event.Actor.String()
	}
	return json.Marshal(payload)
}

// UnmarshalPayload decodes an event produced by MarshalPayload. Used by
// consumers and tests; decode failures surface as-is.
func UnmarshalPayload(data []byte) (Event, error) {
	var payload wirePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Event{}, err
	}
	event := Event{
		Kind:       Kind(payload.Kind),
		ResourceID: payload.ResourceID,
		RequestID:  payload.RequestID,
	}
	if payload.ID != "" {
		parsed, err := uuid.Parse(payload.ID)
		if err != nil {
			return Event{}, err
		}
		event.ID = parsed
	}
	if payload.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp)
		if err != nil {
			return Event{}, err
		}
		event.Timestamp = ts
	}
	event.DID = id.DID(payload.DID)
	if payload.DeviceKey != "" {
		parsed, err := uuid.Parse(payload.DeviceKey)
		if err != nil {
			return Event{}, err
		}
		event.DeviceKey = id.DeviceKey(parsed)
	}
	if payload.Requester != "" {
		parsed, err := uuid.Parse(payload.Requester)
		if err != nil {
			return Event{}, err
		}
		event.Requester = id.AccountID(parsed)
	}
	if payload.Actor != "" {
		parsed, err := uuid.Parse(payload.Actor)
		if err != nil {
			return Event{}, err
		}
		event.Actor = id.AccountID(parsed)
	}
	return event, nil
}
