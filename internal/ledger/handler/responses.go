package handler

import (
	"time"

	"iotledger/internal/access"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	audit "iotledger/pkg/platform/audit"
)

type deviceResponse struct {
	DID          string    `json:"did"`
	DeviceKey    string    `json:"device_key"`
	Controller   string    `json:"controller"`
	Metadata     string    `json:"metadata,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
	Active       bool      `json:"active"`
}

func toDeviceResponse(device *identity.DeviceIdentity) deviceResponse {
	return deviceResponse{
		DID:          device.DID.String(),
		DeviceKey:    device.Key.String(),
		Controller:   device.Controller.String(),
		Metadata:     device.Metadata,
		RegisteredAt: device.RegisteredAt,
		Active:       device.Active,
	}
}

type recordResponse struct {
	ResourceID string    `json:"resource_id"`
	DataType   string    `json:"data_type"`
	OwnerKey   string    `json:"owner_key"`
	Hash       string    `json:"hash"`
	CreatedAt  time.Time `json:"created_at"`
	Valid      bool      `json:"valid"`
}

func toRecordResponse(record *integrity.DataRecord) recordResponse {
	return recordResponse{
		ResourceID: record.ResourceID,
		DataType:   record.DataType,
		OwnerKey:   record.OwnerKey.String(),
		Hash:       record.Hash.String(),
		CreatedAt:  record.CreatedAt,
		Valid:      record.Valid,
	}
}

type recordListResponse struct {
	Records []recordResponse `json:"records"`
}

func toRecordListResponse(records []*integrity.DataRecord) recordListResponse {
	out := recordListResponse{Records: make([]recordResponse, len(records))}
	for i, record := range records {
		out.Records[i] = toRecordResponse(record)
	}
	return out
}

type verifyResponse struct {
	ResourceID string `json:"resource_id"`
	Hash       string `json:"hash"`
	Valid      bool   `json:"valid"`
}

type permissionResponse struct {
	Requester  string     `json:"requester"`
	ResourceID string     `json:"resource_id"`
	Granted    bool       `json:"granted"`
	GrantedAt  time.Time  `json:"granted_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

func toPermissionResponse(permission *access.AccessPermission) permissionResponse {
	out := permissionResponse{
		Requester:  permission.Requester.String(),
		ResourceID: permission.ResourceID,
		Granted:    permission.Granted,
		GrantedAt:  permission.GrantedAt,
	}
	if !permission.ExpiresAt.IsZero() {
		expiresAt := permission.ExpiresAt
		out.ExpiresAt = &expiresAt
	}
	return out
}

type checkAccessResponse struct {
	Requester  string `json:"requester"`
	ResourceID string `json:"resource_id"`
	Access     bool   `json:"access"`
}

type auditEventResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Category   string    `json:"category"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceKey  string    `json:"device_key,omitempty"`
	DID        string    `json:"did,omitempty"`
	ResourceID string    `json:"resource_id,omitempty"`
	Requester  string    `json:"requester,omitempty"`
	Actor      string    `json:"actor,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}

type auditTrailResponse struct {
	Events []auditEventResponse `json:"events"`
}

func toAuditResponse(events []audit.Event) auditTrailResponse {
	out := auditTrailResponse{Events: make([]auditEventResponse, len(events))}
	for i, event := range events {
		item := auditEventResponse{
			ID:         event.ID.String(),
			Kind:       string(event.Kind),
			Category:   string(event.Kind.Category()),
			Timestamp:  event.Timestamp,
			DID:        event.DID.String(),
			ResourceID: event.ResourceID,
			RequestID:  event.RequestID,
		}
		if !event.DeviceKey.IsZero() {
			item.DeviceKey = event.DeviceKey.String()
		}
		if !event.Requester.IsZero() {
			item.Requester = event.Requester.String()
		}
		if !event.Actor.IsZero() {
			item.Actor = event.Actor.String()
		}
		out.Events[i] = item
	}
	return out
}

type statsResponse struct {
	Devices     int `json:"devices"`
	DataRecords int `json:"data_records"`
}
