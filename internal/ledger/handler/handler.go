// Package handler exposes the ledger over HTTP. Handlers stay thin: decode,
// delegate to the ledger, translate the domain error. Capability decisions
// live in the ledger, never here.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"iotledger/internal/access"
	"iotledger/internal/identity"
	"iotledger/internal/integrity"
	"iotledger/internal/ledger"
	"iotledger/internal/platform/middleware"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	audit "iotledger/pkg/platform/audit"
	httputil "iotledger/pkg/platform/httputil"
	"iotledger/pkg/requestcontext"
)

// Service defines the ledger operations the HTTP surface exposes.
type Service interface {
	RegisterDevice(ctx context.Context, caller ledger.Caller, did id.DID, key id.DeviceKey, controller id.AccountID, publicKey []byte, metadata string) (*identity.DeviceIdentity, error)
	UpdateDeviceStatus(ctx context.Context, caller ledger.Caller, key id.DeviceKey, active bool) (*identity.DeviceIdentity, error)
	GetDeviceByDID(ctx context.Context, did id.DID) (*identity.DeviceIdentity, error)
	TotalDevices(ctx context.Context) (int, error)

	StoreDataHash(ctx context.Context, caller ledger.Caller, resourceID, dataType string, owner id.DeviceKey, hash id.IntegrityHash) (*integrity.DataRecord, error)
	VerifyDataIntegrity(ctx context.Context, resourceID string, candidate id.IntegrityHash) bool
	GetDeviceDataHashes(ctx context.Context, key id.DeviceKey) ([]*integrity.DataRecord, error)
	TotalDataRecords(ctx context.Context) (int, error)

	GrantAccess(ctx context.Context, caller ledger.Caller, requester id.AccountID, resourceID string, expiresAt time.Time) (*access.AccessPermission, error)
	RevokeAccess(ctx context.Context, caller ledger.Caller, requester id.AccountID, resourceID string) error
	CheckAccess(ctx context.Context, requester id.AccountID, resourceID string) bool

	AuditTrail(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler handles ledger endpoints.
type Handler struct {
	logger      *slog.Logger
	ledger      Service
	validator   middleware.TokenValidator
	revocations middleware.RevocationChecker
	timeout     time.Duration
}

// New creates a ledger Handler.
func New(ledger Service, validator middleware.TokenValidator, revocations middleware.RevocationChecker, logger *slog.Logger) *Handler {
	return &Handler{
		logger:      logger,
		ledger:      ledger,
		validator:   validator,
		revocations: revocations,
		timeout:     30 * time.Second,
	}
}

// Register registers the ledger routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(h.timeout))
	router.Use(middleware.RequireAuth(h.validator, h.revocations, h.logger))

	router.Post("/devices", h.handleRegisterDevice)
	router.Get("/devices/did/{did}", h.handleGetDeviceByDID)
	router.Patch("/devices/{key}/status", h.handleUpdateDeviceStatus)
	router.Get("/devices/{key}/records", h.handleListDeviceRecords)

	router.Post("/records", h.handleStoreRecord)
	router.Get("/records/{resourceID}/verify", h.handleVerifyRecord)

	router.Post("/access/grants", h.handleGrantAccess)
	router.Post("/access/revoke", h.handleRevokeAccess)
	router.Get("/access/check", h.handleCheckAccess)

	router.Get("/audit", h.handleAuditTrail)
	router.Get("/stats", h.handleStats)

	r.Mount("/", router)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (ledger.Caller, bool) {
	caller := requestcontext.Caller(r.Context())
	if caller.ID.IsZero() {
		// Only reachable if RequireAuth is missing from the chain.
		h.logger.ErrorContext(r.Context(), "caller missing from context despite auth middleware",
			"request_id", middleware.GetRequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
		return ledger.Caller{}, false
	}
	return caller, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "invalid request body",
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "ledger operation failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req registerDeviceRequest
	if !h.decode(w, r, &req) {
		return
	}
	parsed, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	device, err := h.ledger.RegisterDevice(r.Context(), caller, parsed.did, parsed.key, parsed.controller, parsed.publicKey, req.Metadata)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toDeviceResponse(device))
}

func (h *Handler) handleGetDeviceByDID(w http.ResponseWriter, r *http.Request) {
	did, err := id.ParseDID(chi.URLParam(r, "did"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	device, err := h.ledger.GetDeviceByDID(r.Context(), did)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeviceResponse(device))
}

func (h *Handler) handleUpdateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	key, err := id.ParseDeviceKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req updateStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Active == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "active flag is required"))
		return
	}

	device, err := h.ledger.UpdateDeviceStatus(r.Context(), caller, key, *req.Active)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toDeviceResponse(device))
}

func (h *Handler) handleListDeviceRecords(w http.ResponseWriter, r *http.Request) {
	key, err := id.ParseDeviceKey(chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := h.ledger.GetDeviceDataHashes(r.Context(), key)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordListResponse(records))
}

func (h *Handler) handleStoreRecord(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req storeRecordRequest
	if !h.decode(w, r, &req) {
		return
	}
	parsed, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.ledger.StoreDataHash(r.Context(), caller, req.ResourceID, req.DataType, parsed.owner, parsed.hash)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toRecordResponse(record))
}

func (h *Handler) handleVerifyRecord(w http.ResponseWriter, r *http.Request) {
	resourceID := chi.URLParam(r, "resourceID")
	hash, err := id.ParseIntegrityHash(r.URL.Query().Get("hash"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	valid := h.ledger.VerifyDataIntegrity(r.Context(), resourceID, hash)
	httputil.WriteJSON(w, http.StatusOK, verifyResponse{
		ResourceID: resourceID,
		Hash:       hash.String(),
		Valid:      valid,
	})
}

func (h *Handler) handleGrantAccess(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req grantAccessRequest
	if !h.decode(w, r, &req) {
		return
	}
	parsed, err := req.parse()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	permission, err := h.ledger.GrantAccess(r.Context(), caller, parsed.requester, req.ResourceID, parsed.expiresAt)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPermissionResponse(permission))
}

func (h *Handler) handleRevokeAccess(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req revokeAccessRequest
	if !h.decode(w, r, &req) {
		return
	}
	requester, err := id.ParseAccountID(req.Requester)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.ledger.RevokeAccess(r.Context(), caller, requester, req.ResourceID); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCheckAccess(w http.ResponseWriter, r *http.Request) {
	requester, err := id.ParseAccountID(r.URL.Query().Get("requester"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	resourceID := r.URL.Query().Get("resource_id")
	if resourceID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "resource_id is required"))
		return
	}

	granted := h.ledger.CheckAccess(r.Context(), requester, resourceID)
	httputil.WriteJSON(w, http.StatusOK, checkAccessResponse{
		Requester:  requester.String(),
		ResourceID: resourceID,
		Access:     granted,
	})
}

func (h *Handler) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	events, err := h.ledger.AuditTrail(r.Context(), limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(events))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	devices, err := h.ledger.TotalDevices(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	records, err := h.ledger.TotalDataRecords(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		Devices:     devices,
		DataRecords: records,
	})
}
