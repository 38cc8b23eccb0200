// Package handler exposes the device upload endpoint. The request carries its
// own credential, the device's Ed25519 signature over the payload, so the
// route sits outside the bearer-token chain.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"iotledger/internal/ingest"
	"iotledger/internal/platform/middleware"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	httputil "iotledger/pkg/platform/httputil"
)

// Service runs the upload pipeline.
type Service interface {
	Ingest(ctx context.Context, upload ingest.Upload) (*ingest.Result, error)
}

// Handler handles upload endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
	limiter *middleware.RateLimiter
}

// New creates an upload Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		limiter: middleware.NewRateLimiter(60, time.Minute),
	}
}

// Register registers the upload route with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middleware.RateLimit(h.limiter))

	router.Post("/", h.handleUpload)

	r.Mount("/upload", router)
}

type uploadRequest struct {
	DID       string `json:"did"`
	DataType  string `json:"data_type"`
	Payload   string `json:"payload"`   // base64
	Signature string `json:"signature"` // base64, Ed25519 over the raw payload
}

type uploadResponse struct {
	ResourceID string `json:"resource_id"`
	Hash       string `json:"hash"`
	OwnerKey   string `json:"owner_key"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	did, err := id.ParseDID(req.DID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payload, err := base64.StdEncoding.DecodeString(req.Payload)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "payload must be base64 encoded"))
		return
	}
	signature, err := base64.StdEncoding.DecodeString(req.Signature)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "signature must be base64 encoded"))
		return
	}

	result, err := h.service.Ingest(ctx, ingest.Upload{
		DID:       did,
		DataType:  req.DataType,
		Payload:   payload,
		Signature: signature,
	})
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "upload failed",
				"request_id", middleware.GetRequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, uploadResponse{
		ResourceID: result.ResourceID,
		Hash:       result.Record.Hash.String(),
		OwnerKey:   result.Record.OwnerKey.String(),
	})
}
