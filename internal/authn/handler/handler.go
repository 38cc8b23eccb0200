// Package handler exposes token issuance and revocation. Issuance is guarded
// by the deployment's admin secret; revocation only needs the token itself.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"iotledger/internal/authn"
	"iotledger/internal/platform/middleware"
	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	httputil "iotledger/pkg/platform/httputil"
	"iotledger/pkg/requestcontext"
)

// Handler handles authentication endpoints.
type Handler struct {
	logger          *slog.Logger
	tokens          *authn.TokenService
	revocations     authn.RevocationList
	adminSecretHash string
	limiter         *middleware.RateLimiter
}

// New creates an authentication Handler. adminSecretHash is the bcrypt hash
// of the secret that authorizes token issuance.
func New(tokens *authn.TokenService, revocations authn.RevocationList, adminSecretHash string, logger *slog.Logger) *Handler {
	return &Handler{
		logger:          logger,
		tokens:          tokens,
		revocations:     revocations,
		adminSecretHash: adminSecretHash,
		// Secret guessing gets slow fast.
		limiter: middleware.NewRateLimiter(10, time.Minute),
	}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.RateLimit(h.limiter))

	router.Post("/token", h.handleIssueToken)
	router.Post("/token/revoke", h.handleRevokeToken)

	r.Mount("/auth", router)
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

type issueTokenRequest struct {
	Secret    string `json:"secret"`
	AccountID string `json:"account_id"`
	Admin     bool   `json:"admin,omitempty"`
	DeviceKey string `json:"device_key,omitempty"`
}

type issueTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := authn.VerifySecret(req.Secret, h.adminSecretHash); err != nil {
		h.logger.WarnContext(ctx, "token issuance with bad secret",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid issuance secret"))
		return
	}

	account, err := id.ParseAccountID(req.AccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var device id.DeviceKey
	if req.DeviceKey != "" {
		if device, err = id.ParseDeviceKey(req.DeviceKey); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	token, err := h.tokens.Issue(account, req.Admin, device, requestcontext.Now(ctx))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign token",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to issue token"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, issueTokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.tokens.TTL() / time.Second),
	})
}

// handleRevokeToken invalidates the presented token before its natural
// expiry. Possession of the token is the only requirement.
func (h *Handler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.revocations.Revoke(ctx, claims.ID, h.tokens.TTL()); err != nil {
		h.logger.ErrorContext(ctx, "failed to revoke token",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to revoke token"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
