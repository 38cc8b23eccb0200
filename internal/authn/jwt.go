// Package authn issues and validates the credentials callers present to the
// ledger API: HMAC-signed access tokens for accounts and Ed25519 signatures
// for devices. Authentication only establishes who the caller is; what they
// may do is the ledger's capability checks.
package authn

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "iotledger/pkg/domain"
	dErrors "iotledger/pkg/domain-errors"
	"iotledger/pkg/requestcontext"
)

// Claims are the JWT claims carried by ledger access tokens.
type Claims struct {
	AccountID string `json:"account_id"`
	Admin     bool   `json:"admin"`
	DeviceKey string `json:"device_key,omitempty"`
	jwt.RegisteredClaims
}

// TokenService handles JWT creation and validation.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        ttl,
	}
}

// TTL returns the lifetime of issued tokens. Revocations use it as the list
// entry expiry: once the token itself has lapsed, the list entry is moot.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs an access token for an account. A non-zero device key binds the
// token to a device identity, marking the bearer as that device itself.
func (s *TokenService) Issue(account id.AccountID, admin bool, device id.DeviceKey, now time.Time) (string, error) {
	claims := Claims{
		AccountID: account.String(),
		Admin:     admin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	}
	if !device.IsZero() {
		claims.DeviceKey = device.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken parses and verifies a token and returns its claims.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}

// Caller converts validated claims into the authenticated caller identity the
// ledger authorizes against.
func (c *Claims) Caller() (requestcontext.AuthenticatedCaller, error) {
	account, err := id.ParseAccountID(c.AccountID)
	if err != nil {
		return requestcontext.AuthenticatedCaller{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	caller := requestcontext.AuthenticatedCaller{ID: account, Admin: c.Admin}
	if c.DeviceKey != "" {
		key, err := id.ParseDeviceKey(c.DeviceKey)
		if err != nil {
			return requestcontext.AuthenticatedCaller{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
		}
		caller.Device = key
	}
	return caller, nil
}
