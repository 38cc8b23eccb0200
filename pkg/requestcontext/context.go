// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets these values; services and the ledger consume them. Keeping
// the package free of net/http lets the ledger core read the request time and
// caller identity without pulling in transport code.
//
// Usage in services (read values):
//
//	caller := requestcontext.Caller(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithCaller(ctx, testCaller)
package requestcontext

import (
	"context"
	"time"

	id "iotledger/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	callerKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyCaller      = callerKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// AuthenticatedCaller is the already-verified identity attached to a request
// by the authentication layer. The ledger trusts it and never re-verifies.
// Device is set only when the credential was issued to a device itself, in
// which case it names the device key the caller authenticated as.
type AuthenticatedCaller struct {
	ID     id.AccountID
	Admin  bool
	Device id.DeviceKey
}

// Caller retrieves the authenticated caller from the context.
// Returns the zero caller (nil account, no capabilities) if not set.
func Caller(ctx context.Context) AuthenticatedCaller {
	if c, ok := ctx.Value(ContextKeyCaller).(AuthenticatedCaller); ok {
		return c
	}
	return AuthenticatedCaller{}
}

// WithCaller injects an authenticated caller into the context.
func WithCaller(ctx context.Context, caller AuthenticatedCaller) context.Context {
	return context.WithValue(ctx, ContextKeyCaller, caller)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from the context. Expiry checks and
// timestamps across one operation observe the same instant, and tests control
// it via WithTime. Falls back to time.Now() for non-HTTP contexts (workers,
// background jobs).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
