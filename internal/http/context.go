package httpx

import (
	"context"

	domainauth "github.com/afyacare/hms/internal/domain/auth"
)

// principalKey is an unexported context key type to avoid collisions across
// packages. Centralized in this file so all handlers use the same key.
type principalKey struct{}

// RequestAuth is the authentication state attached to a granted request.
type RequestAuth struct {
	Principal domainauth.Principal
	Session   domainauth.Session
}

// SetAuthInContext returns a child context that carries the request's
// authentication state.
func SetAuthInContext(ctx context.Context, auth *RequestAuth) context.Context {
	if auth == nil {
		return ctx
	}
	return context.WithValue(ctx, principalKey{}, auth)
}

// AuthFromContext returns the authentication state and whether it is present.
// Handlers behind the guard can rely on presence; everything else must treat
// absence as anonymous.
func AuthFromContext(ctx context.Context) (*RequestAuth, bool) {
	if auth, ok := ctx.Value(principalKey{}).(*RequestAuth); ok && auth != nil {
		return auth, true
	}
	return nil, false
}

// PrincipalFromContext is a convenience accessor for the principal alone.
func PrincipalFromContext(ctx context.Context) (domainauth.Principal, bool) {
	auth, ok := AuthFromContext(ctx)
	if !ok {
		return domainauth.Principal{}, false
	}
	return auth.Principal, true
}
