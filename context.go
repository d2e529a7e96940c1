package jwtauth

import (
	"context"

	"github.com/MrEthical07/jwtauth/claims"
)

type claimsContextKey struct{}

// WithClaims attaches validated claims to ctx. Middleware calls it after a successful
// Validate so handlers can read the caller's identity without re-validating.
func WithClaims(ctx context.Context, c *claims.Set) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, c)
}

// ClaimsFromContext returns the claims attached by WithClaims.
func ClaimsFromContext(ctx context.Context) (*claims.Set, bool) {
	if ctx == nil {
		return nil, false
	}
	c, ok := ctx.Value(claimsContextKey{}).(*claims.Set)
	return c, ok && c != nil
}

// SubjectFromContext returns the sub claim of the attached claims, or "".
func SubjectFromContext(ctx context.Context) string {
	c, ok := ClaimsFromContext(ctx)
	if !ok {
		return ""
	}
	return c.Subject()
}
