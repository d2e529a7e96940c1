package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureInvalidToken
	RefreshFailureWindowExceeded
	RefreshFailureIssue
	RefreshFailureRotate
)

// RefreshResult carries either the replacement token or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	Token   string
	Old     *claims.Set
	New     *claims.Set
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	// Validate must ignore expiration.
	Validate func(ctx context.Context, token string) (*claims.Set, error)
	Issue    func(ctx context.Context, attrs map[string]any) (string, *claims.Set, error)
	Now      func() time.Time
	// Window bounds how long after exp a token may still be refreshed; 0 is unbounded.
	Window time.Duration
	// Revoke is nil unless rotation is enabled.
	Revoke    func(ctx context.Context, jti string, expiresAt time.Time) error
	Retention func(*claims.Set) time.Time
}

// RunRefresh re-issues a token carrying the custom claims of token. iss, sub and aud
// are recomputed from configuration by Issue; iat, nbf, exp and jti are fresh.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	old, err := deps.Validate(ctx, token)
	if err != nil {
		return RefreshResult{Failure: RefreshFailureInvalidToken, Err: err}
	}

	if deps.Window > 0 {
		exp, ok := old.ExpiresAt()
		if !ok {
			return RefreshResult{Failure: RefreshFailureInvalidToken, Err: claims.ErrMissingClaim, Old: old}
		}
		if deps.Now().After(exp.Add(deps.Window)) {
			return RefreshResult{Failure: RefreshFailureWindowExceeded, Old: old}
		}
	}

	carried := claims.StripLifecycle(old)
	next, issued, err := deps.Issue(ctx, carried.Custom())
	if err != nil {
		return RefreshResult{Failure: RefreshFailureIssue, Err: err, Old: old}
	}

	if deps.Revoke != nil {
		if jti := old.ID(); jti != "" {
			if err := deps.Revoke(ctx, jti, deps.Retention(old)); err != nil {
				return RefreshResult{Failure: RefreshFailureRotate, Err: err, Old: old}
			}
		}
	}

	return RefreshResult{Token: next, Old: old, New: issued}
}
