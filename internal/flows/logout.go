package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
)

// LogoutFailureKind classifies logout outcomes for root-level mapping.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureInvalidToken
	LogoutFailureNoTokenID
	LogoutFailureStore
)

// LogoutResult reports whether the token was revoked.
type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	Claims  *claims.Set
	// Recorded is false for a successful stateless logout.
	Recorded bool
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	// Validate must ignore expiration so expired tokens can still be revoked.
	Validate func(ctx context.Context, token string) (*claims.Set, error)
	// Revoke is nil when revocation is disabled.
	Revoke    func(ctx context.Context, jti string, expiresAt time.Time) error
	Retention func(*claims.Set) time.Time
	// IsUnavailable reports whether a validation error came from the revocation backend.
	IsUnavailable func(error) bool
}

// RunLogout validates token and records its jti in the revocation store.
func RunLogout(ctx context.Context, token string, deps LogoutDeps) LogoutResult {
	c, err := deps.Validate(ctx, token)
	if err != nil {
		if deps.IsUnavailable != nil && deps.IsUnavailable(err) {
			return LogoutResult{Failure: LogoutFailureStore, Err: err}
		}
		return LogoutResult{Failure: LogoutFailureInvalidToken, Err: err}
	}

	if deps.Revoke == nil {
		return LogoutResult{Claims: c}
	}

	jti := c.ID()
	if jti == "" {
		return LogoutResult{Failure: LogoutFailureNoTokenID, Claims: c}
	}
	if err := deps.Revoke(ctx, jti, deps.Retention(c)); err != nil {
		return LogoutResult{Failure: LogoutFailureStore, Err: err, Claims: c}
	}

	return LogoutResult{Claims: c, Recorded: true}
}
