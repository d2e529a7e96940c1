package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/internal/audit"
	"github.com/MrEthical07/jwtauth/internal/flows"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/MrEthical07/jwtauth/revocation"
	"github.com/juju/clock"
)

// Engine issues, validates, revokes and refreshes HMAC-signed bearer tokens.
//
// Engine instances are built by Builder and are immutable afterwards. All methods are
// safe for concurrent use.
type Engine struct {
	config  Config
	signer  *jwt.Signer
	store   revocation.Store
	janitor *revocation.Janitor
	flows   flows.Service
	audit   *audit.Dispatcher
	metrics *Metrics
	clock   clock.Clock
	logger  *slog.Logger
}

// ValidateOption adjusts a single Validate call.
type ValidateOption func(*validateOptions)

type validateOptions struct {
	ignoreExpiration bool
}

// IgnoreExpiration skips the exp, nbf and iat checks. Structure, algorithm, signature
// and revocation are still enforced.
func IgnoreExpiration() ValidateOption {
	return func(o *validateOptions) {
		o.ignoreExpiration = true
	}
}

// Close stops the revocation janitor and drains pending audit events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.janitor != nil {
		e.janitor.Stop()
	}
	if e.audit != nil {
		e.audit.Close()
		delivered, dropped := e.audit.Delivered(), e.audit.Dropped()
		if dropped > 0 {
			e.logger.Warn("audit events dropped", "component", "jwtauth", "delivered", delivered, "dropped", dropped)
		} else {
			e.logger.Debug("audit dispatcher closed", "component", "jwtauth", "delivered", delivered)
		}
	}
}

// AuditDropped returns the number of audit events lost to backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a copy of the engine counters. It is empty when metrics are
// disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:      map[MetricID]uint64{},
			Histograms:    map[MetricID][]uint64{},
			HistogramSums: map[MetricID]time.Duration{},
		}
	}
	return e.metrics.Snapshot()
}

// Algorithm returns the configured signing algorithm.
func (e *Engine) Algorithm() jwt.Algorithm {
	if e == nil {
		return ""
	}
	return e.config.Algorithm
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login describes the login operation and its observable behavior.
//
// Login builds a claim set from attrs (iat, nbf, exp, jti and the configured iss, sub
// and aud), merges customClaims on top with registered names dropped, and returns the
// signed token. Attribute values must be strings, numbers or booleans; anything else
// fails with ErrUnsupportedClaimValue.
func (e *Engine) Login(ctx context.Context, attrs map[string]any, customClaims map[string]any) (string, error) {
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}

	res := e.flows.Issue(ctx, attrs, customClaims)
	if res.Failure != flows.IssueFailureNone {
		e.metricInc(MetricIssueFailure)
		return "", res.Err
	}

	e.metricInc(MetricTokenIssued)
	e.emitAudit(ctx, AuditEventTokenIssued, true, res.Claims, nil, nil)
	return res.Token, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate checks, in order: length and three-segment structure, the header alg
// against the configured algorithm, the signature, the payload encoding, revocation,
// then exp/nbf (unless IgnoreExpiration is passed) and the optional iss/aud checks.
// The first failing check determines the returned error. On success the caller owns
// the returned claims.
func (e *Engine) Validate(ctx context.Context, token string, opts ...ValidateOption) (*claims.Set, error) {
	if e == nil || !e.flows.Initialized() {
		return nil, ErrEngineNotReady
	}
	if e.metrics.LatencyEnabled() {
		start := time.Now()
		defer func() { e.metrics.Observe(MetricValidateLatency, time.Since(start)) }()
	}

	var o validateOptions
	for _, opt := range opts {
		opt(&o)
	}

	c, err := e.validateToken(ctx, token, o.ignoreExpiration)
	if err != nil {
		e.metricInc(MetricValidateFailure)
		e.recordValidateFailure(err)
		e.emitAudit(ctx, AuditEventTokenRejected, false, nil, err, nil)
		return nil, err
	}

	e.metricInc(MetricValidateSuccess)
	return c, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout validates token ignoring expiration and records its jti until the token can
// no longer be used or refreshed. It reports false with a nil error for tokens that
// fail validation or carry no jti, and false with ErrRevocationUnavailable when the
// store cannot be written. With revocation disabled a valid token yields true and
// nothing is recorded.
func (e *Engine) Logout(ctx context.Context, token string) (bool, error) {
	if e == nil || !e.flows.Initialized() {
		return false, ErrEngineNotReady
	}

	res := e.flows.Logout(ctx, token)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.metricInc(MetricLogout)
		if res.Recorded {
			e.emitAudit(ctx, AuditEventTokenRevoked, true, res.Claims, nil, nil)
		}
		return true, nil
	case flows.LogoutFailureStore:
		e.metricInc(MetricLogoutRejected)
		return false, res.Err
	default:
		e.metricInc(MetricLogoutRejected)
		e.emitAudit(ctx, AuditEventTokenRevoked, false, res.Claims, res.Err, nil)
		return false, nil
	}
}

// Blacklist is Logout under the name older callers use.
func (e *Engine) Blacklist(ctx context.Context, token string) (bool, error) {
	return e.Logout(ctx, token)
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh validates token ignoring expiration, enforces the refresh window, and issues
// a new token that carries the custom claims of the old one with fresh iat, nbf, exp
// and jti. iss, sub and aud are recomputed from configuration. With RotateOnRefresh the
// old jti is revoked; if that write fails no token is returned. On failure the result
// is "" and a typed error.
func (e *Engine) Refresh(ctx context.Context, token string) (string, error) {
	if e == nil || !e.flows.Initialized() {
		return "", ErrEngineNotReady
	}

	res := e.flows.Refresh(ctx, token)
	var err error
	switch res.Failure {
	case flows.RefreshFailureNone:
		e.metricInc(MetricRefreshSuccess)
		e.metricInc(MetricTokenIssued)
		e.emitAudit(ctx, AuditEventTokenRefreshed, true, res.New, nil, func() map[string]string {
			return map[string]string{"previous_token_id": res.Old.ID()}
		})
		return res.Token, nil
	case flows.RefreshFailureWindowExceeded:
		e.metricInc(MetricRefreshWindowExceeded)
		err = ErrRefreshWindowExceeded
	default:
		err = res.Err
	}

	e.metricInc(MetricRefreshFailure)
	e.emitAudit(ctx, AuditEventTokenRefreshed, false, res.Old, err, nil)
	return "", err
}

// IsBlacklisted reports whether token is correctly signed and its jti is revoked. It
// never fails; any error reads as false.
func (e *Engine) IsBlacklisted(ctx context.Context, token string) bool {
	if e == nil || !e.flows.Initialized() || !e.config.RevocationEnabled {
		return false
	}
	res := e.flows.Validate(ctx, token, true)
	return res.Failure == flows.ValidateFailureRevoked
}

// PurgeRevoked drops revocation entries whose retention has passed and returns how
// many were removed. Stores that expire entries on their own report zero.
func (e *Engine) PurgeRevoked(ctx context.Context) (int, error) {
	if e == nil || !e.flows.Initialized() {
		return 0, ErrEngineNotReady
	}
	return e.purge(ctx, e.clock.Now())
}

func (e *Engine) purge(ctx context.Context, now time.Time) (int, error) {
	p, ok := e.store.(revocation.Purger)
	if !ok {
		return 0, nil
	}
	n, err := p.Purge(ctx, now)
	if err != nil {
		return 0, e.backendError("purge", err)
	}
	if n > 0 {
		e.metrics.Add(MetricRevocationPurged, uint64(n))
	}
	return n, nil
}

func (e *Engine) validateToken(ctx context.Context, token string, ignoreExpiration bool) (*claims.Set, error) {
	res := e.flows.Validate(ctx, token, ignoreExpiration)
	switch res.Failure {
	case flows.ValidateFailureNone:
		return res.Claims, nil
	case flows.ValidateFailureMalformed:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, res.Err)
		}
		return nil, ErrMalformedToken
	case flows.ValidateFailureAlgorithmMismatch:
		return nil, ErrAlgorithmMismatch
	case flows.ValidateFailureInvalidSignature:
		return nil, ErrInvalidSignature
	case flows.ValidateFailureRevoked:
		return nil, ErrRevoked
	case flows.ValidateFailureRevocationUnavailable:
		return nil, e.backendError("check", res.Err)
	case flows.ValidateFailureTemporal:
		return nil, res.Err
	case flows.ValidateFailureIssuerMismatch:
		return nil, ErrIssuerMismatch
	case flows.ValidateFailureAudienceMismatch:
		return nil, ErrAudienceMismatch
	default:
		return nil, ErrMalformedToken
	}
}

func (e *Engine) recordValidateFailure(err error) {
	switch {
	case errors.Is(err, ErrMalformedToken):
		e.metricInc(MetricMalformedToken)
	case errors.Is(err, ErrAlgorithmMismatch):
		e.metricInc(MetricAlgorithmMismatch)
	case errors.Is(err, ErrInvalidSignature):
		e.metricInc(MetricInvalidSignature)
	case errors.Is(err, ErrRevoked):
		e.metricInc(MetricRevokedRejected)
	case errors.Is(err, ErrExpired):
		e.metricInc(MetricExpired)
	case errors.Is(err, ErrNotYetValid):
		e.metricInc(MetricNotYetValid)
	case errors.Is(err, ErrMissingClaim):
		e.metricInc(MetricMissingClaim)
	case errors.Is(err, ErrIssuerMismatch):
		e.metricInc(MetricIssuerMismatch)
	case errors.Is(err, ErrAudienceMismatch):
		e.metricInc(MetricAudienceMismatch)
	}
}

func (e *Engine) revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if err := e.store.Add(ctx, jti, expiresAt); err != nil {
		return e.backendError("add", err)
	}
	return nil
}

func (e *Engine) isRevoked(ctx context.Context, jti string) (bool, error) {
	return e.store.Has(ctx, jti)
}

// retention is the instant after which a revoked token can neither validate nor be
// refreshed: exp plus the refresh window plus leeway. The zero time means forever.
func (e *Engine) retention(c *claims.Set) time.Time {
	if e.config.RefreshWindow == 0 {
		return time.Time{}
	}
	exp, ok := c.ExpiresAt()
	if !ok {
		return time.Time{}
	}
	return exp.Add(e.config.RefreshWindow + e.config.Leeway)
}

func (e *Engine) backendError(op string, err error) error {
	e.metricInc(MetricRevocationBackendError)
	e.logger.Warn("revocation backend error", "component", "jwtauth", "op", op, "error", err)
	return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
}

func (e *Engine) issue(ctx context.Context, attrs map[string]any) (string, *claims.Set, error) {
	res := e.flows.Issue(ctx, attrs, nil)
	if res.Failure != flows.IssueFailureNone {
		return "", nil, res.Err
	}
	return res.Token, res.Claims, nil
}
