package jwtauth

import (
	"errors"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/codec"
	"github.com/MrEthical07/jwtauth/jwt"
)

var (
	// ErrMalformedToken is returned when a token is not three decodable segments, carries
	// an undecodable header or payload, or exceeds the configured length cap.
	ErrMalformedToken = errors.New("malformed token")
	// ErrAlgorithmMismatch is returned when the header alg is absent or differs from the
	// configured algorithm.
	ErrAlgorithmMismatch = errors.New("token algorithm mismatch")
	// ErrInvalidSignature is returned when the signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrRevoked is returned for tokens whose jti is in the revocation store.
	ErrRevoked = errors.New("token revoked")
	// ErrRevocationUnavailable is returned when the revocation backend cannot be reached.
	// Validation fails closed.
	ErrRevocationUnavailable = errors.New("revocation backend unavailable")
	// ErrRefreshWindowExceeded is returned when a token expired longer ago than the
	// configured refresh window.
	ErrRefreshWindowExceeded = errors.New("refresh window exceeded")
	// ErrIssuerMismatch is returned when issuer verification is on and iss differs.
	ErrIssuerMismatch = errors.New("token issuer mismatch")
	// ErrAudienceMismatch is returned when audience verification is on and aud differs.
	ErrAudienceMismatch = errors.New("token audience mismatch")
	// ErrEngineNotReady is returned by methods called on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Errors defined by the building-block packages, re-exported so callers only import
// this package.
var (
	ErrUnsupportedAlgorithm  = jwt.ErrUnsupportedAlgorithm
	ErrWeakKey               = jwt.ErrWeakKey
	ErrDecode                = codec.ErrDecode
	ErrExpired               = claims.ErrExpired
	ErrNotYetValid           = claims.ErrNotYetValid
	ErrMissingClaim          = claims.ErrMissingClaim
	ErrReservedClaim         = claims.ErrReservedClaim
	ErrUnsupportedClaimValue = claims.ErrUnsupportedValue
)

// ErrorCode returns a stable, machine-readable code for err, suitable for audit
// records and API responses. A nil error yields "".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMalformedToken), errors.Is(err, ErrDecode):
		return "malformed_token"
	case errors.Is(err, ErrAlgorithmMismatch):
		return "algorithm_mismatch"
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrRevoked):
		return "revoked"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotYetValid):
		return "not_yet_valid"
	case errors.Is(err, ErrMissingClaim):
		return "missing_claim"
	case errors.Is(err, ErrIssuerMismatch):
		return "issuer_mismatch"
	case errors.Is(err, ErrAudienceMismatch):
		return "audience_mismatch"
	case errors.Is(err, ErrRefreshWindowExceeded):
		return "refresh_window_exceeded"
	case errors.Is(err, ErrRevocationUnavailable):
		return "backend_unavailable"
	case errors.Is(err, ErrReservedClaim):
		return "reserved_claim"
	case errors.Is(err, ErrUnsupportedClaimValue):
		return "unsupported_claim_value"
	case errors.Is(err, ErrWeakKey):
		return "weak_key"
	case errors.Is(err, ErrInvalidConfig):
		return "invalid_config"
	case errors.Is(err, ErrEngineNotReady):
		return "engine_not_ready"
	default:
		return "internal_error"
	}
}
