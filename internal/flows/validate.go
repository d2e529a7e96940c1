package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/codec"
)

// ValidateFailureKind classifies validation failures for root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMalformed
	ValidateFailureAlgorithmMismatch
	ValidateFailureInvalidSignature
	ValidateFailureRevoked
	ValidateFailureRevocationUnavailable
	ValidateFailureTemporal
	ValidateFailureIssuerMismatch
	ValidateFailureAudienceMismatch
)

// ValidateResult returns either the verified claims or a classified failure.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *claims.Set
}

// ValidateDeps captures token validation dependencies.
type ValidateDeps struct {
	MaxTokenLength  int
	Algorithm       string
	VerifySignature func(signature []byte, headerSegment, payloadSegment string) bool
	// IsRevoked is nil when revocation is disabled.
	IsRevoked func(ctx context.Context, jti string) (bool, error)
	Now       func() time.Time
	Leeway    time.Duration

	VerifyIssuer   bool
	Issuer         string
	VerifyAudience bool
	Audience       string
}

// RunValidate executes the validation pipeline. Structure is checked before any
// cryptography, the signature before the payload is trusted, and revocation before
// the temporal checks so a revoked token never reports as merely expired.
func RunValidate(ctx context.Context, token string, ignoreExpiration bool, deps ValidateDeps) ValidateResult {
	if deps.MaxTokenLength > 0 && len(token) > deps.MaxTokenLength {
		return ValidateResult{Failure: ValidateFailureMalformed}
	}

	h, p, s, err := codec.Split(token)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}

	var header map[string]any
	if err := codec.DecodeJSON(h, &header); err != nil || header == nil {
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}
	if alg, _ := header["alg"].(string); alg == "" || alg != deps.Algorithm {
		return ValidateResult{Failure: ValidateFailureAlgorithmMismatch}
	}

	sig, err := codec.Decode(s)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}
	if !deps.VerifySignature(sig, h, p) {
		return ValidateResult{Failure: ValidateFailureInvalidSignature}
	}

	payload, err := codec.Decode(p)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}
	c, err := claims.Parse(payload)
	if err != nil {
		return ValidateResult{Failure: ValidateFailureMalformed, Err: err}
	}

	if deps.IsRevoked != nil {
		if jti := c.ID(); jti != "" {
			revoked, err := deps.IsRevoked(ctx, jti)
			if err != nil {
				return ValidateResult{Failure: ValidateFailureRevocationUnavailable, Err: err, Claims: c}
			}
			if revoked {
				return ValidateResult{Failure: ValidateFailureRevoked, Claims: c}
			}
		}
	}

	if !ignoreExpiration {
		if err := claims.CheckTemporal(c, deps.Now(), deps.Leeway, false); err != nil {
			return ValidateResult{Failure: ValidateFailureTemporal, Err: err, Claims: c}
		}
	}

	if deps.VerifyIssuer && c.Issuer() != deps.Issuer {
		return ValidateResult{Failure: ValidateFailureIssuerMismatch, Claims: c}
	}
	if deps.VerifyAudience && c.Audience() != deps.Audience {
		return ValidateResult{Failure: ValidateFailureAudienceMismatch, Claims: c}
	}

	return ValidateResult{Claims: c}
}
