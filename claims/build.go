package claims

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidExpiration is returned by Build when the lifetime is shorter than one second.
var ErrInvalidExpiration = errors.New("expiration must be at least one second")

// IDFunc produces a unique token identifier for an issuance at now.
type IDFunc func(now time.Time) (string, error)

// Options carries the issuer-side values Build stamps onto every claim set.
type Options struct {
	Issuer   string
	Subject  string
	Audience string

	// Now is the issuance instant; zero means time.Now().
	Now time.Time
	// NewID generates jti; nil means NewID.
	NewID IDFunc
}

// Build assembles the claims for a new token: iat and nbf at Now, exp at Now plus
// expiration (whole seconds), a fresh jti, the optional iss/sub/aud, then every
// non-registered entry of attrs.
func Build(attrs map[string]any, expiration time.Duration, opts Options) (*Set, error) {
	if expiration < time.Second {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidExpiration, expiration)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	newID := opts.NewID
	if newID == nil {
		newID = NewID
	}

	jti, err := newID(now)
	if err != nil {
		return nil, fmt.Errorf("generate token id: %w", err)
	}

	s := New()
	s.SetIssuedAt(now)
	s.SetNotBefore(now)
	s.values[ExpiresAt] = now.Unix() + int64(expiration/time.Second)
	s.SetID(jti)
	s.SetIssuer(opts.Issuer)
	s.SetSubject(opts.Subject)
	s.SetAudience(opts.Audience)

	if err := s.Merge(attrs); err != nil {
		return nil, err
	}
	return s, nil
}
