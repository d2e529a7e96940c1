package jwt

import (
	"errors"
)

// Signer binds a secret to an algorithm. It is immutable once constructed and safe for
// concurrent use.
type Signer struct {
	alg    Algorithm
	secret []byte
}

// NewSigner validates alg and copies secret.
func NewSigner(secret []byte, alg Algorithm) (*Signer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if _, err := Lookup(alg); err != nil {
		return nil, err
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &Signer{alg: alg, secret: key}, nil
}

// Algorithm returns the configured algorithm.
func (s *Signer) Algorithm() Algorithm {
	return s.alg
}

// SignSegments returns the raw signature bytes for the two encoded segments.
func (s *Signer) SignSegments(headerSegment, payloadSegment string) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil signer")
	}
	return Sign(headerSegment, payloadSegment, s.secret, s.alg)
}

// VerifySegments reports whether signature matches the two encoded segments.
func (s *Signer) VerifySegments(signature []byte, headerSegment, payloadSegment string) bool {
	if s == nil {
		return false
	}
	return Verify(signature, headerSegment, payloadSegment, s.secret, s.alg)
}
