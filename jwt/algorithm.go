package jwt

import (
	"crypto"
	"errors"
	"fmt"
	"sort"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnsupportedAlgorithm is returned for any algorithm name outside the HMAC registry.
var ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// Algorithm names an HMAC signing algorithm as it appears in the token header "alg" field.
type Algorithm string

const (
	// HS256 is HMAC with SHA-256.
	HS256 Algorithm = "HS256"
	// HS384 is HMAC with SHA-384.
	HS384 Algorithm = "HS384"
	// HS512 is HMAC with SHA-512.
	HS512 Algorithm = "HS512"
)

var registry = map[Algorithm]*jwt.SigningMethodHMAC{
	HS256: jwt.SigningMethodHS256,
	HS384: jwt.SigningMethodHS384,
	HS512: jwt.SigningMethodHS512,
}

// Lookup returns the golang-jwt signing method registered for alg.
func Lookup(alg Algorithm) (*jwt.SigningMethodHMAC, error) {
	m, ok := registry[alg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, string(alg))
	}
	return m, nil
}

// Hash returns the hash function backing alg.
func (a Algorithm) Hash() (crypto.Hash, error) {
	m, err := Lookup(a)
	if err != nil {
		return 0, err
	}
	return m.Hash, nil
}

// Supported reports whether alg is present in the registry.
func (a Algorithm) Supported() bool {
	_, ok := registry[a]
	return ok
}

// String implements fmt.Stringer.
func (a Algorithm) String() string {
	return string(a)
}

// Algorithms lists the registered algorithm names in sorted order.
func Algorithms() []Algorithm {
	out := make([]Algorithm, 0, len(registry))
	for alg := range registry {
		out = append(out, alg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
