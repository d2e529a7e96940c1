package jwt

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/MrEthical07/jwtauth/codec"
)

// MinSecretKeyBytes is the smallest secret GenerateSecretKey will produce.
const MinSecretKeyBytes = 32

var (
	// ErrWeakKey is returned when a requested key is shorter than MinSecretKeyBytes.
	ErrWeakKey = errors.New("secret key must be at least 32 bytes")
	// ErrEmptySecret is returned when signing is attempted without a key.
	ErrEmptySecret = errors.New("empty signing secret")
)

// SigningInput joins the encoded header and payload segments into the exact byte string
// the MAC is computed over.
func SigningInput(headerSegment, payloadSegment string) string {
	return headerSegment + "." + payloadSegment
}

// Sign computes the HMAC of headerSegment + "." + payloadSegment under secret.
// The result is deterministic for a given input.
func Sign(headerSegment, payloadSegment string, secret []byte, alg Algorithm) ([]byte, error) {
	method, err := Lookup(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	sig, err := method.Sign(SigningInput(headerSegment, payloadSegment), secret)
	if err != nil {
		return nil, fmt.Errorf("sign %s: %w", alg, err)
	}
	return sig, nil
}

// Verify recomputes the signature for the given segments and compares it against
// signature in constant time. Any configuration problem yields false.
func Verify(signature []byte, headerSegment, payloadSegment string, secret []byte, alg Algorithm) bool {
	method, err := Lookup(alg)
	if err != nil || len(secret) == 0 {
		return false
	}
	return method.Verify(SigningInput(headerSegment, payloadSegment), signature, secret) == nil
}

// GenerateSecretKey returns lengthBytes of crypto/rand output, base64url encoded.
func GenerateSecretKey(lengthBytes int) (string, error) {
	if lengthBytes < MinSecretKeyBytes {
		return "", fmt.Errorf("%w: got %d", ErrWeakKey, lengthBytes)
	}
	buf := make([]byte, lengthBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return codec.Encode(buf), nil
}
