// Package jwt computes and verifies the keyed HMAC signatures that bind a token's header
// and payload segments, and generates secrets suitable for signing.
//
// Signatures are produced by the golang-jwt HMAC signing methods; verification recomputes
// the expected MAC and compares it in constant time.
package jwt
