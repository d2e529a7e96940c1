package claims

import (
	"crypto/rand"
	"time"

	"github.com/MrEthical07/jwtauth/codec"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewID returns a ULID for now: a 48-bit millisecond timestamp followed by 80 bits from
// crypto/rand, encoded as base64url.
func NewID(now time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return codec.Encode(id[:]), nil
}

// NewUUIDv7ID returns a version 7 UUID encoded as base64url. The embedded timestamp is
// taken from the uuid package's own clock, not from now.
func NewUUIDv7ID(_ time.Time) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return codec.Encode(id[:]), nil
}
