package claims

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMissingClaim is returned when iat, nbf or exp is absent, not a number, or outside
	// the int64 range.
	ErrMissingClaim = errors.New("missing required claim")
	// ErrExpired is returned when exp lies before now minus the leeway.
	ErrExpired = errors.New("token expired")
	// ErrNotYetValid is returned when nbf lies after now plus the leeway.
	ErrNotYetValid = errors.New("token not yet valid")
)

// CheckTemporal verifies the lifecycle claims of c against now. Expiration is skipped
// when ignoreExpiration is set; presence of all three claims is always required.
func CheckTemporal(c *Set, now time.Time, leeway time.Duration, ignoreExpiration bool) error {
	var stamps [3]int64
	for i, name := range [3]string{IssuedAt, NotBefore, ExpiresAt} {
		v, ok := c.Int64(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingClaim, name)
		}
		stamps[i] = v
	}
	nbf, exp := stamps[1], stamps[2]

	if !ignoreExpiration && exp < now.Add(-leeway).Unix() {
		return ErrExpired
	}
	if nbf > now.Add(leeway).Unix() {
		return ErrNotYetValid
	}
	return nil
}

// IsTemporallyValid is the boolean form of CheckTemporal.
func IsTemporallyValid(c *Set, now time.Time, leeway time.Duration, ignoreExpiration bool) bool {
	return CheckTemporal(c, now, leeway, ignoreExpiration) == nil
}
