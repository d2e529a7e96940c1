package revocation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("revocation store unavailable")
	// ErrEmptyID is returned when Add is called without an identifier.
	ErrEmptyID = errors.New("empty token id")
)

// Store records revoked token identifiers.
//
// expiresAt is the instant after which the entry may be forgotten. The zero time means
// the entry is kept until removed by other means.
type Store interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Has(ctx context.Context, jti string) (bool, error)
}

// Purger is implemented by stores that need explicit removal of expired entries.
type Purger interface {
	Purge(ctx context.Context, now time.Time) (int, error)
}

// PurgerFunc adapts a function to the Purger interface.
type PurgerFunc func(ctx context.Context, now time.Time) (int, error)

// Purge calls f.
func (f PurgerFunc) Purge(ctx context.Context, now time.Time) (int, error) {
	return f(ctx, now)
}
