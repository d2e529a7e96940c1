package jwtauth

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/jwtauth/jwt"
)

// Config holds every engine setting. Builder clones it on Build, so later changes to
// the caller's copy have no effect on a running Engine.
type Config struct {
	// Secret is the HMAC key. It must not be empty.
	Secret    []byte
	Algorithm jwt.Algorithm
	// Expiration is the token lifetime. Whole seconds, at least one. To exercise an
	// already-expired token, issue normally and advance an injected clock (WithClock
	// with juju/clock/testclock) past exp.
	Expiration time.Duration

	// Issuer and Audience are embedded as iss and aud when non-empty.
	Issuer   string
	Audience string
	// SubjectAttribute names the user attribute copied into sub. Empty disables sub.
	SubjectAttribute string

	VerifyIssuer   bool
	VerifyAudience bool

	// Leeway tolerates clock skew on exp and nbf.
	Leeway time.Duration
	// MaxTokenLength rejects longer tokens before any decoding. Zero disables the cap.
	MaxTokenLength int

	RevocationEnabled bool
	// RefreshWindow bounds how long after exp a token may still be refreshed. Zero
	// means unbounded, in which case revocation entries are kept indefinitely.
	RefreshWindow time.Duration
	// RotateOnRefresh revokes the old jti whenever Refresh issues a replacement.
	RotateOnRefresh bool

	Revocation RevocationConfig
	Audit      AuditConfig
	Metrics    MetricsConfig

	// Logger receives best-effort failures. Nil means slog.Default().
	Logger *slog.Logger
}

// RevocationBackend selects the revocation store Build creates when none is supplied.
type RevocationBackend string

const (
	RevocationMemory RevocationBackend = "memory"
	RevocationRedis  RevocationBackend = "redis"
)

// RevocationConfig configures the built-in revocation stores.
type RevocationConfig struct {
	Backend     RevocationBackend
	RedisPrefix string
	// PurgeInterval runs a janitor over stores that need explicit purging. Zero disables it.
	PurgeInterval time.Duration
}

// AuditConfig configures the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
PRESETS
====================================
*/

func defaultConfig() Config {
	return Config{
		Algorithm:         jwt.HS256,
		Expiration:        time.Hour,
		MaxTokenLength:    8192,
		RevocationEnabled: true,
		Revocation: RevocationConfig{
			Backend:       RevocationMemory,
			RedisPrefix:   "jwtauth:revoked",
			PurgeInterval: time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// DefaultConfig returns the baseline: HS256, one hour tokens, in-memory revocation and
// an unbounded refresh window. Secret must still be set.
func DefaultConfig() Config {
	return defaultConfig()
}

// HighSecurityConfig shortens token lifetime, bounds the refresh window, rotates on
// refresh and signs with HS512.
func HighSecurityConfig() Config {
	cfg := defaultConfig()
	cfg.Algorithm = jwt.HS512
	cfg.Expiration = 15 * time.Minute
	cfg.Leeway = 0
	cfg.MaxTokenLength = 4096
	cfg.RefreshWindow = 24 * time.Hour
	cfg.RotateOnRefresh = true
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	cfg.Metrics.Enabled = true
	return cfg
}

// HighThroughputConfig drops revocation entirely so validation never touches a store.
func HighThroughputConfig() Config {
	cfg := defaultConfig()
	cfg.Expiration = 10 * time.Minute
	cfg.Leeway = 5 * time.Second
	cfg.RevocationEnabled = false
	cfg.RefreshWindow = time.Hour
	cfg.Revocation.PurgeInterval = 0
	cfg.Metrics.Enabled = true
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Secret = cloneBytes(cfg.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first setting that would make the engine unusable. Every
// returned error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	if len(c.Secret) == 0 {
		return fmt.Errorf("%w: Secret must not be empty", ErrInvalidConfig)
	}
	if !c.Algorithm.Supported() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrUnsupportedAlgorithm, string(c.Algorithm))
	}
	if c.Expiration < time.Second {
		return fmt.Errorf("%w: Expiration must be >= 1s", ErrInvalidConfig)
	}
	if c.Expiration%time.Second != 0 {
		return fmt.Errorf("%w: Expiration must be a whole number of seconds", ErrInvalidConfig)
	}
	if c.Leeway < 0 {
		return fmt.Errorf("%w: Leeway must be >= 0", ErrInvalidConfig)
	}
	if c.MaxTokenLength < 0 {
		return fmt.Errorf("%w: MaxTokenLength must be >= 0", ErrInvalidConfig)
	}
	if c.RefreshWindow < 0 {
		return fmt.Errorf("%w: RefreshWindow must be >= 0", ErrInvalidConfig)
	}
	if c.VerifyIssuer && c.Issuer == "" {
		return fmt.Errorf("%w: VerifyIssuer requires Issuer", ErrInvalidConfig)
	}
	if c.VerifyAudience && c.Audience == "" {
		return fmt.Errorf("%w: VerifyAudience requires Audience", ErrInvalidConfig)
	}
	if c.RotateOnRefresh && !c.RevocationEnabled {
		return fmt.Errorf("%w: RotateOnRefresh requires RevocationEnabled", ErrInvalidConfig)
	}

	switch c.Revocation.Backend {
	case RevocationMemory, RevocationRedis:
		// valid
	default:
		return fmt.Errorf("%w: Revocation Backend must be %q or %q", ErrInvalidConfig, RevocationMemory, RevocationRedis)
	}
	if c.Revocation.PurgeInterval < 0 {
		return fmt.Errorf("%w: Revocation PurgeInterval must be >= 0", ErrInvalidConfig)
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when enabled", ErrInvalidConfig)
	}
	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return fmt.Errorf("%w: Metrics EnableLatencyHistograms requires Metrics Enabled", ErrInvalidConfig)
	}

	return nil
}
