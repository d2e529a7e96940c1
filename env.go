package jwtauth

import (
	"fmt"
	"time"

	"github.com/MrEthical07/jwtauth/codec"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/caarlos0/env/v11"
)

// DefaultEnvPrefix is the variable prefix LoadConfigFromEnv uses when given "".
const DefaultEnvPrefix = "JWTAUTH_"

type envConfig struct {
	Secret string `env:"SECRET,unset"`
	// SecretBase64URL takes precedence over Secret and is decoded before use, so keys
	// from jwt.GenerateSecretKey can be passed verbatim.
	SecretBase64URL string        `env:"SECRET_BASE64URL,unset"`
	Algorithm       string        `env:"ALGORITHM"`
	Expiration      time.Duration `env:"EXPIRATION"`

	Issuer           string `env:"ISSUER"`
	Audience         string `env:"AUDIENCE"`
	SubjectAttribute string `env:"SUBJECT_ATTRIBUTE"`
	VerifyIssuer     bool   `env:"VERIFY_ISSUER"`
	VerifyAudience   bool   `env:"VERIFY_AUDIENCE"`

	Leeway         time.Duration `env:"LEEWAY"`
	MaxTokenLength int           `env:"MAX_TOKEN_LENGTH"`

	RevocationEnabled bool          `env:"REVOCATION_ENABLED"`
	RefreshWindow     time.Duration `env:"REFRESH_WINDOW"`
	RotateOnRefresh   bool          `env:"ROTATE_ON_REFRESH"`

	Revocation struct {
		Backend       string        `env:"BACKEND"`
		RedisPrefix   string        `env:"REDIS_PREFIX"`
		PurgeInterval time.Duration `env:"PURGE_INTERVAL"`
	} `envPrefix:"REVOCATION_"`

	Audit struct {
		Enabled    bool `env:"ENABLED"`
		BufferSize int  `env:"BUFFER_SIZE"`
		DropIfFull bool `env:"DROP_IF_FULL"`
	} `envPrefix:"AUDIT_"`

	Metrics struct {
		Enabled                 bool `env:"ENABLED"`
		EnableLatencyHistograms bool `env:"LATENCY_HISTOGRAMS"`
	} `envPrefix:"METRICS_"`
}

// LoadConfigFromEnv overlays environment variables named prefix+KEY onto
// DefaultConfig. Unset variables keep their default. The secret variables are
// removed from the process environment once read. The result is not validated.
func LoadConfigFromEnv(prefix string) (Config, error) {
	return loadConfigFromEnv(env.Options{Prefix: envPrefix(prefix)})
}

func envPrefix(prefix string) string {
	if prefix == "" {
		return DefaultEnvPrefix
	}
	return prefix
}

func loadConfigFromEnv(opts env.Options) (Config, error) {
	cfg := defaultConfig()

	ec := envConfig{
		Algorithm:         string(cfg.Algorithm),
		Expiration:        cfg.Expiration,
		Leeway:            cfg.Leeway,
		MaxTokenLength:    cfg.MaxTokenLength,
		RevocationEnabled: cfg.RevocationEnabled,
		RefreshWindow:     cfg.RefreshWindow,
		RotateOnRefresh:   cfg.RotateOnRefresh,
	}
	ec.Revocation.Backend = string(cfg.Revocation.Backend)
	ec.Revocation.RedisPrefix = cfg.Revocation.RedisPrefix
	ec.Revocation.PurgeInterval = cfg.Revocation.PurgeInterval
	ec.Audit.Enabled = cfg.Audit.Enabled
	ec.Audit.BufferSize = cfg.Audit.BufferSize
	ec.Audit.DropIfFull = cfg.Audit.DropIfFull
	ec.Metrics.Enabled = cfg.Metrics.Enabled
	ec.Metrics.EnableLatencyHistograms = cfg.Metrics.EnableLatencyHistograms

	if err := env.ParseWithOptions(&ec, opts); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch {
	case ec.SecretBase64URL != "":
		key, err := codec.Decode(ec.SecretBase64URL)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %sSECRET_BASE64URL: %v", ErrInvalidConfig, opts.Prefix, err)
		}
		cfg.Secret = key
	case ec.Secret != "":
		cfg.Secret = []byte(ec.Secret)
	}

	cfg.Algorithm = jwt.Algorithm(ec.Algorithm)
	cfg.Expiration = ec.Expiration
	cfg.Issuer = ec.Issuer
	cfg.Audience = ec.Audience
	cfg.SubjectAttribute = ec.SubjectAttribute
	cfg.VerifyIssuer = ec.VerifyIssuer
	cfg.VerifyAudience = ec.VerifyAudience
	cfg.Leeway = ec.Leeway
	cfg.MaxTokenLength = ec.MaxTokenLength
	cfg.RevocationEnabled = ec.RevocationEnabled
	cfg.RefreshWindow = ec.RefreshWindow
	cfg.RotateOnRefresh = ec.RotateOnRefresh
	cfg.Revocation = RevocationConfig{
		Backend:       RevocationBackend(ec.Revocation.Backend),
		RedisPrefix:   ec.Revocation.RedisPrefix,
		PurgeInterval: ec.Revocation.PurgeInterval,
	}
	cfg.Audit = AuditConfig{
		Enabled:    ec.Audit.Enabled,
		BufferSize: ec.Audit.BufferSize,
		DropIfFull: ec.Audit.DropIfFull,
	}
	cfg.Metrics = MetricsConfig{
		Enabled:                 ec.Metrics.Enabled,
		EnableLatencyHistograms: ec.Metrics.EnableLatencyHistograms,
	}

	return cfg, nil
}
