package jwtauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/jwtauth/claims"
	"github.com/MrEthical07/jwtauth/codec"
	"github.com/MrEthical07/jwtauth/internal/audit"
	"github.com/MrEthical07/jwtauth/internal/flows"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/MrEthical07/jwtauth/revocation"
	"github.com/juju/clock"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. Builders are single use: Build may only succeed once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  revocation.Store

	auditSink AuditSink
	clock     clock.Clock
	logger    *slog.Logger
	newID     claims.IDFunc

	built bool
}

// New returns a Builder seeded with DefaultConfig. A secret must still be supplied
// through WithConfig before Build succeeds.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The config is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis selects the Redis revocation backend client. It is only used when
// Revocation.Backend is RevocationRedis.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRevocationStore overrides the configured backend with a caller-supplied store.
func (b *Builder) WithRevocationStore(store revocation.Store) *Builder {
	b.store = store
	return b
}

// WithAuditSink sets the sink for audit events. Events are only emitted when
// Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock sets the time source used for iat/exp, temporal checks and the purge loop.
func (b *Builder) WithClock(clk clock.Clock) *Builder {
	b.clock = clk
	return b
}

// WithLogger sets the logger used for backend warnings. Config.Logger is used when
// this is not called.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithIDGenerator replaces the jti generator.
func (b *Builder) WithIDGenerator(fn claims.IDFunc) *Builder {
	b.newID = fn
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the validate latency histogram. Metrics must also be
// enabled.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns a ready Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	signer, err := jwt.NewSigner(cfg.Secret, cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	header, err := encodeHeader(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	clk := b.clock
	if clk == nil {
		clk = clock.WallClock
	}
	logger := b.logger
	if logger == nil {
		logger = cfg.Logger
	}
	if logger == nil {
		logger = slog.Default()
	}
	newID := b.newID
	if newID == nil {
		newID = claims.NewID
	}

	store := b.store
	if store == nil {
		switch cfg.Revocation.Backend {
		case RevocationRedis:
			if b.redis == nil {
				return nil, fmt.Errorf("%w: redis revocation backend requires WithRedis", ErrInvalidConfig)
			}
			store = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix, clk)
		default:
			store = revocation.NewMemoryStore()
		}
	}

	e := &Engine{
		config:  cfg,
		signer:  signer,
		store:   store,
		metrics: NewMetrics(cfg.Metrics),
		clock:   clk,
		logger:  logger,
	}

	if cfg.Audit.Enabled {
		sink := b.auditSink
		if sink == nil {
			sink = NewSlogSink(logger)
		}
		e.audit = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	issueDeps := flows.IssueDeps{
		HeaderSegment:    header,
		Sign:             signer.SignSegments,
		Now:              clk.Now,
		NewID:            newID,
		Expiration:       cfg.Expiration,
		Issuer:           cfg.Issuer,
		Audience:         cfg.Audience,
		SubjectAttribute: cfg.SubjectAttribute,
	}

	validateDeps := flows.ValidateDeps{
		MaxTokenLength:  cfg.MaxTokenLength,
		Algorithm:       string(cfg.Algorithm),
		VerifySignature: signer.VerifySegments,
		Now:             clk.Now,
		Leeway:          cfg.Leeway,
		VerifyIssuer:    cfg.VerifyIssuer,
		Issuer:          cfg.Issuer,
		VerifyAudience:  cfg.VerifyAudience,
		Audience:        cfg.Audience,
	}

	var revoke func(ctx context.Context, jti string, expiresAt time.Time) error
	if cfg.RevocationEnabled {
		validateDeps.IsRevoked = e.isRevoked
		revoke = e.revoke
	}

	validateIgnoringExpiration := func(ctx context.Context, token string) (*claims.Set, error) {
		return e.validateToken(ctx, token, true)
	}

	refreshDeps := flows.RefreshDeps{
		Validate:  validateIgnoringExpiration,
		Issue:     e.issue,
		Now:       clk.Now,
		Window:    cfg.RefreshWindow,
		Retention: e.retention,
	}
	if cfg.RotateOnRefresh {
		refreshDeps.Revoke = revoke
	}

	e.flows = flows.New(flows.Deps{
		Issue:    issueDeps,
		Validate: validateDeps,
		Logout: flows.LogoutDeps{
			Validate:  validateIgnoringExpiration,
			Revoke:    revoke,
			Retention: e.retention,
			IsUnavailable: func(err error) bool {
				return errors.Is(err, ErrRevocationUnavailable)
			},
		},
		Refresh: refreshDeps,
	})

	if _, ok := store.(revocation.Purger); ok && cfg.RevocationEnabled && cfg.Revocation.PurgeInterval > 0 {
		e.janitor = revocation.NewJanitor(revocation.PurgerFunc(e.purge), cfg.Revocation.PurgeInterval, clk, logger)
		e.janitor.Start()
	}

	b.built = true
	return e, nil
}

type tokenHeader struct {
	Typ string `json:"typ"`
	Alg string `json:"alg"`
}

func encodeHeader(alg jwt.Algorithm) (string, error) {
	raw, err := json.Marshal(tokenHeader{Typ: "JWT", Alg: string(alg)})
	if err != nil {
		return "", err
	}
	return codec.Encode(raw), nil
}
