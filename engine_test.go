package jwtauth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/jwtauth/codec"
	"github.com/MrEthical07/jwtauth/jwt"
	"github.com/juju/clock/testclock"
)

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	testStart  = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func newTestEngine(t testing.TB, mutate func(*Config), opts ...func(*Builder)) (*Engine, *testclock.Clock) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Secret = testSecret
	cfg.Revocation.PurgeInterval = 0
	if mutate != nil {
		mutate(&cfg)
	}

	clk := testclock.NewClock(testStart)
	b := New().WithConfig(cfg).WithClock(clk)
	for _, opt := range opts {
		opt(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, clk
}

func mustLogin(t testing.TB, e *Engine, attrs, custom map[string]any) string {
	t.Helper()
	token, err := e.Login(context.Background(), attrs, custom)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return token
}

func TestLoginValidateRoundTrip(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) {
		c.SubjectAttribute = "id"
		c.Issuer = "api"
		c.Audience = "web"
	})

	token := mustLogin(t, engine, map[string]any{"id": 1, "name": "Ana"}, nil)

	if strings.Count(token, ".") != 2 || strings.ContainsAny(token, "+/=") {
		t.Fatalf("token is not compact base64url: %q", token)
	}
	if !codec.ValidateFormat(token) {
		t.Fatalf("token fails format check: %q", token)
	}

	c, err := engine.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if id, ok := c.Int64("id"); !ok || id != 1 {
		t.Fatalf("expected id=1, got %v (ok=%v)", id, ok)
	}
	if name, _ := c.String("name"); name != "Ana" {
		t.Fatalf("expected name Ana, got %q", name)
	}
	if c.Subject() != "1" || c.Issuer() != "api" || c.Audience() != "web" {
		t.Fatalf("unexpected registered claims: sub=%q iss=%q aud=%q", c.Subject(), c.Issuer(), c.Audience())
	}
	if c.ID() == "" {
		t.Fatal("expected jti to be set")
	}

	iat, _ := c.IssuedAt()
	nbf, _ := c.NotBefore()
	exp, _ := c.ExpiresAt()
	if !iat.Equal(testStart) || !nbf.Equal(testStart) {
		t.Fatalf("expected iat=nbf=%v, got iat=%v nbf=%v", testStart, iat, nbf)
	}
	if !exp.Equal(testStart.Add(time.Hour)) {
		t.Fatalf("expected exp=%v, got %v", testStart.Add(time.Hour), exp)
	}
}

func TestLoginHeaderIsFixed(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) { c.Algorithm = jwt.HS384 })
	token := mustLogin(t, engine, map[string]any{"id": 1}, nil)

	header, err := codec.Decode(strings.SplitN(token, ".", 2)[0])
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if string(header) != `{"typ":"JWT","alg":"HS384"}` {
		t.Fatalf("unexpected header %s", header)
	}
}

func TestLoginCustomClaimsCannotOverrideRegistered(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	token := mustLogin(t, engine,
		map[string]any{"id": 1, "exp": 1},
		map[string]any{"role": "admin", "jti": "forged", "iat": 0},
	)

	c, err := engine.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.ID() == "forged" {
		t.Fatal("custom claims must not override jti")
	}
	if role, _ := c.String("role"); role != "admin" {
		t.Fatalf("expected role admin, got %q", role)
	}
	if exp, _ := c.ExpiresAt(); !exp.Equal(testStart.Add(time.Hour)) {
		t.Fatalf("attrs must not override exp, got %v", exp)
	}
}

func TestLoginRejectsUnsupportedValues(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	_, err := engine.Login(context.Background(), map[string]any{"nested": map[string]any{"a": 1}}, nil)
	if !errors.Is(err, ErrUnsupportedClaimValue) {
		t.Fatalf("expected ErrUnsupportedClaimValue, got %v", err)
	}
	_, err = engine.Login(context.Background(), map[string]any{"id": 1}, map[string]any{"list": []int{1}})
	if !errors.Is(err, ErrUnsupportedClaimValue) {
		t.Fatalf("expected ErrUnsupportedClaimValue for custom claim, got %v", err)
	}
}

func TestLoginUsesIDGenerator(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(b *Builder) {
		b.WithIDGenerator(func(time.Time) (string, error) { return "fixed-id", nil })
	})
	c, err := engine.Validate(context.Background(), mustLogin(t, engine, nil, nil))
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if c.ID() != "fixed-id" {
		t.Fatalf("expected fixed-id, got %q", c.ID())
	}

	failing, _ := newTestEngine(t, nil, func(b *Builder) {
		b.WithIDGenerator(func(time.Time) (string, error) { return "", errors.New("entropy") })
	})
	if _, err := failing.Login(context.Background(), nil, nil); err == nil {
		t.Fatal("expected ID generator failure to surface")
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	token := mustLogin(t, engine, map[string]any{"id": 1, "role": "user"}, nil)
	parts := strings.Split(token, ".")

	payload, err := codec.Decode(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	forged := strings.Replace(string(payload), `"user"`, `"root"`, 1)
	forgedToken := parts[0] + "." + codec.EncodeString(forged) + "." + parts[2]
	if _, err := engine.Validate(context.Background(), forgedToken); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for forged payload, got %v", err)
	}

	sig, err := codec.Decode(parts[2])
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sig[0] ^= 0x01
	flipped := parts[0] + "." + parts[1] + "." + codec.Encode(sig)
	if _, err := engine.Validate(context.Background(), flipped); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for flipped signature, got %v", err)
	}

	other, _ := newTestEngine(t, func(c *Config) {
		c.Secret = []byte("another-secret-another-secret-32")
	})
	if _, err := other.Validate(context.Background(), token); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for foreign key, got %v", err)
	}
}

func TestValidateRejectsForeignAlgorithm(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	hs512, _ := newTestEngine(t, func(c *Config) { c.Algorithm = jwt.HS512 })

	token := mustLogin(t, hs512, map[string]any{"id": 1}, nil)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrAlgorithmMismatch) {
		t.Fatalf("expected ErrAlgorithmMismatch, got %v", err)
	}

	parts := strings.Split(mustLogin(t, engine, map[string]any{"id": 1}, nil), ".")
	for _, header := range []string{`{"typ":"JWT","alg":"none"}`, `{"typ":"JWT"}`, `{"typ":"JWT","alg":"hs256"}`} {
		forged := codec.EncodeString(header) + "." + parts[1] + "." + parts[2]
		if _, err := engine.Validate(context.Background(), forged); !errors.Is(err, ErrAlgorithmMismatch) {
			t.Fatalf("header %s: expected ErrAlgorithmMismatch, got %v", header, err)
		}
	}
}

func TestValidateMalformed(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) { c.MaxTokenLength = 512 })
	valid := mustLogin(t, engine, map[string]any{"id": 1}, nil)
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":          "",
		"one segment":    "abc",
		"two segments":   "abc.def",
		"four segments":  valid + ".x",
		"bad alphabet":   parts[0] + ".pay+load." + parts[2],
		"header not b64": "!!!." + parts[1] + "." + parts[2],
		"header not json": codec.EncodeString("plain") + "." + parts[1] + "." + parts[2],
		"too long":       valid + strings.Repeat("A", 512),
	}
	for name, token := range cases {
		if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrMalformedToken) {
			t.Fatalf("%s: expected ErrMalformedToken, got %v", name, err)
		}
	}
}

func TestValidateExpirationBoundary(t *testing.T) {
	engine, clk := newTestEngine(t, nil)
	token := mustLogin(t, engine, map[string]any{"id": 1}, nil)

	clk.Advance(time.Hour)
	if _, err := engine.Validate(context.Background(), token); err != nil {
		t.Fatalf("token must be valid at exp, got %v", err)
	}

	clk.Advance(time.Second)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	c, err := engine.Validate(context.Background(), token, IgnoreExpiration())
	if err != nil {
		t.Fatalf("IgnoreExpiration must accept an expired token, got %v", err)
	}
	if id, _ := c.Int64("id"); id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
}

func TestValidateLeeway(t *testing.T) {
	engine, clk := newTestEngine(t, func(c *Config) { c.Leeway = 30 * time.Second })
	token := mustLogin(t, engine, nil, nil)

	clk.Advance(time.Hour + 30*time.Second)
	if _, err := engine.Validate(context.Background(), token); err != nil {
		t.Fatalf("expected token within leeway to validate, got %v", err)
	}
	clk.Advance(time.Second)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired past leeway, got %v", err)
	}
}

func TestValidateNotYetValid(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	future, futureClock := newTestEngine(t, nil)
	futureClock.Advance(10 * time.Minute)

	token := mustLogin(t, future, nil, nil)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrNotYetValid) {
		t.Fatalf("expected ErrNotYetValid, got %v", err)
	}
}

func TestValidateIssuerAndAudience(t *testing.T) {
	strict, _ := newTestEngine(t, func(c *Config) {
		c.Issuer, c.VerifyIssuer = "auth", true
		c.Audience, c.VerifyAudience = "web", true
	})
	wrongIssuer, _ := newTestEngine(t, func(c *Config) {
		c.Issuer, c.Audience = "other", "web"
	})
	wrongAudience, _ := newTestEngine(t, func(c *Config) {
		c.Issuer, c.Audience = "auth", "mobile"
	})

	if _, err := strict.Validate(context.Background(), mustLogin(t, strict, nil, nil)); err != nil {
		t.Fatalf("expected own token to validate, got %v", err)
	}
	if _, err := strict.Validate(context.Background(), mustLogin(t, wrongIssuer, nil, nil)); !errors.Is(err, ErrIssuerMismatch) {
		t.Fatalf("expected ErrIssuerMismatch, got %v", err)
	}
	if _, err := strict.Validate(context.Background(), mustLogin(t, wrongAudience, nil, nil)); !errors.Is(err, ErrAudienceMismatch) {
		t.Fatalf("expected ErrAudienceMismatch, got %v", err)
	}
}

func TestLogoutRevokes(t *testing.T) {
	engine, clk := newTestEngine(t, nil)
	token := mustLogin(t, engine, map[string]any{"id": 1}, nil)

	ok, err := engine.Logout(context.Background(), token)
	if !ok || err != nil {
		t.Fatalf("expected logout success, got ok=%v err=%v", ok, err)
	}
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
	if !engine.IsBlacklisted(context.Background(), token) {
		t.Fatal("expected token to be blacklisted")
	}

	clk.Advance(2 * time.Hour)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("revocation must dominate expiry, got %v", err)
	}
	if _, err := engine.Validate(context.Background(), token, IgnoreExpiration()); !errors.Is(err, ErrRevoked) {
		t.Fatalf("IgnoreExpiration must not bypass revocation, got %v", err)
	}

	ok, err = engine.Logout(context.Background(), token)
	if ok || err != nil {
		t.Fatalf("second logout must report false without error, got ok=%v err=%v", ok, err)
	}
}

func TestLogoutExpiredTokenStillRevokes(t *testing.T) {
	engine, clk := newTestEngine(t, nil)
	token := mustLogin(t, engine, nil, nil)

	clk.Advance(3 * time.Hour)
	ok, err := engine.Blacklist(context.Background(), token)
	if !ok || err != nil {
		t.Fatalf("expected expired token logout to succeed, got ok=%v err=%v", ok, err)
	}
	if _, err := engine.Refresh(context.Background(), token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected refresh of revoked token to fail with ErrRevoked, got %v", err)
	}
}

func TestLogoutInvalidToken(t *testing.T) {
	engine, _ := newTestEngine(t, nil)

	for _, token := range []string{"", "a.b.c", "garbage"} {
		ok, err := engine.Logout(context.Background(), token)
		if ok || err != nil {
			t.Fatalf("Logout(%q) = %v, %v; want false, nil", token, ok, err)
		}
	}
	if engine.IsBlacklisted(context.Background(), "a.b.c") {
		t.Fatal("invalid token must not read as blacklisted")
	}
}

func TestLogoutWithoutTokenID(t *testing.T) {
	engine, _ := newTestEngine(t, nil, func(b *Builder) {
		b.WithIDGenerator(func(time.Time) (string, error) { return "", nil })
	})
	token := mustLogin(t, engine, nil, nil)

	ok, err := engine.Logout(context.Background(), token)
	if ok || err != nil {
		t.Fatalf("expected false, nil for token without jti, got %v, %v", ok, err)
	}
}

func TestLogoutRevocationDisabled(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) { c.RevocationEnabled = false })
	token := mustLogin(t, engine, nil, nil)

	ok, err := engine.Logout(context.Background(), token)
	if !ok || err != nil {
		t.Fatalf("expected stateless logout success, got ok=%v err=%v", ok, err)
	}
	if _, err := engine.Validate(context.Background(), token); err != nil {
		t.Fatalf("token must stay valid with revocation disabled, got %v", err)
	}
	if engine.IsBlacklisted(context.Background(), token) {
		t.Fatal("nothing is blacklisted with revocation disabled")
	}
	if ok, _ := engine.Logout(context.Background(), "garbage"); ok {
		t.Fatal("invalid token must not log out")
	}
}

func TestRefreshCarriesCustomClaims(t *testing.T) {
	engine, clk := newTestEngine(t, func(c *Config) {
		c.SubjectAttribute = "id"
		c.Issuer = "api"
	})
	token := mustLogin(t, engine, map[string]any{"id": 1, "name": "Ana"}, map[string]any{"role": "admin"})
	old, err := engine.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	clk.Advance(2 * time.Hour)
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected old token to be expired, got %v", err)
	}

	refreshed, err := engine.Refresh(context.Background(), token)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	c, err := engine.Validate(context.Background(), refreshed)
	if err != nil {
		t.Fatalf("refreshed token must validate, got %v", err)
	}

	if name, _ := c.String("name"); name != "Ana" {
		t.Fatalf("expected name carried over, got %q", name)
	}
	if role, _ := c.String("role"); role != "admin" {
		t.Fatalf("expected role carried over, got %q", role)
	}
	if c.Subject() != "1" || c.Issuer() != "api" {
		t.Fatalf("expected sub=1 iss=api, got sub=%q iss=%q", c.Subject(), c.Issuer())
	}
	if c.ID() == old.ID() {
		t.Fatal("refresh must mint a new jti")
	}
	if iat, _ := c.IssuedAt(); !iat.Equal(testStart.Add(2 * time.Hour)) {
		t.Fatalf("expected fresh iat, got %v", iat)
	}
}

func TestRefreshWindow(t *testing.T) {
	engine, clk := newTestEngine(t, func(c *Config) { c.RefreshWindow = 30 * time.Minute })
	token := mustLogin(t, engine, nil, nil)

	clk.Advance(time.Hour + 30*time.Minute)
	if _, err := engine.Refresh(context.Background(), token); err != nil {
		t.Fatalf("expected refresh at window edge to succeed, got %v", err)
	}

	clk.Advance(time.Second)
	refreshed, err := engine.Refresh(context.Background(), token)
	if !errors.Is(err, ErrRefreshWindowExceeded) || refreshed != "" {
		t.Fatalf("expected ErrRefreshWindowExceeded, got %q, %v", refreshed, err)
	}
}

func TestRefreshRotation(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) { c.RotateOnRefresh = true })
	token := mustLogin(t, engine, map[string]any{"id": 1}, nil)

	refreshed, err := engine.Refresh(context.Background(), token)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected rotated token to be revoked, got %v", err)
	}
	if _, err := engine.Validate(context.Background(), refreshed); err != nil {
		t.Fatalf("expected new token to validate, got %v", err)
	}
	if _, err := engine.Refresh(context.Background(), token); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected second refresh of rotated token to fail, got %v", err)
	}
}

func TestRefreshWithoutRotationKeepsOldToken(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	token := mustLogin(t, engine, nil, nil)

	if _, err := engine.Refresh(context.Background(), token); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, err := engine.Validate(context.Background(), token); err != nil {
		t.Fatalf("old token must remain valid without rotation, got %v", err)
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	engine, _ := newTestEngine(t, nil)
	refreshed, err := engine.Refresh(context.Background(), "a.b.c")
	if refreshed != "" || !errors.Is(err, ErrMalformedToken) && !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected typed failure, got %q, %v", refreshed, err)
	}
}

func TestPurgeRevokedAfterRetention(t *testing.T) {
	engine, clk := newTestEngine(t, func(c *Config) { c.RefreshWindow = time.Hour })
	token := mustLogin(t, engine, nil, nil)

	if ok, err := engine.Logout(context.Background(), token); !ok || err != nil {
		t.Fatalf("Logout failed: ok=%v err=%v", ok, err)
	}

	n, err := engine.PurgeRevoked(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected nothing purged yet, got %d, %v", n, err)
	}

	clk.Advance(2*time.Hour + time.Second)
	n, err = engine.PurgeRevoked(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("expected one entry purged, got %d, %v", n, err)
	}

	if _, err := engine.Refresh(context.Background(), token); !errors.Is(err, ErrRefreshWindowExceeded) {
		t.Fatalf("purged token must still be unusable, got %v", err)
	}
}

func TestJanitorPurgesInBackground(t *testing.T) {
	engine, clk := newTestEngine(t, func(c *Config) {
		c.RefreshWindow = time.Minute
		c.Revocation.PurgeInterval = time.Hour
		c.Metrics.Enabled = true
	})
	token := mustLogin(t, engine, nil, nil)
	if ok, err := engine.Logout(context.Background(), token); !ok || err != nil {
		t.Fatalf("Logout failed: ok=%v err=%v", ok, err)
	}

	if err := clk.WaitAdvance(3*time.Hour, time.Second, 1); err != nil {
		t.Fatalf("janitor never waited on the clock: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for engine.MetricsSnapshot().Counters[MetricRevocationPurged] != 1 {
		if time.Now().After(deadline) {
			t.Fatal("janitor did not purge the expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestEngineNotReady(t *testing.T) {
	var engine *Engine
	ctx := context.Background()

	if _, err := engine.Login(ctx, nil, nil); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Login: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Validate(ctx, "a.b.c"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Validate: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Logout(ctx, "a.b.c"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Logout: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.Refresh(ctx, "a.b.c"); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("Refresh: expected ErrEngineNotReady, got %v", err)
	}
	if _, err := engine.PurgeRevoked(ctx); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("PurgeRevoked: expected ErrEngineNotReady, got %v", err)
	}
	if engine.IsBlacklisted(ctx, "a.b.c") {
		t.Fatal("nil engine must not report blacklisted")
	}
	engine.Close()

	var zero Engine
	if _, err := zero.Login(ctx, nil, nil); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("zero Engine: expected ErrEngineNotReady, got %v", err)
	}
}

func TestBuilderSingleUseAndValidation(t *testing.T) {
	b := New()
	if _, err := b.Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig without secret, got %v", err)
	}

	cfg := DefaultConfig()
	cfg.Secret = testSecret
	b = New().WithConfig(cfg)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}

	cfg.Revocation.Backend = RevocationRedis
	if _, err := New().WithConfig(cfg).Build(); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for redis without client, got %v", err)
	}
}

func TestBuilderCopiesSecret(t *testing.T) {
	secret := append([]byte(nil), testSecret...)
	cfg := DefaultConfig()
	cfg.Secret = secret

	b := New().WithConfig(cfg)
	secret[0] ^= 0xff
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	verifier, _ := newTestEngine(t, nil)
	token := mustLogin(t, engine, nil, nil)
	if _, err := verifier.Validate(context.Background(), token, IgnoreExpiration()); err != nil {
		t.Fatalf("engine must sign with the secret captured at WithConfig, got %v", err)
	}
}

func TestWithRevocationStoreOverridesBackend(t *testing.T) {
	store := &recordingStore{revoked: map[string]time.Time{}}
	engine, _ := newTestEngine(t, func(c *Config) { c.RefreshWindow = time.Hour }, func(b *Builder) {
		b.WithRevocationStore(store)
	})
	token := mustLogin(t, engine, nil, nil)
	c, _ := engine.Validate(context.Background(), token)

	if ok, err := engine.Logout(context.Background(), token); !ok || err != nil {
		t.Fatalf("Logout failed: ok=%v err=%v", ok, err)
	}
	want := testStart.Add(2 * time.Hour)
	if got := store.revoked[c.ID()]; !got.Equal(want) {
		t.Fatalf("expected retention %v, got %v", want, got)
	}
	if n, err := engine.PurgeRevoked(context.Background()); n != 0 || err != nil {
		t.Fatalf("store without Purge must report 0, nil; got %d, %v", n, err)
	}
}

func TestRevocationStoreFailureFailsClosed(t *testing.T) {
	store := &recordingStore{revoked: map[string]time.Time{}, err: errors.New("down")}
	engine, _ := newTestEngine(t, func(c *Config) { c.RotateOnRefresh = true }, func(b *Builder) {
		b.WithRevocationStore(store)
	})
	token := mustLogin(t, engine, nil, nil)

	if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("expected ErrRevocationUnavailable, got %v", err)
	}
	ok, err := engine.Logout(context.Background(), token)
	if ok || !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("expected false, ErrRevocationUnavailable; got %v, %v", ok, err)
	}
	refreshed, err := engine.Refresh(context.Background(), token)
	if refreshed != "" || !errors.Is(err, ErrRevocationUnavailable) {
		t.Fatalf("expected refresh to fail closed, got %q, %v", refreshed, err)
	}
	if engine.IsBlacklisted(context.Background(), token) {
		t.Fatal("IsBlacklisted must read backend failures as false")
	}
}

func TestConcurrentLoginValidateLogout(t *testing.T) {
	engine, _ := newTestEngine(t, func(c *Config) { c.Metrics.Enabled = true })

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				token, err := engine.Login(context.Background(), map[string]any{"worker": w, "i": i}, nil)
				if err != nil {
					errs <- err
					return
				}
				if _, err := engine.Validate(context.Background(), token); err != nil {
					errs <- err
					return
				}
				if i%2 == 0 {
					if ok, err := engine.Logout(context.Background(), token); !ok || err != nil {
						errs <- errors.New("logout failed")
						return
					}
					if _, err := engine.Validate(context.Background(), token); !errors.Is(err, ErrRevoked) {
						errs <- errors.New("revoked token validated")
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricTokenIssued]; got != workers*perWorker {
		t.Fatalf("expected %d issued, got %d", workers*perWorker, got)
	}
	if got := snap.Counters[MetricRevokedRejected]; got != workers*perWorker/2 {
		t.Fatalf("expected %d revoked rejections, got %d", workers*perWorker/2, got)
	}
}

type recordingStore struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func (s *recordingStore) Add(_ context.Context, jti string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[jti] = expiresAt
	return nil
}

func (s *recordingStore) Has(_ context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.revoked[jti]
	return ok, nil
}
