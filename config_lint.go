package jwtauth

import (
	"fmt"
	"time"
)

// LintSeverity ranks a LintWarning.
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "info"
	case LintWarn:
		return "warn"
	case LintHigh:
		return "high"
	default:
		return "unknown"
	}
}

// LintWarning is one advisory finding. Code is stable and safe to match on.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered list of findings for a Config.
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	out := make([]string, 0, len(r))
	for _, w := range r {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// Lint reports settings that are valid but questionable. It never fails; run
// Validate for hard errors.
func (c Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, format string, args ...any) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if hash, err := c.Algorithm.Hash(); err == nil && len(c.Secret) > 0 && len(c.Secret) < hash.Size() {
		add("secret_short", LintHigh, "Secret is %d bytes; %s wants at least %d", len(c.Secret), c.Algorithm, hash.Size())
	}
	if c.Expiration > 24*time.Hour {
		add("expiration_long", LintWarn, "Expiration %s exceeds 24h", c.Expiration)
	}
	if c.Leeway > time.Minute {
		add("leeway_large", LintWarn, "Leeway %s exceeds 1m", c.Leeway)
	}
	if !c.RevocationEnabled {
		add("revocation_disabled", LintWarn, "Logout cannot invalidate tokens before exp")
	}
	if c.RevocationEnabled && c.RefreshWindow == 0 {
		add("refresh_window_unbounded", LintWarn, "expired tokens can be refreshed forever and revocation entries are never purged")
	}
	if c.RevocationEnabled && !c.RotateOnRefresh {
		add("refresh_rotation_disabled", LintInfo, "refreshed tokens stay valid until their own exp")
	}
	if c.Issuer != "" && !c.VerifyIssuer {
		add("issuer_unverified", LintInfo, "iss is embedded but not checked on Validate")
	}
	if c.Audience != "" && !c.VerifyAudience {
		add("audience_unverified", LintInfo, "aud is embedded but not checked on Validate")
	}
	if c.MaxTokenLength == 0 {
		add("token_length_uncapped", LintWarn, "tokens of any size are decoded")
	}
	if c.RevocationEnabled && c.Revocation.Backend == RevocationMemory && c.Revocation.PurgeInterval == 0 {
		add("memory_revocation_unpurged", LintWarn, "in-memory revocation entries are only dropped by explicit PurgeRevoked calls")
	}

	return ws
}
