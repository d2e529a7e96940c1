package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/jwtauth"
	"github.com/MrEthical07/jwtauth/claims"
)

// Validator is the part of *jwtauth.Engine the guard needs.
type Validator interface {
	Validate(ctx context.Context, token string, opts ...jwtauth.ValidateOption) (*claims.Set, error)
}

// Option configures Guard.
type Option func(*guardConfig)

type guardConfig struct {
	exact    map[string]struct{}
	prefixes []string
}

// WithPublicRoutes lets requests to the given paths through without a token. A route
// ending in "/*" matches its base path and everything beneath it.
func WithPublicRoutes(routes ...string) Option {
	return func(c *guardConfig) {
		for _, route := range routes {
			if base, ok := strings.CutSuffix(route, "/*"); ok {
				c.prefixes = append(c.prefixes, base)
				continue
			}
			c.exact[route] = struct{}{}
		}
	}
}

func (c *guardConfig) isPublic(path string) bool {
	if _, ok := c.exact[path]; ok {
		return true
	}
	for _, base := range c.prefixes {
		if path == base || strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}

type userContextKey struct{}

// UserFromContext returns the custom claims of the authenticated token, with the
// registered claims removed.
func UserFromContext(ctx context.Context) (map[string]any, bool) {
	user, ok := ctx.Value(userContextKey{}).(map[string]any)
	return user, ok
}

// Guard rejects requests without a valid bearer token. Validated claims are stored with
// jwtauth.WithClaims and the custom claims are available through UserFromContext.
// Malformed tokens get 400, every other failure 401, both with a JSON error code.
func Guard(v Validator, opts ...Option) func(http.Handler) http.Handler {
	cfg := &guardConfig{exact: map[string]struct{}{}}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if v == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing_token")
				return
			}

			c, err := v.Validate(r.Context(), token)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, jwtauth.ErrMalformedToken) {
					status = http.StatusBadRequest
				}
				writeError(w, status, jwtauth.ErrorCode(err))
				return
			}

			ctx := jwtauth.WithClaims(r.Context(), c)
			ctx = context.WithValue(ctx, userContextKey{}, c.Custom())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// bearerToken accepts "Bearer <token>" with any scheme casing and surrounding spaces.
func bearerToken(value string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(value), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}

	return token, true
}
