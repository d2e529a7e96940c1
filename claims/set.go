package claims

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	// ErrReservedClaim is returned by SetCustom for a registered claim name.
	ErrReservedClaim = errors.New("reserved claim name")
	// ErrUnsupportedValue is returned for claim values that are not a JSON string,
	// number or boolean.
	ErrUnsupportedValue = errors.New("unsupported claim value")
	// ErrInvalidPayload is returned by Parse for payloads that are not a JSON object of
	// primitive values.
	ErrInvalidPayload = errors.New("invalid claims payload")
)

// Set is a claim name to primitive value mapping. The zero value is not usable; use New,
// Build or Parse.
//
// A Set is not safe for concurrent mutation. Sets handed out by the engine are fresh
// copies owned by the caller.
type Set struct {
	values map[string]any
}

// New returns an empty Set.
func New() *Set {
	return &Set{values: make(map[string]any)}
}

// SetIssuer sets iss. An empty value removes the claim.
func (s *Set) SetIssuer(v string) { s.setString(Issuer, v) }

// SetSubject sets sub. An empty value removes the claim.
func (s *Set) SetSubject(v string) { s.setString(Subject, v) }

// SetAudience sets aud. An empty value removes the claim.
func (s *Set) SetAudience(v string) { s.setString(Audience, v) }

// SetID sets jti. An empty value removes the claim.
func (s *Set) SetID(v string) { s.setString(ID, v) }

// SetIssuedAt sets iat to t in Unix seconds.
func (s *Set) SetIssuedAt(t time.Time) { s.values[IssuedAt] = t.Unix() }

// SetNotBefore sets nbf to t in Unix seconds.
func (s *Set) SetNotBefore(t time.Time) { s.values[NotBefore] = t.Unix() }

// SetExpiresAt sets exp to t in Unix seconds.
func (s *Set) SetExpiresAt(t time.Time) { s.values[ExpiresAt] = t.Unix() }

func (s *Set) setString(name, v string) {
	if v == "" {
		delete(s.values, name)
		return
	}
	s.values[name] = v
}

// SetCustom stores a non-registered claim. Registered names fail with ErrReservedClaim
// and anything other than a string, number or boolean fails with ErrUnsupportedValue.
func (s *Set) SetCustom(name string, value any) error {
	if IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedClaim, name)
	}
	if name == "" {
		return fmt.Errorf("%w: empty claim name", ErrUnsupportedValue)
	}
	if !isPrimitive(value) {
		return fmt.Errorf("%w: %q has type %T", ErrUnsupportedValue, name, value)
	}
	s.values[name] = value
	return nil
}

// Merge copies every non-registered entry of custom into s. Registered names are
// skipped without error.
func (s *Set) Merge(custom map[string]any) error {
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if IsReserved(name) {
			continue
		}
		if err := s.SetCustom(name, custom[name]); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the raw value stored under name.
func (s *Set) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Has reports whether name is present.
func (s *Set) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Len returns the number of claims.
func (s *Set) Len() int { return len(s.values) }

// Names returns the claim names in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.values))
	for name := range s.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// String returns the claim under name when it is a string.
func (s *Set) String(name string) (string, bool) {
	v, ok := s.values[name].(string)
	return v, ok
}

// Int64 returns the claim under name as an integer. Numbers decoded from a payload are
// json.Number; fractional values are truncated.
func (s *Set) Int64(name string) (int64, bool) {
	v, ok := s.values[name]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// Issuer returns iss or "".
func (s *Set) Issuer() string {
	v, _ := s.String(Issuer)
	return v
}

// Subject returns sub or "".
func (s *Set) Subject() string {
	v, _ := s.String(Subject)
	return v
}

// Audience returns aud or "".
func (s *Set) Audience() string {
	v, _ := s.String(Audience)
	return v
}

// ID returns jti or "".
func (s *Set) ID() string {
	v, _ := s.String(ID)
	return v
}

// IssuedAt returns iat as a time.
func (s *Set) IssuedAt() (time.Time, bool) { return s.unixTime(IssuedAt) }

// NotBefore returns nbf as a time.
func (s *Set) NotBefore() (time.Time, bool) { return s.unixTime(NotBefore) }

// ExpiresAt returns exp as a time.
func (s *Set) ExpiresAt() (time.Time, bool) { return s.unixTime(ExpiresAt) }

func (s *Set) unixTime(name string) (time.Time, bool) {
	sec, ok := s.Int64(name)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// Map returns a copy of every claim.
func (s *Set) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Custom returns a copy of the non-registered claims.
func (s *Set) Custom() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if IsReserved(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// Clone returns a deep copy of s.
func (s *Set) Clone() *Set {
	return &Set{values: s.Map()}
}

// StripLifecycle returns a copy of c without iat, exp, nbf and jti.
func StripLifecycle(c *Set) *Set {
	out := c.Clone()
	for _, name := range lifecycle {
		delete(out.values, name)
	}
	return out
}

// MarshalJSON encodes the claims as a JSON object with keys in sorted order.
func (s *Set) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// Parse decodes a JSON payload. Numbers are kept as json.Number so integer claims
// survive without float rounding.
func Parse(payload []byte) (*Set, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var values map[string]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	if values == nil {
		return nil, fmt.Errorf("%w: not an object", ErrInvalidPayload)
	}
	for name, v := range values {
		if !isPrimitive(v) {
			return nil, fmt.Errorf("%w: %q has type %T", ErrInvalidPayload, name, v)
		}
	}
	return &Set{values: values}, nil
}

func isPrimitive(v any) bool {
	switch x := v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case float32:
		f := float64(x)
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt64(f)
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case float32:
		return floatToInt64(float64(x))
	case float64:
		return floatToInt64(x)
	default:
		return 0, false
	}
}

// twoTo63 is exactly representable, unlike math.MaxInt64.
const twoTo63 = float64(1 << 63)

// floatToInt64 truncates f, rejecting values a conversion would wrap.
func floatToInt64(f float64) (int64, bool) {
	if math.IsNaN(f) || f < -twoTo63 || f >= twoTo63 {
		return 0, false
	}
	return int64(f), true
}
