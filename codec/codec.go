package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrDecode is returned when a segment contains characters outside the base64url
	// alphabet or does not decode to valid Base64.
	ErrDecode = errors.New("invalid base64url segment")
	// ErrMalformed is returned when a token does not have exactly three decodable segments.
	ErrMalformed = errors.New("malformed token")
)

// segmentParser re-pads segments to a multiple of four before decoding and rejects
// non-canonical trailing bits.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed(), jwt.WithStrictDecoding())

// segmentEncoder only carries the EncodeSegment method; it holds no token state.
var segmentEncoder = &jwt.Token{}

// Encode returns the base64url form of b with padding stripped. It never fails.
func Encode(b []byte) string {
	return segmentEncoder.EncodeSegment(b)
}

// EncodeString is Encode for string input.
func EncodeString(s string) string {
	return Encode([]byte(s))
}

// Decode reverses Encode. Input characters outside [A-Za-z0-9_-] are rejected before any
// decoding is attempted.
func Decode(s string) ([]byte, error) {
	if i := invalidIndex(s); i >= 0 {
		return nil, fmt.Errorf("%w: illegal character at offset %d", ErrDecode, i)
	}
	if s == "" {
		return []byte{}, nil
	}
	out, err := segmentParser.DecodeSegment(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return out, nil
}

// DecodeJSON decodes a segment and unmarshals its JSON content into dest.
func DecodeJSON(segment string, dest any) error {
	raw, err := Decode(segment)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON value", ErrMalformed)
	}
	return nil
}

// Split returns the three segments of token. Each segment must be non-empty and
// decodable; anything else fails with ErrMalformed.
func Split(token string) (header, payload, signature string, err error) {
	first := strings.IndexByte(token, '.')
	if first < 0 {
		return "", "", "", fmt.Errorf("%w: expected 3 segments", ErrMalformed)
	}
	rest := token[first+1:]
	second := strings.IndexByte(rest, '.')
	if second < 0 || strings.IndexByte(rest[second+1:], '.') >= 0 {
		return "", "", "", fmt.Errorf("%w: expected 3 segments", ErrMalformed)
	}

	header = token[:first]
	payload = rest[:second]
	signature = rest[second+1:]

	for _, seg := range [3]string{header, payload, signature} {
		if seg == "" {
			return "", "", "", fmt.Errorf("%w: empty segment", ErrMalformed)
		}
		if _, derr := Decode(seg); derr != nil {
			return "", "", "", fmt.Errorf("%w: %v", ErrMalformed, derr)
		}
	}

	return header, payload, signature, nil
}

// ValidateStructure reports whether token has exactly three non-empty, decodable segments.
func ValidateStructure(token string) bool {
	_, _, _, err := Split(token)
	return err == nil
}

// ValidateFormat goes one step past ValidateStructure: the header must be a JSON object
// carrying "alg" and typ "JWT", and the payload must be a JSON object.
func ValidateFormat(token string) bool {
	h, p, _, err := Split(token)
	if err != nil {
		return false
	}

	var header map[string]any
	if err := DecodeJSON(h, &header); err != nil || header == nil {
		return false
	}
	alg, _ := header["alg"].(string)
	typ, _ := header["typ"].(string)
	if alg == "" || typ != "JWT" {
		return false
	}

	var payload map[string]any
	if err := DecodeJSON(p, &payload); err != nil || payload == nil {
		return false
	}
	return true
}

func invalidIndex(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return i
		}
	}
	return -1
}
