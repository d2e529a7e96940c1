package claims

// Registered claim names.
const (
	Issuer    = "iss"
	Subject   = "sub"
	Audience  = "aud"
	ExpiresAt = "exp"
	NotBefore = "nbf"
	IssuedAt  = "iat"
	ID        = "jti"
)

var reserved = map[string]struct{}{
	Issuer:    {},
	Subject:   {},
	Audience:  {},
	ExpiresAt: {},
	NotBefore: {},
	IssuedAt:  {},
	ID:        {},
}

var lifecycle = [...]string{IssuedAt, ExpiresAt, NotBefore, ID}

// IsReserved reports whether name is one of the registered claim names.
func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

// Reserved returns the registered claim names.
func Reserved() []string {
	return []string{Issuer, Subject, Audience, ExpiresAt, NotBefore, IssuedAt, ID}
}
