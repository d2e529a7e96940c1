// Package middleware adapts jwtauth token validation to net/http.
//
// [Guard] reads the Authorization header, calls Engine.Validate and injects the
// validated claims into the request context. Public routes bypass the check; a route
// ending in "/*" covers a whole subtree.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT implement
// token logic itself; every decision is delegated to Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or sign tokens directly.
//   - Access the revocation store.
//   - Make authorization decisions beyond pass/reject from Engine.Validate.
package middleware
