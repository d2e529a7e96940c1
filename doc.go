// Package jwtauth issues and validates compact HMAC-signed bearer tokens
// (header.payload.signature, base64url without padding) with revocation by token ID and
// sliding refresh.
//
// An [Engine] is built once through [Builder.Build] and is safe for concurrent use. It
// exposes Login, Validate, Logout, Refresh and IsBlacklisted; claim construction lives in
// package claims, segment encoding in package codec, HMAC signing in package jwt and the
// revocation backends in package revocation.
//
// # Architecture boundaries
//
// jwtauth is the public surface. Flow orchestration and audit dispatch live under
// internal/ and are never exported. Errors are sentinel values matched with errors.Is;
// [ErrorCode] maps them to stable strings for HTTP layers and audit records.
//
// # What this package must NOT do
//
//   - Trust any payload field before the signature has been verified.
//   - Accept a header alg other than the configured one, including "none".
//   - Let a revoked token validate, even with IgnoreExpiration.
//   - Perform I/O outside Engine methods and the revocation janitor.
//
// # Performance contract
//
// Validate makes no backend round-trip when revocation is disabled, and at most one
// (an EXISTS on Redis) when it is enabled. Login never touches the revocation store.
package jwtauth
