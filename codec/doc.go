// Package codec implements the URL-safe, unpadded Base64 representation used for every
// token segment, and the structural checks that gate a token before any cryptographic
// work is attempted.
//
// # Structural gate
//
// [Split] and [ValidateStructure] are cheap: they split on '.' and decode each segment.
// Callers run them before signature verification so malformed input is rejected without
// spending HMAC time on it.
//
// # What this package must NOT do
//
//   - Verify signatures or interpret claims.
//   - Allocate beyond the decoded segment buffers.
package codec
