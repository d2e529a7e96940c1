// Package revocation records the identifiers (jti) of tokens that were explicitly
// revoked before their natural expiry.
//
// # Backends
//
// [MemoryStore] keeps entries in a process-local map guarded by a read/write mutex and
// relies on [Janitor] (or explicit [MemoryStore.Purge] calls) to drop entries past their
// retention time. [RedisStore] writes one key per identifier with a TTL equal to the
// remaining retention, so entries expire on their own and are shared by every engine
// instance pointed at the same Redis.
//
// # What this package must NOT do
//
//   - Parse, sign or validate tokens.
//   - Decide how long an entry must be retained; the caller passes the expiry in.
//   - Swallow backend errors. Callers decide whether to fail open or closed.
package revocation
