// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunIssue, RunValidate, RunLogout, RunRefresh) accepts a typed
// dependency struct and returns a result carrying either the success payload or a
// classified failure. The root package maps failure kinds onto its exported errors,
// metrics and audit events, which keeps the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate the codec, the signer, the claim checks and the
// revocation store. They do NOT own any of these resources; ownership stays with the
// Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import jwtauth (to avoid import cycles).
//   - Read the wall clock. Time always arrives through a Now dependency.
package flows
