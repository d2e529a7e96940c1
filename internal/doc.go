// Package internal holds the engine plumbing that is private to jwtauth.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: pure-function orchestrators for Login, Validate, Logout and Refresh
//
// # What this package must NOT do
//
//   - Export types that appear in the public jwtauth API other than through aliases.
//   - Be imported by any package outside the jwtauth module.
package internal
