// Package claims models the payload of a token: the seven registered claims plus any
// number of primitive custom claims.
//
// # Reserved names
//
// iss, sub, aud, exp, nbf, iat and jti are only ever written through the dedicated
// setters on [Set]. [Set.SetCustom] rejects them, and [Build] and [Set.Merge] drop them
// from caller-supplied attribute maps, so user data can never forge lifecycle claims.
//
// # Temporal checks
//
// [CheckTemporal] requires iat, nbf and exp to be present and numeric, then compares
// exp and nbf against the supplied instant with an optional leeway. Callers pass the
// instant in; this package never reads the wall clock on the validation path.
//
// # What this package must NOT do
//
//   - Sign, verify or encode tokens.
//   - Consult revocation state.
//   - Accept nested objects or arrays as claim values.
package claims
