// Package auth provides credential resolution and authorization identity
// for the townday API surface.
//
// # Authentication Methods
//
// Three credential schemes are supported, evaluated in strict priority order:
//
//   - Personal Access Tokens: long-lived API credentials prefixed with
//     "td_pat_". Only the SHA-256 digest is stored; verification hashes the
//     presented token and looks it up by digest, then checks expiry and
//     revocation.
//
//   - OAuth Bearer Tokens: opaque tokens issued to third-party apps.
//     Issuance and consent are out of scope; this package only unwraps a
//     token into its grant (principal plus scope set) via OAuthUnwrapper.
//
//   - Session Cookies: HS256-signed JWTs set by the web frontend. Session
//     principals carry a nil scope set, which downstream authorization
//     treats as "not scope-limited" (role checks apply instead).
//
// # Priority and Fall-Through
//
// A bearer token carrying the PAT prefix is only ever checked against the
// token store; failure does not fall through to OAuth or session auth.
// An untagged bearer token goes to the OAuth unwrapper. The session cookie
// is consulted only when no Authorization header is present at all. This
// keeps a stale token from being silently masked by an unrelated valid
// session cookie.
//
// # Result
//
// All schemes normalize to a Result: the user, the method, and the scope
// set (nil for sessions, non-nil and possibly empty for tokens). Results
// are immutable and request-scoped; WithAuth/FromContext thread them
// through handlers.
//
// # Side Effects
//
// Successful PAT resolution triggers a fire-and-forget last-used update on
// a detached context. It never blocks or fails the request.
package auth
