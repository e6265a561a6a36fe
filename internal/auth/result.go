// ABOUTME: AuthResult type produced by the tri-auth resolver
// ABOUTME: Scopes nil means session principal; non-nil (possibly empty) means token principal

package auth

import (
	"github.com/townday/townday/internal/store"
)

// Method identifies which credential scheme authenticated a request.
type Method string

const (
	// MethodPAT is a personal access token (td_pat_ prefix).
	MethodPAT Method = "pat"
	// MethodOAuth is an opaque OAuth bearer token.
	MethodOAuth Method = "oauth"
	// MethodSession is a signed browser session cookie.
	MethodSession Method = "session"
)

// Result is the normalized outcome of credential resolution. It is
// created once per HTTP request and never mutated afterwards.
//
// Scopes encodes the principal class: nil means a session principal
// whose capability access is not scope-limited; a non-nil slice
// (possibly empty) means a token principal restricted to exactly
// those scopes. Constructors below maintain that invariant.
type Result struct {
	User    *store.User
	Scopes  []string
	Method  Method
	TokenID string // PAT record ID, empty for oauth/session
}

// NewTokenResult builds a Result for a token principal. The scope
// slice is copied and never left nil, so an unscoped token stays
// distinguishable from a session.
func NewTokenResult(u *store.User, method Method, tokenID string, scopes []string) *Result {
	s := make([]string, len(scopes))
	copy(s, scopes)
	return &Result{User: u, Scopes: s, Method: method, TokenID: tokenID}
}

// NewSessionResult builds a Result for a session principal.
func NewSessionResult(u *store.User) *Result {
	return &Result{User: u, Method: MethodSession, Scopes: nil}
}

// Session reports whether this principal authenticated via session
// cookie and therefore bypasses scope checks.
func (r *Result) Session() bool {
	return r.Scopes == nil
}
