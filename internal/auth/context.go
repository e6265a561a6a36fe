// ABOUTME: Authentication context for tracking identity through request handlers
// ABOUTME: Provides WithAuth/FromContext for propagating the resolved Result via context

package auth

import (
	"context"
)

// authContextKey is the key type for storing a Result in context.Context.
type authContextKey struct{}

// WithAuth returns a new context with the Result attached.
func WithAuth(ctx context.Context, res *Result) context.Context {
	return context.WithValue(ctx, authContextKey{}, res)
}

// FromContext retrieves the Result from the context, returning nil if not present.
func FromContext(ctx context.Context) *Result {
	val := ctx.Value(authContextKey{})
	if val == nil {
		return nil
	}
	res, ok := val.(*Result)
	if !ok {
		return nil
	}
	return res
}

// MustFromContext retrieves the Result from the context, panicking if not present.
func MustFromContext(ctx context.Context) *Result {
	res := FromContext(ctx)
	if res == nil {
		panic("auth: Result not found in context")
	}
	return res
}
