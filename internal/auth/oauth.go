// ABOUTME: OAuth bearer token unwrap collaborator
// ABOUTME: Only verification is in scope; issuance and consent live elsewhere

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/townday/townday/internal/store"
)

// OAuthUnwrapper resolves an opaque OAuth bearer token into the grant
// it represents. Implementations must reject expired grants.
type OAuthUnwrapper interface {
	Unwrap(ctx context.Context, token string) (*store.OAuthGrant, error)
}

// GrantStore is the narrow store surface the OAuth unwrapper needs.
type GrantStore interface {
	GetOAuthGrant(ctx context.Context, token string) (*store.OAuthGrant, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// StoreUnwrapper implements OAuthUnwrapper against the grant store.
type StoreUnwrapper struct {
	grants GrantStore
}

// NewStoreUnwrapper creates an OAuth unwrapper backed by the given store.
func NewStoreUnwrapper(grants GrantStore) *StoreUnwrapper {
	return &StoreUnwrapper{grants: grants}
}

// Unwrap looks up the grant for an opaque token and checks expiry.
func (u *StoreUnwrapper) Unwrap(ctx context.Context, token string) (*store.OAuthGrant, error) {
	g, err := u.grants.GetOAuthGrant(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("looking up grant: %w", err)
	}
	if time.Now().After(g.ExpiresAt) {
		return nil, ErrExpiredToken
	}
	return g, nil
}
