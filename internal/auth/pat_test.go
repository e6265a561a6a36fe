// ABOUTME: Tests for personal access token generation, hashing, and verification

package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townday/townday/internal/store"
)

func seedUser(t *testing.T, s *store.MockStore) *store.User {
	t.Helper()
	u := &store.User{
		ID:          "user-1",
		Handle:      "casey",
		DisplayName: "Casey",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestGeneratePAT(t *testing.T) {
	raw, record, err := GeneratePAT("user-1", "laptop", []string{"read:events"}, time.Hour)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, TokenPrefix))
	assert.Equal(t, HashToken(raw), record.TokenHash)
	assert.NotContains(t, record.TokenHash, raw, "raw token must not appear in the record")
	assert.Equal(t, []string{"read:events"}, record.Scopes)
	require.NotNil(t, record.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), *record.ExpiresAt, time.Minute)

	// No TTL means no expiry.
	_, record2, err := GeneratePAT("user-1", "forever", nil, 0)
	require.NoError(t, err)
	assert.Nil(t, record2.ExpiresAt)

	// Tokens are unique.
	raw3, _, err := GeneratePAT("user-1", "other", nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, raw, raw3)
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("td_pat_abc")
	b := HashToken("td_pat_abc")
	c := HashToken("td_pat_abd")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestPATVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()
	u := seedUser(t, s)
	v := NewPATVerifier(s)

	raw, record, err := GeneratePAT(u.ID, "test", []string{"read:events"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.CreateToken(ctx, record))

	t.Run("valid token", func(t *testing.T) {
		tok, owner, err := v.Verify(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, record.ID, tok.ID)
		assert.Equal(t, u.ID, owner.ID)
	})

	t.Run("wrong prefix", func(t *testing.T) {
		_, _, err := v.Verify(ctx, "not-a-pat")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, _, err := v.Verify(ctx, TokenPrefix+"unknown")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("revoked token", func(t *testing.T) {
		rawRev, recRev, err := GeneratePAT(u.ID, "revoked", nil, 0)
		require.NoError(t, err)
		require.NoError(t, s.CreateToken(ctx, recRev))
		require.NoError(t, s.RevokeToken(ctx, recRev.ID))

		_, _, err = v.Verify(ctx, rawRev)
		assert.ErrorIs(t, err, ErrRevokedToken)
	})

	t.Run("expired token", func(t *testing.T) {
		rawExp, recExp, err := GeneratePAT(u.ID, "expired", nil, time.Hour)
		require.NoError(t, err)
		past := time.Now().Add(-time.Minute)
		recExp.ExpiresAt = &past
		require.NoError(t, s.CreateToken(ctx, recExp))

		_, _, err = v.Verify(ctx, rawExp)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("orphaned token", func(t *testing.T) {
		rawOrp, recOrp, err := GeneratePAT("ghost", "orphan", nil, 0)
		require.NoError(t, err)
		require.NoError(t, s.CreateToken(ctx, recOrp))

		_, _, err = v.Verify(ctx, rawOrp)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestStoreUnwrapper_Unwrap(t *testing.T) {
	ctx := context.Background()
	s := store.NewMockStore()
	seedUser(t, s)
	u := NewStoreUnwrapper(s)

	s.PutOAuthGrant(&store.OAuthGrant{
		Token:     "opaque-token",
		UserID:    "user-1",
		ClientID:  "app-1",
		Scopes:    []string{"read:events"},
		ExpiresAt: time.Now().Add(time.Hour),
	})
	s.PutOAuthGrant(&store.OAuthGrant{
		Token:     "stale-token",
		UserID:    "user-1",
		ClientID:  "app-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})

	g, err := u.Unwrap(ctx, "opaque-token")
	require.NoError(t, err)
	assert.Equal(t, "user-1", g.UserID)
	assert.Equal(t, []string{"read:events"}, g.Scopes)

	_, err = u.Unwrap(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = u.Unwrap(ctx, "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionVerifier_RoundTrip(t *testing.T) {
	v := NewSessionVerifier([]byte("secret"))

	cookie, err := v.Mint("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := v.Verify(cookie)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)

	// Wrong secret.
	other := NewSessionVerifier([]byte("different"))
	_, err = other.Verify(cookie)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Expired.
	stale, err := v.Mint("user-1", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(stale)
	assert.ErrorIs(t, err, ErrExpiredSession)

	// Garbage.
	_, err = v.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidSession)
}
