// ABOUTME: Tests for the SQLite store against a real temporary database
// ABOUTME: Covers CRUD paths, filters, upserts, and not-found sentinels

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_Users(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := &User{
		ID:          "user-1",
		Handle:      "casey",
		DisplayName: "Casey",
		Email:       "casey@example.com",
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, s.CreateUser(ctx, u))

	got, err := s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, u.Handle, got.Handle)
	assert.Equal(t, u.Email, got.Email)
	assert.WithinDuration(t, u.CreatedAt, got.CreatedAt, time.Second)

	_, err = s.GetUser(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	count, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, s.UpdateUserProfile(ctx, "user-1", "Casey R", "new@example.com"))
	got, err = s.GetUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Casey R", got.DisplayName)
	assert.Equal(t, "new@example.com", got.Email)

	assert.ErrorIs(t, s.UpdateUserProfile(ctx, "nope", "x", "y"), ErrNotFound)
}

func TestSQLiteStore_Tokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	exp := time.Now().Add(time.Hour).UTC()
	tok := &PersonalAccessToken{
		ID:        "tok-1",
		UserID:    "user-1",
		Name:      "laptop",
		TokenHash: "deadbeef",
		Scopes:    []string{"read:events", "read:groups"},
		ExpiresAt: &exp,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateToken(ctx, tok))

	got, err := s.GetTokenByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.ID)
	assert.Equal(t, []string{"read:events", "read:groups"}, got.Scopes)
	assert.False(t, got.Revoked)
	require.NotNil(t, got.ExpiresAt)
	assert.WithinDuration(t, exp, *got.ExpiresAt, time.Second)
	assert.Nil(t, got.LastUsedAt)

	_, err = s.GetTokenByHash(ctx, "unknown")
	assert.ErrorIs(t, err, ErrNotFound)

	// Touch sets last-used.
	when := time.Now().UTC()
	require.NoError(t, s.TouchToken(ctx, "tok-1", when))
	got, err = s.GetTokenByHash(ctx, "deadbeef")
	require.NoError(t, err)
	require.NotNil(t, got.LastUsedAt)
	assert.WithinDuration(t, when, *got.LastUsedAt, time.Second)

	// Revoke flips the flag.
	require.NoError(t, s.RevokeToken(ctx, "tok-1"))
	got, err = s.GetTokenByHash(ctx, "deadbeef")
	require.NoError(t, err)
	assert.True(t, got.Revoked)

	assert.ErrorIs(t, s.RevokeToken(ctx, "nope"), ErrNotFound)
}

func TestSQLiteStore_TokenScopesNeverNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tok := &PersonalAccessToken{
		ID:        "tok-1",
		UserID:    "user-1",
		TokenHash: "cafe",
		Scopes:    nil,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.CreateToken(ctx, tok))

	got, err := s.GetTokenByHash(ctx, "cafe")
	require.NoError(t, err)
	// A scopeless token must stay distinguishable from a session
	// principal, so Scopes comes back empty, not nil.
	assert.NotNil(t, got.Scopes)
	assert.Empty(t, got.Scopes)
}

func TestSQLiteStore_GroupsAndEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g := &Group{ID: "grp-1", Slug: "gophers", Name: "Gophers", CreatedAt: time.Now().UTC()}
	require.NoError(t, s.CreateGroup(ctx, g))

	got, err := s.GetGroup(ctx, "grp-1")
	require.NoError(t, err)
	assert.Equal(t, "gophers", got.Slug)

	_, err = s.GetGroup(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	base := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	for i, id := range []string{"evt-1", "evt-2", "evt-3"} {
		e := &Event{
			ID:        id,
			GroupID:   "grp-1",
			Title:     "Meetup " + id,
			StartsAt:  base.Add(time.Duration(i) * 24 * time.Hour),
			EndsAt:    base.Add(time.Duration(i)*24*time.Hour + 2*time.Hour),
			CreatedAt: time.Now().UTC(),
		}
		require.NoError(t, s.CreateEvent(ctx, e))
	}

	// Ordered by start time.
	events, err := s.ListEvents(ctx, EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "evt-1", events[0].ID)
	assert.Equal(t, "evt-3", events[2].ID)

	// After filter is inclusive of the boundary.
	events, err = s.ListEvents(ctx, EventFilter{After: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "evt-2", events[0].ID)

	// Limit.
	events, err = s.ListEvents(ctx, EventFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, events, 1)

	// Group filter with no matches.
	events, err = s.ListEvents(ctx, EventFilter{GroupID: "other"})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSQLiteStore_RSVPUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SetRSVP(ctx, &RSVP{
		EventID: "evt-1", UserID: "user-1", Status: RSVPYes, CreatedAt: time.Now().UTC(),
	}))

	got, err := s.GetRSVP(ctx, "evt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, RSVPYes, got.Status)

	// Second write for the same (event, user) changes status in place.
	require.NoError(t, s.SetRSVP(ctx, &RSVP{
		EventID: "evt-1", UserID: "user-1", Status: RSVPNo, CreatedAt: time.Now().UTC(),
	}))

	got, err = s.GetRSVP(ctx, "evt-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, RSVPNo, got.Status)

	all, err := s.ListRSVPs(ctx, "evt-1")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = s.GetRSVP(ctx, "evt-1", "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_OAuthGrants(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetOAuthGrant(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_BadgesEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	badges, err := s.ListBadges(ctx)
	require.NoError(t, err)
	assert.Empty(t, badges)

	awards, err := s.ListBadgeAwards(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, awards)
}
