// ABOUTME: Tests for the tri-auth resolver's priority order and fall-through rules
// ABOUTME: A tagged PAT must never be rescued by another credential scheme

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/townday/townday/internal/store"
)

const testSessionSecret = "resolver-test-secret"

type resolverFixture struct {
	resolver *Resolver
	store    *store.MockStore
	user     *store.User
	rawPAT   string
	tokenID  string
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	ctx := context.Background()
	s := store.NewMockStore()
	u := seedUser(t, s)

	raw, record, err := GeneratePAT(u.ID, "test", []string{"read:events"}, time.Hour)
	require.NoError(t, err)
	require.NoError(t, s.CreateToken(ctx, record))

	s.PutOAuthGrant(&store.OAuthGrant{
		Token:     "oauth-opaque",
		UserID:    u.ID,
		ClientID:  "app-1",
		Scopes:    []string{"read:groups"},
		ExpiresAt: time.Now().Add(time.Hour),
	})

	r := NewResolver(ResolverConfig{
		PATs:     NewPATVerifier(s),
		OAuth:    NewStoreUnwrapper(s),
		Sessions: NewSessionVerifier([]byte(testSessionSecret)),
		Users:    s,
		Toucher:  s,
	})
	return &resolverFixture{resolver: r, store: s, user: u, rawPAT: raw, tokenID: record.ID}
}

func request(mutate func(*http.Request)) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if mutate != nil {
		mutate(req)
	}
	return req
}

func sessionCookie(t *testing.T, userID string) *http.Cookie {
	t.Helper()
	v := NewSessionVerifier([]byte(testSessionSecret))
	value, err := v.Mint(userID, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: SessionCookieName, Value: value}
}

func TestResolver_PAT(t *testing.T) {
	f := newResolverFixture(t)

	res, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+f.rawPAT)
	}))
	require.NoError(t, err)

	assert.Equal(t, MethodPAT, res.Method)
	assert.Equal(t, f.user.ID, res.User.ID)
	assert.Equal(t, f.tokenID, res.TokenID)
	assert.Equal(t, []string{"read:events"}, res.Scopes)
	assert.False(t, res.Session())
}

func TestResolver_OAuth(t *testing.T) {
	f := newResolverFixture(t)

	res, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer oauth-opaque")
	}))
	require.NoError(t, err)

	assert.Equal(t, MethodOAuth, res.Method)
	assert.Equal(t, []string{"read:groups"}, res.Scopes)
	assert.False(t, res.Session())
}

func TestResolver_SessionCookie(t *testing.T) {
	f := newResolverFixture(t)

	res, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.AddCookie(sessionCookie(t, f.user.ID))
	}))
	require.NoError(t, err)

	assert.Equal(t, MethodSession, res.Method)
	assert.Nil(t, res.Scopes)
	assert.True(t, res.Session())
}

func TestResolver_TaggedPATNeverFallsThrough(t *testing.T) {
	f := newResolverFixture(t)

	// Invalid tagged PAT with a perfectly good session cookie: the PAT
	// path is chosen by prefix and its failure is final.
	_, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+TokenPrefix+"bogus")
		r.AddCookie(sessionCookie(t, f.user.ID))
	}))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolver_HeaderBeatsCookie(t *testing.T) {
	f := newResolverFixture(t)

	// Both schemes valid: the Authorization header wins.
	res, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+f.rawPAT)
		r.AddCookie(sessionCookie(t, f.user.ID))
	}))
	require.NoError(t, err)
	assert.Equal(t, MethodPAT, res.Method)
}

func TestResolver_MalformedHeader(t *testing.T) {
	f := newResolverFixture(t)

	for _, header := range []string{"Basic dXNlcg==", "Bearer", "Bearer ", "token abc"} {
		_, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
			r.Header.Set("Authorization", header)
		}))
		assert.ErrorIs(t, err, ErrMalformedHeader, "header %q", header)
	}
}

func TestResolver_NoCredentials(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.Resolve(context.Background(), request(nil))
	assert.ErrorIs(t, err, ErrNoCredentials)

	// Empty cookie value counts as absent.
	_, err = f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: ""})
	}))
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestResolver_SessionForUnknownUser(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.AddCookie(sessionCookie(t, "ghost"))
	}))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestResolver_PATUpdatesLastUsed(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.resolver.Resolve(context.Background(), request(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+f.rawPAT)
	}))
	require.NoError(t, err)

	// The touch happens on a detached goroutine; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tok, err := f.store.GetTokenByHash(context.Background(), HashToken(f.rawPAT))
		require.NoError(t, err)
		if tok.LastUsedAt != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("LastUsedAt was never set")
}

func TestContextRoundTrip(t *testing.T) {
	res := NewSessionResult(&store.User{ID: "user-1"})
	ctx := WithAuth(context.Background(), res)

	assert.Equal(t, res, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
