// ABOUTME: Tri-auth resolver normalizing PAT, OAuth bearer, and session cookie credentials
// ABOUTME: Strict priority order with no fall-through from a tagged PAT to other schemes

package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/townday/townday/internal/store"
)

// Resolver errors
var (
	// ErrNoCredentials means the request carried no recognizable credential.
	ErrNoCredentials = errors.New("no credentials")
	// ErrMalformedHeader means an Authorization header was present but not a bearer token.
	ErrMalformedHeader = errors.New("malformed authorization header")
)

// touchTimeout bounds the detached last-used write.
const touchTimeout = 5 * time.Second

// Toucher is the store surface for last-used timestamp updates.
type Toucher interface {
	TouchToken(ctx context.Context, id string, when time.Time) error
}

// Resolver resolves a request's credentials into a single Result.
//
// Priority order: a bearer token tagged with the PAT prefix is only
// ever checked against the token store; an untagged bearer token goes
// to the OAuth unwrapper; the session cookie is consulted only when no
// Authorization header is present at all. A tagged-but-invalid PAT
// therefore cannot be masked by an unrelated valid session cookie.
type Resolver struct {
	pats     *PATVerifier
	oauth    OAuthUnwrapper
	sessions *SessionVerifier
	users    interface {
		GetUser(ctx context.Context, id string) (*store.User, error)
	}
	toucher Toucher
	logger  *slog.Logger
}

// ResolverConfig holds the collaborators a Resolver needs.
type ResolverConfig struct {
	PATs     *PATVerifier
	OAuth    OAuthUnwrapper
	Sessions *SessionVerifier
	Users    interface {
		GetUser(ctx context.Context, id string) (*store.User, error)
	}
	Toucher Toucher // optional; enables last-used updates
	Logger  *slog.Logger
}

// NewResolver creates a tri-auth resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		pats:     cfg.PATs,
		oauth:    cfg.OAuth,
		sessions: cfg.Sessions,
		users:    cfg.Users,
		toucher:  cfg.Toucher,
		logger:   logger.With("component", "auth"),
	}
}

// Resolve evaluates the request's credentials in priority order and
// returns a normalized Result, or an error if no scheme succeeded.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Result, error) {
	authHeader := req.Header.Get("Authorization")
	if authHeader != "" {
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || token == "" {
			return nil, ErrMalformedHeader
		}
		if strings.HasPrefix(token, TokenPrefix) {
			return r.resolvePAT(ctx, token)
		}
		return r.resolveOAuth(ctx, token)
	}

	// No Authorization header: session cookie is the only remaining scheme.
	cookie, err := req.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoCredentials
	}
	return r.resolveSession(ctx, cookie.Value)
}

// resolvePAT validates a prefix-tagged personal access token.
// No fall-through: a tagged token that fails here fails the request.
func (r *Resolver) resolvePAT(ctx context.Context, raw string) (*Result, error) {
	t, u, err := r.pats.Verify(ctx, raw)
	if err != nil {
		r.logger.Debug("PAT verification failed", "error", err)
		return nil, err
	}

	r.touchLastUsed(ctx, t.ID)
	return NewTokenResult(u, MethodPAT, t.ID, t.Scopes), nil
}

// resolveOAuth delegates an untagged bearer token to the OAuth unwrapper.
func (r *Resolver) resolveOAuth(ctx context.Context, token string) (*Result, error) {
	g, err := r.oauth.Unwrap(ctx, token)
	if err != nil {
		r.logger.Debug("OAuth unwrap failed", "error", err)
		return nil, err
	}

	u, err := r.users.GetUser(ctx, g.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return NewTokenResult(u, MethodOAuth, "", g.Scopes), nil
}

// resolveSession validates a session cookie. Session principals carry
// nil scopes; their authorization flows through role checks elsewhere.
func (r *Resolver) resolveSession(ctx context.Context, cookieValue string) (*Result, error) {
	userID, err := r.sessions.Verify(cookieValue)
	if err != nil {
		r.logger.Debug("session verification failed", "error", err)
		return nil, err
	}

	u, err := r.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	return NewSessionResult(u), nil
}

// touchLastUsed records token use without blocking or failing the
// request. The write runs on a detached context so it survives the
// request's cancellation but still times out on its own.
func (r *Resolver) touchLastUsed(ctx context.Context, tokenID string) {
	if r.toucher == nil {
		return
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		tctx, cancel := context.WithTimeout(detached, touchTimeout)
		defer cancel()
		if err := r.toucher.TouchToken(tctx, tokenID, time.Now().UTC()); err != nil {
			r.logger.Warn("failed to update token last-used timestamp",
				"token_id", tokenID, "error", err)
		}
	}()
}
