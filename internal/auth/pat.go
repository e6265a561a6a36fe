// ABOUTME: Personal access token generation and verification
// ABOUTME: Raw tokens carry the td_pat_ prefix; only SHA-256 digests are stored

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/townday/townday/internal/store"
)

// TokenPrefix tags personal access tokens so the resolver can route
// them without a store round trip.
const TokenPrefix = "td_pat_"

// PAT errors
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
	ErrRevokedToken = errors.New("token revoked")
)

// HashToken returns the hex-encoded SHA-256 digest of a raw token.
// Stores index tokens by this digest, never by raw value.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TokenStore is the narrow store surface the PAT verifier needs.
type TokenStore interface {
	GetTokenByHash(ctx context.Context, hash string) (*store.PersonalAccessToken, error)
	GetUser(ctx context.Context, id string) (*store.User, error)
}

// PATVerifier validates personal access tokens against the token store.
type PATVerifier struct {
	tokens TokenStore
}

// NewPATVerifier creates a PAT verifier backed by the given store.
func NewPATVerifier(tokens TokenStore) *PATVerifier {
	return &PATVerifier{tokens: tokens}
}

// Verify checks a raw PAT and returns its record and owning user.
// Expired and revoked tokens are rejected; unknown hashes map to
// ErrInvalidToken so callers cannot distinguish the two cases.
func (v *PATVerifier) Verify(ctx context.Context, raw string) (*store.PersonalAccessToken, *store.User, error) {
	if !strings.HasPrefix(raw, TokenPrefix) {
		return nil, nil, ErrInvalidToken
	}

	t, err := v.tokens.GetTokenByHash(ctx, HashToken(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("looking up token: %w", err)
	}

	if t.Revoked {
		return nil, nil, ErrRevokedToken
	}
	if t.ExpiresAt != nil && time.Now().After(*t.ExpiresAt) {
		return nil, nil, ErrExpiredToken
	}

	u, err := v.tokens.GetUser(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidToken
		}
		return nil, nil, fmt.Errorf("looking up token owner: %w", err)
	}

	return t, u, nil
}

// GeneratePAT mints a raw personal access token and its store record.
// The raw value is returned exactly once; callers must show it to the
// user and then forget it.
func GeneratePAT(userID, name string, scopes []string, ttl time.Duration) (raw string, record *store.PersonalAccessToken, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generating token: %w", err)
	}
	raw = TokenPrefix + base64.RawURLEncoding.EncodeToString(buf)

	now := time.Now().UTC()
	record = &store.PersonalAccessToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		TokenHash: HashToken(raw),
		Scopes:    append([]string{}, scopes...),
		CreatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		record.ExpiresAt = &exp
	}
	return raw, record, nil
}
