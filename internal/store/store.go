// ABOUTME: Store interface and data types for townday persistence
// ABOUTME: Defines users, tokens, events, groups, badges, RSVPs and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// User represents a registered member of the platform
type User struct {
	ID          string
	Handle      string
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

// PersonalAccessToken is a long-lived API credential for a user.
// Only the SHA-256 digest of the raw token is ever stored.
type PersonalAccessToken struct {
	ID         string
	UserID     string
	Name       string
	TokenHash  string // hex-encoded SHA-256 of the raw token
	Scopes     []string
	ExpiresAt  *time.Time // nil means no expiry
	Revoked    bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// OAuthGrant is an opaque bearer token issued to a third-party app.
// Token issuance happens elsewhere; this store only answers unwrap lookups.
type OAuthGrant struct {
	Token     string
	UserID    string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Group represents a community group that hosts events
type Group struct {
	ID          string
	Slug        string
	Name        string
	Description string
	CreatedAt   time.Time
}

// Event represents a scheduled community event
type Event struct {
	ID          string
	GroupID     string
	Title       string
	Description string
	Venue       string
	Capacity    int // 0 means unlimited
	StartsAt    time.Time
	EndsAt      time.Time
	CreatedAt   time.Time
}

// RSVP status constants
const (
	RSVPYes      = "yes"
	RSVPNo       = "no"
	RSVPWaitlist = "waitlist"
)

// RSVP records a user's attendance intent for an event
type RSVP struct {
	EventID   string
	UserID    string
	Status    string // "yes", "no", "waitlist"
	CreatedAt time.Time
}

// Badge represents an achievement badge a user can earn
type Badge struct {
	ID          string
	Slug        string
	Name        string
	Description string
}

// BadgeAward links a badge to the user who earned it
type BadgeAward struct {
	BadgeID   string
	UserID    string
	AwardedAt time.Time
}

// EventFilter narrows ListEvents results. Zero values mean "no constraint".
type EventFilter struct {
	GroupID string
	After   time.Time
	Limit   int
}

// Store is the persistence interface consumed by the MCP surface.
// Implementations must be safe for concurrent use.
type Store interface {
	// Users
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdateUserProfile(ctx context.Context, id, displayName, email string) error

	// Personal access tokens
	CreateToken(ctx context.Context, t *PersonalAccessToken) error
	GetTokenByHash(ctx context.Context, hash string) (*PersonalAccessToken, error)
	TouchToken(ctx context.Context, id string, when time.Time) error
	RevokeToken(ctx context.Context, id string) error

	// OAuth grants (unwrap only; issuance is out of scope)
	GetOAuthGrant(ctx context.Context, token string) (*OAuthGrant, error)

	// Groups
	CreateGroup(ctx context.Context, g *Group) error
	GetGroup(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)

	// Events
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, f EventFilter) ([]*Event, error)

	// RSVPs
	SetRSVP(ctx context.Context, r *RSVP) error
	GetRSVP(ctx context.Context, eventID, userID string) (*RSVP, error)
	ListRSVPs(ctx context.Context, eventID string) ([]*RSVP, error)

	// Badges
	ListBadges(ctx context.Context) ([]*Badge, error)
	ListBadgeAwards(ctx context.Context, userID string) ([]*BadgeAward, error)

	// Close releases underlying resources
	Close() error
}
