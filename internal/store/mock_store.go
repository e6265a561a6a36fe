// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu          sync.RWMutex
	users       map[string]*User                // keyed by user ID
	tokens      map[string]*PersonalAccessToken // keyed by token ID
	tokenByHash map[string]string               // token hash -> token ID
	grants      map[string]*OAuthGrant          // keyed by opaque token
	groups      map[string]*Group               // keyed by group ID
	events      map[string]*Event               // keyed by event ID
	rsvps       map[string]*RSVP                // keyed by "eventID:userID"
	badges      map[string]*Badge               // keyed by badge ID
	awards      map[string][]*BadgeAward        // keyed by user ID
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		users:       make(map[string]*User),
		tokens:      make(map[string]*PersonalAccessToken),
		tokenByHash: make(map[string]string),
		grants:      make(map[string]*OAuthGrant),
		groups:      make(map[string]*Group),
		events:      make(map[string]*Event),
		rsvps:       make(map[string]*RSVP),
		badges:      make(map[string]*Badge),
		awards:      make(map[string][]*BadgeAward),
	}
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *u
	m.users[cp.ID] = &cp
	return nil
}

// GetUser retrieves a user by ID.
func (m *MockStore) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// CountUsers returns the number of registered users.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.users), nil
}

// UpdateUserProfile updates a user's display name and email.
func (m *MockStore) UpdateUserProfile(ctx context.Context, id, displayName, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.DisplayName = displayName
	u.Email = email
	return nil
}

// CreateToken stores a new personal access token.
func (m *MockStore) CreateToken(ctx context.Context, t *PersonalAccessToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	cp.Scopes = append([]string{}, t.Scopes...)
	m.tokens[cp.ID] = &cp
	m.tokenByHash[cp.TokenHash] = cp.ID
	return nil
}

// GetTokenByHash retrieves a token by its hex-encoded SHA-256 digest.
func (m *MockStore) GetTokenByHash(ctx context.Context, hash string) (*PersonalAccessToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.tokenByHash[hash]
	if !ok {
		return nil, ErrNotFound
	}
	t := m.tokens[id]
	cp := *t
	cp.Scopes = append([]string{}, t.Scopes...)
	return &cp, nil
}

// TouchToken updates a token's last-used timestamp.
func (m *MockStore) TouchToken(ctx context.Context, id string, when time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	w := when
	t.LastUsedAt = &w
	return nil
}

// RevokeToken marks a token as revoked.
func (m *MockStore) RevokeToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.Revoked = true
	return nil
}

// GetOAuthGrant retrieves an OAuth grant by opaque token.
func (m *MockStore) GetOAuthGrant(ctx context.Context, token string) (*OAuthGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grants[token]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	cp.Scopes = append([]string{}, g.Scopes...)
	return &cp, nil
}

// PutOAuthGrant stores an OAuth grant (test setup helper).
func (m *MockStore) PutOAuthGrant(g *OAuthGrant) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *g
	cp.Scopes = append([]string{}, g.Scopes...)
	m.grants[cp.Token] = &cp
}

// CreateGroup stores a new group.
func (m *MockStore) CreateGroup(ctx context.Context, g *Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *g
	m.groups[cp.ID] = &cp
	return nil
}

// GetGroup retrieves a group by ID.
func (m *MockStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.groups[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *g
	return &cp, nil
}

// ListGroups returns all groups ordered by name.
func (m *MockStore) ListGroups(ctx context.Context) ([]*Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	groups := make([]*Group, 0, len(m.groups))
	for _, g := range m.groups {
		cp := *g
		groups = append(groups, &cp)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// CreateEvent stores a new event.
func (m *MockStore) CreateEvent(ctx context.Context, e *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *e
	m.events[cp.ID] = &cp
	return nil
}

// GetEvent retrieves an event by ID.
func (m *MockStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ListEvents returns events matching the filter ordered by start time.
func (m *MockStore) ListEvents(ctx context.Context, f EventFilter) ([]*Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var events []*Event
	for _, e := range m.events {
		if f.GroupID != "" && e.GroupID != f.GroupID {
			continue
		}
		if !f.After.IsZero() && e.StartsAt.Before(f.After) {
			continue
		}
		cp := *e
		events = append(events, &cp)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	if f.Limit > 0 && len(events) > f.Limit {
		events = events[:f.Limit]
	}
	return events, nil
}

// SetRSVP inserts or updates an RSVP.
func (m *MockStore) SetRSVP(ctx context.Context, r *RSVP) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *r
	m.rsvps[r.EventID+":"+r.UserID] = &cp
	return nil
}

// GetRSVP retrieves an RSVP by event and user.
func (m *MockStore) GetRSVP(ctx context.Context, eventID, userID string) (*RSVP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.rsvps[eventID+":"+userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListRSVPs returns all RSVPs for an event.
func (m *MockStore) ListRSVPs(ctx context.Context, eventID string) ([]*RSVP, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var rsvps []*RSVP
	for _, r := range m.rsvps {
		if r.EventID != eventID {
			continue
		}
		cp := *r
		rsvps = append(rsvps, &cp)
	}
	sort.Slice(rsvps, func(i, j int) bool { return rsvps[i].CreatedAt.Before(rsvps[j].CreatedAt) })
	return rsvps, nil
}

// PutBadge stores a badge (test setup helper).
func (m *MockStore) PutBadge(b *Badge) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *b
	m.badges[cp.ID] = &cp
}

// ListBadges returns all badges ordered by name.
func (m *MockStore) ListBadges(ctx context.Context) ([]*Badge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	badges := make([]*Badge, 0, len(m.badges))
	for _, b := range m.badges {
		cp := *b
		badges = append(badges, &cp)
	}
	sort.Slice(badges, func(i, j int) bool { return badges[i].Name < badges[j].Name })
	return badges, nil
}

// AwardBadge records a badge award (test setup helper).
func (m *MockStore) AwardBadge(a *BadgeAward) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *a
	m.awards[a.UserID] = append(m.awards[a.UserID], &cp)
}

// ListBadgeAwards returns badges awarded to a user.
func (m *MockStore) ListBadgeAwards(ctx context.Context, userID string) ([]*BadgeAward, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	awards := make([]*BadgeAward, 0, len(m.awards[userID]))
	for _, a := range m.awards[userID] {
		cp := *a
		awards = append(awards, &cp)
	}
	return awards, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
