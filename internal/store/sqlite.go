// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides token/event/group/badge/RSVP persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS users (
			user_id      TEXT PRIMARY KEY,
			handle       TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			email        TEXT NOT NULL,
			created_at   TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS personal_access_tokens (
			token_id     TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			name         TEXT NOT NULL,
			token_hash   TEXT NOT NULL UNIQUE,
			scopes_json  TEXT NOT NULL,
			expires_at   TEXT,
			revoked      INTEGER NOT NULL DEFAULT 0,
			last_used_at TEXT,
			created_at   TEXT NOT NULL,

			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_pat_hash ON personal_access_tokens(token_hash);
		CREATE INDEX IF NOT EXISTS idx_pat_user ON personal_access_tokens(user_id);

		CREATE TABLE IF NOT EXISTS oauth_grants (
			token       TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			client_id   TEXT NOT NULL,
			scopes_json TEXT NOT NULL,
			expires_at  TEXT NOT NULL,
			created_at  TEXT NOT NULL,

			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);

		CREATE TABLE IF NOT EXISTS groups (
			group_id    TEXT PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS events (
			event_id    TEXT PRIMARY KEY,
			group_id    TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			venue       TEXT NOT NULL DEFAULT '',
			capacity    INTEGER NOT NULL DEFAULT 0,
			starts_at   TEXT NOT NULL,
			ends_at     TEXT NOT NULL,
			created_at  TEXT NOT NULL,

			FOREIGN KEY (group_id) REFERENCES groups(group_id)
		);

		CREATE INDEX IF NOT EXISTS idx_events_group ON events(group_id);
		CREATE INDEX IF NOT EXISTS idx_events_starts ON events(starts_at);

		CREATE TABLE IF NOT EXISTS rsvps (
			event_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			status     TEXT NOT NULL,
			created_at TEXT NOT NULL,

			PRIMARY KEY (event_id, user_id),
			CHECK (status IN ('yes', 'no', 'waitlist')),
			FOREIGN KEY (event_id) REFERENCES events(event_id),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);

		CREATE TABLE IF NOT EXISTS badges (
			badge_id    TEXT PRIMARY KEY,
			slug        TEXT NOT NULL UNIQUE,
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS badge_awards (
			badge_id   TEXT NOT NULL,
			user_id    TEXT NOT NULL,
			awarded_at TEXT NOT NULL,

			PRIMARY KEY (badge_id, user_id),
			FOREIGN KEY (badge_id) REFERENCES badges(badge_id),
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user
func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (user_id, handle, display_name, email, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Handle, u.DisplayName, u.Email, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, handle, display_name, email, created_at
		 FROM users WHERE user_id = ?`, id)

	var u User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Handle, &u.DisplayName, &u.Email, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

// CountUsers returns the number of registered users
func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// UpdateUserProfile updates a user's display name and email
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id, displayName, email string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET display_name = ?, email = ? WHERE user_id = ?`,
		displayName, email, id)
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating profile: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateToken inserts a new personal access token record
func (s *SQLiteStore) CreateToken(ctx context.Context, t *PersonalAccessToken) error {
	scopes, err := json.Marshal(t.Scopes)
	if err != nil {
		return fmt.Errorf("encoding scopes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO personal_access_tokens
		 (token_id, user_id, name, token_hash, scopes_json, expires_at, revoked, last_used_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Name, t.TokenHash, string(scopes),
		formatTimePtr(t.ExpiresAt), boolToInt(t.Revoked), formatTimePtr(t.LastUsedAt),
		t.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating token: %w", err)
	}
	return nil
}

// GetTokenByHash returns a token by its hex-encoded SHA-256 digest.
// Lookup is always by digest; raw token values never reach the store.
func (s *SQLiteStore) GetTokenByHash(ctx context.Context, hash string) (*PersonalAccessToken, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token_id, user_id, name, token_hash, scopes_json, expires_at, revoked, last_used_at, created_at
		 FROM personal_access_tokens WHERE token_hash = ?`, hash)

	var t PersonalAccessToken
	var scopesJSON, createdAt string
	var expiresAt, lastUsedAt sql.NullString
	var revoked int
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &scopesJSON,
		&expiresAt, &revoked, &lastUsedAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting token: %w", err)
	}

	if err := json.Unmarshal([]byte(scopesJSON), &t.Scopes); err != nil {
		return nil, fmt.Errorf("decoding scopes: %w", err)
	}
	if t.Scopes == nil {
		t.Scopes = []string{}
	}
	t.Revoked = revoked != 0
	t.ExpiresAt = parseTimePtr(expiresAt)
	t.LastUsedAt = parseTimePtr(lastUsedAt)
	t.CreatedAt = parseTime(createdAt)
	return &t, nil
}

// TouchToken updates a token's last-used timestamp
func (s *SQLiteStore) TouchToken(ctx context.Context, id string, when time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE personal_access_tokens SET last_used_at = ? WHERE token_id = ?`,
		when.UTC().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("touching token: %w", err)
	}
	return nil
}

// RevokeToken marks a token as revoked
func (s *SQLiteStore) RevokeToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE personal_access_tokens SET revoked = 1 WHERE token_id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoking token: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetOAuthGrant returns an OAuth grant by its opaque token value
func (s *SQLiteStore) GetOAuthGrant(ctx context.Context, token string) (*OAuthGrant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT token, user_id, client_id, scopes_json, expires_at, created_at
		 FROM oauth_grants WHERE token = ?`, token)

	var g OAuthGrant
	var scopesJSON, expiresAt, createdAt string
	err := row.Scan(&g.Token, &g.UserID, &g.ClientID, &scopesJSON, &expiresAt, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting oauth grant: %w", err)
	}

	if err := json.Unmarshal([]byte(scopesJSON), &g.Scopes); err != nil {
		return nil, fmt.Errorf("decoding scopes: %w", err)
	}
	if g.Scopes == nil {
		g.Scopes = []string{}
	}
	g.ExpiresAt = parseTime(expiresAt)
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

// CreateGroup inserts a new group
func (s *SQLiteStore) CreateGroup(ctx context.Context, g *Group) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO groups (group_id, slug, name, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Slug, g.Name, g.Description, g.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating group: %w", err)
	}
	return nil
}

// GetGroup returns a group by ID
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*Group, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT group_id, slug, name, description, created_at
		 FROM groups WHERE group_id = ?`, id)

	var g Group
	var createdAt string
	if err := row.Scan(&g.ID, &g.Slug, &g.Name, &g.Description, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting group: %w", err)
	}
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

// ListGroups returns all groups ordered by name
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id, slug, name, description, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing groups: %w", err)
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		var g Group
		var createdAt string
		if err := rows.Scan(&g.ID, &g.Slug, &g.Name, &g.Description, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		g.CreatedAt = parseTime(createdAt)
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

// CreateEvent inserts a new event
func (s *SQLiteStore) CreateEvent(ctx context.Context, e *Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (event_id, group_id, title, description, venue, capacity, starts_at, ends_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.GroupID, e.Title, e.Description, e.Venue, e.Capacity,
		e.StartsAt.UTC().Format(time.RFC3339Nano), e.EndsAt.UTC().Format(time.RFC3339Nano),
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	return nil
}

// GetEvent returns an event by ID
func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT event_id, group_id, title, description, venue, capacity, starts_at, ends_at, created_at
		 FROM events WHERE event_id = ?`, id)

	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting event: %w", err)
	}
	return e, nil
}

// ListEvents returns events matching the filter, ordered by start time
func (s *SQLiteStore) ListEvents(ctx context.Context, f EventFilter) ([]*Event, error) {
	query := `SELECT event_id, group_id, title, description, venue, capacity, starts_at, ends_at, created_at
		 FROM events WHERE 1=1`
	var args []any
	if f.GroupID != "" {
		query += " AND group_id = ?"
		args = append(args, f.GroupID)
	}
	if !f.After.IsZero() {
		query += " AND starts_at >= ?"
		args = append(args, f.After.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY starts_at"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// SetRSVP inserts or updates a user's RSVP for an event
func (s *SQLiteStore) SetRSVP(ctx context.Context, r *RSVP) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rsvps (event_id, user_id, status, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (event_id, user_id) DO UPDATE SET status = excluded.status`,
		r.EventID, r.UserID, r.Status, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("setting rsvp: %w", err)
	}
	return nil
}

// GetRSVP returns a user's RSVP for an event
func (s *SQLiteStore) GetRSVP(ctx context.Context, eventID, userID string) (*RSVP, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT event_id, user_id, status, created_at FROM rsvps
		 WHERE event_id = ? AND user_id = ?`, eventID, userID)

	var r RSVP
	var createdAt string
	if err := row.Scan(&r.EventID, &r.UserID, &r.Status, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting rsvp: %w", err)
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

// ListRSVPs returns all RSVPs for an event
func (s *SQLiteStore) ListRSVPs(ctx context.Context, eventID string) ([]*RSVP, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event_id, user_id, status, created_at FROM rsvps
		 WHERE event_id = ? ORDER BY created_at`, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing rsvps: %w", err)
	}
	defer rows.Close()

	var rsvps []*RSVP
	for rows.Next() {
		var r RSVP
		var createdAt string
		if err := rows.Scan(&r.EventID, &r.UserID, &r.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning rsvp: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		rsvps = append(rsvps, &r)
	}
	return rsvps, rows.Err()
}

// ListBadges returns all badges ordered by name
func (s *SQLiteStore) ListBadges(ctx context.Context) ([]*Badge, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT badge_id, slug, name, description FROM badges ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing badges: %w", err)
	}
	defer rows.Close()

	var badges []*Badge
	for rows.Next() {
		var b Badge
		if err := rows.Scan(&b.ID, &b.Slug, &b.Name, &b.Description); err != nil {
			return nil, fmt.Errorf("scanning badge: %w", err)
		}
		badges = append(badges, &b)
	}
	return badges, rows.Err()
}

// ListBadgeAwards returns badges awarded to a user
func (s *SQLiteStore) ListBadgeAwards(ctx context.Context, userID string) ([]*BadgeAward, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT badge_id, user_id, awarded_at FROM badge_awards
		 WHERE user_id = ? ORDER BY awarded_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing badge awards: %w", err)
	}
	defer rows.Close()

	var awards []*BadgeAward
	for rows.Next() {
		var a BadgeAward
		var awardedAt string
		if err := rows.Scan(&a.BadgeID, &a.UserID, &awardedAt); err != nil {
			return nil, fmt.Errorf("scanning badge award: %w", err)
		}
		a.AwardedAt = parseTime(awardedAt)
		awards = append(awards, &a)
	}
	return awards, rows.Err()
}

// scanEvent scans an event row using the given scan function
func scanEvent(scan func(...any) error) (*Event, error) {
	var e Event
	var startsAt, endsAt, createdAt string
	err := scan(&e.ID, &e.GroupID, &e.Title, &e.Description, &e.Venue, &e.Capacity,
		&startsAt, &endsAt, &createdAt)
	if err != nil {
		return nil, err
	}
	e.StartsAt = parseTime(startsAt)
	e.EndsAt = parseTime(endsAt)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

// parseTime parses an RFC3339 timestamp, returning the zero time on failure
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimePtr parses a nullable RFC3339 timestamp
func parseTimePtr(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

// formatTimePtr formats a nullable timestamp for storage
func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// boolToInt converts a bool to the 0/1 integer form SQLite stores
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
