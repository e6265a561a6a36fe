// Package store provides persistent storage for townday using SQLite.
//
// The Store interface is the narrow collaborator consumed by the MCP
// surface: token lookups by hash, OAuth grant unwrap, and the domain
// entities exposed through tools (events, groups, badges, profiles,
// RSVPs). SQLiteStore implements it on modernc.org/sqlite with WAL
// mode and automatic schema creation; MockStore implements it in
// memory for tests.
//
// Timestamps are stored as RFC3339 text. Scope lists are stored as
// JSON arrays. Raw personal-access-token values never reach this
// package; callers pass the hex-encoded SHA-256 digest.
package store
