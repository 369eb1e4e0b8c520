// Package sqlite persists overlay snapshots in a local SQLite database.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Snapshots are stored as JSON payloads alongside a few
// columns (mode, annotation count, timestamps) for listing.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files; applied
// versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.draftline/data/state.db
package sqlite
