// Package repositories implements persistence for all domain entities.
//
// The package root is the default SQLite backend; [Open] selects a backend from configuration and
// returns it as a [models.Store]:
//   - "sqlite": [SQLiteStore] over [UserRepository], [SongRepository], and [PlaylistRepository]
//   - "mongodb": [mongodb.Store], a document store keeping song lists and listeners inline
//   - "postgres": [postgres.Store], a relational store over gorm
//
// SQLite repositories soft-delete via deleted_at timestamps and exclude deleted records from queries.
// Sequence numbers provide stable creation ordering independent of UUIDs; [NextSequence] increments
// per-table counters kept in dedicated sequence tables.
package repositories
