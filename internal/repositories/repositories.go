// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type,
// handling CRUD operations, soft deletes, and sequence generation.
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories/mongodb"
	"github.com/desertthunder/playlister/internal/repositories/postgres"
	"github.com/desertthunder/playlister/internal/shared"
)

// queryer is satisfied by both [sql.DB] and [sql.Tx].
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers give entities a stable creation order independent of UUIDs and timestamps;
// every List query orders by them. The single UPDATE ... RETURNING statement keeps the increment atomic.
func NextSequence(ctx context.Context, q queryer, table string) (int, error) {
	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := q.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}
	return sequence, nil
}

// SQLiteStore is the default [models.Store], backed by a migrated SQLite database.
type SQLiteStore struct {
	db        *sql.DB
	users     *UserRepository
	songs     *SongRepository
	playlists *PlaylistRepository
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{
		db:        db,
		users:     NewUserRepository(db),
		songs:     NewSongRepository(db),
		playlists: NewPlaylistRepository(db),
	}
}

func (s *SQLiteStore) Users() models.UserRepository         { return s.users }
func (s *SQLiteStore) Songs() models.SongRepository         { return s.songs }
func (s *SQLiteStore) Playlists() models.PlaylistRepository { return s.playlists }

// DB exposes the underlying connection for migrations and setup commands.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

func (s *SQLiteStore) Close(context.Context) error { return s.db.Close() }

// Open connects to the backend named by cfg.Driver, prepares its schema, and returns it as a [models.Store].
func Open(ctx context.Context, cfg shared.DatabaseConfig, logger *log.Logger) (models.Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		db, err := shared.NewDatabase(cfg.Path)
		if err != nil {
			return nil, err
		}
		if cfg.Path != ":memory:" {
			shared.ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
		}
		if err := shared.RunMigrations(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Debug("opened sqlite store", "path", cfg.Path)
		return NewSQLiteStore(db), nil
	case "mongodb":
		store, err := mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened mongodb store", "database", cfg.MongoDatabase)
		return store, nil
	case "postgres":
		store, err := postgres.Open(ctx, cfg.PostgresDSN, cfg.MaxOpenConns, cfg.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened postgres store")
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown database driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// notFound reports a missing entity as [shared.ErrNotFound].
func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

// inClause returns "(?, ?, ...)" for n placeholders and the ids as arguments.
func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return "(" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")", args
}

func checkAffected(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(kind, id)
	}
	return nil
}
