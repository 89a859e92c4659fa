// Package postgres implements [models.Store] over PostgreSQL using gorm.
//
// Rows are gorm models with soft deletes; a playlist's song list and listener ids are jsonb columns.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Store is a PostgreSQL-backed [models.Store].
type Store struct {
	db        *gorm.DB
	users     *UserRepository
	songs     *SongRepository
	playlists *PlaylistRepository
}

// Open connects with dsn, sizes the pool, and migrates the schema.
func Open(ctx context.Context, dsn string, maxOpenConns, maxIdleConns int) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres dsn is empty", shared.ErrInvalidConfig)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
	}
	sqlDB.SetMaxIdleConns(maxIdleConns)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := New(db)
	if err := store.AutoMigrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		users:     &UserRepository{db: db},
		songs:     &SongRepository{db: db},
		playlists: &PlaylistRepository{db: db},
	}
}

// AutoMigrate creates or updates the users, songs, and playlists tables.
func (s *Store) AutoMigrate(ctx context.Context) error {
	for _, model := range []any{&userRow{}, &songRow{}, &playlistRow{}} {
		if err := s.db.WithContext(ctx).AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}
	return nil
}

func (s *Store) Users() models.UserRepository         { return s.users }
func (s *Store) Songs() models.SongRepository         { return s.songs }
func (s *Store) Playlists() models.PlaylistRepository { return s.playlists }

// DropTables removes every table the store created. Used by tests.
func (s *Store) DropTables(ctx context.Context) error {
	return s.db.WithContext(ctx).Migrator().DropTable(&playlistRow{}, &songRow{}, &userRow{})
}

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, shared.ErrNotFound)
}

func translate(err error, kind, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(kind, id)
	}
	return fmt.Errorf("failed to query %s: %w", kind, err)
}

func checkAffected(result *gorm.DB, kind, id, action string) error {
	if result.Error != nil {
		return fmt.Errorf("failed to %s %s: %w", action, kind, result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound(kind, id)
	}
	return nil
}
