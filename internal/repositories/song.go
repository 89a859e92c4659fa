package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// SongRepository implements [models.SongRepository] for catalog persistence.
//
// Counter updates are single UPDATE statements so concurrent increments on one song never collide.
type SongRepository struct {
	db *sql.DB
}

// NewSongRepository creates a new SongRepository with the given database connection
func NewSongRepository(db *sql.DB) *SongRepository {
	return &SongRepository{db: db}
}

const songColumns = `id, title, artist, year, video_ref, added_by, listens, playlist_count, created_at, updated_at`

// Create inserts a new song with generated ID and sequence
func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "songs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if song.ID == "" {
		song.ID = shared.GenerateID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	song.UpdatedAt = song.CreatedAt

	query := `
		INSERT INTO songs (id, sequence, title, artist, year, video_ref, added_by, listens, playlist_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		song.ID, sequence, song.Title, song.Artist, song.Year, song.VideoRef, song.AddedBy,
		song.Listens, song.PlaylistCount, song.CreatedAt, song.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}

	return nil
}

// Get retrieves a song by ID, excluding soft-deleted songs
func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ? AND deleted_at IS NULL`

	song, err := scanSong(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("song", id)
	}
	return song, err
}

// Update writes the song's descriptive fields. Counters are only changed through
// [SongRepository.AddPlaylistCount] and [SongRepository.AddListens].
func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	song.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE songs
		SET title = ?, artist = ?, year = ?, video_ref = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, song.Title, song.Artist, song.Year, song.VideoRef, song.UpdatedAt, song.ID)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}

	return checkAffected(result, "song", song.ID)
}

// Delete soft-deletes a song by ID
func (r *SongRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE songs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return checkAffected(result, "song", id)
}

// List retrieves all songs matching the given criteria in creation order
func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE deleted_at IS NULL`
	args := []any{}

	if addedBy, ok := criteria["added_by"].(string); ok && addedBy != "" {
		query += " AND added_by = ?"
		args = append(args, addedBy)
	}

	if year, ok := criteria["year"].(int); ok && year != 0 {
		query += " AND year = ?"
		args = append(args, year)
	}

	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.Song{}, nil
		}
		clause, idArgs := inClause(ids)
		query += " AND id IN " + clause
		args = append(args, idArgs...)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []*models.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return songs, nil
}

// AddPlaylistCount adds delta to playlist_count for every live song in ids.
func (r *SongRepository) AddPlaylistCount(ctx context.Context, ids []string, delta int) error {
	return r.addCounter(ctx, "playlist_count", ids, delta)
}

// AddListens adds delta to listens for every live song in ids.
func (r *SongRepository) AddListens(ctx context.Context, ids []string, delta int) error {
	return r.addCounter(ctx, "listens", ids, delta)
}

func (r *SongRepository) addCounter(ctx context.Context, column string, ids []string, delta int) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}

	clause, idArgs := inClause(ids)
	query := fmt.Sprintf(
		"UPDATE songs SET %[1]s = %[1]s + ?, updated_at = ? WHERE deleted_at IS NULL AND id IN %[2]s", column, clause,
	)
	args := append([]any{delta, time.Now().UTC()}, idArgs...)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

func scanSong(row scanner) (*models.Song, error) {
	var s models.Song
	err := row.Scan(
		&s.ID, &s.Title, &s.Artist, &s.Year, &s.VideoRef, &s.AddedBy,
		&s.Listens, &s.PlaylistCount, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan song: %w", err)
	}
	return &s, nil
}
