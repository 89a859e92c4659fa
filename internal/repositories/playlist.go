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

// PlaylistRepository implements [models.PlaylistRepository].
//
// The ordered song list lives in playlist_songs (one row per position) and the listener set in
// playlist_listeners; both are rewritten with the playlist row inside one transaction.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

const playlistColumns = `id, name, owner_id, owner_email, owner_name, owner_avatar, plays, last_accessed, created_at, updated_at`

// Create inserts a new playlist with generated ID and sequence, along with its songs and listeners
func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if playlist.ID == "" {
		playlist.ID = shared.GenerateID()
	}
	now := time.Now().UTC()
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	if playlist.LastAccessed.IsZero() {
		playlist.LastAccessed = now
	}
	playlist.UpdatedAt = playlist.CreatedAt
	playlist.Songs = models.Densify(playlist.Songs)

	return r.inTx(ctx, func(tx *sql.Tx) error {
		sequence, err := NextSequence(ctx, tx, "playlists")
		if err != nil {
			return fmt.Errorf("failed to generate sequence: %w", err)
		}

		query := `
			INSERT INTO playlists (id, sequence, name, owner_id, owner_email, owner_name, owner_avatar, plays, last_accessed, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, query,
			playlist.ID, sequence, playlist.Name, playlist.OwnerID, playlist.OwnerEmail, playlist.OwnerName,
			playlist.OwnerAvatar, playlist.Plays, playlist.LastAccessed, playlist.CreatedAt, playlist.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist: %w", err)
		}

		return writeMembers(ctx, tx, playlist)
	})
}

// Get retrieves a playlist by ID with its songs and listeners, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist", id)
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadMembers(ctx, []*models.Playlist{playlist}); err != nil {
		return nil, err
	}
	return playlist, nil
}

// Update replaces the playlist row, song list, and listener set
func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	playlist.UpdatedAt = time.Now().UTC()
	playlist.Songs = models.Densify(playlist.Songs)

	return r.inTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE playlists
			SET name = ?, owner_id = ?, owner_email = ?, owner_name = ?, owner_avatar = ?, plays = ?, last_accessed = ?, updated_at = ?
			WHERE id = ? AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, query,
			playlist.Name, playlist.OwnerID, playlist.OwnerEmail, playlist.OwnerName, playlist.OwnerAvatar,
			playlist.Plays, playlist.LastAccessed, playlist.UpdatedAt, playlist.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update playlist: %w", err)
		}
		if err := checkAffected(result, "playlist", playlist.ID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_songs WHERE playlist_id = ?`, playlist.ID); err != nil {
			return fmt.Errorf("failed to clear playlist songs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_listeners WHERE playlist_id = ?`, playlist.ID); err != nil {
			return fmt.Errorf("failed to clear playlist listeners: %w", err)
		}
		return writeMembers(ctx, tx, playlist)
	})
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	return checkAffected(result, "playlist", id)
}

// List retrieves all playlists matching the given criteria in creation order
func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`
	args := []any{}

	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		query += " AND owner_id = ?"
		args = append(args, ownerID)
	}

	if songID, ok := criteria["song_id"].(string); ok && songID != "" {
		query += " AND EXISTS (SELECT 1 FROM playlist_songs ps WHERE ps.playlist_id = playlists.id AND ps.song_id = ?)"
		args = append(args, songID)
	}

	query += " ORDER BY sequence ASC"

	playlists, err := r.queryPlaylists(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// queryPlaylists scans every row before returning so the connection is free for follow-up queries.
func (r *PlaylistRepository) queryPlaylists(ctx context.Context, query string, args ...any) ([]*models.Playlist, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []*models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return playlists, nil
}

// loadMembers fills Songs and Listeners for every playlist with two batched queries.
func (r *PlaylistRepository) loadMembers(ctx context.Context, playlists []*models.Playlist) error {
	if len(playlists) == 0 {
		return nil
	}

	byID := make(map[string]*models.Playlist, len(playlists))
	ids := make([]string, len(playlists))
	for i, p := range playlists {
		p.Songs = []models.PlaylistSong{}
		p.Listeners = []string{}
		byID[p.ID] = p
		ids[i] = p.ID
	}
	clause, args := inClause(ids)

	songRows, err := r.db.QueryContext(ctx,
		`SELECT playlist_id, song_id, position FROM playlist_songs WHERE playlist_id IN `+clause+` ORDER BY playlist_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query playlist songs: %w", err)
	}
	for songRows.Next() {
		var playlistID string
		var ps models.PlaylistSong
		if err := songRows.Scan(&playlistID, &ps.SongID, &ps.Order); err != nil {
			songRows.Close()
			return fmt.Errorf("failed to scan playlist song: %w", err)
		}
		byID[playlistID].Songs = append(byID[playlistID].Songs, ps)
	}
	if err := songRows.Err(); err != nil {
		songRows.Close()
		return fmt.Errorf("row iteration error: %w", err)
	}
	songRows.Close()

	listenerRows, err := r.db.QueryContext(ctx,
		`SELECT playlist_id, user_id FROM playlist_listeners WHERE playlist_id IN `+clause+` ORDER BY playlist_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to query playlist listeners: %w", err)
	}
	defer listenerRows.Close()
	for listenerRows.Next() {
		var playlistID, userID string
		if err := listenerRows.Scan(&playlistID, &userID); err != nil {
			return fmt.Errorf("failed to scan playlist listener: %w", err)
		}
		byID[playlistID].Listeners = append(byID[playlistID].Listeners, userID)
	}
	if err := listenerRows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	for _, p := range playlists {
		p.Songs = models.Densify(p.Songs)
	}
	return nil
}

func (r *PlaylistRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func writeMembers(ctx context.Context, tx *sql.Tx, playlist *models.Playlist) error {
	for _, s := range playlist.Songs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_songs (playlist_id, song_id, position) VALUES (?, ?, ?)`, playlist.ID, s.SongID, s.Order,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist song: %w", err)
		}
	}

	for i, userID := range models.Distinct(playlist.Listeners) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_listeners (playlist_id, user_id, position) VALUES (?, ?, ?)`, playlist.ID, userID, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert playlist listener: %w", err)
		}
	}
	return nil
}

func scanPlaylist(row scanner) (*models.Playlist, error) {
	var p models.Playlist
	err := row.Scan(
		&p.ID, &p.Name, &p.OwnerID, &p.OwnerEmail, &p.OwnerName, &p.OwnerAvatar,
		&p.Plays, &p.LastAccessed, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &p, nil
}
