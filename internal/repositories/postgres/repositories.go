package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

type userRow struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Email        string `gorm:"not null"`
	EmailKey     string `gorm:"uniqueIndex;not null"`
	DisplayName  string `gorm:"not null"`
	Avatar       string
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (userRow) TableName() string { return "users" }

func (r userRow) model() *models.User {
	return &models.User{
		ID: r.ID, Email: r.Email, DisplayName: r.DisplayName, Avatar: r.Avatar,
		PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

type songRow struct {
	ID            string `gorm:"primaryKey;type:varchar(36)"`
	Title         string `gorm:"not null"`
	Artist        string `gorm:"not null"`
	Year          int    `gorm:"index;not null"`
	VideoRef      string
	AddedBy       string    `gorm:"index;type:varchar(36);not null"`
	Listens       int       `gorm:"not null;default:0"`
	PlaylistCount int       `gorm:"not null;default:0"`
	CreatedAt     time.Time `gorm:"index"`
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

func (songRow) TableName() string { return "songs" }

func (r songRow) model() *models.Song {
	return &models.Song{
		ID: r.ID, Title: r.Title, Artist: r.Artist, Year: r.Year, VideoRef: r.VideoRef, AddedBy: r.AddedBy,
		Listens: r.Listens, PlaylistCount: r.PlaylistCount, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// playlistRow stores Songs as a jsonb array of {"songId","order"} and Listeners as a jsonb array of ids.
type playlistRow struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Name         string `gorm:"not null"`
	OwnerID      string `gorm:"index;type:varchar(36);not null"`
	OwnerEmail   string
	OwnerName    string
	OwnerAvatar  string
	Songs        string `gorm:"type:jsonb;not null"`
	Listeners    string `gorm:"type:jsonb;not null"`
	Plays        int    `gorm:"not null;default:0"`
	LastAccessed time.Time
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (playlistRow) TableName() string { return "playlists" }

func newPlaylistRow(p *models.Playlist) (playlistRow, error) {
	songs, err := json.Marshal(models.Densify(p.Songs))
	if err != nil {
		return playlistRow{}, fmt.Errorf("failed to encode songs: %w", err)
	}
	listeners, err := json.Marshal(models.Distinct(p.Listeners))
	if err != nil {
		return playlistRow{}, fmt.Errorf("failed to encode listeners: %w", err)
	}
	return playlistRow{
		ID: p.ID, Name: p.Name, OwnerID: p.OwnerID, OwnerEmail: p.OwnerEmail, OwnerName: p.OwnerName,
		OwnerAvatar: p.OwnerAvatar, Songs: string(songs), Listeners: string(listeners), Plays: p.Plays,
		LastAccessed: p.LastAccessed, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}, nil
}

func (r playlistRow) model() (*models.Playlist, error) {
	p := &models.Playlist{
		ID: r.ID, Name: r.Name, OwnerID: r.OwnerID, OwnerEmail: r.OwnerEmail, OwnerName: r.OwnerName,
		OwnerAvatar: r.OwnerAvatar, Plays: r.Plays, LastAccessed: r.LastAccessed,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Songs: []models.PlaylistSong{}, Listeners: []string{},
	}
	if r.Songs != "" {
		if err := json.Unmarshal([]byte(r.Songs), &p.Songs); err != nil {
			return nil, fmt.Errorf("failed to decode songs of playlist %s: %w", r.ID, err)
		}
	}
	if r.Listeners != "" {
		if err := json.Unmarshal([]byte(r.Listeners), &p.Listeners); err != nil {
			return nil, fmt.Errorf("failed to decode listeners of playlist %s: %w", r.ID, err)
		}
	}
	p.Songs = models.Densify(p.Songs)
	return p, nil
}

// UserRepository implements [models.UserRepository] with gorm.
type UserRepository struct {
	db *gorm.DB
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if user.ID == "" {
		user.ID = shared.GenerateID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	row := userRow{
		ID: user.ID, Email: user.Email, EmailKey: models.FoldKey(user.Email), DisplayName: user.DisplayName,
		Avatar: user.Avatar, PasswordHash: user.PasswordHash, CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt,
	}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("email %s already registered: %w", user.Email, shared.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err, "user", id)
	}
	return row.model(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "email_key = ?", models.FoldKey(email)).Error; err != nil {
		return nil, translate(err, "user", email)
	}
	return row.model(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	user.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", user.ID).Updates(map[string]any{
		"email":         user.Email,
		"email_key":     models.FoldKey(user.Email),
		"display_name":  user.DisplayName,
		"avatar":        user.Avatar,
		"password_hash": user.PasswordHash,
		"updated_at":    user.UpdatedAt,
	})
	if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("email %s already registered: %w", user.Email, shared.ErrValidation)
	}
	return checkAffected(result, "user", user.ID, "update")
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&userRow{}, "id = ?", id), "user", id, "delete")
}

func (r *UserRepository) List(ctx context.Context, criteria map[string]any) ([]*models.User, error) {
	q := r.db.WithContext(ctx).Model(&userRow{})
	if email, ok := criteria["email"].(string); ok && email != "" {
		q = q.Where("email_key = ?", models.FoldKey(email))
	}
	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.User{}, nil
		}
		q = q.Where("id IN ?", ids)
	}

	var rows []userRow
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := make([]*models.User, len(rows))
	for i, row := range rows {
		users[i] = row.model()
	}
	return users, nil
}

// SongRepository implements [models.SongRepository] with gorm.
type SongRepository struct {
	db *gorm.DB
}

func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if song.ID == "" {
		song.ID = shared.GenerateID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	song.UpdatedAt = song.CreatedAt

	row := songRow{
		ID: song.ID, Title: song.Title, Artist: song.Artist, Year: song.Year, VideoRef: song.VideoRef,
		AddedBy: song.AddedBy, Listens: song.Listens, PlaylistCount: song.PlaylistCount,
		CreatedAt: song.CreatedAt, UpdatedAt: song.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	var row songRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err, "song", id)
	}
	return row.model(), nil
}

func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	song.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&songRow{}).Where("id = ?", song.ID).Updates(map[string]any{
		"title":      song.Title,
		"artist":     song.Artist,
		"year":       song.Year,
		"video_ref":  song.VideoRef,
		"updated_at": song.UpdatedAt,
	})
	return checkAffected(result, "song", song.ID, "update")
}

func (r *SongRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&songRow{}, "id = ?", id), "song", id, "delete")
}

func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Song, error) {
	q := r.db.WithContext(ctx).Model(&songRow{})
	if addedBy, ok := criteria["added_by"].(string); ok && addedBy != "" {
		q = q.Where("added_by = ?", addedBy)
	}
	if year, ok := criteria["year"].(int); ok && year != 0 {
		q = q.Where("year = ?", year)
	}
	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.Song{}, nil
		}
		q = q.Where("id IN ?", ids)
	}

	var rows []songRow
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	songs := make([]*models.Song, len(rows))
	for i, row := range rows {
		songs[i] = row.model()
	}
	return songs, nil
}

func (r *SongRepository) AddPlaylistCount(ctx context.Context, ids []string, delta int) error {
	return r.inc(ctx, "playlist_count", ids, delta)
}

func (r *SongRepository) AddListens(ctx context.Context, ids []string, delta int) error {
	return r.inc(ctx, "listens", ids, delta)
}

func (r *SongRepository) inc(ctx context.Context, column string, ids []string, delta int) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Model(&songRow{}).
		Where("id IN ?", ids).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", column, err)
	}
	return nil
}

// PlaylistRepository implements [models.PlaylistRepository] with gorm.
type PlaylistRepository struct {
	db *gorm.DB
}

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

	row, err := newPlaylistRow(playlist)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	var row playlistRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate(err, "playlist", id)
	}
	return row.model()
}

func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	playlist.UpdatedAt = time.Now().UTC()
	playlist.Songs = models.Densify(playlist.Songs)

	row, err := newPlaylistRow(playlist)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&playlistRow{}).Where("id = ?", playlist.ID).Updates(map[string]any{
		"name":          row.Name,
		"owner_id":      row.OwnerID,
		"owner_email":   row.OwnerEmail,
		"owner_name":    row.OwnerName,
		"owner_avatar":  row.OwnerAvatar,
		"songs":         row.Songs,
		"listeners":     row.Listeners,
		"plays":         row.Plays,
		"last_accessed": row.LastAccessed,
		"updated_at":    row.UpdatedAt,
	})
	return checkAffected(result, "playlist", playlist.ID, "update")
}

func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	return checkAffected(r.db.WithContext(ctx).Delete(&playlistRow{}, "id = ?", id), "playlist", id, "delete")
}

func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Playlist, error) {
	q := r.db.WithContext(ctx).Model(&playlistRow{})
	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		q = q.Where("owner_id = ?", ownerID)
	}
	if songID, ok := criteria["song_id"].(string); ok && songID != "" {
		contains, err := json.Marshal([]map[string]string{{"songId": songID}})
		if err != nil {
			return nil, fmt.Errorf("failed to encode song filter: %w", err)
		}
		q = q.Where("songs @> ?::jsonb", string(contains))
	}

	var rows []playlistRow
	if err := q.Order("created_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	playlists := make([]*models.Playlist, 0, len(rows))
	for _, row := range rows {
		p, err := row.model()
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, nil
}
