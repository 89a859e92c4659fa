package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	Sequence     int64     `bson:"sequence"`
	Email        string    `bson:"email"`
	EmailKey     string    `bson:"email_key"`
	DisplayName  string    `bson:"display_name"`
	Avatar       string    `bson:"avatar"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID: d.ID, Email: d.Email, DisplayName: d.DisplayName, Avatar: d.Avatar,
		PasswordHash: d.PasswordHash, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type songDoc struct {
	ID            string    `bson:"_id"`
	Sequence      int64     `bson:"sequence"`
	Title         string    `bson:"title"`
	Artist        string    `bson:"artist"`
	Year          int       `bson:"year"`
	VideoRef      string    `bson:"video_ref"`
	AddedBy       string    `bson:"added_by"`
	Listens       int       `bson:"listens"`
	PlaylistCount int       `bson:"playlist_count"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func (d songDoc) model() *models.Song {
	return &models.Song{
		ID: d.ID, Title: d.Title, Artist: d.Artist, Year: d.Year, VideoRef: d.VideoRef, AddedBy: d.AddedBy,
		Listens: d.Listens, PlaylistCount: d.PlaylistCount, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

type playlistSongDoc struct {
	SongID string `bson:"song_id"`
	Order  int    `bson:"order"`
}

type playlistDoc struct {
	ID           string            `bson:"_id"`
	Sequence     int64             `bson:"sequence"`
	Name         string            `bson:"name"`
	OwnerID      string            `bson:"owner_id"`
	OwnerEmail   string            `bson:"owner_email"`
	OwnerName    string            `bson:"owner_name"`
	OwnerAvatar  string            `bson:"owner_avatar"`
	Songs        []playlistSongDoc `bson:"songs"`
	Listeners    []string          `bson:"listeners"`
	Plays        int               `bson:"plays"`
	LastAccessed time.Time         `bson:"last_accessed"`
	CreatedAt    time.Time         `bson:"created_at"`
	UpdatedAt    time.Time         `bson:"updated_at"`
}

func newPlaylistDoc(p *models.Playlist) playlistDoc {
	songs := make([]playlistSongDoc, len(p.Songs))
	for i, s := range models.Densify(p.Songs) {
		songs[i] = playlistSongDoc{SongID: s.SongID, Order: s.Order}
	}
	return playlistDoc{
		ID: p.ID, Name: p.Name, OwnerID: p.OwnerID, OwnerEmail: p.OwnerEmail, OwnerName: p.OwnerName,
		OwnerAvatar: p.OwnerAvatar, Songs: songs, Listeners: models.Distinct(p.Listeners), Plays: p.Plays,
		LastAccessed: p.LastAccessed, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (d playlistDoc) model() *models.Playlist {
	songs := make([]models.PlaylistSong, len(d.Songs))
	for i, s := range d.Songs {
		songs[i] = models.PlaylistSong{SongID: s.SongID, Order: s.Order}
	}
	listeners := d.Listeners
	if listeners == nil {
		listeners = []string{}
	}
	return &models.Playlist{
		ID: d.ID, Name: d.Name, OwnerID: d.OwnerID, OwnerEmail: d.OwnerEmail, OwnerName: d.OwnerName,
		OwnerAvatar: d.OwnerAvatar, Songs: models.Densify(songs), Listeners: listeners, Plays: d.Plays,
		LastAccessed: d.LastAccessed, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// UserRepository implements [models.UserRepository] over the users collection.
type UserRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	seq, err := nextSequence(ctx, r.counters, usersCollection)
	if err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = shared.GenerateID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.UpdatedAt = user.CreatedAt

	_, err = r.coll.InsertOne(ctx, userDoc{
		ID: user.ID, Sequence: seq, Email: user.Email, EmailKey: models.FoldKey(user.Email),
		DisplayName: user.DisplayName, Avatar: user.Avatar, PasswordHash: user.PasswordHash,
		CreatedAt: user.CreatedAt, UpdatedAt: user.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s already registered: %w", user.Email, shared.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	doc, err := findOne[userDoc](ctx, r.coll, bson.M{"_id": id}, "user", id)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	doc, err := findOne[userDoc](ctx, r.coll, bson.M{"email_key": models.FoldKey(email)}, "user", email)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	user.UpdatedAt = time.Now().UTC()

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": bson.M{
		"email":         user.Email,
		"email_key":     models.FoldKey(user.Email),
		"display_name":  user.DisplayName,
		"avatar":        user.Avatar,
		"password_hash": user.PasswordHash,
		"updated_at":    user.UpdatedAt,
	}})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s already registered: %w", user.Email, shared.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkMatched(result, "user", user.ID)
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "user", id)
}

func (r *UserRepository) List(ctx context.Context, criteria map[string]any) ([]*models.User, error) {
	filter := bson.M{}
	if email, ok := criteria["email"].(string); ok && email != "" {
		filter["email_key"] = models.FoldKey(email)
	}
	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.User{}, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	docs, err := findAll[userDoc](ctx, r.coll, filter, "users")
	if err != nil {
		return nil, err
	}
	users := make([]*models.User, len(docs))
	for i, d := range docs {
		users[i] = d.model()
	}
	return users, nil
}

// SongRepository implements [models.SongRepository] over the songs collection.
type SongRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func (r *SongRepository) Create(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	seq, err := nextSequence(ctx, r.counters, songsCollection)
	if err != nil {
		return err
	}
	if song.ID == "" {
		song.ID = shared.GenerateID()
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	song.UpdatedAt = song.CreatedAt

	_, err = r.coll.InsertOne(ctx, songDoc{
		ID: song.ID, Sequence: seq, Title: song.Title, Artist: song.Artist, Year: song.Year,
		VideoRef: song.VideoRef, AddedBy: song.AddedBy, Listens: song.Listens, PlaylistCount: song.PlaylistCount,
		CreatedAt: song.CreatedAt, UpdatedAt: song.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

func (r *SongRepository) Get(ctx context.Context, id string) (*models.Song, error) {
	doc, err := findOne[songDoc](ctx, r.coll, bson.M{"_id": id}, "song", id)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *SongRepository) Update(ctx context.Context, song *models.Song) error {
	if err := song.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	song.UpdatedAt = time.Now().UTC()

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": song.ID}, bson.M{"$set": bson.M{
		"title":      song.Title,
		"artist":     song.Artist,
		"year":       song.Year,
		"video_ref":  song.VideoRef,
		"updated_at": song.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return checkMatched(result, "song", song.ID)
}

func (r *SongRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "song", id)
}

func (r *SongRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Song, error) {
	filter := bson.M{}
	if addedBy, ok := criteria["added_by"].(string); ok && addedBy != "" {
		filter["added_by"] = addedBy
	}
	if year, ok := criteria["year"].(int); ok && year != 0 {
		filter["year"] = year
	}
	if ids, ok := criteria["ids"].([]string); ok {
		if len(ids) == 0 {
			return []*models.Song{}, nil
		}
		filter["_id"] = bson.M{"$in": ids}
	}

	docs, err := findAll[songDoc](ctx, r.coll, filter, "songs")
	if err != nil {
		return nil, err
	}
	songs := make([]*models.Song, len(docs))
	for i, d := range docs {
		songs[i] = d.model()
	}
	return songs, nil
}

func (r *SongRepository) AddPlaylistCount(ctx context.Context, ids []string, delta int) error {
	return r.inc(ctx, "playlist_count", ids, delta)
}

func (r *SongRepository) AddListens(ctx context.Context, ids []string, delta int) error {
	return r.inc(ctx, "listens", ids, delta)
}

func (r *SongRepository) inc(ctx context.Context, field string, ids []string, delta int) error {
	if len(ids) == 0 || delta == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$inc": bson.M{field: delta}, "$set": bson.M{"updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", field, err)
	}
	return nil
}

// PlaylistRepository implements [models.PlaylistRepository] over the playlists collection.
type PlaylistRepository struct {
	coll     *mongo.Collection
	counters *mongo.Collection
}

func (r *PlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	seq, err := nextSequence(ctx, r.counters, playlistsCollection)
	if err != nil {
		return err
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

	doc := newPlaylistDoc(playlist)
	doc.Sequence = seq
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	return nil
}

func (r *PlaylistRepository) Get(ctx context.Context, id string) (*models.Playlist, error) {
	doc, err := findOne[playlistDoc](ctx, r.coll, bson.M{"_id": id}, "playlist", id)
	if err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (r *PlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	playlist.UpdatedAt = time.Now().UTC()
	playlist.Songs = models.Densify(playlist.Songs)
	doc := newPlaylistDoc(playlist)

	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": playlist.ID}, bson.M{"$set": bson.M{
		"name":          doc.Name,
		"owner_id":      doc.OwnerID,
		"owner_email":   doc.OwnerEmail,
		"owner_name":    doc.OwnerName,
		"owner_avatar":  doc.OwnerAvatar,
		"songs":         doc.Songs,
		"listeners":     doc.Listeners,
		"plays":         doc.Plays,
		"last_accessed": doc.LastAccessed,
		"updated_at":    doc.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	return checkMatched(result, "playlist", playlist.ID)
}

func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	return deleteOne(ctx, r.coll, "playlist", id)
}

func (r *PlaylistRepository) List(ctx context.Context, criteria map[string]any) ([]*models.Playlist, error) {
	filter := bson.M{}
	if ownerID, ok := criteria["owner_id"].(string); ok && ownerID != "" {
		filter["owner_id"] = ownerID
	}
	if songID, ok := criteria["song_id"].(string); ok && songID != "" {
		filter["songs.song_id"] = songID
	}

	docs, err := findAll[playlistDoc](ctx, r.coll, filter, "playlists")
	if err != nil {
		return nil, err
	}
	playlists := make([]*models.Playlist, len(docs))
	for i, d := range docs {
		playlists[i] = d.model()
	}
	return playlists, nil
}
