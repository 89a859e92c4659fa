package services

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
)

// SongService implements [Songs].
//
// Two songs may not share (title, artist, year); title and artist compare case-insensitively.
type SongService struct {
	store  models.Store
	logger *log.Logger
	now    func() time.Time
}

func NewSongService(store models.Store, logger *log.Logger) *SongService {
	return &SongService{store: store, logger: newLogger(logger, "songs"), now: time.Now}
}

func (s *SongService) Create(ctx context.Context, addedBy string, in SongInput) (*models.Song, error) {
	if addedBy == "" {
		return nil, shared.ErrUnauthorized
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Artist = strings.TrimSpace(in.Artist)
	in.VideoRef = strings.TrimSpace(in.VideoRef)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := checkYear(in.Year, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.store.Users().Get(ctx, addedBy); err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}
	if err := s.checkDuplicate(ctx, "", in.Title, in.Artist, in.Year); err != nil {
		return nil, err
	}

	song := models.NewSong(addedBy, in.Title, in.Artist, in.Year, in.VideoRef)
	if err := s.store.Songs().Create(ctx, song); err != nil {
		return nil, errors.Wrap(err, "failed to create song")
	}

	s.logger.Info("song created", "id", song.ID, "title", song.Title, "artist", song.Artist, "year", song.Year)
	return song, nil
}

func (s *SongService) Get(ctx context.Context, id string) (*models.Song, error) {
	song, err := s.store.Songs().Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load song")
	}
	return song, nil
}

// List returns the catalog filtered by criteria. The year filter is pushed down to the store.
func (s *SongService) List(ctx context.Context, criteria search.SongCriteria) ([]*models.Song, error) {
	filter := map[string]any{}
	if criteria.Year != 0 {
		filter["year"] = criteria.Year
	}
	songs, err := s.store.Songs().List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list songs")
	}
	return search.Songs(songs, criteria)
}

// Update applies patch to a song added by requesterID, re-checking the duplicate triple.
func (s *SongService) Update(ctx context.Context, id, requesterID string, patch SongPatch) (*models.Song, error) {
	song, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkAdder(song, requesterID); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		song.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Artist != nil {
		song.Artist = strings.TrimSpace(*patch.Artist)
	}
	if patch.Year != nil {
		song.Year = *patch.Year
	}
	if patch.VideoRef != nil {
		song.VideoRef = strings.TrimSpace(*patch.VideoRef)
	}

	if song.Title == "" || song.Artist == "" {
		return nil, errors.Wrap(shared.ErrValidation, "title and artist are required")
	}
	if err := checkYear(song.Year, s.now()); err != nil {
		return nil, err
	}
	if err := s.checkDuplicate(ctx, song.ID, song.Title, song.Artist, song.Year); err != nil {
		return nil, err
	}

	if err := s.store.Songs().Update(ctx, song); err != nil {
		return nil, errors.Wrap(err, "failed to update song")
	}

	s.logger.Info("song updated", "id", song.ID)
	return song, nil
}

// Delete cascades: every playlist holding the song loses it and is re-densified.
// The cascade is not atomic with the final delete.
func (s *SongService) Delete(ctx context.Context, id, requesterID string) error {
	song, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkAdder(song, requesterID); err != nil {
		return err
	}

	playlists, err := s.store.Playlists().List(ctx, map[string]any{"song_id": song.ID})
	if err != nil {
		return errors.Wrap(err, "failed to find playlists holding song")
	}
	for _, p := range playlists {
		if !p.RemoveSong(song.ID) {
			continue
		}
		if err := s.store.Playlists().Update(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to remove song from playlist %s", p.ID)
		}
	}

	if err := s.store.Songs().Delete(ctx, song.ID); err != nil {
		return errors.Wrap(err, "failed to delete song")
	}

	s.logger.Info("song deleted", "id", song.ID, "playlists", len(playlists))
	return nil
}

func (s *SongService) checkDuplicate(ctx context.Context, selfID, title, artist string, year int) error {
	candidates, err := s.store.Songs().List(ctx, map[string]any{"year": year})
	if err != nil {
		return errors.Wrap(err, "failed to check for duplicates")
	}
	for _, c := range candidates {
		if c.ID != selfID && c.SameTriple(title, artist, year) {
			return errors.Wrapf(shared.ErrDuplicateSong, "%q by %s (%d)", title, artist, year)
		}
	}
	return nil
}

func checkAdder(song *models.Song, requesterID string) error {
	if requesterID == "" {
		return shared.ErrUnauthorized
	}
	if song.AddedBy != requesterID {
		return errors.Wrapf(shared.ErrForbidden, "song %s was added by another user", song.ID)
	}
	return nil
}
