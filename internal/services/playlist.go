package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
)

var untitledPattern = regexp.MustCompile(`^untitled(\d+)$`)

// PlaylistService implements [Playlists].
//
// Membership counters use set semantics: a song's PlaylistCount is the number of
// playlists containing it at least once. Counter maintenance and the playlist write
// are separate store calls, so concurrent edits of playlists sharing a song can lose
// counter updates.
type PlaylistService struct {
	store  models.Store
	logger *log.Logger
	now    func() time.Time
}

func NewPlaylistService(store models.Store, logger *log.Logger) *PlaylistService {
	return &PlaylistService{store: store, logger: newLogger(logger, "playlists"), now: time.Now}
}

// Create makes an empty playlist for ownerID.
//
// A blank name, or a taken name of the form Untitled<N>, gets the smallest free
// Untitled<N>. Any other taken name fails with [shared.ErrDuplicateName].
func (s *PlaylistService) Create(ctx context.Context, ownerID, name string) (*models.Playlist, error) {
	owner, err := s.owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownedNames(ctx, ownerID, "")
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		name = nextUntitled(owned)
	case owned[models.FoldKey(name)]:
		if !untitledPattern.MatchString(models.FoldKey(name)) {
			return nil, duplicateName(name)
		}
		name = nextUntitled(owned)
	}

	p := models.NewPlaylist(name, owner)
	p.LastAccessed = s.now().UTC()
	if err := s.store.Playlists().Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "failed to create playlist")
	}

	s.logger.Info("playlist created", "id", p.ID, "name", p.Name, "owner", ownerID)
	return p, nil
}

func (s *PlaylistService) Get(ctx context.Context, id string) (*models.Playlist, error) {
	p, err := s.store.Playlists().Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load playlist")
	}
	return p, nil
}

func (s *PlaylistService) GetWithSongs(ctx context.Context, id string) (*models.Playlist, []*models.Song, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	byID, err := s.songsByID(ctx, p.SongIDs())
	if err != nil {
		return nil, nil, err
	}

	songs := make([]*models.Song, 0, len(p.Songs))
	for _, songID := range p.SongIDs() {
		if song, ok := byID[songID]; ok {
			songs = append(songs, song)
		}
	}
	return p, songs, nil
}

// List returns every playlist matching criteria, sorted when criteria names a key.
func (s *PlaylistService) List(ctx context.Context, criteria search.PlaylistCriteria) ([]*models.Playlist, error) {
	playlists, err := s.store.Playlists().List(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list playlists")
	}

	var songs map[string]*models.Song
	if !criteria.SongFilter().Empty() {
		var ids []string
		for _, p := range playlists {
			ids = append(ids, p.SongIDs()...)
		}
		if songs, err = s.songsByID(ctx, models.Distinct(ids)); err != nil {
			return nil, err
		}
	}

	return search.Playlists(playlists, songs, criteria)
}

// Copy duplicates a playlist into requesterID's library as "<name> (Copy)",
// then "<name> (Copy 1)", "<name> (Copy 2)", ... whichever is free first.
func (s *PlaylistService) Copy(ctx context.Context, id, requesterID string) (*models.Playlist, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	owned, err := s.ownedNames(ctx, requesterID, "")
	if err != nil {
		return nil, err
	}

	cp := models.NewPlaylist(copyName(src.Name, owned), owner)
	cp.Songs = models.Densify(src.Songs)
	cp.LastAccessed = s.now().UTC()
	if err := s.store.Playlists().Create(ctx, cp); err != nil {
		return nil, errors.Wrap(err, "failed to create copy")
	}

	if err := s.store.Songs().AddPlaylistCount(ctx, models.Distinct(cp.SongIDs()), 1); err != nil {
		return nil, errors.Wrap(err, "failed to update song counters")
	}

	s.logger.Info("playlist copied", "source", src.ID, "id", cp.ID, "name", cp.Name, "owner", requesterID)
	return cp, nil
}

// Update applies patch to a playlist owned by requesterID.
//
// A new song list adjusts membership counters by set difference against the previous list.
func (s *PlaylistService) Update(ctx context.Context, id, requesterID string, patch PlaylistPatch) (*models.Playlist, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(p, requesterID); err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errors.Wrap(shared.ErrValidation, "name is required")
		}
		owned, err := s.ownedNames(ctx, p.OwnerID, p.ID)
		if err != nil {
			return nil, err
		}
		if owned[models.FoldKey(name)] {
			return nil, duplicateName(name)
		}
		p.Name = name
	}

	var added, removed []string
	if patch.Songs != nil {
		next := *patch.Songs
		if err := s.checkSongsExist(ctx, next); err != nil {
			return nil, err
		}
		added, removed = setDiff(p.SongIDs(), next)
		p.Songs = models.NewSongList(next)
	}

	p.LastAccessed = s.now().UTC()
	if err := s.store.Playlists().Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "failed to update playlist")
	}

	if err := s.store.Songs().AddPlaylistCount(ctx, removed, -1); err != nil {
		return nil, errors.Wrap(err, "failed to decrement song counters")
	}
	if err := s.store.Songs().AddPlaylistCount(ctx, added, 1); err != nil {
		return nil, errors.Wrap(err, "failed to increment song counters")
	}

	s.logger.Info("playlist updated", "id", p.ID, "added", len(added), "removed", len(removed))
	return p, nil
}

// Delete removes a playlist owned by requesterID and decrements the counter of every song it held.
func (s *PlaylistService) Delete(ctx context.Context, id, requesterID string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := checkOwner(p, requesterID); err != nil {
		return err
	}

	if err := s.store.Songs().AddPlaylistCount(ctx, models.Distinct(p.SongIDs()), -1); err != nil {
		return errors.Wrap(err, "failed to decrement song counters")
	}
	if err := s.store.Playlists().Delete(ctx, p.ID); err != nil {
		return errors.Wrap(err, "failed to delete playlist")
	}

	s.logger.Info("playlist deleted", "id", p.ID, "owner", requesterID)
	return nil
}

// Play increments the play count, records a known requester as a listener once,
// and adds one listen to every song in the playlist.
func (s *PlaylistService) Play(ctx context.Context, id, requesterID string) (*models.Playlist, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Plays++
	if requesterID != "" && !p.HasListener(requesterID) {
		if _, err := s.store.Users().Get(ctx, requesterID); err == nil {
			p.Listeners = append(p.Listeners, requesterID)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return nil, errors.Wrap(err, "failed to resolve listener")
		}
	}
	p.LastAccessed = s.now().UTC()

	if err := s.store.Playlists().Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "failed to record play")
	}
	if err := s.store.Songs().AddListens(ctx, models.Distinct(p.SongIDs()), 1); err != nil {
		return nil, errors.Wrap(err, "failed to record listens")
	}

	s.logger.Debug("playlist played", "id", p.ID, "plays", p.Plays, "listeners", p.ListenerCount())
	return p, nil
}

func (s *PlaylistService) owner(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load owner")
	}
	return user, nil
}

// ownedNames returns the folded names of ownerID's playlists, skipping exceptID.
func (s *PlaylistService) ownedNames(ctx context.Context, ownerID, exceptID string) (map[string]bool, error) {
	playlists, err := s.store.Playlists().List(ctx, map[string]any{"owner_id": ownerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list owned playlists")
	}
	names := make(map[string]bool, len(playlists))
	for _, p := range playlists {
		if p.ID != exceptID {
			names[models.FoldKey(p.Name)] = true
		}
	}
	return names, nil
}

func (s *PlaylistService) songsByID(ctx context.Context, ids []string) (map[string]*models.Song, error) {
	byID := make(map[string]*models.Song, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	songs, err := s.store.Songs().List(ctx, map[string]any{"ids": ids})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load songs")
	}
	for _, song := range songs {
		byID[song.ID] = song
	}
	return byID, nil
}

func (s *PlaylistService) checkSongsExist(ctx context.Context, ids []string) error {
	distinct := models.Distinct(ids)
	for _, id := range distinct {
		if strings.TrimSpace(id) == "" {
			return errors.Wrap(shared.ErrValidation, "song ids must not be empty")
		}
	}
	byID, err := s.songsByID(ctx, distinct)
	if err != nil {
		return err
	}
	for _, id := range distinct {
		if _, ok := byID[id]; !ok {
			return errors.Wrapf(shared.ErrValidation, "unknown song %s", id)
		}
	}
	return nil
}

func checkOwner(p *models.Playlist, requesterID string) error {
	if requesterID == "" {
		return shared.ErrUnauthorized
	}
	if p.OwnerID != requesterID {
		return errors.Wrapf(shared.ErrForbidden, "playlist %s belongs to another user", p.ID)
	}
	return nil
}

func duplicateName(name string) error {
	return errors.WithHint(
		errors.Wrapf(shared.ErrDuplicateName, "%q", name),
		"choose another name or leave it blank for an Untitled name",
	)
}

// nextUntitled picks the smallest N >= 0 such that Untitled<N> is not among the folded names.
func nextUntitled(owned map[string]bool) string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("Untitled%d", n)
		if !owned[models.FoldKey(name)] {
			return name
		}
	}
}

func copyName(name string, owned map[string]bool) string {
	candidate := name + " (Copy)"
	for i := 1; owned[models.FoldKey(candidate)]; i++ {
		candidate = fmt.Sprintf("%s (Copy %d)", name, i)
	}
	return candidate
}

// setDiff returns the distinct ids of next missing from prev and of prev missing from next.
func setDiff(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, id := range next {
		inNext[id] = true
	}
	for _, id := range models.Distinct(next) {
		if !inPrev[id] {
			added = append(added, id)
		}
	}
	for _, id := range models.Distinct(prev) {
		if !inNext[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}
