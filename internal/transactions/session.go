package transactions

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Flusher persists a playlist's final song list.
type Flusher interface {
	UpdatePlaylistSongs(ctx context.Context, playlistID string, songIDs []string) (*models.Playlist, error)
}

// Session is the edit state of one open playlist.
//
// It owns a private copy of the playlist and its [Stack]. Nothing is written
// until [Session.Save]; [Session.Close] abandons pending edits.
type Session struct {
	flusher  Flusher
	playlist *models.Playlist
	stack    *Stack
	saved    []string
}

// NewSession creates a session with no playlist open.
func NewSession(flusher Flusher) *Session {
	return &Session{flusher: flusher, stack: NewStack(nil)}
}

// Open makes p the edit target. Any previous history is discarded.
func (s *Session) Open(p *models.Playlist) {
	if p == nil {
		s.Close()
		return
	}
	s.playlist = p.Clone()
	s.stack.Reset(s.playlist.Songs)
	s.saved = s.stack.SongIDs()
}

// Close discards the open playlist and its history without flushing.
func (s *Session) Close() {
	s.playlist = nil
	s.saved = nil
	s.stack.Reset(nil)
}

// IsOpen reports whether a playlist is open.
func (s *Session) IsOpen() bool { return s.playlist != nil }

// Playlist returns a copy of the open playlist with the current song list.
func (s *Session) Playlist() *models.Playlist {
	if s.playlist == nil {
		return nil
	}
	p := s.playlist.Clone()
	p.Songs = s.stack.Songs()
	return p
}

// Songs returns the current song list.
func (s *Session) Songs() []models.PlaylistSong { return s.stack.Songs() }

// SongIDs returns the current song ids in order.
func (s *Session) SongIDs() []string { return s.stack.SongIDs() }

// Move relocates the song at from to to.
func (s *Session) Move(from, to int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	cmd, err := NewMove(from, to, s.stack.Len())
	if err != nil {
		return err
	}
	return s.stack.Execute(cmd)
}

// Add inserts songID at at.
func (s *Session) Add(songID string, at int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	cmd, err := NewAdd(songID, at, s.stack.Len())
	if err != nil {
		return err
	}
	return s.stack.Execute(cmd)
}

// Remove deletes the song at at.
func (s *Session) Remove(at int) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	cmd, err := NewRemove(at, s.stack.Len())
	if err != nil {
		return err
	}
	return s.stack.Execute(cmd)
}

func (s *Session) Undo() (Command, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.stack.Undo()
}

func (s *Session) Redo() (Command, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	return s.stack.Redo()
}

func (s *Session) CanUndo() bool { return s.IsOpen() && s.stack.CanUndo() }

func (s *Session) CanRedo() bool { return s.IsOpen() && s.stack.CanRedo() }

// Dirty reports whether the song list differs from the last saved one.
func (s *Session) Dirty() bool {
	return s.IsOpen() && !slices.Equal(s.saved, s.stack.SongIDs())
}

// SaveRequest is a snapshot of the song list to flush. [SaveRequest.Do] only reads
// the snapshot, so it may run off the goroutine that owns the session.
type SaveRequest struct {
	PlaylistID string
	SongIDs    []string
	flusher    Flusher
}

// Do sends the snapshot in one update.
func (r SaveRequest) Do(ctx context.Context) (*models.Playlist, error) {
	updated, err := r.flusher.UpdatePlaylistSongs(ctx, r.PlaylistID, r.SongIDs)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to save playlist %s", r.PlaylistID)
	}
	return updated, nil
}

// PrepareSave snapshots the current song list for flushing.
func (s *Session) PrepareSave() (SaveRequest, error) {
	if err := s.ensureOpen(); err != nil {
		return SaveRequest{}, err
	}
	if s.flusher == nil {
		return SaveRequest{}, errors.Wrap(shared.ErrNoSession, "session has no flusher")
	}
	return SaveRequest{PlaylistID: s.playlist.ID, SongIDs: s.stack.SongIDs(), flusher: s.flusher}, nil
}

// Saved records a completed flush of req. It is ignored when the session was
// closed or switched to another playlist in the meantime.
func (s *Session) Saved(req SaveRequest, updated *models.Playlist) {
	if s.playlist == nil || s.playlist.ID != req.PlaylistID {
		return
	}
	if updated != nil {
		songs := s.playlist.Songs
		s.playlist = updated.Clone()
		s.playlist.Songs = songs
	}
	s.saved = req.SongIDs
}

// Save flushes the current song list in one update. History is kept.
func (s *Session) Save(ctx context.Context) error {
	req, err := s.PrepareSave()
	if err != nil {
		return err
	}
	updated, err := req.Do(ctx)
	if err != nil {
		return err
	}
	s.Saved(req, updated)
	return nil
}

func (s *Session) ensureOpen() error {
	if s.playlist == nil {
		return errors.Wrap(shared.ErrNoSession, "no playlist is open")
	}
	return nil
}
