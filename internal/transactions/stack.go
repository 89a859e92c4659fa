package transactions

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Stack applies commands to a song list and keeps a linear undo history.
//
// history[:cursor] has been applied; history[cursor:] can be redone. Executing
// a new command discards the redoable tail. A Stack is not safe for concurrent use.
type Stack struct {
	songs   []models.PlaylistSong
	history []Command
	cursor  int
}

// NewStack starts an empty history over songs.
func NewStack(songs []models.PlaylistSong) *Stack {
	s := &Stack{}
	s.Reset(songs)
	return s
}

// Songs returns a copy of the current song list.
func (s *Stack) Songs() []models.PlaylistSong {
	return slices.Clone(s.songs)
}

// SongIDs returns the current song ids in order.
func (s *Stack) SongIDs() []string {
	ids := make([]string, len(s.songs))
	for i, song := range s.songs {
		ids[i] = song.SongID
	}
	return ids
}

// Len is the number of songs in the current list.
func (s *Stack) Len() int { return len(s.songs) }

// Execute applies cmd and records it at the cursor.
//
// A command whose preconditions fail returns [shared.ErrInvalidCommand] and leaves
// both the list and the history untouched.
func (s *Stack) Execute(cmd Command) error {
	if cmd == nil {
		return errors.Wrap(shared.ErrInvalidCommand, "nil command")
	}
	if err := cmd.check(len(s.songs)); err != nil {
		return err
	}

	s.songs = cmd.forward(s.songs)
	s.history = append(s.history[:s.cursor], cmd)
	s.cursor++
	return nil
}

// Undo reverts the command before the cursor and returns it.
// With nothing to undo it returns [shared.ErrNoOp].
func (s *Stack) Undo() (Command, error) {
	if !s.CanUndo() {
		return nil, errors.Wrap(shared.ErrNoOp, "nothing to undo")
	}

	cmd := s.history[s.cursor-1]
	if err := inverseCheck(cmd, len(s.songs)); err != nil {
		return nil, err
	}
	s.songs = cmd.inverse(s.songs)
	s.cursor--
	return cmd, nil
}

// Redo re-applies the command at the cursor and returns it.
// With nothing to redo it returns [shared.ErrNoOp].
func (s *Stack) Redo() (Command, error) {
	if !s.CanRedo() {
		return nil, errors.Wrap(shared.ErrNoOp, "nothing to redo")
	}

	cmd := s.history[s.cursor]
	if err := cmd.check(len(s.songs)); err != nil {
		return nil, err
	}
	s.songs = cmd.forward(s.songs)
	s.cursor++
	return cmd, nil
}

func (s *Stack) CanUndo() bool { return s.cursor > 0 }

func (s *Stack) CanRedo() bool { return s.cursor < len(s.history) }

// Clear drops all history and keeps the current list.
func (s *Stack) Clear() {
	s.history = nil
	s.cursor = 0
}

// Reset clears history and replaces the list with a densified copy of songs.
func (s *Stack) Reset(songs []models.PlaylistSong) {
	s.Clear()
	s.songs = models.Densify(songs)
}

// History returns the recorded commands and the cursor position.
func (s *Stack) History() ([]Command, int) {
	return slices.Clone(s.history), s.cursor
}
