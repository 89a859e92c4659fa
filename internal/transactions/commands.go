package transactions

import (
	"fmt"
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Kind tags a [Command] variant.
type Kind int

const (
	KindMove Kind = iota
	KindAdd
	KindRemove
)

func (k Kind) String() string {
	switch k {
	case KindMove:
		return "move"
	case KindAdd:
		return "add"
	case KindRemove:
		return "remove"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Command is a reversible edit of a playlist's song list.
//
// The set of variants is closed: [*Move], [*Add], and [*Remove].
type Command interface {
	Kind() Kind
	String() string

	// check reports whether the command's preconditions hold for a list of n songs.
	check(n int) error
	forward(songs []models.PlaylistSong) []models.PlaylistSong
	inverse(songs []models.PlaylistSong) []models.PlaylistSong
}

// Move relocates the song at From so that it ends up at To.
type Move struct {
	From int
	To   int
}

// NewMove builds a move over a list of n songs. Both indices must lie in [0, n).
func NewMove(from, to, n int) (*Move, error) {
	m := &Move{From: from, To: to}
	if err := m.check(n); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Move) Kind() Kind { return KindMove }

func (m *Move) String() string { return fmt.Sprintf("move %d to %d", m.From, m.To) }

func (m *Move) check(n int) error {
	if !inRange(m.From, n) || !inRange(m.To, n) {
		return invalid("move %d to %d out of range for %d songs", m.From, m.To, n)
	}
	return nil
}

func (m *Move) forward(songs []models.PlaylistSong) []models.PlaylistSong {
	return move(songs, m.From, m.To)
}

func (m *Move) inverse(songs []models.PlaylistSong) []models.PlaylistSong {
	return move(songs, m.To, m.From)
}

// Add inserts SongID at At.
type Add struct {
	SongID string
	At     int
}

// NewAdd builds an insertion into a list of n songs. At must lie in [0, n].
func NewAdd(songID string, at, n int) (*Add, error) {
	a := &Add{SongID: songID, At: at}
	if err := a.check(n); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Add) Kind() Kind { return KindAdd }

func (a *Add) String() string { return fmt.Sprintf("add %s at %d", a.SongID, a.At) }

func (a *Add) check(n int) error {
	if a.SongID == "" {
		return invalid("add without a song id")
	}
	if a.At < 0 || a.At > n {
		return invalid("add at %d out of range for %d songs", a.At, n)
	}
	return nil
}

func (a *Add) forward(songs []models.PlaylistSong) []models.PlaylistSong {
	return insert(songs, a.At, a.SongID)
}

func (a *Add) inverse(songs []models.PlaylistSong) []models.PlaylistSong {
	out, _ := remove(songs, a.At)
	return out
}

// Remove deletes the song at At. The removed song is captured on first apply.
type Remove struct {
	At      int
	removed string
}

// NewRemove builds a removal from a list of n songs. At must lie in [0, n).
func NewRemove(at, n int) (*Remove, error) {
	r := &Remove{At: at}
	if err := r.check(n); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Remove) Kind() Kind { return KindRemove }

func (r *Remove) String() string {
	if r.removed == "" {
		return fmt.Sprintf("remove %d", r.At)
	}
	return fmt.Sprintf("remove %s at %d", r.removed, r.At)
}

// Removed is the id captured when the command was applied.
func (r *Remove) Removed() string { return r.removed }

func (r *Remove) check(n int) error {
	if !inRange(r.At, n) {
		return invalid("remove %d out of range for %d songs", r.At, n)
	}
	return nil
}

func (r *Remove) forward(songs []models.PlaylistSong) []models.PlaylistSong {
	out, id := remove(songs, r.At)
	r.removed = id
	return out
}

func (r *Remove) inverse(songs []models.PlaylistSong) []models.PlaylistSong {
	return insert(songs, r.At, r.removed)
}

// inverseCheck reports whether cmd's inverse can be applied to a list of n songs.
func inverseCheck(cmd Command, n int) error {
	switch c := cmd.(type) {
	case *Move:
		return c.check(n)
	case *Add:
		if !inRange(c.At, n) {
			return invalid("undo of %s out of range for %d songs", c, n)
		}
	case *Remove:
		if c.At < 0 || c.At > n {
			return invalid("undo of %s out of range for %d songs", c, n)
		}
	}
	return nil
}

func inRange(i, n int) bool { return i >= 0 && i < n }

func invalid(format string, args ...any) error {
	return errors.Wrapf(shared.ErrInvalidCommand, format, args...)
}

func move(songs []models.PlaylistSong, from, to int) []models.PlaylistSong {
	out := slices.Clone(songs)
	item := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, item)
	return renumber(out)
}

func insert(songs []models.PlaylistSong, at int, id string) []models.PlaylistSong {
	out := slices.Insert(slices.Clone(songs), at, models.PlaylistSong{SongID: id})
	return renumber(out)
}

func remove(songs []models.PlaylistSong, at int) ([]models.PlaylistSong, string) {
	id := songs[at].SongID
	out := slices.Delete(slices.Clone(songs), at, at+1)
	return renumber(out), id
}

// renumber assigns orders by position.
func renumber(songs []models.PlaylistSong) []models.PlaylistSong {
	if songs == nil {
		return []models.PlaylistSong{}
	}
	for i := range songs {
		songs[i].Order = i
	}
	return songs
}
