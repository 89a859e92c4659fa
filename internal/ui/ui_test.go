package ui

import (
	"context"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
	tu "github.com/desertthunder/playlister/internal/testing"
	"github.com/desertthunder/playlister/internal/transactions"
)

type fakeBackend struct {
	playlists []*models.Playlist
	songs     []*models.Song
	getErr    error
}

func (f *fakeBackend) ListPlaylists(context.Context, search.PlaylistCriteria) ([]*models.Playlist, error) {
	return f.playlists, nil
}

func (f *fakeBackend) GetPlaylist(_ context.Context, id string) (*models.Playlist, []*models.Song, error) {
	if f.getErr != nil {
		return nil, nil, f.getErr
	}
	for _, p := range f.playlists {
		if p.ID != id {
			continue
		}
		var songs []*models.Song
		for _, sid := range p.SongIDs() {
			for _, s := range f.songs {
				if s.ID == sid {
					songs = append(songs, s)
				}
			}
		}
		return p, songs, nil
	}
	return nil, nil, shared.ErrNotFound
}

func (f *fakeBackend) ListSongs(context.Context, search.SongCriteria) ([]*models.Song, error) {
	return f.songs, nil
}

func newBackend() *fakeBackend {
	return &fakeBackend{
		playlists: []*models.Playlist{
			{ID: "p1", Name: "Mix", OwnerID: "u1", Songs: models.NewSongList([]string{"a", "b", "c"})},
			{ID: "p2", Name: "Theirs", OwnerID: "u2", Songs: []models.PlaylistSong{}},
		},
		songs: []*models.Song{
			{ID: "a", Title: "Alpha", Artist: "X", Year: 2000},
			{ID: "b", Title: "Bravo", Artist: "Y", Year: 2001},
			{ID: "c", Title: "Charlie", Artist: "Z", Year: 2002},
			{ID: "d", Title: "Delta", Artist: "W", Year: 2003},
		},
	}
}

// run executes cmd and feeds its message back until no command is left.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if _, ok := msg.(Msg); !ok {
			return
		}
		_, cmd = m.Update(msg)
	}
}

func press(t *testing.T, m *Model, keys ...string) tea.Cmd {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd = m.Update(msg)
	}
	return cmd
}

func openEditor(t *testing.T, flusher transactions.Flusher) *Model {
	t.Helper()
	m := NewModel(context.Background(), newBackend(), transactions.NewSession(flusher), "p1", "u1")
	run(t, m, m.Init())
	require.Equal(t, EditorView, m.view)
	require.True(t, m.catalogReady)
	return m
}

func TestEditor_Open(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	assert.Equal(t, []string{"a", "b", "c"}, m.session.SongIDs())
	view := m.View()
	assert.Contains(t, view, "Mix")
	assert.Contains(t, view, "> ")
	assert.Contains(t, view, "Alpha - X (2000)")
}

func TestEditor_MoveUndoRedo(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	press(t, m, "J")
	assert.Equal(t, []string{"b", "a", "c"}, m.session.SongIDs())
	assert.Equal(t, 1, m.cursor)

	press(t, m, "J")
	assert.Equal(t, []string{"b", "c", "a"}, m.session.SongIDs())
	assert.Equal(t, 2, m.cursor)

	press(t, m, "J")
	assert.Equal(t, []string{"b", "c", "a"}, m.session.SongIDs(), "moving past the end is ignored")

	press(t, m, "u")
	assert.Equal(t, []string{"b", "a", "c"}, m.session.SongIDs())
	press(t, m, "u", "u")
	assert.Equal(t, []string{"a", "b", "c"}, m.session.SongIDs())
	assert.False(t, m.session.Dirty())

	press(t, m, "u")
	assert.Contains(t, m.status, "nothing to do")

	press(t, m, "r")
	assert.Equal(t, []string{"b", "a", "c"}, m.session.SongIDs())
	assert.True(t, m.session.Dirty())
	assert.Contains(t, m.View(), "Mix *")
}

func TestEditor_CursorAndMoveUp(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	press(t, m, "k")
	assert.Equal(t, 0, m.cursor)
	press(t, m, "K")
	assert.Equal(t, []string{"a", "b", "c"}, m.session.SongIDs(), "moving the first song up is ignored")

	press(t, m, "j", "j", "j")
	assert.Equal(t, 2, m.cursor)
	press(t, m, "K")
	assert.Equal(t, []string{"a", "c", "b"}, m.session.SongIDs())
	assert.Equal(t, 1, m.cursor)
}

func TestEditor_RemoveClampsCursor(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	press(t, m, "j", "j", "d")
	assert.Equal(t, []string{"a", "b"}, m.session.SongIDs())
	assert.Equal(t, 1, m.cursor)

	press(t, m, "d", "d")
	assert.Empty(t, m.session.SongIDs())
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "No songs yet")

	press(t, m, "d")
	assert.Empty(t, m.session.SongIDs())
}

func TestEditor_AddFromPicker(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	press(t, m, "a")
	require.Equal(t, PickerView, m.view)

	m.picker.Select(3)
	press(t, m, "enter")

	assert.Equal(t, EditorView, m.view)
	assert.Equal(t, []string{"a", "d", "b", "c"}, m.session.SongIDs())
	assert.Equal(t, 1, m.cursor)

	press(t, m, "a", "esc")
	assert.Equal(t, EditorView, m.view)
	assert.Len(t, m.session.SongIDs(), 4)
}

func TestEditor_AddToEmptyPlaylist(t *testing.T) {
	backend := newBackend()
	m := NewModel(context.Background(), backend, transactions.NewSession(&tu.StubFlusher{}), "p2", "u2")
	run(t, m, m.Init())

	press(t, m, "a")
	m.picker.Select(0)
	press(t, m, "enter")
	assert.Equal(t, []string{"a"}, m.session.SongIDs())
	assert.Equal(t, 0, m.cursor)
}

func TestEditor_Save(t *testing.T) {
	flusher := &tu.StubFlusher{}
	m := openEditor(t, flusher)

	press(t, m, "J")
	cmd := press(t, m, "s")
	require.NotNil(t, cmd)
	assert.True(t, m.saving)

	press(t, m, "J")
	assert.Equal(t, []string{"b", "a", "c"}, m.session.SongIDs(), "edits are ignored while saving")

	run(t, m, cmd)
	assert.False(t, m.saving)
	assert.Equal(t, "saved", m.status)
	require.Len(t, flusher.Calls, 1)
	assert.Equal(t, []string{"b", "a", "c"}, flusher.Calls[0])
	assert.False(t, m.session.Dirty())
	assert.True(t, m.session.CanUndo(), "history survives a save")
}

func TestEditor_CloseWaitsForPendingSave(t *testing.T) {
	flusher := &tu.StubFlusher{}
	m := openEditor(t, flusher)

	press(t, m, "J")
	cmd := press(t, m, "s")
	require.NotNil(t, cmd)

	assert.Nil(t, press(t, m, "esc", "esc"))
	assert.True(t, m.session.IsOpen(), "close is held until the save lands")
	assert.True(t, m.saving)

	run(t, m, cmd)
	assert.False(t, m.saving)
	assert.True(t, m.session.IsOpen())
	assert.False(t, m.session.Dirty())
	assert.Equal(t, [][]string{{"b", "a", "c"}}, flusher.Calls)

	require.NotNil(t, press(t, m, "esc"))
	assert.False(t, m.session.IsOpen())
}

func TestEditor_SaveFailure(t *testing.T) {
	flusher := &tu.StubFlusher{Err: shared.ErrForbidden}
	m := openEditor(t, flusher)

	press(t, m, "d")
	run(t, m, press(t, m, "s"))

	assert.Contains(t, m.status, "save failed")
	assert.True(t, m.session.Dirty())
}

func TestEditor_CloseNeedsConfirmWhenDirty(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	press(t, m, "d")
	cmd := press(t, m, "esc")
	assert.Nil(t, cmd)
	assert.True(t, m.session.IsOpen())
	assert.Contains(t, m.status, "unsaved changes")

	cmd = press(t, m, "esc")
	require.NotNil(t, cmd)
	assert.False(t, m.session.IsOpen())
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestEditor_CloseClean(t *testing.T) {
	m := openEditor(t, &tu.StubFlusher{})

	cmd := press(t, m, "esc")
	require.NotNil(t, cmd)
	assert.False(t, m.session.IsOpen())
}

func TestEditor_LoadError(t *testing.T) {
	backend := newBackend()
	backend.getErr = shared.ErrNotFound
	m := NewModel(context.Background(), backend, transactions.NewSession(nil), "missing", "")

	_, cmd := m.Update(m.Init()())
	require.NotNil(t, cmd)
	assert.ErrorIs(t, m.err, shared.ErrNotFound)
	assert.Contains(t, m.View(), "Error")
}

func TestPlaylistList(t *testing.T) {
	m := NewModel(context.Background(), newBackend(), transactions.NewSession(&tu.StubFlusher{}), "", "u1")
	require.Equal(t, PlaylistListView, m.view)

	run(t, m, m.Init())
	require.True(t, ready(m.playlistList))
	items := m.playlistList.Items()
	require.Len(t, items, 1, "only owned playlists are listed")
	assert.Equal(t, "Mix", items[0].(list.DefaultItem).Title())

	run(t, m, press(t, m, "enter"))
	assert.Equal(t, EditorView, m.view)
	assert.Equal(t, "p1", m.session.Playlist().ID)

	cmd := press(t, m, "esc")
	assert.Equal(t, PlaylistListView, m.view)
	assert.False(t, m.session.IsOpen())
	run(t, m, cmd)
	assert.Len(t, m.playlistList.Items(), 1)
}
