package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/desertthunder/playlister/internal/transactions"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	EditorView
	PickerView
)

// Backend reads what the editor displays. The REST client satisfies it.
type Backend interface {
	ListPlaylists(ctx context.Context, criteria search.PlaylistCriteria) ([]*models.Playlist, error)
	GetPlaylist(ctx context.Context, id string) (*models.Playlist, []*models.Song, error)
	ListSongs(ctx context.Context, criteria search.SongCriteria) ([]*models.Song, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	backend Backend
	session *transactions.Session

	view       ViewState
	playlistID string // opened directly; esc quits instead of returning to the list
	ownerID    string

	width        int
	height       int
	playlistList list.Model
	picker       list.Model
	catalogReady bool
	songs        map[string]*models.Song

	cursor         int
	saving         bool
	confirmDiscard bool
	status         string
	statusStyle    statusKind
	err            error

	help help.Model
	keys keyMap
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusErr
)

// NewModel creates the editor. With a playlistID it opens that playlist directly; otherwise
// it lists the playlists owned by ownerID to choose from.
func NewModel(ctx context.Context, backend Backend, session *transactions.Session, playlistID, ownerID string) *Model {
	view := PlaylistListView
	if playlistID != "" {
		view = EditorView
	}
	return &Model{
		ctx:        ctx,
		backend:    backend,
		session:    session,
		view:       view,
		playlistID: playlistID,
		ownerID:    ownerID,
		songs:      make(map[string]*models.Song),
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Run starts the editor full screen and blocks until it exits.
func Run(ctx context.Context, backend Backend, session *transactions.Session, playlistID, ownerID string) error {
	model := NewModel(ctx, backend, session, playlistID, ownerID)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running editor: %w", err)
	}
	return model.err
}

// Init loads the playlist list or the requested playlist.
func (m *Model) Init() tea.Cmd {
	if m.playlistID != "" {
		return m.loadPlaylist(m.playlistID)
	}
	return m.fetchPlaylists()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if ready(m.playlistList) {
			m.playlistList.SetSize(msg.Width-4, msg.Height-6)
		}
		if ready(m.picker) {
			m.picker.SetSize(msg.Width-4, msg.Height-6)
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case EditorView:
			return m.handleEditorKeys(msg)
		case PickerView:
			return m.handlePickerKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPlaylistsFetched:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := []list.Item{}
		for _, p := range msg.data.([]*models.Playlist) {
			if m.ownerID == "" || p.OwnerID == m.ownerID {
				items = append(items, playlistItem{playlist: p})
			}
		}
		m.playlistList = newList(items, "Your Playlists", m.width, m.height)
		return m, nil

	case MsgPlaylistLoaded:
		if msg.err != nil {
			m.err = msg.err
			if m.playlistID != "" {
				return m, tea.Quit
			}
			m.view = PlaylistListView
			return m, nil
		}
		loaded := msg.data.(loadedPlaylist)
		for _, s := range loaded.songs {
			m.songs[s.ID] = s
		}
		m.session.Open(loaded.playlist)
		m.cursor = 0
		m.confirmDiscard = false
		m.setStatus(statusInfo, "")
		m.view = EditorView
		if !m.catalogReady {
			return m, m.fetchCatalog()
		}
		return m, nil

	case MsgCatalogFetched:
		if msg.err != nil {
			m.setStatus(statusWarn, fmt.Sprintf("catalog unavailable: %v", msg.err))
			return m, nil
		}
		songs := msg.data.([]*models.Song)
		items := make([]list.Item, len(songs))
		for i, s := range songs {
			m.songs[s.ID] = s
			items[i] = songItem{song: s}
		}
		m.picker = newList(items, "Add a song", m.width, m.height)
		m.catalogReady = true
		return m, nil

	case MsgSaved:
		m.saving = false
		if msg.err != nil {
			m.setStatus(statusErr, fmt.Sprintf("save failed: %v", msg.err))
			return m, nil
		}
		saved := msg.data.(savedPlaylist)
		m.session.Saved(saved.request, saved.playlist)
		m.setStatus(statusOK, "saved")
		return m, nil
	}
	return m, nil
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		return m.updateLists(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.err = nil
			return m, m.loadPlaylist(pl.playlist.ID)
		}
		return m, nil
	}
	return m.updateLists(msg)
}

func (m *Model) handleEditorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.session.IsOpen() {
		if key.Matches(msg, m.keys.quit, m.keys.back) {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.saving {
		m.setStatus(statusInfo, "saving...")
		return m, nil
	}

	if key.Matches(msg, m.keys.back, m.keys.quit) {
		return m.close()
	}
	m.confirmDiscard = false

	n := len(m.session.Songs())
	var err error

	switch {
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.down):
		if m.cursor < n-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.cursor == 0 {
			return m, nil
		}
		if err = m.session.Move(m.cursor, m.cursor-1); err == nil {
			m.cursor--
		}
	case key.Matches(msg, m.keys.moveDown):
		if m.cursor >= n-1 {
			return m, nil
		}
		if err = m.session.Move(m.cursor, m.cursor+1); err == nil {
			m.cursor++
		}
	case key.Matches(msg, m.keys.remove):
		if n == 0 {
			return m, nil
		}
		err = m.session.Remove(m.cursor)
	case key.Matches(msg, m.keys.add):
		if !m.catalogReady {
			m.setStatus(statusWarn, "catalog is still loading")
			return m, nil
		}
		m.view = PickerView
		return m, nil
	case key.Matches(msg, m.keys.undo):
		var cmd transactions.Command
		if cmd, err = m.session.Undo(); err == nil {
			m.setStatus(statusInfo, "undid "+cmd.String())
		}
	case key.Matches(msg, m.keys.redo):
		var cmd transactions.Command
		if cmd, err = m.session.Redo(); err == nil {
			m.setStatus(statusInfo, "redid "+cmd.String())
		}
	case key.Matches(msg, m.keys.save):
		req, err := m.session.PrepareSave()
		if err != nil {
			m.setStatus(statusErr, err.Error())
			return m, nil
		}
		m.saving = true
		m.setStatus(statusInfo, "saving...")
		return m, m.save(req)
	default:
		return m, nil
	}

	if err != nil {
		if errors.Is(err, shared.ErrNoOp) {
			m.setStatus(statusWarn, "nothing to do")
		} else {
			m.setStatus(statusErr, err.Error())
		}
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) handlePickerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.quit):
		m.view = EditorView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		item, ok := m.picker.SelectedItem().(songItem)
		if !ok {
			return m, nil
		}
		at := 0
		if len(m.session.Songs()) > 0 {
			at = m.cursor + 1
		}
		if err := m.session.Add(item.song.ID, at); err != nil {
			m.setStatus(statusErr, err.Error())
		} else {
			m.cursor = at
			m.setStatus(statusInfo, "added "+item.song.Title)
		}
		m.view = EditorView
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// close leaves the editor. Unsaved edits need a second press to discard.
func (m *Model) close() (tea.Model, tea.Cmd) {
	if m.session.Dirty() && !m.confirmDiscard {
		m.confirmDiscard = true
		m.setStatus(statusWarn, "unsaved changes, press esc again to discard")
		return m, nil
	}

	m.session.Close()
	m.confirmDiscard = false
	m.setStatus(statusInfo, "")
	if m.playlistID != "" {
		return m, tea.Quit
	}
	m.view = PlaylistListView
	return m, m.fetchPlaylists()
}

func (m *Model) clampCursor() {
	n := len(m.session.Songs())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusStyle = kind
	m.status = text
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.view == PlaylistListView && ready(m.playlistList):
		m.playlistList, cmd = m.playlistList.Update(msg)
	case m.view == PickerView && ready(m.picker):
		m.picker, cmd = m.picker.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.backend.ListPlaylists(m.ctx, search.PlaylistCriteria{})
		return playlistsFetchedMsg(playlists, err)
	}
}

func (m *Model) loadPlaylist(id string) tea.Cmd {
	return func() tea.Msg {
		p, songs, err := m.backend.GetPlaylist(m.ctx, id)
		return playlistLoadedMsg(p, songs, err)
	}
}

func (m *Model) fetchCatalog() tea.Cmd {
	return func() tea.Msg {
		songs, err := m.backend.ListSongs(m.ctx, search.SongCriteria{SortBy: search.SortTitle, SortOrder: search.Asc})
		return catalogFetchedMsg(songs, err)
	}
}

// save flushes req off the update loop; the session is only touched when [MsgSaved] arrives.
func (m *Model) save(req transactions.SaveRequest) tea.Cmd {
	return func() tea.Msg {
		p, err := req.Do(m.ctx)
		return savedMsg(req, p, err)
	}
}

// ready reports whether l was built by newList; the zero list.Model cannot be updated.
func ready(l list.Model) bool { return l.Title != "" }

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), max(width-4, 0), max(height-6, 0))
	l.Title = title
	l.DisableQuitKeybindings()
	return l
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != PlaylistListView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case EditorView:
		return m.renderEditor()
	case PickerView:
		return m.renderPicker()
	default:
		return ""
	}
}

func (m *Model) renderPlaylistList() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	body := m.playlistList.View()
	if m.err != nil {
		body = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\n" + body
	}
	return fmt.Sprintf("%s\n\n%s", body, helpView)
}

func (m *Model) renderEditor() string {
	p := m.session.Playlist()
	if p == nil {
		return styles.help.Render("Loading playlist...")
	}

	name := p.Name
	if m.session.Dirty() {
		name += " *"
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(name))
	b.WriteString("\n")

	songs := m.session.Songs()
	if len(songs) == 0 {
		b.WriteString(styles.help.Render("No songs yet. Press a to add one."))
		b.WriteString("\n")
	}
	for i, ps := range songs {
		line := fmt.Sprintf("%2d. %s", i+1, m.describe(ps.SongID))
		if i == m.cursor {
			b.WriteString(styles.selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.renderStatus())
		b.WriteString("\n")
	}

	bindings := []key.Binding{m.keys.moveUp, m.keys.moveDown, m.keys.add, m.keys.remove}
	if m.session.CanUndo() {
		bindings = append(bindings, m.keys.undo)
	}
	if m.session.CanRedo() {
		bindings = append(bindings, m.keys.redo)
	}
	bindings = append(bindings, m.keys.save, m.keys.back)

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}

func (m *Model) renderPicker() string {
	back := key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, back})
	return fmt.Sprintf("%s\n\n%s", m.picker.View(), helpView)
}

func (m *Model) renderStatus() string {
	switch m.statusStyle {
	case statusOK:
		return styles.ok.Render(m.status)
	case statusWarn:
		return styles.warn.Render(m.status)
	case statusErr:
		return styles.err.Render(m.status)
	default:
		return styles.help.Render(m.status)
	}
}

func (m *Model) describe(songID string) string {
	s, ok := m.songs[songID]
	if !ok {
		return songID
	}
	return fmt.Sprintf("%s - %s (%d)", s.Title, s.Artist, s.Year)
}
