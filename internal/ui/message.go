package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/transactions"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPlaylistsFetched MsgKind = iota
	MsgPlaylistLoaded
	MsgCatalogFetched
	MsgSaved
)

type loadedPlaylist struct {
	playlist *models.Playlist
	songs    []*models.Song
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []*models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlists, err: err}
}

// playlistLoadedMsg is the constructor for [MsgPlaylistLoaded]
func playlistLoadedMsg(p *models.Playlist, songs []*models.Song, err error) Msg {
	return Msg{kind: MsgPlaylistLoaded, data: loadedPlaylist{playlist: p, songs: songs}, err: err}
}

// catalogFetchedMsg is the constructor for [MsgCatalogFetched]
func catalogFetchedMsg(songs []*models.Song, err error) Msg {
	return Msg{kind: MsgCatalogFetched, data: songs, err: err}
}

type savedPlaylist struct {
	request  transactions.SaveRequest
	playlist *models.Playlist
}

// savedMsg is the constructor for [MsgSaved]
func savedMsg(req transactions.SaveRequest, p *models.Playlist, err error) Msg {
	return Msg{kind: MsgSaved, data: savedPlaylist{request: req, playlist: p}, err: err}
}
