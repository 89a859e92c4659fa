// Package search filters and orders playlists and songs.
//
// Criteria are sparse: an empty field imposes no constraint. Text filters are
// case-insensitive substring matches and the year filter is exact. A playlist
// matches the song filters when at least one of its songs matches all of them.
//
// Sorting uses one key and is stable. String keys compare with a case-insensitive
// collator and numeric keys compare numerically. The default direction is descending.
package search

import (
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// Order is a sort direction.
type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// Playlist sort keys.
const (
	SortListeners = "listeners"
	SortPlays     = "plays"
	SortName      = "name"
	SortUserName  = "userName"
)

// Song sort keys.
const (
	SortListens       = "listens"
	SortPlaylistCount = "playlists"
	SortTitle         = "title"
	SortArtist        = "artist"
	SortYear          = "year"
)

var validate = validator.New()

// PlaylistCriteria filters and orders playlists.
type PlaylistCriteria struct {
	PlaylistName string `query:"playlistName" json:"playlistName,omitempty"`
	UserName     string `query:"userName" json:"userName,omitempty"`
	SongTitle    string `query:"songTitle" json:"songTitle,omitempty"`
	SongArtist   string `query:"songArtist" json:"songArtist,omitempty"`
	SongYear     int    `query:"songYear" json:"songYear,omitempty" validate:"gte=0"`
	SortBy       string `query:"sortBy" json:"sortBy,omitempty" validate:"omitempty,oneof=listeners plays name userName"`
	SortOrder    Order  `query:"sortOrder" json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// SongFilter returns the song-level part of c.
func (c PlaylistCriteria) SongFilter() SongCriteria {
	return SongCriteria{Title: c.SongTitle, Artist: c.SongArtist, Year: c.SongYear}
}

// Values encodes c as query parameters, omitting empty fields.
func (c PlaylistCriteria) Values() url.Values {
	v := url.Values{}
	setString(v, "playlistName", c.PlaylistName)
	setString(v, "userName", c.UserName)
	setString(v, "songTitle", c.SongTitle)
	setString(v, "songArtist", c.SongArtist)
	setInt(v, "songYear", c.SongYear)
	setString(v, "sortBy", c.SortBy)
	setString(v, "sortOrder", string(c.SortOrder))
	return v
}

// SongCriteria filters and orders songs.
type SongCriteria struct {
	Title     string `query:"title" json:"title,omitempty"`
	Artist    string `query:"artist" json:"artist,omitempty"`
	Year      int    `query:"year" json:"year,omitempty" validate:"gte=0"`
	SortBy    string `query:"sortBy" json:"sortBy,omitempty" validate:"omitempty,oneof=listens playlists title artist year"`
	SortOrder Order  `query:"sortOrder" json:"sortOrder,omitempty" validate:"omitempty,oneof=asc desc"`
}

// Empty reports whether c carries no filter.
func (c SongCriteria) Empty() bool {
	return c.Title == "" && c.Artist == "" && c.Year == 0
}

// Values encodes c as query parameters, omitting empty fields.
func (c SongCriteria) Values() url.Values {
	v := url.Values{}
	setString(v, "title", c.Title)
	setString(v, "artist", c.Artist)
	setInt(v, "year", c.Year)
	setString(v, "sortBy", c.SortBy)
	setString(v, "sortOrder", string(c.SortOrder))
	return v
}

// ParsePlaylistCriteria decodes playlist criteria from query parameters.
func ParsePlaylistCriteria(values url.Values) (PlaylistCriteria, error) {
	var c PlaylistCriteria
	if err := decode(values, &c); err != nil {
		return PlaylistCriteria{}, err
	}
	return c, nil
}

// ParseSongCriteria decodes song criteria from query parameters.
func ParseSongCriteria(values url.Values) (SongCriteria, error) {
	var c SongCriteria
	if err := decode(values, &c); err != nil {
		return SongCriteria{}, err
	}
	return c, nil
}

func decode(values url.Values, out any) error {
	input := make(map[string]any, len(values))
	for key, vals := range values {
		if v := strings.TrimSpace(firstValue(vals)); v != "" {
			input[key] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "query",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, "failed to build criteria decoder")
	}
	if err := decoder.Decode(input); err != nil {
		return errors.Wrapf(shared.ErrValidation, "invalid search criteria: %v", err)
	}
	if err := validate.Struct(out); err != nil {
		return errors.WithHint(
			errors.Wrapf(shared.ErrValidation, "invalid search criteria: %v", err),
			"sortOrder is asc or desc; sortBy names a supported key",
		)
	}
	return nil
}

// MatchSong reports whether song satisfies every set filter in c.
func MatchSong(song *models.Song, c SongCriteria) bool {
	if song == nil {
		return false
	}
	if c.Title != "" && !models.ContainsFold(song.Title, c.Title) {
		return false
	}
	if c.Artist != "" && !models.ContainsFold(song.Artist, c.Artist) {
		return false
	}
	if c.Year != 0 && song.Year != c.Year {
		return false
	}
	return true
}

// MatchPlaylist reports whether p satisfies c. songs resolves the playlist's song ids;
// references missing from it never match a song filter.
func MatchPlaylist(p *models.Playlist, songs map[string]*models.Song, c PlaylistCriteria) bool {
	if c.PlaylistName != "" && !models.ContainsFold(p.Name, c.PlaylistName) {
		return false
	}
	if c.UserName != "" && !models.ContainsFold(p.OwnerName, c.UserName) {
		return false
	}

	filter := c.SongFilter()
	if filter.Empty() {
		return true
	}
	for _, id := range p.SongIDs() {
		if MatchSong(songs[id], filter) {
			return true
		}
	}
	return false
}

// FilterPlaylists returns the playlists matching c, in their original order.
func FilterPlaylists(playlists []*models.Playlist, songs map[string]*models.Song, c PlaylistCriteria) []*models.Playlist {
	out := make([]*models.Playlist, 0, len(playlists))
	for _, p := range playlists {
		if MatchPlaylist(p, songs, c) {
			out = append(out, p)
		}
	}
	return out
}

// FilterSongs returns the songs matching c, in their original order.
func FilterSongs(songs []*models.Song, c SongCriteria) []*models.Song {
	out := make([]*models.Song, 0, len(songs))
	for _, s := range songs {
		if MatchSong(s, c) {
			out = append(out, s)
		}
	}
	return out
}

// SortPlaylists stably orders playlists in place by key. An empty key leaves the order unchanged.
func SortPlaylists(playlists []*models.Playlist, key string, order Order) error {
	var cmp func(a, b *models.Playlist) int
	switch key {
	case "":
		return nil
	case SortListeners:
		cmp = func(a, b *models.Playlist) int { return a.ListenerCount() - b.ListenerCount() }
	case SortPlays:
		cmp = func(a, b *models.Playlist) int { return a.Plays - b.Plays }
	case SortName:
		col := newCollator()
		cmp = func(a, b *models.Playlist) int { return col.CompareString(a.Name, b.Name) }
	case SortUserName:
		col := newCollator()
		cmp = func(a, b *models.Playlist) int { return col.CompareString(a.OwnerName, b.OwnerName) }
	default:
		return errors.Wrapf(shared.ErrValidation, "unknown playlist sort key %q", key)
	}
	slices.SortStableFunc(playlists, directed(cmp, order))
	return nil
}

// SortSongs stably orders songs in place by key. An empty key leaves the order unchanged.
func SortSongs(songs []*models.Song, key string, order Order) error {
	var cmp func(a, b *models.Song) int
	switch key {
	case "":
		return nil
	case SortListens:
		cmp = func(a, b *models.Song) int { return a.Listens - b.Listens }
	case SortPlaylistCount:
		cmp = func(a, b *models.Song) int { return a.PlaylistCount - b.PlaylistCount }
	case SortYear:
		cmp = func(a, b *models.Song) int { return a.Year - b.Year }
	case SortTitle:
		col := newCollator()
		cmp = func(a, b *models.Song) int { return col.CompareString(a.Title, b.Title) }
	case SortArtist:
		col := newCollator()
		cmp = func(a, b *models.Song) int { return col.CompareString(a.Artist, b.Artist) }
	default:
		return errors.Wrapf(shared.ErrValidation, "unknown song sort key %q", key)
	}
	slices.SortStableFunc(songs, directed(cmp, order))
	return nil
}

// Playlists filters then sorts.
func Playlists(playlists []*models.Playlist, songs map[string]*models.Song, c PlaylistCriteria) ([]*models.Playlist, error) {
	out := FilterPlaylists(playlists, songs, c)
	if err := SortPlaylists(out, c.SortBy, c.SortOrder); err != nil {
		return nil, err
	}
	return out, nil
}

// Songs filters then sorts.
func Songs(songs []*models.Song, c SongCriteria) ([]*models.Song, error) {
	out := FilterSongs(songs, c)
	if err := SortSongs(out, c.SortBy, c.SortOrder); err != nil {
		return nil, err
	}
	return out, nil
}

// newCollator is created per sort; a Collator is not safe for concurrent use.
func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

func directed[T any](cmp func(a, b T) int, order Order) func(a, b T) int {
	if order == Asc {
		return cmp
	}
	return func(a, b T) int { return -cmp(a, b) }
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0]
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setInt(v url.Values, key string, value int) {
	if value != 0 {
		v.Set(key, strconv.Itoa(value))
	}
}
