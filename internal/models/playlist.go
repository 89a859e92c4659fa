package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// PlaylistSong is one ordered song reference within a playlist.
type PlaylistSong struct {
	SongID string `json:"songId"`
	Order  int    `json:"order"`
}

// Playlist is an ordered list of song references owned by one user.
//
// Owner display fields are denormalized copies of the owner's account.
// Listeners holds distinct user ids; the listener count derives from it.
type Playlist struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	OwnerID      string         `json:"ownerId"`
	OwnerEmail   string         `json:"ownerEmail"`
	OwnerName    string         `json:"ownerName"`
	OwnerAvatar  string         `json:"ownerAvatar"`
	Songs        []PlaylistSong `json:"songs"`
	Listeners    []string       `json:"listeners"`
	Plays        int            `json:"plays"`
	LastAccessed time.Time      `json:"lastAccessed"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// NewPlaylist creates an empty [Playlist] owned by owner.
func NewPlaylist(name string, owner *User) *Playlist {
	now := time.Now().UTC()
	p := &Playlist{
		Name:         strings.TrimSpace(name),
		Songs:        []PlaylistSong{},
		Listeners:    []string{},
		LastAccessed: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.SetOwner(owner)
	return p
}

func (p *Playlist) Key() string { return p.ID }

func (p *Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if p.OwnerID == "" {
		return fmt.Errorf("owner is required")
	}
	for i, s := range p.Songs {
		if s.SongID == "" {
			return fmt.Errorf("song at position %d has no id", i)
		}
	}
	return nil
}

// SetOwner copies the owner's id and display fields onto the playlist.
func (p *Playlist) SetOwner(owner *User) {
	if owner == nil {
		return
	}
	p.OwnerID = owner.ID
	p.OwnerEmail = owner.Email
	p.OwnerName = owner.DisplayName
	p.OwnerAvatar = owner.Avatar
}

// ListenerCount is the number of distinct listeners.
func (p *Playlist) ListenerCount() int { return len(p.Listeners) }

// HasListener reports whether userID has played this playlist.
func (p *Playlist) HasListener(userID string) bool {
	return slices.Contains(p.Listeners, userID)
}

// SongIDs returns the song ids in playlist order.
func (p *Playlist) SongIDs() []string {
	ids := make([]string, len(p.Songs))
	for i, s := range p.Songs {
		ids[i] = s.SongID
	}
	return ids
}

// Contains reports whether songID appears in the playlist.
func (p *Playlist) Contains(songID string) bool {
	for _, s := range p.Songs {
		if s.SongID == songID {
			return true
		}
	}
	return false
}

// RemoveSong drops every reference to songID and densifies. It reports whether anything was removed.
func (p *Playlist) RemoveSong(songID string) bool {
	kept := p.Songs[:0:0]
	for _, s := range p.Songs {
		if s.SongID != songID {
			kept = append(kept, s)
		}
	}
	removed := len(kept) != len(p.Songs)
	p.Songs = Densify(kept)
	return removed
}

// Clone returns a deep copy.
func (p *Playlist) Clone() *Playlist {
	c := *p
	c.Songs = slices.Clone(p.Songs)
	c.Listeners = slices.Clone(p.Listeners)
	if c.Songs == nil {
		c.Songs = []PlaylistSong{}
	}
	if c.Listeners == nil {
		c.Listeners = []string{}
	}
	return &c
}

// MarshalJSON adds the derived listenerCount field.
func (p Playlist) MarshalJSON() ([]byte, error) {
	type alias Playlist
	return json.Marshal(struct {
		alias
		ListenerCount int `json:"listenerCount"`
	}{alias: alias(p), ListenerCount: len(p.Listeners)})
}

// NewSongList builds a dense song list from ids in order.
func NewSongList(ids []string) []PlaylistSong {
	songs := make([]PlaylistSong, len(ids))
	for i, id := range ids {
		songs[i] = PlaylistSong{SongID: id, Order: i}
	}
	return songs
}

// Densify sorts songs by their order field (stable) and renumbers them 0..n-1.
func Densify(songs []PlaylistSong) []PlaylistSong {
	out := slices.Clone(songs)
	if out == nil {
		return []PlaylistSong{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	for i := range out {
		out[i].Order = i
	}
	return out
}

// IsDense reports whether orders are exactly 0..n-1 in sequence.
func IsDense(songs []PlaylistSong) bool {
	for i, s := range songs {
		if s.Order != i {
			return false
		}
	}
	return true
}
