package models

import (
	"fmt"
	"strings"
	"time"
)

// Song is a catalog entry. No two songs share the same (title, artist, year) under [FoldKey].
type Song struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Artist        string    `json:"artist"`
	Year          int       `json:"year"`
	VideoRef      string    `json:"videoRef"`
	AddedBy       string    `json:"addedBy"`
	Listens       int       `json:"listens"`
	PlaylistCount int       `json:"playlistCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewSong creates a [Song] with zeroed counters and creation timestamps set.
func NewSong(addedBy, title, artist string, year int, videoRef string) *Song {
	now := time.Now().UTC()
	return &Song{
		Title:     strings.TrimSpace(title),
		Artist:    strings.TrimSpace(artist),
		Year:      year,
		VideoRef:  strings.TrimSpace(videoRef),
		AddedBy:   addedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Song) Key() string { return s.ID }

func (s *Song) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if strings.TrimSpace(s.Artist) == "" {
		return fmt.Errorf("artist is required")
	}
	if s.AddedBy == "" {
		return fmt.Errorf("added by is required")
	}
	return nil
}

// SameTriple reports whether s and other collide on (title, artist, year).
func (s *Song) SameTriple(title, artist string, year int) bool {
	return s.Year == year && SameName(s.Title, title) && SameName(s.Artist, artist)
}
