// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
)

// NewStore opens an in-memory SQLite store with migrations applied.
func NewStore(t *testing.T) *repositories.SQLiteStore {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return repositories.NewSQLiteStore(db)
}

// SeedUser inserts a user with a placeholder password hash.
func SeedUser(t *testing.T, store models.Store, email, name string) *models.User {
	t.Helper()
	user := models.NewUser(email, name, "", "hash")
	if err := store.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return user
}

// SeedSong inserts a song added by addedBy.
func SeedSong(t *testing.T, store models.Store, addedBy, title, artist string, year int) *models.Song {
	t.Helper()
	song := models.NewSong(addedBy, title, artist, year, "vid-"+title)
	if err := store.Songs().Create(context.Background(), song); err != nil {
		t.Fatalf("failed to seed song %s: %v", title, err)
	}
	return song
}

// SeedPlaylist inserts a playlist without touching song counters.
func SeedPlaylist(t *testing.T, store models.Store, owner *models.User, name string, songIDs ...string) *models.Playlist {
	t.Helper()
	p := models.NewPlaylist(name, owner)
	p.Songs = models.NewSongList(songIDs)
	if err := store.Playlists().Create(context.Background(), p); err != nil {
		t.Fatalf("failed to seed playlist %s: %v", name, err)
	}
	return p
}

// MustSong reloads a song.
func MustSong(t *testing.T, store models.Store, id string) *models.Song {
	t.Helper()
	song, err := store.Songs().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get song %s: %v", id, err)
	}
	return song
}

// MustPlaylist reloads a playlist.
func MustPlaylist(t *testing.T, store models.Store, id string) *models.Playlist {
	t.Helper()
	p, err := store.Playlists().Get(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get playlist %s: %v", id, err)
	}
	return p
}

// StubFlusher records every flushed song list.
type StubFlusher struct {
	mu    sync.Mutex
	Calls [][]string
	Err   error
}

func (f *StubFlusher) UpdatePlaylistSongs(_ context.Context, id string, songIDs []string) (*models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.Calls = append(f.Calls, songIDs)
	return &models.Playlist{ID: id, Songs: models.NewSongList(songIDs)}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
