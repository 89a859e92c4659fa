// package models defines the data model for the playlist sharing service
package models

import (
	"context"
	"strings"

	"golang.org/x/text/cases"
)

// Model defines the base interface for all persistent models.
// Implementations are [User], [Song], and [Playlist].
type Model interface {
	Key() string     // Key returns the unique identifier for this model
	Validate() error // Validate checks if the model's data is structurally valid
}

// Repository defines the interface for data access operations.
// Implementations handle storage interactions for specific model types.
//
// Get, Update, and Delete report [shared.ErrNotFound] (wrapped) when no live record has the given id.
type Repository[T Model] interface {
	Create(ctx context.Context, model T) error                      // Create inserts a new model, assigning ID and timestamps when unset
	Get(ctx context.Context, id string) (T, error)                  // Get retrieves a model by its ID
	Update(ctx context.Context, model T) error                      // Update replaces the stored model
	Delete(ctx context.Context, id string) error                    // Delete removes a model by its ID
	List(ctx context.Context, criteria map[string]any) ([]T, error) // List retrieves models matching criteria in creation order
}

// UserRepository adds email lookups to user persistence.
//
// List criteria: "email" (string, folded match), "ids" ([]string).
type UserRepository interface {
	Repository[*User]
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// SongRepository adds counter maintenance to song persistence.
//
// List criteria: "added_by" (string), "year" (int), "ids" ([]string).
type SongRepository interface {
	Repository[*Song]
	// AddPlaylistCount adds delta to the membership counter of every song in ids.
	AddPlaylistCount(ctx context.Context, ids []string, delta int) error
	// AddListens adds delta to the listen counter of every song in ids.
	AddListens(ctx context.Context, ids []string, delta int) error
}

// PlaylistRepository is playlist persistence.
//
// List criteria: "owner_id" (string), "song_id" (string, playlists containing that song).
type PlaylistRepository interface {
	Repository[*Playlist]
}

// Store is the persistence adapter: one implementation per backing engine, chosen at startup.
type Store interface {
	Users() UserRepository
	Songs() SongRepository
	Playlists() PlaylistRepository
	Close(ctx context.Context) error
}

// FoldKey normalizes a name for comparison: surrounding whitespace trimmed, Unicode case folded.
func FoldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// SameName reports whether a and b are equal under [FoldKey].
func SameName(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

// ContainsFold reports whether substr occurs in s, ignoring case.
func ContainsFold(s, substr string) bool {
	return strings.Contains(FoldKey(s), FoldKey(substr))
}

// Distinct returns ids with duplicates removed, keeping first occurrences in order.
func Distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
