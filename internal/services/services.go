package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/search"
	"github.com/desertthunder/playlister/internal/shared"
)

// Accounts handles registration, login, and account edits.
type Accounts interface {
	// Register creates an account. The email must be unused.
	Register(ctx context.Context, in RegisterInput) (*models.User, error)

	// Login checks credentials and returns the user with a session token.
	Login(ctx context.Context, in LoginInput) (*models.User, string, error)

	// Me returns the account of userID.
	Me(ctx context.Context, userID string) (*models.User, error)

	// UpdateAccount edits display name, avatar, or password.
	UpdateAccount(ctx context.Context, userID string, patch AccountPatch) (*models.User, error)
}

// Playlists handles the playlist lifecycle. Mutations check ownership against requesterID.
type Playlists interface {
	Create(ctx context.Context, ownerID, name string) (*models.Playlist, error)
	Get(ctx context.Context, id string) (*models.Playlist, error)

	// GetWithSongs returns the playlist and its resolved songs in order; missing songs are skipped.
	GetWithSongs(ctx context.Context, id string) (*models.Playlist, []*models.Song, error)
	List(ctx context.Context, criteria search.PlaylistCriteria) ([]*models.Playlist, error)
	Copy(ctx context.Context, id, requesterID string) (*models.Playlist, error)
	Update(ctx context.Context, id, requesterID string, patch PlaylistPatch) (*models.Playlist, error)
	Delete(ctx context.Context, id, requesterID string) error

	// Play counts a play. An empty requesterID is an anonymous listener.
	Play(ctx context.Context, id, requesterID string) (*models.Playlist, error)
}

// Songs handles the song catalog. Mutations check that requesterID added the song.
type Songs interface {
	Create(ctx context.Context, addedBy string, in SongInput) (*models.Song, error)
	Get(ctx context.Context, id string) (*models.Song, error)
	List(ctx context.Context, criteria search.SongCriteria) ([]*models.Song, error)
	Update(ctx context.Context, id, requesterID string, patch SongPatch) (*models.Song, error)

	// Delete removes the song from every playlist that references it, then deletes it.
	Delete(ctx context.Context, id, requesterID string) error
}

// RegisterInput is the body of a registration.
type RegisterInput struct {
	Email           string `json:"email" validate:"required,email"`
	DisplayName     string `json:"displayName" validate:"required"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Avatar          string `json:"avatar"`
}

// LoginInput is the body of a login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AccountPatch edits an account. Nil fields are left unchanged.
type AccountPatch struct {
	DisplayName     *string `json:"displayName,omitempty" validate:"omitempty,min=1"`
	Avatar          *string `json:"avatar,omitempty"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8"`
	PasswordConfirm *string `json:"passwordConfirm,omitempty"`
}

// PlaylistPatch edits a playlist. Songs is the complete new list of song ids.
type PlaylistPatch struct {
	Name  *string   `json:"name,omitempty"`
	Songs *[]string `json:"songs,omitempty"`
}

// SongInput is the body of a song creation.
type SongInput struct {
	Title    string `json:"title" validate:"required"`
	Artist   string `json:"artist" validate:"required"`
	Year     int    `json:"year" validate:"required"`
	VideoRef string `json:"videoRef"`
}

// SongPatch edits a song. Nil fields are left unchanged.
type SongPatch struct {
	Title    *string `json:"title,omitempty"`
	Artist   *string `json:"artist,omitempty"`
	Year     *int    `json:"year,omitempty"`
	VideoRef *string `json:"videoRef,omitempty"`
}

// Services bundles the three domain services over one store.
type Services struct {
	Accounts  *AccountService
	Playlists *PlaylistService
	Songs     *SongService
}

// New wires every service to store.
func New(store models.Store, issuer *auth.Issuer, cfg shared.AuthConfig, logger *log.Logger) *Services {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Services{
		Accounts:  NewAccountService(store, issuer, cfg.BcryptCost, logger),
		Playlists: NewPlaylistService(store, logger),
		Songs:     NewSongService(store, logger),
	}
}

var validate = validator.New()

// validateInput runs struct validation and reports failures as [shared.ErrValidation].
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrapf(shared.ErrValidation, "%v", err)
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Wrap(shared.ErrValidation, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is not a valid email"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "eqfield":
		return field + " must match " + lowerFirst(fe.Param())
	default:
		return field + " is invalid"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// checkYear enforces the release year range [1900, current year].
func checkYear(year int, now time.Time) error {
	if year < 1900 || year > now.UTC().Year() {
		return errors.WithHint(
			errors.Wrapf(shared.ErrValidation, "year %d out of range", year),
			"year must be between 1900 and the current year",
		)
	}
	return nil
}

func newLogger(logger *log.Logger, prefix string) *log.Logger {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return logger.WithPrefix(prefix)
}
