package services

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/shared"
)

// AccountService implements [Accounts].
type AccountService struct {
	store      models.Store
	issuer     *auth.Issuer
	bcryptCost int
	logger     *log.Logger
}

// NewAccountService creates an [AccountService]. A nil issuer disables [AccountService.Login].
func NewAccountService(store models.Store, issuer *auth.Issuer, bcryptCost int, logger *log.Logger) *AccountService {
	return &AccountService{store: store, issuer: issuer, bcryptCost: bcryptCost, logger: newLogger(logger, "accounts")}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.store.Users().GetByEmail(ctx, in.Email); err == nil {
		return nil, errors.Wrapf(shared.ErrValidation, "an account with email %s already exists", in.Email)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, errors.Wrap(err, "failed to check email")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(in.Email, in.DisplayName, strings.TrimSpace(in.Avatar), hash)
	if err := s.store.Users().Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to create account")
	}

	s.logger.Info("account registered", "id", user.ID, "email", user.Email)
	return user, nil
}

// Login reports [shared.ErrInvalidCredentials] for both an unknown email and a wrong password.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	if err := validateInput(in); err != nil {
		return nil, "", err
	}
	if s.issuer == nil {
		return nil, "", errors.Wrap(shared.ErrMissingConfig, "no token issuer configured")
	}

	user, err := s.store.Users().GetByEmail(ctx, strings.TrimSpace(in.Email))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, "", shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to look up account")
	}
	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, "", shared.ErrInvalidCredentials
	}

	token, err := s.issuer.Sign(user.ID, user.Email)
	if err != nil {
		return nil, "", err
	}

	s.logger.Debug("login", "id", user.ID)
	return user, token, nil
}

func (s *AccountService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load account")
	}
	return user, nil
}

// UpdateAccount changes the account and, when the display name or avatar changed,
// refreshes the owner fields copied onto the user's playlists.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, patch AccountPatch) (*models.User, error) {
	if err := validateInput(patch); err != nil {
		return nil, err
	}

	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}

	ownerChanged := false
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return nil, errors.Wrap(shared.ErrValidation, "displayName is required")
		}
		ownerChanged = ownerChanged || name != user.DisplayName
		user.DisplayName = name
	}
	if patch.Avatar != nil {
		avatar := strings.TrimSpace(*patch.Avatar)
		ownerChanged = ownerChanged || avatar != user.Avatar
		user.Avatar = avatar
	}
	if patch.Password != nil {
		if patch.PasswordConfirm == nil || *patch.PasswordConfirm != *patch.Password {
			return nil, errors.Wrap(shared.ErrValidation, "passwordConfirm must match password")
		}
		hash, err := auth.HashPassword(*patch.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.store.Users().Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update account")
	}

	if ownerChanged {
		if err := s.refreshOwnerFields(ctx, user); err != nil {
			return nil, err
		}
	}

	s.logger.Info("account updated", "id", user.ID)
	return user, nil
}

func (s *AccountService) refreshOwnerFields(ctx context.Context, user *models.User) error {
	playlists, err := s.store.Playlists().List(ctx, map[string]any{"owner_id": user.ID})
	if err != nil {
		return errors.Wrap(err, "failed to list owned playlists")
	}
	for _, p := range playlists {
		p.SetOwner(user)
		if err := s.store.Playlists().Update(ctx, p); err != nil {
			return errors.Wrapf(err, "failed to refresh owner of playlist %s", p.ID)
		}
	}
	return nil
}
