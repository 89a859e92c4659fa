package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/playlister/internal/shared"
)

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path, token string) error {
	path = shared.ExpandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// LoadToken reads a saved token. A missing file is [shared.ErrNotAuthenticated].
func LoadToken(path string) (string, error) {
	data, err := os.ReadFile(shared.ExpandHome(path))
	if errors.Is(err, os.ErrNotExist) {
		return "", shared.ErrNotAuthenticated
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", shared.ErrNotAuthenticated
	}
	return token, nil
}

// DeleteToken removes a saved token. Deleting a missing token is not an error.
func DeleteToken(path string) error {
	err := os.Remove(shared.ExpandHome(path))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}
