package models

import (
	"fmt"
	"strings"
	"time"
)

// User is an account. Email is unique under [FoldKey]; users are never hard-deleted.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Avatar       string    `json:"avatar"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// NewUser creates a [User] with creation timestamps set. The ID is assigned on persist.
func NewUser(email, displayName, avatar, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		Email:        strings.TrimSpace(email),
		DisplayName:  strings.TrimSpace(displayName),
		Avatar:       avatar,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u *User) Key() string { return u.ID }

func (u *User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if strings.TrimSpace(u.DisplayName) == "" {
		return fmt.Errorf("display name is required")
	}
	if u.PasswordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}
