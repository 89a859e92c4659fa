package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/client"
	"github.com/desertthunder/playlister/internal/models"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthRegister creates an account on the server.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	confirm := cmd.String("password-confirm")
	if confirm == "" {
		confirm = password
	}

	user, err := r.api.Register(ctx, services.RegisterInput{
		Email:           cmd.String("email"),
		DisplayName:     cmd.String("name"),
		Password:        password,
		PasswordConfirm: confirm,
		Avatar:          cmd.String("avatar"),
	})
	if err != nil {
		return err
	}
	r.logger.Info("registered account", "email", user.Email)

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Registered %s\n", user.Email)
	return r.writePlain("Log in with 'playlister auth login --email %s --password ...'\n", user.Email)
}

// AuthLogin exchanges credentials for a session token and saves it to the configured token file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	user, token, err := r.api.Login(ctx, cmd.String("email"), cmd.String("password"))
	if err != nil {
		return err
	}

	path := r.config.Client.TokenFile
	if err := client.SaveToken(path, token); err != nil {
		return err
	}
	r.logger.Debug("session token saved", "path", path)

	return r.writePlain("✓ Logged in as %s (%s)\n", user.DisplayName, user.Email)
}

// AuthMe shows the account the saved session belongs to.
func (r *Runner) AuthMe(ctx context.Context, cmd *cli.Command) error {
	c, err := r.session()
	if err != nil {
		return err
	}

	user, err := c.Me(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.printUser(user)
	return nil
}

// AuthUpdate edits the logged in account. Only the given flags change.
func (r *Runner) AuthUpdate(ctx context.Context, cmd *cli.Command) error {
	c, err := r.session()
	if err != nil {
		return err
	}

	var patch services.AccountPatch
	if cmd.IsSet("name") {
		name := cmd.String("name")
		patch.DisplayName = &name
	}
	if cmd.IsSet("avatar") {
		avatar := cmd.String("avatar")
		patch.Avatar = &avatar
	}
	if cmd.IsSet("password") {
		password := cmd.String("password")
		confirm := cmd.String("password-confirm")
		if confirm == "" {
			confirm = password
		}
		patch.Password = &password
		patch.PasswordConfirm = &confirm
	}
	if patch.DisplayName == nil && patch.Avatar == nil && patch.Password == nil {
		return fmt.Errorf("%w: one of --name, --avatar, or --password is required", shared.ErrMissingArgument)
	}

	user, err := c.UpdateAccount(ctx, patch)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.writePlain("✓ Account updated\n\n")
	r.printUser(user)
	return nil
}

// AuthLogout removes the saved session token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := client.DeleteToken(r.config.Client.TokenFile); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

func (r *Runner) printUser(u *models.User) {
	r.writePlain("Name: %s\n", u.DisplayName)
	r.writePlain("Email: %s\n", u.Email)
	if u.Avatar != "" {
		r.writePlain("Avatar: %s\n", u.Avatar)
	}
	r.writePlain("ID: %s\n", u.ID)
}
