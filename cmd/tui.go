package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/playlister/internal/shared"
	"github.com/desertthunder/playlister/internal/transactions"
	"github.com/desertthunder/playlister/internal/ui"
	"github.com/urfave/cli/v3"
)

// Edit launches the interactive playlist editor for the logged in user.
func (r *Runner) Edit(ctx context.Context, cmd *cli.Command) error {
	c, err := r.session()
	if err != nil {
		return err
	}

	me, err := c.Me(ctx)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, f, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer f.Close()
	fileLogger.SetLevel(r.logger.GetLevel())
	r.SetLogger(fileLogger)

	r.logger.Info("starting editor", "user", me.Email, "playlist", cmd.StringArg("playlist-id"))
	session := transactions.NewSession(c)
	if err := ui.Run(ctx, c, session, cmd.StringArg("playlist-id"), me.ID); err != nil {
		return fmt.Errorf("error running editor: %w", err)
	}
	return nil
}
