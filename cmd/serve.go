package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/playlister/internal/auth"
	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/server"
	"github.com/desertthunder/playlister/internal/services"
	"github.com/urfave/cli/v3"
)

// Serve opens the configured store and runs the API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		cfg.Port = port
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	issuer, err := auth.NewIssuer(r.config.Auth)
	if err != nil {
		return err
	}

	r.logger.Info("opening store", "driver", r.config.Database.Driver)
	store, err := repositories.Open(ctx, r.config.Database, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			r.logger.Warn("failed to close store", "error", err)
		}
	}()

	svc := services.New(store, issuer, r.config.Auth, r.logger)
	srv := server.New(cfg, server.Deps{
		Accounts:  svc.Accounts,
		Playlists: svc.Playlists,
		Songs:     svc.Songs,
		Issuer:    issuer,
		Logger:    r.logger,
	})

	return srv.ListenAndServe(ctx)
}
