package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/playlister/internal/repositories"
	"github.com/desertthunder/playlister/internal/shared"
	"github.com/urfave/cli/v3"
)

// loadOrCreateConfig reads the config at path, writing the example config there first if it is missing.
func (r *Runner) loadOrCreateConfig(path string) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		r.logger.Info("config file not found, creating from template", "path", path)
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			return shared.DefaultConfig()
		}
		r.logger.Info("config file created", "path", path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("failed to load config, using defaults", "error", err)
		return shared.DefaultConfig()
	}
	return config
}

// SetupDatabase initializes the configured store. For SQLite it also reports or rolls back migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadOrCreateConfig(cmd.String("config"))

	if config.Database.Driver != "sqlite" {
		r.logger.Info("preparing store", "driver", config.Database.Driver)
		store, err := repositories.Open(ctx, config.Database, r.logger)
		if err != nil {
			return fmt.Errorf("failed to prepare %s store: %w", config.Database.Driver, err)
		}
		defer store.Close(ctx)
		return r.writePlain("✓ %s store ready\n", config.Database.Driver)
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	switch {
	case cmd.Bool("rollback"):
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ rolled back latest migration\n")
	case cmd.Bool("status"):
		statuses, err := shared.MigrationsStatus(db)
		if err != nil {
			return fmt.Errorf("failed to read migration status: %w", err)
		}
		r.writePlainHeader("Migrations")
		for _, s := range statuses {
			mark := " "
			if s.Applied {
				mark = "✓"
			}
			r.writePlain("[%s] %03d %s\n", mark, s.Version, s.Name)
		}
		return nil
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writePlain("✓ database ready at %s\n", config.Database.Path)
}

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ configuration written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set auth.jwt_secret (or PLAYLISTER_JWT_SECRET) to a long random value\n")
	r.writePlain("2. Run 'playlister setup database' and then 'playlister serve'\n")
	return nil
}
