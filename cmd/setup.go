package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/irx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file when missing, opens the token database, and
// runs migrations so `auth login` has a place to persist the session.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing token database", "path", config.Database.Path)

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.writePlain("✓ Setup complete\n")
	r.writePlain("  Config: %s\n", configPath)
	r.writePlain("  Database: %s\n", config.Database.Path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Edit %s with your OAuth client_id\n", configPath)
	r.writePlain("2. Run 'irx auth login' to authorize\n")

	return nil
}
