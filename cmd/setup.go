package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/gmusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writeOK("Config written to %s", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.client_id and credentials.client_secret (or GMUSIC_CLIENT_ID / GMUSIC_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'gmusic login' to authorize this client\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	r.logger.Info("initializing database", "path", config.Database.Path)

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
	version, err := shared.SchemaVersion(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return r.writeOK("Database ready at %s (schema version %d)", config.Database.Path, version)
}

// loadConfig reads configPath when it differs from the runner's own config file, falling
// back to the runner's config when it is missing or invalid.
func (r *Runner) loadConfig(configPath string) *shared.Config {
	if configPath == "" || configPath == r.configPath {
		return r.config
	}
	if _, err := os.Stat(configPath); err != nil {
		r.logger.Warn("config file not found, using current config", "path", configPath)
		return r.config
	}

	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load config, using current config", "error", err)
		return r.config
	}
	config.ApplyEnv()
	return config
}

func setupCommand(r *Runner) *cli.Command {
	configFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   defaultConfigPath,
		}
	}

	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file or initialize the track cache database",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Create the database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}
