package main

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"fincentiva-api/repository"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			dsn, source, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := repository.RunMigrations(dsn, source); err != nil {
				return err
			}
			slog.Info("migrations applied", "source", source)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Revert every migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			dsn, source, err := migrationTarget()
			if err != nil {
				return err
			}
			if err := repository.RollbackMigrations(dsn, source); err != nil {
				return err
			}
			slog.Info("migrations reverted", "source", source)
			return nil
		},
	})

	return cmd
}

func migrationTarget() (dsn, source string, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", "", err
	}
	if cfg.Database.URL == "" {
		return "", "", errors.New("database.url is required to run migrations")
	}
	return cfg.Database.URL, migrationSource(cfg.Database.Migrations), nil
}

// migrationSource accepts a plain directory or a full migrate source URL.
func migrationSource(dir string) string {
	if strings.Contains(dir, "://") {
		return dir
	}
	return "file://" + dir
}
