package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/ikigai/internal/config"
	"github.com/nextlevelbuilder/ikigai/internal/migrate"
	"github.com/nextlevelbuilder/ikigai/internal/store/pg"
)

var migrationsDir string

func resolveMigrationsDir() string {
	if migrationsDir != "" {
		return migrationsDir
	}
	if v := os.Getenv("IKIGAI_MIGRATIONS_DIR"); v != "" {
		return v
	}
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveDataDir())
			if err != nil {
				return err
			}

			db, err := pg.OpenDB(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer db.Close()

			applied, err := migrate.Up(cmd.Context(), db, resolveMigrationsDir())
			if err != nil {
				return fmt.Errorf("migrate up: %w", err)
			}

			if len(applied) == 0 {
				slog.Info("no pending migrations")
				return nil
			}
			for _, f := range applied {
				slog.Info("applied migration", "file", f)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&migrationsDir, "migrations-dir", "", "path to migrations directory (default: ./migrations next to the binary)")
	return cmd
}
