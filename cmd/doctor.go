package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/ikigai/internal/config"
	"github.com/nextlevelbuilder/ikigai/internal/migrate"
	"github.com/nextlevelbuilder/ikigai/internal/store/pg"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dataDir := resolveDataDir()

			cfg, err := config.Load(dataDir)
			if err != nil {
				fmt.Printf("config:      FAIL (%v)\n", err)
				return err
			}
			fmt.Printf("config:      OK (%s)\n", dataDir)

			if cfg.AnthropicAPIKey == "" && cfg.OpenAIAPIKey == "" {
				fmt.Println("provider:    WARN (no API key set for any provider)")
			} else {
				fmt.Println("provider:    OK")
			}

			db, err := pg.OpenDB(cfg.DSN())
			if err != nil {
				fmt.Printf("database:    FAIL (%v)\n", err)
				return err
			}
			defer db.Close()
			fmt.Printf("database:    OK (%s:%d/%s)\n", cfg.DBHost, cfg.DBPort, cfg.DBName)

			version, err := migrate.CurrentVersion(ctx, db)
			if err != nil {
				fmt.Printf("schema:      FAIL (%v)\n", err)
				return err
			}
			pending, err := migrate.Pending(resolveMigrationsDir(), version)
			if err != nil {
				fmt.Printf("migrations:  FAIL (%v)\n", err)
				return err
			}
			if len(pending) == 0 {
				fmt.Printf("schema:      OK (version %d, up to date)\n", version)
			} else {
				fmt.Printf("schema:      WARN (version %d, %d pending migration(s) — run `ikigai migrate`)\n", version, len(pending))
			}

			return nil
		},
	}
}
