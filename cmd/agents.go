package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/ikigai/internal/config"
	"github.com/nextlevelbuilder/ikigai/internal/store/pg"
)

func agentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List agents in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(resolveDataDir())
			if err != nil {
				return err
			}
			stores, err := pg.Open(cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer stores.DB.Close()

			agents, err := stores.Agents.ListActive(cmd.Context())
			if err != nil {
				return fmt.Errorf("list agents: %w", err)
			}

			if len(agents) == 0 {
				fmt.Println("no active agents")
				return nil
			}
			for _, a := range agents {
				name := a.Name
				if name == "" {
					name = "(unnamed)"
				}
				fmt.Printf("%s  %-8s %-20s  %s\n", a.UUID, a.Status, name,
					time.Unix(a.CreatedAt, 0).Format(time.RFC3339))
			}
			return nil
		},
	}
	return cmd
}
