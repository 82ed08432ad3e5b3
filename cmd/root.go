// Package cmd wires the ikigai CLI's subcommands (spec §5: a terminal REPL
// by default, plus operational subcommands for migrations and inspection).
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/ikigai/cmd.Version=v1.0.0"
var Version = "dev"

var (
	dataDirFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "ikigai",
	Short: "ikigai — a terminal-resident runtime for long-lived conversational agents",
	Long: "ikigai tracks a tree of long-lived agents, each with its own conversation,\n" +
		"provider config, and tool-execution state, persisting every message to\n" +
		"Postgres. With no subcommand it starts the interactive REPL.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (default: $IKIGAI_DATA_DIR or ~/.ikigai)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(doctorCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("ikigai %s\n", Version)
		},
	}
}

// resolveDataDir returns the data directory: --data-dir flag, then
// $IKIGAI_DATA_DIR, then ~/.ikigai.
func resolveDataDir() string {
	if dataDirFlag != "" {
		return dataDirFlag
	}
	if v := os.Getenv("IKIGAI_DATA_DIR"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ikigai"
	}
	return filepath.Join(home, ".ikigai")
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
