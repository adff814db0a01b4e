package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa/internal/config"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gepa",
		Short: "GEPA - reflection-driven prompt mutation",
		Long: `GEPA mutates candidate prompts from reflective critiques.

It parses a reflection into suggestions, synthesizes prompt edits,
resolves conflicts among them, applies the winners, and scores the
resulting candidate against a task.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(
		mutateCmd(),
		evaluateCmd(),
		roundsCmd(),
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gepa %s (commit %s, built %s)\n", version, commit, buildDate)
		},
	}
}
