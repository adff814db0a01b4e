package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa/internal/adapters/postgres"
	"github.com/longregen/gepa/internal/ports"
)

// roundsCmd inspects persisted mutation rounds.
func roundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Inspect persisted mutation rounds",
	}
	cmd.AddCommand(roundsListCmd(), roundsShowCmd(), roundsBestCmd())
	return cmd
}

func roundsListCmd() *cobra.Command {
	var (
		status string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			if pool == nil {
				return fmt.Errorf("round persistence requires GEPA_POSTGRES_URL")
			}
			defer pool.Close()

			repo := postgres.NewMutationRepository(pool)
			rounds, err := repo.ListRounds(ctx, ports.ListRoundsOptions{Status: status, Limit: limit})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tSUGGESTIONS\tFITNESS\tCREATED")
			for _, round := range rounds {
				fmt.Fprintf(w, "%s\t%s\t%d\t%.3f\t%s\n",
					round.ID, round.Status, round.SuggestionCount,
					round.Fitness, round.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status: running, completed or failed")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rounds to list")
	return cmd
}

func roundsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <round-id>",
		Short: "Show one round in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			if pool == nil {
				return fmt.Errorf("round persistence requires GEPA_POSTGRES_URL")
			}
			defer pool.Close()

			repo := postgres.NewMutationRepository(pool)
			round, err := repo.GetRound(ctx, args[0])
			if err != nil {
				return err
			}
			printRound(round, true)
			return nil
		},
	}
}

func roundsBestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "best",
		Short: "Show the highest-fitness completed round",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			if pool == nil {
				return fmt.Errorf("round persistence requires GEPA_POSTGRES_URL")
			}
			defer pool.Close()

			repo := postgres.NewMutationRepository(pool)
			round, err := repo.GetBestRound(ctx)
			if err != nil {
				return err
			}
			printRound(round, false)
			return nil
		},
	}
}
