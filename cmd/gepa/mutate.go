package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa/internal/adapters/id"
	"github.com/longregen/gepa/internal/adapters/postgres"
	"github.com/longregen/gepa/internal/application/services"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

// mutateCmd runs one mutation round from the command line.
func mutateCmd() *cobra.Command {
	var (
		prompt         string
		promptFile     string
		reflection     string
		reflectionFile string
		format         string
		task           string
		expected       string
		response       string
		showLosers     bool
	)

	cmd := &cobra.Command{
		Use:   "mutate",
		Short: "Run one mutation round over a prompt",
		Long: `Parse a reflection, synthesize edits, and print the mutated prompt.

The reflection may be JSON (the structured critique format) or free
text; free text is scanned for actionable sentences. When --task and
--response are given, the candidate is also scored.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			promptText, err := readInput(prompt, promptFile)
			if err != nil {
				return fmt.Errorf("failed to read prompt: %w", err)
			}
			reflectionText, err := readInput(reflection, reflectionFile)
			if err != nil {
				return fmt.Errorf("failed to read reflection: %w", err)
			}
			if promptText == "" || reflectionText == "" {
				return fmt.Errorf("both a prompt and a reflection are required")
			}

			pool, err := initDB(ctx)
			if err != nil {
				return err
			}
			var repo ports.MutationRoundRepository
			if pool != nil {
				defer pool.Close()
				repo = postgres.NewMutationRepository(pool)
			}

			var generator ports.Generator
			if response != "" {
				canned := response
				generator = ports.GeneratorFunc(func(_ context.Context, _ string, _ models.TaskConfig) (string, error) {
					return canned, nil
				})
			}

			service := services.NewMutationService(repo, generator, id.New(), mutationConfig())

			resp := models.ReflectionResponse{
				Content:   reflectionText,
				Format:    models.ReflectionFormat(format),
				Timestamp: time.Now().UTC(),
			}

			var taskConfig *models.TaskConfig
			if task != "" {
				taskConfig = &models.TaskConfig{
					Type:           models.TaskType(task),
					Question:       promptText,
					ExpectedAnswer: expected,
				}
			}

			round, err := service.RunRound(ctx, promptText, resp, taskConfig)
			if err != nil {
				return fmt.Errorf("mutation round failed: %w", err)
			}

			printRound(round, showLosers)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Prompt text to mutate")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File containing the prompt (- for stdin)")
	cmd.Flags().StringVar(&reflection, "reflection", "", "Reflection text")
	cmd.Flags().StringVar(&reflectionFile, "reflection-file", "", "File containing the reflection")
	cmd.Flags().StringVar(&format, "format", "text", "Reflection format: json or text")
	cmd.Flags().StringVar(&task, "task", "", "Task type for scoring: reasoning or question_answering")
	cmd.Flags().StringVar(&expected, "expected", "", "Expected answer for scoring")
	cmd.Flags().StringVar(&response, "response", "", "Pre-generated model response for the candidate")
	cmd.Flags().BoolVar(&showLosers, "show-conflicts", false, "Also list edits that lost conflict resolution")

	return cmd
}

func printRound(round *models.MutationRound, showLosers bool) {
	fmt.Printf("Round:       %s\n", round.ID)
	fmt.Printf("Status:      %s\n", round.Status)
	fmt.Printf("Suggestions: %d (%d dropped)\n", round.SuggestionCount, round.DroppedCount)
	fmt.Printf("Confidence:  %s\n", round.Confidence)
	if round.Evaluation != nil {
		fmt.Printf("Fitness:     %.3f\n", round.Fitness)
	}
	fmt.Println()

	applied := make(map[string]bool, len(round.AppliedEditIDs))
	for _, editID := range round.AppliedEditIDs {
		applied[editID] = true
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOP\tPRIORITY\tVALIDATED\tAPPLIED")
	for _, edit := range round.Edits {
		if !applied[edit.ID] && !showLosers {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%t\n",
			edit.ID, edit.Operation, edit.Priority, edit.Validated, applied[edit.ID])
	}
	w.Flush()

	fmt.Println()
	fmt.Println("Candidate prompt:")
	fmt.Println(round.CandidateText)
}
