package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/eval"
	"github.com/longregen/gepa/internal/ports"
)

// evaluateCmd scores a prompt's pre-generated response against a task.
func evaluateCmd() *cobra.Command {
	var (
		prompt       string
		promptFile   string
		response     string
		responseFile string
		task         string
		question     string
		expected     string
		contextText  string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a candidate prompt's response against a task",
		Long: `Score a pre-generated response for a candidate prompt.

Response generation itself happens outside this tool; pass the model
output via --response or --response-file and this command applies the
task strategy's scoring to it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			promptText, err := readInput(prompt, promptFile)
			if err != nil {
				return fmt.Errorf("failed to read prompt: %w", err)
			}
			responseText, err := readInput(response, responseFile)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if promptText == "" || responseText == "" {
				return fmt.Errorf("both a prompt and a response are required")
			}

			generator := ports.GeneratorFunc(func(_ context.Context, _ string, _ models.TaskConfig) (string, error) {
				return responseText, nil
			})
			evaluator := eval.NewEvaluator(generator)

			taskConfig := &models.TaskConfig{
				Type:           models.TaskType(task),
				Question:       question,
				ExpectedAnswer: expected,
				Context:        contextText,
			}
			if taskConfig.Question == "" {
				taskConfig.Question = promptText
			}

			strategy := evaluator.StrategyFor(taskConfig.Type)
			result, err := strategy.Evaluate(cmd.Context(), promptText, taskConfig)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}
			if result.Failed() {
				return fmt.Errorf("evaluation failed: %s", result.Error)
			}

			fmt.Printf("Fitness: %.3f\n", result.Fitness)
			for key, metricSet := range result.Metrics {
				fmt.Printf("\n%s:\n", key)
				if m, ok := metricSet.(map[string]any); ok {
					for name, value := range m {
						fmt.Printf("  %-24s %v\n", name, value)
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Candidate prompt text")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "File containing the prompt (- for stdin)")
	cmd.Flags().StringVar(&response, "response", "", "Model response to score")
	cmd.Flags().StringVar(&responseFile, "response-file", "", "File containing the response")
	cmd.Flags().StringVar(&task, "task", "reasoning", "Task type: generic, reasoning or question_answering")
	cmd.Flags().StringVar(&question, "question", "", "Question the response answers (defaults to the prompt)")
	cmd.Flags().StringVar(&expected, "expected", "", "Expected answer")
	cmd.Flags().StringVar(&contextText, "context", "", "Grounding context passage")

	return cmd
}
