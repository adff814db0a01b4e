// Package eval scores candidate prompts against task descriptors. The
// generic evaluator owns the single external call to the response
// generator; task strategies layer deterministic scoring on top of it.
package eval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/longregen/gepa/internal/adapters/metrics"
	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

// DefaultBatchConcurrency bounds the fan-out of EvaluateBatch when the
// caller does not set one.
const DefaultBatchConcurrency = 4

// Evaluator invokes the response generator and packages the raw output
// into a trajectory. It computes no task-specific fitness itself; see
// ReasoningStrategy and QAStrategy for scoring.
type Evaluator struct {
	generator   ports.Generator
	concurrency int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithBatchConcurrency sets the worker bound for EvaluateBatch.
func WithBatchConcurrency(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

func NewEvaluator(generator ports.Generator, opts ...Option) *Evaluator {
	e := &Evaluator{generator: generator, concurrency: DefaultBatchConcurrency}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluatePrompt runs one generation for the candidate prompt. Generation
// failures, including cancellation, surface on the result's Error field
// rather than as a returned error; only a missing task aborts.
func (e *Evaluator) EvaluatePrompt(ctx context.Context, prompt string, task *models.TaskConfig) (*models.EvaluationResult, error) {
	if task == nil {
		return nil, domain.ErrMissingTask
	}

	started := time.Now()
	response, err := e.generator.Generate(ctx, prompt, *task)
	metrics.GenerationRequestDuration.Observe(time.Since(started).Seconds())
	trajectory := &models.Trajectory{
		Prompt:     prompt,
		StartedAt:  started,
		DurationMs: time.Since(started).Milliseconds(),
		Metadata:   map[string]any{"response": response},
	}

	result := &models.EvaluationResult{
		Metrics:    map[string]any{},
		Trajectory: trajectory,
	}
	if err != nil {
		err = fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
		slog.WarnContext(ctx, "generation failed during evaluation",
			"error", err, "duration_ms", trajectory.DurationMs)
		result.Error = err.Error()
	}
	return result, nil
}

// Strategy scores one prompt against a task.
type Strategy interface {
	Evaluate(ctx context.Context, prompt string, task *models.TaskConfig) (*models.EvaluationResult, error)
}

// StrategyFor returns the scoring strategy for the task's type. Unknown
// types fall back to the generic evaluator.
func (e *Evaluator) StrategyFor(taskType models.TaskType) Strategy {
	switch taskType {
	case models.TaskReasoning:
		return &ReasoningStrategy{evaluator: e}
	case models.TaskQuestionAnswering:
		return &QAStrategy{evaluator: e}
	default:
		return genericStrategy{evaluator: e}
	}
}

type genericStrategy struct {
	evaluator *Evaluator
}

func (s genericStrategy) Evaluate(ctx context.Context, prompt string, task *models.TaskConfig) (*models.EvaluationResult, error) {
	return s.evaluator.EvaluatePrompt(ctx, prompt, task)
}

// EvaluateBatch scores each prompt independently on a bounded worker
// pool. Result order matches prompt order; per-prompt failures land in
// their slot rather than cancelling siblings.
func (e *Evaluator) EvaluateBatch(ctx context.Context, prompts []string, task *models.TaskConfig) ([]*models.EvaluationResult, error) {
	if task == nil {
		return nil, domain.ErrMissingTask
	}

	strategy := e.StrategyFor(task.Type)
	results := make([]*models.EvaluationResult, len(prompts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, prompt := range prompts {
		g.Go(func() error {
			result, err := strategy.Evaluate(gctx, prompt, task)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
