// Package services wires the mutation pipeline stages into full rounds
// and records their outcomes.
package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/longregen/gepa/internal/adapters/metrics"
	"github.com/longregen/gepa/internal/adapters/tracing"
	"github.com/longregen/gepa/internal/analysis"
	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/edits"
	"github.com/longregen/gepa/internal/eval"
	"github.com/longregen/gepa/internal/ports"
	"github.com/longregen/gepa/internal/reflection"
)

// MutationConfig configures one pipeline run.
type MutationConfig struct {
	// Strict disables the text fallback when JSON parsing fails.
	Strict bool

	// MinSuggestions is the floor for the text-fallback parser.
	MinSuggestions int

	// ResolutionStrategy picks winners among conflicting edits. Empty
	// means highest impact.
	ResolutionStrategy models.ResolutionStrategy

	// BatchConcurrency bounds batch evaluation fan-out.
	BatchConcurrency int
}

// DefaultMutationConfig returns sensible defaults.
func DefaultMutationConfig() MutationConfig {
	return MutationConfig{
		MinSuggestions:     1,
		ResolutionStrategy: models.ResolveHighestImpact,
		BatchConcurrency:   eval.DefaultBatchConcurrency,
	}
}

// MutationService runs full mutation rounds: parse a reflection, analyze
// the prompt, synthesize and validate edits, resolve conflicts, apply the
// winners, evaluate the candidate, and persist the round. The repository
// is optional; without one, rounds are returned but not stored.
type MutationService struct {
	repo      ports.MutationRoundRepository
	evaluator *eval.Evaluator
	builder   *edits.Builder
	ids       ports.IDGenerator
	config    MutationConfig
}

func NewMutationService(
	repo ports.MutationRoundRepository,
	generator ports.Generator,
	ids ports.IDGenerator,
	config MutationConfig,
) *MutationService {
	var evaluator *eval.Evaluator
	if generator != nil {
		evaluator = eval.NewEvaluator(generator, eval.WithBatchConcurrency(config.BatchConcurrency))
	}
	return &MutationService{
		repo:      repo,
		evaluator: evaluator,
		builder:   edits.NewBuilder(ids),
		ids:       ids,
		config:    config,
	}
}

var tracer = tracing.Tracer("gepa/services")

// RunRound executes one mutation round. Parse and structure failures fail
// the round; per-suggestion synthesis failures only shrink the edit batch.
// When task is nil the candidate is produced without evaluation.
func (s *MutationService) RunRound(
	ctx context.Context,
	prompt string,
	resp models.ReflectionResponse,
	task *models.TaskConfig,
) (*models.MutationRound, error) {
	ctx, span := tracer.Start(ctx, "mutation.RunRound")
	defer span.End()

	started := time.Now()
	round := models.NewMutationRound(s.ids.NewRound(), prompt)
	if s.repo != nil {
		if err := s.repo.CreateRound(ctx, round); err != nil {
			return nil, domain.NewDomainErrorWithCode(err, "failed to create mutation round", "persistence_failed")
		}
	}

	structure, err := analysis.Analyze(prompt)
	if err != nil {
		return round, s.failRound(ctx, round, err)
	}

	parsed, err := reflection.Parse(resp, reflection.ParseOptions{
		Strict:         s.config.Strict,
		MinSuggestions: s.config.MinSuggestions,
	})
	if err != nil {
		return round, s.failRound(ctx, round, err)
	}
	metrics.SuggestionsParsedTotal.WithLabelValues(string(resp.Format)).Add(float64(len(parsed.Suggestions)))
	metrics.SuggestionsDroppedTotal.Add(float64(parsed.DroppedCount))

	round.SuggestionCount = len(parsed.Suggestions)
	round.DroppedCount = parsed.DroppedCount
	round.Confidence = parsed.Confidence
	span.SetAttributes(
		attribute.Int("suggestions", len(parsed.Suggestions)),
		attribute.Int("dropped", parsed.DroppedCount),
		attribute.String("confidence", string(parsed.Confidence)),
	)

	batch := s.buildEdits(ctx, parsed.Suggestions, structure)
	batch, groups := edits.ResolveConflicts(batch, s.config.ResolutionStrategy)
	for _, group := range groups {
		metrics.EditConflictsTotal.WithLabelValues(string(group.ConflictType)).Inc()
	}

	winners := selectWinners(batch, groups)
	round.Edits = batch
	for _, edit := range winners {
		round.AppliedEditIDs = append(round.AppliedEditIDs, edit.ID)
	}

	candidate := edits.Apply(prompt, winners)

	fitness := 0.0
	if task != nil && s.evaluator != nil {
		strategy := s.evaluator.StrategyFor(task.Type)
		result, err := strategy.Evaluate(ctx, candidate, task)
		if err != nil {
			return round, s.failRound(ctx, round, err)
		}
		round.Evaluation = result
		if result.Failed() {
			slog.WarnContext(ctx, "candidate evaluation failed",
				"round_id", round.ID, "error", result.Error)
		} else {
			fitness = result.Fitness
			metrics.CandidateFitness.Observe(fitness)
		}
	}

	round.MarkCompleted(candidate, fitness)
	if s.repo != nil {
		if err := s.repo.UpdateRound(ctx, round); err != nil {
			return nil, domain.NewDomainErrorWithCode(err, "failed to persist mutation round", "persistence_failed")
		}
	}

	metrics.MutationRoundsTotal.WithLabelValues(round.Status).Inc()
	metrics.MutationRoundDuration.Observe(time.Since(started).Seconds())
	slog.InfoContext(ctx, "mutation round completed",
		"round_id", round.ID,
		"suggestions", round.SuggestionCount,
		"edits", len(batch),
		"applied", len(winners),
		"fitness", fitness,
		"duration_ms", time.Since(started).Milliseconds())
	return round, nil
}

// buildEdits synthesizes and validates edits, dropping suggestions whose
// synthesis fails rather than aborting the batch.
func (s *MutationService) buildEdits(
	ctx context.Context,
	suggestions []models.Suggestion,
	structure *models.PromptStructure,
) []*models.PromptEdit {
	var batch []*models.PromptEdit
	for _, sug := range suggestions {
		built, err := s.builder.BuildEdits(sug, structure)
		if err != nil {
			slog.WarnContext(ctx, "skipping suggestion, edit synthesis failed",
				"type", string(sug.Type), "error", err)
			continue
		}
		for _, edit := range built {
			validated, err := edits.Validate(edit, structure)
			if err != nil {
				slog.WarnContext(ctx, "skipping edit, validation rejected it",
					"edit_id", edit.ID, "error", err)
				continue
			}
			metrics.EditsBuiltTotal.WithLabelValues(string(validated.Operation)).Inc()
			batch = append(batch, validated)
		}
	}
	return batch
}

// selectWinners keeps edits that either never conflicted or were selected
// by their group.
func selectWinners(batch []*models.PromptEdit, groups []models.ConflictGroup) []*models.PromptEdit {
	losers := make(map[string]bool)
	for _, group := range groups {
		for _, edit := range group.Edits {
			if edit != group.SelectedEdit {
				losers[edit.ID] = true
			}
		}
	}
	var winners []*models.PromptEdit
	for _, edit := range batch {
		if !losers[edit.ID] {
			winners = append(winners, edit)
		}
	}
	return winners
}

func (s *MutationService) failRound(ctx context.Context, round *models.MutationRound, cause error) error {
	round.MarkFailed(cause.Error())
	metrics.MutationRoundsTotal.WithLabelValues(round.Status).Inc()
	if s.repo != nil {
		if err := s.repo.UpdateRound(ctx, round); err != nil {
			slog.ErrorContext(ctx, "failed to persist failed round",
				"round_id", round.ID, "error", err)
		}
	}
	slog.WarnContext(ctx, "mutation round failed", "round_id", round.ID, "error", cause)
	return cause
}
