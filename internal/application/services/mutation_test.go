package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

type fakeIDs struct{ n int }

func (f *fakeIDs) NewEdit() string       { f.n++; return fmt.Sprintf("edit_%d", f.n) }
func (f *fakeIDs) NewRound() string      { f.n++; return fmt.Sprintf("round_%d", f.n) }
func (f *fakeIDs) NewEvaluation() string { f.n++; return fmt.Sprintf("eval_%d", f.n) }

type fakeRepo struct {
	created   []*models.MutationRound
	updated   []*models.MutationRound
	createErr error
	updateErr error
}

func (r *fakeRepo) CreateRound(_ context.Context, round *models.MutationRound) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, round)
	return nil
}

func (r *fakeRepo) UpdateRound(_ context.Context, round *models.MutationRound) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = append(r.updated, round)
	return nil
}

func (r *fakeRepo) GetRound(context.Context, string) (*models.MutationRound, error) {
	return nil, domain.ErrRoundNotFound
}

func (r *fakeRepo) ListRounds(context.Context, ports.ListRoundsOptions) ([]*models.MutationRound, error) {
	return nil, nil
}

func (r *fakeRepo) GetBestRound(context.Context) (*models.MutationRound, error) {
	return nil, domain.ErrRoundNotFound
}

func jsonReflection(content string) models.ReflectionResponse {
	return models.ReflectionResponse{Content: content, Format: models.FormatJSON}
}

const singleAddReflection = `{
	"analysis": "The prompt gives no reasoning guidance.",
	"root_causes": ["missing reasoning instruction"],
	"suggestions": [
		{
			"type": "add",
			"category": "reasoning",
			"description": "ask for explicit reasoning",
			"rationale": "the model skips intermediate steps",
			"priority": "high",
			"specific_text": "Explain each step before answering."
		}
	]
}`

const conflictingAddsReflection = `{
	"analysis": "The prompt gives no reasoning guidance and no length limit.",
	"root_causes": ["missing reasoning instruction"],
	"suggestions": [
		{
			"type": "add",
			"category": "reasoning",
			"description": "ask for explicit reasoning",
			"rationale": "the model skips intermediate steps",
			"priority": "high",
			"specific_text": "Explain each step before answering."
		},
		{
			"type": "add",
			"category": "constraint",
			"description": "limit the answer length",
			"rationale": "answers ramble",
			"priority": "low",
			"specific_text": "Keep the final answer short."
		}
	]
}`

func TestRunRound(t *testing.T) {
	prompt := "Solve the math problem. Answer briefly."

	t.Run("completes without repository or generator", func(t *testing.T) {
		svc := NewMutationService(nil, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), nil)
		require.NoError(t, err)
		assert.Equal(t, models.RoundStatusCompleted, round.Status)
		assert.Equal(t, 1, round.SuggestionCount)
		assert.Len(t, round.Edits, 1)
		assert.Len(t, round.AppliedEditIDs, 1)
		assert.Contains(t, round.CandidateText, "Explain each step before answering.")
		assert.Contains(t, round.CandidateText, prompt)
		assert.Zero(t, round.Fitness)
	})

	t.Run("candidate keeps single paragraph breaks", func(t *testing.T) {
		svc := NewMutationService(nil, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), "Solve the math problem.", jsonReflection(singleAddReflection), nil)
		require.NoError(t, err)
		assert.Equal(t, "Solve the math problem.\n\nExplain each step before answering.", round.CandidateText)
		assert.NotRegexp(t, `\n{3,}`, round.CandidateText)
	})

	t.Run("conflicting edits keep one winner", func(t *testing.T) {
		svc := NewMutationService(nil, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(conflictingAddsReflection), nil)
		require.NoError(t, err)
		assert.Len(t, round.Edits, 2)
		assert.Len(t, round.AppliedEditIDs, 1)
		assert.Contains(t, round.CandidateText, "Explain each step before answering.")
		assert.NotContains(t, round.CandidateText, "Keep the final answer short.")
	})

	t.Run("invalid prompt fails the round", func(t *testing.T) {
		svc := NewMutationService(nil, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), "   ", jsonReflection(singleAddReflection), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
		require.NotNil(t, round)
		assert.Equal(t, models.RoundStatusFailed, round.Status)
		assert.NotEmpty(t, round.ErrorMessage)
	})

	t.Run("strict mode rejects unparseable reflection", func(t *testing.T) {
		cfg := DefaultMutationConfig()
		cfg.Strict = true
		svc := NewMutationService(nil, nil, &fakeIDs{}, cfg)

		resp := models.ReflectionResponse{Content: "not json at all", Format: models.FormatText}
		round, err := svc.RunRound(context.Background(), prompt, resp, nil)
		assert.ErrorIs(t, err, domain.ErrJSONParse)
		assert.Equal(t, models.RoundStatusFailed, round.Status)
	})

	t.Run("persists created and completed round", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := NewMutationService(repo, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), nil)
		require.NoError(t, err)
		require.Len(t, repo.created, 1)
		require.Len(t, repo.updated, 1)
		assert.Equal(t, round.ID, repo.created[0].ID)
		assert.Equal(t, models.RoundStatusCompleted, repo.updated[0].Status)
	})

	t.Run("create failure aborts the round", func(t *testing.T) {
		repo := &fakeRepo{createErr: fmt.Errorf("connection refused")}
		svc := NewMutationService(repo, nil, &fakeIDs{}, DefaultMutationConfig())

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), nil)
		assert.Nil(t, round)
		assert.ErrorContains(t, err, "failed to create mutation round")

		var de *domain.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "persistence_failed", de.Code)
	})

	t.Run("failed round is still persisted", func(t *testing.T) {
		repo := &fakeRepo{}
		svc := NewMutationService(repo, nil, &fakeIDs{}, DefaultMutationConfig())

		_, err := svc.RunRound(context.Background(), "   ", jsonReflection(singleAddReflection), nil)
		assert.ErrorIs(t, err, domain.ErrInvalidPrompt)
		require.Len(t, repo.updated, 1)
		assert.Equal(t, models.RoundStatusFailed, repo.updated[0].Status)
	})

	t.Run("evaluates candidate when task and generator present", func(t *testing.T) {
		gen := ports.GeneratorFunc(func(_ context.Context, _ string, _ models.TaskConfig) (string, error) {
			return "First, add the numbers because both are positive. Answer: 12.", nil
		})
		svc := NewMutationService(nil, gen, &fakeIDs{}, DefaultMutationConfig())
		task := &models.TaskConfig{Type: models.TaskReasoning, ExpectedAnswer: "12"}

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), task)
		require.NoError(t, err)
		require.NotNil(t, round.Evaluation)
		assert.Greater(t, round.Fitness, 0.0)
		assert.Equal(t, models.RoundStatusCompleted, round.Status)
	})

	t.Run("generation failure completes round with zero fitness", func(t *testing.T) {
		gen := ports.GeneratorFunc(func(_ context.Context, _ string, _ models.TaskConfig) (string, error) {
			return "", fmt.Errorf("upstream unavailable")
		})
		svc := NewMutationService(nil, gen, &fakeIDs{}, DefaultMutationConfig())
		task := &models.TaskConfig{Type: models.TaskReasoning, ExpectedAnswer: "12"}

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), task)
		require.NoError(t, err)
		require.NotNil(t, round.Evaluation)
		assert.True(t, round.Evaluation.Failed())
		assert.Zero(t, round.Fitness)
		assert.Equal(t, models.RoundStatusCompleted, round.Status)
	})

	t.Run("task without generator skips evaluation", func(t *testing.T) {
		svc := NewMutationService(nil, nil, &fakeIDs{}, DefaultMutationConfig())
		task := &models.TaskConfig{Type: models.TaskReasoning, ExpectedAnswer: "12"}

		round, err := svc.RunRound(context.Background(), prompt, jsonReflection(singleAddReflection), task)
		require.NoError(t, err)
		assert.Nil(t, round.Evaluation)
		assert.Zero(t, round.Fitness)
	})
}
