package edits

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/gepa/internal/analysis"
	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
)

// fakeIDs hands out deterministic ids for tests.
type fakeIDs struct {
	edits int
}

func (f *fakeIDs) NewEdit() string {
	f.edits++
	return fmt.Sprintf("edit_%d", f.edits)
}

func (f *fakeIDs) NewRound() string      { return "round_1" }
func (f *fakeIDs) NewEvaluation() string { return "eval_1" }

func mustAnalyze(t *testing.T, prompt string) *models.PromptStructure {
	t.Helper()
	s, err := analysis.Analyze(prompt)
	require.NoError(t, err)
	return s
}

func TestBuildEdits_Add(t *testing.T) {
	builder := NewBuilder(&fakeIDs{})

	t.Run("specific text appended at end", func(t *testing.T) {
		structure := mustAnalyze(t, "Solve this.")
		sug := models.Suggestion{
			Type:         models.SuggestionAdd,
			Category:     models.CategoryClarity,
			Description:  "d",
			Rationale:    "r",
			Priority:     models.PriorityHigh,
			SpecificText: "Let's think step by step.",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		require.Len(t, batch, 1)

		edit := batch[0]
		assert.Equal(t, models.OpInsert, edit.Operation)
		assert.Equal(t, models.LocEnd, edit.Location.Type)
		assert.Contains(t, edit.Content, "Let's think step by step.")
		assert.Equal(t, models.PriorityHigh, edit.Priority)
	})

	t.Run("step description without text uses CoT template", func(t *testing.T) {
		structure := mustAnalyze(t, "Solve this.")
		sug := models.Suggestion{
			Type:        models.SuggestionAdd,
			Category:    models.CategoryClarity,
			Description: "encourage step by step reasoning",
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Contains(t, batch[0].Content, "Let's think step by step.")
	})

	t.Run("constraint templates keyed on description", func(t *testing.T) {
		structure := mustAnalyze(t, "Solve this.")
		sug := models.Suggestion{
			Type:        models.SuggestionAdd,
			Category:    models.CategoryConstraint,
			Description: "require the model to show its work",
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Contains(t, batch[0].Content, "Show all your work.")
	})

	t.Run("explicit target section anchors after it", func(t *testing.T) {
		prompt := "Summarize the article.\n\nYou must keep the summary under one hundred words at all times, avoiding technical jargon completely."
		structure := mustAnalyze(t, prompt)
		sug := models.Suggestion{
			Type:          models.SuggestionAdd,
			Category:      models.CategoryConstraint,
			Description:   "add a formatting constraint",
			Rationale:     "r",
			SpecificText:  "Use plain prose, no bullet points.",
			TargetSection: "constraints",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)

		edit := batch[0]
		assert.Equal(t, models.LocAfter, edit.Location.Type)
		assert.Contains(t, edit.Location.RelativeMarker, "must keep the summary")
	})
}

func TestBuildEdits_Modify(t *testing.T) {
	builder := NewBuilder(&fakeIDs{})

	t.Run("specific text present in prompt becomes target", func(t *testing.T) {
		structure := mustAnalyze(t, "Answer briefly. Use simple words.")
		sug := models.Suggestion{
			Type:         models.SuggestionModify,
			Category:     models.CategoryReasoning,
			Description:  "push for visible reasoning",
			Rationale:    "r",
			SpecificText: "Answer briefly",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)

		edit := batch[0]
		assert.Equal(t, models.OpReplace, edit.Operation)
		assert.Equal(t, models.LocWithin, edit.Location.Type)
		assert.Equal(t, "Answer briefly", edit.TargetText)
		// Content equal to target is a no-op, so it gets augmented.
		assert.Equal(t, "Think through: Answer briefly", edit.Content)
	})

	t.Run("quoted phrase in description", func(t *testing.T) {
		structure := mustAnalyze(t, "List the factors. Keep it short.")
		sug := models.Suggestion{
			Type:        models.SuggestionModify,
			Category:    models.CategoryClarity,
			Description: `change "Keep it short" to something firmer`,
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Equal(t, "Keep it short", batch[0].TargetText)
	})

	t.Run("keyword overlap picks best sentence", func(t *testing.T) {
		structure := mustAnalyze(t, "Classify the sentiment. Provide a confidence score with the label.")
		sug := models.Suggestion{
			Type:        models.SuggestionModify,
			Category:    models.CategoryClarity,
			Description: "the confidence score instruction is ambiguous",
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Contains(t, batch[0].TargetText, "confidence score")
	})

	t.Run("no target falls back to add", func(t *testing.T) {
		structure := mustAnalyze(t, "Solve this.")
		sug := models.Suggestion{
			Type:        models.SuggestionModify,
			Category:    models.CategoryClarity,
			Description: "zzz qqq www",
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Equal(t, models.OpInsert, batch[0].Operation)
		assert.Equal(t, models.LocEnd, batch[0].Location.Type)
	})
}

func TestBuildEdits_Remove(t *testing.T) {
	builder := NewBuilder(&fakeIDs{})

	t.Run("specific text target", func(t *testing.T) {
		structure := mustAnalyze(t, "Please note that accuracy matters. Solve the problem.")
		sug := models.Suggestion{
			Type:         models.SuggestionRemove,
			Category:     models.CategoryClarity,
			Description:  "drop the preamble",
			Rationale:    "r",
			SpecificText: "Please note that accuracy matters.",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Equal(t, models.OpDelete, batch[0].Operation)
		assert.Equal(t, "Please note that accuracy matters.", batch[0].TargetText)
	})

	t.Run("redundant phrase fallback", func(t *testing.T) {
		structure := mustAnalyze(t, "It should be noted that brevity helps. Solve the problem.")
		sug := models.Suggestion{
			Type:        models.SuggestionRemove,
			Category:    models.CategoryClarity,
			Description: "trim filler",
			Rationale:   "r",
		}

		batch, err := builder.BuildEdits(sug, structure)
		require.NoError(t, err)
		assert.Contains(t, batch[0].TargetText, "It should be noted that")
	})

	t.Run("no identifiable target fails the suggestion", func(t *testing.T) {
		structure := mustAnalyze(t, "Solve the problem.")
		sug := models.Suggestion{
			Type:        models.SuggestionRemove,
			Category:    models.CategoryClarity,
			Description: "trim filler",
			Rationale:   "r",
		}

		_, err := builder.BuildEdits(sug, structure)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrCannotIdentifyDeletionTarget))
	})
}

func TestBuildEdits_Restructure(t *testing.T) {
	builder := NewBuilder(&fakeIDs{})
	structure := mustAnalyze(t, "Explain the concept. Provide a worked numerical example afterwards.")

	sug := models.Suggestion{
		Type:        models.SuggestionRestructure,
		Category:    models.CategoryStructure,
		Description: "the worked numerical example should come first",
		Rationale:   "r",
	}

	batch, err := builder.BuildEdits(sug, structure)
	require.NoError(t, err)
	// Restructure rides the modify path.
	assert.Equal(t, models.OpReplace, batch[0].Operation)
}

func TestImpactScore(t *testing.T) {
	assert.InDelta(t, 0.75, impactScore(models.Suggestion{Priority: models.PriorityHigh}), 1e-9)
	assert.InDelta(t, 1.0, impactScore(models.Suggestion{
		Priority:      models.PriorityHigh,
		SpecificText:  "x",
		TargetSection: "main",
	}), 1e-9)
	assert.InDelta(t, 0.25, impactScore(models.Suggestion{Priority: models.PriorityLow}), 1e-9)
}
