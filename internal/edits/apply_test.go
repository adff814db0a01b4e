package edits

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/longregen/gepa/internal/domain/models"
)

func TestApply_Insert(t *testing.T) {
	t.Run("at end", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation: models.OpInsert,
			Content:   "Let's think step by step.",
			Location:  models.PromptLocation{Type: models.LocEnd},
		}})
		assert.Equal(t, "Solve this.\n\nLet's think step by step.", out)
	})

	t.Run("at start", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation: models.OpInsert,
			Content:   "Read carefully.",
			Location:  models.PromptLocation{Type: models.LocStart},
		}})
		assert.True(t, strings.HasPrefix(out, "Read carefully."))
		assert.Contains(t, out, "Solve this.")
	})

	t.Run("after marker", func(t *testing.T) {
		out := Apply("First part. Second part.", []*models.PromptEdit{{
			Operation: models.OpInsert,
			Content:   "Inserted.",
			Location:  models.PromptLocation{Type: models.LocAfter, RelativeMarker: "First part."},
		}})
		assert.Contains(t, out, "First part.\n\nInserted.")
	})

	t.Run("content starting on its own line is not double separated", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation: models.OpInsert,
			Content:   "\n\nLet's think step by step.",
			Location:  models.PromptLocation{Type: models.LocEnd},
		}})
		assert.Equal(t, "Solve this.\n\nLet's think step by step.", out)
		assert.NotContains(t, out, "\n\n\n")
	})

	t.Run("missing marker appends", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation: models.OpInsert,
			Content:   "Extra.",
			Location:  models.PromptLocation{Type: models.LocAfter, RelativeMarker: "gone"},
		}})
		assert.Equal(t, "Solve this.\n\nExtra.", out)
	})
}

func TestApply_Replace(t *testing.T) {
	t.Run("replaces target in place", func(t *testing.T) {
		out := Apply("Answer briefly. Use simple words.", []*models.PromptEdit{{
			Operation:  models.OpReplace,
			TargetText: "Answer briefly",
			Content:    "Answer with full reasoning",
			Location:   models.PromptLocation{Type: models.LocWithin, Pattern: "Answer briefly"},
		}})
		assert.Equal(t, "Answer with full reasoning. Use simple words.", out)
	})

	t.Run("replace_all swaps entire prompt", func(t *testing.T) {
		out := Apply("Old prompt.", []*models.PromptEdit{{
			Operation: models.OpReplace,
			Content:   "New prompt.",
			Location:  models.PromptLocation{Type: models.LocReplaceAll},
		}})
		assert.Equal(t, "New prompt.", out)
	})

	t.Run("vanished target degrades to append", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation:  models.OpReplace,
			TargetText: "not present",
			Content:    "Fallback content.",
			Location:   models.PromptLocation{Type: models.LocWithin, Pattern: "not present"},
		}})
		assert.Equal(t, "Solve this.\n\nFallback content.", out)
	})
}

func TestApply_Delete(t *testing.T) {
	t.Run("removes target and collapses blanks", func(t *testing.T) {
		out := Apply("Please note that accuracy matters. Solve this.", []*models.PromptEdit{{
			Operation:  models.OpDelete,
			TargetText: "Please note that accuracy matters. ",
			Location:   models.PromptLocation{Type: models.LocWithin},
		}})
		assert.Equal(t, "Solve this.", out)
	})

	t.Run("missing target is a no-op", func(t *testing.T) {
		out := Apply("Solve this.", []*models.PromptEdit{{
			Operation:  models.OpDelete,
			TargetText: "absent",
			Location:   models.PromptLocation{Type: models.LocWithin},
		}})
		assert.Equal(t, "Solve this.", out)
	})
}

func TestApply_Sequence(t *testing.T) {
	prompt := "Please note that style matters. Solve the problem."
	batch := []*models.PromptEdit{
		{
			Operation:  models.OpDelete,
			TargetText: "Please note that style matters. ",
			Location:   models.PromptLocation{Type: models.LocWithin},
		},
		{
			Operation: models.OpInsert,
			Content:   "Show your work.",
			Location:  models.PromptLocation{Type: models.LocEnd},
		},
	}

	out := Apply(prompt, batch)
	assert.Equal(t, "Solve the problem.\n\nShow your work.", out)
}
