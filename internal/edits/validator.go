package edits

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
)

// Validate checks one edit against the prompt the structure was built
// from. Checks run in sequence and short-circuit on the first hard error;
// location and target problems use soft fallbacks instead, so downstream
// consumers decide how severe an unvalidated edit is.
func Validate(edit *models.PromptEdit, structure *models.PromptStructure) (*models.PromptEdit, error) {
	if !models.ValidEditOperation(edit.Operation) {
		return nil, fmt.Errorf("validate edit %s: %w: %q", edit.ID, domain.ErrUnknownOperation, edit.Operation)
	}

	prompt := structure.RawText
	warned := false

	switch edit.Location.Type {
	case models.LocStart, models.LocEnd, models.LocReplaceAll:
		// Always resolvable.
	case models.LocBefore, models.LocAfter:
		if !strings.Contains(prompt, edit.Location.RelativeMarker) {
			slog.Warn("relative marker not found, degrading location to end",
				"edit_id", edit.ID, "marker", truncate(edit.Location.RelativeMarker, 60))
			edit.Location = models.PromptLocation{Type: models.LocEnd}
		}
	case models.LocWithin:
		if !patternMatches(prompt, edit.Location.Pattern) {
			edit.SetMeta(models.MetaValidationWarning, models.WarnPatternNotFound)
			warned = true
		}
	}

	if edit.Operation == models.OpInsert || edit.Operation == models.OpReplace {
		if strings.TrimSpace(edit.Content) == "" {
			return nil, fmt.Errorf("validate edit %s: %w", edit.ID, domain.ErrMissingContent)
		}
	}

	if edit.Operation == models.OpReplace || edit.Operation == models.OpDelete {
		if edit.TargetText == "" {
			return nil, fmt.Errorf("validate edit %s: %w", edit.ID, domain.ErrMissingTargetText)
		}
		if !strings.Contains(prompt, edit.TargetText) {
			edit.SetMeta(models.MetaValidationWarning, models.WarnTargetNotFound)
			warned = true
		}
	}

	edit.Validated = !warned
	return edit, nil
}

// patternMatches tries the pattern as a literal substring first, then as a
// regular expression. An uncompilable pattern counts as not found.
func patternMatches(prompt, pattern string) bool {
	if pattern == "" {
		return false
	}
	if strings.Contains(prompt, pattern) {
		return true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(prompt)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
