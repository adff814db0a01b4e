// Package edits turns abstract suggestions into concrete, located prompt
// edits, validates them against the prompt text, and resolves conflicts
// between them.
package edits

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

// Builder synthesizes prompt edits from suggestions.
type Builder struct {
	ids ports.IDGenerator
}

func NewBuilder(ids ports.IDGenerator) *Builder {
	return &Builder{ids: ids}
}

// quotedTargetRe extracts an explicit target from descriptions like
// `modify "the second rule"` or `remove "please note that"`.
var quotedTargetRe = regexp.MustCompile(`(?i)(?:modify|change|remove|delete|replace)\s+"([^"]+)"`)

// redundantPhraseRes are known filler phrases a remove suggestion may
// target when it names nothing explicit. Evaluated in order, first match
// wins.
var redundantPhraseRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)please note that[^.\n]*\.?`),
	regexp.MustCompile(`(?i)it should be noted that[^.\n]*\.?`),
	regexp.MustCompile(`(?i)as (?:mentioned|stated) (?:earlier|above|before)[^.\n]*\.?`),
	regexp.MustCompile(`(?i)needless to say[,.]?`),
	regexp.MustCompile(`(?i)\bin order to\b`),
}

var promptSentenceRe = regexp.MustCompile(`[.!?]+`)

// BuildEdits converts one suggestion into prompt edits. A suggestion that
// cannot be realized fails on its own; sibling suggestions are unaffected.
func (b *Builder) BuildEdits(sug models.Suggestion, structure *models.PromptStructure) ([]*models.PromptEdit, error) {
	var (
		edit *models.PromptEdit
		err  error
	)

	switch sug.Type {
	case models.SuggestionAdd:
		edit, err = b.buildAdd(sug, structure)
	case models.SuggestionModify:
		edit, err = b.buildModify(sug, structure)
	case models.SuggestionRemove:
		edit, err = b.buildRemove(sug, structure)
	case models.SuggestionRestructure:
		// No distinct restructuring semantics yet; the modify path is the
		// closest approximation.
		edit, err = b.buildModify(sug, structure)
	default:
		return nil, fmt.Errorf("build edits: %w: %q", domain.ErrUnknownOperation, sug.Type)
	}

	if err != nil {
		return nil, err
	}
	return []*models.PromptEdit{edit}, nil
}

func (b *Builder) newEdit(op models.EditOperation, loc models.PromptLocation, sug models.Suggestion) *models.PromptEdit {
	return &models.PromptEdit{
		ID:               b.ids.NewEdit(),
		Operation:        op,
		Location:         loc,
		SourceSuggestion: sug,
		Rationale:        sug.Rationale,
		Priority:         sug.Priority,
		ImpactScore:      impactScore(sug),
	}
}

// impactScore is a coarse prior used by the highest_impact conflict
// strategy: priority dominates, concreteness bumps.
func impactScore(sug models.Suggestion) float64 {
	score := float64(sug.Priority.Rank()) * 0.25
	if strings.TrimSpace(sug.SpecificText) != "" {
		score += 0.15
	}
	if strings.TrimSpace(sug.TargetSection) != "" {
		score += 0.10
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// buildAdd resolves an insertion point (explicit section, else end of
// prompt) and insertion content (explicit text, else a category template).
func (b *Builder) buildAdd(sug models.Suggestion, structure *models.PromptStructure) (*models.PromptEdit, error) {
	loc := addLocation(sug, structure)

	content := addContent(sug)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("build add edit: %w", domain.ErrNoContentGenerated)
	}

	edit := b.newEdit(models.OpInsert, loc, sug)
	edit.Content = content
	return edit, nil
}

func addLocation(sug models.Suggestion, structure *models.PromptStructure) models.PromptLocation {
	if name := strings.TrimSpace(sug.TargetSection); name != "" {
		for _, sec := range structure.Sections {
			if strings.EqualFold(sec.Name, name) {
				return models.PromptLocation{Type: models.LocAfter, RelativeMarker: sec.Content}
			}
		}
		slog.Debug("target section not found, appending to end", "section", name)
	}
	// Constraint and example additions belong at the end of the prompt,
	// as does everything without a better anchor.
	return models.PromptLocation{Type: models.LocEnd}
}

// categoryTemplates provide insertion content when the suggestion carries
// no specific text. The clarity entry is special-cased for step-by-step
// requests; the constraint entry is keyword-matched. Content carries no
// separators of its own; Apply owns paragraph boundaries.
func addContent(sug models.Suggestion) string {
	if text := strings.TrimSpace(sug.SpecificText); text != "" {
		return text
	}

	desc := strings.ToLower(sug.Description)
	switch sug.Category {
	case models.CategoryClarity:
		if strings.Contains(desc, "step") {
			return "Let's think step by step."
		}
		return "Be clear and explicit in your answer."
	case models.CategoryConstraint:
		return constraintSentence(desc)
	case models.CategoryExample:
		return "For example, work through one representative case before answering."
	case models.CategoryReasoning:
		return "Explain your reasoning before giving the final answer."
	case models.CategoryStructure:
		return "Organize your response into clearly labeled sections."
	}
	return ""
}

func constraintSentence(desc string) string {
	switch {
	case strings.Contains(desc, "work") || strings.Contains(desc, "show"):
		return "Show all your work."
	case strings.Contains(desc, "concise") || strings.Contains(desc, "brief") || strings.Contains(desc, "short"):
		return "Keep the answer concise."
	case strings.Contains(desc, "format"):
		return "Follow the required output format exactly."
	default:
		return "Follow all stated constraints carefully."
	}
}

// buildModify locates existing prompt text to rewrite. When no target can
// be identified the suggestion is downgraded to an add rather than
// dropped, so potentially useful feedback still lands somewhere.
func (b *Builder) buildModify(sug models.Suggestion, structure *models.PromptStructure) (*models.PromptEdit, error) {
	target, ok := findModifyTarget(sug, structure.RawText)
	if !ok {
		slog.Debug("no modify target found, falling back to add", "description", sug.Description)
		return b.buildAdd(sug, structure)
	}

	content := strings.TrimSpace(sug.SpecificText)
	if content == "" || content == target {
		content = augmentTarget(target, sug.Category)
	}

	edit := b.newEdit(models.OpReplace, models.PromptLocation{
		Type:    models.LocWithin,
		Pattern: target,
		Scope:   models.ScopePhrase,
	}, sug)
	edit.TargetText = target
	edit.Content = content
	return edit, nil
}

// findModifyTarget tries, in order: the suggestion's specific text when it
// already occurs in the prompt, a quoted phrase in the description, and
// the prompt sentence with the highest keyword overlap.
func findModifyTarget(sug models.Suggestion, prompt string) (string, bool) {
	if text := strings.TrimSpace(sug.SpecificText); text != "" && containsFold(prompt, text) {
		return text, true
	}

	if m := quotedTargetRe.FindStringSubmatch(sug.Description); m != nil && containsFold(prompt, m[1]) {
		return m[1], true
	}

	if sentence, ok := bestOverlapSentence(sug.Description, prompt); ok {
		return sentence, true
	}

	return "", false
}

// bestOverlapSentence matches the top description keywords (words longer
// than 4 characters, first 3) against prompt sentences, case-insensitively.
func bestOverlapSentence(description, prompt string) (string, bool) {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(description)) {
		word = strings.Trim(word, `.,;:"'()`)
		if len(word) > 4 {
			keywords = append(keywords, word)
		}
		if len(keywords) == 3 {
			break
		}
	}
	if len(keywords) == 0 {
		return "", false
	}

	best := ""
	bestCount := 0
	for _, sentence := range promptSentenceRe.Split(prompt, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		lower := strings.ToLower(sentence)
		count := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = sentence
		}
	}
	return best, bestCount > 0
}

func augmentTarget(target string, category models.SuggestionCategory) string {
	switch category {
	case models.CategoryReasoning:
		return "Think through: " + target
	case models.CategoryConstraint:
		return target + " This is a strict requirement."
	case models.CategoryExample:
		return target + " Include a concrete example."
	default:
		return "Specifically: " + target
	}
}

// buildRemove locates text to delete. Deletion has no safe fallback, so a
// missing target is a per-suggestion failure.
func (b *Builder) buildRemove(sug models.Suggestion, structure *models.PromptStructure) (*models.PromptEdit, error) {
	target, ok := findRemoveTarget(sug, structure.RawText)
	if !ok {
		return nil, fmt.Errorf("build remove edit: %w", domain.ErrCannotIdentifyDeletionTarget)
	}

	edit := b.newEdit(models.OpDelete, models.PromptLocation{
		Type:    models.LocWithin,
		Pattern: target,
		Scope:   models.ScopePhrase,
	}, sug)
	edit.TargetText = target
	return edit, nil
}

func findRemoveTarget(sug models.Suggestion, prompt string) (string, bool) {
	if text := strings.TrimSpace(sug.SpecificText); text != "" && containsFold(prompt, text) {
		return text, true
	}

	if m := quotedTargetRe.FindStringSubmatch(sug.Description); m != nil && containsFold(prompt, m[1]) {
		return m[1], true
	}

	for _, re := range redundantPhraseRes {
		if match := re.FindString(prompt); match != "" {
			return match, true
		}
	}

	return "", false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
