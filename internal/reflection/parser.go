// Package reflection parses reflector critiques into typed suggestions.
//
// Reflector output is untrusted, semi-structured LLM text. Parsing is
// deliberately lenient: a malformed suggestion is dropped (and counted)
// rather than failing the whole parse, and a JSON decode failure falls
// back to sentence-level heuristics over the raw text.
package reflection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
)

// ParseOptions controls parsing strictness.
type ParseOptions struct {
	// Strict disables the text fallback: a JSON decode failure becomes a
	// hard error.
	Strict bool
	// MinSuggestions is the minimum the text fallback must extract before
	// it gives up. Zero means the default of 1.
	MinSuggestions int
}

const defaultMinSuggestions = 1

// verbRule maps a trigger verb in free text to a suggestion type. Rules
// are evaluated in order, first match wins per sentence.
type verbRule struct {
	pattern *regexp.Regexp
	kind    models.SuggestionType
}

var verbRules = []verbRule{
	{regexp.MustCompile(`(?i)\b(add|include|insert)\b`), models.SuggestionAdd},
	{regexp.MustCompile(`(?i)\b(remove|delete|eliminate)\b`), models.SuggestionRemove},
	{regexp.MustCompile(`(?i)\b(modify|change|revise|rephrase|clarify)\b`), models.SuggestionModify},
	{regexp.MustCompile(`(?i)\b(restructure|reorganize|rearrange)\b`), models.SuggestionRestructure},
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+\s*`)

// reflectionPayload mirrors the JSON shape the reflector is asked for.
type reflectionPayload struct {
	Analysis    string            `json:"analysis"`
	RootCauses  []string          `json:"root_causes"`
	Suggestions []json.RawMessage `json:"suggestions"`
}

type suggestionPayload struct {
	Type          string `json:"type"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Rationale     string `json:"rationale"`
	Priority      string `json:"priority"`
	SpecificText  string `json:"specific_text"`
	TargetSection string `json:"target_section"`
}

// Parse turns a raw reflection response into typed suggestions. The JSON
// strategy is tried first for JSON-formatted responses; on decode failure
// (or a text-formatted response) the text fallback runs unless opts.Strict.
func Parse(resp models.ReflectionResponse, opts ParseOptions) (*models.ParsedReflection, error) {
	minSuggestions := opts.MinSuggestions
	if minSuggestions <= 0 {
		minSuggestions = defaultMinSuggestions
	}

	if resp.Format == models.FormatJSON || opts.Strict {
		parsed, err := parseJSON(resp.Content)
		if err == nil {
			parsed.Confidence = ScoreConfidence(parsed)
			return parsed, nil
		}
		if opts.Strict {
			return nil, err
		}
		slog.Debug("reflection JSON parse failed, using text fallback", "error", err)
	}

	parsed, err := parseText(resp.Content, minSuggestions)
	if err != nil {
		return nil, err
	}
	parsed.Confidence = ScoreConfidence(parsed)
	return parsed, nil
}

func parseJSON(content string) (*models.ParsedReflection, error) {
	var payload reflectionPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrJSONParse, err)
	}

	parsed := &models.ParsedReflection{
		Analysis:   payload.Analysis,
		RootCauses: payload.RootCauses,
	}

	for _, raw := range payload.Suggestions {
		sug, ok := mapSuggestion(raw)
		if !ok {
			parsed.DroppedCount++
			continue
		}
		parsed.Suggestions = append(parsed.Suggestions, sug)
	}

	if parsed.DroppedCount > 0 {
		slog.Debug("dropped malformed suggestions", "dropped", parsed.DroppedCount, "kept", len(parsed.Suggestions))
	}

	return parsed, nil
}

// mapSuggestion converts one raw suggestion entry. A bare string is
// accepted with modify/clarity defaults; an object with an unknown type
// or category is rejected so the caller can count the drop.
func mapSuggestion(raw json.RawMessage) (models.Suggestion, bool) {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		bare = strings.TrimSpace(bare)
		if bare == "" {
			return models.Suggestion{}, false
		}
		return models.Suggestion{
			Type:        models.SuggestionModify,
			Category:    models.CategoryClarity,
			Description: bare,
			Rationale:   bare,
			Priority:    models.PriorityMedium,
		}, true
	}

	var payload suggestionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Suggestion{}, false
	}

	if !models.ValidSuggestionType(payload.Type) {
		return models.Suggestion{}, false
	}
	if !models.ValidSuggestionCategory(payload.Category) {
		return models.Suggestion{}, false
	}

	priority := models.Priority(payload.Priority)
	if priority.Rank() == 0 {
		priority = models.PriorityMedium
	}

	return models.Suggestion{
		Type:          models.SuggestionType(payload.Type),
		Category:      models.SuggestionCategory(payload.Category),
		Description:   strings.TrimSpace(payload.Description),
		Rationale:     strings.TrimSpace(payload.Rationale),
		Priority:      priority,
		SpecificText:  payload.SpecificText,
		TargetSection: payload.TargetSection,
	}, true
}

// parseText is the fallback for free-text reflections: the first paragraph
// becomes the analysis, then each sentence that mentions an improvement
// verb yields one suggestion. Too few matches is the only hard failure on
// this path.
func parseText(content string, minSuggestions int) (*models.ParsedReflection, error) {
	trimmed := strings.TrimSpace(content)

	analysis := trimmed
	if idx := strings.Index(trimmed, "\n\n"); idx >= 0 {
		analysis = strings.TrimSpace(trimmed[:idx])
	}

	parsed := &models.ParsedReflection{Analysis: analysis}

	for _, sentence := range sentenceSplitRe.Split(trimmed, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		kind, ok := matchVerbRule(sentence)
		if !ok {
			continue
		}
		parsed.Suggestions = append(parsed.Suggestions, models.Suggestion{
			Type:        kind,
			Category:    models.CategoryClarity,
			Description: sentence,
			Rationale:   "extracted from reflection text",
			Priority:    models.PriorityMedium,
		})
	}

	if len(parsed.Suggestions) < minSuggestions {
		return nil, fmt.Errorf("%w: found %d, need %d",
			domain.ErrInsufficientSuggestions, len(parsed.Suggestions), minSuggestions)
	}

	return parsed, nil
}

func matchVerbRule(sentence string) (models.SuggestionType, bool) {
	for _, rule := range verbRules {
		if rule.pattern.MatchString(sentence) {
			return rule.kind, true
		}
	}
	return "", false
}

// Validate is a post-parse check: the analysis, the suggestion list, and
// every suggestion's description and rationale must be non-empty.
func Validate(parsed *models.ParsedReflection) error {
	if parsed == nil || strings.TrimSpace(parsed.Analysis) == "" {
		return domain.ErrEmptyAnalysis
	}
	if len(parsed.Suggestions) == 0 {
		return domain.ErrNoSuggestions
	}
	for i, sug := range parsed.Suggestions {
		if strings.TrimSpace(sug.Description) == "" || strings.TrimSpace(sug.Rationale) == "" {
			return fmt.Errorf("%w: suggestion %d", domain.ErrInvalidSuggestion, i)
		}
	}
	return nil
}
