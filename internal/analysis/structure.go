// Package analysis builds a best-effort structural index of a prompt.
//
// The index biases edit placement downstream; it is intentionally lossy
// and makes no parsing correctness guarantees.
package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
)

// Static keyword lists, matched by lowercase substring search. Detection is
// boolean, no partial credit.
var (
	cotTriggers = []string{
		"step by step",
		"step-by-step",
		"think through",
		"reason about",
		"let's think",
		"show your work",
		"explain your reasoning",
	}

	constraintIndicators = []string{
		"must",
		"should",
		"always",
		"never",
		"do not",
		"don't",
		"avoid",
		"require",
		"only",
		"limit",
	}

	exampleIndicators = []string{
		"for example",
		"e.g.",
		"example:",
		"such as",
		"for instance",
	}

	imperativeVerbs = []string{
		"write",
		"list",
		"explain",
		"describe",
		"solve",
		"create",
		"provide",
		"answer",
		"summarize",
		"generate",
	}
)

var (
	numberedListRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s`)
	bulletListRe   = regexp.MustCompile(`(?m)^\s*[-*•]\s`)
	sentenceEndRe  = regexp.MustCompile(`[.!?]+`)
	exampleLineRe  = regexp.MustCompile(`(?i)(for example|e\.g\.|example:|such as)[^\n]*`)
	paragraphRe    = regexp.MustCompile(`\n\s*\n`)
)

const (
	simpleLengthLimit  = 100
	complexLengthLimit = 500
	shortPromptLimit   = 200
)

// Analyze indexes one prompt snapshot. It fails only when the prompt is
// empty or whitespace; every other input yields a structure.
func Analyze(prompt string) (*models.PromptStructure, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("analyze prompt: %w", domain.ErrInvalidPrompt)
	}

	lower := strings.ToLower(prompt)

	structure := &models.PromptStructure{
		RawText:        prompt,
		Length:         len(prompt),
		HasExamples:    containsAny(lower, exampleIndicators),
		HasConstraints: containsAny(lower, constraintIndicators),
		HasCoTTrigger:  containsAny(lower, cotTriggers),
	}

	structure.Patterns = models.Patterns{
		HasNumberedList: numberedListRe.MatchString(prompt),
		HasBulletList:   bulletListRe.MatchString(prompt),
		HasCoTTrigger:   structure.HasCoTTrigger,
		HasImperative:   containsAny(lower, imperativeVerbs),
		HasQuestion:     strings.Contains(prompt, "?"),
		Multiline:       strings.Contains(prompt, "\n"),
	}

	structure.Sections = detectSections(prompt, lower, structure)
	structure.Complexity = classifyComplexity(prompt, len(structure.Sections))

	return structure, nil
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func countSentences(text string) int {
	parts := sentenceEndRe.Split(text, -1)
	count := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return count
}

func classifyComplexity(prompt string, sectionCount int) models.Complexity {
	length := len(prompt)
	sentences := countSentences(prompt)

	switch {
	case length > complexLengthLimit || sentences > 10 || sectionCount > 1:
		return models.ComplexityComplex
	case length < simpleLengthLimit && sentences <= 2:
		return models.ComplexitySimple
	default:
		return models.ComplexityModerate
	}
}

// detectSections applies the section heuristics in order: a whole-prompt
// "instructions" section for short example-free prompts, a "constraints"
// section carved out of constraint-bearing paragraphs, an "examples"
// section anchored on the first example marker. When nothing fires the
// whole prompt becomes one "main" section.
func detectSections(prompt, lower string, s *models.PromptStructure) []models.Section {
	var sections []models.Section

	if len(prompt) < shortPromptLimit && !s.HasExamples {
		sections = append(sections, models.Section{
			Name:    "instructions",
			Start:   0,
			End:     len(prompt),
			Content: prompt,
		})
	}

	if s.HasConstraints {
		if sec, ok := findConstraintSection(prompt); ok {
			sections = append(sections, sec)
		}
	}

	if s.HasExamples {
		if loc := exampleLineRe.FindStringIndex(prompt); loc != nil {
			sections = append(sections, models.Section{
				Name:    "examples",
				Start:   loc[0],
				End:     loc[1],
				Content: prompt[loc[0]:loc[1]],
			})
		}
	}

	if len(sections) == 0 {
		sections = append(sections, models.Section{
			Name:    "main",
			Start:   0,
			End:     len(prompt),
			Content: prompt,
		})
	}

	return sections
}

// findConstraintSection locates the first paragraph containing a constraint
// keyword. Offsets are computed by summing the lengths of the paragraphs
// (and separators) preceding it.
func findConstraintSection(prompt string) (models.Section, bool) {
	separators := paragraphRe.FindAllStringIndex(prompt, -1)
	paragraphs := paragraphRe.Split(prompt, -1)

	offset := 0
	for i, para := range paragraphs {
		if containsAny(strings.ToLower(para), constraintIndicators) {
			return models.Section{
				Name:    "constraints",
				Start:   offset,
				End:     offset + len(para),
				Content: para,
			}, true
		}
		offset += len(para)
		if i < len(separators) {
			offset += separators[i][1] - separators[i][0]
		}
	}
	return models.Section{}, false
}
