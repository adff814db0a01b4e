package eval

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/longregen/gepa/internal/domain/models"
)

// ReasoningStrategy scores responses to reasoning problems: answer
// correctness against an expected answer, presence of visible solution
// steps, and a clarity heuristic.
type ReasoningStrategy struct {
	evaluator *Evaluator
}

// Fitness weights for reasoning tasks.
const (
	reasoningCorrectnessWeight = 0.6
	reasoningStepsWeight       = 0.25
	reasoningClarityWeight     = 0.15
)

// Answer extraction patterns, in priority order. First match wins.
var answerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:answer|result)\s*(?:is)?\s*[:=]\s*([^\n]+)`),
	regexp.MustCompile(`(?i)\b(?:therefore|thus|so),?\s+(?:the\s+answer\s+is\s+)?([^\n]+)`),
	regexp.MustCompile(`(-?\d+(?:\.\d+)?)\s*[.!]?\s*$`),
	regexp.MustCompile(`(?i)\b(yes|no|true|false)\s*[.!]?\s*$`),
}

var stepPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^\s*\d+[.)]\s`),
	regexp.MustCompile(`(?i)\b(first|second|third|then|next|finally)\b`),
	regexp.MustCompile(`(?i)\bstep\s+\d+`),
	regexp.MustCompile(`[.!?]\s+\p{Lu}`),
}

var logicalConnectorRe = regexp.MustCompile(`(?i)\b(because|since|therefore|thus|so|hence|given|implies)\b`)

func (s *ReasoningStrategy) Evaluate(ctx context.Context, prompt string, task *models.TaskConfig) (*models.EvaluationResult, error) {
	result, err := s.evaluator.EvaluatePrompt(ctx, prompt, task)
	if err != nil {
		return nil, err
	}
	if result.Failed() {
		return result, nil
	}

	response := result.Response()
	answer := ExtractAnswer(response)
	correctness := scoreCorrectness(answer, task.ExpectedAnswer)
	steps := stepsPresent(response)
	clarity := scoreClarity(response)

	stepScore := 0.0
	if steps {
		stepScore = 1.0
	}
	result.Fitness = reasoningCorrectnessWeight*correctness +
		reasoningStepsWeight*stepScore +
		reasoningClarityWeight*clarity
	result.Metrics["reasoning"] = map[string]any{
		"extracted_answer":   answer,
		"answer_correctness": correctness,
		"steps_present":      steps,
		"clarity":            clarity,
	}
	return result, nil
}

// ExtractAnswer pulls a final answer out of free text, falling back to
// the whole trimmed response when no pattern matches.
func ExtractAnswer(response string) string {
	trimmed := strings.TrimSpace(response)
	for _, re := range answerPatterns {
		if m := re.FindStringSubmatch(trimmed); m != nil {
			return strings.TrimRight(strings.TrimSpace(m[1]), ".!")
		}
	}
	return trimmed
}

// scoreCorrectness tiers: exact 1.0, numeric within tolerance 1.0,
// containment 0.7, mismatch 0.0. No expected answer means unknown, not
// penalized, so 0.5.
func scoreCorrectness(answer, expected string) float64 {
	if expected == "" {
		return 0.5
	}
	gotNorm := normalizeAnswer(answer)
	wantNorm := normalizeAnswer(expected)
	if gotNorm == wantNorm {
		return 1.0
	}
	if got, err1 := strconv.ParseFloat(gotNorm, 64); err1 == nil {
		if want, err2 := strconv.ParseFloat(wantNorm, 64); err2 == nil {
			if numericClose(got, want) {
				return 1.0
			}
		}
	}
	if gotNorm != "" && (strings.Contains(gotNorm, wantNorm) || strings.Contains(wantNorm, gotNorm)) {
		return 0.7
	}
	return 0.0
}

func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimRight(s, ".!?,;:")
}

// numericClose accepts relative closeness above 95%.
func numericClose(got, want float64) bool {
	if got == want {
		return true
	}
	larger := math.Max(math.Abs(got), math.Abs(want))
	if larger == 0 {
		return true
	}
	return 1.0-math.Abs(got-want)/larger > 0.95
}

func stepsPresent(response string) bool {
	for _, re := range stepPatterns {
		if re.MatchString(response) {
			return true
		}
	}
	return false
}

// scoreClarity blends word-count banding, logical connectors, and
// well-formed sentence endings into a 0..1 score.
func scoreClarity(response string) float64 {
	words := len(strings.Fields(response))
	score := 0.0
	switch {
	case words >= 10 && words <= 150:
		score += 0.5
	case words >= 5 && words <= 300:
		score += 0.3
	default:
		score += 0.1
	}
	if logicalConnectorRe.MatchString(response) {
		score += 0.25
	}
	if strings.ContainsAny(strings.TrimSpace(response), ".!?") {
		score += 0.25
	}
	return math.Min(score, 1.0)
}

// EvaluateBatch applies the same per-prompt scoring independently.
func (s *ReasoningStrategy) EvaluateBatch(ctx context.Context, prompts []string, task *models.TaskConfig) ([]*models.EvaluationResult, error) {
	return s.evaluator.EvaluateBatch(ctx, prompts, task)
}
