package eval

import (
	"context"
	"regexp"
	"strings"

	"github.com/longregen/gepa/internal/domain/models"
)

// QAStrategy scores question-answering responses on accuracy, relevance,
// and completeness, with a hallucination penalty when a grounding context
// is supplied.
type QAStrategy struct {
	evaluator *Evaluator
}

const (
	qaAccuracyWeight     = 0.6
	qaRelevanceWeight    = 0.25
	qaCompletenessWeight = 0.15

	// Grounding tier: share of answer words that must appear in the
	// context for the 0.6 accuracy fallback.
	groundedOverlapThreshold = 0.7
	// Hallucination: share of answer words absent from the context.
	hallucinationThreshold = 0.5
	hallucinationPenalty   = 0.5
)

// Minimum word counts per question type for full completeness credit.
var completenessMinima = map[string]int{
	"why":  15,
	"how":  20,
	"what": 10,
}

const completenessDefaultMin = 5

// Type-appropriate answer patterns. A when answer should carry a year or
// time word; a who answer a capitalized name; and so on.
var typePatterns = map[string]*regexp.Regexp{
	"when":  regexp.MustCompile(`(?i)\b(\d{4}|\d{1,2}:\d{2}|january|february|march|april|may|june|july|august|september|october|november|december|monday|tuesday|wednesday|thursday|friday|saturday|sunday|today|yesterday|tomorrow|year|month|week|day|century|decade)\b`),
	"where": regexp.MustCompile(`(?i)\b(in|at|on|near|north|south|east|west|city|country|region|located)\b`),
	"who":   regexp.MustCompile(`\p{Lu}\p{Ll}+`),
	"why":   regexp.MustCompile(`(?i)\b(because|since|due to|as a result|reason)\b`),
	"how":   regexp.MustCompile(`(?i)\b(by|through|using|first|then|step|process)\b`),
}

func (s *QAStrategy) Evaluate(ctx context.Context, prompt string, task *models.TaskConfig) (*models.EvaluationResult, error) {
	result, err := s.evaluator.EvaluatePrompt(ctx, prompt, task)
	if err != nil {
		return nil, err
	}
	if result.Failed() {
		return result, nil
	}

	answer := strings.TrimSpace(result.Response())
	questionType := task.QuestionType
	if questionType == "" {
		questionType = DetectQuestionType(task.Question)
	}

	accuracy := scoreAccuracy(answer, task.ExpectedAnswer, task.Context)
	relevance := scoreRelevance(answer, task.Question, questionType)
	completeness := scoreCompleteness(answer, questionType)
	hallucinated := containsHallucination(answer, task.Context)

	fitness := qaAccuracyWeight*accuracy +
		qaRelevanceWeight*relevance +
		qaCompletenessWeight*completeness
	if hallucinated {
		fitness *= hallucinationPenalty
	}

	result.Fitness = fitness
	result.Metrics["question_answering"] = map[string]any{
		"question_type":          questionType,
		"accuracy":               accuracy,
		"relevance":              relevance,
		"completeness":           completeness,
		"contains_hallucination": hallucinated,
	}
	return result, nil
}

// DetectQuestionType classifies a question by its leading word.
func DetectQuestionType(question string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(question)))
	if len(fields) == 0 {
		return "unknown"
	}
	switch first := strings.TrimRight(fields[0], ",:"); first {
	case "who", "what", "when", "where", "why", "how", "which":
		return first
	default:
		return "unknown"
	}
}

// scoreAccuracy mirrors the reasoning tiers and adds a grounded-in-context
// tier worth 0.6 when no stronger match applies.
func scoreAccuracy(answer, expected, context string) float64 {
	if expected != "" {
		if score := scoreCorrectness(answer, expected); score > 0 {
			return score
		}
	}
	if context != "" && wordOverlapRatio(answer, context) >= groundedOverlapThreshold {
		return 0.6
	}
	if expected == "" && context == "" {
		return 0.5
	}
	return 0.0
}

func scoreRelevance(answer, question, questionType string) float64 {
	score := 0.0
	if re, ok := typePatterns[questionType]; ok {
		if re.MatchString(answer) {
			score += 0.5
		}
	} else {
		// Unknown or which: no pattern expectation to miss.
		score += 0.5
	}

	overlap := keywordOverlapRatio(question, answer)
	switch {
	case overlap >= 0.5:
		score += 0.5
	case overlap >= 0.2:
		score += 0.3
	case overlap > 0:
		score += 0.1
	}
	return score
}

func scoreCompleteness(answer, questionType string) float64 {
	min, ok := completenessMinima[questionType]
	if !ok {
		min = completenessDefaultMin
	}
	words := len(strings.Fields(answer))
	if words >= min {
		return 1.0
	}
	if min == 0 {
		return 1.0
	}
	return float64(words) / float64(min)
}

// containsHallucination is heuristic: more than half the answer's words
// missing from the context. Never true without a context to check against.
func containsHallucination(answer, context string) bool {
	if context == "" {
		return false
	}
	words := contentWords(answer)
	if len(words) == 0 {
		return false
	}
	contextWords := wordSet(context)
	missing := 0
	for _, w := range words {
		if !contextWords[w] {
			missing++
		}
	}
	return float64(missing)/float64(len(words)) > hallucinationThreshold
}

// wordOverlapRatio is the share of answer words present in the reference.
func wordOverlapRatio(answer, reference string) float64 {
	words := contentWords(answer)
	if len(words) == 0 {
		return 0
	}
	ref := wordSet(reference)
	found := 0
	for _, w := range words {
		if ref[w] {
			found++
		}
	}
	return float64(found) / float64(len(words))
}

// keywordOverlapRatio is the share of the question's content words echoed
// in the answer.
func keywordOverlapRatio(question, answer string) float64 {
	keywords := contentWords(question)
	if len(keywords) == 0 {
		return 0
	}
	ans := wordSet(answer)
	found := 0
	for _, w := range keywords {
		if ans[w] {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

var qaStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "of": true, "to": true, "in": true,
	"and": true, "or": true, "it": true, "that": true, "this": true,
	"what": true, "who": true, "when": true, "where": true, "why": true,
	"how": true, "which": true, "do": true, "does": true, "did": true,
}

func contentWords(text string) []string {
	var out []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?;:\"'()")
		if w == "" || qaStopWords[w] {
			continue
		}
		out = append(out, w)
	}
	return out
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		set[strings.Trim(w, ".,!?;:\"'()")] = true
	}
	return set
}

// EvaluateBatch applies the same per-prompt scoring independently.
func (s *QAStrategy) EvaluateBatch(ctx context.Context, prompts []string, task *models.TaskConfig) ([]*models.EvaluationResult, error) {
	return s.evaluator.EvaluateBatch(ctx, prompts, task)
}
