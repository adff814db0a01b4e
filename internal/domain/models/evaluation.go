package models

import "time"

// TaskType selects the scoring strategy applied on top of the generic
// evaluator.
type TaskType string

const (
	TaskGeneric           TaskType = "generic"
	TaskReasoning         TaskType = "reasoning"
	TaskQuestionAnswering TaskType = "question_answering"
)

// TaskConfig describes the task a candidate prompt is evaluated against.
// Question doubles as the problem statement for reasoning tasks.
type TaskConfig struct {
	Type           TaskType `json:"type"`
	Question       string   `json:"question,omitempty"`
	ExpectedAnswer string   `json:"expected_answer,omitempty"`
	Context        string   `json:"context,omitempty"`
	QuestionType   string   `json:"question_type,omitempty"`
	AnswerType     string   `json:"answer_type,omitempty"`
	RequiresSteps  bool     `json:"requires_steps,omitempty"`
}

// Trajectory captures the raw execution trace of one evaluation.
type Trajectory struct {
	Prompt     string         `json:"prompt"`
	StartedAt  time.Time      `json:"started_at"`
	DurationMs int64          `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// EvaluationResult is the fitness-bearing outcome of scoring one candidate
// prompt against a task. Immutable once returned; a cancelled or failed
// generation surfaces here as Error, never as a fault across the pipeline
// boundary.
type EvaluationResult struct {
	Fitness    float64        `json:"fitness"`
	Metrics    map[string]any `json:"metrics,omitempty"`
	Trajectory *Trajectory    `json:"trajectory,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// Failed reports whether the evaluation carries an error.
func (r *EvaluationResult) Failed() bool {
	return r.Error != ""
}

// Response returns the generated response text recorded in the trajectory,
// or "" when the evaluation failed before generation completed.
func (r *EvaluationResult) Response() string {
	if r.Trajectory == nil || r.Trajectory.Metadata == nil {
		return ""
	}
	s, _ := r.Trajectory.Metadata["response"].(string)
	return s
}
