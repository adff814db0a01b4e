package models

import "time"

// MutationRound records one pass of the pipeline: a reflection parsed into
// suggestions, the edits produced, and the fitness of the resulting
// candidate prompt.
type MutationRound struct {
	ID               string            `json:"id"`
	PromptText       string            `json:"prompt_text"`
	CandidateText    string            `json:"candidate_text,omitempty"`
	Status           string            `json:"status"` // "running", "completed", "failed"
	SuggestionCount  int               `json:"suggestion_count"`
	DroppedCount     int               `json:"dropped_count"`
	Confidence       ConfidenceTier    `json:"confidence,omitempty"`
	Edits            []*PromptEdit     `json:"edits,omitempty"`
	AppliedEditIDs   []string          `json:"applied_edit_ids,omitempty"`
	Fitness          float64           `json:"fitness"`
	Evaluation       *EvaluationResult `json:"evaluation,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// MutationRound status values
const (
	RoundStatusRunning   = "running"
	RoundStatusCompleted = "completed"
	RoundStatusFailed    = "failed"
)

func NewMutationRound(id, promptText string) *MutationRound {
	now := time.Now().UTC()
	return &MutationRound{
		ID:         id,
		PromptText: promptText,
		Status:     RoundStatusRunning,
		StartedAt:  now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *MutationRound) MarkCompleted(candidate string, fitness float64) {
	now := time.Now().UTC()
	r.Status = RoundStatusCompleted
	r.CandidateText = candidate
	r.Fitness = fitness
	r.CompletedAt = &now
	r.UpdatedAt = now
}

func (r *MutationRound) MarkFailed(errMsg string) {
	now := time.Now().UTC()
	r.Status = RoundStatusFailed
	r.ErrorMessage = errMsg
	r.CompletedAt = &now
	r.UpdatedAt = now
}
