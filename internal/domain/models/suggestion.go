package models

import "time"

// SuggestionType classifies the kind of change a reflection proposes.
// The value set is closed; anything else is dropped at parse time.
type SuggestionType string

const (
	SuggestionAdd         SuggestionType = "add"
	SuggestionModify      SuggestionType = "modify"
	SuggestionRemove      SuggestionType = "remove"
	SuggestionRestructure SuggestionType = "restructure"
)

// ValidSuggestionType reports whether s is one of the four known types.
func ValidSuggestionType(s string) bool {
	switch SuggestionType(s) {
	case SuggestionAdd, SuggestionModify, SuggestionRemove, SuggestionRestructure:
		return true
	}
	return false
}

// SuggestionCategory names the aspect of the prompt a suggestion targets.
type SuggestionCategory string

const (
	CategoryClarity    SuggestionCategory = "clarity"
	CategoryConstraint SuggestionCategory = "constraint"
	CategoryExample    SuggestionCategory = "example"
	CategoryStructure  SuggestionCategory = "structure"
	CategoryReasoning  SuggestionCategory = "reasoning"
)

// ValidSuggestionCategory reports whether s is one of the five known categories.
func ValidSuggestionCategory(s string) bool {
	switch SuggestionCategory(s) {
	case CategoryClarity, CategoryConstraint, CategoryExample, CategoryStructure, CategoryReasoning:
		return true
	}
	return false
}

// Priority orders suggestions and edits for conflict resolution.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank maps a priority to a comparable integer (higher wins).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Suggestion is an abstract, reflector-proposed change to a prompt.
// Instances are created only by the reflection parser and are treated
// as immutable downstream.
type Suggestion struct {
	Type          SuggestionType     `json:"type"`
	Category      SuggestionCategory `json:"category"`
	Description   string             `json:"description"`
	Rationale     string             `json:"rationale"`
	Priority      Priority           `json:"priority"`
	SpecificText  string             `json:"specific_text,omitempty"`
	TargetSection string             `json:"target_section,omitempty"`
}

// ConfidenceTier buckets the parser's confidence in a parsed reflection.
type ConfidenceTier string

const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

// ReflectionFormat indicates how the reflector produced its critique.
type ReflectionFormat string

const (
	FormatJSON ReflectionFormat = "json"
	FormatText ReflectionFormat = "text"
)

// ReflectionResponse is the raw critique produced by the external reflector.
// Only Content is parsed; Metadata is carried through untouched.
type ReflectionResponse struct {
	Content   string           `json:"content"`
	Format    ReflectionFormat `json:"format"`
	Timestamp time.Time        `json:"timestamp,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
}

// ParsedReflection is the typed result of parsing a reflection response.
// DroppedCount records suggestions discarded for unknown type/category
// so the lenience policy stays observable.
type ParsedReflection struct {
	Analysis     string         `json:"analysis"`
	RootCauses   []string       `json:"root_causes"`
	Suggestions  []Suggestion   `json:"suggestions"`
	DroppedCount int            `json:"dropped_count"`
	Confidence   ConfidenceTier `json:"confidence"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}
