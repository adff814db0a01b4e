package models

// EditOperation is the concrete textual operation an edit performs.
type EditOperation string

const (
	OpInsert  EditOperation = "insert"
	OpReplace EditOperation = "replace"
	OpDelete  EditOperation = "delete"
	OpMove    EditOperation = "move"
)

// ValidEditOperation reports whether op is one of the four known operations.
func ValidEditOperation(op EditOperation) bool {
	switch op {
	case OpInsert, OpReplace, OpDelete, OpMove:
		return true
	}
	return false
}

// LocationType tags the PromptLocation union.
type LocationType string

const (
	LocStart      LocationType = "start"
	LocEnd        LocationType = "end"
	LocBefore     LocationType = "before"
	LocAfter      LocationType = "after"
	LocWithin     LocationType = "within"
	LocReplaceAll LocationType = "replace_all"
)

// LocationScope limits where a "within" pattern applies.
type LocationScope string

const (
	ScopePhrase  LocationScope = "phrase"
	ScopeSection LocationScope = "section"
	ScopePrompt  LocationScope = "prompt"
)

// PromptLocation is a tagged union describing where an edit lands.
// RelativeMarker is set for before/after; Pattern and Scope for within.
// A before/after/within location must resolve to an existing anchor or
// degrade to end during validation; it never silently vanishes.
type PromptLocation struct {
	Type           LocationType  `json:"type"`
	RelativeMarker string        `json:"relative_marker,omitempty"`
	Pattern        string        `json:"pattern,omitempty"`
	Scope          LocationScope `json:"scope,omitempty"`
}

// Validation warning values stored under MetaValidationWarning.
const (
	MetaValidationWarning = "validation_warning"

	WarnPatternNotFound = "pattern_not_found"
	WarnTargetNotFound  = "target_not_found"
)

// PromptEdit is a concrete, located textual operation derived from one
// Suggestion.
//
// Lifecycle: built unvalidated by the edit builder, annotated by the
// validator (Validated or warning metadata), then annotated by the
// conflict resolver (ConflictsWith populated for losers). Edits are never
// removed from a batch by the pipeline itself.
type PromptEdit struct {
	ID               string         `json:"id"`
	Operation        EditOperation  `json:"operation"`
	Location         PromptLocation `json:"location"`
	Content          string         `json:"content,omitempty"`
	TargetText       string         `json:"target_text,omitempty"`
	SourceSuggestion Suggestion     `json:"source_suggestion"`
	Rationale        string         `json:"rationale"`
	Priority         Priority       `json:"priority"`
	Validated        bool           `json:"validated"`
	ConflictsWith    []string       `json:"conflicts_with,omitempty"`
	ImpactScore      float64        `json:"impact_score"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// SetMeta sets a metadata key, allocating the map on first use.
func (e *PromptEdit) SetMeta(key string, value any) {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
}

// ValidationWarning returns the validation warning string, if any.
func (e *PromptEdit) ValidationWarning() (string, bool) {
	if e.Metadata == nil {
		return "", false
	}
	w, ok := e.Metadata[MetaValidationWarning].(string)
	return w, ok
}

// ConflictType classifies why a group of edits cannot all apply.
type ConflictType string

const (
	ConflictOverlapping   ConflictType = "overlapping"
	ConflictContradictory ConflictType = "contradictory"
)

// ResolutionStrategy selects the winner of a conflict group.
type ResolutionStrategy string

const (
	ResolveHighestImpact   ResolutionStrategy = "highest_impact"
	ResolveHighestPriority ResolutionStrategy = "highest_priority"
	ResolveFirst           ResolutionStrategy = "first"
)

// ConflictGroup is a transient record of edits that cannot all be applied
// together. It is computed per resolution pass and never persisted.
type ConflictGroup struct {
	Edits              []*PromptEdit      `json:"edits"`
	ConflictType       ConflictType       `json:"conflict_type"`
	ResolutionStrategy ResolutionStrategy `json:"resolution_strategy"`
	Resolved           bool               `json:"resolved"`
	SelectedEdit       *PromptEdit        `json:"selected_edit,omitempty"`
}
