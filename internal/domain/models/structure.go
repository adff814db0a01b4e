package models

// Complexity is a coarse classification of prompt structure.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Section is a best-effort slice of the prompt identified by the analyzer.
// Start and End are byte offsets into the raw prompt text.
type Section struct {
	Name    string `json:"name"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Content string `json:"content"`
}

// Patterns holds boolean structure signals detected in the prompt.
type Patterns struct {
	HasNumberedList bool `json:"has_numbered_list"`
	HasBulletList   bool `json:"has_bullet_list"`
	HasCoTTrigger   bool `json:"has_cot_trigger"`
	HasImperative   bool `json:"has_imperative"`
	HasQuestion     bool `json:"has_question"`
	Multiline       bool `json:"multiline"`
}

// PromptStructure is an immutable index of one prompt snapshot. It is a
// lossy, best-effort guide for edit placement, not a parse tree; a new
// prompt version requires a fresh analysis.
type PromptStructure struct {
	RawText        string     `json:"raw_text"`
	Length         int        `json:"length"`
	HasExamples    bool       `json:"has_examples"`
	HasConstraints bool       `json:"has_constraints"`
	HasCoTTrigger  bool       `json:"has_cot_trigger"`
	Complexity     Complexity `json:"complexity"`
	Sections       []Section  `json:"sections"`
	Patterns       Patterns   `json:"patterns"`
}

// FindSection returns the first section whose name matches (case-insensitive
// match is the builder's concern; this is an exact lookup).
func (s *PromptStructure) FindSection(name string) (Section, bool) {
	for _, sec := range s.Sections {
		if sec.Name == name {
			return sec, true
		}
	}
	return Section{}, false
}
