package domain

import "errors"

// Common domain errors
var (
	// Structure analysis errors
	ErrInvalidPrompt = errors.New("prompt must be a non-empty string")

	// Reflection parsing errors
	ErrJSONParse               = errors.New("reflection content is not valid JSON")
	ErrInsufficientSuggestions = errors.New("too few suggestions extracted from reflection")
	ErrEmptyAnalysis           = errors.New("reflection analysis cannot be empty")
	ErrNoSuggestions           = errors.New("reflection contains no suggestions")
	ErrInvalidSuggestion       = errors.New("suggestion is missing required fields")

	// Edit synthesis errors
	ErrNoContentGenerated           = errors.New("no content could be generated for edit")
	ErrCannotIdentifyDeletionTarget = errors.New("cannot identify deletion target")

	// Edit validation errors
	ErrUnknownOperation  = errors.New("unknown edit operation")
	ErrMissingContent    = errors.New("edit requires non-empty content")
	ErrMissingTargetText = errors.New("edit requires target text")

	// Evaluation errors
	ErrGenerationFailed = errors.New("response generation failed")
	ErrMissingTask      = errors.New("evaluation requires a task descriptor")

	// Persistence errors
	ErrRoundNotFound = errors.New("mutation round not found")
)

// DomainError wraps a domain error with additional context
type DomainError struct {
	Err     error
	Message string
	Code    string
}

func NewDomainError(err error, message string) *DomainError {
	return &DomainError{Err: err, Message: message}
}

// NewDomainErrorWithCode tags the error with a machine-readable code for
// transport layers to surface.
func NewDomainErrorWithCode(err error, message, code string) *DomainError {
	return &DomainError{Err: err, Message: message, Code: code}
}

func (e *DomainError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}
