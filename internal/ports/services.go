package ports

import (
	"context"

	"github.com/longregen/gepa/internal/domain/models"
)

// Generator produces a response for a candidate prompt against a task.
// It is the pipeline's only external suspension point; transport, retries
// and model selection are the implementation's concern, not the pipeline's.
type Generator interface {
	Generate(ctx context.Context, prompt string, task models.TaskConfig) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string, task models.TaskConfig) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, task models.TaskConfig) (string, error) {
	return f(ctx, prompt, task)
}

// IDGenerator creates prefixed unique identifiers.
type IDGenerator interface {
	NewEdit() string
	NewRound() string
	NewEvaluation() string
}
