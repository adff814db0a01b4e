package ports

import (
	"context"

	"github.com/longregen/gepa/internal/domain/models"
)

// ListRoundsOptions filters and paginates round listings.
type ListRoundsOptions struct {
	Status string
	Limit  int
	Offset int
}

// MutationRoundRepository persists pipeline rounds and their outcomes.
type MutationRoundRepository interface {
	CreateRound(ctx context.Context, round *models.MutationRound) error
	GetRound(ctx context.Context, id string) (*models.MutationRound, error)
	UpdateRound(ctx context.Context, round *models.MutationRound) error
	ListRounds(ctx context.Context, opts ListRoundsOptions) ([]*models.MutationRound, error)
	GetBestRound(ctx context.Context) (*models.MutationRound, error)
}
