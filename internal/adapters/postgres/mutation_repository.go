package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

// MutationRepository implements ports.MutationRoundRepository on top of a
// mutation_rounds table. Edits and evaluation results are stored as jsonb
// so a round can be replayed without joins.
type MutationRepository struct {
	BaseRepository
}

func NewMutationRepository(pool *pgxpool.Pool) *MutationRepository {
	return &MutationRepository{
		BaseRepository: NewBaseRepository(pool),
	}
}

const roundColumns = `
	id, prompt_text, candidate_text, status, suggestion_count, dropped_count,
	confidence, edits, applied_edit_ids, fitness, evaluation, error_message,
	started_at, completed_at, created_at, updated_at`

func (r *MutationRepository) CreateRound(ctx context.Context, round *models.MutationRound) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	editsJSON, appliedJSON, evalJSON, err := marshalRound(round)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO mutation_rounds (` + roundColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)`

	_, err = r.conn(ctx).Exec(ctx, query,
		round.ID,
		round.PromptText,
		nullString(round.CandidateText),
		round.Status,
		round.SuggestionCount,
		round.DroppedCount,
		nullString(string(round.Confidence)),
		editsJSON,
		appliedJSON,
		round.Fitness,
		evalJSON,
		nullString(round.ErrorMessage),
		round.StartedAt,
		nullTime(round.CompletedAt),
		round.CreatedAt,
		round.UpdatedAt,
	)
	return err
}

func (r *MutationRepository) GetRound(ctx context.Context, id string) (*models.MutationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + roundColumns + ` FROM mutation_rounds WHERE id = $1`
	return scanRound(r.conn(ctx).QueryRow(ctx, query, id))
}

func (r *MutationRepository) UpdateRound(ctx context.Context, round *models.MutationRound) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	editsJSON, appliedJSON, evalJSON, err := marshalRound(round)
	if err != nil {
		return err
	}

	query := `
		UPDATE mutation_rounds
		SET candidate_text = $1, status = $2, suggestion_count = $3,
			dropped_count = $4, confidence = $5, edits = $6,
			applied_edit_ids = $7, fitness = $8, evaluation = $9,
			error_message = $10, completed_at = $11, updated_at = $12
		WHERE id = $13`

	result, err := r.conn(ctx).Exec(ctx, query,
		nullString(round.CandidateText),
		round.Status,
		round.SuggestionCount,
		round.DroppedCount,
		nullString(string(round.Confidence)),
		editsJSON,
		appliedJSON,
		round.Fitness,
		evalJSON,
		nullString(round.ErrorMessage),
		nullTime(round.CompletedAt),
		round.UpdatedAt,
		round.ID,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return domain.ErrRoundNotFound
	}
	return nil
}

func (r *MutationRepository) ListRounds(ctx context.Context, opts ports.ListRoundsOptions) ([]*models.MutationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + roundColumns + ` FROM mutation_rounds`
	args := []any{}
	if opts.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, opts.Status)
	}
	query += ` ORDER BY created_at DESC`
	args = append(args, limit, opts.Offset)
	if opts.Status != "" {
		query += ` LIMIT $2 OFFSET $3`
	} else {
		query += ` LIMIT $1 OFFSET $2`
	}

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []*models.MutationRound
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	return rounds, rows.Err()
}

// GetBestRound returns the completed round with the highest fitness.
func (r *MutationRepository) GetBestRound(ctx context.Context) (*models.MutationRound, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + roundColumns + `
		FROM mutation_rounds
		WHERE status = 'completed'
		ORDER BY fitness DESC, completed_at DESC
		LIMIT 1`
	return scanRound(r.conn(ctx).QueryRow(ctx, query))
}

func marshalRound(round *models.MutationRound) (editsJSON, appliedJSON, evalJSON []byte, err error) {
	if len(round.Edits) > 0 {
		if editsJSON, err = json.Marshal(round.Edits); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(round.AppliedEditIDs) > 0 {
		if appliedJSON, err = json.Marshal(round.AppliedEditIDs); err != nil {
			return nil, nil, nil, err
		}
	}
	if evalJSON, err = marshalJSONField(round.Evaluation); err != nil {
		return nil, nil, nil, err
	}
	return editsJSON, appliedJSON, evalJSON, nil
}

func scanRound(row pgx.Row) (*models.MutationRound, error) {
	var round models.MutationRound
	var candidateText, confidence, errorMessage sql.NullString
	var editsJSON, appliedJSON, evalJSON []byte
	var completedAt sql.NullTime

	err := row.Scan(
		&round.ID,
		&round.PromptText,
		&candidateText,
		&round.Status,
		&round.SuggestionCount,
		&round.DroppedCount,
		&confidence,
		&editsJSON,
		&appliedJSON,
		&round.Fitness,
		&evalJSON,
		&errorMessage,
		&round.StartedAt,
		&completedAt,
		&round.CreatedAt,
		&round.UpdatedAt,
	)
	if err != nil {
		if checkNoRows(err) {
			return nil, domain.ErrRoundNotFound
		}
		return nil, err
	}

	round.CandidateText = getString(candidateText)
	round.Confidence = models.ConfidenceTier(getString(confidence))
	round.ErrorMessage = getString(errorMessage)
	round.CompletedAt = getTimePtr(completedAt)

	if round.Edits, err = unmarshalJSONSlice[*models.PromptEdit](editsJSON); err != nil {
		return nil, err
	}
	if round.AppliedEditIDs, err = unmarshalJSONSlice[string](appliedJSON); err != nil {
		return nil, err
	}
	if round.Evaluation, err = unmarshalJSONPointer[models.EvaluationResult](evalJSON); err != nil {
		return nil, err
	}
	return &round, nil
}
