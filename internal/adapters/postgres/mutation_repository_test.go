package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longregen/gepa/internal/domain"
	"github.com/longregen/gepa/internal/domain/models"
	"github.com/longregen/gepa/internal/ports"
)

func testRound() *models.MutationRound {
	round := models.NewMutationRound("round_abc", "Solve the problem.")
	round.SuggestionCount = 2
	round.Confidence = models.ConfidenceHigh
	round.Edits = []*models.PromptEdit{
		{
			ID:        "edit_1",
			Operation: models.OpInsert,
			Location:  models.PromptLocation{Type: models.LocEnd},
			Content:   "Show all your work.",
			Priority:  models.PriorityHigh,
			Validated: true,
		},
	}
	round.AppliedEditIDs = []string{"edit_1"}
	return round
}

func roundRows(t *testing.T, round *models.MutationRound) *pgxmock.Rows {
	t.Helper()
	editsJSON, appliedJSON, evalJSON, err := marshalRound(round)
	require.NoError(t, err)

	return pgxmock.NewRows([]string{
		"id", "prompt_text", "candidate_text", "status", "suggestion_count", "dropped_count",
		"confidence", "edits", "applied_edit_ids", "fitness", "evaluation", "error_message",
		"started_at", "completed_at", "created_at", "updated_at",
	}).AddRow(
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
}

func TestMutationRepository_CreateRound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
	round := testRound()

	mock.ExpectExec("INSERT INTO mutation_rounds").
		WithArgs(
			round.ID, round.PromptText, sql.NullString{}, round.Status,
			round.SuggestionCount, round.DroppedCount,
			nullString(string(round.Confidence)),
			pgxmock.AnyArg(), pgxmock.AnyArg(), round.Fitness, pgxmock.AnyArg(),
			sql.NullString{}, round.StartedAt, sql.NullTime{},
			round.CreatedAt, round.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.CreateRound(setupMockContext(mock), round)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMutationRepository_GetRound(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
		round := testRound()

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds WHERE id").
			WithArgs(round.ID).
			WillReturnRows(roundRows(t, round))

		got, err := repo.GetRound(setupMockContext(mock), round.ID)
		require.NoError(t, err)
		assert.Equal(t, round.ID, got.ID)
		assert.Equal(t, round.PromptText, got.PromptText)
		assert.Equal(t, models.ConfidenceHigh, got.Confidence)
		require.Len(t, got.Edits, 1)
		assert.Equal(t, "edit_1", got.Edits[0].ID)
		assert.Equal(t, models.OpInsert, got.Edits[0].Operation)
		assert.Equal(t, []string{"edit_1"}, got.AppliedEditIDs)
		assert.Nil(t, got.Evaluation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds WHERE id").
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetRound(setupMockContext(mock), "missing")
		assert.ErrorIs(t, err, domain.ErrRoundNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMutationRepository_UpdateRound(t *testing.T) {
	t.Run("updates existing round", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
		round := testRound()
		round.MarkCompleted("Solve the problem.\n\nShow all your work.", 0.8)

		mock.ExpectExec("UPDATE mutation_rounds").
			WithArgs(
				nullString(round.CandidateText), round.Status,
				round.SuggestionCount, round.DroppedCount,
				nullString(string(round.Confidence)),
				pgxmock.AnyArg(), pgxmock.AnyArg(), round.Fitness, pgxmock.AnyArg(),
				sql.NullString{}, nullTime(round.CompletedAt), round.UpdatedAt,
				round.ID,
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err = repo.UpdateRound(setupMockContext(mock), round)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing round", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
		round := testRound()

		mock.ExpectExec("UPDATE mutation_rounds").
			WithArgs(
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(),
			).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.UpdateRound(setupMockContext(mock), round)
		assert.ErrorIs(t, err, domain.ErrRoundNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMutationRepository_ListRounds(t *testing.T) {
	t.Run("with status filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
		round := testRound()
		round.MarkCompleted("candidate", 0.7)

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds WHERE status").
			WithArgs("completed", 10, 0).
			WillReturnRows(roundRows(t, round))

		rounds, err := repo.ListRounds(setupMockContext(mock), ports.ListRoundsOptions{
			Status: "completed",
			Limit:  10,
		})
		require.NoError(t, err)
		require.Len(t, rounds, 1)
		assert.Equal(t, round.ID, rounds[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("default limit without filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds ORDER BY created_at").
			WithArgs(50, 0).
			WillReturnRows(roundRows(t, testRound()))

		rounds, err := repo.ListRounds(setupMockContext(mock), ports.ListRoundsOptions{})
		require.NoError(t, err)
		assert.Len(t, rounds, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMutationRepository_GetBestRound(t *testing.T) {
	t.Run("returns highest fitness", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}
		round := testRound()
		round.MarkCompleted("candidate", 0.92)

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds WHERE status = 'completed'").
			WillReturnRows(roundRows(t, round))

		best, err := repo.GetBestRound(setupMockContext(mock))
		require.NoError(t, err)
		assert.Equal(t, round.ID, best.ID)
		assert.InDelta(t, 0.92, best.Fitness, 1e-9)
		require.NotNil(t, best.CompletedAt)
		assert.WithinDuration(t, time.Now().UTC(), *best.CompletedAt, time.Minute)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no completed rounds", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := &MutationRepository{BaseRepository: BaseRepository{pool: nil}}

		mock.ExpectQuery("SELECT (.+) FROM mutation_rounds WHERE status = 'completed'").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.GetBestRound(setupMockContext(mock))
		assert.ErrorIs(t, err, domain.ErrRoundNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
