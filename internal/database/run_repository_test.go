package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models"
)

var runRowColumns = []string{"id", "user_id", "mode", "scorer", "seed", "width", "height", "pieces",
	"score", "lines_cleared", "level", "game_over", "duration_ms", "created_at"}

func newMockRepo(t *testing.T) (RunRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRunRepository(db), mock
}

func TestCreateRun_AssignsIDAndTimestamp(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`INSERT INTO bot_runs`).
		WithArgs(sqlmock.AnyArg(), "user-1", "auto", "adaptive", int64(7), 10, 20, 100, 1200, 30, 7, false, int64(42), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	run := &models.Run{
		UserID: "user-1", Mode: "auto", Scorer: "adaptive", Seed: 7, Width: 10, Height: 20,
		Pieces: 100, Score: 1200, LinesCleared: 30, Level: 7, DurationMS: 42,
	}
	require.NoError(t, repo.CreateRun(context.Background(), run))
	assert.Len(t, run.ID, 36)
	assert.False(t, run.CreatedAt.IsZero())
}

func TestGetRun_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT .* FROM bot_runs WHERE id = \$1`).
		WithArgs("0b6f1a52-3c1e-4d2a-9f7e-5a8b9c0d1e2f").
		WillReturnRows(sqlmock.NewRows(runRowColumns))

	_, err := repo.GetRun(context.Background(), "0b6f1a52-3c1e-4d2a-9f7e-5a8b9c0d1e2f")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

// UUID でない ID はクエリを発行せずに見つからない扱いになる
func TestGetRun_MalformedID(t *testing.T) {
	repo, _ := newMockRepo(t)
	for _, id := range []string{"", "abc", "1; DROP TABLE bot_runs"} {
		_, err := repo.GetRun(context.Background(), id)
		assert.ErrorIs(t, err, ErrRunNotFound, id)
	}
}

func TestGetTopRuns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := sqlmock.NewRows(append(runRowColumns, "rank")).
		AddRow("a", "u", "auto", "adaptive", int64(1), 10, 20, 50, 900, 12, 3, true, int64(10), now, 1).
		AddRow("b", "u", "zen", "linear", int64(2), 10, 20, 50, 300, 4, 1, true, int64(12), now, 2)
	mock.ExpectQuery(`ROW_NUMBER\(\) OVER`).WithArgs(5).WillReturnRows(rows)

	runs, err := repo.GetTopRuns(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "a", runs[0].ID)
	assert.Equal(t, 1, runs[0].Rank)
	assert.Equal(t, 900, runs[0].Score)
	assert.Equal(t, "linear", runs[1].Scorer)
	assert.Equal(t, now, runs[1].CreatedAt)
}
