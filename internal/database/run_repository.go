package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models"
)

// ErrRunNotFound は指定されたIDの自己対戦結果が無い場合に返されます。
var ErrRunNotFound = errors.New("run not found")

// RunRepository は自己対戦結果のデータベース操作を定義するインターフェースです。
type RunRepository interface {
	// CreateRun は結果を保存します。ID と CreatedAt が空なら採番します。
	CreateRun(ctx context.Context, run *models.Run) error

	// GetRun は1件の結果を取得します
	GetRun(ctx context.Context, id string) (*models.Run, error)

	// GetTopRuns はスコア上位N件の結果を取得します（ランキング用）
	GetTopRuns(ctx context.Context, limit int) ([]models.RunResponse, error)
}

// runRepositoryImpl はRunRepositoryインターフェースの実装です。
type runRepositoryImpl struct {
	db *sql.DB
}

// NewRunRepository はRunRepositoryの新しいインスタンスを作成します。
func NewRunRepository(db *sql.DB) RunRepository {
	return &runRepositoryImpl{db: db}
}

const runColumns = `id, user_id, mode, scorer, seed, width, height, pieces, score, lines_cleared, level, game_over, duration_ms, created_at`

// CreateRun は新しい自己対戦結果レコードを作成します。
func (r *runRepositoryImpl) CreateRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bot_runs (`+runColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		run.ID, run.UserID, run.Mode, run.Scorer, run.Seed, run.Width, run.Height,
		run.Pieces, run.Score, run.LinesCleared, run.Level, run.GameOver, run.DurationMS, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("自己対戦結果の保存に失敗しました: %w", err)
	}
	return nil
}

// GetRun は1件の自己対戦結果を取得します。
// UUID として解釈できない ID はデータベースに問い合わせず ErrRunNotFound を返します。
func (r *runRepositoryImpl) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrRunNotFound, id)
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM bot_runs WHERE id = $1`, id)

	var run models.Run
	err := scanRun(row, &run)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("自己対戦結果の取得に失敗しました: %w", err)
	}
	return &run, nil
}

// GetTopRuns はスコア上位N件の結果を取得します。
func (r *runRepositoryImpl) GetTopRuns(ctx context.Context, limit int) ([]models.RunResponse, error) {
	query := `
		SELECT ` + runColumns + `,
			ROW_NUMBER() OVER (ORDER BY score DESC, created_at ASC) AS rank
		FROM bot_runs
		ORDER BY score DESC, created_at ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("自己対戦結果の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	results := []models.RunResponse{}
	for rows.Next() {
		var res models.RunResponse
		if err := scanRun(rows, &res.Run, &res.Rank); err != nil {
			return nil, fmt.Errorf("自己対戦結果のスキャンに失敗しました: %w", err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("自己対戦結果の取得中にエラーが発生しました: %w", err)
	}
	return results, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner, run *models.Run, extra ...any) error {
	dest := []any{
		&run.ID, &run.UserID, &run.Mode, &run.Scorer, &run.Seed, &run.Width, &run.Height,
		&run.Pieces, &run.Score, &run.LinesCleared, &run.Level, &run.GameOver, &run.DurationMS, &run.CreatedAt,
	}
	return s.Scan(append(dest, extra...)...)
}
