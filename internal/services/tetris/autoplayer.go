package tetris

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

// SelfPlayResult はボットの自己対戦の結果です。
type SelfPlayResult struct {
	Pieces       int            `json:"pieces"`
	Score        int            `json:"score"`
	LinesCleared int            `json:"lines_cleared"`
	Level        int            `json:"level"`
	GameOver     bool           `json:"game_over"`
	GarbageLines int            `json:"garbage_lines"`
	ModeCounts   map[string]int `json:"mode_counts"` // 各モードで選ばれた手の数
	Board        *tetris.Board  `json:"board"`
	Duration     time.Duration  `json:"duration"`
	Moves        []bot.Move     `json:"-"`
}

// AutoPlayer はエンジンを使ってゲームを自動で進めるコントローラーです。
type AutoPlayer struct {
	engine       *bot.Engine
	moveTimeout  time.Duration
	garbageEvery int
}

// NewAutoPlayer は AutoPlayer を作成します。moveTimeout が0以下なら1手ごとの期限を設けません。
func NewAutoPlayer(engine *bot.Engine, moveTimeout time.Duration) *AutoPlayer {
	return &AutoPlayer{engine: engine, moveTimeout: moveTimeout}
}

// WithGarbage は every 個のピースを置くたびにお邪魔ラインを1本せり上げるよう設定します。
// 0以下なら無効です。
func (a *AutoPlayer) WithGarbage(every int) *AutoPlayer {
	a.garbageEvery = every
	return a
}

// Step は現在のピースについてエンジンに手を問い合わせ、その手を適用します。
//
// Returns:
//   bot.Move: 適用した手
//   bool    : 合法な配置が無く、ピースを置けなかった場合は false（ゲームオーバーになります）
//   error   : 盤面が不正、または手を適用できなかった場合
func (a *AutoPlayer) Step(ctx context.Context, state *PlayerGameState) (bot.Move, bool, error) {
	var next *tetris.Shape
	if state.NextPiece != nil {
		next = state.NextPiece.Shape()
	}
	move, ok, err := a.search(ctx, state.Board, state.CurrentPiece.Shape(), next)
	if err != nil {
		return bot.Move{}, false, fmt.Errorf("着手の探索に失敗しました: %w", err)
	}
	if !ok {
		state.IsGameOver = true
		return bot.Move{}, false, nil
	}
	if _, err := PlayMove(state, move); err != nil {
		return bot.Move{}, false, err
	}
	return move, true, nil
}

// search は1手の期限付きで探索します。期限内に1つも評価できなかった場合は期限なしでやり直します。
func (a *AutoPlayer) search(ctx context.Context, board *tetris.Board, piece, next *tetris.Shape) (bot.Move, bool, error) {
	if a.moveTimeout <= 0 {
		return a.engine.BestMoveContext(ctx, board, piece, next)
	}
	moveCtx, cancel := context.WithTimeout(ctx, a.moveTimeout)
	defer cancel()
	move, ok, err := a.engine.BestMoveContext(moveCtx, board, piece, next)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		log.Warn().Msgf("[AutoPlayer] %s 以内に候補を評価できませんでした。期限なしで再探索します", a.moveTimeout)
		return a.engine.BestMoveContext(ctx, board, piece, next)
	}
	return move, ok, err
}

// Run はゲームオーバーになるか maxPieces 個のピースを置くまで自己対戦を続けます。
// ctx がキャンセルされた場合は、それまでの結果とエラーを返します。
func (a *AutoPlayer) Run(ctx context.Context, state *PlayerGameState, maxPieces int) (*SelfPlayResult, error) {
	start := time.Now()
	result := &SelfPlayResult{ModeCounts: make(map[string]int)}

	var runErr error
	for !state.IsGameOver && (maxPieces <= 0 || state.PiecesPlaced < maxPieces) {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		move, ok, err := a.Step(ctx, state)
		if err != nil {
			runErr = err
			break
		}
		if !ok {
			break
		}
		result.Moves = append(result.Moves, move)
		result.ModeCounts[move.Mode.String()]++

		if a.garbageEvery > 0 && state.PiecesPlaced%a.garbageEvery == 0 && !state.IsGameOver {
			state.AddGarbage(1)
			result.GarbageLines++
		}
	}

	result.Pieces = state.PiecesPlaced
	result.Score = state.Score
	result.LinesCleared = state.LinesCleared
	result.Level = state.Level
	result.GameOver = state.IsGameOver
	result.Board = state.Board.Clone()
	result.Duration = time.Since(start)

	log.Info().Msgf("[AutoPlayer] 自己対戦終了: ピース %d, ライン %d, お邪魔 %d, スコア %d, ゲームオーバー %t",
		result.Pieces, result.LinesCleared, result.GarbageLines, result.Score, result.GameOver)
	return result, runErr
}
