package bot

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
)

func emptyBoard(t *testing.T) *tetris.Board {
	t.Helper()
	b, err := tetris.NewBoard(tetris.DefaultBoardWidth, tetris.DefaultBoardHeight)
	require.NoError(t, err)
	return b
}

func rowsOf(prefix []string, n int, row string) []string {
	out := append([]string(nil), prefix...)
	for i := 0; i < n; i++ {
		out = append(out, row)
	}
	return out
}

// 空のボードに横向きのIミノ: どの位置も床に接するが、凹凸の少ない端が選ばれる。
func TestBestMove_EmptyBoardFlatI(t *testing.T) {
	board := emptyBoard(t)
	before := board.String()

	e := NewEngine()
	move, ok, err := e.BestMove(board, tetris.StandardShape(tetris.TypeI), nil)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, 0, move.Rotation)
	assert.Equal(t, 0, move.X)
	assert.Equal(t, 18, move.Y, "マスクの2行目が最下段に来る")
	assert.Equal(t, ModeProAttack, move.Mode)
	assert.Equal(t, before, board.String(), "ライブ盤面は変更されない")

	again, ok, err := NewEngine().BestMove(board, tetris.StandardShape(tetris.TypeI), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, move, again, "同じ入力には同じ手")
}

// 1マスだけ空いた行を埋められるピースは、その行を消す手を選ぶ。
func TestBestMove_CompletesSingleGapRow(t *testing.T) {
	rows := rowsOf(nil, 19, "..........")
	rows = append(rows, "####.#####")
	board, err := tetris.ParseBoard(rows...)
	require.NoError(t, err)

	move, ok, err := NewEngine().BestMove(board, tetris.StandardShape(tetris.TypeI), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, move.LinesCleared)
	assert.Equal(t, 1, move.Rotation, "縦向き")
	assert.Equal(t, 2, move.X, "マスクの3列目が穴の列に来る")

	for _, pt := range []tetris.PieceType{tetris.TypeT, tetris.TypeL, tetris.TypeJ, tetris.TypeS, tetris.TypeZ} {
		move, ok, err := NewEngine().BestMove(board, tetris.StandardShape(pt), nil)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, move.LinesCleared, tetris.PieceTypeToString(pt))
	}
}

func chimneyBoard(t *testing.T) *tetris.Board {
	t.Helper()
	rows := rowsOf(nil, 14, "..........")
	rows = rowsOf(rows, 4, "####.#####")
	rows = append(rows, "#.########", ".#########")
	b, err := tetris.ParseBoard(rows...)
	require.NoError(t, err)
	return b
}

// 両側が高い4段の井戸: 井戸を埋める手が、井戸を残す手より必ず安い。
func TestBestMove_FillsChimney(t *testing.T) {
	board := chimneyBoard(t)
	e := NewEngine()
	ev, err := e.Evaluate(context.Background(), board, tetris.StandardShape(tetris.TypeI), nil)
	require.NoError(t, err)
	require.NotNil(t, ev.Best)

	assert.Equal(t, 1, ev.Best.Rotation)
	assert.Equal(t, 2, ev.Best.X)
	assert.Equal(t, 4, ev.Best.LinesCleared)
	assert.Equal(t, ModeTetrisBuilder, ev.Mode)

	for _, c := range ev.Candidates {
		if c.LinesCleared == 0 {
			assert.Greater(t, c.Score, ev.Best.Score, "rotation=%d x=%d", c.Rotation, c.X)
		}
	}
}

func TestBestMove_NoLegalPlacement(t *testing.T) {
	board, err := tetris.ParseBoard(
		"####",
		"....",
		"....",
		"....",
	)
	require.NoError(t, err)

	move, ok, err := NewEngine().BestMove(board, tetris.StandardShape(tetris.TypeO), nil)
	require.NoError(t, err, "合法手が無いのはエラーではない")
	assert.False(t, ok)
	assert.Equal(t, Move{}, move)
}

func TestBestMove_InvalidInput(t *testing.T) {
	ragged := &tetris.Board{Width: 3, Height: 2, Cells: [][]tetris.BlockType{{0, 0, 0}, {0}}}
	_, _, err := NewEngine().BestMove(ragged, tetris.StandardShape(tetris.TypeT), nil)
	assert.ErrorIs(t, err, tetris.ErrInvalidBoard)

	_, _, err = NewEngine().BestMove(emptyBoard(t), nil, nil)
	assert.ErrorIs(t, err, tetris.ErrInvalidPieceShape)
}

func TestBestMove_LookaheadBlendsNextPiece(t *testing.T) {
	board := emptyBoard(t)
	e := NewEngine()
	ev, err := e.Evaluate(context.Background(), board, tetris.StandardShape(tetris.TypeI), tetris.StandardShape(tetris.TypeO))
	require.NoError(t, err)
	require.True(t, ev.Lookahead)
	require.NotNil(t, ev.Best)

	assert.Equal(t, 0, ev.Best.Rotation)
	assert.Equal(t, 2, ev.Best.X, "次のOミノを置く余地を残す")
	require.NotNil(t, ev.Best.Future)
	wc, wf := LookaheadWeights(0.05)
	assert.InDelta(t, ev.Best.Current*wc+*ev.Best.Future*wf, ev.Best.Score, 1e-9)
}

func TestBestMove_ManualModeDisablesLookahead(t *testing.T) {
	e := NewEngine()
	require.NoError(t, e.Modes().SetManual(ModeSurvival))

	ev, err := e.Evaluate(context.Background(), emptyBoard(t), tetris.StandardShape(tetris.TypeT), tetris.StandardShape(tetris.TypeO))
	require.NoError(t, err)
	assert.False(t, ev.Lookahead)
	assert.Equal(t, ModeSurvival, ev.Mode)
	for _, c := range ev.Candidates {
		assert.Nil(t, c.Future)
		assert.Equal(t, c.Current, c.Score)
	}
}

func TestEvaluate_ParallelMatchesSequential(t *testing.T) {
	board := chimneyBoard(t)
	piece, next := tetris.StandardShape(tetris.TypeT), tetris.StandardShape(tetris.TypeL)

	seq, err := NewEngine().Evaluate(context.Background(), board, piece, next)
	require.NoError(t, err)
	par, err := NewEngine(WithParallel(true)).Evaluate(context.Background(), board, piece, next)
	require.NoError(t, err)

	if diff := cmp.Diff(seq, par); diff != "" {
		t.Errorf("並列評価の結果が異なります (-seq +par):\n%s", diff)
	}
}

func TestBestMoveContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := NewEngine().BestMoveContext(ctx, emptyBoard(t), tetris.StandardShape(tetris.TypeT), nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

// 回転の途中でも ctx が切れたら配置ごとに打ち切る
func TestEvaluateRotation_StopsPerPlacement(t *testing.T) {
	e := NewEngine()
	ev := &Evaluation{Mode: DefaultMode}
	piece, next := tetris.StandardShape(tetris.TypeT), tetris.StandardShape(tetris.TypeI)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cands, complete := e.evaluateRotation(ctx, emptyBoard(t), piece, next, 0, ev)
	assert.False(t, complete)
	assert.Empty(t, cands)

	_, found, err := e.bestScore(ctx, emptyBoard(t), next, DefaultMode)
	assert.False(t, found)
	assert.ErrorIs(t, err, context.Canceled)

	cands, complete = e.evaluateRotation(context.Background(), emptyBoard(t), piece, next, 0, ev)
	assert.True(t, complete)
	assert.NotEmpty(t, cands)
}

func TestEngine_LinearScorer(t *testing.T) {
	rows := rowsOf(nil, 19, "..........")
	rows = append(rows, "####.#####")
	board, err := tetris.ParseBoard(rows...)
	require.NoError(t, err)

	e := NewEngine(WithScorer(NewLinearScorer()), WithLookahead(false))
	assert.Equal(t, "linear", e.Scorer().Name())
	move, ok, err := e.BestMove(board, tetris.StandardShape(tetris.TypeT), tetris.StandardShape(tetris.TypeO))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, move.LinesCleared)
}
