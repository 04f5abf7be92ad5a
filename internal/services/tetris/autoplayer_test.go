package tetris

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

func runSelfPlay(t *testing.T, seed int64, pieces int, timeout time.Duration) *SelfPlayResult {
	t.Helper()
	state := newTestState(t, seed)
	player := NewAutoPlayer(bot.NewEngine(), timeout)
	result, err := player.Run(context.Background(), state, pieces)
	require.NoError(t, err)
	return result
}

func TestAutoPlayer_Run(t *testing.T) {
	result := runSelfPlay(t, 11, 40, 0)

	assert.Equal(t, 40, result.Pieces)
	assert.False(t, result.GameOver)
	assert.Len(t, result.Moves, 40)

	total := 0
	for _, n := range result.ModeCounts {
		total += n
	}
	assert.Equal(t, 40, total)

	// 置いたブロック数から消去したライン分を引いた数が盤面に残る
	assert.Equal(t, 40*4-result.LinesCleared*result.Board.Width, result.Board.OccupiedCount())
}

func TestAutoPlayer_Garbage(t *testing.T) {
	state := newTestState(t, 11)
	result, err := NewAutoPlayer(bot.NewEngine(), 0).WithGarbage(5).Run(context.Background(), state, 40)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.GarbageLines, result.Pieces/5)
	if !result.GameOver {
		assert.Equal(t, 8, result.GarbageLines)
		// 置いたブロックとお邪魔ブロックから消去したライン分を引いた数が盤面に残る
		w := result.Board.Width
		assert.Equal(t, 40*4+result.GarbageLines*(w-1)-result.LinesCleared*w, result.Board.OccupiedCount())
	}

	plain := runSelfPlay(t, 11, 40, 0)
	assert.Zero(t, plain.GarbageLines)
}

func TestAutoPlayer_Deterministic(t *testing.T) {
	a := runSelfPlay(t, 5, 25, 0)
	b := runSelfPlay(t, 5, 25, 0)
	if diff := cmp.Diff(a.Board, b.Board); diff != "" {
		t.Errorf("同じシードで盤面が異なります (-a +b):\n%s", diff)
	}
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.LinesCleared, b.LinesCleared)
}

func TestAutoPlayer_TinyTimeoutStillMoves(t *testing.T) {
	result := runSelfPlay(t, 3, 5, time.Nanosecond)
	assert.Equal(t, 5, result.Pieces)
}

func TestAutoPlayer_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := newTestState(t, 1)
	result, err := NewAutoPlayer(bot.NewEngine(), 0).Run(ctx, state, 10)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 0, result.Pieces)
}

func TestAutoPlayer_StepReportsNoLegalMove(t *testing.T) {
	state, err := NewPlayerGameState("test-bot", 4, 4, 1)
	require.NoError(t, err)
	for x := 0; x < 4; x++ {
		state.Board.Cells[0][x] = 1
	}

	_, ok, err := NewAutoPlayer(bot.NewEngine(), 0).Step(context.Background(), state)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, state.IsGameOver)
}
