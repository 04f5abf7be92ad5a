package tetris

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

// LevelUpLines はレベルアップに必要なライン数です。
const LevelUpLines = 5

// プレイヤー操作
const (
	ActionMoveLeft    = "move_left"
	ActionMoveRight   = "move_right"
	ActionRotate      = "rotate"
	ActionRotateRight = "rotate_right"
	ActionRotateLeft  = "rotate_left"
	ActionSoftDrop    = "soft_drop"
	ActionHardDrop    = "hard_drop"
	ActionHold        = "hold"
)

// ErrMoveNotApplicable はエンジンの手を現在のピースに適用できない場合に返されます。
var ErrMoveNotApplicable = errors.New("move not applicable")

// ApplyPlayerInput はプレイヤーの入力（アクション）に基づいてゲーム状態を更新します。
//
// Parameters:
//   state  : 更新するゲーム状態
//   action : 実行するアクション（例: "move_left", "rotate"）
// Returns:
//   bool: ゲーム状態が実際に変更された場合はtrue
func ApplyPlayerInput(state *PlayerGameState, action string) bool {
	if state.IsGameOver || state.CurrentPiece == nil {
		return false
	}

	// まずクローンで衝突判定を行い、衝突しない場合にのみ実際のピースに反映する
	moved := false
	tempPiece := state.CurrentPiece.Clone()

	switch action {
	case ActionMoveLeft:
		if !state.Board.HasCollision(tempPiece, -1, 0) {
			state.CurrentPiece.X--
			moved = true
		}
	case ActionMoveRight:
		if !state.Board.HasCollision(tempPiece, 1, 0) {
			state.CurrentPiece.X++
			moved = true
		}
	case ActionRotate, ActionRotateRight:
		tempPiece.Rotate()
		if !state.Board.HasCollision(tempPiece, 0, 0) {
			state.CurrentPiece.Rotate()
			moved = true
		}
	case ActionRotateLeft:
		tempPiece.RotateCounterClockwise()
		if !state.Board.HasCollision(tempPiece, 0, 0) {
			state.CurrentPiece.RotateCounterClockwise()
			moved = true
		}
	case ActionSoftDrop:
		if !state.Board.HasCollision(tempPiece, 0, 1) {
			state.CurrentPiece.Y++
			state.Score++
		} else {
			lockPiece(state)
		}
		moved = true
	case ActionHardDrop:
		for !state.Board.HasCollision(state.CurrentPiece, 0, 1) {
			state.CurrentPiece.Y++
			state.Score += 2
		}
		lockPiece(state)
		moved = true
	case ActionHold:
		if state.hasUsedHold {
			return false
		}
		held := state.CurrentPiece
		if state.HeldPiece == nil {
			state.CurrentPiece = state.NextPiece
			state.NextPiece = state.GetNextPieceFromQueue()
		} else {
			state.CurrentPiece = state.HeldPiece
		}
		state.HeldPiece = held
		state.resetToSpawn(state.HeldPiece)
		state.resetToSpawn(state.CurrentPiece)
		state.hasUsedHold = true
		moved = true

		if state.Board.HasCollision(state.CurrentPiece, 0, 0) {
			state.IsGameOver = true
		}
	default:
		log.Debug().Msgf("[GameLogic] 不明なアクションです: %s", action)
	}
	return moved
}

// lockPiece はピースを固定し、ラインクリア、スコア加算、レベルアップ、次のピースの出現を行います。
func lockPiece(state *PlayerGameState) {
	state.Board.MergePiece(state.CurrentPiece)
	state.PiecesPlaced++

	cleared := state.Board.ClearLines()
	state.LinesCleared += cleared.Count
	if cleared.Count > 0 {
		state.ConsecutiveClears++
		state.Score += CalculateScore(cleared.Count, state.Level, state.ConsecutiveClears, state.BackToBack)
		state.BackToBack = cleared.Count == 4
		state.Level = state.LinesCleared/LevelUpLines + 1
	} else {
		state.ConsecutiveClears = 0
		state.BackToBack = false
	}

	state.SpawnNewPiece()
	if state.IsGameOver {
		log.Info().Msgf("[GameLogic] %s ゲームオーバー: スコア %d, ライン %d, ピース %d",
			state.UserID, state.Score, state.LinesCleared, state.PiecesPlaced)
	}
}

// CalculateScore はラインクリア数、レベル、コンボなどに基づいて加算スコアを計算します。
//
// Parameters:
//   clearedLines      : クリアされたライン数 (1-4)
//   level             : 現在のレベル
//   consecutiveClears : 連続ラインクリア数（今回を含む）
//   backToBack        : 前回のラインクリアがテトリスだったか
// Returns:
//   int: 加算スコア
func CalculateScore(clearedLines int, level int, consecutiveClears int, backToBack bool) int {
	baseScore := 0
	switch clearedLines {
	case 1:
		baseScore = 100
	case 2:
		baseScore = 300
	case 3:
		baseScore = 500
	case 4:
		baseScore = 800
	}

	score := baseScore * level
	if consecutiveClears > 1 {
		score += 50 * (consecutiveClears - 1) * level
	}
	if backToBack && clearedLines == 4 {
		score = score * 3 / 2
	}
	return score
}

// MoveToActions はエンジンの手を出現位置のピースから実行する操作列に変換します。
// 回転、左右移動、ハードドロップの順です。
func MoveToActions(piece *tetris.Piece, move bot.Move) []string {
	var actions []string
	turns := (move.Rotation - piece.RotationIndex() + tetris.RotationStates) % tetris.RotationStates
	if piece.Type == tetris.TypeO {
		turns = 0
	}
	switch turns {
	case 3:
		actions = append(actions, ActionRotateLeft)
	default:
		for i := 0; i < turns; i++ {
			actions = append(actions, ActionRotate)
		}
	}

	dx := move.X - piece.X
	step := ActionMoveRight
	if dx < 0 {
		step, dx = ActionMoveLeft, -dx
	}
	for i := 0; i < dx; i++ {
		actions = append(actions, step)
	}
	return append(actions, ActionHardDrop)
}

// PlayMove はエンジンの手を操作列として現在のピースに適用します。
// 積み上がったブロックで操作が途中で塞がれた場合は、目標位置が空いていればそこへ直接置きます。
//
// Parameters:
//   state : ゲーム状態
//   move  : エンジンが選んだ手
// Returns:
//   []string: 実行した操作列
//   error   : 手を適用できない場合は ErrMoveNotApplicable
func PlayMove(state *PlayerGameState, move bot.Move) ([]string, error) {
	if state.IsGameOver || state.CurrentPiece == nil {
		return nil, fmt.Errorf("%w: ゲームが終了しています", ErrMoveNotApplicable)
	}
	piece := state.CurrentPiece
	actions := MoveToActions(piece, move)
	for _, a := range actions[:len(actions)-1] {
		ApplyPlayerInput(state, a)
	}

	target := piece.Shape().Cells(move.Rotation)
	if piece.X != move.X || !slices.Equal(piece.Blocks(), target) {
		if state.Board.CollidesAt(target, move.X, move.Y) {
			return nil, fmt.Errorf("%w: rotation=%d x=%d y=%d に置けません", ErrMoveNotApplicable, move.Rotation, move.X, move.Y)
		}
		log.Debug().Msgf("[GameLogic] 操作が塞がれたため目標位置へ直接配置します: rotation=%d x=%d", move.Rotation, move.X)
		piece.Rotation = move.Rotation * 90
		piece.X, piece.Y = move.X, move.Y
	}

	ApplyPlayerInput(state, ActionHardDrop)
	return actions, nil
}
