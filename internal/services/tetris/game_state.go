package tetris

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
)

// PlayerGameState は1人分（ボット含む）のテトリスゲーム状態です。
// エンジンの呼び出し側として、盤面・ピースキュー・スコアを管理します。
type PlayerGameState struct {
	UserID            string        `json:"user_id"`
	Board             *tetris.Board `json:"board"`
	CurrentPiece      *tetris.Piece `json:"current_piece"`
	NextPiece         *tetris.Piece `json:"next_piece"`
	HeldPiece         *tetris.Piece `json:"held_piece"`
	Score             int           `json:"score"`
	LinesCleared      int           `json:"lines_cleared"`
	Level             int           `json:"level"`
	PiecesPlaced      int           `json:"pieces_placed"`
	IsGameOver        bool          `json:"is_game_over"`
	ConsecutiveClears int           `json:"consecutive_clears"` // 連続ラインクリア数 (コンボボーナス用)
	BackToBack        bool          `json:"back_to_back"`
	Seed              int64         `json:"seed"`

	pieceQueue    []tetris.PieceType
	randGenerator *rand.Rand
	garbageRand   *rand.Rand // お邪魔ラインの穴の位置。ピース列とは独立
	hasUsedHold   bool
}

// NewPlayerGameState は新しいゲーム状態を初期化して返します。
// 同じシードからは同じピース列が生成されます。
//
// Parameters:
//   userID : プレイヤー（またはボット）のID
//   width  : ボードの列数
//   height : ボードの行数
//   seed   : ピース生成用の乱数シード
// Returns:
//   *PlayerGameState: 最初のピースが出現済みのゲーム状態
//   error           : ボードの寸法が不正な場合
func NewPlayerGameState(userID string, width, height int, seed int64) (*PlayerGameState, error) {
	board, err := tetris.NewBoard(width, height)
	if err != nil {
		return nil, fmt.Errorf("ゲーム状態の初期化に失敗しました: %w", err)
	}

	state := &PlayerGameState{
		UserID:        userID,
		Board:         board,
		Level:         1,
		Seed:          seed,
		randGenerator: rand.New(rand.NewSource(seed)),
		garbageRand:   rand.New(rand.NewSource(seed + 1)),
	}

	state.generatePieceQueue()
	state.SpawnNewPiece()
	return state, nil
}

// generatePieceQueue は7-bagシステムに基づき7種類のテトリミノをランダムな順序で追加します。
// 前のバッグの最後のピースと新しいバッグの最初のピースが同じにならないように調整します。
func (s *PlayerGameState) generatePieceQueue() {
	bag := append([]tetris.PieceType(nil), tetris.AllPieceTypes...)

	var lastPieceType tetris.PieceType
	hasLastPiece := len(s.pieceQueue) > 0
	if hasLastPiece {
		lastPieceType = s.pieceQueue[len(s.pieceQueue)-1]
	}

	s.randGenerator.Shuffle(len(bag), func(i, j int) {
		bag[i], bag[j] = bag[j], bag[i]
	})

	if hasLastPiece && bag[0] == lastPieceType {
		swapIndex := s.randGenerator.Intn(len(bag)-1) + 1
		bag[0], bag[swapIndex] = bag[swapIndex], bag[0]
		log.Debug().Msgf("[PieceQueue] 連続防止: 前のピース %s と重複していたため、位置 %d と交換しました",
			tetris.PieceTypeToString(lastPieceType), swapIndex)
	}

	s.pieceQueue = append(s.pieceQueue, bag...)
}

// GetNextPieceFromQueue はキューから次のピースを取り出し、残りが7個未満なら新しいバッグを補充します。
func (s *PlayerGameState) GetNextPieceFromQueue() *tetris.Piece {
	if len(s.pieceQueue) < len(tetris.AllPieceTypes) {
		s.generatePieceQueue()
	}
	pieceType := s.pieceQueue[0]
	s.pieceQueue = s.pieceQueue[1:]
	return tetris.NewPiece(tetris.StandardShape(pieceType))
}

// PeekQueue は次のピース以降のキューの先頭 n 個を返します。
func (s *PlayerGameState) PeekQueue(n int) []tetris.PieceType {
	for len(s.pieceQueue) < n {
		s.generatePieceQueue()
	}
	return append([]tetris.PieceType(nil), s.pieceQueue[:n]...)
}

// SpawnNewPiece は次のピースを出現位置に置きます。
// 出現位置で既に衝突している場合はゲームオーバーです。
func (s *PlayerGameState) SpawnNewPiece() {
	if s.CurrentPiece == nil || s.NextPiece == nil {
		s.CurrentPiece = s.GetNextPieceFromQueue()
	} else {
		s.CurrentPiece = s.NextPiece
	}
	s.NextPiece = s.GetNextPieceFromQueue()
	s.resetToSpawn(s.CurrentPiece)
	s.hasUsedHold = false

	if s.Board.HasCollision(s.CurrentPiece, 0, 0) {
		s.IsGameOver = true
	}
}

// resetToSpawn はピースを回転0で出現位置に戻します。
func (s *PlayerGameState) resetToSpawn(p *tetris.Piece) {
	p.X, p.Y = tetris.SpawnPosition(p.Shape(), s.Board.Width)
	p.Rotation = 0
}

// AddGarbage はお邪魔ラインを lines 本せり上げます。
// 押し出されたブロックがあるか、落下中のピースと重なった場合はゲームオーバーになります。
func (s *PlayerGameState) AddGarbage(lines int) {
	if lines <= 0 || s.IsGameOver {
		return
	}
	if lines > s.Board.Height {
		lines = s.Board.Height
	}
	toppedOut := false
	for y := 0; y < lines; y++ {
		for _, cell := range s.Board.Cells[y] {
			if cell != tetris.BlockEmpty {
				toppedOut = true
			}
		}
	}
	s.Board.AddGarbageLines(lines, s.garbageRand)
	if toppedOut || (s.CurrentPiece != nil && s.Board.HasCollision(s.CurrentPiece, 0, 0)) {
		s.IsGameOver = true
		log.Info().Msgf("[GameState] お邪魔ライン %d 本でゲームオーバー: %s", lines, s.UserID)
	}
}
