package voxelbot

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
)

// SelfPlayResult は3Dピットでの自己対戦の結果です。
type SelfPlayResult struct {
	Pieces        int        `json:"pieces"`
	VoxelsPlaced  int        `json:"voxels_placed"`
	LayersCleared int        `json:"layers_cleared"`
	MaxHeight     int        `json:"max_height"`
	GameOver      bool       `json:"game_over"`
	Pit           *voxel.Pit `json:"pit"`
}

// SelfPlay はセットからランダムに選んだピースを maxPieces 個置くか、置けなくなるまで続けます。
// pit は変更されます。次のピースは常に既知なので、先読みが有効なら使われます。
//
// Parameters:
//   ctx       : キャンセルされた場合はそれまでの結果とエラーを返す
//   pit       : 開始時のピット
//   set       : ピースセット名
//   maxPieces : 置くピースの上限
//   seed      : ピース列の乱数シード
func (e *Engine) SelfPlay(ctx context.Context, pit *voxel.Pit, set string, maxPieces int, seed int64) (*SelfPlayResult, error) {
	pieces, ok := voxel.PieceSet(set)
	if !ok {
		return nil, fmt.Errorf("%w: 不明なピースセット %q", voxel.ErrInvalidPieceShape, set)
	}
	if err := pit.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	result := &SelfPlayResult{Pit: pit}
	current := pieces[rng.Intn(len(pieces))]
	for result.Pieces < maxPieces {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		next := pieces[rng.Intn(len(pieces))]
		move, ok, err := e.BestMoveContext(ctx, pit, current, next)
		if err != nil {
			return result, err
		}
		if !ok {
			result.GameOver = true
			break
		}
		result.VoxelsPlaced += pit.AddVoxels(move.Voxels)
		result.LayersCleared += pit.ClearFullLayers().Count
		result.Pieces++
		current = next
	}
	result.MaxHeight = pit.MaxHeight()

	log.Info().Msgf("[VoxelEngine] 自己対戦終了: ピース %d, 層 %d, ゲームオーバー %t",
		result.Pieces, result.LayersCleared, result.GameOver)
	return result, nil
}
