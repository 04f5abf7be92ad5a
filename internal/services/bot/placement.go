package bot

import "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"

// Placement は1つの候補（回転と位置）と、固定してライン消去した後の盤面です。
type Placement struct {
	Rotation int
	X, Y     int
	Board    *tetris.Board
	Cleared  tetris.LineClear
}

// XRange は回転後のピースのバウンディングボックスがボード内に収まる X の範囲（両端を含む）を返します。
// ピースがボードより広い場合は lo > hi になります。
func XRange(s *tetris.Shape, rotation, width int) (lo, hi int) {
	minX, _, maxX, _ := s.Bounds(rotation)
	return -minX, width - 1 - maxX
}

// DropY はピースを X に置いたときの静止位置を返します。
// 最上段に置いた時点で重なる場合は ok=false で、それ以上は落下させません。
func DropY(b *tetris.Board, s *tetris.Shape, rotation, x int) (y int, ok bool) {
	blocks := s.Cells(rotation)
	_, minY, _, _ := s.Bounds(rotation)
	y = -minY
	if b.CollidesAt(blocks, x, y) {
		return 0, false
	}
	for !b.CollidesAt(blocks, x, y+1) {
		y++
	}
	return y, true
}

// SimulateDrop は候補を落下させ、盤面のコピーに固定してライン消去した結果を返します。
// 元の盤面は変更しません。
func SimulateDrop(b *tetris.Board, s *tetris.Shape, rotation, x int) (Placement, bool) {
	y, ok := DropY(b, s, rotation, x)
	if !ok {
		return Placement{}, false
	}
	work := b.Clone()
	work.MergeBlocks(s.Cells(rotation), x, y, tetris.BlockType(s.Type+1))
	cleared := work.ClearLines()
	return Placement{Rotation: rotation, X: x, Y: y, Board: work, Cleared: cleared}, true
}

// EnumerateRotation は1つの回転で可能な全ての静止位置を X の昇順で返します。
func EnumerateRotation(b *tetris.Board, s *tetris.Shape, rotation int) []Placement {
	lo, hi := XRange(s, rotation, b.Width)
	var out []Placement
	for x := lo; x <= hi; x++ {
		if p, ok := SimulateDrop(b, s, rotation, x); ok {
			out = append(out, p)
		}
	}
	return out
}

// Enumerate は全ての回転と位置の候補を（回転、X）の昇順で返します。
func Enumerate(b *tetris.Board, s *tetris.Shape) []Placement {
	var out []Placement
	for r := 0; r < tetris.RotationStates; r++ {
		out = append(out, EnumerateRotation(b, s, r)...)
	}
	return out
}
