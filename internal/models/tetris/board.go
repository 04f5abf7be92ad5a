package tetris

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	DefaultBoardWidth  = 10 // テトリスボードの標準の幅
	DefaultBoardHeight = 20 // テトリスボードの標準の高さ
)

// ErrInvalidBoard はボードの寸法が不正（ゼロ、または行の長さが揃っていない）場合に返されます。
var ErrInvalidBoard = errors.New("invalid board")

// BlockType はボード上のブロックの種類を表します。
// 0 は空マス、それ以外はそのマスを埋めたピースを示すタグです。
type BlockType int

const (
	BlockEmpty   BlockType = iota // 0: 空のマス
	BlockI                        // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                        // 2: O-テトリミノ由来のブロック (PieceType 1 + 1)
	BlockT                        // 3: T-テトリミノ由来のブロック (PieceType 2 + 1)
	BlockS                        // 4: S-テトリミノ由来のブロック (PieceType 3 + 1)
	BlockZ                        // 5: Z-テトリミノ由来のブロック (PieceType 4 + 1)
	BlockJ                        // 6: J-テトリミノ由来のブロック (PieceType 5 + 1)
	BlockL                        // 7: L-テトリミノ由来のブロック (PieceType 6 + 1)
	BlockGarbage                  // 8: お邪魔ブロック
)

// Board はテトリスのゲームボードです。
// Cells[y][x] でアクセスします。yは行（0が最上段）、xは列です。
type Board struct {
	Width  int           `json:"width"`
	Height int           `json:"height"`
	Cells  [][]BlockType `json:"cells"`
}

// NewBoard は指定サイズの空のボードを作成します。
//
// Parameters:
//   width  : 列数
//   height : 行数
// Returns:
//   *Board: 空のボード
//   error : 寸法が0以下の場合は ErrInvalidBoard
func NewBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: 寸法が不正です (%dx%d)", ErrInvalidBoard, width, height)
	}
	cells := make([][]BlockType, height)
	for y := range cells {
		cells[y] = make([]BlockType, width)
	}
	return &Board{Width: width, Height: height, Cells: cells}, nil
}

// BoardFromCells は外部から渡されたセル配列を検証してボードを構築します。
// 渡された配列はコピーされるため、呼び出し元のライブ盤面が変更されることはありません。
func BoardFromCells(cells [][]BlockType) (*Board, error) {
	b := &Board{Height: len(cells)}
	if b.Height > 0 {
		b.Width = len(cells[0])
	}
	b.Cells = cells
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b.Clone(), nil
}

// BoardFromInts は 0/非0 の整数配列（JSONリクエストなど）からボードを構築します。
func BoardFromInts(rows [][]int) (*Board, error) {
	cells := make([][]BlockType, len(rows))
	for y, row := range rows {
		cells[y] = make([]BlockType, len(row))
		for x, v := range row {
			if v < 0 {
				return nil, fmt.Errorf("%w: セル(%d,%d)の値が負です: %d", ErrInvalidBoard, x, y, v)
			}
			cells[y][x] = BlockType(v)
		}
	}
	return BoardFromCells(cells)
}

// Validate はボードの寸法が整合しているかを確認します。
func (b *Board) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: ボードがnilです", ErrInvalidBoard)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: 寸法が不正です (%dx%d)", ErrInvalidBoard, b.Width, b.Height)
	}
	if len(b.Cells) != b.Height {
		return fmt.Errorf("%w: 行数 %d が高さ %d と一致しません", ErrInvalidBoard, len(b.Cells), b.Height)
	}
	for y, row := range b.Cells {
		if len(row) != b.Width {
			return fmt.Errorf("%w: 行 %d の長さ %d が幅 %d と一致しません", ErrInvalidBoard, y, len(row), b.Width)
		}
	}
	return nil
}

// Clone はボードのディープコピーを返します。
func (b *Board) Clone() *Board {
	nb := &Board{Width: b.Width, Height: b.Height, Cells: make([][]BlockType, b.Height)}
	for y := range b.Cells {
		nb.Cells[y] = append([]BlockType(nil), b.Cells[y]...)
	}
	return nb
}

// InBounds は (x, y) がボード内かどうかを返します。
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.Width && y >= 0 && y < b.Height
}

// IsOccupied は (x, y) にブロックがあるかどうかを返します。範囲外は false です。
func (b *Board) IsOccupied(x, y int) bool {
	return b.InBounds(x, y) && b.Cells[y][x] != BlockEmpty
}

// HasCollision は指定されたピースが現在のボード上の位置 (p.X, p.Y) とオフセット (dx, dy) で
// 壁や既存のブロックと衝突するかどうかを判定します。
//
// Parameters:
//   p  : 衝突判定を行うテトリミノのポインタ
//   dx : X軸方向の移動量（-1:左, 1:右, 0:移動なし）
//   dy : Y軸方向の移動量（1:下, 0:移動なし）
// Returns:
//   bool: 衝突する場合はtrue、しない場合はfalse
func (b *Board) HasCollision(p *Piece, dx, dy int) bool {
	return b.CollidesAt(p.Blocks(), p.X+dx, p.Y+dy)
}

// CollidesAt はブロックの相対座標を (x, y) に置いた場合の衝突を判定します。
// 上部（見えない領域, y < 0）は既存ブロックとの衝突が発生しないため許可します。
func (b *Board) CollidesAt(blocks [][2]int, x, y int) bool {
	for _, block := range blocks {
		bx := x + block[0]
		by := y + block[1]
		if bx < 0 || bx >= b.Width || by >= b.Height {
			return true // 左右の壁、または下部との衝突
		}
		if by >= 0 && b.Cells[by][bx] != BlockEmpty {
			return true // 既存のブロックとの衝突
		}
	}
	return false
}

// MergePiece は落下したピースをボードに固定します。
func (b *Board) MergePiece(p *Piece) {
	b.MergeBlocks(p.Blocks(), p.X, p.Y, BlockType(p.Type+1))
}

// MergeBlocks はブロックの相対座標を (x, y) に置き、tag で埋めます。
// ボードの範囲外のブロックは無視されます。
func (b *Board) MergeBlocks(blocks [][2]int, x, y int, tag BlockType) {
	if tag == BlockEmpty {
		tag = BlockGarbage
	}
	for _, block := range blocks {
		bx := x + block[0]
		by := y + block[1]
		if b.InBounds(bx, by) {
			b.Cells[by][bx] = tag
		}
	}
}

// LineClear はラインクリアの結果です。
// Rows は消去された行のインデックス（消去前の座標、上から順）です。
type LineClear struct {
	Count int   `json:"count"`
	Rows  []int `json:"rows,omitempty"`
}

// ClearLines は揃ったラインをクリアし、上のブロックを落とします。
//
// Returns:
//   LineClear: クリアされたライン数と行インデックス
func (b *Board) ClearLines() LineClear {
	var result LineClear
	newCells := make([][]BlockType, b.Height)
	destY := b.Height - 1 // 新しいボードにブロックをコピーする際の最も下の行

	// ボードの最下部から上に向かって各行をチェック
	for y := b.Height - 1; y >= 0; y-- {
		if b.isLineFull(y) {
			result.Count++
			result.Rows = append([]int{y}, result.Rows...)
			continue
		}
		newCells[destY] = b.Cells[y]
		destY--
	}
	for ; destY >= 0; destY-- {
		newCells[destY] = make([]BlockType, b.Width)
	}
	b.Cells = newCells
	return result
}

func (b *Board) isLineFull(y int) bool {
	for x := 0; x < b.Width; x++ {
		if b.Cells[y][x] == BlockEmpty {
			return false
		}
	}
	return true
}

// AddGarbageLines は指定された数のお邪魔ブロックのラインをボードの最下部に追加します。
// これにより、ボード上の既存のブロックは上にシフトされます。
//
// Parameters:
//   count : 追加するお邪魔ラインの数
//   r     : 穴の位置を決める乱数生成器
func (b *Board) AddGarbageLines(count int, r *rand.Rand) {
	if count <= 0 {
		return
	}
	if count > b.Height {
		count = b.Height
	}

	// 既存のブロックを上にシフト
	b.Cells = append(b.Cells[count:], make([][]BlockType, count)...)

	// 最下部にお邪魔ブロックのラインを追加（一つだけ穴を開ける）
	for y := b.Height - count; y < b.Height; y++ {
		holeX := r.Intn(b.Width)
		row := make([]BlockType, b.Width)
		for x := range row {
			if x != holeX {
				row[x] = BlockGarbage
			}
		}
		b.Cells[y] = row
	}
}

// ColumnHeights は各列の高さ（床から最上段のブロックまでの距離）を返します。
func (b *Board) ColumnHeights() []int {
	heights := make([]int, b.Width)
	for x := 0; x < b.Width; x++ {
		for y := 0; y < b.Height; y++ {
			if b.Cells[y][x] != BlockEmpty {
				heights[x] = b.Height - y
				break
			}
		}
	}
	return heights
}

// MaxHeight は最も高い列の高さを返します。
func (b *Board) MaxHeight() int {
	maxH := 0
	for _, h := range b.ColumnHeights() {
		if h > maxH {
			maxH = h
		}
	}
	return maxH
}

// OccupiedCount は埋まっているマスの総数を返します。
func (b *Board) OccupiedCount() int {
	n := 0
	for _, row := range b.Cells {
		for _, c := range row {
			if c != BlockEmpty {
				n++
			}
		}
	}
	return n
}

// String はデバッグ用にボードを '#' と '.' で描画します。
func (b *Board) String() string {
	buf := make([]byte, 0, (b.Width+1)*b.Height)
	for _, row := range b.Cells {
		for _, c := range row {
			if c == BlockEmpty {
				buf = append(buf, '.')
			} else {
				buf = append(buf, '#')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

// ParseBoard は '#'（埋まり）と '.'（空）の行からボードを作成します。テストやCLIで使用します。
func ParseBoard(rows ...string) (*Board, error) {
	cells := make([][]BlockType, len(rows))
	for y, row := range rows {
		cells[y] = make([]BlockType, len(row))
		for x, ch := range []byte(row) {
			if ch != '.' && ch != ' ' {
				cells[y][x] = BlockGarbage
			}
		}
	}
	return BoardFromCells(cells)
}
