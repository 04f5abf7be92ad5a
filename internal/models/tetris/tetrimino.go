package tetris

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPieceShape はピース定義が不正（ブロックが0個、正方形でないなど）な場合に返されます。
var ErrInvalidPieceShape = errors.New("invalid piece shape")

// RotationStates は2Dピースの回転状態の数です (0, 90, 180, 270 度)。
const RotationStates = 4

// PieceType はテトリミノの種類を表します。
type PieceType int

const (
	TypeI PieceType = iota // 0: I-ミノ (シアン)
	TypeO                  // 1: O-ミノ (黄色)
	TypeT                  // 2: T-ミノ (紫)
	TypeS                  // 3: S-ミノ (緑)
	TypeZ                  // 4: Z-ミノ (赤)
	TypeJ                  // 5: J-ミノ (青)
	TypeL                  // 6: L-ミノ (オレンジ)
	TypeCustom             // 7: リクエストで渡された任意形状
)

// AllPieceTypes は標準の7種類のテトリミノです（7-bag の順序）。
var AllPieceTypes = []PieceType{TypeI, TypeO, TypeT, TypeS, TypeZ, TypeJ, TypeL}

// standardMasks は各テトリミノの回転0の形状です。
// 幅と高さが同じ正方形で定義し、回転は正方形内で行います。
var standardMasks = map[PieceType][]string{
	TypeI: {
		"....",
		"####",
		"....",
		"....",
	},
	TypeO: {
		"##",
		"##",
	},
	TypeT: {
		".#.",
		"###",
		"...",
	},
	TypeS: {
		".##",
		"##.",
		"...",
	},
	TypeZ: {
		"##.",
		".##",
		"...",
	},
	TypeJ: {
		"#..",
		"###",
		"...",
	},
	TypeL: {
		"..#",
		"###",
		"...",
	},
}

// Shape は不変のピース定義です。
// 正方形のマスク内でのブロック座標と、4つの回転状態を事前計算して保持します。
type Shape struct {
	Type      PieceType
	Size      int
	rotations [RotationStates][][2]int
}

// NewShape はマスク（'#' がブロック、'.' が空き）からピース定義を作成します。
//
// Parameters:
//   t    : テトリミノの種類
//   mask : 正方形のマスク
// Returns:
//   *Shape: 作成されたピース定義
//   error : ブロックが0個、または正方形でない場合は ErrInvalidPieceShape
func NewShape(t PieceType, mask []string) (*Shape, error) {
	size := len(mask)
	var cells [][2]int
	for y, row := range mask {
		if len(row) != size {
			return nil, fmt.Errorf("%w: マスクが正方形ではありません (行 %d の長さ %d, サイズ %d)", ErrInvalidPieceShape, y, len(row), size)
		}
		for x, ch := range []byte(row) {
			if ch != '.' && ch != ' ' && ch != '0' {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return newShapeFromCells(t, size, cells)
}

// NewShapeFromMatrix は 0/1 の正方行列からピース定義を作成します。
func NewShapeFromMatrix(t PieceType, matrix [][]int) (*Shape, error) {
	size := len(matrix)
	var cells [][2]int
	for y, row := range matrix {
		if len(row) != size {
			return nil, fmt.Errorf("%w: 行列が正方形ではありません (行 %d の長さ %d, サイズ %d)", ErrInvalidPieceShape, y, len(row), size)
		}
		for x, v := range row {
			if v != 0 {
				cells = append(cells, [2]int{x, y})
			}
		}
	}
	return newShapeFromCells(t, size, cells)
}

func newShapeFromCells(t PieceType, size int, cells [][2]int) (*Shape, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("%w: ブロックが1つもありません", ErrInvalidPieceShape)
	}
	s := &Shape{Type: t, Size: size}
	s.rotations[0] = sortCells(cells)
	for r := 1; r < RotationStates; r++ {
		s.rotations[r] = rotateCells(s.rotations[r-1], size)
	}
	return s, nil
}

// rotateCells は正方形内で時計回りに90度回転させます（転置してから左右反転）。
func rotateCells(cells [][2]int, size int) [][2]int {
	rotated := make([][2]int, len(cells))
	for i, c := range cells {
		rotated[i] = [2]int{size - 1 - c[1], c[0]}
	}
	return sortCells(rotated)
}

func sortCells(cells [][2]int) [][2]int {
	sorted := append([][2]int(nil), cells...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i][1] != sorted[j][1] {
			return sorted[i][1] < sorted[j][1]
		}
		return sorted[i][0] < sorted[j][0]
	})
	return sorted
}

// Cells は指定された回転インデックス（0〜3、時計回りの回数）でのブロック座標を返します。
// 返されるスライスは共有されるため、呼び出し側で変更しないでください。
func (s *Shape) Cells(rotation int) [][2]int {
	return s.rotations[normalizeRotation(rotation)]
}

// Bounds は回転後のブロックのバウンディングボックス (minX, minY, maxX, maxY) を返します。
func (s *Shape) Bounds(rotation int) (minX, minY, maxX, maxY int) {
	cells := s.Cells(rotation)
	minX, minY = cells[0][0], cells[0][1]
	maxX, maxY = minX, minY
	for _, c := range cells[1:] {
		minX = min(minX, c[0])
		maxX = max(maxX, c[0])
		minY = min(minY, c[1])
		maxY = max(maxY, c[1])
	}
	return minX, minY, maxX, maxY
}

// BlockCount はピースを構成するブロック数です。
func (s *Shape) BlockCount() int {
	return len(s.rotations[0])
}

func normalizeRotation(rotation int) int {
	return ((rotation % RotationStates) + RotationStates) % RotationStates
}

var standardShapes = func() map[PieceType]*Shape {
	shapes := make(map[PieceType]*Shape, len(standardMasks))
	for t, mask := range standardMasks {
		s, err := NewShape(t, mask)
		if err != nil {
			panic(fmt.Errorf("標準ピース %s の定義が不正です: %w", PieceTypeToString(t), err))
		}
		shapes[t] = s
	}
	return shapes
}()

// StandardShape は標準テトリミノの定義を返します。不明な種類の場合は nil です。
func StandardShape(t PieceType) *Shape {
	return standardShapes[t]
}

// Piece はテトリミノの現在の状態（種類、ボード上の基準点座標、回転角度）を表します。
type Piece struct {
	Type     PieceType `json:"type"`     // テトリミノの種類
	X        int       `json:"x"`        // ボード上のX座標（マスクの左上）
	Y        int       `json:"y"`        // ボード上のY座標（マスクの左上）
	Rotation int       `json:"rotation"` // 回転角度 (0, 90, 180, 270 度)
	shape    *Shape
}

// NewPiece はピース定義から回転0のピースを作成します。
func NewPiece(s *Shape) *Piece {
	return &Piece{Type: s.Type, shape: s}
}

// Shape はピースの形状定義を返します。独自形状が無い場合は標準形状を使用します。
func (p *Piece) Shape() *Shape {
	if p.shape != nil {
		return p.shape
	}
	return StandardShape(p.Type)
}

// RotationIndex は回転角度を 0〜3 のインデックスに変換します。
func (p *Piece) RotationIndex() int {
	return normalizeRotation(p.Rotation / 90)
}

// Blocks は現在のPieceの回転状態に基づいて、構成するブロックの相対座標の配列を返します。
func (p *Piece) Blocks() [][2]int {
	return p.Shape().Cells(p.RotationIndex())
}

// Rotate はピースを時計回りに90度回転させます。
func (p *Piece) Rotate() {
	if p.Type == TypeO { // Oミノは回転しない
		return
	}
	p.Rotation = (p.Rotation + 90) % 360
}

// RotateCounterClockwise はピースを反時計回りに90度回転させます。
func (p *Piece) RotateCounterClockwise() {
	if p.Type == TypeO {
		return
	}
	p.Rotation = (p.Rotation - 90 + 360) % 360 // 負の値にならないように +360
}

// Clone は現在のPieceオブジェクトのコピーを返します。形状定義は不変なので共有します。
func (p *Piece) Clone() *Piece {
	newP := *p
	return &newP
}

// SpawnPosition はピースを出現させる位置（中央上部）を返します。
// 回転0で最上段のブロックが行0に来るように Y を調整します。
func SpawnPosition(s *Shape, boardWidth int) (x, y int) {
	_, minY, _, _ := s.Bounds(0)
	return (boardWidth - s.Size) / 2, -minY
}

// StringToPieceType は文字列のテトリミノタイプ（"I", "O", "T"など）をPieceTypeに変換します。
func StringToPieceType(s string) (PieceType, bool) {
	switch s {
	case "I", "i":
		return TypeI, true
	case "O", "o":
		return TypeO, true
	case "T", "t":
		return TypeT, true
	case "S", "s":
		return TypeS, true
	case "Z", "z":
		return TypeZ, true
	case "J", "j":
		return TypeJ, true
	case "L", "l":
		return TypeL, true
	default:
		return TypeI, false
	}
}

// PieceTypeToString はPieceTypeを文字列表現に変換します。
func PieceTypeToString(t PieceType) string {
	switch t {
	case TypeI:
		return "I"
	case TypeO:
		return "O"
	case TypeT:
		return "T"
	case TypeS:
		return "S"
	case TypeZ:
		return "Z"
	case TypeJ:
		return "J"
	case TypeL:
		return "L"
	default:
		return "custom"
	}
}
