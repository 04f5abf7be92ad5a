package tetris

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape_Empty(t *testing.T) {
	_, err := NewShape(TypeCustom, []string{"..", ".."})
	assert.ErrorIs(t, err, ErrInvalidPieceShape)

	_, err = NewShape(TypeCustom, []string{"#.", "#"})
	assert.ErrorIs(t, err, ErrInvalidPieceShape)

	_, err = NewShapeFromMatrix(TypeCustom, [][]int{{0}})
	assert.ErrorIs(t, err, ErrInvalidPieceShape)
}

// 4回転すると元の座標集合に戻ることを全ピースで確認します。
func TestRotation_FullCycleIsIdentity(t *testing.T) {
	for _, pt := range AllPieceTypes {
		s := StandardShape(pt)
		require.NotNil(t, s)

		cells := s.Cells(0)
		for i := 0; i < RotationStates; i++ {
			cells = rotateCells(cells, s.Size)
		}
		if diff := cmp.Diff(s.Cells(0), cells); diff != "" {
			t.Errorf("%s: 4回転後の座標が一致しません (-want +got):\n%s", PieceTypeToString(pt), diff)
		}
		assert.Equal(t, s.Cells(0), s.Cells(RotationStates))
		assert.Equal(t, s.Cells(3), s.Cells(-1))
	}
}

func TestRotation_IVertical(t *testing.T) {
	s := StandardShape(TypeI)
	want := [][2]int{{2, 0}, {2, 1}, {2, 2}, {2, 3}}
	if diff := cmp.Diff(want, s.Cells(1)); diff != "" {
		t.Errorf("I回転1の座標 (-want +got):\n%s", diff)
	}

	minX, minY, maxX, maxY := s.Bounds(1)
	assert.Equal(t, [4]int{2, 0, 2, 3}, [4]int{minX, minY, maxX, maxY})
}

func TestRotation_PreservesBlockCount(t *testing.T) {
	for _, pt := range AllPieceTypes {
		s := StandardShape(pt)
		for r := 0; r < RotationStates; r++ {
			assert.Len(t, s.Cells(r), s.BlockCount())
		}
	}
}

func TestPiece_RotateDegrees(t *testing.T) {
	p := NewPiece(StandardShape(TypeT))
	p.Rotate()
	assert.Equal(t, 90, p.Rotation)
	assert.Equal(t, 1, p.RotationIndex())
	p.RotateCounterClockwise()
	p.RotateCounterClockwise()
	assert.Equal(t, 270, p.Rotation)
	assert.Equal(t, 3, p.RotationIndex())

	o := NewPiece(StandardShape(TypeO))
	o.Rotate()
	assert.Equal(t, 0, o.Rotation, "Oミノは回転しない")
}

func TestSpawnPosition(t *testing.T) {
	x, y := SpawnPosition(StandardShape(TypeI), DefaultBoardWidth)
	assert.Equal(t, 3, x)
	assert.Equal(t, -1, y, "Iミノのマスク1行目が最上段に来る")
}

func TestStringToPieceType(t *testing.T) {
	for _, pt := range AllPieceTypes {
		got, ok := StringToPieceType(PieceTypeToString(pt))
		assert.True(t, ok)
		assert.Equal(t, pt, got)
	}
	_, ok := StringToPieceType("X")
	assert.False(t, ok)
}
