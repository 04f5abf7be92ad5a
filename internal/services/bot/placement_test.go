package bot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
)

func TestXRange(t *testing.T) {
	i := tetris.StandardShape(tetris.TypeI)
	lo, hi := XRange(i, 0, 10)
	assert.Equal(t, [2]int{0, 6}, [2]int{lo, hi})
	lo, hi = XRange(i, 1, 10)
	assert.Equal(t, [2]int{-2, 7}, [2]int{lo, hi}, "縦向きはマスクの3列目だけを使う")
}

func TestEnumerate_CountOnEmptyBoard(t *testing.T) {
	placements := Enumerate(emptyBoard(t), tetris.StandardShape(tetris.TypeI))
	assert.Len(t, placements, 7+10+7+10)

	for i := 1; i < len(placements); i++ {
		prev, cur := placements[i-1], placements[i]
		ordered := prev.Rotation < cur.Rotation || (prev.Rotation == cur.Rotation && prev.X < cur.X)
		assert.True(t, ordered, "列挙順は (回転, X) の昇順")
	}
}

// 全ての配置は盤面と重ならず、盤内にあり、1段下げると衝突する。
func TestEnumerate_PlacementsAreLegalAndResting(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		board := randomBoard(r, 10, 20)
		for _, pt := range tetris.AllPieceTypes {
			s := tetris.StandardShape(pt)
			for _, p := range Enumerate(board, s) {
				blocks := s.Cells(p.Rotation)
				require.False(t, board.CollidesAt(blocks, p.X, p.Y))
				assert.True(t, board.CollidesAt(blocks, p.X, p.Y+1), "静止位置より下に行ける")
				for _, b := range blocks {
					assert.True(t, board.InBounds(p.X+b[0], p.Y+b[1]))
				}

				y, ok := DropY(board, s, p.Rotation, p.X)
				assert.True(t, ok)
				assert.Equal(t, p.Y, y, "落下は決定的")
			}
		}
	}
}

func TestSimulateDrop_DoesNotMutateBoard(t *testing.T) {
	board, err := tetris.ParseBoard(
		"....",
		"....",
		"....",
		"#.##",
	)
	require.NoError(t, err)
	before := board.String()

	i := tetris.StandardShape(tetris.TypeI)
	p, ok := SimulateDrop(board, i, 1, -1)
	require.True(t, ok)
	assert.Equal(t, 1, p.Cleared.Count)
	assert.Equal(t, []int{3}, p.Cleared.Rows)
	assert.Equal(t, before, board.String())
	assert.Equal(t, "....\n.#..\n.#..\n.#..\n", p.Board.String())
}

func TestSimulateDrop_RejectsOverlapAtSpawn(t *testing.T) {
	board, err := tetris.ParseBoard(
		"..#.",
		"....",
	)
	require.NoError(t, err)
	_, ok := SimulateDrop(board, tetris.StandardShape(tetris.TypeO), 0, 1)
	assert.False(t, ok, "出現位置で重なる候補は落下させない")
	_, ok = SimulateDrop(board, tetris.StandardShape(tetris.TypeO), 0, 0)
	assert.True(t, ok)
}
