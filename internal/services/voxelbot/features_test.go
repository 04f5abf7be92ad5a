package voxelbot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
)

func TestCoefficientsFor(t *testing.T) {
	basic := CoefficientsFor(voxel.SetBasic, 5, 5)
	assert.Equal(t, Coefficients{Puzzle: 11.7, Lines: 0.7, Smooth: -0.28, Hole: -1.1, Peak: -0.81, Corner: 2.8, Edge: 0.8, Dist: 0.001}, basic)

	assert.Equal(t, 0.0, CoefficientsFor(voxel.SetExtended, 5, 5).Corner)
	assert.Equal(t, 2.8, CoefficientsFor(voxel.SetExtended, 3, 3).Corner, "3x3のピットだけ角を評価する")
	assert.Equal(t, -1.9, CoefficientsFor(voxel.SetFlat, 3, 3).Hole)
}

func TestPositionMatrix_EdgesAndCorners(t *testing.T) {
	c := Coefficients{Corner: 2, Edge: 1}
	m := positionMatrix(voxel.SetBasic, c, 3, 3, 1)
	assert.Equal(t, [][]float64{{2, 1, 2}, {1, 0, 1}, {2, 1, 2}}, m[0])
}

func TestEvaluate_HolesAndHeights(t *testing.T) {
	pit := mustPit(t, 2, 1, 4, voxel.Vec{0, 0, 3})
	e := NewEvaluator(voxel.SetFlat, 2, 1, 4)

	// 列0: 床のボクセルの上に1段あけて置く。z=2 が穴になり、列0の高さは4 (z=0まで)
	f, post := e.Evaluate(pit, []voxel.Vec{{0, 0, 1}, {0, 0, 0}})
	assert.Equal(t, [][]int{{4, 0}}, f.Heights)
	assert.Equal(t, 1, f.Holes, "z=2 が空")
	assert.Equal(t, 4, f.MaxHeight)
	assert.True(t, post.Occupied(voxel.Vec{0, 0, 0}))
	assert.False(t, pit.Occupied(voxel.Vec{0, 0, 0}), "元のピットは変更されない")

	// 出現層に1つ: -2.5。奥の角の領域 (2x1 のピット全体) に z=0 と z=1 が1つずつ: -25 と -5
	assert.Equal(t, -2.5-25-5, f.DeathZone)
}

func TestSmoothnessSqr(t *testing.T) {
	assert.Equal(t, -10.0/4, smoothnessSqr([][]int{{1, 1}, {1, 1}}))
	// 2x1: 差2 を両方向から数える
	assert.Equal(t, 8.0/2, smoothnessSqr([][]int{{0, 2}}))
}

func TestPeakness(t *testing.T) {
	assert.Equal(t, 1, peakness([][]int{{0, 2, 0}}, peakBias), "両隣より2段高い列だけが山")
	assert.Equal(t, 0, peakness([][]int{{0, 1, 0}}, peakBias))
}

func TestCommonEdges(t *testing.T) {
	pit := mustPit(t, 3, 3, 3)
	// 床の角に置いた1ボクセル: 6面のうち 床 + 2つの壁 = 3面が接する
	assert.InDelta(t, 3.0/6.0, commonEdges(pit, []voxel.Vec{{0, 0, 2}}), 1e-9)
	// 中央の宙に浮いたボクセル: 接する面なし
	assert.Equal(t, 0.0, commonEdges(pit, []voxel.Vec{{1, 1, 1}}))
}
