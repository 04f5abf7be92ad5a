package voxelbot

import (
	"math"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
)

// Coefficients は3D評価の各項の係数です。正の値が報酬、負の値が罰です。
type Coefficients struct {
	Puzzle float64 `json:"puzzle"` // ピースが既存のボクセルや壁と接する割合
	Lines  float64 `json:"lines"`  // 消去したボクセル数
	Smooth float64 `json:"smooth"` // 高さの二乗差
	Hole   float64 `json:"hole"`
	Peak   float64 `json:"peak"`
	Corner float64 `json:"corner"` // 層の角に置いたボクセル
	Edge   float64 `json:"edge"`   // 層の辺に置いたボクセル
	Dist   float64 `json:"dist"`   // 基準点からの距離
}

// 死角（出現層付近）への罰
const (
	deathZoneTopCell   = -2.5
	deathZoneCornerTop = -25.0
	deathZoneCornerSub = -5.0
	deathZoneCornerLen = 2
	deathZoneDepth     = 2
)

// CoefficientsFor はピースセットとピットの大きさに応じた係数を返します。
func CoefficientsFor(set string, width, height int) Coefficients {
	c := Coefficients{Puzzle: 11.7, Lines: 0.7, Smooth: -0.28, Dist: 0.001}
	switch set {
	case voxel.SetFlat:
		c.Hole = -1.9
	case voxel.SetExtended:
		c.Hole = -1.9
		if width == 3 && height == 3 {
			c.Corner, c.Edge, c.Peak = 2.8, 0.8, -0.8
		}
	default:
		c.Corner, c.Edge, c.Hole, c.Peak = 2.8, 0.8, -1.1, -0.81
	}
	return c
}

// distanceFor はセットごとの基準点からの距離を返します。
//   flat     : 奥の角 (W-1, H-1, 0)
//   extended : 原点
//   basic    : 層の中心
func distanceFor(set string, x, y, z, width, height int) float64 {
	fx, fy, fz := float64(x), float64(y), float64(z)
	switch set {
	case voxel.SetFlat:
		dx, dy := float64(width-1)-fx, float64(height-1)-fy
		return math.Sqrt(dx*dx + dy*dy + fz*fz)
	case voxel.SetExtended:
		return math.Sqrt(fx*fx + fy*fy + fz*fz)
	default:
		dx, dy := fx-float64(width-1)/2, fy-float64(height-1)/2
		return math.Sqrt(dx*dx + dy*dy + fz*fz)
	}
}

// positionMatrix は各ボクセル位置の置き場所としての評価値 [z][y][x] を計算します。
// 各層の辺と角に係数を置き、基準点からの距離に比例した値を加えます。
func positionMatrix(set string, c Coefficients, width, height, depth int) [][][]float64 {
	m := make([][][]float64, depth)
	for z := range m {
		m[z] = make([][]float64, height)
		for y := range m[z] {
			m[z][y] = make([]float64, width)
			for x := range m[z][y] {
				onEdgeX := x == 0 || x == width-1
				onEdgeY := y == 0 || y == height-1
				switch {
				case onEdgeX && onEdgeY:
					m[z][y][x] = c.Corner
				case onEdgeX || onEdgeY:
					m[z][y][x] = c.Edge
				}
				m[z][y][x] += c.Dist * distanceFor(set, x, y, z, width, height)
			}
		}
	}
	return m
}
