package voxel

import "fmt"

// Matrix は整数の3x3回転行列です。立方体の回転群では要素は -1, 0, 1 のみです。
type Matrix [3][3]int

// Orientation は立方体回転群の1要素です。
// X軸、Y軸、Z軸の順に回す角度（度、90の倍数）と、そこから求めた行列を持ちます。
type Orientation struct {
	Index  int    `json:"index"`
	Angles [3]int `json:"angles"`
	Matrix Matrix `json:"-"`
}

// orientationAngles は24通りの向きを事前に列挙したものです。
// 実行時に角度から導出せず、全要素が重複しないことはテストで検証します。
var orientationAngles = [24][3]int{
	{0, 0, 0},
	{90, 0, 0}, {180, 0, 0}, {270, 0, 0},
	{0, 90, 0}, {0, 180, 0}, {0, 270, 0},
	{0, 0, 90}, {0, 0, 180}, {0, 0, 270},
	{90, 90, 0}, {90, 180, 0}, {90, 270, 0},
	{180, 90, 0}, {180, 270, 0},
	{270, 90, 0}, {270, 180, 0}, {270, 270, 0},
	{0, 180, 90}, {0, 180, 270},
	{90, 0, 90}, {90, 0, 270},
	{90, 180, 90}, {90, 180, 270},
}

// Orientations は24通りの向きの表です。
var Orientations = buildOrientations()

func buildOrientations() []Orientation {
	out := make([]Orientation, len(orientationAngles))
	for i, a := range orientationAngles {
		out[i] = Orientation{Index: i, Angles: a, Matrix: CombinedMatrix(a)}
	}
	return out
}

func cosSin(deg int) (int, int) {
	switch ((deg % 360) + 360) % 360 {
	case 0:
		return 1, 0
	case 90:
		return 0, 1
	case 180:
		return -1, 0
	case 270:
		return 0, -1
	}
	panic(fmt.Sprintf("voxel: 角度 %d は90度の倍数ではありません", deg))
}

func xMatrix(deg int) Matrix {
	c, s := cosSin(deg)
	return Matrix{{1, 0, 0}, {0, c, -s}, {0, s, c}}
}

func yMatrix(deg int) Matrix {
	c, s := cosSin(deg)
	return Matrix{{c, 0, s}, {0, 1, 0}, {-s, 0, c}}
}

func zMatrix(deg int) Matrix {
	c, s := cosSin(deg)
	return Matrix{{c, -s, 0}, {s, c, 0}, {0, 0, 1}}
}

// CombinedMatrix は Rz · Ry · Rx の合成行列を返します。
func CombinedMatrix(angles [3]int) Matrix {
	return zMatrix(angles[2]).Mul(yMatrix(angles[1]).Mul(xMatrix(angles[0])))
}

// Mul は行列積 m · o を返します。
func (m Matrix) Mul(o Matrix) Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				r[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return r
}

// Transpose は転置行列（回転行列の場合は逆行列）を返します。
func (m Matrix) Transpose() Matrix {
	var r Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Apply はベクトルに行列を適用します。
func (m Matrix) Apply(v Vec) Vec {
	return Vec{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// OrientationOf は行列に一致する向きのインデックスを返します。
func OrientationOf(m Matrix) (int, bool) {
	for _, o := range Orientations {
		if o.Matrix == m {
			return o.Index, true
		}
	}
	return 0, false
}

// Project は回転後のピースを pos に置いたときのボクセル座標を返します。
//
// ボクセルの中心 (v + 0.5) をピボット基準で回転し、床関数で格子座標に戻します。
// 回転行列の各行には ±1 がちょうど1つあるため、0.5 の項は行の符号で決まり、
// 浮動小数点を使わずに整数演算だけで同じ結果になります。
func Project(p *Polycube, o Orientation, pos Vec) []Vec {
	var half Vec
	for i := 0; i < 3; i++ {
		if o.Matrix[i][0]+o.Matrix[i][1]+o.Matrix[i][2] < 0 {
			half[i] = -1
		}
	}
	out := make([]Vec, len(p.Voxels))
	for n, v := range p.Voxels {
		r := o.Matrix.Apply(Vec{v[0] - p.Pivot[0], v[1] - p.Pivot[1], v[2] - p.Pivot[2]})
		for i := 0; i < 3; i++ {
			out[n][i] = r[i] + half[i] + pos[i] + p.Pivot[i]
		}
	}
	return out
}

// Bounds はボクセル群のバウンディングボックス（最小、最大）を返します。
func Bounds(voxels []Vec) (lo, hi Vec) {
	if len(voxels) == 0 {
		return lo, hi
	}
	lo, hi = voxels[0], voxels[0]
	for _, v := range voxels[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v[i])
			hi[i] = max(hi[i], v[i])
		}
	}
	return lo, hi
}
