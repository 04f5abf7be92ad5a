package voxel

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidPieceShape はポリキューブのテンプレートにボクセルが1つも無い場合に返されます。
var ErrInvalidPieceShape = errors.New("invalid polycube shape")

// Polycube は回転前の3Dピースです。
type Polycube struct {
	Set    string `json:"set"`
	Index  int    `json:"index"`
	Voxels []Vec  `json:"voxels"`
	Pivot  Vec    `json:"pivot"` // 回転の基準（バウンディングボックスの中心を切り捨て）
}

// NewPolycube はテンプレート（[z][y] の文字列、空白以外がボクセル）からピースを作成します。
//
// Parameters:
//   set      : ピースセット名
//   index    : セット内のインデックス
//   template : 層ごとの行文字列
// Returns:
//   *Polycube: 作成されたピース
//   error    : ボクセルが無い場合は ErrInvalidPieceShape
func NewPolycube(set string, index int, template [][]string) (*Polycube, error) {
	var voxels []Vec
	for z, layer := range template {
		for y, row := range layer {
			for x, ch := range []byte(row) {
				if ch != ' ' && ch != '.' {
					voxels = append(voxels, Vec{x, y, z})
				}
			}
		}
	}
	return NewPolycubeFromVoxels(set, index, voxels)
}

// NewPolycubeFromVoxels はボクセル座標の集合からピースを作成します。
// 座標は最小値が0になるように平行移動されます。
func NewPolycubeFromVoxels(set string, index int, voxels []Vec) (*Polycube, error) {
	if len(voxels) == 0 {
		return nil, fmt.Errorf("%w: ボクセルが1つもありません (%s #%d)", ErrInvalidPieceShape, set, index)
	}
	lo, _ := Bounds(voxels)
	seen := make(map[Vec]bool, len(voxels))
	normalized := make([]Vec, 0, len(voxels))
	for _, v := range voxels {
		n := Vec{v[0] - lo[0], v[1] - lo[1], v[2] - lo[2]}
		if seen[n] {
			continue
		}
		seen[n] = true
		normalized = append(normalized, n)
	}
	sortVoxels(normalized)

	_, hi := Bounds(normalized)
	p := &Polycube{Set: set, Index: index, Voxels: normalized}
	for i := 0; i < 3; i++ {
		// 辺のバウンディングボックスは [0, hi+1] なので、その中心の切り捨て
		p.Pivot[i] = (hi[i] + 1) / 2
	}
	return p, nil
}

func sortVoxels(voxels []Vec) {
	sort.Slice(voxels, func(i, j int) bool {
		a, b := voxels[i], voxels[j]
		if a[2] != b[2] {
			return a[2] < b[2]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[0] < b[0]
	})
}

// Normalized はボクセル群を最小座標が原点になるよう平行移動し、ソートしたコピーを返します。
// 平行移動を除いて同じ形かどうかの比較に使います。
func Normalized(voxels []Vec) []Vec {
	lo, _ := Bounds(voxels)
	out := make([]Vec, len(voxels))
	for i, v := range voxels {
		out[i] = Vec{v[0] - lo[0], v[1] - lo[1], v[2] - lo[2]}
	}
	sortVoxels(out)
	return out
}

// DistinctOrientations は平行移動を除いて異なる形になる向きのインデックスを、表の順に返します。
// 対称なピースで同じ配置を何度も評価しないために使います。
func DistinctOrientations(p *Polycube) []int {
	seen := make(map[string]bool, len(Orientations))
	var out []int
	for _, o := range Orientations {
		key := fmt.Sprint(Normalized(Project(p, o, Vec{})))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o.Index)
	}
	return out
}
