package voxel

import (
	"errors"
	"fmt"
)

// ErrInvalidPit はピットの寸法が不正な場合（ゼロ、層や行の長さが揃っていない）に返されます。
var ErrInvalidPit = errors.New("invalid pit")

// Vec はボクセルの整数座標 (x, y, z) です。z=0 が最上層（ピースの出現層）で、z が増えるほど深くなります。
type Vec [3]int

// Pit は3Dボクセルの積層ボードです。
// Layers[z][y][x] が0なら空、それ以外はそのボクセルを埋めた層のタグ（Depth - z）です。
type Pit struct {
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Depth  int       `json:"depth"`
	Layers [][][]int `json:"layers"`
	Counts []int     `json:"-"` // 層ごとの埋まっているボクセル数
}

// NewPit は空のピットを作成します。
func NewPit(width, height, depth int) (*Pit, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: 寸法が不正です (%dx%dx%d)", ErrInvalidPit, width, height, depth)
	}
	p := &Pit{Width: width, Height: height, Depth: depth, Layers: make([][][]int, depth), Counts: make([]int, depth)}
	for z := range p.Layers {
		p.Layers[z] = newLayer(width, height)
	}
	return p, nil
}

func newLayer(width, height int) [][]int {
	layer := make([][]int, height)
	for y := range layer {
		layer[y] = make([]int, width)
	}
	return layer
}

// PitFromLayers は外部の層データを検証し、コピーしてピットを構築します。
func PitFromLayers(layers [][][]int) (*Pit, error) {
	p := &Pit{Depth: len(layers), Layers: layers}
	if p.Depth > 0 {
		p.Height = len(layers[0])
		if p.Height > 0 {
			p.Width = len(layers[0][0])
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := p.Clone()
	c.recount()
	return c, nil
}

// Validate は全ての層と行の寸法が揃っているかを確認します。
func (p *Pit) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: ピットがnilです", ErrInvalidPit)
	}
	if p.Width <= 0 || p.Height <= 0 || p.Depth <= 0 {
		return fmt.Errorf("%w: 寸法が不正です (%dx%dx%d)", ErrInvalidPit, p.Width, p.Height, p.Depth)
	}
	if len(p.Layers) != p.Depth {
		return fmt.Errorf("%w: 層の数 %d が深さ %d と一致しません", ErrInvalidPit, len(p.Layers), p.Depth)
	}
	for z, layer := range p.Layers {
		if len(layer) != p.Height {
			return fmt.Errorf("%w: 層 %d の行数 %d が高さ %d と一致しません", ErrInvalidPit, z, len(layer), p.Height)
		}
		for y, row := range layer {
			if len(row) != p.Width {
				return fmt.Errorf("%w: 層 %d 行 %d の長さ %d が幅 %d と一致しません", ErrInvalidPit, z, y, len(row), p.Width)
			}
		}
	}
	return nil
}

// Clone はピットのディープコピーを返します。
func (p *Pit) Clone() *Pit {
	c := &Pit{Width: p.Width, Height: p.Height, Depth: p.Depth, Layers: make([][][]int, p.Depth), Counts: append([]int(nil), p.Counts...)}
	for z, layer := range p.Layers {
		c.Layers[z] = make([][]int, len(layer))
		for y, row := range layer {
			c.Layers[z][y] = append([]int(nil), row...)
		}
	}
	if len(c.Counts) != c.Depth {
		c.recount()
	}
	return c
}

func (p *Pit) recount() {
	p.Counts = make([]int, p.Depth)
	for z, layer := range p.Layers {
		for _, row := range layer {
			for _, v := range row {
				if v != 0 {
					p.Counts[z]++
				}
			}
		}
	}
}

// InBounds は座標がピット内かどうかを返します。
func (p *Pit) InBounds(v Vec) bool {
	return v[0] >= 0 && v[0] < p.Width && v[1] >= 0 && v[1] < p.Height && v[2] >= 0 && v[2] < p.Depth
}

// Occupied はボクセルが埋まっているかどうかを返します。範囲外は false です。
func (p *Pit) Occupied(v Vec) bool {
	return p.InBounds(v) && p.Layers[v[2]][v[1]][v[0]] != 0
}

// Overlaps はボクセル群が範囲外に出るか、既存のボクセルと重なる場合に true を返します。
func (p *Pit) Overlaps(voxels []Vec) bool {
	for _, v := range voxels {
		if !p.InBounds(v) || p.Layers[v[2]][v[1]][v[0]] != 0 {
			return true
		}
	}
	return false
}

// AddVoxels はボクセル群をピットに固定し、新たに埋まったボクセル数を返します。
// タグは層の深さ（Depth - z）で、描画側の色インデックスとして使われます。
func (p *Pit) AddVoxels(voxels []Vec) int {
	total := 0
	for _, v := range voxels {
		if !p.InBounds(v) {
			continue
		}
		if p.Layers[v[2]][v[1]][v[0]] == 0 {
			p.Counts[v[2]]++
			total++
		}
		p.Layers[v[2]][v[1]][v[0]] = p.Depth - v[2]
	}
	return total
}

// LayerClear は層消去の結果です。Layers は消去された層の z（消去前の座標）です。
type LayerClear struct {
	Count  int   `json:"count"`
	Layers []int `json:"layers,omitempty"`
}

// ClearFullLayers は完全に埋まった層を取り除き、空の層を最上部に追加します。
func (p *Pit) ClearFullLayers() LayerClear {
	var result LayerClear
	full := p.Width * p.Height
	kept := make([][][]int, 0, p.Depth)
	keptCounts := make([]int, 0, p.Depth)
	for z := 0; z < p.Depth; z++ {
		if p.Counts[z] == full {
			result.Count++
			result.Layers = append(result.Layers, z)
			continue
		}
		kept = append(kept, p.Layers[z])
		keptCounts = append(keptCounts, p.Counts[z])
	}
	if result.Count == 0 {
		return result
	}
	layers := make([][][]int, 0, p.Depth)
	counts := make([]int, 0, p.Depth)
	for i := 0; i < result.Count; i++ {
		layers = append(layers, newLayer(p.Width, p.Height))
		counts = append(counts, 0)
	}
	p.Layers = append(layers, kept...)
	p.Counts = append(counts, keptCounts...)
	return result
}

// ColumnHeights は各 (x, y) スタックの高さ（床から最上段のボクセルまでの距離）を [y][x] で返します。
func (p *Pit) ColumnHeights() [][]int {
	heights := make([][]int, p.Height)
	for y := 0; y < p.Height; y++ {
		heights[y] = make([]int, p.Width)
		for x := 0; x < p.Width; x++ {
			for z := 0; z < p.Depth; z++ {
				if p.Layers[z][y][x] != 0 {
					heights[y][x] = p.Depth - z
					break
				}
			}
		}
	}
	return heights
}

// MaxHeight は最も高いスタックの高さを返します。
func (p *Pit) MaxHeight() int {
	maxH := 0
	for _, row := range p.ColumnHeights() {
		for _, h := range row {
			maxH = max(maxH, h)
		}
	}
	return maxH
}
