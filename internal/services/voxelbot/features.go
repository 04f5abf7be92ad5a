package voxelbot

import "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"

// peakBias は「隣より何段高ければ山とみなすか」の閾値（符号反転）です。
const peakBias = -2

// Features は1つの配置を評価した結果です。
type Features struct {
	Heights       [][]int `json:"heights"`
	MaxHeight     int     `json:"maxHeight"`
	Holes         int     `json:"holes"`
	LayersCleared int     `json:"layersCleared"`
	Lines         int     `json:"lines"` // 消去されたボクセル数 (層数 × W × H)
	Smoothness    int     `json:"smoothness"`
	SmoothnessSqr float64 `json:"smoothnessSqr"`
	Peakness      int     `json:"peakness"`
	CommonEdges   float64 `json:"commonEdges"`
	PositionNote  float64 `json:"positionNote"`
	DeathZone     float64 `json:"deathZone"`
	Total         float64 `json:"total"` // 大きいほど良い
}

// Evaluator はピットの大きさとピースセットに対応した評価器です。
type Evaluator struct {
	Set      string
	Coef     Coefficients
	width    int
	height   int
	depth    int
	position [][][]float64
}

// NewEvaluator は評価器を作成します。
func NewEvaluator(set string, width, height, depth int) *Evaluator {
	coef := CoefficientsFor(set, width, height)
	return &Evaluator{
		Set:      set,
		Coef:     coef,
		width:    width,
		height:   height,
		depth:    depth,
		position: positionMatrix(set, coef, width, height, depth),
	}
}

// Evaluate はボクセル群をピットのコピーに固定して評価し、評価後のピットも返します。
// 元のピットは変更しません。
func (e *Evaluator) Evaluate(pit *voxel.Pit, voxels []voxel.Vec) (Features, *voxel.Pit) {
	post := pit.Clone()
	post.AddVoxels(voxels)
	cleared := post.ClearFullLayers()

	f := Features{
		Heights:       post.ColumnHeights(),
		LayersCleared: cleared.Count,
		Lines:         cleared.Count * pit.Width * pit.Height,
	}
	for _, row := range f.Heights {
		for _, h := range row {
			f.MaxHeight = max(f.MaxHeight, h)
		}
	}
	f.Holes = countHoles(post, f.Heights)
	f.Smoothness = smoothness(f.Heights)
	f.SmoothnessSqr = smoothnessSqr(f.Heights)
	f.Peakness = peakness(f.Heights, peakBias)
	f.CommonEdges = commonEdges(pit, voxels)
	f.PositionNote = e.positionNote(voxels)
	f.DeathZone = deathZone(post)

	c := e.Coef
	f.Total = c.Lines*float64(f.Lines) +
		c.Smooth*f.SmoothnessSqr +
		c.Peak*float64(f.Peakness) +
		c.Hole*float64(f.Holes) +
		c.Puzzle*f.CommonEdges +
		f.PositionNote + f.DeathZone
	return f, post
}

// countHoles は各スタックの最上段より下にある空のボクセルを数えます。
func countHoles(p *voxel.Pit, heights [][]int) int {
	holes := 0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			top := p.Depth - heights[y][x]
			for z := top + 1; z < p.Depth; z++ {
				if p.Layers[z][y][x] == 0 {
					holes++
				}
			}
		}
	}
	return holes
}

// smoothness は隣接するスタックの高さの差の絶対値の合計です。
func smoothness(heights [][]int) int {
	s := 0
	for y := range heights {
		for x := range heights[y] {
			if x+1 < len(heights[y]) {
				s += abs(heights[y][x] - heights[y][x+1])
			}
			if y+1 < len(heights) {
				s += abs(heights[y][x] - heights[y+1][x])
			}
		}
	}
	return s
}

// smoothnessSqr は4方向の高さの差の二乗をセル数で割った値です。完全に平らなら -10 をセル数で割った値になります。
func smoothnessSqr(heights [][]int) float64 {
	total := 0
	h := len(heights)
	w := len(heights[0])
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, d := range neighbors2D {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				diff := heights[y][x] - heights[ny][nx]
				total += diff * diff
			}
		}
	}
	if total == 0 {
		total = -10
	}
	return float64(total) / float64(w*h)
}

var neighbors2D = [4][2]int{{-1, 0}, {0, -1}, {1, 0}, {0, 1}}

// peakness はどの隣も (高さ + bias) を超えないスタックの数です。
func peakness(heights [][]int, bias int) int {
	note := 0
	h := len(heights)
	w := len(heights[0])
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ok := true
			for _, d := range neighbors2D {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if heights[ny][nx]-heights[y][x] > bias {
					ok = false
					break
				}
			}
			if ok {
				note++
			}
		}
	}
	return note
}

var neighbors3D = [6]voxel.Vec{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// commonEdges はピースの外側の面のうち、壁か固定前のボクセルに接している面の割合です。
func commonEdges(pre *voxel.Pit, voxels []voxel.Vec) float64 {
	own := make(map[voxel.Vec]bool, len(voxels))
	for _, v := range voxels {
		own[v] = true
	}
	common, faces := 0, 0
	for _, v := range voxels {
		for _, d := range neighbors3D {
			n := voxel.Vec{v[0] + d[0], v[1] + d[1], v[2] + d[2]}
			if own[n] {
				continue
			}
			faces++
			if !pre.InBounds(n) || pre.Occupied(n) {
				common++
			}
		}
	}
	if faces == 0 {
		return 0
	}
	return float64(common) / float64(faces)
}

// positionNote はピースのボクセル位置の評価値の平均です。
func (e *Evaluator) positionNote(voxels []voxel.Vec) float64 {
	if len(voxels) == 0 {
		return 0
	}
	note := 0.0
	for _, v := range voxels {
		if v[2] < 0 || v[2] >= e.depth || v[1] < 0 || v[1] >= e.height || v[0] < 0 || v[0] >= e.width {
			continue
		}
		note += e.position[v[2]][v[1]][v[0]]
	}
	return note / float64(len(voxels))
}

// deathZone はピースの出現層と、その下の奥の角に残ったボクセルを罰します。
func deathZone(p *voxel.Pit) float64 {
	note := 0.0
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			if p.Layers[0][y][x] != 0 {
				note += deathZoneTopCell
			}
		}
	}
	for z := 0; z < min(deathZoneDepth, p.Depth); z++ {
		for y := max(0, p.Height-deathZoneCornerLen); y < p.Height; y++ {
			for x := max(0, p.Width-deathZoneCornerLen); x < p.Width; x++ {
				if p.Layers[z][y][x] == 0 {
					continue
				}
				if z == 0 {
					note += deathZoneCornerTop
				} else {
					note += deathZoneCornerSub
				}
			}
		}
	}
	return note
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
