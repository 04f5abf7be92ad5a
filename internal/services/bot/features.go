package bot

import "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"

// ChimneyMinDepth は井戸（チムニー）とみなす最小の深さです。
const ChimneyMinDepth = 4

// FeatureVector は1つの盤面から求めた構造的な特徴量です。
// 〜Cost の付く値は重みを掛ける前の生のコストです。
type FeatureVector struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	Heights    []int `json:"heights"`
	HolesInCol []int `json:"-"`
	HolesInRow []int `json:"-"`

	Holes           int `json:"holes"`
	HolesCost       int `json:"holesCost"` // Σ 行の穴の数² × 行の高さ
	Roughness       int `json:"roughness"` // 隣接する列の高さの差の合計
	RoughnessCost   int `json:"roughnessCost"`
	ChimneyCost     int `json:"chimneyCost"`
	MaxHeight       int `json:"maxHeight"`
	AggregateHeight int `json:"aggregateHeight"`
	OccupiedCells   int `json:"occupiedCells"`

	LinesCleared         int `json:"linesCleared"`
	HighestClearedHeight int `json:"highestClearedHeight,omitempty"` // 最も高い消去行の床からの高さ
}

// RiskRatio は最大の列の高さをボードの高さで割った値です。
func (f FeatureVector) RiskRatio() float64 {
	if f.Height == 0 {
		return 0
	}
	return float64(f.MaxHeight) / float64(f.Height)
}

// Extract は盤面（ライン消去後）と消去結果から特徴量を計算します。
//
// Parameters:
//   b       : 評価する盤面
//   cleared : この盤面を作ったときのライン消去結果（行は消去前の座標）
// Returns:
//   FeatureVector: 計算された特徴量
func Extract(b *tetris.Board, cleared tetris.LineClear) FeatureVector {
	f := FeatureVector{
		Width:        b.Width,
		Height:       b.Height,
		Heights:      make([]int, b.Width),
		HolesInCol:   make([]int, b.Width),
		HolesInRow:   make([]int, b.Height),
		LinesCleared: cleared.Count,
	}

	for x := 0; x < b.Width; x++ {
		found := false
		for y := 0; y < b.Height; y++ {
			if b.Cells[y][x] != tetris.BlockEmpty {
				f.OccupiedCells++
				if !found {
					found = true
					f.Heights[x] = b.Height - y
				}
				continue
			}
			if found {
				f.HolesInCol[x]++
				f.HolesInRow[y]++
				f.Holes++
			}
		}
		f.AggregateHeight += f.Heights[x]
		f.MaxHeight = max(f.MaxHeight, f.Heights[x])
	}

	// 行の重みは床からの高さ。同じ穴でも高い行にあるほど重い
	for y, n := range f.HolesInRow {
		f.HolesCost += n * n * (b.Height - y)
	}

	for x := 0; x+1 < b.Width; x++ {
		f.Roughness += abs(f.Heights[x] - f.Heights[x+1])
	}
	f.RoughnessCost = f.Roughness * f.OccupiedCells

	for x := 0; x < b.Width; x++ {
		// 盤外の隣は最大の高さの壁として扱う
		left, right := b.Height, b.Height
		if x > 0 {
			left = f.Heights[x-1]
		}
		if x < b.Width-1 {
			right = f.Heights[x+1]
		}
		depth := min(left, right) - f.Heights[x]
		if depth >= ChimneyMinDepth {
			f.ChimneyCost += depth * (f.Heights[x] + f.HolesInCol[x])
		}
	}

	if cleared.Count > 0 && len(cleared.Rows) > 0 {
		top := cleared.Rows[0]
		for _, y := range cleared.Rows[1:] {
			top = min(top, y)
		}
		f.HighestClearedHeight = b.Height - top
	}
	return f
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
