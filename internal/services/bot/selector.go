package bot

// Candidate は評価済みの候補です。
type Candidate struct {
	Rotation     int           `json:"rotation"`
	X            int           `json:"x"`
	Y            int           `json:"y"`
	Score        float64       `json:"score"`
	Current      float64       `json:"current"`          // 先読みを混ぜる前のスコア
	Future       *float64      `json:"future,omitempty"` // 次のピースの最善スコア
	HolesCost    int           `json:"holesCost"`
	MaxHeight    int           `json:"maxHeight"`
	LinesCleared int           `json:"linesCleared"`
	ZeroNetDebt  bool          `json:"zeroNetDebt"` // 穴のコストが着手前より増えていない
	Features     FeatureVector `json:"-"`
}

// SelectBest は最善の候補を選びます。
//
// 穴のコストが着手前の盤面以下の候補（負債が増えない手）があれば、その中からスコア最小、
// 同点なら最大の高さが低いものを選びます。無ければ全体のスコア最小を選びます。
// それでも同点の場合は列挙順で先の候補が残ります。
//
// Parameters:
//   candidates    : 列挙順の候補
//   baselineHoles : 着手前の盤面の穴のコスト
// Returns:
//   Candidate: 選ばれた候補
//   bool     : 候補が1つも無い場合は false
func SelectBest(candidates []Candidate, baselineHoles int) (Candidate, bool) {
	var best, bestPool Candidate
	found, foundPool := false, false
	for _, c := range candidates {
		if !found || c.Score < best.Score {
			best, found = c, true
		}
		if c.HolesCost > baselineHoles {
			continue
		}
		if !foundPool || c.Score < bestPool.Score ||
			(c.Score == bestPool.Score && c.MaxHeight < bestPool.MaxHeight) {
			bestPool, foundPool = c, true
		}
	}
	if foundPool {
		return bestPool, true
	}
	return best, found
}
