package bot

// Scorer は特徴量を1つのコスト値にまとめます。値が小さいほど良い手です。
type Scorer interface {
	Name() string
	Score(f FeatureVector, mode Mode) float64
}

// 正規化の定数
const (
	CommonScale      = 10000.0
	ScoreSensitivity = 5000.0

	maxChimneys        = 4
	maxChimneyDepth    = 4
	maxHolesPerChimney = 20
)

// 最悪ケースの値で正規化することで、重みの調整がボードの寸法に依存しないようにします。
func worstHolesCost(w, h int) float64     { return 36 * float64(h*(h+1)) / 2 }
func worstRoughnessCost(w, h int) float64 { return float64((w - 1) * h * (w * h)) }
func worstChimneyCost(w, h int) float64 {
	return float64(maxChimneys * maxChimneyDepth * (h + maxHolesPerChimney))
}
func worstMaxHeight(w, h int) float64 { return float64(h) }
func worstAggHeight(w, h int) float64 { return float64(w * h) }

// RiskBandWeights はリスク（%）の帯ごとの基本の重みを返します。
//
// 低リスクでは平らさと井戸の形を重視し、高リスクでは穴と高さを強く罰します。
func RiskBandWeights(riskPercent float64) WeightProfile {
	switch {
	case riskPercent < 50:
		return WeightProfile{Holes: 3.0, Roughness: 5.0, Chimney: 4.5, MaxHeight: 2.5, AggHeight: 2.0}
	case riskPercent <= 70:
		return WeightProfile{Holes: 4.5, Roughness: 4.0, Chimney: 2.5, MaxHeight: 3.5, AggHeight: 3.0}
	default:
		return WeightProfile{Holes: 6.5, Roughness: 3.0, Chimney: 1.5, MaxHeight: 5.0, AggHeight: 4.0}
	}
}

// CostBreakdown は正規化と重み付けを行った後の各項です。
type CostBreakdown struct {
	Holes       float64 `json:"holes"`
	Roughness   float64 `json:"roughness"`
	Chimney     float64 `json:"chimney"`
	MaxHeight   float64 `json:"maxHeight"`
	AggHeight   float64 `json:"aggHeight"`
	Heuristic   float64 `json:"heuristic"`
	LinesReward float64 `json:"linesReward"`
	RiskPercent float64 `json:"riskPercent"`
	Total       float64 `json:"total"`
}

// AdaptiveScorer はリスク帯の重みとモードの倍率を重ねて使うスコアラーです。
type AdaptiveScorer struct{}

func (AdaptiveScorer) Name() string { return "adaptive" }

// Score は risk% × (1 + heuristic / 5000) − linesReward を返します。
func (s AdaptiveScorer) Score(f FeatureVector, mode Mode) float64 {
	return s.Breakdown(f, mode).Total
}

// Breakdown は Score の内訳を返します。
func (AdaptiveScorer) Breakdown(f FeatureVector, mode Mode) CostBreakdown {
	w, h := f.Width, f.Height
	risk := f.RiskRatio() * 100
	prefs := RiskBandWeights(risk).Mul(mode.Profile())

	b := CostBreakdown{
		Holes:       float64(f.HolesCost) / worstHolesCost(w, h) * CommonScale * prefs.Holes,
		Roughness:   float64(f.RoughnessCost) / worstRoughnessCost(w, h) * CommonScale * prefs.Roughness,
		Chimney:     float64(f.ChimneyCost) / worstChimneyCost(w, h) * CommonScale * prefs.Chimney,
		MaxHeight:   float64(f.MaxHeight) / worstMaxHeight(w, h) * CommonScale * prefs.MaxHeight,
		AggHeight:   float64(f.AggregateHeight) / worstAggHeight(w, h) * CommonScale * prefs.AggHeight,
		LinesReward: LinesReward(f.LinesCleared, f.HighestClearedHeight),
		RiskPercent: risk,
	}
	if w < 2 {
		b.Roughness = 0 // 1列のボードに凹凸は無い
	}
	b.Heuristic = b.Holes + b.Roughness + b.Chimney + b.MaxHeight + b.AggHeight
	b.Total = risk*(1+b.Heuristic/ScoreSensitivity) - b.LinesReward
	return b
}

// LinesReward は同時消去数に対して超線形に増え、消去位置が高いほど大きくなる報酬です。
func LinesReward(lines, highestClearedHeight int) float64 {
	if lines <= 0 {
		return 0
	}
	n := float64(lines)
	return 100*n + 500*n*n + 100*float64(highestClearedHeight)
}

// LinearWeights は LinearScorer の重みです。正の値が報酬、負の値が罰です。
type LinearWeights struct {
	Lines     float64 `json:"lines"`
	Holes     float64 `json:"holes"`
	Roughness float64 `json:"roughness"`
	AggHeight float64 `json:"aggHeight"`
	MaxHeight float64 `json:"maxHeight"`
}

// DefaultLinearWeights は単純なヒューリスティックの既定の重みです。
var DefaultLinearWeights = LinearWeights{Lines: 4.0, Holes: -1.0, Roughness: -0.1, AggHeight: -0.5, MaxHeight: -2.0}

// LinearScorer は生の特徴量の線形結合を符号反転してコストにするスコアラーです。モードは使いません。
type LinearScorer struct {
	Weights LinearWeights
}

// NewLinearScorer は既定の重みの LinearScorer を作成します。
func NewLinearScorer() LinearScorer {
	return LinearScorer{Weights: DefaultLinearWeights}
}

func (LinearScorer) Name() string { return "linear" }

func (s LinearScorer) Score(f FeatureVector, _ Mode) float64 {
	w := s.Weights
	utility := w.Lines*float64(f.LinesCleared) +
		w.Holes*float64(f.HolesCost) +
		w.Roughness*float64(f.RoughnessCost) +
		w.AggHeight*float64(f.AggregateHeight) +
		w.MaxHeight*float64(f.MaxHeight)
	return -utility
}

// LookaheadWeights は現在の手と次のピースの最善手のスコアを混ぜる重みです。
// リスクが高いほど現在の結果を重視します。
func LookaheadWeights(riskRatio float64) (current, future float64) {
	if riskRatio > 0.5 {
		return 0.70, 0.30
	}
	return 0.40, 0.60
}
