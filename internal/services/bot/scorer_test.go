package bot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
)

func TestLinesReward(t *testing.T) {
	assert.Equal(t, 0.0, LinesReward(0, 10))
	assert.Equal(t, 100.0+500.0+100.0, LinesReward(1, 1))
	assert.Equal(t, 400.0+8000.0+400.0, LinesReward(4, 4))
	assert.Greater(t, LinesReward(4, 4)/4, LinesReward(1, 1), "同時消去は1ラインあたりの報酬が大きい")
	assert.Greater(t, LinesReward(1, 10), LinesReward(1, 1), "高い位置の消去ほど報酬が大きい")
}

func TestRiskBandWeights(t *testing.T) {
	assert.Equal(t, 5.0, RiskBandWeights(49.9).Roughness)
	assert.Equal(t, 4.5, RiskBandWeights(50).Holes)
	assert.Equal(t, 4.5, RiskBandWeights(70).Holes)
	assert.Equal(t, 6.5, RiskBandWeights(70.1).Holes)
}

func TestAdaptiveScorer_Breakdown(t *testing.T) {
	f := Extract(chimneyBoard(t), tetris.LineClear{})
	b := AdaptiveScorer{}.Breakdown(f, ModeZen)

	// リスク30%: 低リスク帯の重み
	assert.InDelta(t, 30.0, b.RiskPercent, 1e-9)
	assert.InDelta(t, 3.0/7560.0*CommonScale*3.0, b.Holes, 1e-9)
	assert.InDelta(t, 432.0/(9*20*200)*CommonScale*5.0, b.Roughness, 1e-9)
	assert.InDelta(t, 8.0/(16*40)*CommonScale*4.5, b.Chimney, 1e-9)
	assert.InDelta(t, 6.0/20*CommonScale*2.5, b.MaxHeight, 1e-9)
	assert.InDelta(t, 56.0/200*CommonScale*2.0, b.AggHeight, 1e-9)
	assert.InDelta(t, 30*(1+b.Heuristic/ScoreSensitivity), b.Total, 1e-9)
	assert.Equal(t, b.Total, AdaptiveScorer{}.Score(f, ModeZen))

	survival := AdaptiveScorer{}.Breakdown(f, ModeSurvival)
	assert.InDelta(t, b.Holes*1.35, survival.Holes, 1e-9, "モードの倍率は帯の重みに掛かる")
}

func TestAdaptiveScorer_EmptyBoardCostsNothing(t *testing.T) {
	f := Extract(emptyBoard(t), tetris.LineClear{})
	assert.Equal(t, 0.0, AdaptiveScorer{}.Score(f, ModeZen))
}

// 他の条件が同じなら、穴を増やしたり列を高くしたりしてもコストは下がらない。
func TestAdaptiveScorer_MonotonicInHoles(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		b := randomBoard(r, 10, 20)
		f := Extract(b, tetris.LineClear{})
		worse := f
		worse.HolesCost += 5
		for _, m := range AllModes {
			assert.GreaterOrEqual(t, AdaptiveScorer{}.Score(worse, m), AdaptiveScorer{}.Score(f, m))
		}
	}
}

func TestLinearScorer(t *testing.T) {
	s := NewLinearScorer()
	flat := FeatureVector{AggregateHeight: 10, MaxHeight: 1}
	holed := flat
	holed.HolesCost = 3
	assert.Greater(t, s.Score(holed, ModeZen), s.Score(flat, ModeZen))

	cleared := flat
	cleared.LinesCleared = 2
	assert.InDelta(t, s.Score(flat, ModeZen)-8.0, s.Score(cleared, ModeZen), 1e-9)
	assert.InDelta(t, 0.5*10+2.0*1, s.Score(flat, ModeZen), 1e-9)
}

func TestLookaheadWeights(t *testing.T) {
	wc, wf := LookaheadWeights(0.6)
	assert.Equal(t, [2]float64{0.70, 0.30}, [2]float64{wc, wf})
	wc, wf = LookaheadWeights(0.5)
	assert.Equal(t, [2]float64{0.40, 0.60}, [2]float64{wc, wf})
	require.InDelta(t, 1.0, wc+wf, 1e-9)
}
