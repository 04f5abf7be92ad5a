package voxelbot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

// Placement は1つの候補（向きと (x, y)）の静止位置です。
type Placement struct {
	Orientation int
	X, Y, Z     int // ピボット基準の位置
	Voxels      []voxel.Vec
}

// Candidate は評価済みの候補です。
type Candidate struct {
	Orientation int         `json:"orientation"`
	Angles      [3]int      `json:"angles"`
	X           int         `json:"x"`
	Y           int         `json:"y"`
	Z           int         `json:"z"`
	Voxels      []voxel.Vec `json:"voxels"`
	Score       float64     `json:"score"` // 小さいほど良い
	Current     float64     `json:"current"`
	Future      *float64    `json:"future,omitempty"`
	Features    Features    `json:"features"`
}

// Move はエンジンの出力です。
type Move = Candidate

// Evaluation は1回の探索の全候補と選ばれた手です。
type Evaluation struct {
	Set        string      `json:"set"`
	Candidates []Candidate `json:"candidates"`
	Best       *Candidate  `json:"best"`
	Partial    bool        `json:"partial"`
}

// Engine は3Dピットの着手選択エンジンです。
type Engine struct {
	lookahead bool
	parallel  bool
}

// Option は Engine の設定を変更します。
type Option func(*Engine)

// WithLookahead は次のピースの先読みを有効または無効にします。
func WithLookahead(enabled bool) Option {
	return func(e *Engine) { e.lookahead = enabled }
}

// WithParallel は向きごとの評価を並列に実行します。
func WithParallel(enabled bool) Option {
	return func(e *Engine) { e.parallel = enabled }
}

// NewEngine はエンジンを作成します。先読みは既定で有効です。
func NewEngine(opts ...Option) *Engine {
	e := &Engine{lookahead: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// translate はボクセル群を平行移動したコピーを返します。
func translate(voxels []voxel.Vec, d voxel.Vec) []voxel.Vec {
	out := make([]voxel.Vec, len(voxels))
	for i, v := range voxels {
		out[i] = voxel.Vec{v[0] + d[0], v[1] + d[1], v[2] + d[2]}
	}
	return out
}

// DropZ は向き o のピースを (x, y) から落とし、静止位置を返します。
// 最上層に置いた時点で重なるか盤外に出る場合は ok=false で、それ以上は落下させません。
func DropZ(pit *voxel.Pit, piece *voxel.Polycube, o int, x, y int) (Placement, bool) {
	base := voxel.Project(piece, voxel.Orientations[o], voxel.Vec{})
	lo, _ := voxel.Bounds(base)
	return dropProjected(pit, base, o, x, y, -lo[2])
}

func dropProjected(pit *voxel.Pit, base []voxel.Vec, o, x, y, z0 int) (Placement, bool) {
	z := z0
	voxels := translate(base, voxel.Vec{x, y, z})
	if pit.Overlaps(voxels) {
		return Placement{}, false
	}
	for {
		next := translate(base, voxel.Vec{x, y, z + 1})
		if pit.Overlaps(next) {
			break
		}
		z++
		voxels = next
	}
	return Placement{Orientation: o, X: x, Y: y, Z: z, Voxels: voxels}, true
}

// EnumerateOrientation は1つの向きで可能な全ての静止位置を (x, y) の昇順で返します。
func EnumerateOrientation(pit *voxel.Pit, piece *voxel.Polycube, o int) []Placement {
	base := voxel.Project(piece, voxel.Orientations[o], voxel.Vec{})
	lo, hi := voxel.Bounds(base)
	var out []Placement
	for x := -lo[0]; x <= pit.Width-1-hi[0]; x++ {
		for y := -lo[1]; y <= pit.Height-1-hi[1]; y++ {
			if p, ok := dropProjected(pit, base, o, x, y, -lo[2]); ok {
				out = append(out, p)
			}
		}
	}
	return out
}

// Enumerate は異なる形になる全ての向きと位置の候補を返します。
func Enumerate(pit *voxel.Pit, piece *voxel.Polycube) []Placement {
	var out []Placement
	for _, o := range voxel.DistinctOrientations(piece) {
		out = append(out, EnumerateOrientation(pit, piece, o)...)
	}
	return out
}

// BestMove は最善手を返します。合法な配置が無い場合は ok=false です。
func (e *Engine) BestMove(pit *voxel.Pit, piece, next *voxel.Polycube) (Move, bool, error) {
	return e.BestMoveContext(context.Background(), pit, piece, next)
}

// BestMoveContext は ctx の期限が来たら残りの向きを評価せず、それまでの最善手を返します。
func (e *Engine) BestMoveContext(ctx context.Context, pit *voxel.Pit, piece, next *voxel.Polycube) (Move, bool, error) {
	ev, err := e.Evaluate(ctx, pit, piece, next)
	if err != nil {
		return Move{}, false, err
	}
	if ev.Best == nil {
		if ev.Partial {
			return Move{}, false, ctx.Err()
		}
		return Move{}, false, nil
	}
	return *ev.Best, true, nil
}

// Evaluate は全ての候補を評価します。
//
// Parameters:
//   ctx   : 期限（切れた場合は評価済みの候補だけで選ぶ）
//   pit   : 現在のピット（変更されません）
//   piece : 落下中のピース
//   next  : 次のピース（不明なら nil）
// Returns:
//   *Evaluation: 列挙順の候補と選ばれた手
//   error      : ピットやピースが不正な場合
func (e *Engine) Evaluate(ctx context.Context, pit *voxel.Pit, piece, next *voxel.Polycube) (*Evaluation, error) {
	if err := pit.Validate(); err != nil {
		log.Warn().Err(err).Msg("[VoxelEngine] ピットが不正です")
		return nil, err
	}
	if piece == nil || len(piece.Voxels) == 0 {
		return nil, fmt.Errorf("%w: 落下中のピースがありません", voxel.ErrInvalidPieceShape)
	}

	snapshot := pit.Clone()
	set := piece.Set
	if _, ok := voxel.PieceSet(set); !ok {
		set = voxel.DefaultSet
	}
	eval := NewEvaluator(set, snapshot.Width, snapshot.Height, snapshot.Depth)
	if !e.lookahead {
		next = nil
	}

	orientations := voxel.DistinctOrientations(piece)
	perOrientation := make([][]Candidate, len(orientations))
	done := make([]bool, len(orientations))
	if e.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, o := range orientations {
			branch := snapshot.Clone()
			g.Go(func() error {
				perOrientation[i], done[i] = e.evaluateOrientation(gctx, eval, branch, piece, next, o)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, o := range orientations {
			perOrientation[i], done[i] = e.evaluateOrientation(ctx, eval, snapshot, piece, next, o)
			if !done[i] {
				break
			}
		}
	}

	ev := &Evaluation{Set: set}
	for i, cands := range perOrientation {
		if !done[i] {
			ev.Partial = true
		}
		ev.Candidates = append(ev.Candidates, cands...)
	}
	for i := range ev.Candidates {
		if ev.Best == nil || ev.Candidates[i].Score < ev.Best.Score {
			ev.Best = &ev.Candidates[i]
		}
	}
	if ev.Best != nil {
		log.Debug().Msgf("[VoxelEngine] 最善手: orientation=%d (%d,%d,%d) score=%.3f 候補数=%d",
			ev.Best.Orientation, ev.Best.X, ev.Best.Y, ev.Best.Z, ev.Best.Score, len(ev.Candidates))
	}
	return ev, nil
}

// evaluateOrientation は1つの向きの候補を評価します。
// ctx が切れた時点で打ち切り、それまでの候補と complete=false を返します。
func (e *Engine) evaluateOrientation(ctx context.Context, eval *Evaluator, pit *voxel.Pit, piece, next *voxel.Polycube, o int) ([]Candidate, bool) {
	placements := EnumerateOrientation(pit, piece, o)
	out := make([]Candidate, 0, len(placements))
	for _, p := range placements {
		if ctx.Err() != nil {
			return out, false
		}
		f, post := eval.Evaluate(pit, p.Voxels)
		current := -f.Total
		c := Candidate{
			Orientation: o,
			Angles:      voxel.Orientations[o].Angles,
			X:           p.X,
			Y:           p.Y,
			Z:           p.Z,
			Voxels:      p.Voxels,
			Score:       current,
			Current:     current,
			Features:    f,
		}
		if next != nil {
			future, ok, err := bestCost(ctx, eval, post, next)
			if err != nil {
				return out, false
			}
			if ok {
				wc, wf := bot.LookaheadWeights(float64(f.MaxHeight) / float64(pit.Depth))
				c.Future = &future
				c.Score = current*wc + future*wf
			}
		}
		out = append(out, c)
	}
	return out, true
}

// bestCost は次のピースの最小コストを返します。先読みは1手に限ります。
// 途中で ctx が切れた場合はそのエラーを返します。
func bestCost(ctx context.Context, eval *Evaluator, pit *voxel.Pit, piece *voxel.Polycube) (float64, bool, error) {
	var best float64
	found := false
	for _, o := range voxel.DistinctOrientations(piece) {
		for _, p := range EnumerateOrientation(pit, piece, o) {
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
			f, _ := eval.Evaluate(pit, p.Voxels)
			if cost := -f.Total; !found || cost < best {
				best, found = cost, true
			}
		}
	}
	return best, found, nil
}
