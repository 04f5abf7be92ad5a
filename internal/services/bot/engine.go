package bot

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
)

// Move はエンジンの出力です。
type Move struct {
	Rotation     int           `json:"rotation"` // 時計回りの回転回数 (0〜3)
	X            int           `json:"x"`
	Y            int           `json:"y"`
	Score        float64       `json:"score"`
	Mode         Mode          `json:"mode"`
	LinesCleared int           `json:"linesCleared"`
	Features     FeatureVector `json:"features"`
}

// Evaluation は1回の探索の全候補と選ばれた手です。
// 候補は列挙順に並び、リプレイ表示にそのまま使えます。
type Evaluation struct {
	Mode          Mode        `json:"mode"`
	Lookahead     bool        `json:"lookahead"`
	BaselineHoles int         `json:"baselineHoles"`
	Candidates    []Candidate `json:"candidates"`
	Best          *Candidate  `json:"best"`
	Partial       bool        `json:"partial"` // 期限切れで一部の回転を評価していない
}

// Engine は2Dボードの着手選択エンジンです。
// 呼び出しをまたいで保持する状態はモード選択のヒステリシスだけです。
type Engine struct {
	scorer    Scorer
	modes     *ModeSelector
	lookahead bool
	parallel  bool
}

// Option は Engine の設定を変更します。
type Option func(*Engine)

// WithScorer はスコアラーを差し替えます。
func WithScorer(s Scorer) Option {
	return func(e *Engine) { e.scorer = s }
}

// WithLookahead は次のピースの先読みを有効または無効にします。
func WithLookahead(enabled bool) Option {
	return func(e *Engine) { e.lookahead = enabled }
}

// WithParallel は回転ごとの評価を並列に実行します。各枝は自分の盤面のコピーを使います。
func WithParallel(enabled bool) Option {
	return func(e *Engine) { e.parallel = enabled }
}

// WithModeSelector はモード選択器を差し替えます。
func WithModeSelector(s *ModeSelector) Option {
	return func(e *Engine) { e.modes = s }
}

// NewEngine は AdaptiveScorer と自動モード選択を使うエンジンを作成します。
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		scorer:    AdaptiveScorer{},
		modes:     NewModeSelector(DefaultMode),
		lookahead: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Modes はエンジンのモード選択器を返します。
func (e *Engine) Modes() *ModeSelector {
	return e.modes
}

// Scorer はエンジンのスコアラーを返します。
func (e *Engine) Scorer() Scorer {
	return e.scorer
}

// BestMove は最善手を返します。合法な配置が無い場合は ok=false です。
//
// Parameters:
//   board : 現在の盤面（変更されません）
//   piece : 落下中のピース
//   next  : 次のピース（不明なら nil）
// Returns:
//   Move : 選ばれた手
//   bool : 合法な配置があれば true
//   error: 盤面やピースが不正な場合
func (e *Engine) BestMove(board *tetris.Board, piece, next *tetris.Shape) (Move, bool, error) {
	return e.BestMoveContext(context.Background(), board, piece, next)
}

// BestMoveContext は BestMove と同じですが、ctx の期限が来たら残りの回転を評価せず
// それまでの最善手を返します。1つも評価できなかった場合は ctx のエラーを返します。
func (e *Engine) BestMoveContext(ctx context.Context, board *tetris.Board, piece, next *tetris.Shape) (Move, bool, error) {
	ev, err := e.Evaluate(ctx, board, piece, next)
	if err != nil {
		return Move{}, false, err
	}
	if ev.Best == nil {
		if ev.Partial {
			return Move{}, false, ctx.Err()
		}
		log.Debug().Msg("[Engine] 合法な配置がありません")
		return Move{}, false, nil
	}
	best := ev.Best
	return Move{
		Rotation:     best.Rotation,
		X:            best.X,
		Y:            best.Y,
		Score:        best.Score,
		Mode:         ev.Mode,
		LinesCleared: best.LinesCleared,
		Features:     best.Features,
	}, true, nil
}

// Evaluate は全ての候補を列挙して評価し、選択結果と合わせて返します。
func (e *Engine) Evaluate(ctx context.Context, board *tetris.Board, piece, next *tetris.Shape) (*Evaluation, error) {
	if err := board.Validate(); err != nil {
		log.Warn().Err(err).Msg("[Engine] 盤面が不正です")
		return nil, err
	}
	if piece == nil || piece.BlockCount() == 0 {
		return nil, fmt.Errorf("%w: 落下中のピースがありません", tetris.ErrInvalidPieceShape)
	}

	// 呼び出し側の盤面とは独立したスナップショットで探索する
	snapshot := board.Clone()
	baseline := Extract(snapshot, tetris.LineClear{})
	ev := &Evaluation{
		Mode:          e.modes.Select(baseline.RiskRatio()),
		Lookahead:     e.lookahead && next != nil && e.modes.Auto(),
		BaselineHoles: baseline.HolesCost,
	}
	lookaheadPiece := next
	if !ev.Lookahead {
		lookaheadPiece = nil
	}

	perRotation := make([][]Candidate, tetris.RotationStates)
	done := make([]bool, tetris.RotationStates)
	if e.parallel {
		g, gctx := errgroup.WithContext(ctx)
		for r := 0; r < tetris.RotationStates; r++ {
			branch := snapshot.Clone()
			g.Go(func() error {
				perRotation[r], done[r] = e.evaluateRotation(gctx, branch, piece, lookaheadPiece, r, ev)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for r := 0; r < tetris.RotationStates; r++ {
			perRotation[r], done[r] = e.evaluateRotation(ctx, snapshot, piece, lookaheadPiece, r, ev)
			if !done[r] {
				break
			}
		}
	}

	for r, cands := range perRotation {
		if !done[r] {
			ev.Partial = true
		}
		ev.Candidates = append(ev.Candidates, cands...)
	}
	if ev.Partial {
		log.Warn().Msgf("[Engine] 期限切れのため一部の回転を評価していません (候補数=%d)", len(ev.Candidates))
	}
	if best, ok := SelectBest(ev.Candidates, ev.BaselineHoles); ok {
		ev.Best = &best
		log.Debug().Msgf("[Engine] 最善手: rotation=%d x=%d score=%.2f mode=%s 候補数=%d",
			best.Rotation, best.X, best.Score, ev.Mode, len(ev.Candidates))
	}
	return ev, nil
}

// evaluateRotation は ctx が切れた時点で打ち切り、それまでの候補と false を返します。
func (e *Engine) evaluateRotation(ctx context.Context, board *tetris.Board, piece, next *tetris.Shape, rotation int, ev *Evaluation) ([]Candidate, bool) {
	placements := EnumerateRotation(board, piece, rotation)
	out := make([]Candidate, 0, len(placements))
	for _, p := range placements {
		if ctx.Err() != nil {
			return out, false
		}
		f := Extract(p.Board, p.Cleared)
		current := e.scorer.Score(f, ev.Mode)
		c := Candidate{
			Rotation:     p.Rotation,
			X:            p.X,
			Y:            p.Y,
			Score:        current,
			Current:      current,
			HolesCost:    f.HolesCost,
			MaxHeight:    f.MaxHeight,
			LinesCleared: f.LinesCleared,
			ZeroNetDebt:  f.HolesCost <= ev.BaselineHoles,
			Features:     f,
		}
		if next != nil {
			future, ok, err := e.bestScore(ctx, p.Board, next, ev.Mode)
			if err != nil {
				return out, false
			}
			if ok {
				wc, wf := LookaheadWeights(f.RiskRatio())
				c.Future = &future
				c.Score = current*wc + future*wf
			}
		}
		out = append(out, c)
	}
	return out, true
}

// bestScore は次のピースを置いたときの最小スコアを返します。先読みは1手に限ります。
func (e *Engine) bestScore(ctx context.Context, board *tetris.Board, piece *tetris.Shape, mode Mode) (float64, bool, error) {
	var best float64
	found := false
	for r := 0; r < tetris.RotationStates; r++ {
		for _, p := range EnumerateRotation(board, piece, r) {
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
			s := e.scorer.Score(Extract(p.Board, p.Cleared), mode)
			if !found || s < best {
				best, found = s, true
			}
		}
	}
	return best, found, nil
}
