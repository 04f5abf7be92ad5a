package tetris

import "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"

// リプレイフレームの種類
const (
	FrameCandidate = "candidate"
	FrameBest      = "best"
	FrameError     = "error"
)

// ReplayFrame はリプレイで1回に送信する内容です。
// 候補を列挙順に1つずつ送り、最後に選ばれた手を送ります。
type ReplayFrame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Seq       int            `json:"seq"`
	Total     int            `json:"total"` // 候補の総数
	Candidate *bot.Candidate `json:"candidate,omitempty"`
	Move      *bot.Move      `json:"move,omitempty"`
	Mode      string         `json:"mode,omitempty"`
	Partial   bool           `json:"partial,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BuildReplay は評価結果をリプレイ用のフレーム列に変換します。
// 合法な配置が無い場合、最後のフレームの Move は nil です。
func BuildReplay(sessionID string, ev *bot.Evaluation) []ReplayFrame {
	total := len(ev.Candidates)
	frames := make([]ReplayFrame, 0, total+1)
	for i := range ev.Candidates {
		frames = append(frames, ReplayFrame{
			Type:      FrameCandidate,
			SessionID: sessionID,
			Seq:       i,
			Total:     total,
			Candidate: &ev.Candidates[i],
		})
	}

	last := ReplayFrame{
		Type:      FrameBest,
		SessionID: sessionID,
		Seq:       total,
		Total:     total,
		Mode:      ev.Mode.String(),
		Partial:   ev.Partial,
	}
	if ev.Best != nil {
		last.Move = &bot.Move{
			Rotation:     ev.Best.Rotation,
			X:            ev.Best.X,
			Y:            ev.Best.Y,
			Score:        ev.Best.Score,
			Mode:         ev.Mode,
			LinesCleared: ev.Best.LinesCleared,
			Features:     ev.Best.Features,
		}
	}
	return append(frames, last)
}
