package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/voxel"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
	gamesvc "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/voxelbot"
)

const modeAuto = "auto"

// maxBodyBytes はリクエストボディの上限です。
const maxBodyBytes = 1 << 20

// maxPitAxis は3Dピットの各辺の上限です。
const maxPitAxis = 16

// BotConfig はエンジンの既定の設定です。
type BotConfig struct {
	Mode          string // "auto" またはモード名
	Lookahead     bool
	Parallel      bool
	SearchTimeout time.Duration // 0 なら期限なし
}

// NewEngine は設定とリクエストの指定からエンジンを作成します。
//
// Parameters:
//   cfg    : 既定の設定
//   mode   : "auto"、モード名、または空（既定の設定に従う）
//   auto   : 自動選択の指定（nil なら mode に従う）
//   scorer : "adaptive"、"linear"、または空
// Returns:
//   *bot.Engine: 作成されたエンジン
//   error      : モード名やスコアラー名が不明な場合
func NewEngine(cfg BotConfig, mode string, auto *bool, scorer string) (*bot.Engine, error) {
	if mode == "" {
		mode = cfg.Mode
	}
	initial, manual := bot.DefaultMode, false
	if mode != "" && mode != modeAuto {
		m, err := bot.ParseMode(mode)
		if err != nil {
			return nil, err
		}
		initial, manual = m, true
	}
	if auto != nil {
		manual = !*auto
	}

	selector := bot.NewModeSelector(initial)
	if manual {
		if err := selector.SetManual(initial); err != nil {
			return nil, err
		}
	}

	opts := []bot.Option{
		bot.WithModeSelector(selector),
		bot.WithLookahead(cfg.Lookahead),
		bot.WithParallel(cfg.Parallel),
	}
	switch scorer {
	case "", "adaptive":
	case "linear":
		opts = append(opts, bot.WithScorer(bot.NewLinearScorer()))
	default:
		return nil, fmt.Errorf("%w: 不明なスコアラー %q", errInvalidRequest, scorer)
	}
	return bot.NewEngine(opts...), nil
}

// BotHandler は着手選択のHTTPリクエストを処理します。
type BotHandler struct {
	cfg    BotConfig
	engine *bot.Engine // モードを指定しないリクエスト用。モード選択の履歴をリクエスト間で保持する
	voxel  *voxelbot.Engine
}

// NewBotHandler は新しい BotHandler を作成します。
func NewBotHandler(cfg BotConfig) (*BotHandler, error) {
	engine, err := NewEngine(cfg, "", nil, "")
	if err != nil {
		return nil, fmt.Errorf("エンジンの作成に失敗しました: %w", err)
	}
	return &BotHandler{
		cfg:    cfg,
		engine: engine,
		voxel:  voxelbot.NewEngine(voxelbot.WithLookahead(cfg.Lookahead), voxelbot.WithParallel(cfg.Parallel)),
	}, nil
}

// MoveRequest は2Dの着手リクエストです。piece と next は "T" のような名前か 0/1 の正方行列です。
type MoveRequest struct {
	Board [][]int         `json:"board"`
	Piece json.RawMessage `json:"piece"`
	Next  json.RawMessage `json:"next,omitempty"`
	Mode  string          `json:"mode,omitempty"`
	Auto  *bool           `json:"auto,omitempty"`
}

// MoveResponse は着手のレスポンスです。合法な配置が無い場合 Move は null です。
type MoveResponse struct {
	Move    *bot.Move `json:"move"`
	Actions []string  `json:"actions,omitempty"` // 出現位置から目標までの操作列
}

// Move3DRequest は3Dの着手リクエストです。layers を省略すると空のピットになります。
type Move3DRequest struct {
	Set    string    `json:"set"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
	Depth  int       `json:"depth"`
	Layers [][][]int `json:"layers,omitempty"`
	Piece  int       `json:"piece"`
	Next   *int      `json:"next,omitempty"`
}

// Move3DResponse は3Dの着手のレスポンスです。
type Move3DResponse struct {
	Move *voxelbot.Move `json:"move"`
}

// ModeInfo はモードの一覧の1要素です。
type ModeInfo struct {
	Name    string            `json:"name"`
	Profile bot.WeightProfile `json:"profile"`
}

// parseShape は "T" のような名前、または 0/1 の正方行列からピース定義を作ります。
func parseShape(raw json.RawMessage) (*tetris.Shape, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		t, ok := tetris.StringToPieceType(name)
		if !ok {
			return nil, fmt.Errorf("%w: 不明なピース %q", tetris.ErrInvalidPieceShape, name)
		}
		return tetris.StandardShape(t), nil
	}
	var matrix [][]int
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil, fmt.Errorf("%w: ピースは名前か正方行列で指定してください", tetris.ErrInvalidPieceShape)
	}
	return tetris.NewShapeFromMatrix(tetris.TypeCustom, matrix)
}

// planRequest はリクエストを盤面・ピース・エンジンに変換したものです。
type planRequest struct {
	board       *tetris.Board
	piece, next *tetris.Shape
	engine      *bot.Engine
}

func (h *BotHandler) parseMoveRequest(req *MoveRequest) (*planRequest, error) {
	board, err := tetris.BoardFromInts(req.Board)
	if err != nil {
		return nil, err
	}
	if board.Width > maxBoardWidth || board.Height > maxBoardHeight {
		return nil, fmt.Errorf("%w: 盤面は最大 %dx%d です (%dx%d)",
			tetris.ErrInvalidBoard, maxBoardWidth, maxBoardHeight, board.Width, board.Height)
	}
	piece, err := parseShape(req.Piece)
	if err != nil {
		return nil, err
	}
	if piece == nil {
		return nil, fmt.Errorf("%w: piece がありません", tetris.ErrInvalidPieceShape)
	}
	next, err := parseShape(req.Next)
	if err != nil {
		return nil, err
	}

	engine := h.engine
	if req.Mode != "" || req.Auto != nil {
		if engine, err = NewEngine(h.cfg, req.Mode, req.Auto, ""); err != nil {
			return nil, err
		}
	}
	return &planRequest{board: board, piece: piece, next: next, engine: engine}, nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}

// withSearchTimeout は設定された探索の期限付きコンテキストを返します。
func (h *BotHandler) withSearchTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.cfg.SearchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.cfg.SearchTimeout)
}

// Move は2Dの最善手を返すハンドラーです。
// POST /api/bot/move
func (h *BotHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	plan, err := h.parseMoveRequest(&req)
	if err != nil {
		writeError(w, "BotHandler", err)
		return
	}

	ctx, cancel := h.withSearchTimeout(r.Context())
	defer cancel()
	move, ok, err := plan.engine.BestMoveContext(ctx, plan.board, plan.piece, plan.next)
	if err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	if !ok {
		WriteJSONResponse(w, http.StatusOK, MoveResponse{})
		return
	}

	spawn := tetris.NewPiece(plan.piece)
	spawn.X, spawn.Y = tetris.SpawnPosition(plan.piece, plan.board.Width)
	log.Debug().Msgf("[BotHandler] 着手: 回転 %d, x %d, y %d, モード %s", move.Rotation, move.X, move.Y, move.Mode)
	WriteJSONResponse(w, http.StatusOK, MoveResponse{Move: &move, Actions: gamesvc.MoveToActions(spawn, move)})
}

// Plan はリプレイ用にリクエストの全候補を評価します。gamesvc.Planner を実装します。
func (h *BotHandler) Plan(ctx context.Context, payload []byte) (*bot.Evaluation, error) {
	var req MoveRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	plan, err := h.parseMoveRequest(&req)
	if err != nil {
		return nil, err
	}
	return plan.engine.Evaluate(ctx, plan.board, plan.piece, plan.next)
}

// Move3D は3Dピットの最善手を返すハンドラーです。
// POST /api/bot/move3d
func (h *BotHandler) Move3D(w http.ResponseWriter, r *http.Request) {
	var req Move3DRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	if req.Set == "" {
		req.Set = voxel.DefaultSet
	}

	var pit *voxel.Pit
	var err error
	if len(req.Layers) > 0 {
		if pit, err = voxel.PitFromLayers(req.Layers); err == nil {
			err = checkPitSize(pit.Width, pit.Height, pit.Depth)
		}
	} else if err = checkPitSize(req.Width, req.Height, req.Depth); err == nil {
		pit, err = voxel.NewPit(req.Width, req.Height, req.Depth)
	}
	if err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	piece, err := voxel.Piece(req.Set, req.Piece)
	if err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	var next *voxel.Polycube
	if req.Next != nil {
		if next, err = voxel.Piece(req.Set, *req.Next); err != nil {
			writeError(w, "BotHandler", err)
			return
		}
	}

	ctx, cancel := h.withSearchTimeout(r.Context())
	defer cancel()
	move, ok, err := h.voxel.BestMoveContext(ctx, pit, piece, next)
	if err != nil {
		writeError(w, "BotHandler", err)
		return
	}
	if !ok {
		WriteJSONResponse(w, http.StatusOK, Move3DResponse{})
		return
	}
	WriteJSONResponse(w, http.StatusOK, Move3DResponse{Move: &move})
}

// checkPitSize は各辺が maxPitAxis を超えるピットを拒否します。
func checkPitSize(width, height, depth int) error {
	if width > maxPitAxis || height > maxPitAxis || depth > maxPitAxis {
		return fmt.Errorf("%w: ピットの各辺は最大 %d です (%dx%dx%d)",
			voxel.ErrInvalidPit, maxPitAxis, width, height, depth)
	}
	return nil
}

// Modes はモードの一覧と共有エンジンの現在のモードを返すハンドラーです。
// GET /api/bot/modes
func (h *BotHandler) Modes(w http.ResponseWriter, r *http.Request) {
	modes := make([]ModeInfo, 0, len(bot.AllModes))
	for _, m := range bot.AllModes {
		modes = append(modes, ModeInfo{Name: m.String(), Profile: m.Profile()})
	}
	selector := h.engine.Modes()
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{
		"modes":   modes,
		"current": selector.Current().String(),
		"auto":    selector.Auto(),
		"scorer":  h.engine.Scorer().Name(),
		"sets":    voxel.SetNames(),
	})
}
