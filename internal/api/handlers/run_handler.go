package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	gamesvc "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
)

// 自己対戦リクエストの上限と既定値
const (
	defaultSelfPlayPieces = 100
	maxSelfPlayPieces     = 2000
	minBoardSize          = 4
	maxBoardWidth         = 40
	maxBoardHeight        = 60
	defaultRunsLimit      = 10
	maxRunsLimit          = 100
)

// RunHandler は自己対戦の実行と結果の取得を処理します。
type RunHandler struct {
	cfg  BotConfig
	runs database.RunRepository // nil なら結果を保存しない
}

// NewRunHandler は新しい RunHandler を作成します。runs が nil の場合、結果は保存されません。
func NewRunHandler(cfg BotConfig, runs database.RunRepository) *RunHandler {
	return &RunHandler{cfg: cfg, runs: runs}
}

// SelfPlayResponse は自己対戦のレスポンスです。
type SelfPlayResponse struct {
	Run    models.Run              `json:"run"`
	Result *gamesvc.SelfPlayResult `json:"result"`
	Saved  bool                    `json:"saved"`
}

// validateSelfPlay は既定値を補い、範囲外の値を拒否します。
func validateSelfPlay(req *models.SelfPlayRequest) error {
	if req.Pieces == 0 {
		req.Pieces = defaultSelfPlayPieces
	}
	if req.Width == 0 {
		req.Width = tetris.DefaultBoardWidth
	}
	if req.Height == 0 {
		req.Height = tetris.DefaultBoardHeight
	}
	if req.Pieces < 0 || req.Pieces > maxSelfPlayPieces {
		return fmt.Errorf("%w: pieces は 1〜%d で指定してください", errInvalidRequest, maxSelfPlayPieces)
	}
	if req.Width < minBoardSize || req.Width > maxBoardWidth || req.Height < minBoardSize || req.Height > maxBoardHeight {
		return fmt.Errorf("%w: 盤面の寸法が範囲外です (%dx%d)", errInvalidRequest, req.Width, req.Height)
	}
	if req.GarbageEvery < 0 || req.GarbageEvery > maxSelfPlayPieces {
		return fmt.Errorf("%w: garbage_every は 0〜%d で指定してください", errInvalidRequest, maxSelfPlayPieces)
	}
	return nil
}

// SelfPlay はボットに自己対戦させ、結果を保存して返すハンドラーです。
// POST /api/protected/selfplay
func (h *RunHandler) SelfPlay(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		WriteErrorResponse(w, http.StatusUnauthorized, "ユーザーIDがコンテキストに見つかりません")
		return
	}

	var req models.SelfPlayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, "RunHandler", err)
		return
	}
	if err := validateSelfPlay(&req); err != nil {
		writeError(w, "RunHandler", err)
		return
	}
	engine, err := NewEngine(h.cfg, req.Mode, nil, req.Scorer)
	if err != nil {
		writeError(w, "RunHandler", err)
		return
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	state, err := gamesvc.NewPlayerGameState(userID, req.Width, req.Height, seed)
	if err != nil {
		writeError(w, "RunHandler", err)
		return
	}

	result, err := gamesvc.NewAutoPlayer(engine, h.cfg.SearchTimeout).WithGarbage(req.GarbageEvery).Run(r.Context(), state, req.Pieces)
	if err != nil {
		writeError(w, "RunHandler", err)
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = h.cfg.Mode
	}
	run := models.Run{
		UserID:       userID,
		Mode:         mode,
		Scorer:       engine.Scorer().Name(),
		Seed:         seed,
		Width:        req.Width,
		Height:       req.Height,
		Pieces:       result.Pieces,
		Score:        result.Score,
		LinesCleared: result.LinesCleared,
		Level:        result.Level,
		GameOver:     result.GameOver,
		DurationMS:   result.Duration.Milliseconds(),
	}

	saved := false
	if h.runs != nil {
		if err := h.runs.CreateRun(r.Context(), &run); err != nil {
			writeError(w, "RunHandler", err)
			return
		}
		saved = true
		log.Info().Msgf("[RunHandler] 自己対戦結果を保存しました: %s (ユーザー %s, スコア %d)", run.ID, userID, run.Score)
	}
	WriteJSONResponse(w, http.StatusOK, SelfPlayResponse{Run: run, Result: result, Saved: saved})
}

// GetTopRuns はスコア上位の自己対戦結果を返すハンドラーです。
// GET /api/runs?limit=10
func (h *RunHandler) GetTopRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "結果の保存が無効です (DATABASE_URL 未設定)")
		return
	}

	limit := defaultRunsLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed > 0 && parsed <= maxRunsLimit {
			limit = parsed
		}
	}

	runs, err := h.runs.GetTopRuns(r.Context(), limit)
	if err != nil {
		writeError(w, "RunHandler", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun は1件の自己対戦結果を返すハンドラーです。
// GET /api/runs/{id}
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "結果の保存が無効です (DATABASE_URL 未設定)")
		return
	}

	run, err := h.runs.GetRun(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, database.ErrRunNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, "RunHandler", err)
		return
	}
	WriteJSONResponse(w, http.StatusOK, run)
}
