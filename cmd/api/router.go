package main

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/handlers"
)

// routes はルーターに登録するハンドラーです。
type routes struct {
	bot    *handlers.BotHandler
	runs   *handlers.RunHandler
	health *handlers.HealthHandler
	replay *handlers.ReplayHandler
	auth   func(http.Handler) http.Handler
}

func newRouter(h routes) *mux.Router {
	r := mux.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", h.health.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/bot/modes", h.bot.Modes).Methods(http.MethodGet)
	r.HandleFunc("/api/bot/move", h.bot.Move).Methods(http.MethodPost)
	r.HandleFunc("/api/bot/move3d", h.bot.Move3D).Methods(http.MethodPost)
	r.HandleFunc("/api/runs", h.runs.GetTopRuns).Methods(http.MethodGet)
	r.HandleFunc("/api/runs/{id}", h.runs.GetRun).Methods(http.MethodGet)
	r.HandleFunc("/ws/replay", h.replay.ServeWS)

	// 自己対戦はサーバーの計算資源を使うため認証が必要
	protected := r.PathPrefix("/api/protected").Subrouter()
	protected.Use(h.auth)
	protected.HandleFunc("/selfplay", h.runs.SelfPlay).Methods(http.MethodPost)

	return r
}
