package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// VersionChecker はデータベースの疎通確認を行います。
type VersionChecker interface {
	ServerVersion(ctx context.Context) (string, error)
}

// SessionCounter は接続中のリプレイセッション数を返します。
type SessionCounter interface {
	ActiveSessions() int
}

// HealthHandler はサーバーの状態を返します。
type HealthHandler struct {
	db       VersionChecker // nil ならデータベース無し
	sessions SessionCounter
}

// NewHealthHandler は新しい HealthHandler を作成します。
func NewHealthHandler(db VersionChecker, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{db: db, sessions: sessions}
}

// Health はサーバーとデータベースの状態を返すハンドラーです。
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{"status": "ok", "database": "disabled"}
	if h.sessions != nil {
		body["replay_sessions"] = h.sessions.ActiveSessions()
	}

	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		version, err := h.db.ServerVersion(ctx)
		if err != nil {
			log.Error().Err(err).Msg("[HealthHandler] データベースに接続できません")
			body["status"], body["database"] = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		} else {
			body["database"], body["database_version"] = "ok", version
		}
	}
	WriteJSONResponse(w, status, body)
}
