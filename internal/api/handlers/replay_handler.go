package handlers

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	gamesvc "github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
)

// ReplayHandler は候補のリプレイを配信するWebSocket接続を受け付けます。
type ReplayHandler struct {
	sessions *gamesvc.SessionManager
	upgrader websocket.Upgrader
}

// NewReplayHandler は新しい ReplayHandler を作成します。
// Origin ヘッダーが無い接続（ブラウザ以外）と origins に含まれる接続を許可します。
func NewReplayHandler(sessions *gamesvc.SessionManager, origins []string) *ReplayHandler {
	return &ReplayHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(origins, origin)
			},
		},
	}
}

// ServeWS はHTTP接続をWebSocketにアップグレードし、リプレイセッションを開始します。
// GET /ws/replay
func (h *ReplayHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("[ReplayHandler] WebSocketへのアップグレードに失敗しました")
		return
	}
	sessionID := h.sessions.RegisterClient(conn)
	log.Debug().Msgf("[ReplayHandler] 接続元 %s -> セッション %s", r.RemoteAddr, sessionID)
}
