package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
)

func testRouter(t *testing.T, bypass bool) http.Handler {
	t.Helper()
	cfg := handlers.BotConfig{Mode: "auto", Lookahead: true}
	bot, err := handlers.NewBotHandler(cfg)
	require.NoError(t, err)
	sessions := tetris.NewSessionManager(bot, time.Millisecond)
	t.Cleanup(sessions.Shutdown)

	return newRouter(routes{
		bot:    bot,
		runs:   handlers.NewRunHandler(cfg, nil),
		health: handlers.NewHealthHandler(nil, sessions),
		replay: handlers.NewReplayHandler(sessions, nil),
		auth:   middleware.AuthMiddleware("secret", bypass),
	})
}

func TestRouter(t *testing.T) {
	r := testRouter(t, false)
	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/health", "", http.StatusOK},
		{http.MethodGet, "/api/bot/modes", "", http.StatusOK},
		{http.MethodGet, "/api/bot/move", "", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/bot/move", `{"board":[[0,0,0,0],[0,0,0,0],[0,0,0,0],[0,0,0,0]],"piece":"O"}`, http.StatusOK},
		{http.MethodPost, "/api/bot/move3d", `{"width":3,"height":3,"depth":4,"piece":0}`, http.StatusOK},
		{http.MethodGet, "/api/runs", "", http.StatusServiceUnavailable},
		{http.MethodPost, "/api/protected/selfplay", `{}`, http.StatusUnauthorized},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_SelfPlayWithBypass(t *testing.T) {
	r := testRouter(t, true)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/protected/selfplay", strings.NewReader(`{"pieces":3,"seed":1}`)))
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"saved":false`)
}
