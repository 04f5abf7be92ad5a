package tetris

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/models/tetris"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

func evaluateEmpty(t *testing.T) *bot.Evaluation {
	t.Helper()
	board, err := tetris.NewBoard(tetris.DefaultBoardWidth, tetris.DefaultBoardHeight)
	require.NoError(t, err)
	ev, err := bot.NewEngine().Evaluate(context.Background(), board, tetris.StandardShape(tetris.TypeT), nil)
	require.NoError(t, err)
	return ev
}

func TestBuildReplay(t *testing.T) {
	ev := evaluateEmpty(t)
	frames := BuildReplay("session-1", ev)

	require.Len(t, frames, len(ev.Candidates)+1)
	for i, f := range frames[:len(frames)-1] {
		assert.Equal(t, FrameCandidate, f.Type)
		assert.Equal(t, i, f.Seq)
		assert.Equal(t, len(ev.Candidates), f.Total)
		assert.Equal(t, ev.Candidates[i], *f.Candidate)
	}

	last := frames[len(frames)-1]
	assert.Equal(t, FrameBest, last.Type)
	require.NotNil(t, last.Move)
	assert.Equal(t, ev.Best.X, last.Move.X)
	assert.Equal(t, ev.Best.Rotation, last.Move.Rotation)
	assert.Equal(t, ev.Mode.String(), last.Mode)
}

func TestBuildReplay_NoLegalPlacement(t *testing.T) {
	frames := BuildReplay("session-2", &bot.Evaluation{Mode: bot.ModeZen})
	require.Len(t, frames, 1)
	assert.Equal(t, FrameBest, frames[0].Type)
	assert.Nil(t, frames[0].Move)
}

func newReplayServer(t *testing.T, planner Planner) (*SessionManager, *websocket.Conn) {
	t.Helper()
	sm := NewSessionManager(planner, time.Millisecond)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sm.RegisterClient(conn)
	}))
	t.Cleanup(func() {
		sm.Shutdown()
		srv.Close()
	})

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return sm, conn
}

func readFrame(t *testing.T, conn *websocket.Conn) ReplayFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f ReplayFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestSessionManager_StreamsReplay(t *testing.T) {
	ev := evaluateEmpty(t)
	got := make(chan string, 1)
	planner := PlannerFunc(func(_ context.Context, payload []byte) (*bot.Evaluation, error) {
		got <- string(payload)
		return ev, nil
	})
	sm, conn := newReplayServer(t, planner)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"piece":"T"}`)))

	var frames []ReplayFrame
	for {
		f := readFrame(t, conn)
		frames = append(frames, f)
		if f.Type == FrameBest {
			break
		}
	}
	assert.Equal(t, `{"piece":"T"}`, <-got)
	assert.Len(t, frames, len(ev.Candidates)+1)
	assert.NotEmpty(t, frames[0].SessionID)
	assert.Equal(t, 1, sm.ActiveSessions())
}

func TestSessionManager_PlannerError(t *testing.T) {
	planner := PlannerFunc(func(context.Context, []byte) (*bot.Evaluation, error) {
		return nil, errors.New("invalid board")
	})
	_, conn := newReplayServer(t, planner)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{}`)))
	f := readFrame(t, conn)
	assert.Equal(t, FrameError, f.Type)
	assert.Equal(t, "invalid board", f.Error)
}
