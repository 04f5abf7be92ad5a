package tetris

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/bot"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 300 * time.Second
	pingPeriod     = 60 * time.Second
	maxMessageSize = 64 * 1024 // 盤面を含むリクエストを受け取れる大きさ
	sendBufferSize = 512
)

// Planner はクライアントから受け取ったリクエストを評価します。
type Planner interface {
	Plan(ctx context.Context, payload []byte) (*bot.Evaluation, error)
}

// PlannerFunc は関数を Planner として使うためのアダプターです。
type PlannerFunc func(ctx context.Context, payload []byte) (*bot.Evaluation, error)

// Plan は f(ctx, payload) を呼び出します。
func (f PlannerFunc) Plan(ctx context.Context, payload []byte) (*bot.Evaluation, error) {
	return f(ctx, payload)
}

// Client はWebSocket接続を持つ単一のリプレイ視聴者です。
type Client struct {
	SessionID string
	Conn      *websocket.Conn
	Send      chan []byte
	closed    bool
	mu        sync.Mutex
}

// SafeSend は安全にチャネルにメッセージを送信します。閉じている、またはバッファが一杯なら false です。
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// SafeClose は安全にチャネルを閉じます。
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// SessionManager はリプレイのWebSocketセッションを管理します。
// クライアントが送った盤面を評価し、候補を1つずつ遅延を挟んで送信します。
type SessionManager struct {
	planner Planner
	delay   time.Duration
	clients map[string]*Client
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewSessionManager は SessionManager を作成します。
//
// Parameters:
//   planner : リクエストを評価する Planner
//   delay   : フレーム間の遅延
// Returns:
//   *SessionManager: 初期化されたセッションマネージャー
func NewSessionManager(planner Planner, delay time.Duration) *SessionManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionManager{
		planner: planner,
		delay:   delay,
		clients: make(map[string]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// RegisterClient はアップグレード済みのWebSocket接続を登録し、読み書きのゴルーチンを開始します。
//
// Returns:
//   string: 新しいセッションID
func (sm *SessionManager) RegisterClient(conn *websocket.Conn) string {
	client := &Client{
		SessionID: uuid.New().String(),
		Conn:      conn,
		Send:      make(chan []byte, sendBufferSize),
	}

	sm.mu.Lock()
	sm.clients[client.SessionID] = client
	sm.mu.Unlock()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go sm.readPump(client)
	go client.writePump()

	log.Info().Msgf("[SessionManager] リプレイセッションを開始しました: %s", client.SessionID)
	return client.SessionID
}

// ActiveSessions は接続中のセッション数を返します。
func (sm *SessionManager) ActiveSessions() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.clients)
}

func (sm *SessionManager) unregister(client *Client) {
	sm.mu.Lock()
	if _, ok := sm.clients[client.SessionID]; ok {
		delete(sm.clients, client.SessionID)
		client.SafeClose()
		log.Info().Msgf("[SessionManager] リプレイセッションを終了しました: %s", client.SessionID)
	}
	sm.mu.Unlock()
}

// readPump はクライアントからのリクエストを読み込み、1件ずつ評価してリプレイを送信します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Msgf("[SessionManager] readPump でパニックが発生しました (%s): %v", client.SessionID, r)
		}
		sm.unregister(client)
		client.Conn.Close()
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msgf("[SessionManager] 予期しない切断です: %s", client.SessionID)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		ev, err := sm.planner.Plan(sm.ctx, message)
		if err != nil {
			log.Warn().Err(err).Msgf("[SessionManager] リクエストを評価できませんでした: %s", client.SessionID)
			sm.send(client, ReplayFrame{Type: FrameError, SessionID: client.SessionID, Error: err.Error()})
			continue
		}
		if !sm.stream(client, BuildReplay(client.SessionID, ev)) {
			return
		}
	}
}

// stream はフレームを遅延を挟んで送信します。シャットダウンされた場合は false を返します。
func (sm *SessionManager) stream(client *Client, frames []ReplayFrame) bool {
	for i, frame := range frames {
		if i > 0 && sm.delay > 0 {
			select {
			case <-time.After(sm.delay):
			case <-sm.ctx.Done():
				return false
			}
		}
		if !sm.send(client, frame) {
			return false
		}
	}
	return true
}

func (sm *SessionManager) send(client *Client, frame ReplayFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Error().Err(err).Msg("[SessionManager] フレームのシリアライズに失敗しました")
		return false
	}
	if !client.SafeSend(data) {
		log.Warn().Msgf("[SessionManager] %s に送信できませんでした (チャネルが閉じているか一杯です)", client.SessionID)
		return false
	}
	return true
}

// writePump は Send チャネルのメッセージをWebSocket接続に書き込みます。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Warn().Err(err).Msgf("[Client] 書き込みに失敗しました: %s", c.SessionID)
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown は進行中のリプレイを止め、全てのクライアントを切断します。
func (sm *SessionManager) Shutdown() {
	log.Info().Msg("[SessionManager] シャットダウン開始...")
	sm.cancel()

	sm.mu.Lock()
	for id, client := range sm.clients {
		client.SafeClose()
		delete(sm.clients, id)
	}
	sm.mu.Unlock()
	log.Info().Msg("[SessionManager] シャットダウン完了")
}
