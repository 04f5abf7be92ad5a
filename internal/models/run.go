package models

import (
	"time"
)

// Run は bot_runs テーブルのレコード（ボットの自己対戦1回分）に対応する構造体です。
type Run struct {
	ID           string    `json:"id"`      // UUID
	UserID       string    `json:"user_id"` // 実行を依頼したユーザー
	Mode         string    `json:"mode"`    // 開始時のモード ("auto" を含む)
	Scorer       string    `json:"scorer"`
	Seed         int64     `json:"seed"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Pieces       int       `json:"pieces"`
	Score        int       `json:"score"`
	LinesCleared int       `json:"lines_cleared"`
	Level        int       `json:"level"`
	GameOver     bool      `json:"game_over"`
	DurationMS   int64     `json:"duration_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// RunResponse はランキング用のレスポンスです。
type RunResponse struct {
	Run
	Rank int `json:"rank"`
}

// SelfPlayRequest は自己対戦リクエスト用の構造体です。
type SelfPlayRequest struct {
	Pieces       int    `json:"pieces"`
	Seed         *int64 `json:"seed,omitempty"` // 省略時は現在時刻
	Mode         string `json:"mode,omitempty"` // 省略時は "auto"
	Scorer       string `json:"scorer,omitempty"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	GarbageEvery int    `json:"garbage_every,omitempty"` // N ピースごとにお邪魔ライン1本。0 なら無し
}
