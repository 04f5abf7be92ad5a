package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/lib/pq" // PostgreSQLドライバー
	"github.com/rs/zerolog/log"
)

// schema は自己対戦の結果を保存するテーブルです。
const schema = `
CREATE TABLE IF NOT EXISTS bot_runs (
	id            UUID PRIMARY KEY,
	user_id       TEXT        NOT NULL,
	mode          TEXT        NOT NULL,
	scorer        TEXT        NOT NULL,
	seed          BIGINT      NOT NULL,
	width         INTEGER     NOT NULL,
	height        INTEGER     NOT NULL,
	pieces        INTEGER     NOT NULL,
	score         INTEGER     NOT NULL,
	lines_cleared INTEGER     NOT NULL,
	level         INTEGER     NOT NULL,
	game_over     BOOLEAN     NOT NULL,
	duration_ms   BIGINT      NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
)`

// DatabaseService はデータベース接続を保持します。
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService はデータベースに接続し、Ping で疎通を確認します。
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Info().Msgf("[DatabaseService] データベース接続を試行中: %s", redactDatabaseURL(databaseURL))
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Info().Msg("[DatabaseService] データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// EnsureSchema は必要なテーブルが無ければ作成します。
func (s *DatabaseService) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("テーブルの作成に失敗しました: %w", err)
	}
	return nil
}

// ServerVersion はヘルスチェック用にデータベースのバージョン文字列を返します。
func (s *DatabaseService) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := s.DB.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("データベースのバージョン取得に失敗しました: %w", err)
	}
	return version, nil
}

// Close は接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// redactDatabaseURL はログ出力用に接続先のホストとデータベース名だけを残します。
// URL 形式でない key=value 形式の DSN は中身を出しません。
func redactDatabaseURL(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "(DSN)"
	}
	return u.Scheme + "://" + u.Host + u.Path
}
