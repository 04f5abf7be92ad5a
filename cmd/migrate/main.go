// migrate はデータベースへの接続を確認し、bot_runs テーブルを作成します。
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[Migrate] 設定の読み込みに失敗しました")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("[Migrate] DATABASE_URL 環境変数が設定されていません")
	}

	db, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("[Migrate] データベースに接続できません")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	version, err := db.ServerVersion(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("[Migrate] バージョンの取得に失敗しました")
	}
	fmt.Printf("データベースバージョン: %s\n", version)

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("[Migrate] スキーマの作成に失敗しました")
	}
	fmt.Println("成功: bot_runs テーブルを確認しました")
}
