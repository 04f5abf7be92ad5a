package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/GITRIS-bot/internal/services/tetris"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] 設定の読み込みに失敗しました")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runs database.RunRepository
	var dbChecker handlers.VersionChecker
	if cfg.DatabaseURL != "" {
		dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("[Main] データベースに接続できません")
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("[Main] スキーマの作成に失敗しました")
		}
		runs = database.NewRunRepository(dbService.DB)
		dbChecker = dbService
	} else {
		log.Warn().Msg("[Main] DATABASE_URL が未設定のため、自己対戦の結果は保存されません")
	}

	botCfg := handlers.BotConfig{
		Mode:          cfg.BotMode,
		Lookahead:     cfg.BotLookahead,
		Parallel:      cfg.BotParallel,
		SearchTimeout: cfg.SearchTimeout,
	}
	botHandler, err := handlers.NewBotHandler(botCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("[Main] BOT_MODE が不正です")
	}
	sessions := tetris.NewSessionManager(botHandler, cfg.ReplayDelay)

	router := newRouter(routes{
		bot:    botHandler,
		runs:   handlers.NewRunHandler(botCfg, runs),
		health: handlers.NewHealthHandler(dbChecker, sessions),
		replay: handlers.NewReplayHandler(sessions, cfg.AllowedOrigins),
		auth:   middleware.AuthMiddleware(cfg.JWTSecret, cfg.BypassAuth),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORSHandler(cfg.AllowedOrigins)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Msgf("[Main] サーバーを起動します :%s (モード %s, 先読み %t, 並列 %t)",
			cfg.Port, cfg.BotMode, cfg.BotLookahead, cfg.BotParallel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("[Main] サーバーが異常終了しました")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("[Main] シャットダウンします")
	sessions.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("[Main] シャットダウンに失敗しました")
	}
}
