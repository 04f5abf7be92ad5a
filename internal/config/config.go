package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ModeAuto は自動モード選択を表す BOT_MODE の値です。
const ModeAuto = "auto"

// Config はサーバーとCLIの設定です。
type Config struct {
	Port           string
	DatabaseURL    string // 空なら自己対戦結果を保存しない
	JWTSecret      string
	BypassAuth     bool
	LogLevel       string
	LogFormat      string
	BotMode        string // "auto" またはモード名
	BotLookahead   bool
	BotParallel    bool
	SearchTimeout  time.Duration
	ReplayDelay    time.Duration
	AllowedOrigins []string
	AppEnv         string
}

var defaultOrigins = []string{"http://localhost:3000"}

// Load は環境変数（production 以外では .env も）から設定を読み込み、グローバルロガーを設定します。
//
// Returns:
//   *Config: 読み込んだ設定
//   error  : 値の形式が不正な場合
func Load() (*Config, error) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv != "production" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msgf("[Config] .env を読み込めませんでした (本番環境では問題ありません): %v", err)
		}
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("SUPABASE_JWT_SECRET"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		BotMode:        strings.ToLower(getEnv("BOT_MODE", ModeAuto)),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS"), defaultOrigins),
		AppEnv:         appEnv,
	}

	var err error
	if cfg.BypassAuth, err = getBool("BYPASS_AUTH", false); err != nil {
		return nil, err
	}
	if cfg.BotLookahead, err = getBool("BOT_LOOKAHEAD", true); err != nil {
		return nil, err
	}
	if cfg.BotParallel, err = getBool("BOT_PARALLEL", false); err != nil {
		return nil, err
	}
	if cfg.SearchTimeout, err = getMillis("BOT_SEARCH_TIMEOUT_MS", 200); err != nil {
		return nil, err
	}
	if cfg.ReplayDelay, err = getMillis("REPLAY_DELAY_MS", 50); err != nil {
		return nil, err
	}

	if err := SetupLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger はグローバルロガーのレベルと出力形式を設定します。
// format が "console" なら人間向けの出力にします。
func SetupLogger(level, format string) error {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("LOG_LEVEL が不正です: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	if format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s が不正です: %w", key, err)
	}
	return b, nil
}

func getMillis(key string, fallback int) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(fallback) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 {
		return 0, fmt.Errorf("%s が不正です: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func splitList(v string, fallback []string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
