package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBConnectAttempts int

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Session
	SessionSecret string
	SessionMaxAge int

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitWrite   int

	// Worker
	SessionCleanupSchedule string

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigins []string
}

// defaultSessionMaxAge はログインセッションの既定有効期間（60日、秒単位）。
const defaultSessionMaxAge = 60 * 24 * 60 * 60

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string
	required := func(key string, dst *string) {
		*dst = os.Getenv(key)
		if *dst == "" {
			missing = append(missing, key)
		}
	}

	required("DATABASE_URL", &cfg.DatabaseURL)
	required("GOOGLE_CLIENT_ID", &cfg.GoogleClientID)
	required("GOOGLE_CLIENT_SECRET", &cfg.GoogleClientSecret)
	required("GOOGLE_REDIRECT_URL", &cfg.GoogleRedirectURL)
	required("SESSION_SECRET", &cfg.SessionSecret)
	required("BASE_URL", &cfg.BaseURL)

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.DBConnectAttempts = getEnvInt("DB_CONNECT_ATTEMPTS", 5)
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", defaultSessionMaxAge)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 60)
	cfg.SessionCleanupSchedule = getEnvString("SESSION_CLEANUP_SCHEDULE", "@every 1h")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// TimerConfig はtimerサブコマンドの接続設定。
type TimerConfig struct {
	APIURL       string
	SessionToken string
	Timeout      time.Duration
}

// LoadTimer はtimerサブコマンドの既定値を環境変数から読み込む。
// フラグで上書きされる前提のため、未設定でもエラーにしない。
func LoadTimer() TimerConfig {
	return TimerConfig{
		APIURL:       getEnvString("MINDJOURNAL_API_URL", "http://localhost:8080"),
		SessionToken: os.Getenv("MINDJOURNAL_SESSION"),
		Timeout:      getEnvDuration("MINDJOURNAL_API_TIMEOUT", 10*time.Second),
	}
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvList はカンマ区切りの環境変数を空要素を除いて返す。
func getEnvList(key, defaultVal string) []string {
	var out []string
	for _, v := range strings.Split(getEnvString(key, defaultVal), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
