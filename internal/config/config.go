// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/hitoshi/burnoutbuddy/internal/eventlog"
	"github.com/hitoshi/burnoutbuddy/internal/security"
)

// StoreBackend はドキュメントストアの保存先の種類。
type StoreBackend string

const (
	StoreFile     StoreBackend = "file"
	StorePostgres StoreBackend = "postgres"
	StoreSQLite   StoreBackend = "sqlite"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend  StoreBackend
	DataDir       string
	DatabaseURL   string
	SQLitePath    string
	EventLogLimit int

	// Checkout
	PaymentLinkURL string

	// Admin
	AdminKey string

	// Analytics
	Timezone *time.Location

	// Analyze
	LexiconPath string

	// Memory retention
	MemoryRetentionDays int
	CleanupInterval     time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitAnalyze int

	// Logging
	LogLevel string

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string

	// CORS
	CORSAllowedOrigin string
}

// LoadDotEnv はカレントディレクトリの .env を読み込む。
// 既に設定されている環境変数は上書きしない。ファイルが無い場合は何もしない。
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	cfg.StoreBackend = StoreBackend(strings.ToLower(getEnvString("STORE_BACKEND", string(StoreFile))))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = os.Getenv("SQLITE_PATH")

	switch cfg.StoreBackend {
	case StoreFile:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q (want file, postgres or sqlite)", cfg.StoreBackend)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.PaymentLinkURL = strings.TrimSpace(os.Getenv("PAYMENT_LINK_URL"))
	if cfg.PaymentLinkURL != "" {
		if err := security.ValidateRedirectURL(cfg.PaymentLinkURL); err != nil {
			return nil, fmt.Errorf("invalid PAYMENT_LINK_URL: %w", err)
		}
	}

	tz := getEnvString("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}
	cfg.Timezone = loc

	// Optional fields with defaults
	cfg.DataDir = getEnvString("DATA_DIR", "./data")
	cfg.EventLogLimit = getEnvInt("EVENT_LOG_LIMIT", eventlog.DefaultCapacity)
	if cfg.EventLogLimit <= 0 {
		cfg.EventLogLimit = eventlog.DefaultCapacity
	}
	if cfg.EventLogLimit > eventlog.DefaultCapacity {
		return nil, fmt.Errorf("EVENT_LOG_LIMIT must be at most %d, got %d", eventlog.DefaultCapacity, cfg.EventLogLimit)
	}
	cfg.AdminKey = os.Getenv("ADMIN_KEY")
	cfg.LexiconPath = os.Getenv("LEXICON_PATH")
	cfg.MemoryRetentionDays = getEnvInt("MEMORY_RETENTION_DAYS", 180)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 24 * time.Hour
	}
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitAnalyze = getEnvInt("RATE_LIMIT_ANALYZE", 20)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
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
