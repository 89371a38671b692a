// Package config は実行時設定の読み込みを提供する。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StoreBackend はスナップショットの永続化先を表す。
type StoreBackend string

const (
	// StoreBackendFile はDATA_DIR配下のJSONファイルに保存する。
	StoreBackendFile StoreBackend = "file"
	// StoreBackendPostgres はPostgreSQLのsnapshotsテーブルに保存する。
	StoreBackendPostgres StoreBackend = "postgres"
	// StoreBackendSQLite はSQLiteファイルのsnapshotsテーブルに保存する。
	StoreBackendSQLite StoreBackend = "sqlite"
)

// Config は1回の実行で使用する設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 認証情報の必須チェックはコマンドごとに異なるため、Loadでは行わない。
type Config struct {
	// Slack
	SlackBotToken      string
	SlackNewsChannelID string
	SlackUserID        string
	SlackChannelID     string // レガシー単発実行モードの投稿先
	SlackAPIURL        string

	// Files
	DataDir      string
	FeedsPath    string
	WorkflowPath string

	// Review
	ReviewPageURL string

	// Logging
	LogLevel string

	// Fetch
	FetchTimeout    time.Duration
	FetchMaxSize    int64
	FetchRatePerSec float64

	// Windows & limits
	RetentionWindow time.Duration
	LookbackWindow  time.Duration
	HistoryLimit    int
	TrackingLimit   int

	// Store
	StoreBackend StoreBackend
	DatabaseURL  string
	SQLitePath   string

	// Metrics
	PushgatewayURL string
}

// Load は環境変数からConfigを読み込む。
// 値の形式やストア設定の整合性が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.SlackBotToken = os.Getenv("SLACK_BOT_TOKEN")
	cfg.SlackNewsChannelID = os.Getenv("SLACK_NEWS_CHANNEL_ID")
	cfg.SlackUserID = os.Getenv("SLACK_USER_ID")
	cfg.SlackChannelID = os.Getenv("SLACK_CHANNEL_ID")
	cfg.SlackAPIURL = getEnvString("SLACK_API_URL", "https://slack.com/api")

	cfg.DataDir = getEnvString("DATA_DIR", "data")
	cfg.FeedsPath = getEnvString("FEEDS_PATH", "feeds.json")
	cfg.WorkflowPath = getEnvString("WORKFLOW_PATH", ".github/workflows/send-reminder.yml")
	cfg.ReviewPageURL = os.Getenv("REVIEW_PAGE_URL")

	cfg.LogLevel = getEnvString("LOG_LEVEL", "INFO")

	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 15*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.FetchRatePerSec = getEnvFloat("FETCH_RATE_PER_SEC", 2)

	cfg.RetentionWindow = getEnvDuration("RETENTION_WINDOW", 7*24*time.Hour)
	cfg.LookbackWindow = getEnvDuration("LOOKBACK_WINDOW", 24*time.Hour)
	cfg.HistoryLimit = getEnvInt("HISTORY_LIMIT", 30)
	cfg.TrackingLimit = getEnvInt("TRACKING_LIMIT", 1000)

	cfg.StoreBackend = StoreBackend(strings.ToLower(getEnvString("STORE_BACKEND", string(StoreBackendFile))))
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.SQLitePath = getEnvString("SQLITE_PATH", filepath.Join(cfg.DataDir, "rssdigest.db"))

	cfg.PushgatewayURL = os.Getenv("PUSHGATEWAY_URL")

	switch cfg.StoreBackend {
	case StoreBackendFile, StoreBackendSQLite:
	case StoreBackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND: %q (allowed: file, postgres, sqlite)", cfg.StoreBackend)
	}

	if cfg.RetentionWindow <= 0 || cfg.LookbackWindow <= 0 {
		return nil, fmt.Errorf("RETENTION_WINDOW and LOOKBACK_WINDOW must be positive")
	}

	return cfg, nil
}

// SettingsPath は settings.json のパスを返す。
func (c *Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.json")
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

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return defaultVal
	}
	return f
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
