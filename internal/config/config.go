package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/powerfleet/internal/model"
	"github.com/joho/godotenv"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL       string
	DBConnectAttempts int

	// Session token
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTExpiry   time.Duration
	BcryptCost  int

	// Reporting
	DashboardWindow      time.Duration
	ReportRegions        []string
	MaintenanceIntervals map[model.PlantType]int
	UnifiedStatusRules   bool

	// Worker
	AlertScanInterval time.Duration

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Bootstrap
	AdminBootstrapPassword string

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

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む（既に設定済みの環境変数は上書きしない）。
// 必須環境変数が未設定、または値の形式が不正な場合はエラーを返す。
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Structured fields
	intervals, err := ParseIntervals(os.Getenv("MAINTENANCE_INTERVALS"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAINTENANCE_INTERVALS: %w", err)
	}
	cfg.MaintenanceIntervals = intervals
	cfg.ReportRegions = parseList(os.Getenv("REPORT_REGIONS"))

	// Optional fields with defaults
	cfg.DBConnectAttempts = getEnvInt("DB_CONNECT_ATTEMPTS", 5)
	cfg.JWTIssuer = getEnvString("JWT_ISSUER", "powerfleet")
	cfg.JWTAudience = getEnvString("JWT_AUDIENCE", "powerfleet-web")
	cfg.JWTExpiry = getEnvDuration("JWT_EXPIRY", 60*time.Minute)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", 10)
	cfg.DashboardWindow = getEnvDuration("DASHBOARD_WINDOW", 720*time.Hour)
	cfg.UnifiedStatusRules = getEnvBool("UNIFIED_STATUS_RULES", false)
	cfg.AlertScanInterval = getEnvDuration("ALERT_SCAN_INTERVAL", time.Hour)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.AdminBootstrapPassword = os.Getenv("ADMIN_BOOTSTRAP_PASSWORD")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

// ParseIntervals は "Nuclear=90,Coal=120" 形式の保守間隔表を解析する。
// 空文字列の場合はnilを返す。指定した種別だけが既定の間隔表を上書きする。
func ParseIntervals(s string) (map[model.PlantType]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	intervals := make(map[model.PlantType]int)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		name, days, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("entry %q must be Type=Days", pair)
		}

		pt, err := model.ParsePlantType(name)
		if err != nil {
			return nil, err
		}

		n, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("entry %q must have a positive day count", pair)
		}
		intervals[pt] = n
	}
	return intervals, nil
}

// parseList はカンマ区切りの文字列を空要素を除いたスライスに変換する。
func parseList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
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

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
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
