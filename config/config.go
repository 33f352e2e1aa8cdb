package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"signalDesk/internal/adapters/logger" // Import the logger package for LogLevel
	"signalDesk/internal/domain"
	"signalDesk/internal/playbook"
)

// Config holds all application configuration.
type Config struct {
	// Data sources
	UseLiveData      bool
	BinanceAPIKey    string
	BinanceSecretKey string
	BinanceTestnet   bool
	BinanceRateLimit float64 // Requests per second, 0 = unlimited
	YahooRateLimit   float64
	ProviderTimeout  time.Duration
	LayerTimeout     time.Duration
	CandleLimit      int

	// Redis cache (optional, empty addr disables it)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	// Database
	DBPath       string
	LogQueueSize int

	// HTTP
	HTTPAddr string

	// Scheduled scan (empty SCAN_CRON disables it)
	ScanCron  string
	Watchlist []string
	WatchMode domain.Mode

	// Alerts
	AlertTicker      string
	AlertMode        domain.Mode
	AlertWindow      time.Duration
	AlertUserIDs     []string
	TelegramBotToken string
	TelegramChatID   string

	// Playbook thresholds
	PlaybookPath string
	Playbook     playbook.Config

	// Logging
	LogLevel logger.LogLevel
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Data sources
	cfg.UseLiveData = getEnvAsBool("USE_LIVE_DATA", false)
	cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
	cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.BinanceTestnet = getEnvAsBool("IS_TESTNET", false)

	cfg.BinanceRateLimit, err = getEnvAsFloatRequired("BINANCE_RATE_LIMIT", 10)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid BINANCE_RATE_LIMIT: %v", err))
	} else if cfg.BinanceRateLimit < 0 {
		errs = append(errs, "BINANCE_RATE_LIMIT cannot be negative")
	}
	cfg.YahooRateLimit, err = getEnvAsFloatRequired("YAHOO_RATE_LIMIT", 2)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid YAHOO_RATE_LIMIT: %v", err))
	} else if cfg.YahooRateLimit < 0 {
		errs = append(errs, "YAHOO_RATE_LIMIT cannot be negative")
	}

	cfg.ProviderTimeout, err = getEnvAsDurationRequired("PROVIDER_TIMEOUT", 10*time.Second)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PROVIDER_TIMEOUT: %v", err))
	} else if cfg.ProviderTimeout <= 0 {
		errs = append(errs, "PROVIDER_TIMEOUT must be positive")
	}
	cfg.LayerTimeout, err = getEnvAsDurationRequired("LAYER_TIMEOUT", 2*time.Second)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid LAYER_TIMEOUT: %v", err))
	} else if cfg.LayerTimeout <= 0 {
		errs = append(errs, "LAYER_TIMEOUT must be positive")
	}
	cfg.CandleLimit, err = getEnvAsIntRequired("CANDLE_LIMIT", 200)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CANDLE_LIMIT: %v", err))
	} else if cfg.CandleLimit < 30 || cfg.CandleLimit > 1000 {
		errs = append(errs, "CANDLE_LIMIT must be between 30 and 1000")
	}

	// Redis
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)
	cfg.CacheTTL, err = getEnvAsDurationRequired("CACHE_TTL", 5*time.Minute)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid CACHE_TTL: %v", err))
	} else if cfg.CacheTTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive")
	}

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/signals.db")
	cfg.LogQueueSize = getEnvAsInt("LOG_QUEUE_SIZE", 256)
	if cfg.LogQueueSize <= 0 {
		errs = append(errs, "LOG_QUEUE_SIZE must be positive")
	}

	// HTTP
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Scheduled scan
	cfg.ScanCron = getEnv("SCAN_CRON", "")
	cfg.Watchlist = getEnvAsList("WATCHLIST", []string{"BTC", "ETH", "AAPL", "SPY"})
	cfg.WatchMode, err = getEnvAsMode("WATCH_MODE", domain.ModeSwing)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid WATCH_MODE: %v", err))
	}
	if cfg.ScanCron != "" && len(cfg.Watchlist) == 0 {
		errs = append(errs, "WATCHLIST must not be empty when SCAN_CRON is set")
	}

	// Alerts
	cfg.AlertTicker = domain.NormalizeTicker(getEnv("ALERT_TICKER", "BTC"))
	cfg.AlertMode, err = getEnvAsMode("ALERT_MODE", domain.ModeSwing)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ALERT_MODE: %v", err))
	}
	cfg.AlertWindow, err = getEnvAsDurationRequired("ALERT_WINDOW", time.Hour)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid ALERT_WINDOW: %v", err))
	} else if cfg.AlertWindow <= 0 {
		errs = append(errs, "ALERT_WINDOW must be positive")
	}
	cfg.AlertUserIDs = getEnvAsList("ALERT_USER_IDS", nil)
	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", "")
	if (cfg.TelegramBotToken == "") != (cfg.TelegramChatID == "") {
		errs = append(errs, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}

	// Playbook
	cfg.PlaybookPath = getEnv("PLAYBOOK_CONFIG", "config/playbook.yaml")
	cfg.Playbook, err = LoadPlaybook(cfg.PlaybookPath)
	if err != nil {
		errs = append(errs, err.Error())
	}

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// LoadPlaybook reads classifier thresholds from a YAML file. A missing file yields the
// defaults; keys absent from the file keep their default values.
func LoadPlaybook(path string) (playbook.Config, error) {
	cfg := playbook.DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read playbook config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse playbook config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("playbook config %s: %w", path, err)
	}
	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDurationRequired(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

// getEnvAsList splits a comma-separated value, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvAsMode(key string, defaultValue domain.Mode) (domain.Mode, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	mode, ok := domain.ParseMode(valueStr)
	if !ok {
		return "", fmt.Errorf("unknown mode '%s' for key %s", valueStr, key)
	}
	return mode, nil
}
