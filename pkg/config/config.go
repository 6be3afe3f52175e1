package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: every environment variable is read here and nowhere else
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Yahoo    YahooConfig
	Telegram TelegramConfig

	// Engine
	Portfolio PortfolioConfig
	Optimizer OptimizerConfig
	Schedule  ScheduleConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	PriceTTL time.Duration
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// YahooConfig holds the Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL      string
	SymbolSuffix string // ".IS" for Borsa Istanbul
	Timeout      time.Duration
	MaxRetries   int
	RatePerSec   float64
	Concurrency  int
}

// TelegramConfig holds the notification bot configuration
type TelegramConfig struct {
	BotToken string
	ChatID   int64
	Enabled  bool
}

// PortfolioConfig holds the default optimization run parameters
type PortfolioConfig struct {
	Symbols          []string
	LookbackDays     int
	StartDate        string // YYYY-MM-DD, overrides LookbackDays when set
	EndDate          string // YYYY-MM-DD, defaults to today
	Value            float64
	Currency         string
	ConfidenceLevels []float64
	FrontierSamples  int
	RandomSeed       int64
	DropUnavailable  bool
	OutputDir        string
	ProfilePath      string
}

// OptimizerConfig holds solver settings
type OptimizerConfig struct {
	Method            string // bfgs, neldermead
	MaxIterations     int
	GradientThreshold float64
}

// ScheduleConfig holds cron specs for the background jobs (6 fields, seconds first)
type ScheduleConfig struct {
	Optimize   string
	PriceSync  string
	MACD       string
	AlphaTrend string
	Symbols    []string
}

// Load reads configuration from environment variables
// ⭐ SSOT: the only function that calls os.Getenv()
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			PriceTTL: getEnvAsDuration("REDIS_PRICE_TTL", "6h"),
		},

		// External APIs
		Yahoo: YahooConfig{
			BaseURL:      getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
			SymbolSuffix: getEnv("YAHOO_SYMBOL_SUFFIX", ".IS"),
			Timeout:      getEnvAsDuration("YAHOO_TIMEOUT", "15s"),
			MaxRetries:   getEnvAsInt("YAHOO_MAX_RETRIES", 3),
			RatePerSec:   getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
			Concurrency:  getEnvAsInt("YAHOO_CONCURRENCY", 4),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
			Enabled:  getEnvAsBool("TELEGRAM_ENABLED", false),
		},

		// Engine
		Portfolio: PortfolioConfig{
			Symbols:          getEnvAsSlice("PORTFOLIO_SYMBOLS", nil),
			LookbackDays:     getEnvAsInt("PORTFOLIO_LOOKBACK_DAYS", 365),
			StartDate:        getEnv("PORTFOLIO_START_DATE", ""),
			EndDate:          getEnv("PORTFOLIO_END_DATE", ""),
			Value:            getEnvAsFloat("PORTFOLIO_VALUE", 1_000_000),
			Currency:         getEnv("PORTFOLIO_CURRENCY", "TRY"),
			ConfidenceLevels: getEnvAsFloatSlice("PORTFOLIO_CONFIDENCE_LEVELS", []float64{0.95, 0.99}),
			FrontierSamples:  getEnvAsInt("FRONTIER_SAMPLES", 1000),
			RandomSeed:       getEnvAsInt64("RANDOM_SEED", 0),
			DropUnavailable:  getEnvAsBool("PORTFOLIO_DROP_UNAVAILABLE", true),
			OutputDir:        getEnv("OUTPUT_DIR", "output"),
			ProfilePath:      getEnv("PORTFOLIO_PROFILE", ""),
		},

		Optimizer: OptimizerConfig{
			Method:            strings.ToLower(getEnv("OPTIMIZER_METHOD", "bfgs")),
			MaxIterations:     getEnvAsInt("OPTIMIZER_MAX_ITERATIONS", 1000),
			GradientThreshold: getEnvAsFloat("OPTIMIZER_GRADIENT_THRESHOLD", 1e-9),
		},

		Schedule: ScheduleConfig{
			Optimize:   getEnv("SCHEDULE_OPTIMIZE", "0 30 18 * * 1-5"),
			PriceSync:  getEnv("SCHEDULE_PRICE_SYNC", "0 0 19 * * 1-5"),
			MACD:       getEnv("SCHEDULE_MACD", "0 0 20 * * *"),
			AlphaTrend: getEnv("SCHEDULE_ALPHATREND", "0 0 10-18 * * 1-5"),
			Symbols:    getEnvAsSlice("SCAN_SYMBOLS", nil),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Portfolio.Value <= 0 {
		return fmt.Errorf("PORTFOLIO_VALUE must be positive, got %g", c.Portfolio.Value)
	}

	if len(c.Portfolio.ConfidenceLevels) == 0 {
		return fmt.Errorf("PORTFOLIO_CONFIDENCE_LEVELS must not be empty")
	}
	for _, level := range c.Portfolio.ConfidenceLevels {
		if level <= 0 || level >= 1 {
			return fmt.Errorf("confidence level must be in (0,1), got %g", level)
		}
	}

	if c.Portfolio.FrontierSamples < 0 {
		return fmt.Errorf("FRONTIER_SAMPLES must not be negative")
	}

	switch c.Optimizer.Method {
	case "bfgs", "neldermead":
	default:
		return fmt.Errorf("OPTIMIZER_METHOD must be one of: bfgs, neldermead")
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID are required when TELEGRAM_ENABLED")
	}

	return nil
}

// RequireDatabase reports whether a database connection can be configured.
// Commands that persist results call it before connecting.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env",
		"config/.env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
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

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsSlice splits a comma separated value, trimming blanks
func getEnvAsSlice(key string, defaultValue []string) []string {
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

func getEnvAsFloatSlice(key string, defaultValue []float64) []float64 {
	parts := getEnvAsSlice(key, nil)
	if len(parts) == 0 {
		return defaultValue
	}

	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return defaultValue
		}
		out = append(out, value)
	}
	return out
}
