package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (optional: series loading + sweep stats)
	Database DatabaseConfig

	// Redis (optional: shared label cache)
	Redis RedisConfig

	// Labeling engine
	Labeling LabelingConfig

	// Outbound HTTP (remote bar files)
	HTTP HTTPConfig

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
}

// HTTPConfig holds outbound HTTP client settings
type HTTPConfig struct {
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64 // requests per second, 0 = unlimited
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// LabelingConfig holds the sweep grid and cache settings of the labeling engine
type LabelingConfig struct {
	TargetPips []int
	StopPips   []int
	Horizons   []int // minutes
	PipValue   float64

	UseCache       bool
	CacheDir       string
	CacheBackend   string        // file, redis, memory
	CacheTTL       time.Duration // redis only
	CacheRetention time.Duration // prune age

	Workers         int
	FingerprintMode string // content, boundary
}

// Cache backends
const (
	CacheBackendFile   = "file"
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
)

// Fingerprint modes
const (
	FingerprintContent  = "content"
	FingerprintBoundary = "boundary"
)

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "necrozma"),
			User:            getEnv("DB_USER", "necrozma"),
			Password:        getEnv("DB_PASSWORD", ""),
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
		},

		// Labeling (기본값: XAUUSD M1 기준)
		Labeling: LabelingConfig{
			TargetPips:      getEnvAsIntSlice("LABEL_TARGET_PIPS", []int{5, 10, 15, 20, 30, 50}),
			StopPips:        getEnvAsIntSlice("LABEL_STOP_PIPS", []int{5, 10, 15, 20, 30}),
			Horizons:        getEnvAsIntSlice("LABEL_HORIZONS", []int{30, 60, 120, 240, 480, 1440}),
			PipValue:        getEnvAsFloat("LABEL_PIP_VALUE", 0.1),
			UseCache:        getEnvAsBool("LABEL_USE_CACHE", true),
			CacheDir:        getEnv("LABEL_CACHE_DIR", "data/labels"),
			CacheBackend:    strings.ToLower(getEnv("LABEL_CACHE_BACKEND", CacheBackendFile)),
			CacheTTL:        getEnvAsDuration("LABEL_CACHE_TTL", "168h"),
			CacheRetention:  getEnvAsDuration("LABEL_CACHE_RETENTION", "720h"),
			Workers:         getEnvAsInt("LABEL_WORKERS", runtime.NumCPU()),
			FingerprintMode: strings.ToLower(getEnv("LABEL_FINGERPRINT_MODE", FingerprintContent)),
		},

		// HTTP
		HTTP: HTTPConfig{
			Timeout:    getEnvAsDuration("HTTP_TIMEOUT", "60s"),
			MaxRetries: getEnvAsInt("HTTP_MAX_RETRIES", 3),
			RateLimit:  getEnvAsFloat("HTTP_RATE_LIMIT", 0),
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

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	return c.Labeling.Validate()
}

// Validate checks the labeling grid and cache options
func (l *LabelingConfig) Validate() error {
	if err := validatePositive("LABEL_TARGET_PIPS", l.TargetPips); err != nil {
		return err
	}
	if err := validatePositive("LABEL_STOP_PIPS", l.StopPips); err != nil {
		return err
	}
	if err := validatePositive("LABEL_HORIZONS", l.Horizons); err != nil {
		return err
	}
	if l.PipValue <= 0 {
		return fmt.Errorf("LABEL_PIP_VALUE must be positive, got %v", l.PipValue)
	}
	switch l.CacheBackend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendMemory:
	default:
		return fmt.Errorf("LABEL_CACHE_BACKEND must be one of: file, redis, memory")
	}
	if l.FingerprintMode != FingerprintContent && l.FingerprintMode != FingerprintBoundary {
		return fmt.Errorf("LABEL_FINGERPRINT_MODE must be one of: content, boundary")
	}
	if l.Workers < 1 {
		l.Workers = 1
	}
	return nil
}

func validatePositive(key string, values []int) error {
	if len(values) == 0 {
		return fmt.Errorf("%s must not be empty", key)
	}
	for _, v := range values {
		if v <= 0 {
			return fmt.Errorf("%s must contain positive values, got %d", key, v)
		}
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
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

// getEnvAsIntSlice parses a comma separated list ("5,10,15")
func getEnvAsIntSlice(key string, defaultValue []int) []int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return defaultValue
		}
		values = append(values, v)
	}

	return values
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
