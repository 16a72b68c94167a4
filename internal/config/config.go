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
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port      string
	AuthToken string

	StorageBackend    string
	DBURL             string
	DBAutoMigrate     bool
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int

	LogLevel  string
	LogFormat string

	CORSAllowedOrigins  []string
	RateLimitRequests   int
	RateLimitWindowSecs int

	SeedFile          string
	DailyPickTimezone string
	EnrichConcurrency int
}

// Load reads configuration from environment variables, applying defaults and
// validation. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:                getEnv("PORT", "8080"),
		AuthToken:           os.Getenv("AUTH_TOKEN"),
		StorageBackend:      strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		DBURL:               os.Getenv("DB_URL"),
		DBAutoMigrate:       getEnvBool("DB_AUTO_MIGRATE", true),
		DBMaxConns:          getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:          getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:       getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:       getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs:   getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:    getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
		ReadTimeoutSecs:     getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:    getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:     getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "json")),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRequests:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindowSecs: getEnvInt("RATE_LIMIT_WINDOW_SECS", 60),
		SeedFile:            os.Getenv("SEED_FILE"),
		DailyPickTimezone:   os.Getenv("DAILY_PICK_TIMEZONE"),
		EnrichConcurrency:   getEnvInt("ENRICH_CONCURRENCY", 8),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	switch cfg.StorageBackend {
	case BackendPostgres:
		if cfg.DBURL == "" {
			return fmt.Errorf("DB_URL is required when STORAGE_BACKEND=postgres")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, cfg.StorageBackend)
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	if cfg.RateLimitRequests <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
	}
	if cfg.RateLimitWindowSecs <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW_SECS must be positive")
	}
	if cfg.EnrichConcurrency <= 0 {
		return fmt.Errorf("ENRICH_CONCURRENCY must be positive")
	}
	if _, err := cfg.DailyPickLocation(); err != nil {
		return err
	}
	return nil
}

// DailyPickLocation resolves DAILY_PICK_TIMEZONE. An empty value selects the
// server's local zone.
func (cfg Config) DailyPickLocation() (*time.Location, error) {
	if cfg.DailyPickTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(cfg.DailyPickTimezone)
	if err != nil {
		return nil, fmt.Errorf("DAILY_PICK_TIMEZONE: %w", err)
	}
	return loc, nil
}

// RateLimitWindow returns the rate limiter window as a duration.
func (cfg Config) RateLimitWindow() time.Duration {
	return time.Duration(cfg.RateLimitWindowSecs) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
