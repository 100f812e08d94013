// Package config loads and validates environment variables at startup.
// Fail-fast: if a required variable is missing or malformed, Load returns an
// error and the process exits.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"leadsync/internal/store"
)

// Config holds all runtime configuration for leadsync and leadctl.
type Config struct {
	Port     string
	GRPCPort string

	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float32
	AITimeout         time.Duration
	GeminiRPM         int
	GeminiRPD         int

	StoreBackend string
	DataPath     string
	SQLitePath   string
	DatabaseURL  string
	RedisURL     string // optional unless StoreBackend is redis

	ScanIntervalHours int // 0 disables the scheduler
	RecencyDays       int
	RulesFile         string
}

// Load reads environment variables and returns a validated Config.
// GEMINI_API_KEY is required.
func Load() (*Config, error) {
	return load(true)
}

// LoadWithoutAI is Load for commands that never call the model.
func LoadWithoutAI() (*Config, error) {
	return load(false)
}

func load(requireAI bool) (*Config, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if requireAI && apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	temperature := float32(0.7)
	if s := os.Getenv("GEMINI_TEMPERATURE"); s != "" {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil || v < 0 || v > 2 {
			return nil, fmt.Errorf("GEMINI_TEMPERATURE must be a number between 0 and 2, got %q", s)
		}
		temperature = float32(v)
	}

	timeout := 30 * time.Second
	if s := os.Getenv("AI_TIMEOUT"); s != "" {
		v, err := time.ParseDuration(s)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("AI_TIMEOUT must be a positive duration, got %q", s)
		}
		timeout = v
	}

	rpm, err := intEnv("GEMINI_RPM", 10, 0)
	if err != nil {
		return nil, err
	}
	rpd, err := intEnv("GEMINI_RPD", 250, 0)
	if err != nil {
		return nil, err
	}
	interval, err := intEnv("SCAN_INTERVAL_HOURS", 6, 0)
	if err != nil {
		return nil, err
	}
	recency, err := intEnv("RECENCY_DAYS", 90, 1)
	if err != nil {
		return nil, err
	}

	backend := envOr("STORE_BACKEND", store.BackendFile)
	dbURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")
	switch backend {
	case store.BackendFile, store.BackendSQLite, store.BackendMemory:
	case store.BackendPostgres:
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
	case store.BackendRedis:
		if redisURL == "" {
			return nil, fmt.Errorf("REDIS_URL is required when STORE_BACKEND=redis")
		}
	default:
		return nil, fmt.Errorf("STORE_BACKEND must be one of file, sqlite, postgres, redis, memory, got %q", backend)
	}

	return &Config{
		Port:              envOr("LEADSYNC_PORT", "8083"),
		GRPCPort:          envOr("GRPC_PORT", "9093"),
		GeminiAPIKey:      apiKey,
		GeminiModel:       envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiTemperature: temperature,
		AITimeout:         timeout,
		GeminiRPM:         rpm,
		GeminiRPD:         rpd,
		StoreBackend:      backend,
		DataPath:          envOr("DATA_PATH", "data/leadsync.json"),
		SQLitePath:        envOr("SQLITE_PATH", "data/leadsync.db"),
		DatabaseURL:       dbURL,
		RedisURL:          redisURL,
		ScanIntervalHours: interval,
		RecencyDays:       recency,
		RulesFile:         os.Getenv("RULES_FILE"),
	}, nil
}

// StoreOptions maps the persistence settings onto store.Options.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Backend:     c.StoreBackend,
		DataPath:    c.DataPath,
		SQLitePath:  c.SQLitePath,
		DatabaseURL: c.DatabaseURL,
		RedisURL:    c.RedisURL,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def, min int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < min {
		return 0, fmt.Errorf("%s must be an integer >= %d, got %q", key, min, s)
	}
	return v, nil
}
