package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/rainfall-hindcast/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// YearPolicy selects the year-column normalization for the whole
	// deployment; auto-detect and fixed-offset are never mixed.
	YearPolicy domain.YearPolicy

	// LoadCacheSize bounds the season-load memoization cache.
	LoadCacheSize int
}

// Load reads configuration from environment variables (optionally a .env
// file), applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore missing file

	policy, err := domain.ParseYearPolicy(envOrDefault("YEAR_POLICY", string(domain.YearPolicyAuto)))
	if err != nil {
		return nil, fmt.Errorf("invalid YEAR_POLICY: %w", err)
	}

	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseLoadCacheSize()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         envOrDefault("DATA_DIR", "data"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		YearPolicy:      policy,
		LoadCacheSize:   cacheSize,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseLoadCacheSize() (int, error) {
	s := envOrDefault("LOAD_CACHE_SIZE", "64")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid LOAD_CACHE_SIZE")
	}
	return n, nil
}
