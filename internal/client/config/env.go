package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by the CLI.
const (
	EnvAPIBase              = "SV_API_BASE"
	EnvRequestTimeout       = "SV_REQUEST_TIMEOUT"
	EnvOnlineCheckInterval  = "SV_ONLINE_CHECK_INTERVAL"
	EnvSessionFile          = "SV_SESSION_FILE"
	EnvMaxConcurrentUploads = "SV_MAX_CONCURRENT_UPLOADS"
	EnvLogLevel             = "SV_LOG_LEVEL"
)

// parseEnv overlays Config with values from the process environment.
// A .env file in the working directory is loaded first (if present);
// real environment variables win over .env entries per godotenv semantics.
// Malformed values are ignored so a broken .env cannot brick the CLI.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv(EnvAPIBase); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv(EnvRequestTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if v := os.Getenv(EnvOnlineCheckInterval); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.OnlineCheckInterval = d
		}
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		cfg.SessionFile = v
	}
	if v := os.Getenv(EnvMaxConcurrentUploads); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConcurrentUploads = n
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}
