package config

import "time"

// Config holds runtime settings for the SecureVault CLI.
//
// Fields:
//   - APIBaseURL: base address of the SecureVault REST API.
//   - RequestTimeout: per-request timeout of the HTTP transport.
//   - OnlineCheckInterval: how often the client probes /health.
//   - SessionFile: path of the file holding the persisted session.
//   - MaxConcurrentUploads: upper bound on files uploading at once.
//   - LogLevel: slog level name ("debug", "info", "warn", "error").
type Config struct {
	APIBaseURL           string
	RequestTimeout       time.Duration
	OnlineCheckInterval  time.Duration
	SessionFile          string
	MaxConcurrentUploads int
	LogLevel             string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080/api"
	c.RequestTimeout = 15 * time.Second
	c.OnlineCheckInterval = 5 * time.Second
	c.SessionFile = "session.json"
	c.MaxConcurrentUploads = 4
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment (including a .env file), a JSON config file, and
// command-line flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
