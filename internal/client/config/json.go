package config

import (
	"encoding/json"
	"os"

	"github.com/securevault/securevault/internal/flagx"
	"github.com/securevault/securevault/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "5s"
// or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL           string         `json:"api_base_url"`
	RequestTimeout       timex.Duration `json:"request_timeout"`
	OnlineCheckInterval  timex.Duration `json:"online_check_interval"`
	SessionFile          string         `json:"session_file"`
	MaxConcurrentUploads int            `json:"max_concurrent_uploads"`
	LogLevel             string         `json:"log_level"`
}

// parseJson overlays Config with values from the JSON file named by the
// -c/-config flag. Absent file path means no JSON layer. Only fields present
// (non-zero) in the file override the current values. Panics on read or
// unmarshal errors, matching the fail-fast posture of startup config.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SessionFile != "" {
		cfg.SessionFile = jc.SessionFile
	}
	if jc.MaxConcurrentUploads > 0 {
		cfg.MaxConcurrentUploads = jc.MaxConcurrentUploads
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
