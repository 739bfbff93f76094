package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/swpa/internal/flagx"
	"github.com/dmitrijs2005/swpa/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify durations either as
// strings like "30s" or as integer nanoseconds.
type JsonConfig struct {
	APIBaseURL      string         `json:"api_base_url"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	DatabasePath    string         `json:"database_path"`
	SessionDuration timex.Duration `json:"session_duration"`
	ProfileFields   []string       `json:"profile_fields"`
	LogLevel        string         `json:"log_level"`
}

// parseJson overlays cfg with the JSON file named by -c or -config.
// Keys missing from the file keep their current value.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.APIBaseURL != "" {
		cfg.APIBaseURL = jc.APIBaseURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.SessionDuration.Duration > 0 {
		cfg.SessionDuration = jc.SessionDuration.Duration
	}
	if jc.ProfileFields != nil {
		cfg.ProfileFields = jc.ProfileFields
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	return nil
}
