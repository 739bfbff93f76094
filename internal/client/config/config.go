package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
)

// Config holds runtime settings for the SWPA CLI.
//
// Fields:
//   - APIBaseURL: base URL of the identity API, e.g. http://localhost:5000/api.
//   - RequestTimeout: upper bound for a single API request.
//   - DatabasePath: SQLite file that keeps the session across restarts.
//   - SessionDuration: lifetime of a new session.
//   - ProfileFields: identity fields the user may edit (name, phone, avatar).
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL      string
	RequestTimeout  time.Duration
	DatabasePath    string
	SessionDuration time.Duration
	ProfileFields   []string
	LogLevel        string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:5000/api"
	c.RequestTimeout = 30 * time.Second
	c.DatabasePath = "swpa.db"
	c.SessionDuration = models.SessionDuration
	c.ProfileFields = []string{string(models.FieldName), string(models.FieldPhone)}
	c.LogLevel = "info"
}

// PatchFields returns ProfileFields as a validated whitelist.
func (c *Config) PatchFields() ([]models.PatchField, error) {
	return models.ParsePatchFields(c.ProfileFields)
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones. args are the program arguments without the
// program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if _, err := cfg.PatchFields(); err != nil {
		return nil, fmt.Errorf("profile fields: %w", err)
	}
	return cfg, nil
}
