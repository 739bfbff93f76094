package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected  *Config
		name      string
		args      []string
		expectErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "https://swpa.example/api", "-t", "10", "-d", "/tmp/s.db", "-f", "name, avatar", "-l", "debug"},
			expected: &Config{
				APIBaseURL:     "https://swpa.example/api",
				RequestTimeout: 10 * time.Second,
				DatabasePath:   "/tmp/s.db",
				ProfileFields:  []string{"name", "avatar"},
				LogLevel:       "debug",
			},
		},
		{
			name: "unrelated args are ignored",
			args: []string{"-c", "cfg.json", "-x", "-t=5"},
			expected: &Config{
				RequestTimeout: 5 * time.Second,
				ProfileFields:  []string{},
			},
		},
		{name: "incorrect timeout", args: []string{"-t", "abc"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := parseFlags(cfg, tt.args)

			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
