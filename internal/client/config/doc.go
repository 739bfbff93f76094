// Package config loads runtime configuration for the SWPA CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the identity API
//	-t int      request timeout (seconds)
//	-d string   session database path
//	-f string   editable profile fields, comma separated
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "https://swpa.example.com/api",
//	  "request_timeout": "15s",
//	  "database_path": "/var/lib/swpa/session.db",
//	  "session_duration": "1h",
//	  "profile_fields": ["name", "phone"],
//	  "log_level": "debug"
//	}
//
// The session duration can only be set from JSON.
package config
