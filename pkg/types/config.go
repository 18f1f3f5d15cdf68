// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds settings for requests to the search service.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "datasearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// LogConfig selects the logger flavour.
type LogConfig struct {
	// Env is "dev" (console) or "prod" (JSON).
	Env string `json:"env" yaml:"env" mapstructure:"env"`

	// Level overrides the default level: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// ClientConfig groups all settings of the datasearch CLI.
type ClientConfig struct {
	// APIURL is the base URL of the search service (e.g. "https://auctus.vida-nyu.org/api/v1").
	APIURL string `json:"api_url" yaml:"api_url" mapstructure:"api_url"`

	// SessionDir holds the navigation history database.
	SessionDir string `json:"session_dir" yaml:"session_dir" mapstructure:"session_dir"`

	// MetricsTextfile, when set, receives client metrics in Prometheus text
	// format when the command exits.
	MetricsTextfile string `json:"metrics_textfile,omitempty" yaml:"metrics_textfile,omitempty" mapstructure:"metrics_textfile"`

	HTTP HTTPConfig `json:"http" yaml:"http" mapstructure:"http"`
	Log  LogConfig  `json:"log" yaml:"log" mapstructure:"log"`
}
