// Package config provides configuration management for the buster CLI.
//
// Settings are layered with koanf. From lowest to highest precedence:
// built-in defaults, a .env file in the working directory, BUSTER_*
// environment variables, and flags set on the command line.
package config

import "time"

// Config holds all CLI configuration options.
type Config struct {
	Path        string        `koanf:"path" json:"path"`
	Project     string        `koanf:"project" json:"project"`
	DryRun      bool          `koanf:"dry_run" json:"dry_run"`
	Verbose     bool          `koanf:"verbose" json:"verbose"`
	Debug       bool          `koanf:"debug" json:"debug"`
	Interactive bool          `koanf:"interactive" json:"interactive"`
	APIURL      string        `koanf:"api_url" json:"api_url"`
	APIKey      string        `koanf:"api_key" json:"-"`
	Timeout     time.Duration `koanf:"timeout" json:"timeout"`
	Retries     int           `koanf:"retries" json:"retries"`
	RetryDelay  time.Duration `koanf:"retry_delay" json:"retry_delay"`
	Include     []string      `koanf:"include" json:"include"`
	Exclude     []string      `koanf:"exclude" json:"exclude"`
	NoColor     bool          `koanf:"no_color" json:"no_color"`
	StatePath   string        `koanf:"state_path" json:"state_path"`
	History     bool          `koanf:"history" json:"history"`
	Output      string        `koanf:"output" json:"output"`

	// EnvFile is the .env file that was applied, if any.
	EnvFile string `koanf:"-" json:"env_file,omitempty"`
}

// Default configuration values.
const (
	DefaultPath       = "."
	DefaultAPIURL     = "https://api.buster.so"
	DefaultTimeout    = 30 * time.Second
	DefaultRetries    = 3
	DefaultRetryDelay = time.Second
	DefaultStateFile  = ".buster/state.db"
	DefaultOutput     = "text"
	DefaultEnvFile    = ".env"

	// EnvPrefix prefixes every environment variable read as a setting.
	EnvPrefix = "BUSTER_"
)

func defaults() map[string]any {
	return map[string]any{
		"path":        DefaultPath,
		"api_url":     DefaultAPIURL,
		"timeout":     DefaultTimeout.String(),
		"retries":     DefaultRetries,
		"retry_delay": DefaultRetryDelay.String(),
		"state_path":  DefaultStateFile,
		"history":     true,
		"output":      DefaultOutput,
	}
}
