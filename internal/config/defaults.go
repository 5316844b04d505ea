package config

import (
	"path/filepath"
	"time"
)

// Defaults for the values a fresh .loom.yml leaves out.
const (
	DefaultConfigFile     = ".loom.yml"
	DefaultCloneDir       = "cloned-repositories"
	DefaultDataDir        = ".loom"
	DefaultCommandTimeout = 5 * time.Minute
	DefaultReportPath     = "broken-links-report.json"
	DefaultPort           = 8080
	DefaultMaxConcurrency = 4
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		CloneDir:       DefaultCloneDir,
		DataDir:        DefaultDataDir,
		MaxConcurrency: DefaultMaxConcurrency,
		CommandTimeout: DefaultCommandTimeout.String(),
		ReportPath:     DefaultReportPath,
		Server: ServerConfig{
			Port: DefaultPort,
		},
	}
}

// Timeout returns the per-command timeout. Unset or invalid values fall back
// to DefaultCommandTimeout; Validate reports invalid ones.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil || d <= 0 {
		return DefaultCommandTimeout
	}
	return d
}

// DBPath is where the registry database lives.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "loom.db")
}

// StatusFilePath is where the outcome of the last full sync is written.
func (c *Config) StatusFilePath() string {
	return filepath.Join(c.DataDir, ".sync-status.json")
}
