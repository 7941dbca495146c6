// Package config loads flightrec configuration from a .flightrec.yaml file,
// falling back to defaults when the file is absent.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-directory configuration file.
const ConfigFileName = ".flightrec"

// Config holds all flightrec settings.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Report    ReportConfig    `yaml:"report"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// LogConfig controls the durable event stream.
type LogConfig struct {
	// Path of the JSONL event log, relative to the base directory unless
	// absolute.
	Path string `yaml:"path"`
	// Echo mirrors a one-line summary of each event to stderr.
	Echo bool `yaml:"echo"`
}

// ReportConfig controls analysis output.
type ReportConfig struct {
	// SlowAgentSeconds marks agents whose average execution time exceeds the
	// threshold. Zero disables the marker.
	SlowAgentSeconds float64 `yaml:"slow_agent_seconds"`
}

// DashboardConfig controls the live tail view.
type DashboardConfig struct {
	RefreshMS int `yaml:"refresh_ms"`
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Path: filepath.Join("logs", "workflow_events.jsonl"),
			Echo: false,
		},
		Report: ReportConfig{
			SlowAgentSeconds: 0,
		},
		Dashboard: DashboardConfig{
			RefreshMS: 500,
		},
	}
}

// Load reads .flightrec.yaml from basePath using Viper. A missing file
// returns defaults; a malformed file is an error.
func Load(basePath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("log.path", cfg.Log.Path)
	v.SetDefault("log.echo", cfg.Log.Echo)
	v.SetDefault("report.slow_agent_seconds", cfg.Report.SlowAgentSeconds)
	v.SetDefault("dashboard.refresh_ms", cfg.Dashboard.RefreshMS)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s.yaml: %w", ConfigFileName, err)
	}

	cfg.Log.Path = v.GetString("log.path")
	cfg.Log.Echo = v.GetBool("log.echo")
	cfg.Report.SlowAgentSeconds = v.GetFloat64("report.slow_agent_seconds")
	cfg.Dashboard.RefreshMS = v.GetInt("dashboard.refresh_ms")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings that would misbehave at runtime.
func (c *Config) Validate() error {
	if c.Log.Path == "" {
		return fmt.Errorf("log.path must not be empty")
	}
	if c.Report.SlowAgentSeconds < 0 {
		return fmt.Errorf("report.slow_agent_seconds must not be negative")
	}
	if c.Dashboard.RefreshMS <= 0 {
		return fmt.Errorf("dashboard.refresh_ms must be positive")
	}
	return nil
}

// ResolveLogPath returns the event log path anchored at basePath unless the
// configured path is already absolute.
func (c *Config) ResolveLogPath(basePath string) string {
	if filepath.IsAbs(c.Log.Path) {
		return c.Log.Path
	}
	return filepath.Join(basePath, c.Log.Path)
}

// WriteDefault writes a commented default .flightrec.yaml to basePath.
// It refuses to overwrite an existing file.
func WriteDefault(basePath string) (string, error) {
	path := filepath.Join(basePath, ConfigFileName+".yaml")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("marshaling default config: %w", err)
	}

	header := "# flightrec configuration. All settings are optional;\n# absent keys fall back to the defaults shown here.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
