package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds user preferences
type Config struct {
	ServerURL       string        `yaml:"server_url" json:"server_url"`             // TaskFlow API base URL, including /api
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`   // Per-request HTTP timeout
	ConfirmDelete   bool          `yaml:"confirm_delete" json:"confirm_delete"`     // Require confirmation for delete
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"` // Board refresh period in the TUI; negative disables
	BadgeInterval   time.Duration `yaml:"badge_interval" json:"badge_interval"`     // Badge polling period in the TUI; negative disables
	MetricsFile     string        `yaml:"metrics_file" json:"metrics_file"`         // Prometheus textfile written on exit; empty disables
	DBPath          string        `yaml:"db_path" json:"db_path"`                   // Credential database

	// Logging configuration
	LogLevel   string `yaml:"log_level" json:"log_level"`     // Log level: debug, info, warn, error
	LogFile    string `yaml:"log_file" json:"log_file"`       // Path to log file
	LogConsole bool   `yaml:"log_console" json:"log_console"` // Enable console logging
}

// Dir returns ~/.taskflow
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".taskflow")
}

// DefaultPath returns ~/.taskflow/config.yaml
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns default settings
func DefaultConfig() *Config {
	dir := Dir()
	return &Config{
		ServerURL:       "http://localhost:8080/api",
		RequestTimeout:  15 * time.Second,
		ConfirmDelete:   true,
		RefreshInterval: 30 * time.Second,
		BadgeInterval:   5 * time.Second,
		DBPath:          filepath.Join(dir, "taskflow.db"),
		LogLevel:        "info",
		LogFile:         filepath.Join(dir, "logs", "taskflow.log"),
		LogConsole:      false,
	}
}

// Load loads ~/.taskflow/config.yaml
func Load() (*Config, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads path over the defaults and applies TASKFLOW_* environment
// overrides. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("TASKFLOW_SERVER_URL"); ok {
		c.ServerURL = v
	}
	if v, ok := lookupEnv("TASKFLOW_METRICS_FILE"); ok {
		c.MetricsFile = v
	}
	if v, ok := lookupEnv("TASKFLOW_DB_PATH"); ok {
		c.DBPath = v
	}
	if v, ok := lookupEnv("TASKFLOW_LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := lookupEnv("TASKFLOW_LOG_FILE"); ok {
		c.LogFile = v
	}

	bools := map[string]*bool{
		"TASKFLOW_CONFIRM_DELETE": &c.ConfirmDelete,
		"TASKFLOW_LOG_CONSOLE":    &c.LogConsole,
	}
	for key, dst := range bools {
		if v, ok := lookupEnv(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = b
		}
	}

	durations := map[string]*time.Duration{
		"TASKFLOW_REQUEST_TIMEOUT":  &c.RequestTimeout,
		"TASKFLOW_REFRESH_INTERVAL": &c.RefreshInterval,
		"TASKFLOW_BADGE_INTERVAL":   &c.BadgeInterval,
	}
	for key, dst := range durations {
		if v, ok := lookupEnv(key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// Save saves config to ~/.taskflow/config.yaml
func (c *Config) Save() error {
	return c.SaveTo(DefaultPath())
}

// SaveTo writes the config as yaml to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
