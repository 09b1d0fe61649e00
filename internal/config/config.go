package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/lpreport/internal/logger"
	"github.com/harrison/lpreport/internal/updater"
)

// ConfigDirName is the per-project directory holding config and history.
const ConfigDirName = ".lpreport"

// HistoryConfig represents run history configuration
type HistoryConfig struct {
	// Enabled records every successful update in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database
	DBPath string `yaml:"db_path"`
}

// Config represents lpreport configuration options
type Config struct {
	// ProjectDir anchors relative paths. It is resolved, not read from YAML.
	ProjectDir string `yaml:"-"`

	// CSVPath is the benchmark results file produced by compare.sh
	CSVPath string `yaml:"csv_path"`

	// DocPath is the document holding the results markers
	DocPath string `yaml:"doc_path"`

	// StartMarker opens the generated region
	StartMarker string `yaml:"start_marker"`

	// EndMarker closes the generated region
	EndMarker string `yaml:"end_marker"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LockTimeout bounds the wait for the document lock (0 = block)
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// History contains run history configuration
	History HistoryConfig `yaml:"history"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		CSVPath:     "results.csv",
		DocPath:     "README.md",
		StartMarker: updater.DefaultStartMarker,
		EndMarker:   updater.DefaultEndMarker,
		LogLevel:    "info",
		LockTimeout: 10 * time.Second,
		History: HistoryConfig{
			Enabled: false,
			DBPath:  filepath.Join(ConfigDirName, "history.db"),
		},
	}
}

// LoadConfig loads configuration from the specified file path
// If the file doesn't exist, returns default configuration without error
// If the file exists but is malformed, returns an error
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are strings in YAML; decode into a shadow struct first.
	type yamlConfig struct {
		CSVPath     string `yaml:"csv_path"`
		DocPath     string `yaml:"doc_path"`
		StartMarker string `yaml:"start_marker"`
		EndMarker   string `yaml:"end_marker"`
		LogLevel    string `yaml:"log_level"`
		LockTimeout string `yaml:"lock_timeout"`
		History     struct {
			Enabled *bool  `yaml:"enabled"`
			DBPath  string `yaml:"db_path"`
		} `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if yamlCfg.CSVPath != "" {
		cfg.CSVPath = yamlCfg.CSVPath
	}
	if yamlCfg.DocPath != "" {
		cfg.DocPath = yamlCfg.DocPath
	}
	if yamlCfg.StartMarker != "" {
		cfg.StartMarker = yamlCfg.StartMarker
	}
	if yamlCfg.EndMarker != "" {
		cfg.EndMarker = yamlCfg.EndMarker
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LockTimeout != "" {
		timeout, err := time.ParseDuration(yamlCfg.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("invalid lock_timeout format %q: %w", yamlCfg.LockTimeout, err)
		}
		cfg.LockTimeout = timeout
	}
	if yamlCfg.History.Enabled != nil {
		cfg.History.Enabled = *yamlCfg.History.Enabled
	}
	if yamlCfg.History.DBPath != "" {
		cfg.History.DBPath = yamlCfg.History.DBPath
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .lpreport/config.yaml in the specified directory
// and anchors relative paths at dir.
func LoadConfigFromDir(dir string) (*Config, error) {
	cfg, err := LoadConfig(filepath.Join(dir, ConfigDirName, "config.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.ProjectDir = dir
	return cfg, nil
}

// MergeWithFlags merges CLI flags into the configuration
// Non-nil flag values override configuration values
func (c *Config) MergeWithFlags(csvPath *string, docPath *string, logLevel *string, lockTimeout *time.Duration) {
	if csvPath != nil {
		c.CSVPath = *csvPath
	}
	if docPath != nil {
		c.DocPath = *docPath
	}
	if logLevel != nil {
		c.LogLevel = *logLevel
	}
	if lockTimeout != nil {
		c.LockTimeout = *lockTimeout
	}
}

// Resolve returns p unchanged if absolute, otherwise joined to ProjectDir.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.ProjectDir == "" {
		return p
	}
	return filepath.Join(c.ProjectDir, p)
}

// CSVFile returns the resolved results CSV path.
func (c *Config) CSVFile() string {
	return c.Resolve(c.CSVPath)
}

// DocFile returns the resolved document path.
func (c *Config) DocFile() string {
	return c.Resolve(c.DocPath)
}

// HistoryDB returns the resolved history database path.
func (c *Config) HistoryDB() string {
	return c.Resolve(c.History.DBPath)
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.CSVPath == "" {
		return fmt.Errorf("csv_path cannot be empty")
	}
	if c.DocPath == "" {
		return fmt.Errorf("doc_path cannot be empty")
	}

	if c.StartMarker == "" || c.EndMarker == "" {
		return fmt.Errorf("start_marker and end_marker cannot be empty")
	}
	if c.StartMarker == c.EndMarker {
		return fmt.Errorf("start_marker and end_marker must differ, both are %q", c.StartMarker)
	}

	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.LockTimeout < 0 {
		return fmt.Errorf("lock_timeout must be >= 0, got %v", c.LockTimeout)
	}

	if c.History.Enabled && c.History.DBPath == "" {
		return fmt.Errorf("history.db_path cannot be empty when history is enabled")
	}

	return nil
}
