// Package config handles configuration management for cui.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Claude  ClaudeConfig  `mapstructure:"claude"`
	Storage StorageConfig `mapstructure:"storage"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Stream  StreamConfig  `mapstructure:"stream"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ClaudeConfig locates the session archive written by the Claude CLI.
type ClaudeConfig struct {
	ProjectsDir string `mapstructure:"projects_dir"`
}

// StorageConfig holds session store configuration. A data_dir of ":memory:"
// selects a non-persistent store.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// IndexerConfig holds history indexer tuning.
type IndexerConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	DebounceMS            int  `mapstructure:"debounce_ms"`
	BatchSize             int  `mapstructure:"batch_size"`
	MtimeSlackMS          int  `mapstructure:"mtime_slack_ms"`
	ReconcileIntervalSecs int  `mapstructure:"reconcile_interval_secs"`
}

// StreamConfig holds event stream configuration.
type StreamConfig struct {
	HeartbeatSecs int `mapstructure:"heartbeat_secs"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from files and environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default search paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.cui")
		v.AddConfigPath("/etc/cui")
	}

	// Environment variable prefix
	v.SetEnvPrefix("CUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file (optional - not an error if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Post-process configuration
	if err := postProcess(&cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)

	// Path defaults are empty here; postProcess resolves them against the
	// home directory so env/file overrides still win.
	v.SetDefault("claude.projects_dir", "")
	v.SetDefault("storage.data_dir", "")

	// Indexer defaults
	v.SetDefault("indexer.enabled", true)
	v.SetDefault("indexer.debounce_ms", DefaultDebounceMS)
	v.SetDefault("indexer.batch_size", DefaultBatchSize)
	v.SetDefault("indexer.mtime_slack_ms", DefaultMtimeSlackMS)
	v.SetDefault("indexer.reconcile_interval_secs", DefaultReconcileIntervalSecs)

	// Stream defaults
	v.SetDefault("stream.heartbeat_secs", DefaultHeartbeatSecs)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// postProcess resolves defaulted and home-relative paths.
func postProcess(cfg *Config) error {
	if cfg.Claude.ProjectsDir == "" {
		dir, err := DefaultProjectsDir()
		if err != nil {
			return fmt.Errorf("failed to resolve claude projects directory: %w", err)
		}
		cfg.Claude.ProjectsDir = dir
	} else {
		dir, err := expandHome(cfg.Claude.ProjectsDir)
		if err != nil {
			return err
		}
		cfg.Claude.ProjectsDir = dir
	}

	// ":memory:" is a store selector, not a path.
	if cfg.Storage.DataDir == ":memory:" {
		return nil
	}
	if cfg.Storage.DataDir == "" {
		dir, err := GetConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve data directory: %w", err)
		}
		cfg.Storage.DataDir = dir
		return nil
	}
	dir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	cfg.Storage.DataDir = dir
	return nil
}

// expandHome resolves a leading "~" against the user home directory and
// makes the result absolute.
func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path %s: %w", path, err)
	}
	return abs, nil
}

// DefaultProjectsDir returns the Claude CLI session archive location.
func DefaultProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// GetConfigDir returns the user config directory for cui.
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cui"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
