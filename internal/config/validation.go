package config

import (
	"fmt"
)

// Validate validates the configuration.
func Validate(cfg *Config) error {
	// Validate server config
	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	// Validate claude config
	if err := validateClaude(&cfg.Claude); err != nil {
		return err
	}

	// Validate storage config
	if err := validateStorage(&cfg.Storage); err != nil {
		return err
	}

	// Validate indexer config
	if err := validateIndexer(&cfg.Indexer); err != nil {
		return err
	}

	// Validate stream config
	if err := validateStream(&cfg.Stream); err != nil {
		return err
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Host == "" {
		return fmt.Errorf("server.host cannot be empty")
	}
	return nil
}

func validateClaude(cfg *ClaudeConfig) error {
	if cfg.ProjectsDir == "" {
		return fmt.Errorf("claude.projects_dir cannot be empty")
	}
	return nil
}

func validateStorage(cfg *StorageConfig) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("storage.data_dir cannot be empty")
	}
	return nil
}

func validateIndexer(cfg *IndexerConfig) error {
	if cfg.DebounceMS < 0 {
		return fmt.Errorf("indexer.debounce_ms cannot be negative")
	}
	if cfg.DebounceMS > 10000 {
		return fmt.Errorf("indexer.debounce_ms cannot exceed 10000ms")
	}
	if cfg.BatchSize < 1 {
		return fmt.Errorf("indexer.batch_size must be at least 1")
	}
	if cfg.BatchSize > 1000 {
		return fmt.Errorf("indexer.batch_size cannot exceed 1000")
	}
	if cfg.MtimeSlackMS < 0 {
		return fmt.Errorf("indexer.mtime_slack_ms cannot be negative")
	}
	if cfg.ReconcileIntervalSecs < 0 {
		return fmt.Errorf("indexer.reconcile_interval_secs cannot be negative")
	}
	return nil
}

func validateStream(cfg *StreamConfig) error {
	if cfg.HeartbeatSecs < 1 {
		return fmt.Errorf("stream.heartbeat_secs must be at least 1")
	}
	if cfg.HeartbeatSecs > 300 {
		return fmt.Errorf("stream.heartbeat_secs cannot exceed 300")
	}
	return nil
}
