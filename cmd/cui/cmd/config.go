package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cui-project/cui/internal/config"
)

var (
	configInitLocal bool
	configInitForce bool
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage cui configuration.

Without subcommands, shows the current effective configuration.

Examples:
  cui config              # Show current config
  cui config init         # Create config file with defaults
  cui config path         # Show config file location
  cui config get <key>    # Get a config value
  cui config set <key> <value>  # Set a config value`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		printConfig(cfg)
	},
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings and documentation.

By default, creates ~/.cui/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  cui config init          # Create ~/.cui/config.yaml
  cui config init --local  # Create ./config.yaml
  cui config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Long: `Show where the config file is located and whether it exists.

Examples:
  cui config path`,
	Run: runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  cui config get server.port
  cui config get claude.projects_dir
  cui config get logging.level`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a config value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value by key.

Creates the config file if it doesn't exist.
Keys use dot notation to access nested values.

Examples:
  cui config set server.port 8080
  cui config set logging.level debug
  cui config set indexer.debounce_ms 500`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	// Add subcommands to config
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	// Flags for init
	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.cui/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var configPath string

	if configInitLocal {
		configPath = "config.yaml"
	} else {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	// Check if file exists
	if _, err := os.Stat(configPath); err == nil {
		if !configInitForce {
			return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", configPath)
		}
	}

	// Write default config with comments
	if err := writeDefaultConfig(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit this file to customize cui behavior.")
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting config dir: %v\n", err)
		os.Exit(1)
	}

	configPath := filepath.Join(configDir, "config.yaml")

	// Check various locations
	locations := []string{
		"./config.yaml",
		configPath,
		"/etc/cui/config.yaml",
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range locations {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, err := getConfigValue(cfg, key)
	if err != nil {
		return err
	}

	fmt.Println(value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	// Determine config path
	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	// Load existing config or create new one
	var data map[string]interface{}

	if content, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(content, &data); err != nil {
			return fmt.Errorf("failed to parse existing config: %w", err)
		}
	}

	if data == nil {
		data = make(map[string]interface{})
	}

	// Set the value
	if err := setNestedValue(data, key, value); err != nil {
		return err
	}

	// Write back
	content, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, configPath)
	return nil
}

func getConfigValue(cfg *config.Config, key string) (interface{}, error) {
	parts := strings.Split(key, ".")

	switch parts[0] {
	case "server":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "host":
			return cfg.Server.Host, nil
		case "port":
			return cfg.Server.Port, nil
		}
	case "claude":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "projects_dir":
			return cfg.Claude.ProjectsDir, nil
		}
	case "storage":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "data_dir":
			return cfg.Storage.DataDir, nil
		}
	case "indexer":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "enabled":
			return cfg.Indexer.Enabled, nil
		case "debounce_ms":
			return cfg.Indexer.DebounceMS, nil
		case "batch_size":
			return cfg.Indexer.BatchSize, nil
		case "mtime_slack_ms":
			return cfg.Indexer.MtimeSlackMS, nil
		case "reconcile_interval_secs":
			return cfg.Indexer.ReconcileIntervalSecs, nil
		}
	case "stream":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "heartbeat_secs":
			return cfg.Stream.HeartbeatSecs, nil
		}
	case "logging":
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid key: %s", key)
		}
		switch parts[1] {
		case "level":
			return cfg.Logging.Level, nil
		case "format":
			return cfg.Logging.Format, nil
		}
	}

	return nil, fmt.Errorf("unknown config key: %s", key)
}

func setNestedValue(data map[string]interface{}, key string, value string) error {
	parts := strings.Split(key, ".")

	// Navigate to the parent
	current := data
	for i := 0; i < len(parts)-1; i++ {
		if _, ok := current[parts[i]]; !ok {
			current[parts[i]] = make(map[string]interface{})
		}
		if nested, ok := current[parts[i]].(map[string]interface{}); ok {
			current = nested
		} else {
			return fmt.Errorf("cannot set nested value: %s is not a map", parts[i])
		}
	}

	// Convert value to appropriate type based on key
	finalKey := parts[len(parts)-1]
	current[finalKey] = parseValue(key, value)

	return nil
}

func parseValue(key string, value string) interface{} {
	// Boolean values
	if value == "true" {
		return true
	}
	if value == "false" {
		return false
	}

	// Integer values for known int fields
	intKeys := []string{"port", "debounce_ms", "batch_size", "mtime_slack_ms",
		"reconcile_interval_secs", "heartbeat_secs"}
	for _, k := range intKeys {
		if strings.HasSuffix(key, k) {
			var i int
			if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
				return i
			}
		}
	}

	// Default to string
	return value
}

func writeDefaultConfig(path string) error {
	content := `# cui Configuration
# Documentation: https://github.com/cui-project/cui
# Copy this file to ~/.cui/config.yaml and modify as needed

# Server settings
server:
  # Bind address (use 0.0.0.0 to allow external connections)
  host: "127.0.0.1"

  # Port for the HTTP API and update streams
  port: 3001

# Claude Code settings
claude:
  # Directory holding the per-project session archives
  # Defaults to ~/.claude/projects when unset
  # projects_dir: "/home/you/.claude/projects"

# Index storage
storage:
  # Directory for the SQLite index database
  # Use ":memory:" for a throwaway in-memory index
  # Defaults to ~/.cui when unset
  # data_dir: "/home/you/.cui"

# Session file indexer
indexer:
  # Enable scanning and watching the projects directory
  enabled: true

  # Quiet window before a changed file is re-scanned (milliseconds)
  debounce_ms: 200

  # Files flushed per database transaction during full scans
  batch_size: 50

  # Modification time slack when deciding whether a file changed (milliseconds)
  mtime_slack_ms: 1000

  # How often the full scan re-runs to catch missed events (seconds)
  reconcile_interval_secs: 600

# Update streams
stream:
  # Liveness ping cadence for SSE and WebSocket clients (seconds)
  heartbeat_secs: 30

# Logging settings
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log format: console (human-readable) or json
  format: "console"
`

	return os.WriteFile(path, []byte(content), 0644)
}
