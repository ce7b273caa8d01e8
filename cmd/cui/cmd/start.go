package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cui-project/cui/internal/app"
	"github.com/cui-project/cui/internal/config"
)

var (
	host        string
	port        int
	projectsDir string
	dataDir     string
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the cui server",
	Long: `Start the cui server: scan the Claude Code projects directory into the
session index, watch it for changes, and serve the HTTP API.

The first run scans every session file. Later runs only re-scan files whose
modification time moved past the stored scan time, so restarts are cheap.

Example:
  cui start                                  # Defaults (~/.claude/projects, port 3001)
  cui start --port 8080                      # Custom port
  cui start --projects-dir /tmp/projects    # Index a different directory
  cui start --data-dir :memory:              # Throwaway in-memory index`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().StringVar(&host, "host", "", "bind address (default: 127.0.0.1)")
	startCmd.Flags().IntVar(&port, "port", 0, "server port (default: 3001)")
	startCmd.Flags().StringVar(&projectsDir, "projects-dir", "", "Claude projects directory (default: ~/.claude/projects)")
	startCmd.Flags().StringVar(&dataDir, "data-dir", "", "index database directory, or :memory: (default: ~/.cui)")
}

func runStart(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if host != "" {
		cfg.Server.Host = host
	}
	if port != 0 {
		cfg.Server.Port = port
	}
	if projectsDir != "" {
		cfg.Claude.ProjectsDir = projectsDir
	}
	if dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}

	// Re-validate after overrides
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Setup logging
	setupLogging(cfg)

	log.Info().
		Str("version", version).
		Str("projects_dir", cfg.Claude.ProjectsDir).
		Int("port", cfg.Server.Port).
		Msg("starting cui")

	// Create application
	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Start the application
	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	log.Info().Msg("cui stopped")
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func setupLogging(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Add verbose logging if flag is set
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

func printConfig(cfg *config.Config) {
	fmt.Println("Current Configuration:")
	fmt.Println("----------------------")
	fmt.Printf("Host:               %s\n", cfg.Server.Host)
	fmt.Printf("Port:               %d\n", cfg.Server.Port)
	fmt.Printf("Projects Dir:       %s\n", cfg.Claude.ProjectsDir)
	fmt.Printf("Data Dir:           %s\n", cfg.Storage.DataDir)
	fmt.Printf("Indexer Enabled:    %t\n", cfg.Indexer.Enabled)
	fmt.Printf("Debounce (ms):      %d\n", cfg.Indexer.DebounceMS)
	fmt.Printf("Heartbeat (secs):   %d\n", cfg.Stream.HeartbeatSecs)
	fmt.Printf("Log Level:          %s\n", cfg.Logging.Level)
	fmt.Printf("Log Format:         %s\n", cfg.Logging.Format)
}
