// Package app wires the cui components together and owns their lifecycle.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/adapters/claude"
	"github.com/cui-project/cui/internal/config"
	"github.com/cui-project/cui/internal/hub"
	"github.com/cui-project/cui/internal/indexer"
	httpserver "github.com/cui-project/cui/internal/server/http"
	"github.com/cui-project/cui/internal/store"
)

// App constructs the store, broadcaster, reader, indexer and HTTP server and
// runs them as one unit.
type App struct {
	cfg     *config.Config
	version string

	store      *store.Store
	hub        *hub.Broadcaster
	reader     *claude.Reader
	indexer    *indexer.Indexer
	httpServer *httpserver.Server

	mu      sync.Mutex
	running bool
}

// New creates an App around cfg. Components are built in Start so a failed
// run never leaves half-open handles behind.
func New(cfg *config.Config, version string) (*App, error) {
	return &App{
		cfg:     cfg,
		version: version,
	}, nil
}

// Start brings the components up in dependency order and blocks until ctx is
// cancelled, then shuts them down in reverse. The store and the HTTP listener
// are required; a failed indexer degrades to serving the existing index.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("application is already running")
	}
	a.running = true
	a.mu.Unlock()

	st, err := store.Open(a.cfg.Storage.DataDir)
	if err != nil {
		a.shutdown()
		return fmt.Errorf("failed to open session store: %w", err)
	}
	a.store = st

	a.hub = hub.New(time.Duration(a.cfg.Stream.HeartbeatSecs) * time.Second)

	a.reader = claude.NewReader(a.store, a.cfg.Claude.ProjectsDir)

	// Built even when disabled so the stats and reindex endpoints have
	// something to ask; it just never starts.
	a.indexer = indexer.New(a.store, a.hub, a.cfg.Claude.ProjectsDir, indexer.Options{
		DebounceWindow:    time.Duration(a.cfg.Indexer.DebounceMS) * time.Millisecond,
		BatchSize:         a.cfg.Indexer.BatchSize,
		MtimeSlack:        time.Duration(a.cfg.Indexer.MtimeSlackMS) * time.Millisecond,
		ReconcileInterval: time.Duration(a.cfg.Indexer.ReconcileIntervalSecs) * time.Second,
	})
	if a.cfg.Indexer.Enabled {
		if err := a.indexer.Start(); err != nil {
			log.Warn().Err(err).Msg("failed to start indexer, serving existing index only")
		}
	} else {
		log.Info().Msg("indexer disabled by config")
	}

	a.httpServer = httpserver.New(
		a.cfg.Server.Host,
		a.cfg.Server.Port,
		a.store,
		a.reader,
		a.hub,
		a.indexer,
	)
	if err := a.httpServer.Start(); err != nil {
		a.shutdown()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	log.Info().
		Str("version", a.version).
		Str("projects_dir", a.cfg.Claude.ProjectsDir).
		Str("data_dir", a.cfg.Storage.DataDir).
		Msg("cui started")

	a.printEndpoints()

	<-ctx.Done()

	return a.shutdown()
}

// shutdown stops the components in reverse dependency order. The indexer
// goes first so nothing publishes into a closing hub, then the hub so
// blocked stream handlers unwind before the HTTP server drains.
func (a *App) shutdown() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false

	log.Info().Msg("shutting down...")

	if a.indexer != nil {
		a.indexer.Stop()
	}

	if a.hub != nil {
		a.hub.Shutdown()
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(); err != nil {
			log.Error().Err(err).Msg("error stopping HTTP server")
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Error().Err(err).Msg("error closing session store")
		}
	}

	return nil
}

// printEndpoints prints the service URLs to the console.
func (a *App) printEndpoints() {
	base := fmt.Sprintf("http://%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)

	fmt.Println()
	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║                         cui ready                          ║")
	fmt.Println("╠════════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API:        %-46s ║\n", truncateString(base+"/api", 46))
	fmt.Printf("║  Stream:     %-46s ║\n", truncateString(base+"/api/stream/global", 46))
	fmt.Printf("║  Swagger:    %-46s ║\n", truncateString(base+"/swagger/index.html", 46))
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Println()
}

// truncateString truncates a string to maxLen characters.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
