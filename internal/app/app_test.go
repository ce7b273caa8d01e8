package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/cui-project/cui/internal/config"
	"github.com/cui-project/cui/internal/store"
)

// freePort reserves an ephemeral port and releases it for the app to bind.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = freePort(t)
	cfg.Claude.ProjectsDir = t.TempDir()
	cfg.Storage.DataDir = store.MemoryDir
	cfg.Indexer.Enabled = true
	cfg.Indexer.DebounceMS = 20
	cfg.Indexer.BatchSize = 10
	cfg.Indexer.MtimeSlackMS = 1000
	cfg.Indexer.ReconcileIntervalSecs = 3600
	cfg.Stream.HeartbeatSecs = 30
	cfg.Logging.Level = "error"
	return cfg
}

// waitForHealth polls /health until the server answers or the deadline
// passes.
func waitForHealth(t *testing.T, base string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(base + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server at %s never became healthy", base)
}

func TestAppLifecycle(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(ctx) }()

	base := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	waitForHealth(t, base)

	if err := app.Start(context.Background()); err == nil {
		t.Error("second Start() = nil, want already-running error")
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned %v after cancel, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancel")
	}
}

func TestAppIndexerDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Indexer.Enabled = false

	app, err := New(cfg, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- app.Start(ctx) }()

	base := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	waitForHealth(t, base)

	resp, err := http.Get(base + "/api/system/stats")
	if err != nil {
		t.Fatalf("GET /api/system/stats error = %v", err)
	}
	var stats struct {
		IndexerRunning bool `json:"indexerRunning"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	resp.Body.Close()
	if stats.IndexerRunning {
		t.Error("indexerRunning = true, want false with indexer disabled")
	}

	resp, err = http.Post(base+"/api/system/reindex", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/system/reindex error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("reindex status = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after context cancel")
	}
}
