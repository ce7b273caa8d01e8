// Package indexer keeps the session store in sync with the files on disk.
// It runs a full scan at startup, re-indexes individual files as fsnotify
// reports changes, and periodically reconciles to catch missed events.
package indexer

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/adapters/claude"
	"github.com/cui-project/cui/internal/domain"
	"github.com/cui-project/cui/internal/domain/events"
	"github.com/cui-project/cui/internal/domain/ports"
	"github.com/cui-project/cui/internal/store"
)

const (
	// DefaultDebounceWindow is how long a session file must stay quiet
	// before it is re-scanned.
	DefaultDebounceWindow = 200 * time.Millisecond

	// DefaultBatchSize is the number of scanned files flushed per store
	// transaction during a full scan.
	DefaultBatchSize = 50

	// DefaultMtimeSlack widens the modification time comparison so a file
	// written just after its last scan is not mistaken for unchanged.
	DefaultMtimeSlack = time.Second

	// DefaultReconcileInterval is how often the full scan re-runs to catch
	// events the watcher missed.
	DefaultReconcileInterval = 10 * time.Minute
)

// Store is the subset of the session store the indexer writes through.
type Store interface {
	UpsertIndexedBatch(items []domain.IndexedMetadata) ([]store.UpsertResult, error)
	LastScannedTimes() (map[string]int64, error)
	Lookup(sessionID string) (*domain.SessionRecord, error)
}

// Options tunes the indexer. Zero values fall back to the defaults above.
type Options struct {
	DebounceWindow    time.Duration
	BatchSize         int
	MtimeSlack        time.Duration
	ReconcileInterval time.Duration
}

// Indexer owns the scan-and-watch loop over the Claude projects directory.
type Indexer struct {
	store       Store
	hub         ports.Publisher
	streamer    *ContentStreamer
	projectsDir string

	debounceWindow    time.Duration
	batchSize         int
	mtimeSlackMs      int64
	reconcileInterval time.Duration

	mu       sync.Mutex
	running  bool
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce *Debouncer

	kick chan struct{}

	// pending holds scanned rows awaiting a flush, including rows retained
	// from a failed flush. Only the scan goroutine touches it.
	pending []domain.IndexedMetadata
}

// New creates an indexer over projectsDir. Updates are written through st
// and announced on hub.
func New(st Store, hub ports.Publisher, projectsDir string, opts Options) *Indexer {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = DefaultDebounceWindow
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.MtimeSlack <= 0 {
		opts.MtimeSlack = DefaultMtimeSlack
	}
	if opts.ReconcileInterval <= 0 {
		opts.ReconcileInterval = DefaultReconcileInterval
	}

	return &Indexer{
		store:             st,
		hub:               hub,
		streamer:          NewContentStreamer(hub),
		projectsDir:       projectsDir,
		debounceWindow:    opts.DebounceWindow,
		batchSize:         opts.BatchSize,
		mtimeSlackMs:      opts.MtimeSlack.Milliseconds(),
		reconcileInterval: opts.ReconcileInterval,
		kick:              make(chan struct{}, 1),
	}
}

// Start launches the scan goroutine and returns immediately. The full scan
// runs first, the watcher is installed once it completes (changes racing the
// scan are caught by the modification time comparison), then the
// reconciliation ticker takes over. Calling Start on a running indexer is a
// no-op.
func (ix *Indexer) Start() error {
	ix.mu.Lock()
	if ix.running {
		ix.mu.Unlock()
		log.Warn().Msg("indexer already running")
		return nil
	}
	ix.running = true
	ix.done = make(chan struct{})
	ix.debounce = NewDebouncer(ix.debounceWindow, ix.onFileSettled)
	done := ix.done
	ix.mu.Unlock()

	go ix.run(done)

	log.Info().Str("dir", ix.projectsDir).Msg("history indexer started")
	return nil
}

// Stop terminates the scan loop, the watcher, and all pending debounce
// timers. Safe to call on a stopped indexer.
func (ix *Indexer) Stop() {
	ix.mu.Lock()
	if !ix.running {
		ix.mu.Unlock()
		return
	}
	ix.running = false
	close(ix.done)
	w := ix.watcher
	ix.watcher = nil
	deb := ix.debounce
	ix.mu.Unlock()

	if w != nil {
		if err := w.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close file watcher")
		}
	}
	if deb != nil {
		deb.Stop()
	}

	log.Info().Msg("history indexer stopped")
}

// IsRunning reports whether the scan loop is active.
func (ix *Indexer) IsRunning() bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.running
}

// Reindex schedules an out-of-band full scan. It reports false when the
// indexer is not running. A scan already scheduled absorbs further requests.
func (ix *Indexer) Reindex() bool {
	ix.mu.Lock()
	running := ix.running
	ix.mu.Unlock()
	if !running {
		return false
	}

	select {
	case ix.kick <- struct{}{}:
	default:
	}
	return true
}

func (ix *Indexer) run(done chan struct{}) {
	start := time.Now()
	indexed := ix.scanAll(done)
	log.Info().
		Int("indexed", indexed).
		Dur("elapsed", time.Since(start)).
		Msg("initial session scan complete")

	if err := ix.startWatcher(done); err != nil {
		log.Warn().Err(err).Msg("file watcher unavailable, relying on reconciliation scans")
	}

	ix.reconcileLoop(done)
}

// scanAll walks every project directory and re-indexes the session files
// whose modification time moved past the stored scan time. It returns the
// number of files scanned into the batch.
func (ix *Indexer) scanAll(done <-chan struct{}) int {
	lastScanned, err := ix.store.LastScannedTimes()
	if err != nil {
		log.Warn().Err(err).Msg("failed to load scan times, re-indexing all files")
		lastScanned = map[string]int64{}
	}

	entries, err := os.ReadDir(ix.projectsDir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", ix.projectsDir).Msg("failed to read projects dir")
		}
		return 0
	}

	indexed := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		files, err := claude.ListSessionFiles(filepath.Join(ix.projectsDir, entry.Name()))
		if err != nil {
			log.Warn().Err(err).Str("project", entry.Name()).Msg("failed to list session files")
			continue
		}

		for _, path := range files {
			select {
			case <-done:
				return indexed
			default:
			}

			if ix.scanFile(path, lastScanned) {
				indexed++
			}
			if len(ix.pending) >= ix.batchSize {
				ix.flush()
			}
		}
	}

	ix.flush()
	return indexed
}

// scanFile stats and scans one session file into the pending batch. Files
// whose stored scan time is within the slack of their modification time are
// skipped unchanged.
func (ix *Indexer) scanFile(path string, lastScanned map[string]int64) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	mtimeMs := info.ModTime().UnixMilli()
	if last, ok := lastScanned[claude.SessionIDFromFile(path)]; ok && last >= mtimeMs-ix.mtimeSlackMs {
		return false
	}

	meta, err := claude.ScanSessionFile(path, mtimeMs)
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to scan session file")
		return false
	}
	if meta == nil {
		return false
	}

	ix.enqueue(meta)
	return true
}

// enqueue adds a scanned row to the pending batch, replacing any older row
// for the same session so retained batches cannot grow duplicates.
func (ix *Indexer) enqueue(meta *domain.IndexedMetadata) {
	for i := range ix.pending {
		if ix.pending[i].SessionID == meta.SessionID {
			ix.pending[i] = *meta
			return
		}
	}
	ix.pending = append(ix.pending, *meta)
}

// flush writes the pending batch in one transaction. On failure the batch is
// retained and retried on the next flush or reconciliation tick.
func (ix *Indexer) flush() {
	if len(ix.pending) == 0 {
		return
	}

	if _, err := ix.store.UpsertIndexedBatch(ix.pending); err != nil {
		log.Warn().
			Err(err).
			Int("items", len(ix.pending)).
			Msg("batch upsert failed, batch retained for retry")
		return
	}

	log.Debug().Int("items", len(ix.pending)).Msg("flushed index batch")
	ix.pending = nil
}

// startWatcher installs fsnotify watches on the projects root and every
// project subdirectory, then spawns the event loop.
func (ix *Indexer) startWatcher(done chan struct{}) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := w.Add(ix.projectsDir); err != nil {
		w.Close()
		return err
	}

	entries, err := os.ReadDir(ix.projectsDir)
	if err == nil {
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			dir := filepath.Join(ix.projectsDir, entry.Name())
			if err := w.Add(dir); err != nil {
				log.Warn().Err(err).Str("dir", dir).Msg("failed to watch project dir")
			}
		}
	}

	ix.mu.Lock()
	if !ix.running {
		ix.mu.Unlock()
		w.Close()
		return nil
	}
	ix.watcher = w
	ix.mu.Unlock()

	go ix.eventLoop(w, done)

	log.Debug().Str("dir", ix.projectsDir).Msg("file watcher installed")
	return nil
}

func (ix *Indexer) eventLoop(w *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			ix.handleEvent(w, event)

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("watcher error")
		}
	}
}

// handleEvent routes one fsnotify event: created project directories join
// the watch set, session file writes go through the debouncer, everything
// else is ignored.
func (ix *Indexer) handleEvent(w *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				log.Warn().Err(err).Str("dir", event.Name).Msg("failed to watch new project dir")
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !claude.IsSessionFile(event.Name) {
		return
	}

	ix.debounce.Add(event.Name)
}

// onFileSettled re-indexes one session file once its debounce window
// elapses. A file that vanished in the window is dropped silently.
func (ix *Indexer) onFileSettled(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}

	meta, err := claude.ScanSessionFile(path, info.ModTime().UnixMilli())
	if err != nil {
		log.Warn().Err(err).Str("file", path).Msg("failed to scan session file")
		return
	}
	if meta == nil {
		return
	}

	results, err := ix.store.UpsertIndexedBatch([]domain.IndexedMetadata{*meta})
	if err != nil {
		log.Warn().Err(err).Str("session_id", meta.SessionID).Msg("failed to index session file")
		return
	}

	for _, res := range results {
		ix.publishUpdate(res)
	}
	ix.streamer.FileChanged(meta.SessionID, path)
}

// publishUpdate announces one successful re-index on the global channel.
func (ix *Indexer) publishUpdate(res store.UpsertResult) {
	ix.hub.Publish(events.GlobalStreamingID, events.NewIndexUpdateEvent(res.SessionID))

	change := events.ListChangeModified
	if res.Created {
		change = events.ListChangeCreated
	}

	rec, err := ix.store.Lookup(res.SessionID)
	if err != nil || rec == nil {
		log.Debug().Err(err).Str("session_id", res.SessionID).Msg("lookup after index failed, list update skipped")
		return
	}

	ix.hub.Publish(events.GlobalStreamingID, events.NewSessionListUpdateEvent(res.SessionID, change, rec))

	log.Debug().
		Str("session_id", res.SessionID).
		Str("change", string(change)).
		Msg("published index update")
}

func (ix *Indexer) reconcileLoop(done <-chan struct{}) {
	ticker := time.NewTicker(ix.reconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return

		case <-ticker.C:
			indexed := ix.scanAll(done)
			if indexed > 0 {
				log.Info().Int("indexed", indexed).Msg("reconciliation scan complete")
			}

		case <-ix.kick:
			indexed := ix.scanAll(done)
			log.Info().Int("indexed", indexed).Msg("requested scan complete")
		}
	}
}
