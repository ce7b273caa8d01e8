package indexer

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid file system events per path. Claude Code appends
// a session file several times per turn; only the settled state is worth a
// re-scan.
type Debouncer struct {
	window   time.Duration
	callback func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer with the given settle window and callback.
func NewDebouncer(window time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		window:   window,
		callback: callback,
		pending:  make(map[string]*time.Timer),
	}
}

// Add queues an event for debouncing. A pending event for the same path has
// its timer reset, so the callback fires once the path has been quiet for a
// full window.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if timer, ok := d.pending[path]; ok {
		timer.Stop()
	}
	d.pending[path] = time.AfterFunc(d.window, func() {
		d.fire(path)
	})
}

// fire executes the callback for a path.
func (d *Debouncer) fire(path string) {
	d.mu.Lock()
	_, ok := d.pending[path]
	if !ok {
		d.mu.Unlock()
		return
	}
	delete(d.pending, path)
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped && d.callback != nil {
		d.callback(path)
	}
}

// Stop cancels all pending timers. The debouncer accepts no further events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, timer := range d.pending {
		timer.Stop()
	}
	d.pending = make(map[string]*time.Timer)
}
