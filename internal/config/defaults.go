// Package config provides centralized default configuration values.
package config

// Default tuning values. This is the single source of truth - setDefaults
// and the `cui config init` template both draw from here.
const (
	// DefaultHost is the address the HTTP server binds to.
	DefaultHost = "127.0.0.1"
	// DefaultPort is the HTTP server port.
	DefaultPort = 3001

	// DefaultDebounceMS is the per-file quiet window before a changed
	// session file is re-indexed.
	DefaultDebounceMS = 200
	// DefaultBatchSize is the number of scanned sessions written to the
	// store per transaction during a full scan.
	DefaultBatchSize = 50
	// DefaultMtimeSlackMS is the tolerance when comparing a file's mtime
	// against its last-scanned time; files within the slack are re-scanned.
	DefaultMtimeSlackMS = 1000
	// DefaultReconcileIntervalSecs is how often the full scan re-runs to
	// catch filesystem events the watcher missed. Zero disables it.
	DefaultReconcileIntervalSecs = 600

	// DefaultHeartbeatSecs is the stream liveness ping cadence.
	DefaultHeartbeatSecs = 30
)
