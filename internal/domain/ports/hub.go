// Package ports defines the contracts between cui's components.
package ports

import (
	"github.com/cui-project/cui/internal/domain/events"
)

// Sink is a write-only byte channel representing one connected client.
type Sink interface {
	// ID returns a unique identifier for this sink.
	ID() string

	// Send writes one event payload to the client.
	// Returns an error if the sink is closed or the write fails.
	Send(payload []byte) error

	// Ping writes a protocol-level liveness ping.
	Ping() error

	// Close terminates the sink. Safe to call more than once.
	Close() error

	// Done returns a channel that's closed once the sink is gone.
	Done() <-chan struct{}
}

// Publisher is the broadcaster surface exposed to event producers.
type Publisher interface {
	// Publish sends an event to the sinks attached under streamingID.
	// Publishing to an id with no sinks is a silent no-op.
	Publish(streamingID string, event events.Event)

	// PublishGlobal sends an event to every attached sink.
	PublishGlobal(event events.Event)

	// ClientCount returns the number of sinks attached under streamingID.
	ClientCount(streamingID string) int
}
