// Package hub implements the stream broadcaster: long-lived client sinks
// keyed by streaming id, with fan-out publishing and liveness heartbeats.
package hub

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/domain/events"
	"github.com/cui-project/cui/internal/domain/ports"
)

// DefaultHeartbeatInterval is the liveness ping cadence.
const DefaultHeartbeatInterval = 30 * time.Second

// Broadcaster fans events out to client sinks. Sinks attach under a
// concrete streaming id; publishing to events.GlobalStreamingID reaches
// every attached sink regardless of id. Events are not buffered: a publish
// with no subscribers is dropped.
type Broadcaster struct {
	heartbeatInterval time.Duration

	mu            sync.RWMutex
	sinks         map[string]map[string]ports.Sink // streamingID → sinkID → sink
	heartbeatStop chan struct{}
	heartbeatOn   bool
	closed        bool
}

// New creates a Broadcaster. A non-positive heartbeatInterval selects the
// default.
func New(heartbeatInterval time.Duration) *Broadcaster {
	if heartbeatInterval <= 0 {
		heartbeatInterval = DefaultHeartbeatInterval
	}
	return &Broadcaster{
		heartbeatInterval: heartbeatInterval,
		sinks:             make(map[string]map[string]ports.Sink),
	}
}

// AddClient registers a sink under streamingID, sends the connected
// handshake and installs the disconnect hook. Already-closed sinks are
// dropped silently. The heartbeat starts with the first sink overall.
func (b *Broadcaster) AddClient(streamingID string, sink ports.Sink) {
	select {
	case <-sink.Done():
		return
	default:
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = sink.Close()
		return
	}
	set, ok := b.sinks[streamingID]
	if !ok {
		set = make(map[string]ports.Sink)
		b.sinks[streamingID] = set
	}
	set[sink.ID()] = sink
	if !b.heartbeatOn {
		b.heartbeatOn = true
		b.heartbeatStop = make(chan struct{})
		go b.heartbeatLoop(b.heartbeatStop)
	}
	b.mu.Unlock()

	payload, err := events.NewConnectedEvent(streamingID).ToJSON()
	if err == nil {
		err = sink.Send(payload)
	}
	if err != nil {
		log.Debug().Err(err).Str("streaming_id", streamingID).Str("sink_id", sink.ID()).
			Msg("connected handshake failed, dropping sink")
		b.dropSink(streamingID, sink)
		return
	}

	go func() {
		<-sink.Done()
		b.removeSink(streamingID, sink.ID())
	}()

	log.Debug().Str("streaming_id", streamingID).Str("sink_id", sink.ID()).
		Int("clients", b.ClientCount(streamingID)).Msg("stream client added")
}

// Publish sends an event to the sinks registered under streamingID. The
// literal global id fans out to every sink. Dead sinks are evicted.
func (b *Broadcaster) Publish(streamingID string, event events.Event) {
	if streamingID == events.GlobalStreamingID {
		b.PublishGlobal(event)
		return
	}

	payload, err := event.ToJSON()
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to encode event")
		return
	}
	b.deliver(b.snapshot(streamingID), streamingID, payload, event)
}

// PublishGlobal sends an event to every attached sink across all ids.
func (b *Broadcaster) PublishGlobal(event events.Event) {
	payload, err := event.ToJSON()
	if err != nil {
		log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("failed to encode event")
		return
	}

	b.mu.RLock()
	targets := make(map[string][]ports.Sink, len(b.sinks))
	for id, set := range b.sinks {
		group := make([]ports.Sink, 0, len(set))
		for _, sink := range set {
			group = append(group, sink)
		}
		targets[id] = group
	}
	b.mu.RUnlock()

	for id, group := range targets {
		b.deliver(group, id, payload, event)
	}
}

// CloseSession sends a final closed event to the id's sinks, terminates
// them and forgets the id.
func (b *Broadcaster) CloseSession(streamingID string) {
	group := b.snapshot(streamingID)
	if len(group) == 0 {
		return
	}

	payload, err := events.NewClosedEvent(streamingID).ToJSON()
	for _, sink := range group {
		if err == nil {
			_ = sink.Send(payload)
		}
		_ = sink.Close()
		b.removeSink(streamingID, sink.ID())
	}

	log.Debug().Str("streaming_id", streamingID).Msg("stream session closed")
}

// Shutdown terminates every sink and stops the heartbeat. The broadcaster
// accepts no clients afterwards.
func (b *Broadcaster) Shutdown() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	all := b.sinks
	b.sinks = make(map[string]map[string]ports.Sink)
	if b.heartbeatOn {
		b.heartbeatOn = false
		close(b.heartbeatStop)
	}
	b.mu.Unlock()

	for _, set := range all {
		for _, sink := range set {
			_ = sink.Close()
		}
	}

	log.Debug().Msg("stream broadcaster shut down")
}

// ClientCount returns the number of sinks attached under streamingID.
func (b *Broadcaster) ClientCount(streamingID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sinks[streamingID])
}

// TotalClients returns the number of attached sinks across all ids.
func (b *Broadcaster) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total()
}

func (b *Broadcaster) total() int {
	n := 0
	for _, set := range b.sinks {
		n += len(set)
	}
	return n
}

// snapshot copies the sink set for one id so sends happen outside the lock.
func (b *Broadcaster) snapshot(streamingID string) []ports.Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()
	set := b.sinks[streamingID]
	group := make([]ports.Sink, 0, len(set))
	for _, sink := range set {
		group = append(group, sink)
	}
	return group
}

// deliver writes one encoded event to each sink, evicting sinks whose
// write fails.
func (b *Broadcaster) deliver(group []ports.Sink, streamingID string, payload []byte, event events.Event) {
	for _, sink := range group {
		if err := sink.Send(payload); err != nil {
			log.Debug().Err(err).Str("streaming_id", streamingID).Str("sink_id", sink.ID()).
				Str("event_type", string(event.Type())).Msg("sink write failed, evicting")
			b.dropSink(streamingID, sink)
		}
	}
}

// dropSink closes a sink and removes it from the registry.
func (b *Broadcaster) dropSink(streamingID string, sink ports.Sink) {
	_ = sink.Close()
	b.removeSink(streamingID, sink.ID())
}

// removeSink forgets one sink. The heartbeat stops when the last sink
// across all ids is gone.
func (b *Broadcaster) removeSink(streamingID, sinkID string) {
	b.mu.Lock()
	set, ok := b.sinks[streamingID]
	if !ok {
		b.mu.Unlock()
		return
	}
	if _, present := set[sinkID]; !present {
		b.mu.Unlock()
		return
	}
	delete(set, sinkID)
	if len(set) == 0 {
		delete(b.sinks, streamingID)
	}
	if b.heartbeatOn && b.total() == 0 {
		b.heartbeatOn = false
		close(b.heartbeatStop)
	}
	b.mu.Unlock()

	log.Debug().Str("streaming_id", streamingID).Str("sink_id", sinkID).Msg("stream client removed")
}

// heartbeatLoop pings every sink on a fixed cadence until stopped. Sinks
// that fail a ping are evicted.
func (b *Broadcaster) heartbeatLoop(stop chan struct{}) {
	ticker := time.NewTicker(b.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			b.pingAll()
		}
	}
}

func (b *Broadcaster) pingAll() {
	b.mu.RLock()
	type target struct {
		id   string
		sink ports.Sink
	}
	targets := make([]target, 0)
	for id, set := range b.sinks {
		for _, sink := range set {
			targets = append(targets, target{id: id, sink: sink})
		}
	}
	b.mu.RUnlock()

	for _, t := range targets {
		if err := t.sink.Ping(); err != nil {
			log.Debug().Err(err).Str("streaming_id", t.id).Str("sink_id", t.sink.ID()).
				Msg("heartbeat failed, evicting sink")
			b.dropSink(t.id, t.sink)
		}
	}
}
