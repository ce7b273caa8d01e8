package hub

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cui-project/cui/internal/domain"
	"github.com/cui-project/cui/internal/domain/events"
)

// fakeSink records everything the broadcaster writes to it.
type fakeSink struct {
	id   string
	done chan struct{}

	mu       sync.Mutex
	payloads [][]byte
	pings    int
	failSend bool
	failPing bool
	closed   bool
}

func newFakeSink(id string) *fakeSink {
	return &fakeSink{id: id, done: make(chan struct{})}
}

func (f *fakeSink) ID() string { return f.id }

func (f *fakeSink) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return domain.ErrSinkClosed
	}
	if f.failSend {
		return errors.New("write failed")
	}
	cp := make([]byte, len(payload))
	copy(cp, payload)
	f.payloads = append(f.payloads, cp)
	return nil
}

func (f *fakeSink) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return domain.ErrSinkClosed
	}
	if f.failPing {
		return errors.New("ping failed")
	}
	f.pings++
	return nil
}

func (f *fakeSink) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil
	}
	f.closed = true
	close(f.done)
	return nil
}

func (f *fakeSink) Done() <-chan struct{} { return f.done }

// eventTypes decodes the type field of every received payload.
func (f *fakeSink) eventTypes(t *testing.T) []string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()

	var types []string
	for _, payload := range f.payloads {
		var decoded struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(payload, &decoded); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", payload, err)
		}
		types = append(types, decoded.Type)
	}
	return types
}

func (f *fakeSink) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSink) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeSink) setFailPing(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failPing = fail
}

func (f *fakeSink) setFailSend(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSend = fail
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestAddClient_SendsConnectedHandshake(t *testing.T) {
	b := New(time.Hour)
	sink := newFakeSink("c1")

	b.AddClient("sess-1", sink)

	types := sink.eventTypes(t)
	if len(types) != 1 || types[0] != string(events.EventTypeConnected) {
		t.Fatalf("handshake events = %v, want [connected]", types)
	}

	var decoded struct {
		StreamingID string `json:"streaming_id"`
	}
	sink.mu.Lock()
	payload := sink.payloads[0]
	sink.mu.Unlock()
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.StreamingID != "sess-1" {
		t.Errorf("streaming_id = %q, want %q", decoded.StreamingID, "sess-1")
	}
	if b.ClientCount("sess-1") != 1 {
		t.Errorf("ClientCount = %d, want 1", b.ClientCount("sess-1"))
	}
}

func TestBroadcastFanOut(t *testing.T) {
	b := New(time.Hour)

	xSinks := []*fakeSink{newFakeSink("x1"), newFakeSink("x2"), newFakeSink("x3")}
	for _, s := range xSinks {
		b.AddClient("x", s)
	}
	ySink := newFakeSink("y1")
	b.AddClient("y", ySink)

	// Global publish reaches all four sinks.
	b.PublishGlobal(events.NewIndexUpdateEvent("s"))
	for _, s := range append(xSinks, ySink) {
		if got := s.received(); got != 2 { // connected + index_update
			t.Errorf("sink %s received %d events, want 2", s.ID(), got)
		}
	}

	// Targeted publish reaches only the three sinks on x.
	b.Publish("x", events.NewIndexUpdateEvent("s"))
	for _, s := range xSinks {
		if got := s.received(); got != 3 {
			t.Errorf("sink %s received %d events, want 3", s.ID(), got)
		}
	}
	if got := ySink.received(); got != 2 {
		t.Errorf("sink y1 received %d events, want 2", got)
	}
}

func TestPublish_GlobalLiteralFansOutEverywhere(t *testing.T) {
	b := New(time.Hour)
	sink := newFakeSink("c1")
	b.AddClient("whatever", sink)

	b.Publish(events.GlobalStreamingID, events.NewIndexUpdateEvent("s"))

	types := sink.eventTypes(t)
	if len(types) != 2 || types[1] != string(events.EventTypeIndexUpdate) {
		t.Errorf("events = %v, want [connected index_update]", types)
	}
}

func TestPublish_NoSubscribersIsNoop(t *testing.T) {
	b := New(time.Hour)
	// Nothing registered anywhere; both forms must be silent no-ops.
	b.Publish("nobody-home", events.NewIndexUpdateEvent("s"))
	b.PublishGlobal(events.NewIndexUpdateEvent("s"))
}

func TestCloseSession_NoFurtherDelivery(t *testing.T) {
	b := New(time.Hour)
	sink := newFakeSink("c1")
	other := newFakeSink("c2")
	b.AddClient("x", sink)
	b.AddClient("keep", other)

	b.CloseSession("x")

	types := sink.eventTypes(t)
	if len(types) != 2 || types[1] != string(events.EventTypeClosed) {
		t.Fatalf("events = %v, want [connected closed]", types)
	}
	select {
	case <-sink.Done():
	default:
		t.Error("sink not terminated by CloseSession")
	}
	if b.ClientCount("x") != 0 {
		t.Errorf("ClientCount(x) = %d, want 0", b.ClientCount("x"))
	}

	// Publishing to the closed id delivers nothing anywhere.
	before := other.received()
	b.Publish("x", events.NewIndexUpdateEvent("s"))
	if got := sink.received(); got != 2 {
		t.Errorf("closed sink received %d events, want 2", got)
	}
	if got := other.received(); got != before {
		t.Errorf("unrelated sink received %d events, want %d", got, before)
	}
}

func TestPublish_EvictsDeadSink(t *testing.T) {
	b := New(time.Hour)
	dead := newFakeSink("dead")
	alive := newFakeSink("alive")
	b.AddClient("x", dead)
	b.AddClient("x", alive)

	dead.setFailSend(true)
	b.Publish("x", events.NewIndexUpdateEvent("s"))

	if b.ClientCount("x") != 1 {
		t.Errorf("ClientCount = %d, want 1 after eviction", b.ClientCount("x"))
	}
	select {
	case <-dead.Done():
	default:
		t.Error("dead sink not closed on eviction")
	}
	if got := alive.received(); got != 2 {
		t.Errorf("healthy sink received %d events, want 2", got)
	}
}

func TestAddClient_DropsAlreadyClosedSink(t *testing.T) {
	b := New(time.Hour)
	sink := newFakeSink("c1")
	_ = sink.Close()

	b.AddClient("x", sink)

	if b.ClientCount("x") != 0 {
		t.Errorf("ClientCount = %d, want 0", b.ClientCount("x"))
	}
}

func TestDisconnectedSinkIsRemoved(t *testing.T) {
	b := New(time.Hour)
	sink := newFakeSink("c1")
	b.AddClient("x", sink)

	_ = sink.Close()

	waitFor(t, func() bool { return b.ClientCount("x") == 0 }, "sink not removed after disconnect")
}

func TestHeartbeat_PingsAndEvicts(t *testing.T) {
	b := New(10 * time.Millisecond)
	sink := newFakeSink("c1")
	b.AddClient("x", sink)

	waitFor(t, func() bool { return sink.pingCount() >= 2 }, "no heartbeat pings observed")

	sink.setFailPing(true)
	waitFor(t, func() bool { return b.ClientCount("x") == 0 }, "sink not evicted after ping failure")
	select {
	case <-sink.Done():
	default:
		t.Error("sink not closed after ping eviction")
	}
}

func TestShutdown(t *testing.T) {
	b := New(time.Hour)
	s1 := newFakeSink("c1")
	s2 := newFakeSink("c2")
	b.AddClient("x", s1)
	b.AddClient("y", s2)

	b.Shutdown()

	for _, s := range []*fakeSink{s1, s2} {
		select {
		case <-s.Done():
		default:
			t.Errorf("sink %s not closed on shutdown", s.ID())
		}
	}
	if b.TotalClients() != 0 {
		t.Errorf("TotalClients = %d, want 0", b.TotalClients())
	}

	// New clients are rejected after shutdown.
	late := newFakeSink("late")
	b.AddClient("x", late)
	if b.ClientCount("x") != 0 {
		t.Error("client accepted after shutdown")
	}
}
