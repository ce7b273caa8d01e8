package hub

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/cui-project/cui/internal/domain"
)

// SSESink streams events to one HTTP client with server-sent event framing.
// The owning handler must stay blocked until Done fires; the response writer
// is only valid for that long.
type SSESink struct {
	id      string
	w       http.ResponseWriter
	flusher http.Flusher
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewSSESink configures w for a long-lived event stream: unbuffered,
// no-cache, permissive cross-origin. Fails when the writer cannot flush.
func NewSSESink(w http.ResponseWriter) (*SSESink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support streaming")
	}

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSESink{
		id:      uuid.New().String(),
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}, nil
}

// ID returns the sink's unique identifier.
func (s *SSESink) ID() string {
	return s.id
}

// Send writes one event frame, data: <payload> followed by a blank line,
// and flushes it to the client.
func (s *SSESink) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSinkClosed
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Ping writes a comment line. Comments keep the connection warm without
// reaching the client's event handler.
func (s *SSESink) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSinkClosed
	}
	if _, err := io.WriteString(s.w, ": heartbeat\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close is idempotent. It marks the sink unwritable and wakes the handler
// blocked on Done.
func (s *SSESink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.done)
	return nil
}

// Done is closed once the sink accepts no more writes.
func (s *SSESink) Done() <-chan struct{} {
	return s.done
}
