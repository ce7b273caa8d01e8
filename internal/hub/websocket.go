package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/domain"
)

const (
	// writeWait bounds a single frame write.
	writeWait = 10 * time.Second

	// pongWait is the read deadline; it must exceed the broadcaster's
	// heartbeat interval or healthy connections get reaped.
	pongWait = 90 * time.Second

	// maxMessageSize caps inbound frames; the stream is one-way so clients
	// have nothing big to say.
	maxMessageSize = 512

	// sendBufferSize is the per-client outbound queue.
	sendBufferSize = 64
)

// WSSink adapts a WebSocket connection to the sink contract. One writer
// goroutine owns the connection; Send and Ping enqueue frames onto it.
type WSSink struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	ping chan struct{}
	done chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewWSSink wraps an upgraded connection and starts its read/write pumps.
func NewWSSink(conn *websocket.Conn) *WSSink {
	s := &WSSink{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		ping: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go s.writePump()
	go s.readPump()
	return s
}

// ID returns the sink's unique identifier.
func (s *WSSink) ID() string {
	return s.id
}

// Send queues one event frame. A full queue is an error: a client that far
// behind cannot keep the stream live.
func (s *WSSink) Send(payload []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return domain.ErrSinkClosed
	default:
		return errors.New("websocket send queue full")
	}
}

// Ping queues a protocol-level ping frame.
func (s *WSSink) Ping() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSinkClosed
	}
	s.mu.Unlock()

	select {
	case s.ping <- struct{}{}:
		return nil
	case <-s.done:
		return domain.ErrSinkClosed
	default:
		return errors.New("websocket ping queue full")
	}
}

// Close is idempotent; it stops the pumps, which send the close frame.
func (s *WSSink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.done)
	return nil
}

// Done is closed once the sink accepts no more writes.
func (s *WSSink) Done() <-chan struct{} {
	return s.done
}

// readPump consumes the connection so control frames are processed and
// disconnects are noticed. Inbound data frames are discarded; the stream
// is one-way.
func (s *WSSink) readPump() {
	defer func() {
		_ = s.Close()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Str("sink_id", s.id).Msg("websocket read error")
			}
			return
		}
	}
}

// writePump is the single writer on the connection. Each queued payload
// goes out as its own text frame.
func (s *WSSink) writePump() {
	defer func() {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
		_ = s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			return

		case message := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("sink_id", s.id).Msg("websocket write error")
				_ = s.Close()
				return
			}

		case <-s.ping:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("sink_id", s.id).Msg("websocket ping error")
				_ = s.Close()
				return
			}
		}
	}
}
