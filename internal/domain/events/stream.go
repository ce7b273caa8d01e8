// Package events defines the stream events pushed to connected clients.
package events

import (
	"encoding/json"
	"time"

	"github.com/cui-project/cui/internal/domain"
)

// EventType represents the type of a stream event.
type EventType string

const (
	// Connection lifecycle events
	EventTypeConnected EventType = "connected"
	EventTypeClosed    EventType = "closed"

	// Index events
	EventTypeIndexUpdate       EventType = "index_update"
	EventTypeSessionListUpdate EventType = "session_list_update"

	// Per-session content events
	EventTypeSessionContentUpdate EventType = "session_content_update"
)

// GlobalStreamingID is the broadcast namespace: publishing to it reaches
// every attached sink regardless of the id it subscribed under.
const GlobalStreamingID = "global"

// SessionChannel returns the per-session streaming id that content updates
// for the given session are published on.
func SessionChannel(sessionID string) string {
	return "session-" + sessionID
}

// Event is the base interface for all stream events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// ToJSON serializes the event to its wire shape.
	ToJSON() ([]byte, error)
}

// ConnectedEvent is the handshake emitted when a sink attaches.
// Its wire shape uses streaming_id, unlike ClosedEvent.
type ConnectedEvent struct {
	EventType   EventType `json:"type"`
	StreamingID string    `json:"streaming_id"`
	Timestamp   string    `json:"timestamp"`
}

// NewConnectedEvent creates the handshake event for a streaming id.
func NewConnectedEvent(streamingID string) *ConnectedEvent {
	return &ConnectedEvent{
		EventType:   EventTypeConnected,
		StreamingID: streamingID,
		Timestamp:   now(),
	}
}

func (e *ConnectedEvent) Type() EventType         { return e.EventType }
func (e *ConnectedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ClosedEvent announces the teardown of a streaming id.
type ClosedEvent struct {
	EventType   EventType `json:"type"`
	StreamingID string    `json:"streamingId"`
	Timestamp   string    `json:"timestamp"`
}

// NewClosedEvent creates the teardown event for a streaming id.
func NewClosedEvent(streamingID string) *ClosedEvent {
	return &ClosedEvent{
		EventType:   EventTypeClosed,
		StreamingID: streamingID,
		Timestamp:   now(),
	}
}

func (e *ClosedEvent) Type() EventType         { return e.EventType }
func (e *ClosedEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// IndexUpdateEvent is emitted on the global channel after every successful
// per-file re-index.
type IndexUpdateEvent struct {
	EventType EventType `json:"type"`
	SessionID string    `json:"sessionId"`
	Timestamp string    `json:"timestamp"`
}

// NewIndexUpdateEvent creates an index_update event for a session.
func NewIndexUpdateEvent(sessionID string) *IndexUpdateEvent {
	return &IndexUpdateEvent{
		EventType: EventTypeIndexUpdate,
		SessionID: sessionID,
		Timestamp: now(),
	}
}

func (e *IndexUpdateEvent) Type() EventType         { return e.EventType }
func (e *IndexUpdateEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// ListChangeType distinguishes fresh rows from re-indexed ones in
// session_list_update events.
type ListChangeType string

const (
	ListChangeCreated  ListChangeType = "created"
	ListChangeModified ListChangeType = "modified"
)

// SessionListPayload carries the changed row for list consumers.
type SessionListPayload struct {
	SessionID string                `json:"sessionId"`
	EventType ListChangeType        `json:"eventType"`
	Metadata  *domain.SessionRecord `json:"metadata"`
}

// SessionListUpdateEvent is the richer companion of index_update: consumers
// that receive it can update their list without a round trip.
type SessionListUpdateEvent struct {
	EventType EventType          `json:"type"`
	Timestamp string             `json:"timestamp"`
	Data      SessionListPayload `json:"data"`
}

// NewSessionListUpdateEvent creates a session_list_update event.
func NewSessionListUpdateEvent(sessionID string, change ListChangeType, metadata *domain.SessionRecord) *SessionListUpdateEvent {
	return &SessionListUpdateEvent{
		EventType: EventTypeSessionListUpdate,
		Timestamp: now(),
		Data: SessionListPayload{
			SessionID: sessionID,
			EventType: change,
			Metadata:  metadata,
		},
	}
}

func (e *SessionListUpdateEvent) Type() EventType         { return e.EventType }
func (e *SessionListUpdateEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

// SessionContentPayload carries newly appended messages.
type SessionContentPayload struct {
	Messages []domain.ConversationMessage `json:"messages"`
}

// SessionContentUpdateEvent pushes newly appended messages on the
// per-session channel returned by SessionChannel.
type SessionContentUpdateEvent struct {
	EventType EventType             `json:"type"`
	Timestamp string                `json:"timestamp"`
	Data      SessionContentPayload `json:"data"`
}

// NewSessionContentUpdateEvent creates a session_content_update event.
func NewSessionContentUpdateEvent(messages []domain.ConversationMessage) *SessionContentUpdateEvent {
	return &SessionContentUpdateEvent{
		EventType: EventTypeSessionContentUpdate,
		Timestamp: now(),
		Data:      SessionContentPayload{Messages: messages},
	}
}

func (e *SessionContentUpdateEvent) Type() EventType         { return e.EventType }
func (e *SessionContentUpdateEvent) ToJSON() ([]byte, error) { return json.Marshal(e) }

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
