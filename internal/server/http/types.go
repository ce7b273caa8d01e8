// Package http implements the HTTP API server for cui: session list and
// detail reads, user metadata updates, and the SSE/WebSocket stream attach
// points.
package http

import "github.com/cui-project/cui/internal/domain"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Time   string `json:"time" example:"2024-01-15T10:30:00Z"`
}

// SystemStatsResponse reports index size and live-stream usage.
type SystemStatsResponse struct {
	SessionCount     int    `json:"sessionCount" example:"42"`
	IndexByteSize    int64  `json:"indexByteSize" example:"131072"`
	LastUpdated      string `json:"lastUpdated,omitempty" example:"2024-01-15T10:30:00Z"`
	ConnectedClients int    `json:"connectedClients" example:"2"`
	IndexerRunning   bool   `json:"indexerRunning" example:"true"`
}

// ReindexResponse acknowledges a scheduled background scan.
type ReindexResponse struct {
	Status string `json:"status" example:"scheduled"`
}

// ConversationListResponse is one page of the session list.
type ConversationListResponse struct {
	Conversations []domain.SessionRecord `json:"conversations"`
	Total         int                    `json:"total" example:"42"`
}

// ConversationResponse carries a session's messages in conversation order.
type ConversationResponse struct {
	Messages []domain.ConversationMessage `json:"messages"`
}

// ConversationMetadataResponse is the indexed-field subset of a session,
// served without opening its file.
type ConversationMetadataResponse struct {
	Summary         string `json:"summary" example:"Fix the login redirect loop"`
	ProjectPath     string `json:"projectPath" example:"/home/dev/webapp"`
	Model           string `json:"model" example:"claude-sonnet-4"`
	TotalDurationMs int64  `json:"totalDurationMs" example:"5400"`
}

// DeleteResponse confirms removal of a session row.
type DeleteResponse struct {
	Status    string `json:"status" example:"deleted"`
	SessionID string `json:"sessionId" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ArchiveAllResponse reports how many sessions were newly archived.
type ArchiveAllResponse struct {
	Archived int64 `json:"archived" example:"7"`
}

// ErrorResponse represents the API error envelope.
type ErrorResponse struct {
	Code    string `json:"code" example:"CONVERSATION_NOT_FOUND"`
	Message string `json:"message" example:"no conversation found for session abc"`
	Status  int    `json:"status" example:"404"`
}
