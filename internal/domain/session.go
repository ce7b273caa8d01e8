// Package domain contains the shared data model and domain errors for cui.
package domain

import "encoding/json"

// Defaults applied when a field was never observed or set.
const (
	DefaultPermissionMode = "default"
	DefaultModel          = "Unknown"
)

// SessionRecord is one row of the session index, keyed by SessionID
// (the filename stem of the session's JSONL file, typically a UUID).
//
// Fields split into two provenance groups: user-preference fields are set
// only through the update API and never overwritten by the indexer; indexed
// fields are written only by the indexer and never by the user API.
type SessionRecord struct {
	SessionID string `json:"sessionId"`

	// User-preference fields.
	CustomName            string `json:"customName"`
	Pinned                bool   `json:"pinned"`
	Archived              bool   `json:"archived"`
	ContinuationSessionID string `json:"continuationSessionId,omitempty"`
	InitialCommitHead     string `json:"initialCommitHead,omitempty"`
	PermissionMode        string `json:"permissionMode"`

	// Indexed fields.
	Summary         string `json:"summary,omitempty"`
	ProjectPath     string `json:"projectPath,omitempty"`
	FilePath        string `json:"filePath,omitempty"`
	MessageCount    int    `json:"messageCount"`
	TotalDurationMs int64  `json:"totalDurationMs"`
	Model           string `json:"model"`
	LastScannedAtMs int64  `json:"lastScannedAtMs,omitempty"`

	// Bookkeeping. CreatedAt carries the session's first observed timestamp
	// once indexed; UpdatedAt is refreshed on every write.
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// HasContinuation reports whether the session points at a follow-up session.
// An empty ContinuationSessionID means no continuation.
func (r *SessionRecord) HasContinuation() bool {
	return r.ContinuationSessionID != ""
}

// SessionUpdate is a partial update of the user-preference fields.
// Nil fields are left untouched.
type SessionUpdate struct {
	CustomName            *string `json:"customName,omitempty"`
	Pinned                *bool   `json:"pinned,omitempty"`
	Archived              *bool   `json:"archived,omitempty"`
	ContinuationSessionID *string `json:"continuationSessionId,omitempty"`
	InitialCommitHead     *string `json:"initialCommitHead,omitempty"`
	PermissionMode        *string `json:"permissionMode,omitempty"`
}

// IsZero reports whether the update carries no fields at all.
func (u *SessionUpdate) IsZero() bool {
	return u.CustomName == nil && u.Pinned == nil && u.Archived == nil &&
		u.ContinuationSessionID == nil && u.InitialCommitHead == nil &&
		u.PermissionMode == nil
}

// IndexedMetadata is the transient per-file result of a scan, consumed by
// the indexer. It mirrors the indexed-field subset of SessionRecord.
type IndexedMetadata struct {
	SessionID       string
	Summary         string
	ProjectPath     string
	FilePath        string
	MessageCount    int
	TotalDurationMs int64
	Model           string
	FirstTimestamp  string
	LastTimestamp   string
	LastScannedAtMs int64
}

// ConversationMessage is one user/assistant entry of a session file as served
// by the detail API. Message is kept opaque: either a JSON string or an
// object whose content is a string or a list of typed blocks.
type ConversationMessage struct {
	UUID        string          `json:"uuid"`
	ParentUUID  string          `json:"parentUuid,omitempty"`
	SessionID   string          `json:"sessionId"`
	Type        string          `json:"type"`
	Message     json.RawMessage `json:"message"`
	Timestamp   string          `json:"timestamp"`
	IsSidechain bool            `json:"isSidechain,omitempty"`
	CWD         string          `json:"cwd,omitempty"`
	DurationMs  int64           `json:"durationMs,omitempty"`
}

// Sort fields accepted by ListQuery.
type SortField string

const (
	SortByCreated SortField = "created"
	SortByUpdated SortField = "updated"
)

// Sort orders accepted by ListQuery.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListQuery filters and paginates the session list. Nil boolean filters
// match both values. Limit <= 0 means no limit.
type ListQuery struct {
	ProjectPath     string
	Archived        *bool
	Pinned          *bool
	HasContinuation *bool
	SortBy          SortField
	Order           SortOrder
	Limit           int
	Offset          int
}

// StoreStats summarizes the session store.
type StoreStats struct {
	Count       int    `json:"count"`
	ByteSize    int64  `json:"byteSize"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}
