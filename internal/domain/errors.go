package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common error conditions.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrStoreClosed     = errors.New("session store is closed")
	ErrSinkClosed      = errors.New("client sink is closed")
)

// Error codes for client responses.
const (
	ErrCodeHistoryReadFailed      = "HISTORY_READ_FAILED"
	ErrCodeConversationNotFound   = "CONVERSATION_NOT_FOUND"
	ErrCodeFileNotFound           = "FILE_NOT_FOUND"
	ErrCodeConversationReadFailed = "CONVERSATION_READ_FAILED"
	ErrCodeSessionUpdateFailed    = "SESSION_UPDATE_FAILED"
)

// APIError is the canonical error envelope returned to API clients.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewConversationNotFound reports that neither an index row nor a session
// file exists for the id.
func NewConversationNotFound(sessionID string) *APIError {
	return &APIError{
		Code:    ErrCodeConversationNotFound,
		Message: fmt.Sprintf("no conversation found for session %s", sessionID),
		Status:  http.StatusNotFound,
	}
}

// NewFileNotFound reports that the index knows the session but its file has
// vanished. The path is the subject of the error and is safe to expose.
func NewFileNotFound(path string) *APIError {
	return &APIError{
		Code:    ErrCodeFileNotFound,
		Message: fmt.Sprintf("session file no longer exists: %s", path),
		Status:  http.StatusNotFound,
	}
}

// NewConversationReadFailed wraps a parse or read failure during a detail read.
func NewConversationReadFailed(err error) *APIError {
	return &APIError{
		Code:    ErrCodeConversationReadFailed,
		Message: "failed to read conversation",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewHistoryReadFailed wraps a store or scan failure during a list read.
func NewHistoryReadFailed(err error) *APIError {
	return &APIError{
		Code:    ErrCodeHistoryReadFailed,
		Message: "failed to read session history",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewSessionUpdateFailed wraps a rejected store write.
func NewSessionUpdateFailed(err error) *APIError {
	return &APIError{
		Code:    ErrCodeSessionUpdateFailed,
		Message: "failed to update session",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// AsAPIError normalizes err to an APIError, defaulting to the given
// fallback constructor when err is not already typed.
func AsAPIError(err error, fallback func(error) *APIError) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return fallback(err)
}
