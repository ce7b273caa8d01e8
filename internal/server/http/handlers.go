package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/domain"
)

// handleHealth handles GET /health
//
//	@Summary		Health check
//	@Description	Returns the health status of the server
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	HealthResponse
//	@Router			/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSystemStats handles GET /api/system/stats
//
//	@Summary		Index statistics
//	@Description	Returns session count, index size on disk, connected stream clients and whether the indexer is running
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	SystemStatsResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/system/stats [get]
func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats()
	if err != nil {
		respondError(w, domain.NewHistoryReadFailed(err))
		return
	}

	writeJSON(w, http.StatusOK, SystemStatsResponse{
		SessionCount:     stats.Count,
		IndexByteSize:    stats.ByteSize,
		LastUpdated:      stats.LastUpdated,
		ConnectedClients: s.hub.TotalClients(),
		IndexerRunning:   s.indexer.IsRunning(),
	})
}

// handleReindex handles POST /api/system/reindex
//
//	@Summary		Request a full rescan
//	@Description	Schedules a full scan of the projects directory in the background
//	@Tags			system
//	@Produce		json
//	@Success		202	{object}	ReindexResponse
//	@Failure		503	{object}	ErrorResponse	"Indexer not running"
//	@Router			/api/system/reindex [post]
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if !s.indexer.Reindex() {
		respondError(w, &domain.APIError{
			Code:    "INDEXER_NOT_RUNNING",
			Message: "indexer is not running",
			Status:  http.StatusServiceUnavailable,
		})
		return
	}
	writeJSON(w, http.StatusAccepted, ReindexResponse{Status: "scheduled"})
}

// handleListConversations handles GET /api/conversations
//
//	@Summary		List sessions
//	@Description	Returns indexed session metadata, filtered and paginated. Served entirely from the index; no session file is opened.
//	@Tags			conversations
//	@Produce		json
//	@Param			projectPath		query		string	false	"Filter by project path"
//	@Param			archived		query		bool	false	"Filter by archived flag"
//	@Param			pinned			query		bool	false	"Filter by pinned flag"
//	@Param			hasContinuation	query		bool	false	"Filter by continuation presence"
//	@Param			sortBy			query		string	false	"Sort field: created or updated (default updated)"
//	@Param			order			query		string	false	"Sort order: asc or desc (default desc)"
//	@Param			limit			query		int		false	"Page size (0 returns all rows)"
//	@Param			offset			query		int		false	"Rows to skip"
//	@Success		200				{object}	ConversationListResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/api/conversations [get]
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	query := domain.ListQuery{
		ProjectPath:     r.URL.Query().Get("projectPath"),
		Archived:        parseBoolParam(r, "archived"),
		Pinned:          parseBoolParam(r, "pinned"),
		HasContinuation: parseBoolParam(r, "hasContinuation"),
		SortBy:          domain.SortField(r.URL.Query().Get("sortBy")),
		Order:           domain.SortOrder(r.URL.Query().Get("order")),
		Limit:           parseIntParam(r, "limit", 0),
		Offset:          parseIntParam(r, "offset", 0),
	}

	records, total, err := s.store.List(query)
	if err != nil {
		respondError(w, domain.NewHistoryReadFailed(err))
		return
	}
	if records == nil {
		records = []domain.SessionRecord{}
	}

	writeJSON(w, http.StatusOK, ConversationListResponse{
		Conversations: records,
		Total:         total,
	})
}

// handleGetConversation handles GET /api/conversations/{sessionId}
//
//	@Summary		Read a conversation
//	@Description	Parses the session's JSONL file and returns its user and assistant messages in conversation order
//	@Tags			conversations
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session ID"
//	@Success		200			{object}	ConversationResponse
//	@Failure		404			{object}	ErrorResponse	"Unknown session or vanished file"
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/conversations/{sessionId} [get]
func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	messages, err := s.reader.FetchConversation(sessionID)
	if err != nil {
		respondError(w, domain.AsAPIError(err, domain.NewConversationReadFailed))
		return
	}
	if messages == nil {
		messages = []domain.ConversationMessage{}
	}

	writeJSON(w, http.StatusOK, ConversationResponse{Messages: messages})
}

// handleConversationMetadata handles GET /api/conversations/{sessionId}/metadata
//
//	@Summary		Read indexed metadata
//	@Description	Returns the indexed summary fields for a session straight from the store
//	@Tags			conversations
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session ID"
//	@Success		200			{object}	ConversationMetadataResponse
//	@Failure		404			{object}	ErrorResponse	"Session not indexed"
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/conversations/{sessionId}/metadata [get]
func (s *Server) handleConversationMetadata(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	record, err := s.store.Lookup(sessionID)
	if err != nil {
		respondError(w, domain.NewHistoryReadFailed(err))
		return
	}
	if record == nil {
		respondError(w, domain.NewConversationNotFound(sessionID))
		return
	}

	writeJSON(w, http.StatusOK, ConversationMetadataResponse{
		Summary:         record.Summary,
		ProjectPath:     record.ProjectPath,
		Model:           record.Model,
		TotalDurationMs: record.TotalDurationMs,
	})
}

// handleUpdateConversation handles PUT /api/conversations/{sessionId}
//
//	@Summary		Update session preferences
//	@Description	Merges the non-null fields of the body into the session's user preferences and returns the updated record. Unknown sessions are created with defaults.
//	@Tags			conversations
//	@Accept			json
//	@Produce		json
//	@Param			sessionId	path		string					true	"Session ID"
//	@Param			update		body		domain.SessionUpdate	true	"Fields to change"
//	@Success		200			{object}	domain.SessionRecord
//	@Failure		400			{object}	ErrorResponse	"Malformed body"
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/conversations/{sessionId} [put]
func (s *Server) handleUpdateConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var update domain.SessionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		respondError(w, &domain.APIError{
			Code:    domain.ErrCodeSessionUpdateFailed,
			Message: "invalid request body",
			Status:  http.StatusBadRequest,
			Err:     err,
		})
		return
	}

	record, err := s.store.UpsertUserFields(sessionID, &update)
	if err != nil {
		respondError(w, domain.AsAPIError(err, domain.NewSessionUpdateFailed))
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleDeleteConversation handles DELETE /api/conversations/{sessionId}
//
//	@Summary		Delete a session row
//	@Description	Removes the session from the index. The JSONL file on disk is left alone.
//	@Tags			conversations
//	@Produce		json
//	@Param			sessionId	path		string	true	"Session ID"
//	@Success		200			{object}	DeleteResponse
//	@Failure		404			{object}	ErrorResponse	"Unknown session"
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/conversations/{sessionId} [delete]
func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := s.store.Delete(sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			respondError(w, domain.NewConversationNotFound(sessionID))
			return
		}
		respondError(w, domain.NewSessionUpdateFailed(err))
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Status: "deleted", SessionID: sessionID})
}

// handleArchiveAll handles POST /api/conversations/archive-all
//
//	@Summary		Archive every session
//	@Description	Marks all unarchived sessions archived and returns how many changed
//	@Tags			conversations
//	@Produce		json
//	@Success		200	{object}	ArchiveAllResponse
//	@Failure		500	{object}	ErrorResponse
//	@Router			/api/conversations/archive-all [post]
func (s *Server) handleArchiveAll(w http.ResponseWriter, r *http.Request) {
	archived, err := s.store.ArchiveAll()
	if err != nil {
		respondError(w, domain.NewSessionUpdateFailed(err))
		return
	}

	writeJSON(w, http.StatusOK, ArchiveAllResponse{Archived: archived})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// respondError writes the error envelope at its own status code.
func respondError(w http.ResponseWriter, apiErr *domain.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		log.Error().Err(apiErr.Err).Str("code", apiErr.Code).Msg(apiErr.Message)
	}
	writeJSON(w, apiErr.Status, apiErr)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// parseBoolParam parses an optional boolean query parameter. Absent or
// malformed values mean "no filter".
func parseBoolParam(r *http.Request, name string) *bool {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return nil
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return nil
	}
	return &val
}
