package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/cui-project/cui/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The server binds to localhost; pages served from any local port
		// may attach.
		return true
	},
}

// handleStreamSSE handles GET /api/stream/{streamingId}
//
//	@Summary		Attach an SSE event stream
//	@Description	Streams index and content update events for the given streaming id as server-sent events. The literal id "global" receives every event.
//	@Tags			stream
//	@Produce		text/event-stream
//	@Param			streamingId	path	string	true	"Session ID or the literal global"
//	@Success		200			"data: <event JSON> frames"
//	@Router			/api/stream/{streamingId} [get]
func (s *Server) handleStreamSSE(w http.ResponseWriter, r *http.Request) {
	streamingID := mux.Vars(r)["streamingId"]

	sink, err := hub.NewSSESink(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.hub.AddClient(streamingID, sink)

	// The response writer is only valid while this handler runs; hold the
	// connection until the client goes away or the hub drops the sink.
	select {
	case <-sink.Done():
	case <-r.Context().Done():
		_ = sink.Close()
	}

	log.Debug().Str("streaming_id", streamingID).Msg("SSE stream closed")
}

// handleStreamWS handles GET /api/stream/{streamingId}/ws
//
//	@Summary		Attach a WebSocket event stream
//	@Description	Upgrades the connection and streams the same event feed as the SSE endpoint, one JSON text frame per event
//	@Tags			stream
//	@Param			streamingId	path	string	true	"Session ID or the literal global"
//	@Success		101			"Switching protocols"
//	@Router			/api/stream/{streamingId}/ws [get]
func (s *Server) handleStreamWS(w http.ResponseWriter, r *http.Request) {
	streamingID := mux.Vars(r)["streamingId"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status.
		log.Debug().Err(err).Str("streaming_id", streamingID).Msg("websocket upgrade failed")
		return
	}

	// The sink's pumps own the hijacked connection from here on.
	s.hub.AddClient(streamingID, hub.NewWSSink(conn))
}
