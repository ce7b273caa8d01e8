package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cui-project/cui/internal/adapters/claude"
	"github.com/cui-project/cui/internal/domain"
	"github.com/cui-project/cui/internal/hub"
	"github.com/cui-project/cui/internal/indexer"
	"github.com/cui-project/cui/internal/store"
)

// requestTimeout bounds ordinary API requests. Stream attaches, the health
// check and the swagger UI are exempt.
const requestTimeout = 10 * time.Second

// Server exposes the session index over HTTP.
type Server struct {
	store   *store.Store
	reader  *claude.Reader
	hub     *hub.Broadcaster
	indexer *indexer.Indexer

	addr   string
	server *http.Server
}

// New creates a Server bound to host:port. Start must be called to serve.
func New(host string, port int, st *store.Store, reader *claude.Reader, broadcaster *hub.Broadcaster, ix *indexer.Indexer) *Server {
	return &Server{
		store:   st,
		reader:  reader,
		hub:     broadcaster,
		indexer: ix,
		addr:    fmt.Sprintf("%s:%d", host, port),
	}
}

// Router assembles the route table and middleware chain. Split out of Start
// so tests can drive the full handler stack without a listener.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/system/stats", s.handleSystemStats).Methods("GET")
	api.HandleFunc("/system/reindex", s.handleReindex).Methods("POST")

	// archive-all is registered before the {sessionId} routes so the literal
	// path segment is never captured as a session id.
	api.HandleFunc("/conversations/archive-all", s.handleArchiveAll).Methods("POST")
	api.HandleFunc("/conversations", s.handleListConversations).Methods("GET")
	api.HandleFunc("/conversations/{sessionId}/metadata", s.handleConversationMetadata).Methods("GET")
	api.HandleFunc("/conversations/{sessionId}", s.handleGetConversation).Methods("GET")
	api.HandleFunc("/conversations/{sessionId}", s.handleUpdateConversation).Methods("PUT")
	api.HandleFunc("/conversations/{sessionId}", s.handleDeleteConversation).Methods("DELETE")

	api.HandleFunc("/stream/{streamingId}/ws", s.handleStreamWS).Methods("GET")
	api.HandleFunc("/stream/{streamingId}", s.handleStreamSSE).Methods("GET")

	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	// Build middleware chain from inside out:
	// request -> logging -> timeout -> cors -> router
	var handler http.Handler = router
	handler = corsMiddleware(handler)
	handler = timeoutMiddleware(requestTimeout, handler)
	handler = requestLoggingMiddleware(handler)
	return handler
}

// Start begins serving in the background. Connection-level read/write
// timeouts stay unset: SSE and WebSocket clients hold their connections
// open indefinitely. Per-request deadlines come from timeoutMiddleware.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:        s.addr,
		Handler:     s.Router(),
		IdleTimeout: 120 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("HTTP server starting")

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	return nil
}

// Stop drains in-flight requests and closes the listener. Stream handlers
// unblock when the broadcaster shuts their sinks down, so the hub must be
// shut down before or shortly after calling Stop.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	log.Info().Msg("HTTP server stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestLoggingMiddleware logs all incoming requests for debugging.
func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("incoming request")

		next.ServeHTTP(w, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	})
}

// corsMiddleware adds permissive CORS headers so browser clients on other
// local ports can call the API directly.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		} else {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// timeoutMiddleware wraps handlers with a timeout to prevent hanging
// requests. Long-lived paths are skipped: stream attaches stay open for the
// client's lifetime and must never be cut by a request deadline.
func timeoutMiddleware(timeout time.Duration, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" ||
			strings.HasPrefix(r.URL.Path, "/api/stream/") ||
			strings.HasPrefix(r.URL.Path, "/swagger/") {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		done := make(chan struct{})
		tw := &timeoutResponseWriter{ResponseWriter: w}

		go func() {
			next.ServeHTTP(tw, r.WithContext(ctx))
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			if tw.markTimedOut() {
				log.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Dur("timeout", timeout).
					Msg("request timed out")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_ = json.NewEncoder(w).Encode(&domain.APIError{
					Code:    "REQUEST_TIMEOUT",
					Message: "request timed out",
					Status:  http.StatusGatewayTimeout,
				})
			}
		}
	})
}

// timeoutResponseWriter tracks whether the handler wrote a response and
// silences handler writes that land after the deadline fired.
type timeoutResponseWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	written  bool
	timedOut bool
}

func (tw *timeoutResponseWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.written {
		return
	}
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutResponseWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return len(b), nil
	}
	tw.written = true
	return tw.ResponseWriter.Write(b)
}

// markTimedOut flips the writer into the silenced state and reports whether
// the middleware still owns the response.
func (tw *timeoutResponseWriter) markTimedOut() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.timedOut = true
	return !tw.written
}
