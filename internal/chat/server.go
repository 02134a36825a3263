package chat

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/session"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

// TranscriptArchive reads and purges archived turns.
type TranscriptArchive interface {
	ListRecent(ctx context.Context, sessionID string, limit int) ([]domain.TranscriptEntry, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.input = adapter.NewMessageAdapter(prefix)
		s.formatter = adapter.NewResponseFormatter(prefix)
	}
}

// WithAllowedOrigins restricts WebSocket upgrades to the given origins.
// An empty list or "*" accepts any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = make(map[string]struct{}, len(origins))
		for _, origin := range origins {
			if origin == "*" {
				s.origins = nil
				return
			}
			s.origins[origin] = struct{}{}
		}
	}
}

func WithTranscriptArchive(archive TranscriptArchive) Option {
	return func(s *Server) { s.archive = archive }
}

func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks[name] = check
		}
	}
}

// Server exposes the session hub over HTTP and WebSocket.
type Server struct {
	hub       *session.Hub
	archive   TranscriptArchive
	input     *adapter.MessageAdapter
	formatter *adapter.ResponseFormatter
	upgrader  websocket.Upgrader
	origins   map[string]struct{}
	checks    map[string]HealthCheck
	logger    *zap.Logger

	connsMu sync.Mutex
	conns   map[*wsConn]struct{}
	connsWg sync.WaitGroup
}

func NewServer(hub *session.Hub, opts ...Option) *Server {
	s := &Server{
		hub:       hub,
		input:     adapter.NewMessageAdapter("/"),
		formatter: adapter.NewResponseFormatter("/"),
		checks:    make(map[string]HealthCheck),
		logger:    zap.NewNop(),
		conns:     make(map[*wsConn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  constants.WebSocketConfig.ReadBufferSize,
		WriteBufferSize: constants.WebSocketConfig.ReadBufferSize,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Post("/messages", s.handleMessage)
			r.Get("/context", s.handleExportContext)
			r.Put("/context", s.handleImportContext)
			r.Get("/state", s.handleGetState)
			r.Delete("/state", s.handleResetState)
			r.Get("/transcript", s.handleTranscript)
			r.Delete("/", s.handleClearSession)
		})
	})

	return r
}

// Shutdown closes every open WebSocket connection and waits for their
// handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.connsMu.Lock()
	for c := range s.conns {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	s.connsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.connsWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.logger.Warn("Timeout waiting for WebSocket connections to close")
		return ctx.Err()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 {
		return true
	}
	_, ok := s.origins[r.Header.Get("Origin")]
	return ok
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the typed error family onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		importErr     *errors.ImportError
		validationErr *errors.ValidationError
		assistantErr  *errors.AssistantError
	)

	switch {
	case stderrors.As(err, &importErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: importErr.Message, Code: importErr.Code, Reasons: importErr.Reasons})
	case stderrors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Code: validationErr.Code})
	case stderrors.Is(err, session.ErrClosed):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	case stderrors.As(err, &assistantErr) && assistantErr.StatusCode > 0:
		writeJSON(w, assistantErr.StatusCode, ErrorResponse{Error: assistantErr.Message, Code: assistantErr.Code})
	default:
		s.logger.Error("Request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func writeNotFound(w http.ResponseWriter, id string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "session not found: " + id})
}
