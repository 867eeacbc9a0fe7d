package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/wagiedev/archive-bridge/internal/jsonrpc"
	"github.com/wagiedev/archive-bridge/internal/mcp"
)

// isoMillis matches the millisecond ISO-8601 timestamps of /health.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Dispatcher answers request envelopes. *mcp.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, env *jsonrpc.Envelope) *jsonrpc.Response
}

// Compile-time verification that the MCP dispatcher fits the server.
var _ Dispatcher = (*mcp.Dispatcher)(nil)

// Options configures a Server.
type Options struct {
	// Logger receives request logs. Nil disables logging.
	Logger *slog.Logger

	// Dispatcher handles request envelopes.
	Dispatcher Dispatcher

	// ServerName is reported by /health.
	ServerName string

	// AllowedOrigins lists CORS origins; empty or "*" allows any.
	AllowedOrigins []string

	// MaxBodyBytes caps inbound bodies. Zero means no limit.
	MaxBodyBytes int64

	// Metrics, when set, counts envelopes and serves /metrics.
	Metrics *Metrics

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Server is the HTTP transport of the bridge.
type Server struct {
	log        *slog.Logger
	dispatcher Dispatcher
	name       string
	maxBody    int64
	metrics    *Metrics
	now        func() time.Time
	router     chi.Router
}

// New builds the router:
//
//	POST /mcp      JSON-RPC endpoint
//	GET  /health   liveness
//	GET  /metrics  Prometheus metrics (when Options.Metrics is set)
func New(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		log:        log.With("component", "server"),
		dispatcher: opts.Dispatcher,
		name:       opts.ServerName,
		maxBody:    opts.MaxBodyBytes,
		metrics:    opts.Metrics,
		now:        opts.Now,
	}

	if s.now == nil {
		s.now = time.Now
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsHandler(opts.AllowedOrigins).Handler)

	r.Post("/mcp", s.handleMCP)
	r.Get("/health", s.handleHealth)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router = r

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func corsHandler(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
}

// handleMCP classifies the envelope, drops notifications, rejects malformed
// input and dispatches requests. Any panic becomes an internal error reply.
func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	log := s.log.With("request_id", middleware.GetReqID(r.Context()))
	replyID := jsonrpc.Null
	method := "invalid"

	defer func() {
		if p := recover(); p != nil {
			log.Error("MCP handler panicked", "panic", p)

			resp := jsonrpc.Failure(replyID, jsonrpc.Errorf(jsonrpc.CodeInternalError, "%v", p))
			s.observe(method, resp.Outcome())
			s.writeJSON(w, resp.HTTPStatus(), resp)
		}
	}()

	body, err := s.readBody(w, r)
	if err != nil {
		log.Warn("Failed to read request body", "error", err)

		resp := jsonrpc.Failure(jsonrpc.Null, jsonrpc.ErrInvalidRequest())
		s.observe(method, resp.Outcome())
		s.writeJSON(w, resp.HTTPStatus(), resp)

		return
	}

	env := jsonrpc.Decode(body)
	replyID = env.ReplyID()

	log.Debug("Received MCP envelope", "body", string(body))

	switch env.Classify() {
	case jsonrpc.KindNotification:
		log.Debug("Notification acknowledged", "method", env.Method)
		s.observe(methodLabel(env.Method), "notification")
		w.WriteHeader(http.StatusNoContent)

		return

	case jsonrpc.KindMalformed:
		log.Warn("Malformed envelope", "id", string(replyID))

		resp := jsonrpc.Failure(replyID, jsonrpc.ErrInvalidRequest())
		s.observe(method, resp.Outcome())
		s.writeJSON(w, resp.HTTPStatus(), resp)

		return
	}

	method = methodLabel(env.Method)

	// Tool calls run to completion once dispatched, even if the caller goes away.
	resp := s.dispatcher.Dispatch(context.WithoutCancel(r.Context()), env)

	log.Debug("Request handled", "method", env.Method, "id", string(replyID), "outcome", resp.Outcome())
	s.observe(method, resp.Outcome())
	s.writeJSON(w, resp.HTTPStatus(), resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"server":    s.name,
		"timestamp": s.now().UTC().Format(isoMillis),
	})
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if s.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, s.maxBody)
	}

	return io.ReadAll(body)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}

func (s *Server) observe(method, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveRequest(method, outcome)
	}
}

// methodLabel bounds metric cardinality to the known methods.
func methodLabel(name string) string {
	if m, ok := mcp.ParseMethod(name); ok {
		return string(m)
	}

	return "unknown"
}

// requestLogger logs one line per HTTP request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
