// Package api implements the local HTTP API the dashboard UI talks to.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nugget/lifeboard/internal/buildinfo"
	"github.com/nugget/lifeboard/internal/dashboard"
	"github.com/nugget/lifeboard/internal/knowledge"
	"github.com/nugget/lifeboard/internal/mission"
	"github.com/nugget/lifeboard/internal/openclaw"
)

// maxRequestBytes bounds request bodies. Imports carry a whole document.
const maxRequestBytes = 16 << 20

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// GatewayState reports the last status gateway poll.
// *openclaw.Poller satisfies it.
type GatewayState interface {
	State() openclaw.State
}

// KnowledgeSource loads the knowledge index. *knowledge.Loader
// satisfies it.
type KnowledgeSource interface {
	Load(ctx context.Context) (knowledge.Index, error)
}

// DigestArchive reads archived daily digests. *storage.Store satisfies
// it.
type DigestArchive interface {
	Digest(ctx context.Context, day string) (mission.DailyDigest, error)
	DigestDays(ctx context.Context) ([]string, error)
}

// Config holds the server's dependencies. Controller is required; the
// rest are optional and their endpoints answer 503 when unset.
type Config struct {
	Address    string
	Port       int
	Controller *dashboard.Controller
	Gateway    GatewayState
	Knowledge  KnowledgeSource
	Digests    DigestArchive
	Logger     *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	address   string
	port      int
	ctl       *dashboard.Controller
	gateway   GatewayState
	knowledge KnowledgeSource
	digests   DigestArchive
	logger    *slog.Logger
	server    *http.Server
}

// NewServer creates a new API server.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Server{
		address:   cfg.Address,
		port:      cfg.Port,
		ctl:       cfg.Controller,
		gateway:   cfg.Gateway,
		knowledge: cfg.Knowledge,
		digests:   cfg.Digests,
		logger:    cfg.Logger,
	}
}

// Handler returns the routed handler with request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	// Document and day view
	mux.HandleFunc("GET /api/data", s.handleData)
	mux.HandleFunc("GET /api/today", s.handleToday)

	// Habits
	mux.HandleFunc("POST /api/habits", s.handleHabitAdd)
	mux.HandleFunc("DELETE /api/habits/{id}", s.handleHabitRemove)
	mux.HandleFunc("POST /api/habits/{id}/toggle", s.handleHabitToggle)
	mux.HandleFunc("GET /api/habits/{id}/stats", s.handleHabitStats)

	// Daily entries
	mux.HandleFunc("POST /api/metrics", s.handleMetric)
	mux.HandleFunc("POST /api/checkins", s.handleCheckin)

	// Bills
	mux.HandleFunc("POST /api/bills", s.handleBillUpsert)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleBillRemove)
	mux.HandleFunc("POST /api/bills/{id}/paid", s.handleBillPaid)

	// Simple kanban board
	mux.HandleFunc("POST /api/agent-tasks", s.handleAgentTaskAdd)
	mux.HandleFunc("POST /api/agent-tasks/{id}/move", s.handleAgentTaskMove)
	mux.HandleFunc("DELETE /api/agent-tasks/{id}", s.handleAgentTaskRemove)

	// Mission Control
	mux.HandleFunc("POST /api/mission/tasks", s.handleTaskCreate)
	mux.HandleFunc("PATCH /api/mission/tasks/{id}", s.handleTaskUpdate)
	mux.HandleFunc("DELETE /api/mission/tasks/{id}", s.handleTaskRemove)
	mux.HandleFunc("POST /api/mission/tasks/{id}/move", s.handleTaskMove)
	mux.HandleFunc("POST /api/mission/tasks/{id}/comments", s.handleTaskComment)
	mux.HandleFunc("POST /api/mission/tasks/{id}/events", s.handleTaskEvent)
	mux.HandleFunc("POST /api/mission/agents/{agentId}/messages", s.handleMessageSend)
	mux.HandleFunc("POST /api/mission/agents/{agentId}/read", s.handleThreadRead)
	mux.HandleFunc("PUT /api/mission/agents/{agentId}/runtime", s.handleRuntimeUpdate)
	mux.HandleFunc("GET /api/mission/agents", s.handleAgents)
	mux.HandleFunc("GET /api/mission/unread", s.handleUnread)
	mux.HandleFunc("GET /api/mission/digest", s.handleDigest)
	mux.HandleFunc("GET /api/mission/digests", s.handleDigestDays)

	// Status gateway and knowledge base
	mux.HandleFunc("GET /api/gateway", s.handleGateway)
	mux.HandleFunc("GET /api/knowledge", s.handleKnowledge)

	// Backup
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	// Change stream
	mux.HandleFunc("GET /api/stream", s.handleStream)

	return s.withLogging(mux)
}

// Start begins serving HTTP requests. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: /api/stream holds connections open.
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack passes through to the underlying writer so /api/stream can
// upgrade.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if r.Method == http.MethodGet {
			level = slog.LevelDebug
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    code,
		},
	}, s.logger)
}

func (s *Server) ok(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	if code != http.StatusOK {
		w.WriteHeader(code)
	}
	writeJSON(w, v, s.logger)
}

// decode reads a JSON request body into v. An empty body leaves v
// untouched.
func decode(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.ok(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.RuntimeInfo()
	info["uptime"] = buildinfo.Uptime().String()
	s.ok(w, http.StatusOK, info)
}
