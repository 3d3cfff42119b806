// File path: internal/api/server.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/floatchat/floatchat/internal/argo"
	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/gateway"
	"github.com/floatchat/floatchat/internal/history"
	"github.com/floatchat/floatchat/internal/rag"
)

// Config controls the API server's execution bounds.
type Config struct {
	// WorkerSlots is the number of worker identities requests rotate
	// through; it bounds how many database sessions the cache can grow.
	WorkerSlots int
	// ChatMaxRows bounds results for chat-originated statements.
	ChatMaxRows int
	// DataMaxRows bounds results for the raw data endpoint.
	DataMaxRows int
	// Timeout is the per-statement execution timeout.
	Timeout time.Duration
}

// DefaultConfig returns the standard configuration used when no overrides
// are provided.
func DefaultConfig() Config {
	return Config{
		WorkerSlots: 8,
		ChatMaxRows: 200,
		DataMaxRows: 500,
		Timeout:     15 * time.Second,
	}
}

// Merge overlays positive fields from the override onto the base
// configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if override.WorkerSlots > 0 {
		result.WorkerSlots = override.WorkerSlots
	}
	if override.ChatMaxRows > 0 {
		result.ChatMaxRows = override.ChatMaxRows
	}
	if override.DataMaxRows > 0 {
		result.DataMaxRows = override.DataMaxRows
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	return result
}

type Server struct {
	router   chi.Router
	pipeline *rag.Pipeline
	gw       *gateway.Gateway
	argo     *argo.Service
	history  *history.Store
	cfg      Config

	workerSeq atomic.Uint64
}

// NewServer wires the HTTP surface. The history store may be nil, in which
// case the history endpoint reports unavailability.
func NewServer(pipeline *rag.Pipeline, gw *gateway.Gateway, argoSvc *argo.Service, historyStore *history.Store, cfg *Config) (*Server, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway required")
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	srv := &Server{
		router:   chi.NewRouter(),
		pipeline: pipeline,
		gw:       gw,
		argo:     argoSvc,
		history:  historyStore,
		cfg:      configuration,
	}
	srv.routes()
	common.Logger().Info("api: server ready", "worker_slots", configuration.WorkerSlots)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// worker returns the identity keying connection reuse for one request.
// Requests rotate through a fixed set of slots so the connection cache
// stays bounded while still reusing sessions across requests.
func (s *Server) worker() string {
	return fmt.Sprintf("api-%d", s.workerSeq.Add(1)%uint64(s.cfg.WorkerSlots))
}

func (s *Server) routes() {
	logger := common.Logger()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := uuid.NewString()
			next.ServeHTTP(w, r)
			logger.Debug("request", "id", requestID, "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Post("/v1/chat", s.handleChat)
	s.router.Post("/v1/data", s.handleData)
	s.router.Get("/v1/summary", s.handleSummary)
	s.router.Get("/v1/history", s.handleHistory)
	s.router.Get("/v1/logs", s.handleLogs)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": common.LogEntries()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
