// File path: internal/api/data_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/floatchat/floatchat/internal/common"
	"github.com/floatchat/floatchat/internal/gateway"
)

func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req dataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("api: data decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("query required"))
		return
	}
	mode := parseMode(req.Mode, "developer")
	limit := req.Limit
	if limit <= 0 || limit > s.cfg.DataMaxRows {
		limit = s.cfg.DataMaxRows
	}
	timeout := s.cfg.Timeout
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}
	logger.Info("api: data request received", "query_length", len(req.Query), "limit", limit, "mode", mode)

	out := s.gw.Run(r.Context(), gateway.Request{
		RawSQL:  req.Query,
		Mode:    mode,
		Limit:   limit,
		Timeout: timeout,
		Worker:  s.worker(),
	})
	writeJSON(w, http.StatusOK, chatResponse(out))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.argo == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("summary unavailable"))
		return
	}
	row, err := s.argo.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("summary query: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"summary": row})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("history unavailable"))
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = parsed
	}
	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("history query: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
