package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/drafthaus/drawbridge/internal/auth"
	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/events"
	"github.com/drafthaus/drawbridge/internal/fileipc"
	"github.com/drafthaus/drawbridge/internal/history"
	"github.com/drafthaus/drawbridge/internal/tools"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if b := s.provider.Current(); b != nil {
		resp.Backend = b.Name()
		resp.SessionState = backendState(b)
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleToolCall handles POST /tool/{tool}/{operation}.
func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	tool := chi.URLParam(r, "tool")
	operation := chi.URLParam(r, "operation")

	// Write operations need draw:rw. Unknown operations fall through on the
	// read scope so the executor can report the valid names.
	need := []string{"draw:ro", "draw:rw", "*"}
	if kind, known := s.registry.Kind(tool, operation); known && kind == tools.KindWrite {
		need = []string{"draw:rw", "*"}
	}
	principal, _ := auth.PrincipalFromContext(r.Context())
	if !auth.HasAnyScope(principal, need...) {
		s.writeError(w, http.StatusForbidden, "insufficient scope")
		return
	}

	var req CallRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	b := s.provider.Current()
	if b == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no active backend")
		return
	}

	s.events.Publish(events.TypeCallStarted, map[string]any{
		"tool":      tool,
		"operation": operation,
	})

	start := time.Now()
	res := s.registry.Execute(r.Context(), b, tool, operation, req.Data)
	duration := time.Since(start)

	resp := CallResponse{OK: res.OK, DurationMS: duration.Milliseconds()}
	if res.OK {
		resp.Payload = res.Payload
	} else {
		resp.Error = res.Err
		resp.Hint = cad.Hint(res.Err)
	}

	if req.IncludeScreenshot && res.OK && b.Capabilities().Screenshot {
		if shot := b.Screenshot(r.Context()); shot.OK {
			resp.Screenshot = shot.Payload
		}
	}

	s.journalCall(tool, operation, req.Data, res, duration, b.Name())

	s.events.Publish(events.TypeCallCompleted, map[string]any{
		"tool":        tool,
		"operation":   operation,
		"ok":          res.OK,
		"duration_ms": duration.Milliseconds(),
	})

	respondJSON(w, http.StatusOK, resp)
}

// handleTools handles GET /tools.
func (s *Server) handleTools(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"tools": s.registry.Describe()})
}

// handleStatus handles GET /status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	b := s.provider.Current()
	if b == nil {
		s.writeError(w, http.StatusServiceUnavailable, "no active backend")
		return
	}

	resp := StatusResponse{
		Backend:       b.Name(),
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Capabilities:  b.Capabilities(),
	}
	res := b.Status(r.Context())
	if res.OK {
		resp.Session = res.Payload
	} else {
		resp.Session = map[string]any{"error": res.Err}
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleSystemInit handles POST /system/init. It rebuilds the backend so a
// client can recover after AutoCAD restarts without bouncing the daemon.
func (s *Server) handleSystemInit(w http.ResponseWriter, r *http.Request) {
	_, res := s.provider.Rebuild(r.Context())
	status := http.StatusOK
	if !res.OK {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, res)
}

// handleHistory handles GET /history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		s.writeError(w, http.StatusServiceUnavailable, "history disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.journal.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to read history", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	respondJSON(w, http.StatusOK, HistoryResponse{Entries: entries, Count: len(entries)})
}

// journalCall appends a history entry for one call. Journaling is best
// effort: a full disk or locked database must not fail the call itself.
func (s *Server) journalCall(tool, operation string, data cad.Params, res cad.Result, d time.Duration, backend string) {
	if s.journal == nil {
		return
	}

	command := ""
	if len(data) > 0 {
		if raw, err := json.Marshal(data); err == nil {
			command = string(raw)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.journal.Append(ctx, history.Entry{
		Tool:       tool,
		Operation:  operation,
		Command:    command,
		OK:         res.OK,
		Error:      res.Err,
		DurationMS: d.Milliseconds(),
		Backend:    backend,
	})
	if err != nil {
		s.logger.Warn("history append failed", "tool", tool, "operation", operation, "error", err)
	}
}

// backendState reports the lifecycle state for backends that have one.
func backendState(b cad.Backend) string {
	if sess, ok := b.(*fileipc.Session); ok {
		return sess.State().String()
	}
	return "READY"
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
