package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const maxBodyBytes = 4 << 20 // Posts with inline images can be large

// HealthResponse is the /health payload
type HealthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks"`
}

var serverStartTime = time.Now()

// handleHealth handles the /health endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"generator": availability(s.deps.Service != nil),
		"publisher": availability(s.deps.Publisher != nil),
		"images":    availability(s.deps.Images != nil),
		"affiliate": availability(s.deps.Catalog != nil),
	}
	if s.deps.Service != nil {
		checks["scheduler"] = "stopped"
		if s.deps.Service.Running() {
			checks["scheduler"] = "running"
		}
	}

	s.respondJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(serverStartTime).Round(time.Second).String(),
		Checks: checks,
	})
}

func availability(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

// decodeJSON reads a JSON request body into v. An empty body is allowed
// when optional is set.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return true
		}
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// queryInt parses an integer query parameter, returning def when absent or invalid.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryList splits a comma separated query parameter.
func queryList(r *http.Request, name string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError writes an error envelope
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"status":  status,
			"message": message,
		},
	})
}

// unavailable reports a collaborator that was not configured at startup
func (s *Server) unavailable(w http.ResponseWriter, what string) {
	s.respondError(w, http.StatusServiceUnavailable, what+" is not configured")
}
