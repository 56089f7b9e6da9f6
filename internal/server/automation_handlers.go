package server

import (
	"errors"
	"net/http"
	"strings"

	"autoblog/internal/automation"
	"autoblog/internal/core"
)

// RunNowRequest is the optional body of POST /api/automation/run-now
type RunNowRequest struct {
	Topic    string `json:"topic,omitempty"`
	Category string `json:"category,omitempty"`
}

// handleAutomationStart handles POST /api/automation/start
func (s *Server) handleAutomationStart(w http.ResponseWriter, r *http.Request) {
	svc := s.deps.Service
	if svc == nil {
		s.unavailable(w, "Automation")
		return
	}

	err := svc.Start(r.Context())
	switch {
	case errors.Is(err, automation.ErrSchedulerRunning):
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "Automation already running",
		})
	case err != nil:
		s.log.Error("Failed to start automation", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to start automation")
	default:
		s.respondJSON(w, http.StatusOK, map[string]interface{}{
			"status": "Automation started",
			"config": svc.Settings(),
		})
	}
}

// handleAutomationStop handles POST /api/automation/stop
func (s *Server) handleAutomationStop(w http.ResponseWriter, r *http.Request) {
	svc := s.deps.Service
	if svc == nil {
		s.unavailable(w, "Automation")
		return
	}

	if err := svc.Stop(); errors.Is(err, automation.ErrSchedulerStopped) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "Automation is not running"})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "Automation stop signal sent"})
}

// handleAutomationStatus handles GET /api/automation/status
func (s *Server) handleAutomationStatus(w http.ResponseWriter, r *http.Request) {
	if s.deps.Service == nil {
		s.unavailable(w, "Automation")
		return
	}
	s.respondJSON(w, http.StatusOK, s.deps.Service.Status(queryInt(r, "recent", 0)))
}

// handleRunNow handles POST /api/automation/run-now
func (s *Server) handleRunNow(w http.ResponseWriter, r *http.Request) {
	svc := s.deps.Service
	if svc == nil {
		s.unavailable(w, "Automation")
		return
	}

	var req RunNowRequest
	if !s.decodeJSON(w, r, &req, true) {
		return
	}

	var topic *core.Topic
	if text := strings.TrimSpace(req.Topic); text != "" {
		topic = &core.Topic{Source: "manual", Text: text, Category: req.Category}
	}

	entry, err := svc.RunNow(r.Context(), topic)
	if errors.Is(err, core.ErrRunInProgress) {
		s.respondError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.log.Error("Run failed to start", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to run automation")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{"result": entry})
}

// handleGetConfig handles GET /api/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if s.deps.Service == nil {
		s.unavailable(w, "Automation")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"automation": s.deps.Service.Settings(),
	})
}

// ConfigUpdateRequest is the body of POST /api/config
type ConfigUpdateRequest struct {
	Automation *automation.SettingsPatch `json:"automation"`
}

// handleUpdateConfig handles POST /api/config
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	svc := s.deps.Service
	if svc == nil {
		s.unavailable(w, "Automation")
		return
	}

	var req ConfigUpdateRequest
	if !s.decodeJSON(w, r, &req, false) {
		return
	}
	if req.Automation == nil {
		s.respondError(w, http.StatusBadRequest, "automation settings are required")
		return
	}

	settings, err := svc.UpdateSettings(*req.Automation)
	if errors.Is(err, automation.ErrInvalidSettings) {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("Failed to update settings", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to update configuration")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "Configuration updated successfully",
		"automation": settings,
	})
}
