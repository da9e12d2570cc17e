package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/synthesis"
)

// maxRequestBodySize limits POST body sizes to prevent DoS.
const maxRequestBodySize = 1 << 20 // 1 MB

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	// Prompt is the free-text project description.
	Prompt string `json:"prompt"`
}

// ErrorResponse wraps an actionable error message.
type ErrorResponse struct {
	Error synthesis.Message `json:"error"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ----------------------------------------------------------------------------
// POST /api/generate
// ----------------------------------------------------------------------------

// handleGenerate turns a project description into a project name,
// description and granular answers. It never touches a session.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: synthesis.Message{
			Title:       "Invalid request",
			Explanation: "The request body is not valid JSON.",
			Suggestions: []string{`Send {"prompt": "..."} with Content-Type application/json`},
		}})
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: synthesis.Message{
			Title:       "Missing prompt",
			Explanation: "Describe the project in a sentence or two.",
		}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout)
	defer cancel()

	result, err := synthesis.GenerateFromPrompt(ctx, s.completer, req.Prompt)
	if err != nil {
		status := statusFor(err)
		s.logger.Warn("Generate failed", "status", status, "error", err)
		writeJSON(w, status, ErrorResponse{Error: synthesis.UserMessage(err)})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// statusFor maps a generate failure to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, synthesis.ErrUnparseable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		// Client went away; nobody will read this.
		return 499
	}

	var le *llm.Error
	if errors.As(err, &le) {
		switch le.Kind {
		case llm.KindRateLimit:
			return http.StatusTooManyRequests
		case llm.KindNetwork:
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// ----------------------------------------------------------------------------
// GET /healthz
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// writeJSON marshals v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Response is already partially written on failure; nothing to report.
	_ = json.NewEncoder(w).Encode(v)
}
