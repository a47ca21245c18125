package api

import (
	"github.com/drafthaus/drawbridge/internal/cad"
	"github.com/drafthaus/drawbridge/internal/history"
)

// CallRequest is the body of POST /tool/{tool}/{operation}.
type CallRequest struct {
	// Data carries the operation parameters as a flat JSON object.
	Data cad.Params `json:"data,omitempty"`
	// IncludeScreenshot asks for a viewport capture alongside a successful
	// result, when the backend can take one.
	IncludeScreenshot bool `json:"include_screenshot,omitempty"`
}

// CallResponse is the envelope for a tool call outcome. Drawing-side
// failures still return HTTP 200 with OK false; non-200 statuses are
// reserved for transport and auth problems.
type CallResponse struct {
	OK         bool   `json:"ok"`
	Payload    any    `json:"payload,omitempty"`
	Error      string `json:"error,omitempty"`
	Hint       string `json:"hint,omitempty"`
	Screenshot any    `json:"screenshot,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

// HealthzResponse is returned by GET /healthz (no auth).
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Backend       string `json:"backend,omitempty"`
	SessionState  string `json:"session_state,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	Backend       string           `json:"backend"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Capabilities  cad.Capabilities `json:"capabilities"`
	Session       any              `json:"session,omitempty"`
}

// HistoryResponse is returned by GET /history.
type HistoryResponse struct {
	Entries []history.Entry `json:"entries"`
	Count   int             `json:"count"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
