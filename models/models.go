// ABOUTME: Shared response shapes for the front-end server and backend API
// ABOUTME: Client-visible errors always use the {"detail": string} shape

package models

import "encoding/json"

// ErrorResponse is the only error shape returned to the browser.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// SuccessResponse is returned by the auth routes that carry no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// MessageResponse is the backend's acknowledgement for deletes and uploads.
type MessageResponse struct {
	Message string `json:"message"`
}

// Page is the backend's paginated list envelope.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Pages    int `json:"pages"`
}

// HealthResponse mirrors the backend health endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Version  string `json:"version"`
}

// DetailedHealthResponse adds dependency latencies.
type DetailedHealthResponse struct {
	HealthResponse
	DatabaseLatencyMS *float64 `json:"database_latency_ms"`
	RedisLatencyMS    *float64 `json:"redis_latency_ms"`
}

// BackendFailure is the failure variant of a backend call.
// Detail holds the backend "detail" field only when it was a string.
type BackendFailure struct {
	Status    int
	Detail    string
	HasDetail bool
	ErrorCode string
	Raw       json.RawMessage
}

// DetailOr returns the backend detail when it was a string, else fallback.
func (f *BackendFailure) DetailOr(fallback string) string {
	if f.HasDetail {
		return f.Detail
	}
	return fallback
}

// BackendResult is a tagged result decoded once at the gateway boundary:
// exactly one of Value (Failure == nil) or Failure is meaningful.
type BackendResult[T any] struct {
	Status  int
	Value   T
	Failure *BackendFailure
}

// OK reports whether the backend answered with a 2xx status.
func (r *BackendResult[T]) OK() bool {
	return r.Failure == nil
}

// ServiceHealth is the web server's own health report.
// Backend is nil when the backend could not be queried.
type ServiceHealth struct {
	Status       string          `json:"status"`
	Service      string          `json:"service"`
	Backend      *HealthResponse `json:"backend"`
	BackendError string          `json:"backend_error,omitempty"`
}
