// ABOUTME: Upstream failure taxonomy for calls to the backend API
// ABOUTME: Handlers map these to 503/502 responses and audit reason codes

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUpstreamTimeout means the backend did not answer within the deadline.
	ErrUpstreamTimeout = errors.New("backend request timed out")
	// ErrUpstreamUnreachable means the backend could not be reached at all.
	ErrUpstreamUnreachable = errors.New("backend unreachable")
	// ErrUpstreamMalformed means the backend answered with something other than JSON.
	ErrUpstreamMalformed = errors.New("backend returned malformed response")
	// ErrUpstreamTooLarge means a forwarded answer exceeded the relay limit.
	ErrUpstreamTooLarge = errors.New("backend response too large")
)

// MalformedResponseError carries the status of a non-JSON backend answer.
type MalformedResponseError struct {
	Status int
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s (status %d)", ErrUpstreamMalformed, e.Status)
}

func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrUpstreamMalformed
}

// classifyTransportError maps an http.Client error to the upstream taxonomy.
func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnreachable, err)
}

// ReasonCode returns the audit reason for an upstream error.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstreamMalformed):
		return "invalid_backend_response"
	case errors.Is(err, ErrUpstreamUnreachable):
		return "network_error"
	case errors.Is(err, ErrUpstreamTooLarge):
		return "response_too_large"
	default:
		return "internal_error"
	}
}
