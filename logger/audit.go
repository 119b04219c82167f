// ABOUTME: Append-only audit trail for auth-affecting operations.
// ABOUTME: Emits one JSON line per entry; never carries passwords or token values.

package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// AuditService is the service name stamped on every audit entry.
const AuditService = "frontend-auth"

// Audit outcome values.
const (
	StatusInitiated = "initiated"
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusPartial   = "partial"
	StatusError     = "error"
)

// AuditEntry carries the fields of one audit record. Zero values are omitted.
type AuditEntry struct {
	RequestID       string
	ClientIP        string
	Status          string
	Reason          string
	Email           string
	BackendStatus   int
	ErrorType       string
	HasToken        *bool
	BackendNotified *bool
}

// Auditor writes audit entries synchronously.
type Auditor struct {
	logger *slog.Logger
}

// NewAuditor returns an Auditor writing JSON lines to w (stdout when nil).
func NewAuditor(w io.Writer) *Auditor {
	if w == nil {
		w = os.Stdout
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return a
			}
			switch a.Key {
			case slog.TimeKey:
				return slog.String("timestamp", a.Value.Time().UTC().Format(time.RFC3339Nano))
			case slog.LevelKey:
				return slog.Attr{}
			case slog.MessageKey:
				return slog.String("event", a.Value.String())
			}
			return a
		},
	})
	return &Auditor{logger: slog.New(handler).With("service", AuditService)}
}

// Log records event with the given entry.
func (a *Auditor) Log(ctx context.Context, event string, e AuditEntry) {
	attrs := make([]slog.Attr, 0, 9)
	attrs = appendString(attrs, "requestId", e.RequestID)
	attrs = appendString(attrs, "clientIp", e.ClientIP)
	attrs = appendString(attrs, "email", e.Email)
	attrs = appendString(attrs, "status", e.Status)
	attrs = appendString(attrs, "reason", e.Reason)
	if e.BackendStatus != 0 {
		attrs = append(attrs, slog.Int("backendStatus", e.BackendStatus))
	}
	attrs = appendString(attrs, "errorType", e.ErrorType)
	if e.HasToken != nil {
		attrs = append(attrs, slog.Bool("hasToken", *e.HasToken))
	}
	if e.BackendNotified != nil {
		attrs = append(attrs, slog.Bool("backendNotified", *e.BackendNotified))
	}
	a.logger.LogAttrs(ctx, slog.LevelInfo, event, attrs...)
}

func appendString(attrs []slog.Attr, key, value string) []slog.Attr {
	if value == "" {
		return attrs
	}
	return append(attrs, slog.String(key, value))
}

// Bool returns a pointer to b, for the optional boolean entry fields.
func Bool(b bool) *bool {
	return &b
}
