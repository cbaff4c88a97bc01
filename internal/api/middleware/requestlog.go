package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Outcome buckets a response status for logs.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// RequestLogger logs one line per request with status, size, duration, the
// chi request id, and the authenticated client when there is one. 5xx
// responses log at error level, 4xx at warn.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			entry := &logEntry{}
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), logEntryKey{}, entry)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"outcome", string(OutcomeFromStatus(status)),
			}
			if id := chimw.GetReqID(r.Context()); id != "" {
				attrs = append(attrs, "request_id", id)
			}
			if entry.clientID != "" {
				attrs = append(attrs, "client_id", entry.clientID)
			}
			logger.Log(r.Context(), levelFor(status), "http request", attrs...)
		})
	}
}

// logEntry collects request attributes set further down the chain, where
// the context RequestLogger sees has already been replaced.
type logEntry struct {
	clientID string
}

type logEntryKey struct{}

// noteClient records the authenticated client on the enclosing log entry.
func noteClient(ctx context.Context, clientID string) {
	if e, ok := ctx.Value(logEntryKey{}).(*logEntry); ok {
		e.clientID = clientID
	}
}

// OutcomeFromStatus classifies an HTTP status.
func OutcomeFromStatus(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeSuccess
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return OutcomeDenied
	default:
		return OutcomeError
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}
