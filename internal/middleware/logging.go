package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter captures the status code and, at debug level, the body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// LoggingMiddleware logs every request. 4xx responses are logged at WARN and
// 5xx at ERROR. At DEBUG, JSON request and response bodies are included;
// uploads are never buffered.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		var requestBody []byte
		if debug && r.Body != nil && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if debug {
			wrapped.body = &bytes.Buffer{}
		}

		attrs := []any{
			"remote_ip", ClientIP(r),
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
		}
		if debug {
			debugAttrs := attrs
			if len(r.URL.Query()) > 0 {
				debugAttrs = append(debugAttrs, "query_params", r.URL.Query())
			}
			if len(requestBody) > 0 {
				debugAttrs = append(debugAttrs, "request_body", string(requestBody))
			}
			slog.Debug("Incoming request", debugAttrs...)
		}

		next.ServeHTTP(wrapped, r)

		level := slog.LevelInfo
		message := "Request completed"
		switch {
		case wrapped.statusCode >= 500:
			level = slog.LevelError
			message = "Request failed with error"
		case wrapped.statusCode >= 400:
			level = slog.LevelWarn
			message = "Request failed"
		}

		attrs = append(attrs, "status", wrapped.statusCode, "duration_ms", time.Since(start).Milliseconds())
		if debug && wrapped.body.Len() > 0 && strings.HasPrefix(wrapped.Header().Get("Content-Type"), "application/json") {
			attrs = append(attrs, "response_body", wrapped.body.String())
		}

		slog.Log(r.Context(), level, message, attrs...)
	})
}
