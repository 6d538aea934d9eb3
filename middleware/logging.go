package middleware

import (
	"net/http"
	"time"

	"afusocial/logging"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const slowRequestThreshold = 2 * time.Second

// LoggingMiddleware tags each request with a trace id and logs it once it
// completes.
func LoggingMiddleware(logger logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = logging.NewTraceID()
			}

			ctx := logging.WithTraceID(r.Context(), traceID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Trace-ID", traceID)

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			entry := logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapped.statusCode,
				"duration_ms": duration.Milliseconds(),
				"trace_id":    traceID,
			})

			switch {
			case wrapped.statusCode >= http.StatusInternalServerError:
				entry.Error("request failed")
			case duration > slowRequestThreshold:
				entry.Warn("slow request")
			default:
				entry.Info("request completed")
			}
		})
	}
}
