package middleware

import (
	"net/http"
	"time"
)

// RequestRecorder records one completed request.
type RequestRecorder interface {
	RecordRequest(method string, status int, duration time.Duration)
}

// Metrics records the method, final status and duration of every request.
func Metrics(recorder RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			recorder.RecordRequest(r.Method, wrapped.statusCode, time.Since(start))
		})
	}
}
