package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging writes one line per request, at warn for 4xx and error for 5xx.
func Logging(fallback *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			latency := time.Since(start)
			fields := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("uri", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("latency", latency),
				slog.String("remote_ip", r.RemoteAddr),
			}
			if r.URL.RawQuery != "" {
				fields = append(fields, slog.String("query", r.URL.RawQuery))
			}

			level := slog.LevelInfo
			if rec.status >= 400 {
				level = slog.LevelWarn
			}
			if rec.status >= 500 {
				level = slog.LevelError
			}
			LoggerFrom(r.Context(), fallback).LogAttrs(r.Context(), level, "HTTP Request", fields...)
		})
	}
}
