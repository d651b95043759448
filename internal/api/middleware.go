package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"

	"github.com/lox/runsafetonight/internal/metrics"
)

type contextKey int

const requestIDKey contextKey = iota

const requestIDHeader = "X-Request-ID"

// RequestIDFrom returns the request ID set by the middleware, if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses an incoming X-Request-ID or assigns a new one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type responseCapture struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.status = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.status = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

func (rc *responseCapture) Unwrap() http.ResponseWriter {
	return rc.ResponseWriter
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				s.logger.Error("panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(rvr),
					"stack", string(debug.Stack()),
				)
				writeError(w, r, fmt.Errorf("panic: %v", rvr))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs and counts each request once the handler returns.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rc := &responseCapture{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rc, r)

		duration := time.Since(start)
		route := routePattern(r)
		metrics.HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rc.status)).Inc()
		metrics.HTTPRequestLatency.WithLabelValues(route).Observe(duration.Seconds())

		level := slog.LevelInfo
		switch {
		case rc.status >= 500:
			level = slog.LevelError
		case rc.status >= 400:
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rc.status,
			"duration", duration,
			"request_id", RequestIDFrom(r.Context()),
		)
	})
}

// routePattern keeps metric labels bounded to registered routes.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// publicHeaders sets the CORS and edge caching headers the site's pages
// rely on and answers pre-flight requests with an empty 200.
func publicHeaders(cacheControl, methods string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", "*")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", "Content-Type")
			h.Set("Cache-Control", cacheControl)
			h.Set("Content-Type", "application/json")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
