// Package middleware holds the chi middleware stack wrapped around every
// route: access logging, Prometheus instrumentation, CORS, and per-IP
// rate limiting.
package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// ClientDataHeader carries the client's cached student list.
const ClientDataHeader = "x-client-data"

// ─────────────────────────────────────────────────────────────────────────────
// Logger writes one structured line per request once the handler has
// finished, so the status code and duration are known.
//
//	level=INFO msg="http request" method=GET path=/api/students status=200
//	  bytes=512 duration=1.2ms request_id=host/abc-000001
//
// ─────────────────────────────────────────────────────────────────────────────
func Logger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				log.Info("http request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("request_id", chimiddleware.GetReqID(r.Context())),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Metrics records request counts and latencies labelled by the matched
// route pattern ("/api/students/{id}"), never the raw path, so ids do
// not explode the label cardinality.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// CORS allows the configured browser origins to call the API, including
// the custom sync header.
func CORS(cfg config.HTTPServer) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", ClientDataHeader, chimiddleware.RequestIDHeader},
		ExposedHeaders: []string{chimiddleware.RequestIDHeader},
		MaxAge:         86400,
	})
}

// RateLimit limits each client IP to cfg.RateLimit requests per minute,
// or does nothing when rate limiting is disabled.
func RateLimit(cfg config.HTTPServer) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(cfg.RateLimit, time.Minute)
}
