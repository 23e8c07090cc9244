// Package router assembles the chi router: middleware stack, student
// routes, health check and Prometheus endpoint.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/http/handlers/health"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────────────────────────────────────
// New returns the application's HTTP handler.
//
// Route table:
//
//	GET    /api/students        → list / search students
//	POST   /api/students        → create a student
//	GET    /api/students/{id}   → get one student
//	PUT    /api/students/{id}   → update a student (partial)
//	DELETE /api/students/{id}   → delete a student
//	GET    /healthz             → storage driver and degraded flag
//	GET    /metrics             → Prometheus exposition
//
// Every /api/students request first merges the x-client-data header, if
// any, into the store.
// ─────────────────────────────────────────────────────────────────────────────
func New(cfg config.HTTPServer, svc student.Service, rep health.Reporter, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg))

	r.Get("/healthz", health.New(rep))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/students", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg))
		r.Use(student.ClientSync(svc, log))

		r.Get("/", student.GetList(svc, log))
		r.Post("/", student.New(svc, log))
		r.Get("/{id}", student.GetByID(svc, log))
		r.Put("/{id}", student.Update(svc, log))
		r.Delete("/{id}", student.Delete(svc, log))
	})

	return r
}
