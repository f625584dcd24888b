package main

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/student-management/internal/http/handlers/student"
	"github.com/aanand-mishra/student-management/internal/http/handlers/web"
	"github.com/aanand-mishra/student-management/internal/http/middleware"
	"github.com/aanand-mishra/student-management/internal/metrics"
	"github.com/aanand-mishra/student-management/internal/service"
	"github.com/aanand-mishra/student-management/internal/types"
	"github.com/aanand-mishra/student-management/internal/utils/response"
)

// newRouter registers every route and wraps the mux in the middleware
// chain.
//
//	GET    /                    → HTML list + entry form
//	GET    /students            → HTML list + entry form
//	POST   /students            → HTML form submission
//	GET    /students/{id}/edit  → HTML list + pre-filled edit form
//	POST   /students/{id}       → HTML edit form submission
//	POST   /students/{id}/delete → HTML per-row delete
//	GET    /api/students        → list all students
//	GET    /api/students/{id}   → get one student by ID
//	POST   /api/students        → create a new student
//	PUT    /api/students/{id}   → replace a student
//	DELETE /api/students/{id}   → delete a student
//	GET    /healthz             → liveness
//	GET    /metrics             → Prometheus exposition
func newRouter(svc *service.StudentService, v *types.Validator, m *metrics.Metrics, gatherer prometheus.Gatherer, log *slog.Logger) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", web.List(svc))
	router.HandleFunc("GET /students", web.List(svc))
	router.HandleFunc("POST /students", web.Create(svc, v))
	router.HandleFunc("GET /students/{id}/edit", web.Edit(svc))
	router.HandleFunc("POST /students/{id}", web.Update(svc, v))
	router.HandleFunc("POST /students/{id}/delete", web.Delete(svc))

	router.HandleFunc("POST /api/students", student.New(svc, v))
	router.HandleFunc("GET /api/students", student.GetList(svc))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(svc))
	router.HandleFunc("PUT /api/students/{id}", student.Update(svc, v))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(svc))

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = response.WriteJSON(w, http.StatusOK, response.OK())
	})
	router.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return middleware.Chain(middleware.Metrics(m)(router),
		middleware.RequestID,
		middleware.Logger(log),
	)
}
