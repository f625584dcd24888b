// Package metrics defines the Prometheus collectors for the student
// service: domain counters updated by the service layer and HTTP request
// metrics updated by the middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	StudentsCreated      prometheus.Counter
	StudentsUpdated      prometheus.Counter
	StudentsDeleted      prometheus.Counter
	DuplicateEmails      prometheus.Counter
	HTTPRequests         *prometheus.CounterVec
	HTTPRequestDurations *prometheus.HistogramVec
}

// New creates the metrics and registers them with reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		StudentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "students_created_total",
			Help: "Total number of student records created",
		}),
		StudentsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "students_updated_total",
			Help: "Total number of student records updated",
		}),
		StudentsDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "students_deleted_total",
			Help: "Total number of student records deleted",
		}),
		DuplicateEmails: factory.NewCounter(prometheus.CounterOpts{
			Name: "students_duplicate_email_rejections_total",
			Help: "Total number of writes rejected because the email was taken",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern, method and status code",
		}, []string{"route", "method", "status"}),
		HTTPRequestDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// IncrementStudentsCreated increments the created counter by 1.
// All Increment* methods are safe on a nil *Metrics.
func (m *Metrics) IncrementStudentsCreated() {
	if m != nil {
		m.StudentsCreated.Inc()
	}
}

// IncrementStudentsUpdated increments the updated counter by 1.
func (m *Metrics) IncrementStudentsUpdated() {
	if m != nil {
		m.StudentsUpdated.Inc()
	}
}

// IncrementStudentsDeleted increments the deleted counter by 1.
func (m *Metrics) IncrementStudentsDeleted() {
	if m != nil {
		m.StudentsDeleted.Inc()
	}
}

// IncrementDuplicateEmails counts a create or update rejected because the
// email belongs to another student.
func (m *Metrics) IncrementDuplicateEmails() {
	if m != nil {
		m.DuplicateEmails.Inc()
	}
}
