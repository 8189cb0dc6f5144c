// Package metrics holds the prometheus collectors and the chi middleware
// that feeds the HTTP ones.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RecordsWritten  *prometheus.CounterVec
	RecordsDeleted  *prometheus.CounterVec
	Grades          *prometheus.CounterVec
	StoreErrors     *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
}

// New registers every collector on a private registry so tests can build
// as many instances as they like.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests"},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		),
		RecordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "practice_records_written_total", Help: "Answer records appended, by intent"},
			[]string{"intent"},
		),
		RecordsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "practice_records_deleted_total", Help: "Answer records removed, by operation"},
			[]string{"op"},
		),
		Grades: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "practice_grades_total", Help: "Graded answers by question type and outcome"},
			[]string{"type", "correct"},
		),
		StoreErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "practice_store_errors_total", Help: "Record store failures by kind"},
			[]string{"kind"},
		),
		ActiveSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "practice_active_sessions", Help: "Practice sessions held in memory"},
		),
	}
	m.reg.MustRegister(
		m.RequestCounter, m.RequestDuration, m.RecordsWritten, m.RecordsDeleted,
		m.Grades, m.StoreErrors, m.ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Middleware records count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
