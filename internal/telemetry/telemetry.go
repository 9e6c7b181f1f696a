// Package telemetry содержит Prometheus метрики портала и middleware для HTTP.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry хранит коллекторы приложения.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	// MetricsUploaded количество успешно созданных метрик.
	MetricsUploaded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_metrics_uploaded_total",
		Help: "Total number of metrics uploaded by users.",
	})

	// RegistrationsReviewed решения администратора по заявкам.
	RegistrationsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_registrations_reviewed_total",
			Help: "Total number of registration decisions.",
		},
		[]string{"action"},
	)

	// NotificationsFailed письма, не доставленные отдельным адресатам.
	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_notifications_failed_total",
			Help: "Total number of notification emails that could not be sent.",
		},
		[]string{"event"},
	)

	// UploadsSwept количество удалённых незавершённых загрузок.
	UploadsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_uploads_swept_total",
		Help: "Total number of stale pending uploads removed by the janitor.",
	})
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		MetricsUploaded,
		RegistrationsReviewed,
		NotificationsFailed,
		UploadsSwept,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler отдаёт метрики в формате Prometheus.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler считает запросы и их длительность по шаблону маршрута chi.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// routePattern возвращает шаблон маршрута, чтобы идентификаторы не раздували число меток.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
