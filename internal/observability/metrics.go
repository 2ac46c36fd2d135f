package observability

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks operational metrics for the service. Every instance owns
// its registry so independent servers and tests never collide.
type Metrics struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec

	// Crawl metrics
	CrawlsTotal   *prometheus.CounterVec
	CrawlDuration prometheus.Histogram
	PagesCrawled  prometheus.Counter
	DomainErrors  *prometheus.CounterVec

	// Social proxy metrics
	SocialRequests *prometheus.CounterVec

	// Queue metrics
	QueuePublishes *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance backed by its own registry.
func NewMetrics(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		logger:   logger.With("component", "metrics"),

		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesift_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pagesift_http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		CrawlsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesift_crawls_total",
			Help: "Crawl requests processed, by outcome.",
		}, []string{"outcome"}),
		CrawlDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "pagesift_crawl_duration_seconds",
			Help:    "End to end crawl request duration.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PagesCrawled: factory.NewCounter(prometheus.CounterOpts{
			Name: "pagesift_pages_crawled_total",
			Help: "Pages fetched across all crawls.",
		}),
		DomainErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesift_domain_errors_total",
			Help: "Failed domain crawls, by error kind.",
		}, []string{"kind"}),

		SocialRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesift_social_requests_total",
			Help: "Proxied social API requests, by source and outcome.",
		}, []string{"source", "outcome"}),

		QueuePublishes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pagesift_queue_publishes_total",
			Help: "Crawl results published to the queue, by outcome.",
		}, []string{"outcome"}),
	}
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler exposes the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server.
func (m *Metrics) StartServer(port int, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	addr := fmt.Sprintf(":%d", port)
	m.logger.Info("metrics server starting", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			m.logger.Error("metrics server error", "error", err)
		}
	}()

	return nil
}
