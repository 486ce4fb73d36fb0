package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the API. Collectors are
// registered on their own registry so several servers can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	dailyRuns      *prometheus.CounterVec
	gamesGenerated prometheus.Counter
	cocktailsSent  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sipocalypse_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sipocalypse_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		dailyRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sipocalypse_daily_runs_total",
			Help: "Daily winner runs by outcome",
		}, []string{"outcome"}),
		gamesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "sipocalypse_games_generated_total",
			Help: "Games returned by the generate-game endpoint",
		}),
		cocktailsSent: f.NewCounter(prometheus.CounterOpts{
			Name: "sipocalypse_cocktails_sent_total",
			Help: "Cocktail recipe emails delivered",
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) dailyRun(outcome string) {
	if m != nil {
		m.dailyRuns.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) gameGenerated() {
	if m != nil {
		m.gamesGenerated.Inc()
	}
}

func (m *Metrics) cocktailSent() {
	if m != nil {
		m.cocktailsSent.Inc()
	}
}
