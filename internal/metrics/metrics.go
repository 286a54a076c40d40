// Package metrics exposes Prometheus HTTP and game metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	gamesCreated   *prometheus.CounterVec
	gamesCompleted *prometheus.CounterVec
	gamesSaved     prometheus.Counter
	movesSaved     prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests"},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"method", "endpoint"},
		),
		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "http_requests_in_flight", Help: "Current in-flight requests"},
		),
		gamesCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gotimer_games_created_total", Help: "Games started, by session kind"},
			[]string{"kind"},
		),
		gamesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "gotimer_games_completed_total", Help: "Games completed, by winner"},
			[]string{"winner"},
		),
		gamesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "gotimer_games_saved_total", Help: "Games saved by registered users"},
		),
		movesSaved: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "gotimer_moves_saved_total", Help: "Move records stored"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal, m.httpRequestDuration, m.httpRequestsInFlight,
		m.gamesCreated, m.gamesCompleted, m.gamesSaved, m.movesSaved,
	)
	return m
}

// Middleware records request count, latency and in-flight requests. The
// endpoint label is the matched route pattern, so game ids do not explode
// the label set.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.httpRequestsInFlight.Inc()
		defer m.httpRequestsInFlight.Dec()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) GameCreated(guest bool) {
	kind := "registered"
	if guest {
		kind = "guest"
	}
	m.gamesCreated.WithLabelValues(kind).Inc()
}

// GameCompleted counts a completion. An empty winner is a draw.
func (m *Metrics) GameCompleted(winner string) {
	if winner == "" {
		winner = "draw"
	}
	m.gamesCompleted.WithLabelValues(winner).Inc()
}

func (m *Metrics) GameSaved() { m.gamesSaved.Inc() }

func (m *Metrics) MoveSaved() { m.movesSaved.Inc() }
