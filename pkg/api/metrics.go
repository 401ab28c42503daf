package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	events        *prometheus.CounterVec
	matchesSaved  *prometheus.CounterVec
	droppedFrames prometheus.Counter
	subscribers   prometheus.GaugeFunc
}

// NewMetrics registers the collectors. subscribers reports the number of
// live scoreboard subscribers.
func NewMetrics(subscribers func() int) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuescore",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code.",
		}, []string{"route", "code"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuescore",
			Name:      "scoreboard_actions_total",
			Help:      "Scoreboard actions applied to the live match.",
		}, []string{"action"}),
		matchesSaved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuescore",
			Name:      "matches_saved_total",
			Help:      "Finished matches appended to history.",
		}, []string{"game"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuescore",
			Name:      "dropped_frames_total",
			Help:      "Live frames dropped for slow subscribers.",
		}),
	}
	m.subscribers = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "cuescore",
		Name:      "live_subscribers",
		Help:      "Connected live scoreboard subscribers.",
	}, func() float64 { return float64(subscribers()) })

	m.registry.MustRegister(
		m.requests, m.events, m.matchesSaved, m.droppedFrames, m.subscribers,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeAction(action string) {
	m.events.WithLabelValues(action).Inc()
}

func (m *Metrics) observeSave(game string) {
	m.matchesSaved.WithLabelValues(game).Inc()
}
