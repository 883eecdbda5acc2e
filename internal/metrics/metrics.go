package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WSConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections",
		Help: "Current number of authenticated websocket connections",
	})
	ActiveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_active_subscriptions",
		Help: "Current number of event bus subscribers across all topics",
	})
	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_published_total",
		Help: "Events published on the event bus",
	}, []string{"kind"})
	EventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_events_dropped_total",
		Help: "Deliveries dropped because a subscriber buffer was full",
	}, []string{"kind"})
	PresenceEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chat_presence_entries",
		Help: "Users currently live across all chatrooms",
	})
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WSConnections,
		ActiveSubscriptions,
		EventsPublished,
		EventsDropped,
		PresenceEntries,
		HTTPRequestsTotal,
		HTTPRequestDuration,
	)
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one finished HTTP request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func ObserveRequest(method string, path string, status int, elapsed time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	HTTPRequestsTotal.With(labels).Inc()
	HTTPRequestDuration.With(labels).Observe(elapsed.Seconds())
}
