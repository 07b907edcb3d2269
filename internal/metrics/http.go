package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP holds the instruments for the API surface.
// A nil *HTTP is valid and records nothing.
type HTTP struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTP registers the API instruments with reg
func NewHTTP(reg prometheus.Registerer) *HTTP {
	f := promauto.With(reg)
	return &HTTP{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jerseyapp_http_requests_total",
			Help: "API requests by route template, method and status",
		}, []string{"route", "method", "status"}),

		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jerseyapp_http_request_duration_seconds",
			Help:    "API request latency by route template",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// ObserveRequest records one served request. route is the mux path
// template, not the raw path, so player ids do not explode cardinality.
func (m *HTTP) ObserveRequest(route, method string, status int, d time.Duration) {
	if m != nil {
		m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
		m.Duration.WithLabelValues(route).Observe(d.Seconds())
	}
}
