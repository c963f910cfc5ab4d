package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_notifications_received_total",
		Help: "Change notifications received per LISTEN channel",
	}, []string{"channel"})

	UpstreamRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trend_upstream_request_duration_seconds",
		Help:    "Duration of upstream trend fetches",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"source"})

	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_upstream_requests_total",
		Help: "Upstream trend fetches by source and status",
	}, []string{"source", "status"})

	UpstreamRowsFetched = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trend_upstream_rows_fetched",
		Help: "Rows returned by the last successful upstream fetch",
	}, []string{"source"})

	ReadinessFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trend_readiness_failures_total",
		Help: "Failed readiness checks",
	})
)

// Upstream status labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// ObserveUpstream records one upstream fetch that started at start.
func ObserveUpstream(source string, start time.Time, rows int, err error) {
	UpstreamRequestDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	if err != nil {
		UpstreamRequests.WithLabelValues(source, StatusError).Inc()
		return
	}

	UpstreamRequests.WithLabelValues(source, StatusOK).Inc()
	UpstreamRowsFetched.WithLabelValues(source).Set(float64(rows))
}
