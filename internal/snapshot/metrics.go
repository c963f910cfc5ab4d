package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_dashboard_refresh_total",
		Help: "Snapshot refreshes by result",
	}, []string{"trigger", "result"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trend_dashboard_refresh_duration_seconds",
		Help:    "Duration of upstream fetches",
		Buckets: prometheus.DefBuckets,
	})

	snapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trend_dashboard_snapshot_records",
		Help: "Number of normalized records in the committed snapshot",
	})

	snapshotVersion = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trend_dashboard_snapshot_version",
		Help: "Version of the committed snapshot",
	})

	viewCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_dashboard_view_cache_total",
		Help: "View cache lookups by outcome",
	}, []string{"outcome"})
)

const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"

	outcomeHit  = "hit"
	outcomeMiss = "miss"
)
