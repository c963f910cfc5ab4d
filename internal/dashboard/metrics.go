package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_dashboard_requests_total",
		Help: "Total number of dashboard requests",
	}, []string{"route", "status"})

	latencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trend_dashboard_latency_seconds",
		Help:    "Latency of dashboard requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	resultSizeGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trend_dashboard_result_size",
		Help: "Number of records in the last response per route",
	}, []string{"route"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_dashboard_logins_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trend_dashboard_exports_total",
		Help: "Export downloads by scope kind and format",
	}, []string{"scope", "format"})
)
