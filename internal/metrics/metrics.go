package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "point_requests_created_total",
			Help: "Total point requests created",
		},
	)
	RequestsResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "point_requests_resolved_total",
			Help: "Total point requests resolved",
		},
		[]string{"outcome"}, // accepted|declined
	)
	PointsTransferred = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_transferred_total",
			Help: "Total points moved by accepted requests",
		},
	)
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsCreated)
	prometheus.MustRegister(RequestsResolved)
	prometheus.MustRegister(PointsTransferred)
	prometheus.MustRegister(WorkerQueueDepth)
}
