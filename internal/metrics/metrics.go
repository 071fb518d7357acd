package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    Namespace + "_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	EnrollmentOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_enrollment_outcomes_total",
			Help: "Certificate enrollment outcomes by kind",
		},
		[]string{"operation", "outcome"},
	)

	EnrollmentErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_enrollment_errors_total",
			Help: "Enrollment calls that failed before an outcome was reached",
		},
		[]string{"operation"},
	)

	EnrollmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    Namespace + "_enrollment_duration_seconds",
			Help:    "Time spent talking to the enrollment server",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)

	SecretFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: Namespace + "_secret_fetches_total",
			Help: "Credential lookups against the secret store",
		},
		[]string{"result"},
	)

	PendingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: Namespace + "_pending_requests",
			Help: "Certificate requests awaiting CA approval",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    Namespace + "_store_operation_duration_seconds",
			Help:    "Time to complete pending ledger and rate limit store operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"store", "operation"},
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: Namespace + "_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	IsLeader = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: Namespace + "_leader_is_leader",
			Help: "1 if this instance is the leader, 0 otherwise",
		},
	)
	LeadershipChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: Namespace + "_leader_changes_total",
			Help: "Total number of leadership changes",
		})
)
