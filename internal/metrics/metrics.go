package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
	OutcomeFailed  = "failed"

	LoginSuccess = "success"
	LoginFailure = "failure"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "admissions_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ApplicationSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_application_submissions_total",
			Help: "Application submissions by outcome",
		},
		[]string{"outcome"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_login_attempts_total",
			Help: "Token requests by result",
		},
		[]string{"result"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_rate_limit_rejections_total",
			Help: "Requests rejected by a rate limit rule",
		},
		[]string{"rule"},
	)

	DocumentBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admissions_document_bytes_total",
			Help: "Bytes of uploaded documents written to the blob store",
		},
		[]string{"document"},
	)
)
