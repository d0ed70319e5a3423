package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verification results
const (
	ResultValid         = "valid"
	ResultInvalidFormat = "invalid_format"
	ResultInvalidHash   = "invalid_hash"
)

var (
	CredentialsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "certserver_credentials_issued_total",
		Help: "Total number of credential tokens issued",
	})

	CredentialsVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certserver_credentials_verified_total",
			Help: "Total number of credential verifications by result",
		},
		[]string{"result"},
	)

	CertificatesRendered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certserver_certificates_rendered_total",
			Help: "Total number of certificate images rendered",
		},
		[]string{"status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
