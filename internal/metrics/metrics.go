// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Clark-Hu/flavorhub/internal/domain"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flavorhub_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flavorhub_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flavorhub_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flavorhub_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	RatingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flavorhub_rating_operations_total",
			Help: "Rating mutations by operation and outcome",
		},
		[]string{"operation", "result"},
	)

	DBPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flavorhub_db_pool_connections",
			Help: "Connection pool size by state",
		},
		[]string{"state"},
	)
)

// RecordAPIRequest records the outcome of one HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
		return
	}
	APIActiveRequests.Dec()
}

// RecordRatingOperation counts a rating mutation, labelling the result by
// error kind.
func RecordRatingOperation(operation string, err error) {
	RatingOperations.WithLabelValues(operation, ResultLabel(err)).Inc()
}

// ResultLabel classifies err for metric labels.
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDuplicateRating):
		return "duplicate"
	case errors.Is(err, domain.ErrRecipeNotFound), errors.Is(err, domain.ErrRatingNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidRatingValue), errors.Is(err, domain.ErrInvalidUserID):
		return "invalid"
	default:
		return "error"
	}
}

// RecordPoolStats publishes connection pool gauges.
func RecordPoolStats(total, idle, acquired int32) {
	DBPoolConnections.WithLabelValues("total").Set(float64(total))
	DBPoolConnections.WithLabelValues("idle").Set(float64(idle))
	DBPoolConnections.WithLabelValues("acquired").Set(float64(acquired))
}
