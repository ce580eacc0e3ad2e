// Package metrics provides Prometheus metrics for the tagdeck agent.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagdeck_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tagdeck_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	directoryLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagdeck_directory_loads_total",
			Help: "Directory loads by outcome (success, failure, superseded)",
		},
		[]string{"outcome"},
	)

	directoryLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tagdeck_directory_load_duration_seconds",
			Help:    "Time from load start to commit or failure",
			Buckets: prometheus.DefBuckets,
		},
	)

	directoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tagdeck_directory_entries",
			Help: "Number of entries in the committed directory listing",
		},
	)

	truncatedListingsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tagdeck_truncated_listings_total",
			Help: "Listings that hit the results limit",
		},
	)

	thumbnailsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagdeck_thumbnails_total",
			Help: "Thumbnail resolutions by pipeline and outcome",
		},
		[]string{"pipeline", "outcome"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tagdeck_notifications_total",
			Help: "Notifications shown by level",
		},
		[]string{"level"},
	)
)

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordDirectoryLoad records the outcome of a directory load cycle.
func RecordDirectoryLoad(outcome string, d time.Duration) {
	directoryLoadsTotal.WithLabelValues(outcome).Inc()
	directoryLoadDuration.Observe(d.Seconds())
}

func SetDirectoryEntries(n int) {
	directoryEntries.Set(float64(n))
}

func RecordTruncatedListing() {
	truncatedListingsTotal.Inc()
}

// RecordThumbnails adds n resolutions for a pipeline ("worker", "file").
func RecordThumbnails(pipeline, outcome string, n int) {
	if n <= 0 {
		return
	}
	thumbnailsTotal.WithLabelValues(pipeline, outcome).Add(float64(n))
}

func RecordNotification(level string) {
	notificationsTotal.WithLabelValues(level).Inc()
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
