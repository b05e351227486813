// Package metrics holds the Prometheus collectors for media access
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(
		GrantsIssued,
		AccessVerifications,
		StreamedBytes,
		StreamResponses,
		RemoteFallbacks,
		ProgressNotifications,
	)
}

// GrantsIssued counts issued media URLs by media kind and the backend that produced them
var GrantsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "media",
	Name:      "grants_issued_total",
	Help:      "Total signed media URLs issued",
}, []string{"kind", "source"})

// AccessVerifications counts signed URL checks by outcome
var AccessVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "media",
	Name:      "access_verifications_total",
	Help:      "Total signed media URL verifications by outcome",
}, []string{"outcome"})

// StreamedBytes counts bytes relayed to clients by media kind
var StreamedBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "media",
	Name:      "streamed_bytes_total",
	Help:      "Total media bytes streamed to clients",
}, []string{"kind"})

// StreamResponses counts media responses by media kind and HTTP status
var StreamResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "media",
	Name:      "stream_responses_total",
	Help:      "Total media responses by status code",
}, []string{"kind", "status"})

// RemoteFallbacks counts remote storage failures that fell back to local storage
var RemoteFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "storage",
	Name:      "remote_fallbacks_total",
	Help:      "Total remote storage failures recovered by the local store",
}, []string{"operation"})

// ProgressNotifications counts access notifications by outcome
var ProgressNotifications = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "courseguardian",
	Subsystem: "progress",
	Name:      "notifications_total",
	Help:      "Total content access notifications by outcome",
}, []string{"outcome"})

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
