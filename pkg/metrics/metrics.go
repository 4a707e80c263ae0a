// Package metrics holds the Prometheus collectors for the note service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector registers everything on a private registry, never the global one.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	NotesCreated  prometheus.Counter
	NotesDeleted  prometheus.Counter
	SharesIssued  prometheus.Counter
	SharesRevoked prometheus.Counter
	ShareResolves *prometheus.CounterVec
	DecryptErrors *prometheus.CounterVec
	SweepRuns     *prometheus.CounterVec
	SweepPurged   prometheus.Counter
	SweepRevoked  prometheus.Counter
	SweepDuration prometheus.Histogram
	EventsRelayed *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		NotesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_created_total",
			Help:      "Total number of notes created",
		}),
		NotesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notes_deleted_total",
			Help:      "Total number of notes deleted through the API",
		}),
		SharesIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_issued_total",
			Help:      "Total number of share links issued",
		}),
		SharesRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shares_revoked_total",
			Help:      "Total number of share links revoked by owners",
		}),
		ShareResolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "share_resolutions_total",
			Help:      "Share link lookups by outcome",
		}, []string{"outcome"}),
		DecryptErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decryption_failures_total",
			Help:      "Notes that could not be decrypted, by read path",
		}, []string{"path"}),
		SweepRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_runs_total",
			Help:      "Cleanup sweeps by trigger and outcome",
		}, []string{"trigger", "outcome"}),
		SweepPurged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_notes_purged_total",
			Help:      "Expired notes deleted by cleanup",
		}),
		SweepRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cleanup_shares_invalidated_total",
			Help:      "Expired share links cleared by cleanup",
		}),
		SweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cleanup_duration_seconds",
			Help:      "Cleanup sweep duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		EventsRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_relayed_total",
			Help:      "Lifecycle events forwarded to NATS by outcome",
		}, []string{"outcome"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests, c.HTTPDuration,
		c.NotesCreated, c.NotesDeleted,
		c.SharesIssued, c.SharesRevoked, c.ShareResolves,
		c.DecryptErrors,
		c.SweepRuns, c.SweepPurged, c.SweepRevoked, c.SweepDuration,
		c.EventsRelayed,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveSweep(trigger string, err error, purged, invalidated int64, elapsed time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.SweepRuns.WithLabelValues(trigger, outcome).Inc()
	c.SweepPurged.Add(float64(purged))
	c.SweepRevoked.Add(float64(invalidated))
	c.SweepDuration.Observe(elapsed.Seconds())
}
