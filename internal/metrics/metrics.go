// Package metrics exposes the server's Prometheus metrics.
//
// Every Collector owns its own registry instead of using the global
// default one, so tests can build as many collectors as they like without
// duplicate-registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "portfolio"

// Poll outcomes, used as the "outcome" label of stats_polls_total.
const (
	PollOK      = "ok"
	PollFailed  = "failed"
	PollSkipped = "skipped"
)

// Collector holds all Prometheus metrics for the server.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ContactDispatches *prometheus.CounterVec
	ContactDuration   prometheus.Histogram

	StatsPolls       *prometheus.CounterVec
	StatsLastSuccess prometheus.Gauge

	LiveClients prometheus.Gauge
}

// NewCollector creates a Collector with a fresh registry. Go runtime and
// process collectors are registered alongside the application metrics.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ContactDispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "contact_dispatches_total",
				Help:      "Contact form submissions by outcome and error kind",
			},
			[]string{"outcome", "kind"},
		),
		ContactDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "contact_dispatch_duration_seconds",
				Help:      "Time spent handing a contact email to the SMTP server",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
		),
		StatsPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "stats_polls_total",
				Help:      "GitHub stats poll attempts by outcome and error kind",
			},
			[]string{"outcome", "kind"},
		),
		StatsLastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "stats_last_success_timestamp_seconds",
				Help:      "Unix time of the last successful GitHub stats fetch",
			},
		),
		LiveClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "live_clients",
				Help:      "Connected live stats websocket clients",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.ContactDispatches,
		c.ContactDuration,
		c.StatsPolls,
		c.StatsLastSuccess,
		c.LiveClients,
	)

	return c
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves this collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObserveHTTP records one completed request.
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ContactDispatched records a contact submission. kind is an apperror
// Kind label ("none" on success).
func (c *Collector) ContactDispatched(kind string, d time.Duration) {
	outcome := "sent"
	if kind != "none" {
		outcome = "failed"
	}
	c.ContactDispatches.WithLabelValues(outcome, kind).Inc()
	c.ContactDuration.Observe(d.Seconds())
}

// PollSucceeded, PollFailed and PollSkipped implement stats.Recorder.

func (c *Collector) PollSucceeded() {
	c.StatsPolls.WithLabelValues(PollOK, "none").Inc()
	c.StatsLastSuccess.SetToCurrentTime()
}

func (c *Collector) PollFailed(kind string) {
	c.StatsPolls.WithLabelValues(PollFailed, kind).Inc()
}

func (c *Collector) PollSkipped() {
	c.StatsPolls.WithLabelValues(PollSkipped, "none").Inc()
}

// ClientConnected and ClientDisconnected implement live.Observer.

func (c *Collector) ClientConnected()    { c.LiveClients.Inc() }
func (c *Collector) ClientDisconnected() { c.LiveClients.Dec() }
