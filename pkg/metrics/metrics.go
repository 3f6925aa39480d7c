// Package metrics records what a run fetched and selected, for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ghactivity"

// Recorder holds the metrics of a single run on its own registry.
type Recorder struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	sourceItems *prometheus.GaugeVec
	selected    *prometheus.GaugeVec
	updated     prometheus.Gauge
	duration    prometheus.Gauge
	lastRun     prometheus.Gauge
}

// New creates a Recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "github_requests_total",
			Help:      "GitHub API requests by endpoint and HTTP status (0 for transport errors).",
		}, []string{"endpoint", "code"}),
		sourceItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_items",
			Help:      "Normalized items available per source.",
		}, []string{"kind"}),
		selected: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "selected_items",
			Help:      "Items rendered into the document per kind.",
		}, []string{"kind"}),
		updated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "document_updated",
			Help:      "1 if the last run rewrote the document, 0 if it was already up to date.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}
	r.registry.MustRegister(r.requests, r.sourceItems, r.selected, r.updated, r.duration, r.lastRun)
	return r
}

// ObserveRequest counts one API call.
func (r *Recorder) ObserveRequest(endpoint string, code int) {
	r.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}

// SetSourceItems records how many items a source produced.
func (r *Recorder) SetSourceItems(kind string, n int) {
	r.sourceItems.WithLabelValues(kind).Set(float64(n))
}

// SetSelected records how many items of a kind were selected.
func (r *Recorder) SetSelected(kind string, n int) {
	r.selected.WithLabelValues(kind).Set(float64(n))
}

// Finish records the outcome and duration of a run.
func (r *Recorder) Finish(updated bool, elapsed time.Duration) {
	if updated {
		r.updated.Set(1)
	} else {
		r.updated.Set(0)
	}
	r.duration.Set(elapsed.Seconds())
	r.lastRun.SetToCurrentTime()
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
