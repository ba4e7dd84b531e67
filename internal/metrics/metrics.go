// Package metrics counts fetches, cache lookups and panel groups for one batch.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a dedicated registry so a batch can dump exactly its own series.
// A nil *Recorder ignores every observation.
type Recorder struct {
	registry      *prometheus.Registry
	fetchRequests *prometheus.CounterVec
	fetchRetries  *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	panelGames    *prometheus.CounterVec
}

// New creates a Recorder with every collector registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpanel_fetch_requests_total",
			Help: "Completed fetches by source and final status.",
		}, []string{"source", "status"}),
		fetchRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpanel_fetch_retries_total",
			Help: "Retried fetch attempts by source and reason.",
		}, []string{"source", "reason"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patchpanel_fetch_duration_seconds",
			Help:    "Wall time of a fetch including retries and politeness waits.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"source"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpanel_cache_lookups_total",
			Help: "Cache lookups by endpoint and result.",
		}, []string{"endpoint", "result"}),
		panelGames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "patchpanel_panel_games_total",
			Help: "Games placed into the panel by group.",
		}, []string{"group"}),
	}
	r.registry.MustRegister(r.fetchRequests, r.fetchRetries, r.fetchDuration, r.cacheLookups, r.panelGames)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFetch records the outcome of one fetch.
func (r *Recorder) ObserveFetch(source, status string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.fetchRequests.WithLabelValues(source, status).Inc()
	r.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveRetry records a retried attempt.
func (r *Recorder) ObserveRetry(source, reason string) {
	if r == nil {
		return
	}
	r.fetchRetries.WithLabelValues(source, reason).Inc()
}

// ObserveCacheLookup records a cache lookup result.
func (r *Recorder) ObserveCacheLookup(endpoint, result string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(endpoint, result).Inc()
}

// ObservePanelGame records a game placed into a panel group.
func (r *Recorder) ObservePanelGame(group string) {
	if r == nil {
		return
	}
	r.panelGames.WithLabelValues(group).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
