// Package metrics records scan and resolve counters in a Prometheus registry.
package metrics

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
)

const namespace = "chainload"

var _ ports.Metrics = (*Registry)(nil)

// Registry implements ports.Metrics.
type Registry struct {
	registry *prometheus.Registry

	BinariesTotal  *prometheus.CounterVec
	CacheHitsTotal *prometheus.CounterVec
	OpenedTotal    *prometheus.CounterVec
	SkippedTotal   *prometheus.CounterVec
	FailuresTotal  *prometheus.CounterVec
	ResolvesTotal  *prometheus.CounterVec
	PluginsOrdered prometheus.Gauge
}

// New creates and registers all metrics in a fresh registry.
func New() *Registry {
	m := &Registry{
		registry: prometheus.NewRegistry(),
		BinariesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binaries_total",
				Help:      "Total number of candidate binaries enumerated",
			},
			[]string{"cache"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of binaries served from the metadata cache",
			},
			[]string{"cache"},
		),
		OpenedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binaries_opened_total",
				Help:      "Total number of binaries opened for inspection",
			},
			[]string{"cache"},
		),
		SkippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "binaries_skipped_total",
				Help:      "Total number of binaries left out of the scan output",
			},
			[]string{"cache"},
		),
		FailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scan_failures_total",
				Help:      "Total number of binaries that failed to produce records",
			},
			[]string{"cache", "kind"},
		),
		ResolvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolves_total",
				Help:      "Total number of load order computations",
			},
			[]string{"status"},
		),
		PluginsOrdered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "plugins_ordered",
				Help:      "Number of plugins in the last computed load order",
			},
		),
	}

	m.registry.MustRegister(
		m.BinariesTotal,
		m.CacheHitsTotal,
		m.OpenedTotal,
		m.SkippedTotal,
		m.FailuresTotal,
		m.ResolvesTotal,
		m.PluginsOrdered,
	)

	return m
}

// RecordScan adds the statistics of one scan of the named cache.
func (m *Registry) RecordScan(cacheName string, stats domain.ScanStats) {
	m.BinariesTotal.WithLabelValues(cacheName).Add(float64(stats.Binaries))
	m.CacheHitsTotal.WithLabelValues(cacheName).Add(float64(stats.CacheHits))
	m.OpenedTotal.WithLabelValues(cacheName).Add(float64(stats.Opened))
	m.SkippedTotal.WithLabelValues(cacheName).Add(float64(stats.Skipped))
}

// RecordFailure counts one binary that failed during a scan.
func (m *Registry) RecordFailure(cacheName string, kind domain.FailureKind) {
	m.FailuresTotal.WithLabelValues(cacheName, kind.String()).Inc()
}

// RecordResolve records the outcome of one load order computation.
func (m *Registry) RecordResolve(ordered int, err error) {
	m.ResolvesTotal.WithLabelValues(resolveStatus(err)).Inc()
	if err == nil {
		m.PluginsOrdered.Set(float64(ordered))
	}
}

func resolveStatus(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrMissingDependency):
		return "missing_dependency"
	case errors.Is(err, domain.ErrCycleDetected):
		return "cycle"
	default:
		return "error"
	}
}

// WriteFile writes all metrics in the Prometheus text format to path,
// suitable for the node exporter textfile collector.
func (m *Registry) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetricsWriteFailed.Error()), "path", path)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMetricsWriteFailed.Error()), "path", path)
	}
	return nil
}
