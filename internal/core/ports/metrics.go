package ports

import "go.trai.ch/chainload/internal/core/domain"

// Metrics records pipeline counters.
//
//go:generate mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// RecordScan adds the statistics of one scan of the named cache.
	RecordScan(cacheName string, stats domain.ScanStats)
	// RecordFailure counts one binary that failed during a scan.
	RecordFailure(cacheName string, kind domain.FailureKind)
	// RecordResolve records the outcome of one load order computation.
	RecordResolve(ordered int, err error)
	// WriteFile writes all metrics in the Prometheus text format to path.
	WriteFile(path string) error
}
