// Package scanner walks a directory of binaries and extracts typed metadata records from each,
// reusing cached records for binaries whose modification time is unchanged.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
)

// Extractor turns one type definition of a binary into a record. It returns false to reject the type.
type Extractor[T any] func(def domain.TypeDefinition, path string) (T, bool)

// Prefilter decides whether an opened module is worth extracting from at all.
type Prefilter func(ports.Module) bool

// Options configures one scan.
type Options[T any] struct {
	// Root is the directory to enumerate.
	Root string
	// Walker enumerates candidate binaries below Root.
	Walker ports.BinaryWalker
	// Extract is called once per type definition of every opened binary.
	Extract Extractor[T]
	// Prefilter is optional. Rejected binaries are recorded with zero items.
	Prefilter Prefilter
	// CacheName names the persisted cache file.
	CacheName string
	// Cache is optional. When nil the scan neither reads nor writes any cache file.
	Cache ports.MetadataCache[T]
}

// Result is the outcome of one scan.
type Result[T any] struct {
	// Items maps every binary that was not skipped to its records in definition order.
	Items    map[string][]T
	Failures []domain.ScanFailure
	Stats    domain.ScanStats
}

// Scanner opens binaries through a ports.ModuleReader, one at a time.
type Scanner struct {
	reader  ports.ModuleReader
	logger  ports.Logger
	tracer  ports.Tracer
	metrics ports.Metrics
}

// New creates a new Scanner.
func New(reader ports.ModuleReader, logger ports.Logger, tracer ports.Tracer, metrics ports.Metrics) *Scanner {
	return &Scanner{
		reader:  reader,
		logger:  logger,
		tracer:  tracer,
		metrics: metrics,
	}
}

// Scan runs a full scan of opts.Root. Failures of individual binaries are reported in the
// result and never returned as an error.
func Scan[T any](ctx context.Context, s *Scanner, opts Options[T]) (*Result[T], error) {
	if opts.Extract == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrScanFailed, "no extractor configured"), "root", opts.Root)
	}
	if opts.Walker == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrScanFailed, "no walker configured"), "root", opts.Root)
	}

	_, span := s.tracer.Start(ctx, "scan",
		ports.WithAttribute("scan.root", opts.Root),
		ports.WithAttribute("scan.cache", opts.CacheName),
	)
	defer span.End()

	var cached map[string]domain.CacheEntry[T]
	if opts.Cache != nil {
		cached, _ = opts.Cache.Load(opts.CacheName)
	}

	res := &Result[T]{Items: make(map[string][]T)}
	observed := make(map[string]int64)

	for path := range opts.Walker.Walk(opts.Root) {
		res.Stats.Binaries++

		modTime, items, err := scanOne(s.reader, path, cached, opts, &res.Stats)
		if err != nil {
			failure := s.report(opts.CacheName, path, err)
			res.Failures = append(res.Failures, failure)
			if failure.Kind.Skipped() {
				res.Stats.Skipped++
				continue
			}
		}
		res.Items[path] = items
		observed[path] = modTime
	}

	if opts.Cache != nil {
		entries := make(map[string]domain.CacheEntry[T], len(res.Items))
		for path, items := range res.Items {
			entries[path] = domain.CacheEntry[T]{Path: path, Timestamp: observed[path], Items: items}
		}
		opts.Cache.Save(opts.CacheName, entries)
	}

	span.SetAttribute("scan.binaries", res.Stats.Binaries)
	span.SetAttribute("scan.cache_hits", res.Stats.CacheHits)
	span.SetAttribute("scan.skipped", res.Stats.Skipped)
	s.metrics.RecordScan(opts.CacheName, res.Stats)

	s.logger.Debug(fmt.Sprintf("scanned %s: %d binaries, %d from cache, %d skipped",
		opts.Root, res.Stats.Binaries, res.Stats.CacheHits, res.Stats.Skipped))

	return res, nil
}

// scanOne returns the observed modification time and records of one binary.
// A not-a-module error comes with zero items that must still be recorded.
func scanOne[T any](
	reader ports.ModuleReader,
	path string,
	cached map[string]domain.CacheEntry[T],
	opts Options[T],
	stats *domain.ScanStats,
) (int64, []T, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, nil, zerr.With(zerr.Wrap(err, domain.ErrModuleReadFailed.Error()), "path", path)
	}
	modTime := info.ModTime().UnixNano()

	if entry, ok := cached[path]; ok && entry.ValidFor(modTime) {
		stats.CacheHits++
		return modTime, entry.Items, nil
	}

	stats.Opened++
	mod, err := reader.Open(path)
	if err != nil {
		return modTime, nil, err
	}
	defer func() { _ = mod.Close() }()

	items, err := extract(mod, path, opts)
	return modTime, items, err
}

// extract applies the prefilter and extractor to an opened module. Panics in either are
// turned into errors so one bad binary cannot abort the scan.
func extract[T any](mod ports.Module, path string, opts Options[T]) (items []T, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = zerr.With(zerr.Wrap(domain.ErrExtractorPanicked, fmt.Sprint(r)), "path", path)
		}
	}()

	if opts.Prefilter != nil && !opts.Prefilter(mod) {
		return nil, nil
	}

	for _, def := range mod.Types() {
		if item, ok := opts.Extract(def, path); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// report logs and counts one failed binary.
func (s *Scanner) report(cacheName, path string, err error) domain.ScanFailure {
	kind := classify(err)
	s.metrics.RecordFailure(cacheName, kind)

	switch kind.Severity() {
	case domain.LogLevelDebug:
		s.logger.Debug(fmt.Sprintf("skipping %s: %v", path, err))
	case domain.LogLevelWarn:
		s.logger.Warn(fmt.Sprintf("could not read %s: %v", path, err))
	default:
		s.logger.Error(zerr.With(zerr.Wrap(err, "failed to scan binary"), "path", path))
	}

	return domain.ScanFailure{Path: path, Kind: kind, Err: err}
}

// classify maps a per-binary error to its failure kind.
func classify(err error) domain.FailureKind {
	var pathErr *fs.PathError
	switch {
	case errors.Is(err, domain.ErrNotAModule):
		return domain.FailureNotModule
	case errors.As(err, &pathErr):
		return domain.FailureUnreadable
	default:
		return domain.FailureUnexpected
	}
}
