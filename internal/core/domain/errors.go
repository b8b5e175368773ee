package domain

import "go.trai.ch/zerr"

var (
	// ErrMissingDependency is returned when a plugin requires a dependency that is not in the candidate set.
	ErrMissingDependency = zerr.New("missing hard dependency")

	// ErrCycleDetected is returned when the dependency graph contains a cycle.
	ErrCycleDetected = zerr.New("cyclic dependency detected")

	// ErrDuplicateNode is returned when a node is added to a dependency graph twice.
	ErrDuplicateNode = zerr.New("node already exists")

	// ErrUnknownNode is returned when an edge references a node that is not in the graph.
	ErrUnknownNode = zerr.New("unknown node")

	// ErrDuplicateRegistration is returned when an extension point is registered twice under the same name.
	ErrDuplicateRegistration = zerr.New("duplicate registration")

	// ErrNotAModule is returned when a file is not a loadable module of a supported format.
	ErrNotAModule = zerr.New("not a loadable module")

	// ErrModuleReadFailed is returned when a binary cannot be read from disk.
	ErrModuleReadFailed = zerr.New("failed to read module")

	// ErrManifestParseFailed is returned when a module's metadata section cannot be decoded.
	ErrManifestParseFailed = zerr.New("failed to parse module manifest")

	// ErrExtractorPanicked is returned when an extraction function panics.
	ErrExtractorPanicked = zerr.New("metadata extractor panicked")

	// ErrCacheTruncated is returned when a cache payload ends before all declared fields were read.
	ErrCacheTruncated = zerr.New("cache data truncated")

	// ErrCacheCorrupt is returned when a cache file fails its header or checksum validation.
	ErrCacheCorrupt = zerr.New("cache data corrupt")

	// ErrCacheVersionMismatch is returned when a cache file was written by an incompatible version.
	ErrCacheVersionMismatch = zerr.New("cache version mismatch")

	// ErrCacheWriteFailed is returned when a cache file cannot be written.
	ErrCacheWriteFailed = zerr.New("failed to write cache")

	// ErrCacheRemoveFailed is returned when a cache file cannot be removed.
	ErrCacheRemoveFailed = zerr.New("failed to remove cache")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidConfig is returned when the config file contains invalid values.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrScanFailed is returned when a scan could not be run.
	ErrScanFailed = zerr.New("scan failed")

	// ErrResolveFailed is returned when the load order cannot be computed.
	ErrResolveFailed = zerr.New("failed to resolve load order")

	// ErrMetricsWriteFailed is returned when the metrics textfile cannot be written.
	ErrMetricsWriteFailed = zerr.New("failed to write metrics file")

	// ErrUnknownFormat is returned when an unsupported output format is requested.
	ErrUnknownFormat = zerr.New("unknown output format")

	// ErrInvalidAttribute is returned when a plugin type carries a malformed attribute.
	ErrInvalidAttribute = zerr.New("invalid plugin attribute")

	// ErrInvalidDependencyFlags is returned when dependency flags are neither hard nor soft.
	ErrInvalidDependencyFlags = zerr.New("invalid dependency flags")

	// ErrWatchFailed is returned when plugin directories cannot be watched.
	ErrWatchFailed = zerr.New("failed to watch directories")
)
