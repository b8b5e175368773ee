package ports

import "go.trai.ch/chainload/internal/core/domain"

// MetadataCache persists scan results keyed by binary path.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type MetadataCache[T any] interface {
	// Load returns the entries stored under name.
	// Any read or decode failure is logged and reported as absent.
	Load(name string) (map[string]domain.CacheEntry[T], bool)
	// Save replaces the entries stored under name. Failures are logged and never returned.
	Save(name string, entries map[string]domain.CacheEntry[T])
	// Remove deletes the cache file for name. A missing file is not an error.
	Remove(name string) error
	// Path returns the file backing the cache called name.
	Path(name string) string
}
