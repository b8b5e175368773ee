package domain

// CacheEntry holds the records extracted from one binary.
// Timestamp is the binary's modification time in Unix nanoseconds when it was scanned.
type CacheEntry[T any] struct {
	Path      string
	Timestamp int64
	Items     []T
}

// ValidFor reports whether the entry may be reused for a binary with the given modification time.
func (e CacheEntry[T]) ValidFor(modTime int64) bool {
	return e.Timestamp == modTime
}
