// Package cache implements the persistent metadata cache used between scans.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	magic = "CLDC"

	// FormatVersion is bumped whenever the file layout or a record layout changes.
	FormatVersion uint32 = 1

	headerSize  = len(magic) + 4
	trailerSize = 8
)

var _ ports.MetadataCache[domain.PluginMetadata] = (*Store[domain.PluginMetadata, *domain.PluginMetadata])(nil)

// Store implements ports.MetadataCache with one binary file per cache name.
//
// File layout: magic, version:uint32, payload, xxhash64(payload):uint64.
// Payload: entryCount:int32, then per entry path:string, timestamp:int64,
// itemCount:int32 and the records in order.
type Store[T any, PT domain.CacheableRecord[T]] struct {
	dir    string
	logger ports.Logger
}

// NewStore creates a store writing cache files into dir.
func NewStore[T any, PT domain.CacheableRecord[T]](dir string, logger ports.Logger) *Store[T, PT] {
	return &Store[T, PT]{
		dir:    filepath.Clean(dir),
		logger: logger,
	}
}

// Path returns the file backing the cache called name.
func (s *Store[T, PT]) Path(name string) string {
	return filepath.Join(s.dir, domain.CacheFileName(name))
}

// Load reads the entries stored under name. Any failure is logged and reported as absent.
func (s *Store[T, PT]) Load(name string) (map[string]domain.CacheEntry[T], bool) {
	path := s.Path(name)

	//nolint:gosec // Path is built from the configured cache directory
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug(fmt.Sprintf("no metadata cache at %s", path))
			return nil, false
		}
		s.logger.Warn(fmt.Sprintf("ignoring metadata cache %s: %v", path, err))
		return nil, false
	}

	entries, err := s.decode(data)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("ignoring metadata cache %s: %v", path, err))
		return nil, false
	}

	return entries, true
}

// Save replaces the cache file for name. Failures are logged and never returned.
func (s *Store[T, PT]) Save(name string, entries map[string]domain.CacheEntry[T]) {
	if err := s.write(name, s.encode(entries)); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to save metadata cache %s: %v", s.Path(name), err))
	}
}

// Remove deletes the cache file for name. A missing file is not an error.
func (s *Store[T, PT]) Remove(name string) error {
	path := s.Path(name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheRemoveFailed.Error()), "path", path)
	}
	return nil
}

func (s *Store[T, PT]) encode(entries map[string]domain.CacheEntry[T]) []byte {
	payload := domain.NewBinaryWriter()

	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	slices.Sort(paths)

	payload.WriteCount(len(paths))
	for _, path := range paths {
		entry := entries[path]
		payload.WriteString(path)
		payload.WriteInt64(entry.Timestamp)
		payload.WriteCount(len(entry.Items))
		for i := range entry.Items {
			PT(&entry.Items[i]).Save(payload)
		}
	}

	body := payload.Bytes()
	file := domain.NewBinaryWriter()
	file.WriteRaw([]byte(magic))
	file.WriteUint32(FormatVersion)
	file.WriteRaw(body)
	file.WriteUint64(xxhash.Sum64(body))
	return file.Bytes()
}

func (s *Store[T, PT]) decode(data []byte) (map[string]domain.CacheEntry[T], error) {
	if len(data) < headerSize+trailerSize {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheTruncated, "cache file too short"), "size", len(data))
	}
	header := domain.NewBinaryReader(data[:headerSize])
	if string(header.ReadRaw(len(magic))) != magic {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "bad magic")
	}
	if version := header.ReadUint32(); version != FormatVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheVersionMismatch, "unsupported cache version"), "version", version)
	}

	body := data[headerSize : len(data)-trailerSize]
	if sum := domain.NewBinaryReader(data[len(data)-trailerSize:]).ReadUint64(); sum != xxhash.Sum64(body) {
		return nil, zerr.Wrap(domain.ErrCacheCorrupt, "checksum mismatch")
	}

	r := domain.NewBinaryReader(body)
	count := r.ReadCount()
	entries := make(map[string]domain.CacheEntry[T], count)
	for range count {
		entry := domain.CacheEntry[T]{
			Path:      r.ReadString(),
			Timestamp: r.ReadInt64(),
		}
		n := r.ReadCount()
		if n > 0 {
			entry.Items = make([]T, n)
			for i := range entry.Items {
				PT(&entry.Items[i]).Load(r)
			}
		}
		if r.Err() != nil {
			break
		}
		entries[entry.Path] = entry
	}

	if err := r.Err(); err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrCacheCorrupt, "trailing data"), "bytes", r.Remaining())
	}
	return entries, nil
}

func (s *Store[T, PT]) write(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	tmp, err := os.CreateTemp(s.dir, domain.CacheFileName(name)+".*.tmp")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := os.Rename(tmpPath, s.Path(name)); err != nil {
		_ = os.Remove(tmpPath)
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	return nil
}
