package scanner_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
	"go.trai.ch/chainload/internal/adapters/cache"
	adapterfs "go.trai.ch/chainload/internal/adapters/fs"
	"go.trai.ch/chainload/internal/adapters/metrics"
	"go.trai.ch/chainload/internal/adapters/module"
	"go.trai.ch/chainload/internal/adapters/telemetry"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/core/ports/mocks"
	"go.trai.ch/chainload/internal/engine/scanner"
	"go.trai.ch/chainload/internal/testutil/modtest"
	"go.uber.org/mock/gomock"
)

const cacheName = "preloader"

// countingReader records every path opened through the real module reader.
type countingReader struct {
	ports.ModuleReader
	mu     sync.Mutex
	opened []string
}

func (r *countingReader) Open(path string) (ports.Module, error) {
	r.mu.Lock()
	r.opened = append(r.opened, path)
	r.mu.Unlock()
	return r.ModuleReader.Open(path)
}

func (r *countingReader) reset() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	opened := r.opened
	r.opened = nil
	slices.Sort(opened)
	return opened
}

func typeNames(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
	return domain.PatcherMetadata{TypeName: def.FullName(), Location: path}, true
}

type fixture struct {
	root    string
	reader  *countingReader
	scanner *scanner.Scanner
	store   *cache.Store[domain.PatcherMetadata, *domain.PatcherMetadata]
}

func newFixture(t *testing.T, log ports.Logger) *fixture {
	t.Helper()
	reader := &countingReader{ModuleReader: module.NewReader()}
	return &fixture{
		root:    t.TempDir(),
		reader:  reader,
		scanner: scanner.New(reader, log, telemetry.NewOTelTracerFromProvider(noop.NewTracerProvider(), "test"), metrics.New()),
		store:   cache.NewStore[domain.PatcherMetadata](t.TempDir(), log),
	}
}

func (f *fixture) options(withCache bool) scanner.Options[domain.PatcherMetadata] {
	opts := scanner.Options[domain.PatcherMetadata]{
		Root:      f.root,
		Walker:    adapterfs.NewWalker(domain.DefaultBinaryPatterns(), nil),
		Extract:   typeNames,
		CacheName: cacheName,
	}
	if withCache {
		opts.Cache = f.store
	}
	return opts
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.root, filepath.FromSlash(rel))
}

// populate writes a small tree: a two-type plugin, a plain ELF without manifest,
// a nested plugin and a text file with a binary extension.
func (f *fixture) populate(t *testing.T) {
	t.Helper()
	two := modtest.Plugin("com.example.a", "A", "1.0.0")
	two.Types = append(two.Types, modtest.PluginType("com.example.a2", "A2", "1.0.0"))
	modtest.WriteELF(t, f.path("a.so"), two)
	modtest.WriteFile(t, f.path("plain.so"), modtest.BuildELF(nil))
	modtest.WriteELF(t, f.path("nested/c.dll"), modtest.Plugin("com.example.c", "C", "2.0.0"))
	modtest.WriteFile(t, f.path("readme.dll"), []byte("not a binary"))
}

func quietLogger(ctrl *gomock.Controller) *mocks.MockLogger {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	return log
}

func TestScan_ExtractsPerBinary(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	res, err := scanner.Scan(context.Background(), f.scanner, f.options(false))
	require.NoError(t, err)

	assert.Equal(t, map[string][]domain.PatcherMetadata{
		f.path("a.so"): {
			{TypeName: "plugins.A", Location: f.path("a.so")},
			{TypeName: "plugins.A2", Location: f.path("a.so")},
		},
		f.path("plain.so"): nil,
		f.path("nested/c.dll"): {
			{TypeName: "plugins.C", Location: f.path("nested/c.dll")},
		},
		f.path("readme.dll"): nil,
	}, res.Items)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, f.path("readme.dll"), res.Failures[0].Path)
	assert.Equal(t, domain.FailureNotModule, res.Failures[0].Kind)
	assert.ErrorIs(t, res.Failures[0], domain.ErrNotAModule)

	assert.Equal(t, domain.ScanStats{Binaries: 4, Opened: 4}, res.Stats)
}

func TestScan_IdempotentWithCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	first, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	assert.Len(t, f.reader.reset(), 4)
	require.FileExists(t, f.store.Path(cacheName))

	second, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)

	assert.Empty(t, f.reader.reset(), "unchanged binaries must not be opened")
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 4, second.Stats.CacheHits)
	assert.Zero(t, second.Stats.Opened)
	assert.Empty(t, second.Failures, "not-a-module results are cached as zero items")
}

func TestScan_ModTimeInvalidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	_, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	f.reader.reset()

	modtest.WriteELF(t, f.path("a.so"), modtest.Plugin("com.example.b", "B", "1.0.0"))
	modtest.SetModTime(t, f.path("a.so"), time.Now().Add(time.Hour))

	res, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)

	assert.Equal(t, []string{f.path("a.so")}, f.reader.reset())
	assert.Equal(t, []domain.PatcherMetadata{{TypeName: "plugins.B", Location: f.path("a.so")}}, res.Items[f.path("a.so")])

	stored, ok := f.store.Load(cacheName)
	require.True(t, ok)
	info, err := os.Stat(f.path("a.so"))
	require.NoError(t, err)
	assert.Equal(t, info.ModTime().UnixNano(), stored[f.path("a.so")].Timestamp)
}

func TestScan_OlderModTimeAlsoInvalidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	modtest.WriteELF(t, f.path("a.so"), modtest.Plugin("com.example.a", "A", "1.0.0"))

	_, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	f.reader.reset()

	modtest.SetModTime(t, f.path("a.so"), time.Unix(1_000_000, 0))

	_, err = scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	assert.Equal(t, []string{f.path("a.so")}, f.reader.reset())
}

func TestScan_RemovedBinaryDropsFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	_, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)

	require.NoError(t, os.Remove(f.path("nested/c.dll")))

	res, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	assert.NotContains(t, res.Items, f.path("nested/c.dll"))

	stored, ok := f.store.Load(cacheName)
	require.True(t, ok)
	assert.NotContains(t, stored, f.path("nested/c.dll"))
	assert.Len(t, stored, 3)
}

func TestScan_DisabledCacheIsPassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	uncached, err := scanner.Scan(context.Background(), f.scanner, f.options(false))
	require.NoError(t, err)
	assert.NoFileExists(t, f.store.Path(cacheName))

	cold, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)

	assert.Equal(t, cold.Items, uncached.Items)
}

func TestScan_Prefilter(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	var extracted []string
	opts := f.options(false)
	opts.Prefilter = func(m ports.Module) bool {
		return !strings.HasSuffix(m.Name(), "/A")
	}
	opts.Extract = func(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
		extracted = append(extracted, def.Name)
		return typeNames(def, path)
	}

	res, err := scanner.Scan(context.Background(), f.scanner, opts)
	require.NoError(t, err)

	assert.Contains(t, res.Items, f.path("a.so"))
	assert.Empty(t, res.Items[f.path("a.so")])
	assert.Equal(t, []string{"C"}, extracted)
}

func TestScan_ExtractorRejects(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))
	f.populate(t)

	opts := f.options(false)
	opts.Extract = func(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
		if def.Name == "A" {
			return domain.PatcherMetadata{}, false
		}
		return typeNames(def, path)
	}

	res, err := scanner.Scan(context.Background(), f.scanner, opts)
	require.NoError(t, err)
	assert.Equal(t, []domain.PatcherMetadata{{TypeName: "plugins.A2", Location: f.path("a.so")}}, res.Items[f.path("a.so")])
}

func TestScan_ExtractorPanicIsContained(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Times(1)

	f := newFixture(t, log)
	f.populate(t)

	opts := f.options(true)
	opts.Extract = func(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
		if def.Name == "C" {
			panic("boom")
		}
		return typeNames(def, path)
	}

	res, err := scanner.Scan(context.Background(), f.scanner, opts)
	require.NoError(t, err)

	assert.NotContains(t, res.Items, f.path("nested/c.dll"), "failed binaries are skipped")
	assert.Len(t, res.Items[f.path("a.so")], 2)
	assert.Equal(t, 1, res.Stats.Skipped)

	var failure *domain.ScanFailure
	for i := range res.Failures {
		if res.Failures[i].Path == f.path("nested/c.dll") {
			failure = &res.Failures[i]
		}
	}
	require.NotNil(t, failure)
	assert.Equal(t, domain.FailureUnexpected, failure.Kind)
	assert.ErrorIs(t, failure.Err, domain.ErrExtractorPanicked)

	stored, ok := f.store.Load(cacheName)
	require.True(t, ok)
	assert.NotContains(t, stored, f.path("nested/c.dll"), "skipped binaries are not cached")
}

func TestScan_CorruptCacheIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	f := newFixture(t, log)
	f.populate(t)

	modtest.WriteFile(t, f.store.Path(cacheName), []byte("garbage"))

	res, err := scanner.Scan(context.Background(), f.scanner, f.options(true))
	require.NoError(t, err)
	assert.Len(t, res.Items, 4)
	assert.Equal(t, 4, res.Stats.Opened)

	_, ok := f.store.Load(cacheName)
	assert.True(t, ok, "cache is rewritten after the scan")
}

func TestScan_MissingRoot(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))

	opts := f.options(false)
	opts.Root = filepath.Join(f.root, "absent")

	res, err := scanner.Scan(context.Background(), f.scanner, opts)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
}

func TestScan_RequiresExtractorAndWalker(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := newFixture(t, quietLogger(ctrl))

	opts := f.options(false)
	opts.Extract = nil
	_, err := scanner.Scan(context.Background(), f.scanner, opts)
	require.ErrorIs(t, err, domain.ErrScanFailed)

	opts = f.options(false)
	opts.Walker = nil
	_, err = scanner.Scan(context.Background(), f.scanner, opts)
	require.ErrorIs(t, err, domain.ErrScanFailed)
}

func mockWalker(ctrl *gomock.Controller, paths ...string) *mocks.MockBinaryWalker {
	w := mocks.NewMockBinaryWalker(ctrl)
	w.EXPECT().Walk(gomock.Any()).Return(slices.Values(paths)).AnyTimes()
	return w
}

func TestScan_CacheHitSkipsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	reader := mocks.NewMockModuleReader(ctrl) // no Open expected
	store := mocks.NewMockMetadataCache[domain.PatcherMetadata](ctrl)
	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().RecordScan(cacheName, domain.ScanStats{Binaries: 1, CacheHits: 1}).Times(1)

	path := filepath.Join(t.TempDir(), "a.so")
	modtest.WriteFile(t, path, []byte("anything"))
	info, err := os.Stat(path)
	require.NoError(t, err)

	entry := domain.CacheEntry[domain.PatcherMetadata]{
		Path:      path,
		Timestamp: info.ModTime().UnixNano(),
		Items:     []domain.PatcherMetadata{{TypeName: "cached.Type", Location: path}},
	}
	store.EXPECT().Load(cacheName).Return(map[string]domain.CacheEntry[domain.PatcherMetadata]{path: entry}, true)
	store.EXPECT().Save(cacheName, map[string]domain.CacheEntry[domain.PatcherMetadata]{path: entry})

	s := scanner.New(reader, log, telemetry.NewOTelTracerFromProvider(noop.NewTracerProvider(), "test"), m)
	res, err := scanner.Scan(context.Background(), s, scanner.Options[domain.PatcherMetadata]{
		Root:      filepath.Dir(path),
		Walker:    mockWalker(ctrl, path),
		Extract:   typeNames,
		CacheName: cacheName,
		Cache:     store,
	})
	require.NoError(t, err)
	assert.Equal(t, entry.Items, res.Items[path])
}

func TestScan_ModuleClosedOnEveryPath(t *testing.T) {
	dir := t.TempDir()
	pathOK := filepath.Join(dir, "ok.so")
	pathPanic := filepath.Join(dir, "panic.so")
	pathRejected := filepath.Join(dir, "rejected.so")
	for _, p := range []string{pathOK, pathPanic, pathRejected} {
		modtest.WriteFile(t, p, nil)
	}

	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).Times(1)

	reader := mocks.NewMockModuleReader(ctrl)
	for _, p := range []string{pathOK, pathPanic, pathRejected} {
		mod := mocks.NewMockModule(ctrl)
		mod.EXPECT().Name().Return(filepath.Base(p)).AnyTimes()
		mod.EXPECT().Types().Return([]domain.TypeDefinition{{Name: "T"}}).AnyTimes()
		mod.EXPECT().Close().Return(nil).Times(1)
		reader.EXPECT().Open(p).Return(mod, nil)
	}

	s := scanner.New(reader, log, telemetry.NewOTelTracerFromProvider(noop.NewTracerProvider(), "test"), metrics.New())
	res, err := scanner.Scan(context.Background(), s, scanner.Options[domain.PatcherMetadata]{
		Root:   dir,
		Walker: mockWalker(ctrl, pathOK, pathPanic, pathRejected),
		Extract: func(def domain.TypeDefinition, path string) (domain.PatcherMetadata, bool) {
			if path == pathPanic {
				panic(errors.New("extractor failure"))
			}
			return typeNames(def, path)
		},
		Prefilter: func(m ports.Module) bool { return m.Name() != "rejected.so" },
		CacheName: cacheName,
	})
	require.NoError(t, err)

	assert.Len(t, res.Items[pathOK], 1)
	assert.Contains(t, res.Items, pathRejected)
	assert.Empty(t, res.Items[pathRejected])
	assert.NotContains(t, res.Items, pathPanic)
}

func TestScan_UnreadableIsWarnedAndSkipped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.so")
	modtest.WriteFile(t, path, nil)

	ctrl := gomock.NewController(t)
	log := quietLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	reader := mocks.NewMockModuleReader(ctrl)
	reader.EXPECT().Open(path).Return(nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrPermission})

	m := mocks.NewMockMetrics(ctrl)
	m.EXPECT().RecordFailure(cacheName, domain.FailureUnreadable).Times(1)
	m.EXPECT().RecordScan(cacheName, domain.ScanStats{Binaries: 1, Opened: 1, Skipped: 1}).Times(1)

	s := scanner.New(reader, log, telemetry.NewOTelTracerFromProvider(noop.NewTracerProvider(), "test"), m)
	res, err := scanner.Scan(context.Background(), s, scanner.Options[domain.PatcherMetadata]{
		Root:      dir,
		Walker:    mockWalker(ctrl, path),
		Extract:   typeNames,
		CacheName: cacheName,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Items)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, domain.FailureUnreadable, res.Failures[0].Kind)
}
