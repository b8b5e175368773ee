package app_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/chainload/internal/adapters/cache"
	"go.trai.ch/chainload/internal/adapters/config"
	"go.trai.ch/chainload/internal/adapters/logger"
	"go.trai.ch/chainload/internal/adapters/metrics"
	"go.trai.ch/chainload/internal/adapters/module"
	"go.trai.ch/chainload/internal/adapters/telemetry"
	"go.trai.ch/chainload/internal/app"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/core/ports/mocks"
	"go.trai.ch/chainload/internal/engine/chainloader"
	"go.trai.ch/chainload/internal/engine/resolver"
	"go.trai.ch/chainload/internal/engine/scanner"
	"go.trai.ch/chainload/internal/testutil/modtest"
	"go.uber.org/mock/gomock"
)

type harness struct {
	dir     string
	app     *app.App
	watcher *mocks.MockWatcher
	metrics *metrics.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()
	log.EXPECT().Info(gomock.Any()).AnyTimes()

	return newHarnessWithLogger(t, ctrl, log)
}

func newHarnessWithLogger(t *testing.T, ctrl *gomock.Controller, log ports.Logger) *harness {
	t.Helper()
	tracer := telemetry.NewOTelTracerFromProvider(telemetry.NewProvider(log), "test")
	m := metrics.New()
	w := mocks.NewMockWatcher(ctrl)

	a := app.New(
		config.NewLoader(log),
		log,
		tracer,
		m,
		scanner.New(module.NewReader(), log, tracer, m),
		chainloader.New(log, resolver.New(tracer)),
		cache.NewFactory(log),
		w,
	)

	return &harness{dir: t.TempDir(), app: a, watcher: w, metrics: m}
}

func (h *harness) plugin(t *testing.T, rel string, m domain.Manifest) string {
	t.Helper()
	path := filepath.Join(h.dir, domain.DefaultPluginDir, rel)
	modtest.WriteELF(t, path, m)
	return path
}

func (h *harness) patcher(t *testing.T, rel string, m domain.Manifest) string {
	t.Helper()
	path := filepath.Join(h.dir, domain.DefaultPatcherDir, rel)
	modtest.WriteELF(t, path, m)
	return path
}

func (h *harness) config(t *testing.T, content string) {
	t.Helper()
	modtest.WriteFile(t, filepath.Join(h.dir, domain.ConfigFileName), []byte(content))
}

func (h *harness) cacheFile(name string) string {
	return filepath.Join(h.dir, domain.DefaultCachePath(), domain.CacheFileName(name))
}

func guids(plugins []domain.PluginMetadata) []string {
	out := make([]string, 0, len(plugins))
	for _, p := range plugins {
		out = append(out, p.GUID)
	}
	return out
}

func withProcess(m domain.Manifest, process string) domain.Manifest {
	m.Types[0].Attributes = append(m.Types[0].Attributes, domain.Attribute{
		Name: "Process",
		Args: []string{process},
	})
	return m
}

func TestApp_Discover_OrdersPlugins(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "ui.so", modtest.Plugin("com.example.ui", "UI", "1.0.0", "com.example.core"))
	h.plugin(t, filepath.Join("nested", "core.so"), modtest.Plugin("com.example.core", "Core", "2.1.0"))
	h.patcher(t, "fix.so", modtest.Patcher("Fixer", "Game.dll"))

	got, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.example.core", "com.example.ui"}, guids(got.Plugins))
	require.Len(t, got.Patchers, 1)
	assert.Equal(t, "patchers.Fixer", got.Patchers[0].TypeName)
	assert.Equal(t, []string{"Game.dll"}, got.Patchers[0].Targets)
	assert.Equal(t, domain.ScanStats{Binaries: 2, Opened: 2}, got.PluginStats)
	assert.Equal(t, domain.ScanStats{Binaries: 1, Opened: 1}, got.PatcherStats)
	assert.Empty(t, got.Failures)

	assert.FileExists(t, h.cacheFile(domain.PluginCacheName))
	assert.FileExists(t, h.cacheFile(domain.PatcherCacheName))
	assert.InDelta(t, 2, testutil.ToFloat64(h.metrics.PluginsOrdered), 0)
}

func TestApp_Discover_SecondRunServedFromCache(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))
	h.patcher(t, "p.so", modtest.Patcher("P"))

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)

	got, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)

	assert.Equal(t, domain.ScanStats{Binaries: 1, CacheHits: 1}, got.PluginStats)
	assert.Equal(t, domain.ScanStats{Binaries: 1, CacheHits: 1}, got.PatcherStats)
	assert.Equal(t, []string{"com.example.a"}, guids(got.Plugins))
}

func TestApp_Discover_NoCache(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir, NoCache: true})
	require.NoError(t, err)

	assert.NoFileExists(t, h.cacheFile(domain.PluginCacheName))
	assert.NoFileExists(t, h.cacheFile(domain.PatcherCacheName))
}

func TestApp_Discover_CacheFlagReadPerCall(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))

	h.config(t, "cache:\n  enabled: false\n")
	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)
	assert.NoFileExists(t, h.cacheFile(domain.PluginCacheName))

	h.config(t, "cache:\n  enabled: true\n")
	_, err = h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)
	assert.FileExists(t, h.cacheFile(domain.PluginCacheName))
}

func TestApp_Discover_MissingDependency(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "ui.so", modtest.Plugin("com.example.ui", "UI", "1.0.0", "com.example.core"))

	got, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.Error(t, err)
	assert.Nil(t, got)

	assert.ErrorIs(t, err, domain.ErrMissingDependency)
	assert.ErrorContains(t, err, domain.ErrResolveFailed.Error())

	var missing *domain.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "com.example.ui", missing.Dependent)
	assert.Equal(t, "com.example.core", missing.Missing)

	assert.InDelta(t, 1, testutil.ToFloat64(h.metrics.ResolvesTotal.WithLabelValues("missing_dependency")), 0)
}

func TestApp_Discover_Cycle(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0", "com.example.b"))
	h.plugin(t, "b.so", modtest.Plugin("com.example.b", "B", "1.0.0", "com.example.a"))

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})

	var cycle *domain.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"com.example.a", "com.example.b", "com.example.a"}, cycle.Cycle())
}

func TestApp_Discover_ProcessOverride(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "game.so", withProcess(modtest.Plugin("com.example.game", "Game", "1.0.0"), "Game.exe"))
	h.plugin(t, "any.so", modtest.Plugin("com.example.any", "Any", "1.0.0"))
	h.config(t, "process: editor\n")

	got, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.any"}, guids(got.Plugins))

	got, err = h.app.Discover(t.Context(), app.Options{Dir: h.dir, Process: "game"})
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.any", "com.example.game"}, guids(got.Plugins))
	assert.Equal(t, "game", got.Config.Process)
}

func TestApp_Discover_ReportsFailures(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))
	modtest.WriteFile(t, filepath.Join(h.dir, domain.DefaultPluginDir, "notes.dll"), []byte("not a binary"))

	got, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)

	require.Len(t, got.Failures, 1)
	assert.Equal(t, domain.FailureNotModule, got.Failures[0].Kind)
	assert.Equal(t, []string{"com.example.a"}, guids(got.Plugins))
}

func TestApp_Discover_ConfigError(t *testing.T) {
	h := newHarness(t)
	h.config(t, "paths: [")

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to load configuration")
	assert.ErrorContains(t, err, domain.ErrConfigParseFailed.Error())
}

func TestApp_Discover_WritesMetricsFile(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))
	path := filepath.Join(h.dir, "out", "chainload.prom")

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir, MetricsFile: path})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `chainload_binaries_total{cache="chainloader"} 1`)
	assert.Contains(t, string(data), `chainload_resolves_total{status="ok"} 1`)
}

func TestApp_Scan_KeepsDuplicatesInPathOrder(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "b.so", modtest.Plugin("com.example.dup", "Dup", "1.0.0"))
	h.plugin(t, "a.so", modtest.Plugin("com.example.dup", "Dup", "2.0.0"))
	h.plugin(t, "c.so", modtest.Plugin("com.example.ui", "UI", "1.0.0", "com.example.missing"))

	got, err := h.app.Scan(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)

	require.Len(t, got.Plugins, 3)
	assert.Equal(t, "2.0.0", got.Plugins[0].Version)
	assert.Equal(t, "1.0.0", got.Plugins[1].Version)
	assert.Equal(t, "com.example.ui", got.Plugins[2].GUID)
}

func TestApp_Clean(t *testing.T) {
	h := newHarness(t)
	h.plugin(t, "a.so", modtest.Plugin("com.example.a", "A", "1.0.0"))

	_, err := h.app.Discover(t.Context(), app.Options{Dir: h.dir})
	require.NoError(t, err)
	require.FileExists(t, h.cacheFile(domain.PluginCacheName))

	require.NoError(t, h.app.Clean(t.Context(), app.Options{Dir: h.dir}))
	assert.NoFileExists(t, h.cacheFile(domain.PluginCacheName))
	assert.NoFileExists(t, h.cacheFile(domain.PatcherCacheName))

	require.NoError(t, h.app.Clean(t.Context(), app.Options{Dir: h.dir}), "cleaning twice is fine")
}

func TestApp_SetVerbose(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New()
	log.SetOutput(&buf)

	h := newHarnessWithLogger(t, gomock.NewController(t), log)

	log.Debug("hidden")
	h.app.SetVerbose(true)
	log.Debug("shown")
	h.app.SetVerbose(false)
	log.Debug("hidden again")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
