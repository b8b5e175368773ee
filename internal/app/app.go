// Package app implements the application layer for chainload.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/chainload/internal/adapters/cache" //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/fs"    //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/engine/chainloader"
	"go.trai.ch/chainload/internal/engine/scanner"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	logger       ports.Logger
	tracer       ports.Tracer
	metrics      ports.Metrics
	scanner      *scanner.Scanner
	chainloader  *chainloader.Chainloader
	caches       *cache.Factory
	watcher      ports.Watcher
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	log ports.Logger,
	tracer ports.Tracer,
	metrics ports.Metrics,
	scan *scanner.Scanner,
	loaderEngine *chainloader.Chainloader,
	caches *cache.Factory,
	watcher ports.Watcher,
) *App {
	return &App{
		configLoader: loader,
		logger:       log,
		tracer:       tracer,
		metrics:      metrics,
		scanner:      scan,
		chainloader:  loaderEngine,
		caches:       caches,
		watcher:      watcher,
	}
}

// levelSetter is implemented by loggers whose verbosity can change at run time.
type levelSetter interface {
	SetLevel(level domain.LogLevel)
}

// SetVerbose switches debug logging on or off.
func (a *App) SetVerbose(verbose bool) {
	ls, ok := a.logger.(levelSetter)
	if !ok {
		return
	}
	if verbose {
		ls.SetLevel(domain.LogLevelDebug)
		return
	}
	ls.SetLevel(domain.LogLevelInfo)
}

// Options configures one pipeline invocation.
type Options struct {
	// Dir is where the configuration search starts. Defaults to the working directory.
	Dir string
	// Process overrides the configured host process name when not empty.
	Process string
	// NoCache disables the metadata caches for this invocation only.
	NoCache bool
	// MetricsFile, when set, receives the Prometheus text exposition after the run.
	MetricsFile string
}

// Discovery is the outcome of one pipeline invocation.
type Discovery struct {
	Config *domain.Config
	// Plugins are the accepted plugins. After Discover they are in load order.
	Plugins  []domain.PluginMetadata
	Patchers []domain.PatcherMetadata
	// PluginStats and PatcherStats summarise the two scans.
	PluginStats  domain.ScanStats
	PatcherStats domain.ScanStats
	// Failures lists every binary that failed in either scan.
	Failures []domain.ScanFailure
}

func newDiscovery(
	cfg *domain.Config,
	ordered []domain.PluginMetadata,
	plugins *scanner.Result[domain.PluginMetadata],
	patchers *scanner.Result[domain.PatcherMetadata],
) *Discovery {
	failures := make([]domain.ScanFailure, 0, len(plugins.Failures)+len(patchers.Failures))
	failures = append(failures, plugins.Failures...)
	failures = append(failures, patchers.Failures...)

	return &Discovery{
		Config:       cfg,
		Plugins:      ordered,
		Patchers:     chainloader.Flatten(patchers.Items),
		PluginStats:  plugins.Stats,
		PatcherStats: patchers.Stats,
		Failures:     failures,
	}
}

// Scan loads the configuration and scans the plugin and patcher directories. Plugins are
// returned in path order, without deduplication or ordering.
func (a *App) Scan(ctx context.Context, opts Options) (*Discovery, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "discover.scan",
		ports.WithAttribute("config.source", cfg.Source),
		ports.WithAttribute("cache.enabled", cfg.CacheEnabled),
	)
	defer span.End()

	plugins, patchers, err := a.scanAll(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := a.writeMetrics(opts.MetricsFile); err != nil {
		return nil, err
	}
	return newDiscovery(cfg, chainloader.Flatten(plugins.Items), plugins, patchers), nil
}

// Discover scans both directories and computes the plugin load order.
func (a *App) Discover(ctx context.Context, opts Options) (*Discovery, error) {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return nil, err
	}

	ctx, span := a.tracer.Start(ctx, "discover",
		ports.WithAttribute("config.source", cfg.Source),
		ports.WithAttribute("cache.enabled", cfg.CacheEnabled),
		ports.WithAttribute("process", cfg.Process),
	)
	defer span.End()

	plugins, patchers, err := a.scanAll(ctx, cfg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	ordered, err := a.chainloader.LoadOrder(ctx, plugins.Items, cfg.Process)
	a.metrics.RecordResolve(len(ordered), err)
	if err != nil {
		span.RecordError(err)
		if mErr := a.writeMetrics(opts.MetricsFile); mErr != nil {
			a.logger.Warn(fmt.Sprintf("could not write metrics: %v", mErr))
		}
		return nil, zerr.Wrap(err, domain.ErrResolveFailed.Error())
	}
	span.SetAttribute("plugins.ordered", len(ordered))

	if err := a.writeMetrics(opts.MetricsFile); err != nil {
		return nil, err
	}
	return newDiscovery(cfg, ordered, plugins, patchers), nil
}

// Clean removes the plugin and patcher metadata caches.
func (a *App) Clean(_ context.Context, opts Options) error {
	cfg, err := a.loadConfig(opts)
	if err != nil {
		return err
	}

	var errs error
	plugins := a.caches.Plugins(cfg.CacheDir)
	patchers := a.caches.Patchers(cfg.CacheDir)

	remove := func(name, path string, fn func(string) error) {
		if err := fn(name); err != nil {
			errs = errors.Join(errs, err)
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", path))
	}
	remove(domain.PluginCacheName, plugins.Path(domain.PluginCacheName), plugins.Remove)
	remove(domain.PatcherCacheName, patchers.Path(domain.PatcherCacheName), patchers.Remove)

	return errs
}

// loadConfig reads the configuration afresh and applies per-invocation overrides.
func (a *App) loadConfig(opts Options) (*domain.Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if opts.Process != "" {
		cfg.Process = opts.Process
	}
	if opts.NoCache {
		cfg.CacheEnabled = false
	}
	return cfg, nil
}

// scanAll scans plugins and patchers concurrently. Each scan owns its cache store.
func (a *App) scanAll(
	ctx context.Context,
	cfg *domain.Config,
) (*scanner.Result[domain.PluginMetadata], *scanner.Result[domain.PatcherMetadata], error) {
	walker := fs.NewWalker(cfg.Patterns, cfg.Ignore)

	pluginOpts := scanner.Options[domain.PluginMetadata]{
		Root:      cfg.PluginDir,
		Walker:    walker,
		Extract:   a.chainloader.PluginExtractor(),
		Prefilter: chainloader.ReferencesSDK(cfg.SDKModule),
		CacheName: domain.PluginCacheName,
	}
	patcherOpts := scanner.Options[domain.PatcherMetadata]{
		Root:      cfg.PatcherDir,
		Walker:    walker,
		Extract:   chainloader.PatcherExtractor,
		CacheName: domain.PatcherCacheName,
	}
	if cfg.CacheEnabled {
		pluginOpts.Cache = a.caches.Plugins(cfg.CacheDir)
		patcherOpts.Cache = a.caches.Patchers(cfg.CacheDir)
	}

	var (
		plugins  *scanner.Result[domain.PluginMetadata]
		patchers *scanner.Result[domain.PatcherMetadata]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plugins, err = scanner.Scan(gctx, a.scanner, pluginOpts)
		return err
	})
	g.Go(func() error {
		var err error
		patchers, err = scanner.Scan(gctx, a.scanner, patcherOpts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return plugins, patchers, nil
}

func (a *App) writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	return a.metrics.WriteFile(path)
}
