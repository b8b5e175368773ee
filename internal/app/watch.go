package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/chainload/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	Options
	// Debounce is the quiet period after the last change before rediscovering.
	// Zero selects watcher.DefaultDebounceWindow.
	Debounce time.Duration
}

// Watch runs Discover once, then again after every burst of changes below the plugin and
// patcher directories, passing each outcome to onChange. It returns when ctx is canceled.
func (a *App) Watch(
	ctx context.Context,
	opts WatchOptions,
	onChange func(*Discovery, error),
) error {
	cfg, err := a.loadConfig(opts.Options)
	if err != nil {
		return err
	}

	onChange(a.Discover(ctx, opts.Options))

	if err := a.watcher.Start(ctx, cfg.PluginDir, cfg.PatcherDir); err != nil {
		return err
	}
	defer func() { _ = a.watcher.Stop() }()

	window := opts.Debounce
	if window <= 0 {
		window = watcher.DefaultDebounceWindow
	}

	trigger := make(chan struct{}, 1)
	debouncer := watcher.NewDebouncer(window, func(paths []string) {
		a.logger.Debug(fmt.Sprintf("%d paths changed, rescanning", len(paths)))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	defer debouncer.Stop()

	a.logger.Info(fmt.Sprintf("watching %s and %s", cfg.PluginDir, cfg.PatcherDir))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for event := range a.watcher.Events() {
			if relevant(cfg, event) {
				debouncer.Add(event.Path)
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		return zerr.Wrap(domain.ErrWatchFailed, "event stream closed")
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-trigger:
				onChange(a.Discover(gctx, opts.Options))
			}
		}
	})

	return g.Wait()
}

// relevant reports whether event may change the scan output. Cache writes are never relevant.
func relevant(cfg *domain.Config, event ports.WatchEvent) bool {
	if within(cfg.CacheDir, event.Path) {
		return false
	}

	name := filepath.Base(event.Path)
	for _, pattern := range cfg.Patterns {
		if matched, _ := filepath.Match(pattern, name); matched {
			return true
		}
	}

	switch event.Operation {
	case ports.OpRemove, ports.OpRename:
		// The path is gone, so it may have been a directory of binaries.
		return true
	case ports.OpCreate, ports.OpWrite:
		info, err := os.Stat(event.Path)
		return err == nil && info.IsDir()
	default:
		return false
	}
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
