package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/chainload/internal/adapters/cache"     //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/metrics"   //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/adapters/watcher"   //nolint:depguard // Wired in app layer
	"go.trai.ch/chainload/internal/core/ports"
	"go.trai.ch/chainload/internal/engine/chainloader"
	"go.trai.ch/chainload/internal/engine/scanner"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components holds the application components handed to the CLI.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			metrics.NodeID,
			scanner.NodeID,
			chainloader.NodeID,
			cache.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{App: a, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	m, err := graft.Dep[ports.Metrics](ctx)
	if err != nil {
		return nil, err
	}

	scan, err := graft.Dep[*scanner.Scanner](ctx)
	if err != nil {
		return nil, err
	}

	engine, err := graft.Dep[*chainloader.Chainloader](ctx)
	if err != nil {
		return nil, err
	}

	caches, err := graft.Dep[*cache.Factory](ctx)
	if err != nil {
		return nil, err
	}

	w, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, tracer, m, scan, engine, caches, w), nil
}
