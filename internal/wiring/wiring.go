// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/chainload/internal/adapters/cache"
	_ "go.trai.ch/chainload/internal/adapters/config"
	_ "go.trai.ch/chainload/internal/adapters/logger"
	_ "go.trai.ch/chainload/internal/adapters/metrics"
	_ "go.trai.ch/chainload/internal/adapters/module"
	_ "go.trai.ch/chainload/internal/adapters/telemetry"
	_ "go.trai.ch/chainload/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/chainload/internal/app"
	_ "go.trai.ch/chainload/internal/engine/chainloader"
	_ "go.trai.ch/chainload/internal/engine/resolver"
	_ "go.trai.ch/chainload/internal/engine/scanner"
)
