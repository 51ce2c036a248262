// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/modman/internal/adapters/fetcher"
	_ "go.trai.ch/modman/internal/adapters/fs"
	_ "go.trai.ch/modman/internal/adapters/logger"
	_ "go.trai.ch/modman/internal/adapters/metrics"
	_ "go.trai.ch/modman/internal/adapters/modrinth"
	_ "go.trai.ch/modman/internal/adapters/settings"
	_ "go.trai.ch/modman/internal/adapters/store"
	_ "go.trai.ch/modman/internal/adapters/telemetry"
	_ "go.trai.ch/modman/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/modman/internal/adapters/watcher"
	// Register app and engine nodes.
	_ "go.trai.ch/modman/internal/app"
	_ "go.trai.ch/modman/internal/engine/downloader"
	_ "go.trai.ch/modman/internal/engine/reconciler"
	_ "go.trai.ch/modman/internal/engine/resolver"
)
