// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/weld/internal/adapters/cas"
	_ "go.trai.ch/weld/internal/adapters/compress"
	_ "go.trai.ch/weld/internal/adapters/config"
	_ "go.trai.ch/weld/internal/adapters/fs"
	_ "go.trai.ch/weld/internal/adapters/logger"
	_ "go.trai.ch/weld/internal/adapters/modfile"
	_ "go.trai.ch/weld/internal/adapters/native"
	_ "go.trai.ch/weld/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/weld/internal/app"
	_ "go.trai.ch/weld/internal/engine/classify"
	_ "go.trai.ch/weld/internal/engine/embed"
	_ "go.trai.ch/weld/internal/engine/inject"
)
