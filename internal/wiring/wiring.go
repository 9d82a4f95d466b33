// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/canarist/internal/adapters/config"
	_ "go.trai.ch/canarist/internal/adapters/fs"
	_ "go.trai.ch/canarist/internal/adapters/git"
	_ "go.trai.ch/canarist/internal/adapters/logger"
	_ "go.trai.ch/canarist/internal/adapters/shell"
	_ "go.trai.ch/canarist/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/canarist/internal/adapters/yarn"
	// Register app nodes.
	_ "go.trai.ch/canarist/internal/app"
)
