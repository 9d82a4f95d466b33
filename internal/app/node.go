package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/canarist/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/fs"                 //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/git"                //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/shell"              //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/adapters/yarn"               //nolint:depguard // Wired in app layer
	"go.trai.ch/canarist/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			git.NodeID,
			fs.StoreNodeID,
			yarn.NodeID,
			shell.NodeID,
			progrock.NodeID,
			logger.NodeID,
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
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	cloner, err := graft.Dep[ports.Cloner](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.ManifestStore](ctx)
	if err != nil {
		return nil, err
	}

	packageManager, err := graft.Dep[ports.PackageManager](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[ports.Executor](ctx)
	if err != nil {
		return nil, err
	}

	telemetry, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, cloner, store, packageManager, executor, telemetry, log), nil
}
