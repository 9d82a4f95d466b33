// Package app implements the application layer for canarist.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/canarist/internal/engine/workspace"
	"go.trai.ch/zerr"
)

// Stage names reported to telemetry and attached to stage errors.
const (
	StageClone    = "clone"
	StageLoad     = "load"
	StageAlign    = "align"
	StagePersist  = "persist"
	StageInstall  = "install"
	StageCommands = "commands"
)

// commandEnv is added to the environment of every repository command.
var commandEnv = []string{"TERM=dumb"}

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	cloner         ports.Cloner
	store          ports.ManifestStore
	packageManager ports.PackageManager
	executor       ports.Executor
	telemetry      ports.Telemetry
	logger         ports.Logger
}

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	cloner ports.Cloner,
	store ports.ManifestStore,
	packageManager ports.PackageManager,
	executor ports.Executor,
	telemetry ports.Telemetry,
	log ports.Logger,
) *App {
	return &App{
		configLoader:   loader,
		cloner:         cloner,
		store:          store,
		packageManager: packageManager,
		executor:       executor,
		telemetry:      telemetry,
		logger:         log,
	}
}

// Run assembles the repositories named by args (or the discovered config) into
// one yarn workspace, installs it and runs every repository's commands.
func (a *App) Run(ctx context.Context, cwd string, args domain.Arguments) error {
	// 1. Load the configuration
	cfg, err := a.configLoader.Load(cwd, args)
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}
	defer func() {
		_ = a.telemetry.Close()
	}()
	a.logger.Info(fmt.Sprintf("assembling %d repositories in %q", len(cfg.Repositories), cfg.TargetDirectory))

	// 2. Clone
	err = a.stage(ctx, StageClone, func(ctx context.Context, _ ports.Vertex) error {
		return a.cloner.Clone(ctx, cfg.TargetDirectory, cfg.Repositories, cfg.Jobs)
	})
	if err != nil {
		return err
	}

	// 3. Load the forest
	var loaded []domain.LoadedRepository
	err = a.stage(ctx, StageLoad, func(_ context.Context, _ ports.Vertex) error {
		var loadErr error
		loaded, loadErr = workspace.NewLoader(a.store).Load(cfg.TargetDirectory, cfg.Repositories)
		return loadErr
	})
	if err != nil {
		return err
	}

	// 4. Synthesize the root manifest and align versions
	var root domain.Manifest
	var alignment workspace.Alignment
	err = a.stage(ctx, StageAlign, func(_ context.Context, v ports.Vertex) error {
		var conflicts []workspace.ResolutionConflict
		var synthErr error
		root, conflicts, synthErr = workspace.Synthesize(loaded, cfg.RootManifest)
		if synthErr != nil {
			return synthErr
		}
		for _, c := range conflicts {
			msg := fmt.Sprintf("resolution %q from %q overrides %q with %q", c.Name, c.Directory, c.Previous, c.Current)
			a.logger.Warn(msg)
			v.Log(domain.LogLevelWarn, msg)
		}

		alignment = workspace.Align(cfg.TargetDirectory, loaded, workspace.AlignOptions{Unpin: cfg.Unpin})
		for _, s := range alignment.Skipped {
			msg := fmt.Sprintf("cannot unpin %s %q in %q: %v", s.Section, s.Name, s.Path, s.Err)
			a.logger.Warn(msg)
			v.Log(domain.LogLevelWarn, msg)
		}
		for _, c := range alignment.Changes {
			a.logger.Debug(fmt.Sprintf("%s: %s %q %q -> %q", c.Path, c.Section, c.Name, c.From, c.To))
		}
		return nil
	})
	if err != nil {
		return err
	}

	// 5. Persist members first so the root manifest only exists once everything aligned
	err = a.stage(ctx, StagePersist, func(_ context.Context, v ports.Vertex) error {
		return a.persist(v, cfg.TargetDirectory, root, alignment.Manifests)
	})
	if err != nil {
		return err
	}

	// 6. Install
	err = a.stage(ctx, StageInstall, func(ctx context.Context, v ports.Vertex) error {
		a.logger.Info("installing dependencies with yarn")
		return a.packageManager.Install(ctx, cfg.TargetDirectory, cfg.YarnArguments, v.Stdout(), v.Stderr())
	})
	if err != nil {
		return err
	}

	// 7. Run the repository commands
	return a.stage(ctx, StageCommands, func(ctx context.Context, v ports.Vertex) error {
		return a.runCommands(ctx, v, cfg)
	})
}

// stage runs fn under its own telemetry vertex.
func (a *App) stage(ctx context.Context, name string, fn func(context.Context, ports.Vertex) error) error {
	ctx, v := a.telemetry.Record(ctx, name)
	err := fn(ctx, v)
	v.Complete(err)
	if err != nil {
		return zerr.With(err, "stage", name)
	}
	return nil
}

func (a *App) persist(v ports.Vertex, target string, root domain.Manifest, members []domain.Member) error {
	written := 0
	write := func(path string, m domain.Manifest) error {
		changed, err := a.store.Write(path, m)
		if err != nil {
			return err
		}
		if changed {
			written++
			a.logger.Debug("wrote " + path)
		}
		return nil
	}

	for _, member := range members {
		if err := write(member.Path, member.Manifest); err != nil {
			return err
		}
	}
	if err := write(filepath.Join(target, domain.ManifestFileName), root); err != nil {
		return err
	}

	if written == 0 {
		v.Cached()
	}
	return nil
}

func (a *App) runCommands(ctx context.Context, v ports.Vertex, cfg *domain.Config) error {
	for _, repo := range cfg.Repositories {
		dir := repo.Dir(cfg.TargetDirectory)
		for _, line := range repo.Commands {
			if strings.TrimSpace(line) == "" {
				a.logger.Debug(fmt.Sprintf("skipping empty command for %q", repo.URL))
				continue
			}

			a.logger.Info(fmt.Sprintf("executing command %q in %q", line, dir))
			cmd := domain.Command{Line: line, Dir: dir, Env: commandEnv}
			if err := a.executor.Execute(ctx, cmd, v.Stdout(), v.Stderr()); err != nil {
				wrapped := zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "command", line)
				return zerr.With(wrapped, "directory", dir)
			}
		}
	}
	return nil
}

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}
