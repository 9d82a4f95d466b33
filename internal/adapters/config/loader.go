// Package config provides the configuration loader for canarist.
package config

import (
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/spf13/afero"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Loader implements ports.ConfigLoader on top of discovered config files.
type Loader struct {
	fs     afero.Fs
	logger ports.Logger
	env    Env
}

// NewLoader creates a new Loader reading the process environment.
func NewLoader(fs afero.Fs, logger ports.Logger) *Loader {
	return NewLoaderWithEnv(fs, logger, osEnv{})
}

// NewLoaderWithEnv creates a new Loader reading the given environment.
func NewLoaderWithEnv(fs afero.Fs, logger ports.Logger, env Env) *Loader {
	return &Loader{fs: fs, logger: logger, env: env}
}

// section holds the settings of the part of a config file that applies to a run.
type section struct {
	repositories    []RepositoryDTO
	targetDirectory string
	rootManifest    map[string]any
	yarnArguments   string
	unpin           bool
	jobs            int
}

// Load discovers the config file from cwd upwards and merges it with args.
//
// Command line repositories take precedence over the selected project, which
// takes precedence over a single config.
func (l *Loader) Load(cwd string, args domain.Arguments) (*domain.Config, error) {
	file, filePath, err := discover(l.fs, cwd)
	if err != nil {
		return nil, err
	}
	if file != nil {
		l.logger.Debug("using config file " + filePath)
	}

	sec, err := selectSection(file, args)
	if err != nil {
		return nil, err
	}

	cfg := &domain.Config{
		RootManifest:  sec.rootManifest,
		YarnArguments: sec.yarnArguments,
		Unpin:         args.Unpin || sec.unpin,
		Jobs:          1,
	}
	if args.YarnArguments != "" {
		cfg.YarnArguments = args.YarnArguments
	}
	switch {
	case args.Jobs > 0:
		cfg.Jobs = args.Jobs
	case sec.jobs > 0:
		cfg.Jobs = sec.jobs
	}

	if args.RootManifest != "" {
		var fragment map[string]any
		if err := json.Unmarshal([]byte(args.RootManifest), &fragment); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrInvalidRootManifest.Error()), "root_manifest", args.RootManifest)
		}
		cfg.RootManifest = fragment
	}
	if cfg.RootManifest == nil {
		cfg.RootManifest = map[string]any{}
	}

	inputs := args.Repositories
	if len(inputs) == 0 {
		inputs = make([]domain.RepositoryInput, 0, len(sec.repositories))
		for _, dto := range sec.repositories {
			inputs = append(inputs, dto.toInput())
		}
	}

	seen := make(map[string]string, len(inputs))
	for _, in := range inputs {
		repo, err := l.normalize(cwd, in)
		if err != nil {
			return nil, err
		}
		if first, ok := seen[repo.Directory]; ok {
			err := zerr.With(domain.ErrDuplicateDirectory, "directory", repo.Directory)
			err = zerr.With(err, "first", first)
			return nil, zerr.With(err, "second", repo.URL)
		}
		seen[repo.Directory] = repo.URL
		cfg.Repositories = append(cfg.Repositories, repo)
	}

	target := args.Target
	if target == "" {
		target = sec.targetDirectory
	}
	if target == "" {
		target, err = afero.TempDir(l.fs, "", "canarist-")
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrTargetCreateFailed.Error())
		}
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(cwd, target)
	}
	cfg.TargetDirectory = filepath.Clean(target)

	return cfg, nil
}

func selectSection(file *File, args domain.Arguments) (section, error) {
	if len(args.Repositories) == 0 {
		switch {
		case file == nil:
			return section{}, domain.ErrNoRepositories
		case args.Project != "" && !file.IsProjects():
			return section{}, zerr.With(domain.ErrProjectConfigMissing, "project", args.Project)
		case args.Project == "" && file.IsProjects():
			return section{}, domain.ErrNoProjectSelected
		}
	}

	if file == nil {
		return section{}, nil
	}

	if args.Project != "" && file.IsProjects() {
		project, ok := file.Project(args.Project)
		if !ok {
			return section{}, zerr.With(domain.ErrProjectNotFound, "project", args.Project)
		}
		if len(args.Repositories) == 0 && len(project.Repositories) == 0 {
			return section{}, zerr.With(domain.ErrNoRepositoriesConfigured, "project", args.Project)
		}
		return section{
			repositories:    project.Repositories,
			targetDirectory: firstNonEmpty(project.TargetDirectory, file.TargetDirectory),
			rootManifest:    firstNonNil(project.RootManifest, file.RootManifest),
			yarnArguments:   firstNonEmpty(project.YarnArguments, file.YarnArguments),
			unpin:           project.Unpin || file.Unpin,
			jobs:            max(project.Jobs, file.Jobs),
		}, nil
	}

	if len(args.Repositories) == 0 && len(file.Repositories) == 0 {
		return section{}, domain.ErrNoRepositoriesConfigured
	}
	return section{
		repositories:    file.Repositories,
		targetDirectory: file.TargetDirectory,
		rootManifest:    file.RootManifest,
		yarnArguments:   file.YarnArguments,
		unpin:           file.Unpin,
		jobs:            file.Jobs,
	}, nil
}

// normalize applies the defaults to a repository as written by the user.
func (l *Loader) normalize(cwd string, in domain.RepositoryInput) (domain.Repository, error) {
	url, err := decryptURL(l.env, strings.TrimSpace(in.URL))
	if err != nil {
		return domain.Repository{}, err
	}
	if url == "" {
		return domain.Repository{}, zerr.With(domain.ErrInvalidRepositoryArgument, "reason", "empty repository url")
	}

	endpoint, err := transport.NewEndpoint(url)
	if err != nil {
		return domain.Repository{}, zerr.With(zerr.Wrap(err, domain.ErrInvalidRepositoryArgument.Error()), "url", in.URL)
	}

	local := endpoint.Protocol == "file"
	name := endpoint.Path
	if local && !strings.HasPrefix(url, "file://") {
		if !filepath.IsAbs(url) {
			url = filepath.Join(cwd, url)
		}
		url = filepath.Clean(url)
		name = url
	}

	repo := domain.Repository{
		URL:       url,
		Branch:    domain.DefaultBranch,
		Directory: in.Directory,
		Commands:  in.Commands,
	}
	if local {
		repo.Branch = ""
	}
	if in.Branch != nil {
		repo.Branch = *in.Branch
	}
	if repo.Directory == "" {
		repo.Directory = repositoryName(name)
	}
	if repo.Commands == nil {
		repo.Commands = []string{domain.DefaultCommand}
	}
	return repo, nil
}

// repositoryName returns the last path element of a repository path without
// its ".git" suffix.
func repositoryName(p string) string {
	p = strings.TrimRight(filepath.ToSlash(p), "/")
	return strings.TrimSuffix(path.Base(p), ".git")
}

func (dto RepositoryDTO) toInput() domain.RepositoryInput {
	in := domain.RepositoryInput{
		URL:       dto.URL,
		Branch:    dto.Branch,
		Directory: dto.Directory,
	}
	if dto.Commands != nil {
		in.Commands = []string(dto.Commands)
	}
	return in
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(values ...map[string]any) map[string]any {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

type osEnv struct{}

func (osEnv) Getenv(key string) string  { return os.Getenv(key) }
func (osEnv) Unsetenv(key string) error { return os.Unsetenv(key) }
