// Package workspace assembles independent repositories into one workspace:
// it loads their manifests, synthesizes the root manifest and aligns the
// versions of the packages they share.
package workspace

import (
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
)

// Loader reads the manifests of cloned repositories and of their workspace members.
type Loader struct {
	store ports.ManifestStore
}

// NewLoader creates a new Loader reading through store.
func NewLoader(store ports.ManifestStore) *Loader {
	return &Loader{store: store}
}

// Load reads the root manifest of every repository below target and the
// manifests matched by its workspace patterns.
//
// Members are returned in pattern order, each pattern's matches sorted. A path
// matched by several patterns is loaded once. Two manifests sharing a package
// name are rejected with domain.ErrDuplicatePackageName.
func (l *Loader) Load(target string, repos []domain.Repository) ([]domain.LoadedRepository, error) {
	loaded := make([]domain.LoadedRepository, 0, len(repos))

	for _, repo := range repos {
		manifestPath := repo.ManifestPath(target)
		manifest, err := l.store.Read(manifestPath)
		if err != nil {
			return nil, zerr.With(err, "directory", repo.Directory)
		}

		members, err := l.loadMembers(target, repo, manifestPath, manifest.Workspaces.Patterns)
		if err != nil {
			return nil, zerr.With(err, "directory", repo.Directory)
		}

		loaded = append(loaded, domain.LoadedRepository{
			Repository: repo,
			Manifest:   manifest,
			Packages:   members,
		})
	}

	if err := checkUniqueNames(target, loaded); err != nil {
		return nil, err
	}
	return loaded, nil
}

func (l *Loader) loadMembers(target string, repo domain.Repository, rootPath string, patterns []string) ([]domain.Member, error) {
	seen := map[string]struct{}{rootPath: {}}
	var members []domain.Member

	for _, pattern := range patterns {
		scoped, err := scopePattern(repo.Directory, pattern)
		if err != nil {
			return nil, err
		}
		glob := path.Join(scoped, domain.ManifestFileName)
		paths, err := l.store.Glob(target, glob)
		if err != nil {
			return nil, zerr.With(err, "pattern", pattern)
		}

		for _, p := range paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}

			manifest, err := l.store.Read(p)
			if err != nil {
				return nil, err
			}
			members = append(members, domain.Member{Path: p, Manifest: manifest})
		}
	}
	return members, nil
}

// scopePattern joins pattern onto the repository directory. Patterns that
// resolve outside of it are rejected with domain.ErrInvalidWorkspacePattern.
func scopePattern(directory, pattern string) (string, error) {
	dir := path.Clean(filepath.ToSlash(directory))
	joined := path.Join(dir, pattern)
	if joined != dir && !strings.HasPrefix(joined, dir+"/") {
		err := zerr.With(domain.ErrInvalidWorkspacePattern, "pattern", pattern)
		return "", zerr.With(err, "directory", directory)
	}
	return joined, nil
}

// checkUniqueNames rejects a forest in which two manifests declare the same
// package name. Unnamed manifests cannot be depended upon and are ignored.
func checkUniqueNames(target string, repos []domain.LoadedRepository) error {
	owners := make(map[string]string)

	check := func(name, at string) error {
		if name == "" {
			return nil
		}
		if previous, ok := owners[name]; ok {
			err := zerr.With(domain.ErrDuplicatePackageName, "name", name)
			err = zerr.With(err, "first", previous)
			return zerr.With(err, "second", at)
		}
		owners[name] = at
		return nil
	}

	for _, repo := range repos {
		if err := check(repo.Manifest.Name, repo.ManifestPath(target)); err != nil {
			return err
		}
		for _, member := range repo.Packages {
			if err := check(member.Manifest.Name, member.Path); err != nil {
				return err
			}
		}
	}
	return nil
}
