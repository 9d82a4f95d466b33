package workspace

import (
	"bytes"
	"encoding/json"
	"maps"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/engine/merge"
	"go.trai.ch/zerr"
)

// fileProtocol prefixes resolutions pointing at a local path.
const fileProtocol = "file:"

// rootKeyOrder is the key order of the synthesized root manifest. Keys added
// by the user fragment follow in sorted order.
var rootKeyOrder = []string{"name", "version", "private", "workspaces", "resolutions"}

// ResolutionConflict records two repositories forcing different versions of
// the same package. The later declaration wins.
type ResolutionConflict struct {
	Name      string
	Previous  string
	Current   string
	Directory string
}

// Synthesize builds the root manifest declaring every repository and its
// workspace patterns as members of one workspace.
//
// Resolutions of all repositories are folded in repository order and the
// conflicts found on the way are returned. The user fragment is deep-merged
// last. Workspace or nohoist patterns leaving their repository directory and a
// fragment that does not form a valid manifest are errors.
func Synthesize(repos []domain.LoadedRepository, fragment map[string]any) (domain.Manifest, []ResolutionConflict, error) {
	var (
		packages []any
		nohoist  []any
	)
	for _, repo := range repos {
		packages = append(packages, filepath.ToSlash(repo.Directory))
		for _, pattern := range repo.Manifest.Workspaces.Patterns {
			scoped, err := scopePattern(repo.Directory, pattern)
			if err != nil {
				return domain.Manifest{}, nil, err
			}
			packages = append(packages, scoped)
		}
		for _, pattern := range repo.Manifest.Workspaces.Nohoist {
			scoped, err := scopePattern(repo.Directory, pattern)
			if err != nil {
				return domain.Manifest{}, nil, err
			}
			nohoist = append(nohoist, scoped)
		}
	}
	if packages == nil {
		packages = []any{}
	}

	resolutions, conflicts := foldResolutions(repos)

	var workspaces any = packages
	if len(nohoist) > 0 {
		workspaces = map[string]any{"nohoist": nohoist, "packages": packages}
	}

	base := map[string]any{
		"name":        domain.RootPackageName,
		"version":     domain.RootPackageVersion,
		"private":     true,
		"workspaces":  workspaces,
		"resolutions": resolutions,
	}

	data, err := encodeOrdered(merge.Merge(base, fragment))
	if err != nil {
		return domain.Manifest{}, nil, zerr.Wrap(err, domain.ErrInvalidRootManifest.Error())
	}
	root, err := domain.ParseManifest(data)
	if err != nil {
		return domain.Manifest{}, nil, zerr.Wrap(err, domain.ErrInvalidRootManifest.Error())
	}
	return root, conflicts, nil
}

func foldResolutions(repos []domain.LoadedRepository) (map[string]any, []ResolutionConflict) {
	resolutions := make(map[string]any)
	var conflicts []ResolutionConflict

	for _, repo := range repos {
		declared := repo.Manifest.Resolutions
		for _, name := range slices.Sorted(maps.Keys(declared)) {
			value := rebaseFile(declared[name], repo.Directory)
			if previous, ok := resolutions[name].(string); ok && previous != value {
				conflicts = append(conflicts, ResolutionConflict{
					Name:      name,
					Previous:  previous,
					Current:   value,
					Directory: repo.Directory,
				})
			}
			resolutions[name] = value
		}
	}
	return resolutions, conflicts
}

// rebaseFile makes a file: resolution relative to the target instead of the
// declaring repository.
func rebaseFile(value, dir string) string {
	rel, ok := strings.CutPrefix(value, fileProtocol)
	if !ok {
		return value
	}
	return fileProtocol + path.Join(filepath.ToSlash(dir), rel)
}

// encodeOrdered encodes a document with the root manifest keys first.
func encodeOrdered(doc map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(doc))
	for _, key := range rootKeyOrder {
		if _, ok := doc[key]; ok {
			keys = append(keys, key)
		}
	}
	for _, key := range slices.Sorted(maps.Keys(doc)) {
		if !slices.Contains(rootKeyOrder, key) {
			keys = append(keys, key)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(doc[key]); err != nil {
			return nil, zerr.With(err, "field", key)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
