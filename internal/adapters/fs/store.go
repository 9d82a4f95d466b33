package fs

import (
	"os"

	"github.com/spf13/afero"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ManifestStore = (*ManifestStore)(nil)

const manifestPerm os.FileMode = 0o644

// ManifestStore implements ports.ManifestStore on an afero file system.
type ManifestStore struct {
	fs     afero.Fs
	walker *Walker
	hasher *Hasher
}

// NewManifestStore creates a new ManifestStore.
func NewManifestStore(fs afero.Fs, walker *Walker, hasher *Hasher) *ManifestStore {
	return &ManifestStore{fs: fs, walker: walker, hasher: hasher}
}

// Read parses the manifest at path.
func (s *ManifestStore) Read(path string) (domain.Manifest, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	manifest, err := domain.ParseManifest(data)
	if err != nil {
		return domain.Manifest{}, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return manifest, nil
}

// Write serializes the manifest to path. A file already holding the same
// content is left untouched and false is returned.
func (s *ManifestStore) Write(path string, manifest domain.Manifest) (bool, error) {
	data, err := manifest.Encode()
	if err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}

	if current, err := s.hasher.ComputeFileHash(path); err == nil && current == s.hasher.ComputeHash(data) {
		return false, nil
	}

	if err := afero.WriteFile(s.fs, path, data, manifestPerm); err != nil {
		return false, zerr.With(zerr.Wrap(err, domain.ErrManifestWriteFailed.Error()), "path", path)
	}
	return true, nil
}

// Glob returns the absolute, sorted paths below root matching pattern.
func (s *ManifestStore) Glob(root, pattern string) ([]string, error) {
	return glob(s.fs, s.walker, root, pattern)
}
