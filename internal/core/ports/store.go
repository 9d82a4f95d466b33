package ports

import "go.trai.ch/canarist/internal/core/domain"

// ManifestStore defines the interface for reading and writing package manifests.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type ManifestStore interface {
	// Read parses the manifest at path.
	Read(path string) (domain.Manifest, error)

	// Write serializes the manifest to path.
	// It returns false if the file already held the same content.
	Write(path string, manifest domain.Manifest) (bool, error)

	// Glob returns the absolute, sorted paths below root matching pattern.
	Glob(root, pattern string) ([]string, error)
}
