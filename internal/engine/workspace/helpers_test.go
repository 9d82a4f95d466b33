package workspace_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/core/domain"
)

const target = "/tmp/canarist-test"

func manifest(t *testing.T, data string) domain.Manifest {
	t.Helper()
	m, err := domain.ParseManifest([]byte(data))
	require.NoError(t, err)
	return m
}

func memberPath(parts ...string) string {
	return filepath.Join(append([]string{target}, parts...)...)
}

// exampleForest is the canarist + hops forest.
func exampleForest(t *testing.T) []domain.LoadedRepository {
	t.Helper()
	return []domain.LoadedRepository{
		{
			Repository: domain.Repository{URL: "https://github.com/xing/canarist.git", Branch: "master", Directory: "canarist"},
			Manifest:   manifest(t, `{"name": "canarist", "version": "1.0.0"}`),
		},
		{
			Repository: domain.Repository{URL: "https://github.com/xing/hops.git", Branch: "master", Directory: "hops"},
			Manifest:   manifest(t, `{"name": "hops", "version": "1.0.0", "workspaces": ["demo", "packages/*"]}`),
			Packages: []domain.Member{
				{
					Path:     memberPath("hops", "demo", "package.json"),
					Manifest: manifest(t, `{"name": "hops-demo", "version": "1.0.0", "dependencies": {"canarist": "0.0.1"}}`),
				},
				{
					Path:     memberPath("hops", "packages", "package-1", "package.json"),
					Manifest: manifest(t, `{"name": "package-1", "version": "1.0.0"}`),
				},
				{
					Path: memberPath("hops", "packages", "package-2", "package.json"),
					Manifest: manifest(t, `{
						"name": "package-2",
						"version": "1.0.0",
						"dependencies": {"left-pad": "0.0.1"},
						"devDependencies": {"canarist": "^0.0.1", "package-1": "1.0.0"}
					}`),
				},
			},
		},
	}
}
