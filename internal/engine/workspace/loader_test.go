package workspace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports/mocks"
	"go.trai.ch/canarist/internal/engine/workspace"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestLoader_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	repos := []domain.Repository{
		{Directory: "canarist"},
		{Directory: "hops"},
	}

	demo := memberPath("hops", "demo", "package.json")
	pkg1 := memberPath("hops", "packages", "package-1", "package.json")
	pkg2 := memberPath("hops", "packages", "package-2", "package.json")

	store.EXPECT().Read(memberPath("canarist", "package.json")).
		Return(manifest(t, `{"name": "canarist", "version": "1.0.0"}`), nil)
	store.EXPECT().Read(memberPath("hops", "package.json")).
		Return(manifest(t, `{"name": "hops", "version": "1.0.0", "workspaces": ["demo", "packages/*", "packages/package-1"]}`), nil)
	store.EXPECT().Glob(target, "hops/demo/package.json").Return([]string{demo}, nil)
	store.EXPECT().Glob(target, "hops/packages/*/package.json").Return([]string{pkg1, pkg2}, nil)
	store.EXPECT().Glob(target, "hops/packages/package-1/package.json").Return([]string{pkg1}, nil)
	store.EXPECT().Read(demo).Return(manifest(t, `{"name": "hops-demo", "version": "1.0.0"}`), nil)
	store.EXPECT().Read(pkg1).Return(manifest(t, `{"name": "package-1", "version": "1.0.0"}`), nil)
	store.EXPECT().Read(pkg2).Return(manifest(t, `{"name": "package-2", "version": "1.0.0"}`), nil)

	loaded, err := workspace.NewLoader(store).Load(target, repos)
	require.NoError(t, err)

	require.Len(t, loaded, 2)
	assert.Equal(t, "canarist", loaded[0].Manifest.Name)
	assert.Empty(t, loaded[0].Packages)

	require.Len(t, loaded[1].Packages, 3)
	assert.Equal(t, demo, loaded[1].Packages[0].Path)
	assert.Equal(t, pkg1, loaded[1].Packages[1].Path)
	assert.Equal(t, "package-2", loaded[1].Packages[2].Manifest.Name)
}

func TestLoader_Load_SkipsRootManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	rootPath := memberPath("mono", "package.json")
	store.EXPECT().Read(rootPath).Return(manifest(t, `{"name": "mono", "workspaces": ["."]}`), nil)
	store.EXPECT().Glob(target, "mono/package.json").Return([]string{rootPath}, nil)

	loaded, err := workspace.NewLoader(store).Load(target, []domain.Repository{{Directory: "mono"}})
	require.NoError(t, err)
	assert.Empty(t, loaded[0].Packages)
}

func TestLoader_Load_MissingManifest(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	store.EXPECT().Read(memberPath("canarist", "package.json")).
		Return(domain.Manifest{}, zerr.With(domain.ErrManifestReadFailed, "path", memberPath("canarist", "package.json")))

	_, err := workspace.NewLoader(store).Load(target, []domain.Repository{{Directory: "canarist"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrManifestReadFailed.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "canarist", zErr.Metadata()["directory"])
}

func TestLoader_Load_DuplicatePackageName(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	store.EXPECT().Read(memberPath("one", "package.json")).
		Return(manifest(t, `{"name": "shared", "version": "1.0.0"}`), nil)
	store.EXPECT().Read(memberPath("two", "package.json")).
		Return(manifest(t, `{"name": "shared", "version": "2.0.0"}`), nil)

	_, err := workspace.NewLoader(store).Load(target, []domain.Repository{{Directory: "one"}, {Directory: "two"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrDuplicatePackageName.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "shared", zErr.Metadata()["name"])
	assert.Equal(t, memberPath("one", "package.json"), zErr.Metadata()["first"])
	assert.Equal(t, memberPath("two", "package.json"), zErr.Metadata()["second"])
}

func TestLoader_Load_GlobError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	store.EXPECT().Read(memberPath("hops", "package.json")).
		Return(manifest(t, `{"name": "hops", "workspaces": ["[invalid"]}`), nil)
	store.EXPECT().Glob(target, "hops/[invalid/package.json").
		Return(nil, zerr.Wrap(assert.AnError, domain.ErrGlobFailed.Error()))

	_, err := workspace.NewLoader(store).Load(target, []domain.Repository{{Directory: "hops"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrGlobFailed.Error())
}

func TestLoader_Load_PatternOutsideRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockManifestStore(ctrl)

	store.EXPECT().Read(memberPath("hops", "package.json")).
		Return(manifest(t, `{"name": "hops", "workspaces": ["../canarist/*"]}`), nil)

	_, err := workspace.NewLoader(store).Load(target, []domain.Repository{{Directory: "hops"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrInvalidWorkspacePattern.Error())

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok)
	assert.Equal(t, "../canarist/*", zErr.Metadata()["pattern"])
	assert.Equal(t, "hops", zErr.Metadata()["directory"])
}
