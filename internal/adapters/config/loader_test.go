package config_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/hex"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/canarist/internal/adapters/config"
	"go.trai.ch/canarist/internal/core/domain"
	"go.trai.ch/canarist/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

const cwd = "/work/project"

type fakeEnv map[string]string

func (e fakeEnv) Getenv(key string) string { return e[key] }

func (e fakeEnv) Unsetenv(key string) error {
	delete(e, key)
	return nil
}

func newLoader(t *testing.T, files map[string]string) (*config.Loader, afero.Fs, fakeEnv) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).AnyTimes()

	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(cwd, 0o755))
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	env := fakeEnv{}
	return config.NewLoaderWithEnv(fsys, log, env), fsys, env
}

func ptr(s string) *string { return &s }

func TestLoad_RepositoriesFromArguments(t *testing.T) {
	loader, _, _ := newLoader(t, nil)

	cfg, err := loader.Load(cwd, domain.Arguments{
		Target: "out",
		Repositories: []domain.RepositoryInput{
			{URL: "https://github.com/xing/hops.git"},
			{URL: "git@github.com:xing/canarist.git", Branch: ptr("next"), Commands: []string{"yarn lint", "yarn test"}},
			{URL: "https://github.com/xing/hops.git", Directory: "hops-next", Commands: []string{}},
		},
		RootManifest:  `{"workspaces":["extra"]}`,
		YarnArguments: "--frozen-lockfile",
		Unpin:         true,
		Jobs:          4,
	})
	require.NoError(t, err)

	assert.Equal(t, &domain.Config{
		TargetDirectory: "/work/project/out",
		RootManifest:    map[string]any{"workspaces": []any{"extra"}},
		YarnArguments:   "--frozen-lockfile",
		Unpin:           true,
		Jobs:            4,
		Repositories: []domain.Repository{
			{URL: "https://github.com/xing/hops.git", Branch: "master", Directory: "hops", Commands: []string{"yarn test"}},
			{URL: "git@github.com:xing/canarist.git", Branch: "next", Directory: "canarist", Commands: []string{"yarn lint", "yarn test"}},
			{URL: "https://github.com/xing/hops.git", Branch: "master", Directory: "hops-next", Commands: []string{}},
		},
	}, cfg)
}

func TestLoad_LocalRepository(t *testing.T) {
	loader, _, _ := newLoader(t, nil)

	cfg, err := loader.Load(cwd, domain.Arguments{
		Target:       "/tmp/out",
		Repositories: []domain.RepositoryInput{{URL: "."}, {URL: "../hops/"}},
	})
	require.NoError(t, err)

	require.Len(t, cfg.Repositories, 2)
	assert.Equal(t, domain.Repository{
		URL: "/work/project", Directory: "project", Commands: []string{"yarn test"},
	}, cfg.Repositories[0])
	assert.Equal(t, domain.Repository{
		URL: "/work/hops", Directory: "hops", Commands: []string{"yarn test"},
	}, cfg.Repositories[1])
	assert.Equal(t, 1, cfg.Jobs)
	assert.Equal(t, map[string]any{}, cfg.RootManifest)
}

func TestLoad_SingleConfigDiscoveredUpwards(t *testing.T) {
	loader, _, _ := newLoader(t, map[string]string{
		"/work/.canaristrc.yaml": `
repositories:
  - https://github.com/xing/hops.git
  - url: https://github.com/xing/canarist.git
    branch: main
    directory: canary
    commands: yarn build
targetDirectory: /tmp/canarist-config
rootManifest:
  resolutions:
    jest: ^25.0.0
yarnArguments: --ignore-engines
unpin: true
jobs: 2
`,
	})

	cfg, err := loader.Load(cwd, domain.Arguments{})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/canarist-config", cfg.TargetDirectory)
	assert.Equal(t, map[string]any{"resolutions": map[string]any{"jest": "^25.0.0"}}, cfg.RootManifest)
	assert.Equal(t, "--ignore-engines", cfg.YarnArguments)
	assert.True(t, cfg.Unpin)
	assert.Equal(t, 2, cfg.Jobs)
	assert.Equal(t, []domain.Repository{
		{URL: "https://github.com/xing/hops.git", Branch: "master", Directory: "hops", Commands: []string{"yarn test"}},
		{URL: "https://github.com/xing/canarist.git", Branch: "main", Directory: "canary", Commands: []string{"yarn build"}},
	}, cfg.Repositories)
}

func TestLoad_ArgumentsOverrideConfig(t *testing.T) {
	loader, _, _ := newLoader(t, map[string]string{
		"/work/project/.canaristrc": `{"repositories": ["https://github.com/xing/hops.git"], "yarnArguments": "--a", "jobs": 2, "targetDirectory": "/tmp/a"}`,
	})

	cfg, err := loader.Load(cwd, domain.Arguments{
		Target:        "/tmp/b",
		Repositories:  []domain.RepositoryInput{{URL: "https://github.com/xing/canarist.git"}},
		YarnArguments: "--b",
		Jobs:          3,
		RootManifest:  `{"private":true}`,
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/b", cfg.TargetDirectory)
	assert.Equal(t, "--b", cfg.YarnArguments)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, map[string]any{"private": true}, cfg.RootManifest)
	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, "canarist", cfg.Repositories[0].Directory)
}

func TestLoad_PackageJSONKey(t *testing.T) {
	loader, _, _ := newLoader(t, map[string]string{
		"/work/project/package.json": `{"name": "no-config"}`,
		"/work/package.json": `{
  "name": "monorepo",
  "canarist": {
    "repositories": [{"url": "https://github.com/xing/hops.git", "commands": []}]
  }
}`,
	})

	cfg, err := loader.Load(cwd, domain.Arguments{Target: "/tmp/out"})
	require.NoError(t, err)

	require.Len(t, cfg.Repositories, 1)
	assert.Equal(t, []string{}, cfg.Repositories[0].Commands)
}

func TestLoad_Projects(t *testing.T) {
	files := map[string]string{
		"/work/project/canarist.config.yaml": `
yarnArguments: --shared
projects:
  - name: hops
    repositories:
      - https://github.com/xing/hops.git
    targetDirectory: /tmp/hops
  - name: empty
    repositories: []
`,
	}

	t.Run("selected project", func(t *testing.T) {
		loader, _, _ := newLoader(t, files)

		cfg, err := loader.Load(cwd, domain.Arguments{Project: "hops"})
		require.NoError(t, err)
		assert.Equal(t, "/tmp/hops", cfg.TargetDirectory)
		assert.Equal(t, "--shared", cfg.YarnArguments)
		require.Len(t, cfg.Repositories, 1)
		assert.Equal(t, "hops", cfg.Repositories[0].Directory)
	})

	tests := []struct {
		name     string
		args     domain.Arguments
		expected error
	}{
		{name: "no project selected", args: domain.Arguments{}, expected: domain.ErrNoProjectSelected},
		{name: "unknown project", args: domain.Arguments{Project: "other"}, expected: domain.ErrProjectNotFound},
		{name: "project without repositories", args: domain.Arguments{Project: "empty"}, expected: domain.ErrNoRepositoriesConfigured},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _, _ := newLoader(t, files)
			_, err := loader.Load(cwd, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected.Error())
		})
	}
}

func TestLoad_ConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		args     domain.Arguments
		expected error
	}{
		{
			name:     "no config and no repositories",
			expected: domain.ErrNoRepositories,
		},
		{
			name:     "empty repository list",
			files:    map[string]string{"/work/.canaristrc.yml": "repositories: []\n"},
			expected: domain.ErrNoRepositoriesConfigured,
		},
		{
			name:     "project without projects config",
			files:    map[string]string{"/work/.canaristrc.yml": "repositories: [a]\n"},
			args:     domain.Arguments{Project: "hops"},
			expected: domain.ErrProjectConfigMissing,
		},
		{
			name:     "malformed config",
			files:    map[string]string{"/work/.canaristrc.json": "{repositories: [\n"},
			expected: domain.ErrConfigParseFailed,
		},
		{
			name: "invalid root manifest",
			args: domain.Arguments{
				Repositories: []domain.RepositoryInput{{URL: "https://github.com/xing/hops.git"}},
				RootManifest: `["not", "an", "object"]`,
			},
			expected: domain.ErrInvalidRootManifest,
		},
		{
			name: "duplicate directories",
			args: domain.Arguments{
				Repositories: []domain.RepositoryInput{
					{URL: "https://github.com/xing/hops.git"},
					{URL: "https://github.com/other/hops.git"},
				},
			},
			expected: domain.ErrDuplicateDirectory,
		},
		{
			name:     "empty url",
			args:     domain.Arguments{Repositories: []domain.RepositoryInput{{URL: " "}}},
			expected: domain.ErrInvalidRepositoryArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader, _, _ := newLoader(t, tt.files)
			_, err := loader.Load(cwd, tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expected.Error())
		})
	}
}

func TestLoad_DuplicateDirectoryMetadata(t *testing.T) {
	loader, _, _ := newLoader(t, nil)

	_, err := loader.Load(cwd, domain.Arguments{
		Repositories: []domain.RepositoryInput{
			{URL: "https://github.com/xing/hops.git"},
			{URL: "https://github.com/other/hops.git"},
		},
	})
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	meta := zErr.Metadata()
	assert.Equal(t, "hops", meta["directory"])
	assert.Equal(t, "https://github.com/xing/hops.git", meta["first"])
	assert.Equal(t, "https://github.com/other/hops.git", meta["second"])
}

func TestLoad_TemporaryTarget(t *testing.T) {
	loader, fsys, _ := newLoader(t, nil)

	cfg, err := loader.Load(cwd, domain.Arguments{
		Repositories: []domain.RepositoryInput{{URL: "https://github.com/xing/hops.git"}},
	})
	require.NoError(t, err)

	assert.Contains(t, filepath.Base(cfg.TargetDirectory), "canarist-")
	exists, err := afero.DirExists(fsys, cfg.TargetDirectory)
	require.NoError(t, err)
	assert.True(t, exists)
}

func encrypt(t *testing.T, key []byte, plaintext string) string {
	t.Helper()
	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	n := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := append([]byte(plaintext), bytes.Repeat([]byte{byte(n)}, n)...)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, padded)
	return base64.StdEncoding.EncodeToString(out)
}

func TestLoad_EncryptedURL(t *testing.T) {
	key := bytes.Repeat([]byte{0x2a}, 32)
	secret := "https://token@github.com/xing/private.git"

	t.Run("decrypts and clears the key", func(t *testing.T) {
		loader, _, env := newLoader(t, nil)
		env[domain.EncryptionKeyEnv] = hex.EncodeToString(key)

		cfg, err := loader.Load(cwd, domain.Arguments{
			Target:       "/tmp/out",
			Repositories: []domain.RepositoryInput{{URL: "enc:" + encrypt(t, key, secret)}},
		})
		require.NoError(t, err)

		require.Len(t, cfg.Repositories, 1)
		assert.Equal(t, secret, cfg.Repositories[0].URL)
		assert.Equal(t, "private", cfg.Repositories[0].Directory)
		assert.NotContains(t, env, domain.EncryptionKeyEnv)
	})

	t.Run("invalid key", func(t *testing.T) {
		loader, _, env := newLoader(t, nil)
		env[domain.EncryptionKeyEnv] = "abc"

		_, err := loader.Load(cwd, domain.Arguments{
			Repositories: []domain.RepositoryInput{{URL: "enc:" + encrypt(t, key, secret)}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrInvalidEncryptionKey.Error())
	})

	t.Run("malformed ciphertext", func(t *testing.T) {
		loader, _, env := newLoader(t, nil)
		env[domain.EncryptionKeyEnv] = hex.EncodeToString(key)

		_, err := loader.Load(cwd, domain.Arguments{
			Repositories: []domain.RepositoryInput{{URL: "enc:bm90IGEgYmxvY2s="}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrDecryptFailed.Error())
	})
}
