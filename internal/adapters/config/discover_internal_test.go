package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PackageJSON(t *testing.T) {
	t.Run("canarist key", func(t *testing.T) {
		file, found, err := parse("package.json", []byte(
			`{"name": "canarist-root", "canarist": {"repositories": [{"url": "https://github.com/xing/hops.git", "commands": ["yarn lint"]}]}}`,
		))
		require.NoError(t, err)
		require.True(t, found)
		require.Len(t, file.Repositories, 1)
		assert.Equal(t, "https://github.com/xing/hops.git", file.Repositories[0].URL)
		assert.Equal(t, StringList{"yarn lint"}, file.Repositories[0].Commands)
	})

	t.Run("without canarist key", func(t *testing.T) {
		file, found, err := parse("package.json", []byte(`{"name": "canarist-root"}`))
		require.NoError(t, err)
		assert.False(t, found)
		assert.Nil(t, file)
	})
}
