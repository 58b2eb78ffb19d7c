package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCHEMASYNC_TEST_URL=sqlite://test.db\n"), 0644))
	t.Setenv("SCHEMASYNC_TEST_URL", "")
	os.Unsetenv("SCHEMASYNC_TEST_URL")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "sqlite://test.db", os.Getenv("SCHEMASYNC_TEST_URL"))
}

func TestLoadEnvKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SCHEMASYNC_TEST_KEEP=file\n"), 0644))
	t.Setenv("SCHEMASYNC_TEST_KEEP", "env")

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "env", os.Getenv("SCHEMASYNC_TEST_KEEP"))
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, LoadEnv(filepath.Join(t.TempDir(), "missing.env")))
}
