package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	origDir := getConfigDirFunc
	origPath := getConfigPathFunc
	getConfigDirFunc = func() (string, error) { return dir, nil }
	getConfigPathFunc = func() (string, error) { return filepath.Join(dir, "config.json"), nil }
	t.Cleanup(func() {
		getConfigDirFunc = origDir
		getConfigPathFunc = origPath
	})

	return dir
}

func TestSaveAndLoadGlobalConfig(t *testing.T) {
	withTempConfigDir(t)

	cfg := &GlobalConfig{
		APIToken: "secret-token",
		APIURL:   "http://localhost:8080",
		Tenant:   "rs_a_db",
	}
	require.NoError(t, SaveGlobalConfig(cfg))

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg, loaded)
}

func TestSaveGlobalConfig_Permissions(t *testing.T) {
	dir := withTempConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://localhost:8080"}))

	info, err := os.Stat(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	// the token is a credential; keep the file private
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadGlobalConfig_Missing(t *testing.T) {
	withTempConfigDir(t)

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestLoadGlobalConfig_Corrupt(t *testing.T) {
	dir := withTempConfigDir(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{not json"), 0600))

	_, err := LoadGlobalConfig()
	assert.Error(t, err)
}

func TestDeleteGlobalConfig(t *testing.T) {
	withTempConfigDir(t)

	require.NoError(t, SaveGlobalConfig(&GlobalConfig{APIURL: "http://localhost:8080"}))
	require.NoError(t, DeleteGlobalConfig())

	loaded, err := LoadGlobalConfig()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// deleting again is a no-op
	assert.NoError(t, DeleteGlobalConfig())
}

func TestSaveGlobalConfig_Nil(t *testing.T) {
	assert.Error(t, SaveGlobalConfig(nil))
}
