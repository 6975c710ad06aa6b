package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanicIfNeeded(t *testing.T) {
	assert.NotPanics(t, func() { PanicIfNeeded(nil) })
	assert.PanicsWithValue(t, "boom", func() { PanicIfNeeded("boom") })
}

func TestExportPath(t *testing.T) {
	dir := t.TempDir()
	path, err := ExportPath(dir, "user/../1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "user____1.ics"), path)

	info, err := os.Stat(filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetPersistentServerID(t *testing.T) {
	assert.Equal(t, "node-a", GetPersistentServerID("node-a", t.TempDir()))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".server_id"), []byte("click-saved\n"), 0644))
	assert.Equal(t, "click-saved", GetPersistentServerID("", dir))

	fresh := t.TempDir()
	generated := GetPersistentServerID("", fresh)
	assert.True(t, strings.HasPrefix(generated, "click-"))
	assert.Equal(t, generated, GetPersistentServerID("", fresh), "minted id is reused on the next start")
}

func TestLoadConfig_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CLICK_TEST_SETTING=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CLICK_TEST_SETTING") })

	LoadConfig(dir)
	assert.Equal(t, "from-file", os.Getenv("CLICK_TEST_SETTING"))
	assert.Equal(t, "from-file", viper.GetString("click_test_setting"))
}

func TestGetMessageDigestOrSignature(t *testing.T) {
	sig, err := GetMessageDigestOrSignature([]byte("The quick brown fox jumps over the lazy dog"), []byte("key"))
	require.NoError(t, err)
	assert.Equal(t, "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8", sig)
}
