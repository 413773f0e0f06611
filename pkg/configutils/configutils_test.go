package configutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "logging:\n  level: DEBUG\n")

	v := viper.New()
	require.NoError(t, LoadFile(v, path))
	assert.Equal(t, "DEBUG", v.GetString("logging.level"))
}

func TestLoadFileMissing(t *testing.T) {
	v := viper.New()
	assert.Error(t, LoadFile(v, filepath.Join(t.TempDir(), "nope.yaml")))
}

func TestLoadFileUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.conf", "whatever")

	v := viper.New()
	assert.Error(t, LoadFile(v, path))
}

func TestLoadFileNoExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config", "whatever")

	v := viper.New()
	assert.Error(t, LoadFile(v, path))
}
