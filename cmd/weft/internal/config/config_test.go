package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadAppliesDefaultsToPartialConfig(t *testing.T) {
	dir := t.TempDir()
	data := []byte("dialect: vue\ndev:\n  port: 9000\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), data, 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "vue", cfg.Dialect)
	assert.Equal(t, 9000, cfg.Dev.Port)
	assert.Equal(t, "localhost", cfg.Dev.Host)
	assert.Equal(t, "templates", cfg.TemplatesDir)
	assert.Equal(t, "css", cfg.Styles.OutputFormat)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Dialect = "vue"
	cfg.Extensions = []string{"bem"}
	cfg.Styles.OutputFormat = "scss"

	require.NoError(t, Save(cfg, dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Dialect = "svelte"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Styles.OutputFormat = "less"
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("dialect: [unclosed"), 0644))

	_, err := Load(dir)
	assert.Error(t, err)
}
