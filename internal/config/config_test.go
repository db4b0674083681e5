package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardgen/internal/testutil"
)

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, ConfigFileName, `
drivers_dir: drivers
indev_dir: /opt/indev
incremental: true
catalog:
  display: [st7796]
`)

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, filepath.Join(dir, "drivers"), cfg.DriversDir)
	assert.Equal(t, filepath.Join(dir, DefaultOutputFile), cfg.OutputFile)
	assert.Equal(t, filepath.Join(dir, DefaultStateFile), cfg.StatePath)
	assert.True(t, cfg.Incremental)
	assert.Equal(t, DefaultHistory, cfg.HistoryLimit)
	require.NotNil(t, cfg.Catalog)
	assert.Equal(t, []string{"st7796"}, cfg.Catalog.Display)

	dirs := cfg.CatalogDirs()
	assert.Equal(t, filepath.Join(dir, "drivers", "display"), dirs.Display)
	assert.Equal(t, "/opt/indev", dirs.Indev)
	assert.Equal(t, filepath.Join(dir, "drivers", "io_expander"), dirs.Expander)
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFromDir_Invalid(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, ConfigFileNameAlt, "drivers_dir: [unclosed\n")

	_, err := LoadFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigFileNameAlt)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, root, ConfigFileName, "incremental: false\n")
	nested := filepath.Join(root, "boards", "waveshare")
	testutil.WriteFile(t, nested, "board.toml", "")

	assert.Equal(t, root, FindProjectRoot(nested, 10))
	assert.Equal(t, "", FindProjectRoot(nested, 1), "search depth is bounded")
}
