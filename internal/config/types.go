// Package config provides shared configuration types for boardgen.
// It is decoupled from CLI concerns so the engine and tests can load a
// project configuration without cobra.
package config

import (
	"path/filepath"

	"github.com/leapstack-labs/boardgen/internal/catalog"
)

// CatalogConfig lists extra driver names known without a drivers checkout.
type CatalogConfig struct {
	Display  []string `koanf:"display"`
	Indev    []string `koanf:"indev"`
	Expander []string `koanf:"expander"`
}

// ProjectConfig holds the project configuration shared by all commands.
type ProjectConfig struct {
	// DriversDir holds display/, indev/ and io_expander/ subdirectories.
	DriversDir string `koanf:"drivers_dir"`
	// Per-family overrides of the directories under DriversDir.
	DisplayDir  string `koanf:"display_dir"`
	IndevDir    string `koanf:"indev_dir"`
	ExpanderDir string `koanf:"expander_dir"`

	OutputFile   string         `koanf:"output_file"`
	StatePath    string         `koanf:"state_path"`
	Incremental  bool           `koanf:"incremental"`
	HistoryLimit int            `koanf:"history_limit"`
	Catalog      *CatalogConfig `koanf:"catalog"`
}

// CatalogDirs returns the driver directories to scan, applying per-family
// overrides. Relative overrides are taken as given.
func (c *ProjectConfig) CatalogDirs() catalog.Dirs {
	dirs := catalog.DirsUnder(c.DriversDir)
	if c.DisplayDir != "" {
		dirs.Display = c.DisplayDir
	}
	if c.IndevDir != "" {
		dirs.Indev = c.IndevDir
	}
	if c.ExpanderDir != "" {
		dirs.Expander = c.ExpanderDir
	}
	return dirs
}

// ResolvePaths makes every relative path absolute against baseDir.
func (c *ProjectConfig) ResolvePaths(baseDir string) {
	for _, p := range []*string{&c.DriversDir, &c.DisplayDir, &c.IndevDir, &c.ExpanderDir, &c.OutputFile, &c.StatePath} {
		*p = resolvePathRelativeTo(*p, baseDir)
	}
}

// resolvePathRelativeTo returns path unchanged if empty or absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
