// Package config provides configuration management for the boardgen CLI.
//
// This package extends the shared project configuration from
// internal/config with CLI-specific fields and the layered loader
// (defaults, config file, environment, flags).
package config

import (
	sharedcfg "github.com/leapstack-labs/boardgen/internal/config"
)

// CatalogConfig is an alias for the shared catalog configuration.
type CatalogConfig = sharedcfg.CatalogConfig

// Config holds all CLI configuration options.
type Config struct {
	sharedcfg.ProjectConfig `koanf:",squash"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values - uses shared defaults from internal/config
const (
	DefaultDriversDir = sharedcfg.DefaultDriversDir
	DefaultOutputFile = sharedcfg.DefaultOutputFile
	DefaultStateFile  = sharedcfg.DefaultStateFile
	DefaultHistory    = sharedcfg.DefaultHistory
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
