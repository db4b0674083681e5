package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

var outputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DriversDir == "" {
		return fmt.Errorf("drivers_dir is required")
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative, got %d", c.HistoryLimit)
	}
	if c.OutputFormat != "" && !slices.Contains(outputFormats, c.OutputFormat) {
		return fmt.Errorf("unknown output format %q (expected one of: %s)",
			c.OutputFormat, strings.Join(outputFormats, ", "))
	}
	return nil
}

// ValidateDirectories checks that the drivers checkout exists. Commands that
// can run on configured catalog names alone only warn about it.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.DriversDir); os.IsNotExist(err) {
		return fmt.Errorf("drivers directory does not exist: %s\nHint: Check out the driver sources or use --drivers-dir to specify a different path", c.DriversDir)
	}
	return nil
}
