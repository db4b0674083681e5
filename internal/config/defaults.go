package config

// Default configuration values.
const (
	DefaultDriversDir = "api_drivers/common_api_drivers"
	DefaultOutputFile = "display.py"
	DefaultStateFile  = ".boardgen/state.db"
	DefaultHistory    = 50
)

// ApplyDefaults fills unset fields of a ProjectConfig.
func ApplyDefaults(c *ProjectConfig) {
	if c == nil {
		return
	}
	if c.DriversDir == "" {
		c.DriversDir = DefaultDriversDir
	}
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = DefaultHistory
	}
}
