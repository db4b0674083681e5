package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardgen/internal/cli/config"
	"github.com/leapstack-labs/boardgen/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/boardgen/internal/config"
	"github.com/leapstack-labs/boardgen/internal/engine"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// engineOptions narrows what an engine created for a command may touch.
type engineOptions struct {
	// noOutput keeps the engine from writing the generated file.
	noOutput bool
	// noState disables the build history.
	noState bool
	// rebuild disables incremental skipping.
	rebuild bool
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	return newCommandContext(cmd, engineOptions{})
}

func newCommandContext(cmd *cobra.Command, opts engineOptions) (*CommandContext, func(), error) {
	cmdCtx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(commandContext(cmd), cmdCtx.Cfg, cmdCtx.Logger, opts)
	if err != nil {
		return nil, nil, err
	}
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need driver discovery.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(commandContext(cmd))
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// Helper functions shared across commands

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	cfg := &config.Config{
		ProjectConfig: sharedcfg.ProjectConfig{
			DriversDir: getEnvOrDefault("BOARDGEN_DRIVERS_DIR", config.DefaultDriversDir),
			OutputFile: getEnvOrDefault("BOARDGEN_OUTPUT_FILE", config.DefaultOutputFile),
			StatePath:  getEnvOrDefault("BOARDGEN_STATE_PATH", config.DefaultStateFile),
		},
		Verbose:      os.Getenv("BOARDGEN_VERBOSE") == "true",
		OutputFormat: os.Getenv("BOARDGEN_OUTPUT"),
	}
	sharedcfg.ApplyDefaults(&cfg.ProjectConfig)
	return cfg
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts engineOptions) (*engine.Engine, error) {
	if err := cfg.ValidateDirectories(); err != nil {
		// Discovery yields empty families; configured catalog names still apply.
		logger.Warn("drivers directory missing, driver tokens will be limited to the configured catalog",
			slog.String("drivers_dir", cfg.DriversDir))
	}

	engineCfg := engine.Config{
		Dirs:         cfg.CatalogDirs(),
		Extra:        cfg.Catalog,
		OutputFile:   cfg.OutputFile,
		StatePath:    cfg.StatePath,
		Incremental:  cfg.Incremental,
		HistoryLimit: cfg.HistoryLimit,
		Logger:       logger,
	}
	if opts.noOutput {
		engineCfg.OutputFile = ""
		engineCfg.Incremental = false
	}
	if opts.rebuild {
		engineCfg.Incremental = false
	}
	if opts.noState {
		engineCfg.StatePath = ""
	}

	return engine.New(ctx, engineCfg)
}
