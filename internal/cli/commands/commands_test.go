package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardgen/internal/cli/config"
	"github.com/leapstack-labs/boardgen/internal/cli/output"
	clitestutil "github.com/leapstack-labs/boardgen/internal/cli/testutil"
	"github.com/leapstack-labs/boardgen/internal/compiler"
	"github.com/leapstack-labs/boardgen/internal/engine"
	"github.com/leapstack-labs/boardgen/internal/state"
	"github.com/leapstack-labs/boardgen/internal/testutil"
)

// loadProject creates a test project and makes its configuration current.
func loadProject(t *testing.T, format string) (clitestutil.Project, *config.Config) {
	t.Helper()
	p := clitestutil.SetupTestProject(t)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	cfg, err := config.LoadConfig(p.ConfigFile, nil)
	require.NoError(t, err)
	cfg.OutputFormat = format
	return p, cfg
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewCompileCommand(), "compile <config>", []string{"stdout", "force"}},
		{NewTokensCommand(), "tokens <config>", nil},
		{NewCatalogCommand(), "catalog", []string{"core"}},
		{NewWatchCommand(), "watch <config>", []string{"debounce"}},
		{NewHistoryCommand(), "history", []string{"limit", "prune", "keep"}},
		{NewVersionCommand("test"), "version", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestCompileCommand_JSON(t *testing.T) {
	p, _ := loadProject(t, "json")

	out, err := execute(t, NewCompileCommand(), p.Board)
	require.NoError(t, err)

	var res output.CompileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Written)
	assert.Equal(t, p.OutputFile, res.Output)
	assert.Equal(t, "esp32", res.Device)
	assert.Equal(t, clitestutil.BoardTokens, res.Tokens)
	assert.Equal(t, []string{"ch422g", "rgb_display", "gt911"}, res.Imports)

	written, err := os.ReadFile(p.OutputFile)
	require.NoError(t, err)
	assert.Contains(t, string(written), "display = rgb_display.RGBDisplay(")
	assert.Contains(t, string(written), "touch_addr = gt911.I2C_ADDR")
}

func TestCompileCommand_Markdown(t *testing.T) {
	p, _ := loadProject(t, "markdown")

	out, err := execute(t, NewCompileCommand(), p.Board)
	require.NoError(t, err)

	clitestutil.AssertNoANSI(t, out)
	clitestutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Compiled "+p.Board)
	assert.Contains(t, out, "- **Status:** success")
	assert.Contains(t, out, "- **Device:** esp32")
	assert.Contains(t, out, "`"+strings.Join(clitestutil.BoardTokens, " ")+"`")
}

func TestCompileCommand_Stdout(t *testing.T) {
	p, _ := loadProject(t, "")

	out, err := execute(t, NewCompileCommand(), p.Board, "--stdout")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "from micropython import const\nimport lvgl as lv\n"))
	assert.NoFileExists(t, p.OutputFile)
}

func TestCompileCommand_Incremental(t *testing.T) {
	p, cfg := loadProject(t, "json")
	cfg.Incremental = true

	_, err := execute(t, NewCompileCommand(), p.Board)
	require.NoError(t, err)

	out, err := execute(t, NewCompileCommand(), p.Board)
	require.NoError(t, err)
	var res output.CompileOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Skipped)
	assert.Equal(t, clitestutil.BoardTokens, res.Tokens, "tokens come from the recorded build")

	out, err = execute(t, NewCompileCommand(), p.Board, "--force")
	require.NoError(t, err)
	res = output.CompileOutput{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.Skipped)
	assert.True(t, res.Written)
}

func TestCompileCommand_Error(t *testing.T) {
	p, _ := loadProject(t, "")
	bad := testutil.WriteFile(t, p.Root, "bad.toml", "[conditional.some.state]\nvalue = 1\n")

	_, err := execute(t, NewCompileCommand(), bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrStructural))
	assert.NoFileExists(t, p.OutputFile)

	_, err = execute(t, NewCompileCommand())
	assert.Error(t, err, "config argument required")
}

func TestTokensCommand(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: "text",
			check: func(t *testing.T, out string) {
				assert.Equal(t, strings.Join(clitestutil.BoardTokens, " ")+"\n", out)
			},
		},
		{
			format: "json",
			check: func(t *testing.T, out string) {
				var toks []string
				require.NoError(t, json.Unmarshal([]byte(out), &toks))
				assert.Equal(t, clitestutil.BoardTokens, toks)
			},
		},
		{
			format: "markdown",
			check: func(t *testing.T, out string) {
				assert.Contains(t, out, "# Build tokens")
				assert.Contains(t, out, "- INDEV=gt911")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			p, _ := loadProject(t, tt.format)

			out, err := execute(t, NewTokensCommand(), p.Board)
			require.NoError(t, err)
			tt.check(t, out)

			assert.NoFileExists(t, p.OutputFile, "tokens never writes output")
			assert.NoFileExists(t, p.StatePath, "tokens never records builds")
		})
	}
}

func TestCatalogCommand(t *testing.T) {
	_, _ = loadProject(t, "markdown")

	out, err := execute(t, NewCatalogCommand(), "--core")
	require.NoError(t, err)
	assert.Contains(t, out, "# Drivers (5 total)")
	assert.Contains(t, out, "| display | 2 | rgb_display, st7796 |")
	assert.Contains(t, out, "| indev | 2 | ft6x36, gt911 |")
	assert.Contains(t, out, "## Built-in types")
	assert.Contains(t, out, "| RGBDisplay | rgb_display.RGBDisplay |")

	_, cfg := loadProject(t, "json")
	cfg.Catalog = &config.CatalogConfig{Expander: []string{"tca9554"}}
	out, err = execute(t, NewCatalogCommand())
	require.NoError(t, err)

	var res output.CatalogOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"rgb_display", "st7796"}, res.Display)
	assert.Equal(t, []string{"ch422g", "tca9554"}, res.Expander)
}

func TestHistoryCommand(t *testing.T) {
	p, cfg := loadProject(t, "json")
	bad := testutil.WriteFile(t, p.Root, "bad.toml", "[exception.retry]\nx = 1\n")

	_, err := execute(t, NewCompileCommand(), p.Board)
	require.NoError(t, err)
	_, err = execute(t, NewCompileCommand(), bad)
	require.Error(t, err)

	out, err := execute(t, NewHistoryCommand())
	require.NoError(t, err)
	var res output.HistoryOutput
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Builds, 2)

	statuses := []string{res.Builds[0].Status, res.Builds[1].Status}
	assert.ElementsMatch(t, []string{string(state.BuildStatusSuccess), string(state.BuildStatusFailed)}, statuses)

	cfg.OutputFormat = "markdown"
	out, err = execute(t, NewHistoryCommand(), "--prune", "--keep", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 builds")
	assert.Contains(t, out, "# Builds (1 shown)")
}

func TestHistoryCommand_Disabled(t *testing.T) {
	_, cfg := loadProject(t, "")
	cfg.StatePath = ""

	_, err := execute(t, NewHistoryCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "build history is disabled")
}

func TestRenderOutcome_Text(t *testing.T) {
	tr := clitestutil.NewTestRendererText()
	out := &engine.Outcome{
		OutputPath: "display.py",
		Skipped:    true,
		Build:      &state.Build{Device: "esp32", Tokens: []string{"esp32"}},
	}

	require.NoError(t, renderOutcome(tr.Renderer, "board.toml", out))
	assert.Contains(t, tr.Output(), "board.toml")
	assert.Contains(t, tr.Output(), "up to date")
	assert.Contains(t, tr.Output(), "tokens: esp32")
}

func TestWatchDocument(t *testing.T) {
	dir := t.TempDir()
	doc := testutil.WriteFile(t, dir, "board.toml", "[a]\nvalue = 1\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchDocument(ctx, doc, 20*time.Millisecond, testutil.NewTestLogger(t), func() {
			changes <- struct{}{}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)

	// Unrelated files are ignored.
	testutil.WriteFile(t, dir, "other.toml", "x = 1\n")

	// A burst of writes yields one rebuild.
	for i := range 3 {
		require.NoError(t, os.WriteFile(doc, []byte(strings.Repeat("#\n", i+1)), 0o600))
	}

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change detected")
	}

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, changes, "burst debounced into one rebuild")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDocument_MissingDir(t *testing.T) {
	err := watchDocument(context.Background(), filepath.Join(t.TempDir(), "missing", "board.toml"),
		defaultDebounce, testutil.NewTestLogger(t), func() {})
	assert.Error(t, err)
}
