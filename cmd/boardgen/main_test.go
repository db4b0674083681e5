// Package main provides tests for the boardgen CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardgen/internal/cli"
	"github.com/leapstack-labs/boardgen/internal/cli/config"
	clitestutil "github.com/leapstack-labs/boardgen/internal/cli/testutil"
	"github.com/leapstack-labs/boardgen/internal/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "boardgen v"+cli.Version)
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"compile", "tokens", "catalog", "watch", "history", "completion"} {
		assert.Contains(t, out, expected, "help output should list %q", expected)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "boardgen")

	_, err = run(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestCompileCommand(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	out, err := run(t, "compile", p.Board, "--config", p.ConfigFile, "--output", "json")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, true, res["written"])
	assert.FileExists(t, p.OutputFile)
	assert.FileExists(t, p.StatePath)
}

func TestCompileCommand_FlagOverrides(t *testing.T) {
	p := clitestutil.SetupTestProject(t)
	outFile := filepath.Join(t.TempDir(), "generated.py")

	_, err := run(t, "compile", p.Board,
		"--config", p.ConfigFile,
		"--output-file", outFile,
		"--state", ":memory:",
	)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "from micropython import const\n"))
	assert.NoFileExists(t, p.OutputFile)
	assert.NoFileExists(t, p.StatePath)
}

func TestTokensCommand_YAML(t *testing.T) {
	p := clitestutil.SetupTestProject(t)
	board := testutil.WriteFile(t, p.Root, "board.yaml", `MCU:
  esp32:
    BOARD: ESP32_GENERIC
RGBDisplay:
  display:
    display_width: 320
`)

	out, err := run(t, "tokens", board, "--config", p.ConfigFile, "--output", "text")
	require.NoError(t, err)
	assert.Equal(t, "esp32 BOARD=ESP32_GENERIC DISPLAY=rgb_display\n", out)
}

func TestInvalidConfig(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	_, err := run(t, "tokens", p.Board, "--config", p.ConfigFile, "--output", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
