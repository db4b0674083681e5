// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/boardgen/internal/cli/output"
	"github.com/leapstack-labs/boardgen/internal/testutil"
)

// BoardConfig is a small board document exercising device flags, a display
// driver, a touch driver and an io expander.
const BoardConfig = `[MCU.esp32]
BOARD = "ESP32_GENERIC_S3"
flash_size = 16

[ch422g.Pin.bckl_pin]
id = "ch422g.EXIO2"
mode = "ch422g.Pin.OUT"
value = 1

[RGBDisplay.display]
display_width = 480
display_height = 480
backlight_pin = "bckl_pin"

[touch_addr]
value = "gt911.I2C_ADDR"

[display.init]
value = true
`

// BoardTokens are the build tokens of BoardConfig.
var BoardTokens = []string{
	"esp32",
	"BOARD=ESP32_GENERIC_S3",
	"--flash-size=16",
	"DISPLAY=rgb_display",
	"INDEV=gt911",
	"EXPANDER=ch422g",
}

// Project is a temporary boardgen project.
type Project struct {
	Root       string
	ConfigFile string
	Board      string
	OutputFile string
	StatePath  string
}

// SetupTestProject creates a temporary project: a drivers checkout, a
// boardgen.yaml pointing at it, and board.toml holding BoardConfig.
func SetupTestProject(t *testing.T) Project {
	t.Helper()

	drivers := testutil.SetupDriverTree(t,
		[]string{"rgb_display", "st7796"},
		[]string{"gt911", "ft6x36"},
		[]string{"ch422g"},
	)

	root := t.TempDir()
	cfg := "drivers_dir: " + drivers + "\n" +
		"output_file: build/display.py\n" +
		"state_path: .boardgen/state.db\n"

	return Project{
		Root:       root,
		ConfigFile: testutil.WriteFile(t, root, "boardgen.yaml", cfg),
		Board:      testutil.WriteFile(t, root, "board.toml", BoardConfig),
		OutputFile: filepath.Join(root, "build", "display.py"),
		StatePath:  filepath.Join(root, ".boardgen", "state.db"),
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a new test renderer in markdown mode.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the combined stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	// Check for balanced code fences
	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	// Check that headers have content
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
