package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/boardgen/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *Catalog {
	return New(
		[]string{"st7789", "rgb_display_wip.wip", "ILI9341", "rgb_display"},
		[]string{"gt911.py", "ft6x36.py"},
		[]string{"ch422g.py", "tca9554.py"},
	)
}

func TestCatalog_Canonical(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name     string
		input    string
		wantPath string
		wantOK   bool
	}{
		{name: "core type", input: "RGBDisplay", wantPath: "rgb_display.RGBDisplay", wantOK: true},
		{name: "core spi maps to machine", input: "SPI", wantPath: "machine.SPI", wantOK: true},
		{name: "core lookup is case-sensitive", input: "spi", wantOK: false},
		{name: "display driver class", input: "ST7789", wantPath: "st7789.ST7789", wantOK: true},
		{name: "display driver module name", input: "st7789", wantPath: "st7789", wantOK: true},
		{name: "display normalized from upper case", input: "ili9341", wantPath: "ili9341", wantOK: true},
		{name: "indev driver class", input: "GT911", wantPath: "gt911.GT911", wantOK: true},
		{name: "expander resolves to module", input: "CH422G", wantPath: "ch422g", wantOK: true},
		{name: "bus type", input: "RGBBus", wantPath: "lcd_bus.RGBBus", wantOK: true},
		{name: "bus lookup is case-sensitive", input: "rgbbus", wantOK: false},
		{name: "unknown", input: "Pin", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Canonical(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantPath, got)
		})
	}
}

func TestCatalog_ClassPath(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{input: "st7789", want: "st7789.ST7789", wantOK: true},
		{input: "gt911", want: "gt911.GT911", wantOK: true},
		{input: "rgb_display", want: "rgb_display.RGBDisplay", wantOK: true},
		{input: "ch422g", wantOK: false},
		{input: "ST7789", wantOK: false},
		{input: "rgb_display.RGBDisplay", wantOK: false},
		{input: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := c.ClassPath(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_Membership(t *testing.T) {
	c := testCatalog()

	f, ok := c.Family("GT911")
	require.True(t, ok)
	assert.Equal(t, FamilyIndev, f)

	assert.True(t, c.IsDriver("ch422g"))
	assert.False(t, c.IsDriver("rgb_display_wip"), "wip drivers are dropped")
	assert.False(t, c.IsDriver("machine"))

	assert.True(t, c.IsModule("machine"), "core modules are catalog modules")
	assert.True(t, c.IsModule("lcd_bus"))
	assert.True(t, c.IsModule("gt911"))
	assert.False(t, c.IsModule("lv"))

	assert.Equal(t, []string{"ft6x36", "gt911"}, c.Names(FamilyIndev))
}

func TestCatalog_Merge(t *testing.T) {
	c := testCatalog().Merge(nil, []string{"xpt2046"}, nil)

	assert.True(t, c.IsDriver("xpt2046"))
	assert.True(t, c.IsDriver("gt911"), "merge keeps existing drivers")
}

func TestFamily_TokenPrefix(t *testing.T) {
	assert.Equal(t, "DISPLAY", FamilyDisplay.TokenPrefix())
	assert.Equal(t, "INDEV", FamilyIndev.TokenPrefix())
	assert.Equal(t, "EXPANDER", FamilyExpander.TokenPrefix())
	assert.Equal(t, "", FamilyUnknown.TokenPrefix())
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	dirs := DirsUnder(root)

	mkdir := func(p string) {
		require.NoError(t, os.MkdirAll(p, 0o750))
	}
	touch := func(p string) {
		require.NoError(t, os.WriteFile(p, []byte("# driver\n"), 0o600))
	}

	mkdir(filepath.Join(dirs.Display, "st7789"))
	mkdir(filepath.Join(dirs.Display, "ili9488.wip"))
	touch(filepath.Join(dirs.Display, "display_driver_framework.py"))
	mkdir(dirs.Indev)
	touch(filepath.Join(dirs.Indev, "gt911.py"))
	touch(filepath.Join(dirs.Indev, "README.md"))
	touch(filepath.Join(dirs.Indev, "__init__.py"))
	// Expander directory intentionally missing.

	c, err := Discover(context.Background(), dirs, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"st7789"}, c.Names(FamilyDisplay))
	assert.Equal(t, []string{"gt911"}, c.Names(FamilyIndev))
	assert.Empty(t, c.Names(FamilyExpander))
}

func TestDiscover_UnreadableDirectory(t *testing.T) {
	root := t.TempDir()
	notADir := filepath.Join(root, "indev")
	require.NoError(t, os.WriteFile(notADir, []byte("x"), 0o600))

	_, err := Discover(context.Background(), Dirs{Indev: notADir}, nil)
	require.Error(t, err)

	var scanErr *ScanError
	require.True(t, errors.As(err, &scanErr))
	assert.Equal(t, FamilyIndev, scanErr.Family)
}
