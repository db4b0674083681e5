package compiler

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/document"
	"github.com/leapstack-labs/boardgen/internal/testutil"
	"github.com/leapstack-labs/boardgen/internal/tokens"
)

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]string{"rgb_display", "st7796"},
		[]string{"gt911"},
		[]string{"ch422g.py"},
	)
}

func parseTOML(t *testing.T, src string) document.Mapping {
	t.Helper()
	doc, err := document.Parse([]byte(src), document.FormatTOML)
	require.NoError(t, err)
	return doc
}

func compileTOML(t *testing.T, src string) (*Result, error) {
	t.Helper()
	return New(testCatalog(), testutil.NewTestLogger(t)).Compile(parseTOML(t, src))
}

func assertSource(t *testing.T, want, got string) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("generated source mismatch (-want +got):\n%s", diff)
	}
}

const boardTOML = `
[MCU.esp32]
BOARD = "ESP32_GENERIC_S3"
flash_size = 16

[ch422g.Pin.bckl_pin]
id = "ch422g.EXIO2"
mode = "ch422g.Pin.OUT"
value = 1

[RGBDisplay.display]
data_bus = "display_bus"
display_width = 480
display_height = 480
backlight_pin = "bckl_pin"

[display.set_backlight]
params = [100]

[display.init]
value = true

[task_handler.TaskHandler]
params = []
`

const boardSource = `from micropython import const
import lvgl as lv

import ch422g
import rgb_display
import task_handler

_DISPLAY_WIDTH = const(480)
_DISPLAY_HEIGHT = const(480)

bckl_pin = ch422g.Pin(
    id=ch422g.EXIO2,
    mode=ch422g.Pin.OUT,
    value=1
)

display = rgb_display.RGBDisplay(
    data_bus=display_bus,
    display_width=_DISPLAY_WIDTH,
    display_height=_DISPLAY_HEIGHT,
    backlight_pin=bckl_pin
)

display.set_backlight(100)
display.init()
task_handler.TaskHandler()
`

func TestCompile_Board(t *testing.T) {
	res, err := compileTOML(t, boardTOML)
	require.NoError(t, err)

	assertSource(t, boardSource, res.Source)
	assert.Equal(t, []string{"ch422g", "rgb_display", "task_handler"}, res.Imports)
	assert.Equal(t, []string{
		"esp32",
		"BOARD=ESP32_GENERIC_S3",
		"--flash-size=16",
		"DISPLAY=rgb_display",
		"EXPANDER=ch422g",
	}, res.Tokens)
	require.NotNil(t, res.Device)
	assert.Equal(t, "esp32", res.Device.Name)
}

func TestCompile_YAMLMatchesTOML(t *testing.T) {
	yamlDoc := `
MCU:
  esp32:
    BOARD: ESP32_GENERIC_S3
    flash_size: 16
ch422g:
  Pin:
    bckl_pin:
      id: ch422g.EXIO2
      mode: ch422g.Pin.OUT
      value: 1
RGBDisplay:
  display:
    data_bus: display_bus
    display_width: 480
    display_height: 480
    backlight_pin: bckl_pin
display:
  set_backlight:
    params: [100]
  init:
    value: true
task_handler:
  TaskHandler:
    params: []
`
	doc, err := document.Parse([]byte(yamlDoc), document.FormatYAML)
	require.NoError(t, err)

	res, err := New(testCatalog(), nil).Compile(doc)
	require.NoError(t, err)
	assertSource(t, boardSource, res.Source)
}

func TestCompile_BusWithHoistedConstants(t *testing.T) {
	res, err := compileTOML(t, `
[SPIBus.spi_bus]
id = 2
freq = 400000

[SPIBus.spi_bus_2]
id = 3
`)
	require.NoError(t, err)

	want := `from micropython import const
import lvgl as lv

import lcd_bus

_SPI_BUS_ID = const(2)
_SPI_BUS_FREQ = const(400000)
_SPI_BUS_2_ID = const(3)

spi_bus = lcd_bus.SPIBus(
    id=_SPI_BUS_ID,
    freq=_SPI_BUS_FREQ
)

spi_bus_2 = lcd_bus.SPIBus(id=_SPI_BUS_2_ID)
`
	assertSource(t, want, res.Source)
	assert.Equal(t, []string{"lcd_bus"}, res.Imports, "bus module imported once")
	assert.Empty(t, res.Tokens, "core modules produce no driver tokens")
}

func TestCompile_SharedDriverImport(t *testing.T) {
	res, err := compileTOML(t, `
[MCU.esp32]
BOARD = "ESP32_GENERIC_S3"

[touch_addr]
value = "gt911.I2C_ADDR"

[touch_bits]
value = "gt911.BITS"
`)
	require.NoError(t, err)

	want := `from micropython import const
import lvgl as lv

import gt911

touch_addr = gt911.I2C_ADDR
touch_bits = gt911.BITS
`
	assertSource(t, want, res.Source)
	assert.Equal(t, []string{"esp32", "BOARD=ESP32_GENERIC_S3", "INDEV=gt911"}, res.Tokens)
}

func TestCompile_Conditional(t *testing.T) {
	res, err := compileTOML(t, `
[conditional.some]
flag = { equal = true }

[conditional.some.state]
value = 1
`)
	require.NoError(t, err)

	want := `from micropython import const
import lvgl as lv

if some.flag == True:
    state = 1
`
	assertSource(t, want, res.Source)
}

func TestCompile_Exception(t *testing.T) {
	res, err := compileTOML(t, `
[exception.try.display_bus.init]
params = []

[exception.except]
type = "OSError"
letter = "err"

[exception.raise]
error = "bus init failed"
letter = "err"
`)
	require.NoError(t, err)

	want := `from micropython import const
import lvgl as lv

try:
    display_bus.init()
except OSError as err:
    print("bus init failed", err)
`
	assertSource(t, want, res.Source)
}

func TestCompile_Empty(t *testing.T) {
	res, err := compileTOML(t, ``)
	require.NoError(t, err)
	assert.Empty(t, res.Source)
	assert.Empty(t, res.Tokens)

	res, err = compileTOML(t, `
[MCU.unix]
DEBUG = true
`)
	require.NoError(t, err)
	assert.Empty(t, res.Source, "device-only document has no body")
	assert.Equal(t, []string{"unix", "DEBUG"}, res.Tokens)
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target any
		is     error
	}{
		{
			name:   "unknown exception statement",
			doc:    "[exception.retry]\nx = 1\n",
			target: new(*UnknownKeyError),
			is:     ErrStructural,
		},
		{
			name:   "conditional without comparison",
			doc:    "[conditional.some.state]\nvalue = 1\n",
			target: new(*MissingComparisonError),
			is:     ErrStructural,
		},
		{
			name:   "call without parameters",
			doc:    "[task_handler.TaskHandler]\n",
			target: new(*MalformedCallError),
			is:     ErrStructural,
		},
		{
			name:   "two devices",
			doc:    "[MCU.esp32]\nBOARD = \"A\"\n[MCU.rp2]\nBOARD = \"B\"\n",
			target: new(*DuplicateDeviceError),
			is:     ErrStructural,
		},
		{
			name:   "constant bound to two values",
			doc:    "[[bus]]\nid = 1\n[[bus]]\nid = 2\n",
			target: new(*ConstantConflictError),
			is:     ErrStructural,
		},
		{
			name:   "optionless flag set to false",
			doc:    "[MCU.esp32]\nota = false\n[touch]\nvalue = 1\n",
			target: new(*tokens.FlagError),
			is:     tokens.ErrSemantic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := compileTOML(t, tt.doc)
			require.Error(t, err)
			assert.Nil(t, res, "no partial output on error")
			assert.True(t, errors.Is(err, tt.is))
			assert.True(t, errors.As(err, tt.target))
		})
	}
}

func TestCompile_Deterministic(t *testing.T) {
	c := New(testCatalog(), nil)
	doc := parseTOML(t, boardTOML)

	first, err := c.Compile(doc)
	require.NoError(t, err)
	second, err := c.Compile(doc)
	require.NoError(t, err)

	assertSource(t, first.Source, second.Source)
	assert.Equal(t, first.Tokens, second.Tokens)
	assert.Equal(t, first.Imports, second.Imports, "registry does not leak between runs")
}

func TestCompile_DoesNotMutateDocument(t *testing.T) {
	doc := parseTOML(t, boardTOML)
	before := doc.String()

	_, err := New(testCatalog(), nil).Compile(doc)
	require.NoError(t, err)
	assert.Equal(t, before, doc.String())
}

var constDecl = regexp.MustCompile(`^(_[A-Z0-9_]+) = const\((-?\d+)\)$`)

func TestCompile_ConstantRoundTrip(t *testing.T) {
	res, err := compileTOML(t, boardTOML)
	require.NoError(t, err)
	require.NotEmpty(t, res.Constants)

	body := res.Source[strings.Index(res.Source, res.Constants[len(res.Constants)-1]):]
	for _, decl := range res.Constants {
		m := constDecl.FindStringSubmatch(decl)
		require.NotNil(t, m, "declaration %q", decl)
		assert.Contains(t, body, "="+m[1], "constant %s referenced by a call", m[1])
	}
	assert.Contains(t, res.Constants, "_DISPLAY_WIDTH = const(480)")
}

func TestCompile_ConstantNamesStayUnique(t *testing.T) {
	res, err := compileTOML(t, `
[SPI.Bus.bus]
id = 1
sck = 12

[I2C.Bus.bus]
id = 2

[I2C.Bus.bus_2]
id = 1
`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"_BUS_ID = const(1)",
		"_BUS_SCK = const(12)",
		"_I2C_BUS_BUS_ID = const(2)",
		"_BUS_2_ID = const(1)",
	}, res.Constants)
	assert.Contains(t, res.Source, "    id=_BUS_ID,\n")
	assert.Contains(t, res.Source, "bus = i2c.I2C.Bus(id=_I2C_BUS_BUS_ID)\n")

	seen := make(map[string]string)
	for _, decl := range res.Constants {
		m := constDecl.FindStringSubmatch(decl)
		require.NotNil(t, m, "declaration %q", decl)
		prev, dup := seen[m[1]]
		assert.False(t, dup, "constant %s declared as %s and %s", m[1], prev, m[2])
		seen[m[1]] = m[2]
	}
}

func TestCompile_SameConstantDeclaredOnce(t *testing.T) {
	res, err := compileTOML(t, `
[SPI.bus]
id = 1

[I2C.bus]
id = 1
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"_BUS_ID = const(1)"}, res.Constants)
	assert.Equal(t, 1, strings.Count(res.Source, "_BUS_ID = const(1)"))
}

func TestCompile_RootScalars(t *testing.T) {
	res, err := compileTOML(t, `
top = 1
sizes = [1, 2]

[brightness]
value = 80
`)
	require.NoError(t, err)

	want := `from micropython import const
import lvgl as lv

top = 1
sizes = [1, 2]
brightness = 80
`
	assertSource(t, want, res.Source)
	assert.Empty(t, res.Imports, "root scalars are globals, not modules")
}

func TestCompile_DriverModuleConstructsClass(t *testing.T) {
	res, err := compileTOML(t, `
[st7796.display]
data_bus = "display_bus"

[gt911.touch]
device = "touch_dev"
`)
	require.NoError(t, err)
	assert.Contains(t, res.Source, "display = st7796.ST7796(data_bus=display_bus)\n")
	assert.Contains(t, res.Source, "touch = gt911.GT911(device=touch_dev)\n")
	assert.Equal(t, []string{"st7796", "gt911"}, res.Imports)
}

func TestCompile_NilCatalog(t *testing.T) {
	res, err := New(nil, nil).Compile(parseTOML(t, "[I2C.i2c_bus]\nhost = 0\n"))
	require.NoError(t, err)
	assert.Contains(t, res.Source, "import i2c\n")
	assert.Contains(t, res.Source, "i2c_bus = i2c.I2C(host=_I2C_BUS_HOST)")
}
