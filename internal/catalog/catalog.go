// Package catalog holds the reference catalog of object families the
// compiler knows about: the fixed core and bus type tables, plus the display,
// input-device and IO-expander driver modules discovered on disk.
package catalog

import (
	"sort"
	"strings"
)

// Family identifies a driver family.
type Family int

// Driver families, in build-token order.
const (
	FamilyUnknown Family = iota
	FamilyDisplay
	FamilyIndev
	FamilyExpander
)

func (f Family) String() string {
	switch f {
	case FamilyDisplay:
		return "display"
	case FamilyIndev:
		return "indev"
	case FamilyExpander:
		return "expander"
	default:
		return "unknown"
	}
}

// TokenPrefix is the build-token key for modules of the family.
func (f Family) TokenPrefix() string {
	switch f {
	case FamilyDisplay:
		return "DISPLAY"
	case FamilyIndev:
		return "INDEV"
	case FamilyExpander:
		return "EXPANDER"
	default:
		return ""
	}
}

// Families lists the driver families in build-token order.
var Families = []Family{FamilyDisplay, FamilyIndev, FamilyExpander}

// CoreType maps a case-sensitive object name to its module-qualified class path.
type CoreType struct {
	Name string
	Path string
}

// Module returns the leading module segment of the class path.
func (c CoreType) Module() string {
	mod, _, _ := strings.Cut(c.Path, ".")
	return mod
}

// coreTypes are consulted before driver families.
var coreTypes = []CoreType{
	{Name: "RGBDisplay", Path: "rgb_display.RGBDisplay"},
	{Name: "SDLDisplay", Path: "sdl_display.SDLDisplay"},
	{Name: "SDLPointer", Path: "sdl_pointer.SDLPointer"},
	{Name: "I2C", Path: "i2c.I2C"},
	{Name: "Spi3Wire", Path: "spi3wire.Spi3Wire"},
	{Name: "SPI", Path: "machine.SPI"},
	{Name: "SDCard", Path: "machine.SDCard"},
}

// busTypes are consulted after driver families.
var busTypes = []CoreType{
	{Name: "I80Bus", Path: "lcd_bus.I80Bus"},
	{Name: "SPIBus", Path: "lcd_bus.SPIBus"},
	{Name: "I2CBus", Path: "lcd_bus.I2CBus"},
	{Name: "RGBBus", Path: "lcd_bus.RGBBus"},
}

// Catalog answers membership and canonicalization queries.
// A Catalog is immutable after construction and safe for concurrent reads.
type Catalog struct {
	families map[Family]map[string]struct{}
	core     map[string]string
	modules  map[string]struct{}
}

// New creates a catalog from driver module names. Names are normalized:
// lowercased, ".py" stripped; work-in-progress entries (".wip") are dropped.
func New(display, indev, expander []string) *Catalog {
	c := &Catalog{
		families: map[Family]map[string]struct{}{
			FamilyDisplay:  normalize(display),
			FamilyIndev:    normalize(indev),
			FamilyExpander: normalize(expander),
		},
		core:    make(map[string]string, len(coreTypes)+len(busTypes)),
		modules: make(map[string]struct{}),
	}
	for _, ct := range append(append([]CoreType{}, coreTypes...), busTypes...) {
		c.core[ct.Name] = ct.Path
		c.modules[ct.Module()] = struct{}{}
	}
	return c
}

// Empty returns a catalog with no driver modules, only the fixed core tables.
func Empty() *Catalog {
	return New(nil, nil, nil)
}

// Merge returns a new catalog holding the drivers of c plus the extra names.
func (c *Catalog) Merge(display, indev, expander []string) *Catalog {
	return New(
		append(c.Names(FamilyDisplay), display...),
		append(c.Names(FamilyIndev), indev...),
		append(c.Names(FamilyExpander), expander...),
	)
}

func normalize(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if key, ok := NormalizeName(n); ok {
			set[key] = struct{}{}
		}
	}
	return set
}

// NormalizeName lowercases a driver file or directory name and strips the
// ".py" suffix. It returns false for empty and ".wip" names.
func NormalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, ".wip") {
		return "", false
	}
	name = strings.TrimSuffix(name, ".py")
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

// Family returns the driver family of a module name (case-insensitive).
func (c *Catalog) Family(name string) (Family, bool) {
	key := strings.ToLower(name)
	for _, f := range Families {
		if _, ok := c.families[f][key]; ok {
			return f, true
		}
	}
	return FamilyUnknown, false
}

// IsDriver reports whether name is a known driver module of any family.
func (c *Catalog) IsDriver(name string) bool {
	_, ok := c.Family(name)
	return ok
}

// IsModule reports whether name is a driver module or the module of a core
// or bus type (machine, i2c, lcd_bus, ...).
func (c *Catalog) IsModule(name string) bool {
	if c.IsDriver(name) {
		return true
	}
	_, ok := c.modules[name]
	return ok
}

// Canonical resolves an object name to its module-qualified path.
// Order: core types, display drivers, indev drivers, IO expanders, bus types.
// Driver lookups are case-insensitive; core and bus lookups are not.
// A driver referenced by its own module name resolves to the bare module.
func (c *Catalog) Canonical(name string) (string, bool) {
	if path, ok := c.core[name]; ok && !isBus(name) {
		return path, true
	}

	if f, ok := c.Family(name); ok {
		module := strings.ToLower(name)
		if f == FamilyExpander || name == module {
			return module, true
		}
		return module + "." + name, true
	}

	if isBus(name) {
		return c.core[name], true
	}
	return "", false
}

func isBus(name string) bool {
	for _, b := range busTypes {
		if b.Name == name {
			return true
		}
	}
	return false
}

// ClassPath returns the class a display or indev driver module constructs
// ("st7796" -> "st7796.ST7796"), preferring the core table's class for
// modules listed there. Expander modules have no single class.
func (c *Catalog) ClassPath(module string) (string, bool) {
	if module == "" || module != strings.ToLower(module) {
		return "", false
	}
	f, ok := c.Family(module)
	if !ok || f == FamilyExpander {
		return "", false
	}
	for _, ct := range coreTypes {
		if ct.Module() == module {
			return ct.Path, true
		}
	}
	return module + "." + strings.ToUpper(module), true
}

// Names returns the sorted driver module names of a family.
func (c *Catalog) Names(f Family) []string {
	set := c.families[f]
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Core returns the fixed core and bus type tables in lookup order.
func Core() []CoreType {
	out := make([]CoreType, 0, len(coreTypes)+len(busTypes))
	out = append(out, coreTypes...)
	return append(out, busTypes...)
}
