package compiler

import "fmt"

// Context is the emission registry of one compilation run: modules already
// imported, constant declarations already emitted, and names declared as
// globals. Every Compile call creates its own Context. A Context must not be
// reused for a second document, nor shared between goroutines: stale entries
// would silently suppress imports and constants in the next run.
type Context struct {
	imports   *orderedSet
	constants *orderedSet
	values    map[string]int64
	globals   *orderedSet
}

// NewContext returns an empty registry.
func NewContext() *Context {
	return &Context{
		imports:   newOrderedSet(),
		constants: newOrderedSet(),
		values:    make(map[string]int64),
		globals:   newOrderedSet(),
	}
}

// Reset empties every set.
func (c *Context) Reset() {
	c.imports = newOrderedSet()
	c.constants = newOrderedSet()
	c.values = make(map[string]int64)
	c.globals = newOrderedSet()
}

// AddImport records a module import. It returns false if already imported.
func (c *Context) AddImport(module string) bool { return c.imports.add(module) }

// Imports returns imported modules in first-seen order.
func (c *Context) Imports() []string { return c.imports.list() }

// AddConstant records the constant name bound to v. It returns false if name
// was already declared; the first value is kept.
func (c *Context) AddConstant(name string, v int64) bool {
	if !c.constants.add(name) {
		return false
	}
	c.values[name] = v
	return true
}

// Constant returns the value a constant name was declared with.
func (c *Context) Constant(name string) (int64, bool) {
	v, ok := c.values[name]
	return v, ok
}

// Constants returns constant declarations in first-seen order.
func (c *Context) Constants() []string {
	names := c.constants.list()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = fmt.Sprintf("%s = const(%d)", name, c.values[name])
	}
	return out
}

// DeclareGlobal records a name bound at module level. Declared globals are
// never imported as modules.
func (c *Context) DeclareGlobal(name string) { c.globals.add(name) }

// IsGlobal reports whether name was declared as a global.
func (c *Context) IsGlobal(name string) bool { return c.globals.has(name) }

// orderedSet is an insertion-ordered string set. Also used as the scope
// registry of conditional and exception blocks.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) has(v string) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet) list() []string {
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}
