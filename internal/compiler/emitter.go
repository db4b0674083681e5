package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/document"
)

// preamble opens every non-empty generated file.
var preamble = []string{
	"from micropython import const",
	"import lvgl as lv",
}

const indentUnit = "    "

// emitter renders a Tree into MicroPython source.
type emitter struct {
	tree   *Tree
	cat    *catalog.Catalog
	ctx    *Context
	res    *resolver
	logger *slog.Logger
}

func newEmitter(tree *Tree, cat *catalog.Catalog, ctx *Context, logger *slog.Logger) *emitter {
	return &emitter{
		tree:   tree,
		cat:    cat,
		ctx:    ctx,
		res:    &resolver{tree: tree, cat: cat, ctx: ctx},
		logger: logger,
	}
}

// document renders the whole tree: preamble, imports, constants, body.
// A root without children yields empty output.
func (e *emitter) document() (string, error) {
	root := e.tree.Root()
	top := e.tree.Children(root)
	if len(top) == 0 {
		return "", nil
	}

	e.collectGlobals(root)
	if err := e.hoistConstants(root); err != nil {
		return "", err
	}

	var body []string
	for _, n := range top {
		if n.Kind.IsBlock() {
			lines, err := e.lowerBlock(n)
			if err != nil {
				return "", err
			}
			body = append(body, "")
			body = append(body, lines...)
			body = append(body, "")
			continue
		}

		e.importTopLevel(n)
		lines, err := e.render(n)
		if err != nil {
			return "", err
		}
		body = append(body, lines...)
	}

	out := append([]string{}, preamble...)
	out = append(out, "")
	if imports := e.ctx.Imports(); len(imports) > 0 {
		for _, m := range imports {
			out = append(out, "import "+m)
		}
		out = append(out, "")
	}
	if consts := e.ctx.Constants(); len(consts) > 0 {
		out = append(out, consts...)
		out = append(out, "")
	}
	out = append(out, collapseBlank(body)...)

	return strings.TrimRight(strings.Join(out, "\n"), "\n") + "\n", nil
}

// collectGlobals declares every assignment target of the generic tree before
// emission, so top-level objects named after a variable are never imported.
func (e *emitter) collectGlobals(n *Node) {
	for _, c := range e.tree.Children(n) {
		if c.Kind.IsBlock() {
			continue
		}
		if len(c.Attrs) > 0 {
			if fqn, ok := e.res.FQN(c); ok {
				if lhs, _, isAssign := splitAssignment(fqn); isAssign {
					e.ctx.DeclareGlobal(lhs)
				}
			}
		}
		e.collectGlobals(c)
	}
}

// importTopLevel imports the module a top-level object lives in.
func (e *emitter) importTopLevel(n *Node) {
	if e.ctx.IsGlobal(n.Name) {
		return
	}
	fqn, ok := e.res.FQN(n)
	if !ok {
		return
	}
	if mod := moduleOf(fqn); mod != "" && !e.ctx.IsGlobal(mod) {
		if e.ctx.AddImport(mod) {
			e.logger.Debug("import", slog.String("module", mod), slog.String("node", e.tree.Path(n)))
		}
	}
}

// importReferenced imports a driver module referenced by a dotted string
// value ("gt911.I2C_ADDR"). Non-driver prefixes are left alone.
func (e *emitter) importReferenced(v any) {
	s, ok := v.(string)
	if !ok {
		return
	}
	mod, _, found := strings.Cut(s, ".")
	if !found || mod == "" {
		return
	}
	if e.ctx.IsGlobal(mod) || !e.cat.IsDriver(mod) {
		return
	}
	if e.ctx.AddImport(strings.ToLower(mod)) {
		e.logger.Debug("import", slog.String("module", strings.ToLower(mod)), slog.String("ref", s))
	}
}

// render emits the source lines of a generic node and its subtree.
func (e *emitter) render(n *Node) ([]string, error) {
	if n.Kind.IsBlock() {
		return e.lowerBlock(n)
	}

	children := e.tree.Children(n)
	if len(n.Attrs) == 0 {
		if len(children) == 0 {
			return nil, NewMalformedCallError(e.tree.Path(n))
		}
		return e.renderChildren(children)
	}

	fqn, _ := e.res.FQN(n)

	var out []string
	if len(n.Attrs) == 1 {
		out = append(out, e.renderSingle(fqn, n.Attrs[0]))
	} else {
		out = append(out, fqn+"(")
		for i, a := range n.Attrs {
			e.importReferenced(a.Value)
			arg := indentUnit + a.Key + "=" + document.FormatValue(a.Value)
			if i < len(n.Attrs)-1 {
				arg += ","
			}
			out = append(out, arg)
		}
		out = append(out, ")")
	}

	rest, err := e.renderChildren(children)
	if err != nil {
		return nil, err
	}
	out = append(out, rest...)
	if len(n.Attrs) > 1 {
		out = append(out, "")
	}
	return out, nil
}

func (e *emitter) renderSingle(fqn string, a document.Entry) string {
	switch a.Key {
	case attrParams:
		params := asList(a.Value)
		for _, p := range params {
			e.importReferenced(p)
		}
		return fqn + "(" + joinValues(params) + ")"
	case attrValue:
		e.importReferenced(a.Value)
		if b, ok := a.Value.(bool); ok && b {
			return fqn + "()"
		}
		return fqn + " = " + document.FormatValue(a.Value)
	default:
		e.importReferenced(a.Value)
		return fmt.Sprintf("%s(%s=%s)", fqn, a.Key, document.FormatValue(a.Value))
	}
}

func (e *emitter) renderChildren(children []*Node) ([]string, error) {
	var out []string
	for _, c := range children {
		lines, err := e.render(c)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

// asList treats a scalar params value as a one-element list.
func asList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func joinValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = document.FormatValue(v)
	}
	return strings.Join(parts, ", ")
}

func indent(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if l == "" {
			continue
		}
		out[i] = indentUnit + l
	}
	return out
}

// collapseBlank trims blank lines at both ends and folds runs of blanks into one.
func collapseBlank(lines []string) []string {
	var out []string
	for _, l := range lines {
		if l == "" && (len(out) == 0 || out[len(out)-1] == "") {
			continue
		}
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
