package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/leapstack-labs/boardgen/internal/document"
)

// line is one lowered statement. Fixed lines come from nested blocks and are
// never requalified by an enclosing statement.
type line struct {
	text  string
	fixed bool
}

func texts(lines []line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

func (e *emitter) lowerBlock(n *Node) ([]string, error) {
	switch n.Kind {
	case KindConditional:
		return e.lowerConditional(n)
	case KindException:
		return e.lowerException(n)
	default:
		return nil, fmt.Errorf("lower %s: not a block (%s)", e.tree.Path(n), n.Kind)
	}
}

// lowerConditional emits "if <lhs> <op> <rhs>:" from the first child that
// resolves a comparison, then every child's statements indented under it.
func (e *emitter) lowerConditional(n *Node) ([]string, error) {
	children := e.tree.Children(n)

	header := ""
	for _, c := range children {
		if cond, ok := e.comparison(c); ok {
			header = "if " + cond + ":"
			break
		}
	}
	if header == "" {
		return nil, NewMissingComparisonError(e.tree.Path(n))
	}

	scope := newOrderedSet()
	out := []string{header}
	for _, c := range children {
		lines, err := e.statements(c, n, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, indent(texts(lines))...)
	}
	return out, nil
}

// comparison resolves "<name> <op> <value>", recursing through attribute
// path children ("some.flag == True").
func (e *emitter) comparison(n *Node) (string, bool) {
	if n.Kind.IsBlock() {
		return "", false
	}
	if cond, ok := ownComparison(n); ok {
		return cond, true
	}
	for _, c := range e.tree.Children(n) {
		if cond, ok := e.comparison(c); ok {
			return n.Name + "." + cond, true
		}
	}
	return "", false
}

func ownComparison(n *Node) (string, bool) {
	for _, c := range comparisons {
		if v, ok := n.Attrs.Get(c.Key); ok {
			return n.Name + " " + c.Op + " " + document.FormatValue(v), true
		}
	}
	return "", false
}

// lowerException emits each statement's clause header followed by its body,
// indented one level.
func (e *emitter) lowerException(n *Node) ([]string, error) {
	scope := newOrderedSet()
	var out []string
	for _, c := range e.tree.Children(n) {
		kind, ok := ParseStmtKind(c.Name)
		if !ok || c.Kind.IsBlock() {
			return nil, NewUnknownKeyError(e.tree.Path(c), c.Name, stmtKeys())
		}

		head, body, err := e.statement(kind, c, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, head...)
		out = append(out, indent(body)...)

		for _, child := range e.tree.Children(c) {
			lines, err := e.statements(child, n, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, indent(texts(lines))...)
		}
	}
	return out, nil
}

// statements lowers a node inside a block rooted at root.
func (e *emitter) statements(n, root *Node, scope *orderedSet) ([]line, error) {
	if n.Kind.IsBlock() {
		nested, err := e.lowerBlock(n)
		if err != nil {
			return nil, err
		}
		out := make([]line, len(nested))
		for i, l := range nested {
			out[i] = line{text: l, fixed: true}
		}
		return out, nil
	}

	// A comparison node contributes only its children's statements.
	if root.Kind == KindConditional {
		if _, ok := ownComparison(n); ok {
			var out []line
			for _, c := range e.tree.Children(n) {
				lines, err := e.statements(c, root, scope)
				if err != nil {
					return nil, err
				}
				out = append(out, lines...)
			}
			return out, nil
		}
	}

	var out []line
	switch {
	case n.Attrs.Has(attrValue):
		v, _ := n.Attrs.Get(attrValue)
		path := e.promote(n, root, scope)
		scope.add(path)
		out = append(out, line{text: path + " = " + document.FormatValue(v)})
	case n.Attrs.Has(attrParams):
		p, _ := n.Attrs.Get(attrParams)
		args := joinValues(asList(p))
		if n.Name == "del" {
			return []line{{text: "del " + args}}, nil
		}
		return []line{{text: n.Name + "(" + args + ")"}}, nil
	case len(n.Attrs) > 0:
		kwargs := make([]string, len(n.Attrs))
		for i, a := range n.Attrs {
			kwargs[i] = a.Key + "=" + document.FormatValue(a.Value)
		}
		out = append(out, line{text: n.Name + "(" + strings.Join(kwargs, ", ") + ")"})
	}

	for _, c := range e.tree.Children(n) {
		lines, err := e.statements(c, root, scope)
		if err != nil {
			return nil, err
		}
		for _, l := range lines {
			if l.fixed || bound(l.text, scope) {
				out = append(out, l)
				continue
			}
			out = append(out, line{text: n.Name + "." + l.text})
		}
	}
	return out, nil
}

// bound reports whether a child line already refers to a name bound in the
// block scope and so stays in its short form.
func bound(text string, scope *orderedSet) bool {
	if strings.HasPrefix(text, "del ") {
		return true
	}
	if lhs, _, ok := splitAssignment(text); ok {
		return scope.has(lhs)
	}
	target, _, _ := strings.Cut(text, "(")
	if scope.has(target) {
		return true
	}
	head, _, _ := strings.Cut(target, ".")
	return scope.has(head)
}

// promote returns the shortest dotted path for a value statement: ancestor
// names up to the block root, dropping outer names while the remaining
// prefix is not already bound. Exception statement-kind nodes never appear
// in the path.
func (e *emitter) promote(n, root *Node, scope *orderedSet) string {
	var names []string
	for p := e.tree.Parent(n); p != nil && p.ID != root.ID; p = e.tree.Parent(p) {
		if root.Kind == KindException && p.Parent == root.ID {
			continue
		}
		names = append([]string{p.Name}, names...)
	}
	for len(names) > 0 && !scope.has(strings.Join(names, ".")) {
		names = names[1:]
	}
	return strings.Join(append(names, n.Name), ".")
}

// Statement arguments. Values are pre-rendered to source text before decoding.
type exceptArgs struct {
	Type   string `mapstructure:"type"`
	Letter string `mapstructure:"letter"`
}

type raiseArgs struct {
	Error  string `mapstructure:"error"`
	Letter string `mapstructure:"letter"`
}

type calcArgs struct {
	Instance string `mapstructure:"instance"`
	Operator string `mapstructure:"operator"`
	Value1   string `mapstructure:"value1"`
	Value2   string `mapstructure:"value2"`
}

// decodeArgs maps a statement's attributes onto target and rejects any key
// target does not declare.
func (e *emitter) decodeArgs(n *Node, target any, vocabulary []string) error {
	input := make(map[string]any, len(n.Attrs))
	for _, a := range n.Attrs {
		input[a.Key] = document.FormatValue(a.Value)
	}

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata: &md,
		Result:   target,
	})
	if err != nil {
		return fmt.Errorf("statement decoder: %w", err)
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("decode %s arguments: %w", e.tree.Path(n), err)
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return NewUnknownKeyError(e.tree.Path(n), md.Unused[0], vocabulary)
	}
	return nil
}

// statement lowers one exception child. Header statements return the clause
// line in head; body statements return their lines in body.
func (e *emitter) statement(kind StmtKind, n *Node, scope *orderedSet) (head, body []string, err error) {
	path := e.tree.Path(n)

	switch kind {
	case StmtTry, StmtElse, StmtFinally:
		if err := e.decodeArgs(n, &struct{}{}, nil); err != nil {
			return nil, nil, err
		}
		return []string{kind.String() + ":"}, nil, nil

	case StmtExcept:
		var args exceptArgs
		if err := e.decodeArgs(n, &args, []string{"type", "letter"}); err != nil {
			return nil, nil, err
		}
		switch {
		case args.Type == "" && args.Letter != "":
			return nil, nil, NewMissingArgumentError(path, kind, "type")
		case args.Type == "":
			return []string{"except:"}, nil, nil
		case args.Letter == "":
			return []string{"except " + args.Type + ":"}, nil, nil
		default:
			return []string{"except " + args.Type + " as " + args.Letter + ":"}, nil, nil
		}

	case StmtRaise:
		var args raiseArgs
		if err := e.decodeArgs(n, &args, []string{"error", "letter"}); err != nil {
			return nil, nil, err
		}
		if args.Error == "" {
			return nil, nil, NewMissingArgumentError(path, kind, "error")
		}
		msg := `"` + strings.ReplaceAll(args.Error, `"`, `\"`) + `"`
		if args.Letter != "" {
			return nil, []string{"print(" + msg + ", " + args.Letter + ")"}, nil
		}
		return nil, []string{"print(" + msg + ")"}, nil

	case StmtFunc:
		inst, fn, rest, err := instanceCall(n, kind, path, "function")
		if err != nil {
			return nil, nil, err
		}
		scope.add(inst)
		return nil, []string{inst + " = " + fn + "(" + joinValues(valuesOf(rest)) + ")"}, nil

	case StmtClass:
		inst, cls, rest, err := instanceCall(n, kind, path, "class")
		if err != nil {
			return nil, nil, err
		}
		owner, _, _ := strings.Cut(inst, ".")
		if err := e.hoistAttrs(owner, path, rest); err != nil {
			return nil, nil, err
		}
		if mod, _, _ := strings.Cut(cls, "."); e.cat.IsModule(mod) && !e.ctx.IsGlobal(mod) {
			e.ctx.AddImport(mod)
		}
		scope.add(inst)
		if len(rest) == 0 {
			return nil, []string{inst + " = " + cls + "()"}, nil
		}
		lines := []string{inst + " = " + cls + "("}
		for i, a := range rest {
			arg := indentUnit + a.Key + "=" + document.FormatValue(a.Value)
			if i < len(rest)-1 {
				arg += ","
			}
			lines = append(lines, arg)
		}
		return nil, append(lines, ")"), nil

	case StmtCalc:
		var args calcArgs
		vocab := []string{"instance", "operator", "value1", "value2"}
		if err := e.decodeArgs(n, &args, vocab); err != nil {
			return nil, nil, err
		}
		for _, req := range []struct{ key, val string }{
			{"instance", args.Instance},
			{"operator", args.Operator},
			{"value1", args.Value1},
			{"value2", args.Value2},
		} {
			if req.val == "" {
				return nil, nil, NewMissingArgumentError(path, kind, req.key)
			}
		}
		scope.add(args.Instance)
		return nil, []string{fmt.Sprintf("%s = %s %s %s", args.Instance, args.Value1, args.Operator, args.Value2)}, nil
	}

	return nil, nil, NewUnknownKeyError(path, n.Name, stmtKeys())
}

// instanceCall splits func/class attributes into the bound instance, the
// callee and the remaining call arguments in document order.
func instanceCall(n *Node, kind StmtKind, path, calleeKey string) (inst, callee string, rest document.Mapping, err error) {
	for _, a := range n.Attrs {
		switch a.Key {
		case "instance":
			inst = document.FormatValue(a.Value)
		case calleeKey:
			callee = document.FormatValue(a.Value)
		default:
			rest = append(rest, document.Entry{Key: a.Key, Value: a.Value})
		}
	}
	if inst == "" {
		return "", "", nil, NewMissingArgumentError(path, kind, "instance")
	}
	if callee == "" {
		return "", "", nil, NewMissingArgumentError(path, kind, calleeKey)
	}
	return inst, callee, rest, nil
}

func valuesOf(m document.Mapping) []any {
	out := make([]any, len(m))
	for i, e := range m {
		out[i] = e.Value
	}
	return out
}
