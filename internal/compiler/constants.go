package compiler

import (
	"log/slog"
	"strings"

	"github.com/leapstack-labs/boardgen/internal/document"
)

// hoistConstants replaces integer attributes of generic leaves with named
// constant references and records the declarations. value attributes and
// booleans are never hoisted.
func (e *emitter) hoistConstants(n *Node) error {
	children := e.tree.Children(n)
	if len(children) > 0 {
		for _, c := range children {
			if c.Kind.IsBlock() {
				continue
			}
			if err := e.hoistConstants(c); err != nil {
				return err
			}
		}
		return nil
	}
	return e.hoistAttrs(n.Name, e.tree.Path(n), n.Attrs)
}

// hoistAttrs hoists the integer attributes of one owner. A name already
// declared with another value falls back to the owner's full path
// ("SPI.Bus.bus", "id" -> "_SPI_BUS_BUS_ID").
func (e *emitter) hoistAttrs(owner, path string, attrs document.Mapping) error {
	for i := range attrs {
		if attrs[i].Key == attrValue {
			continue
		}
		v, ok := document.AsInt(attrs[i].Value)
		if !ok {
			continue
		}
		name := ConstantName(owner, attrs[i].Key)
		if prev, declared := e.ctx.Constant(name); declared && prev != v {
			name = ConstantName(strings.ReplaceAll(path, ".", "_"), attrs[i].Key)
			if prev, declared := e.ctx.Constant(name); declared && prev != v {
				return NewConstantConflictError(path, name, prev, v)
			}
		}
		if e.ctx.AddConstant(name, v) {
			e.logger.Debug("hoist constant", slog.String("name", name), slog.Int64("value", v))
		}
		attrs[i].Value = name
	}
	return nil
}

// ConstantName builds the hoisted constant identifier for an attribute:
// "_" + upper(owner) + "_" + upper(key), dropping the owner prefix when the
// key already contains the owner name ("display", "display_width" ->
// "_DISPLAY_WIDTH").
func ConstantName(owner, key string) string {
	o := strings.ToUpper(owner)
	k := strings.ToUpper(key)
	if o != "" && !strings.Contains(k, o) {
		k = o + "_" + k
	}
	return "_" + k
}
