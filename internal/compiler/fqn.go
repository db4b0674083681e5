package compiler

import (
	"strings"

	"github.com/leapstack-labs/boardgen/internal/catalog"
)

// pinFamily is the parent name whose children bind pin attributes instead of
// constructing objects.
const pinFamily = "Pin"

// resolver computes fully-qualified names for generic nodes.
type resolver struct {
	tree *Tree
	cat  *catalog.Catalog
	ctx  *Context
}

// FQN returns the fully-qualified reference of a generic node. The result is
// either a dotted path ("machine.SPI.Bus") or an assignment head
// ("spi_bus = machine.SPI.Bus"). The root has no FQN.
//
// Rules, first match wins:
//  1. parent named Pin: "<name> = <parent>"
//  2. value/params under the root: bare global "<name>" (declared as global)
//  3. value/params elsewhere: "<parent>.<name>"
//  4. other attributes: "<name> = <parent>"; a bare display or indev
//     module parent constructs its class ("display = st7796.ST7796")
//  5. catalog canonical path
//  6. "<parent>.<name>"
//
// <parent> is the parent reference (see ref). Under the root, where the
// parent has no FQN, rules 4 and 6 use the catalog path or the bare name.
func (r *resolver) FQN(n *Node) (string, bool) {
	parent := r.tree.Parent(n)
	if parent == nil {
		return "", false
	}

	if parent.Name == pinFamily {
		pref, _ := r.ref(parent)
		return n.Name + " = " + pref, true
	}

	if len(n.Attrs) > 0 {
		pref, ok := r.ref(parent)
		if n.HasValue() {
			if !ok {
				r.ctx.DeclareGlobal(n.Name)
				return n.Name, true
			}
			return pref + "." + n.Name, true
		}
		if !ok {
			if path, known := r.cat.Canonical(n.Name); known {
				return path, true
			}
			return n.Name, true
		}
		if class, ok := r.cat.ClassPath(pref); ok {
			pref = class
		}
		return n.Name + " = " + pref, true
	}

	if path, ok := r.cat.Canonical(n.Name); ok {
		return path, true
	}

	pref, ok := r.ref(parent)
	if !ok {
		return n.Name, true
	}
	return pref + "." + n.Name, true
}

// ref is the name children chain on: the FQN, or its bound name when the
// FQN is an assignment ("display = rgb_display.RGBDisplay" -> "display").
func (r *resolver) ref(n *Node) (string, bool) {
	fqn, ok := r.FQN(n)
	if !ok {
		return "", false
	}
	if lhs, _, isAssign := splitAssignment(fqn); isAssign {
		return lhs, true
	}
	return fqn, true
}

// splitAssignment splits "lhs = rhs".
func splitAssignment(s string) (lhs, rhs string, ok bool) {
	return strings.Cut(s, " = ")
}

// moduleOf returns the leading module segment of an FQN, looking through
// assignment heads.
func moduleOf(fqn string) string {
	if _, rhs, ok := splitAssignment(fqn); ok {
		fqn = rhs
	}
	mod, _, _ := strings.Cut(fqn, ".")
	mod, _, _ = strings.Cut(mod, "(")
	return strings.TrimSpace(mod)
}
