package compiler

import (
	"strings"

	"github.com/leapstack-labs/boardgen/internal/document"
	"github.com/leapstack-labs/boardgen/internal/tokens"
)

// Kind is the variant of a node, fixed at construction.
type Kind int

// Node kinds.
const (
	KindGeneric     Kind = iota // object construction, grouping, or value leaf
	KindException               // try/except/else/finally block
	KindConditional             // single-branch if block
)

func (k Kind) String() string {
	switch k {
	case KindGeneric:
		return "generic"
	case KindException:
		return "exception"
	case KindConditional:
		return "conditional"
	default:
		return "unknown"
	}
}

// IsBlock reports whether nodes of this kind own a scope registry.
func (k Kind) IsBlock() bool {
	return k == KindException || k == KindConditional
}

// Classify picks the node kind from a mapping key.
func Classify(key string) Kind {
	switch {
	case strings.Contains(key, "exception"):
		return KindException
	case strings.Contains(key, "conditional"):
		return KindConditional
	default:
		return KindGeneric
	}
}

// deviceNode is the reserved key whose child describes the target device.
const deviceNode = "MCU"

// Reserved attribute keys.
const (
	attrParams = "params"
	attrValue  = "value"
)

// NodeID indexes a node in its Tree.
type NodeID int

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// Node is one entry of the configuration tree.
type Node struct {
	ID       NodeID
	Name     string
	Kind     Kind
	Parent   NodeID
	Children []NodeID
	Attrs    document.Mapping
}

// IsRoot reports whether n is the synthetic document root.
func (n *Node) IsRoot() bool { return n.Parent == NoParent }

// HasValue reports whether n carries a value or params attribute.
func (n *Node) HasValue() bool {
	return n.Attrs.Has(attrValue) || n.Attrs.Has(attrParams)
}

// Tree is an arena of nodes. Ownership is top-down through the arena;
// parent links are indexes used for upward traversal only.
type Tree struct {
	nodes  []*Node
	device *tokens.Device
}

// Build constructs a tree from a parsed document. The document is copied,
// so later rewrites (constant hoisting) never touch the caller's mapping.
func Build(doc document.Mapping) (*Tree, error) {
	t := &Tree{}
	root := t.add("", KindGeneric, NoParent)
	if err := t.populate(root, doc.Clone()); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(name string, kind Kind, parent NodeID) *Node {
	n := &Node{
		ID:     NodeID(len(t.nodes)),
		Name:   name,
		Kind:   kind,
		Parent: parent,
	}
	t.nodes = append(t.nodes, n)
	if parent != NoParent {
		p := t.nodes[parent]
		p.Children = append(p.Children, n.ID)
	}
	return n
}

func (t *Tree) populate(n *Node, m document.Mapping) error {
	for _, e := range m {
		if sub, ok := e.Value.(document.Mapping); ok {
			if e.Key == deviceNode {
				if err := t.setDevice(n, sub); err != nil {
					return err
				}
				continue
			}
			child := t.add(e.Key, Classify(e.Key), n.ID)
			if err := t.populate(child, sub); err != nil {
				return err
			}
			continue
		}

		// Arrays of tables: one child per element, same key, document order.
		// Block roots and their statements consume only the first element.
		if list, ok := document.IsMappingList(e.Value); ok {
			kind := Classify(e.Key)
			if kind.IsBlock() || n.Kind.IsBlock() {
				list = list[:1]
			}
			for _, item := range list {
				child := t.add(e.Key, kind, n.ID)
				if err := t.populate(child, item); err != nil {
					return err
				}
			}
			continue
		}

		// Scalars at the document root become module-level values.
		if n.IsRoot() {
			child := t.add(e.Key, KindGeneric, n.ID)
			child.Attrs = document.Mapping{{Key: attrValue, Value: e.Value}}
			continue
		}

		n.Attrs = append(n.Attrs, e)
	}
	return nil
}

func (t *Tree) setDevice(parent *Node, m document.Mapping) error {
	for _, e := range m {
		sub, ok := e.Value.(document.Mapping)
		if !ok {
			continue
		}
		path := joinPath(t.Path(parent), deviceNode)
		if t.device != nil {
			return NewDuplicateDeviceError(path, t.device.Name, e.Key)
		}
		var args document.Mapping
		for _, arg := range sub {
			if _, nested := arg.Value.(document.Mapping); !nested {
				args = append(args, arg)
			}
		}
		t.device = &tokens.Device{Name: e.Key, Args: args}
	}
	return nil
}

// Root returns the synthetic root node.
func (t *Tree) Root() *Node { return t.nodes[0] }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node { return t.nodes[id] }

// Len returns the number of nodes, root included.
func (t *Tree) Len() int { return len(t.nodes) }

// Device returns the device descriptor, or nil when the document has none.
func (t *Tree) Device() *tokens.Device { return t.device }

// Parent returns the parent of n, or nil for the root.
func (t *Tree) Parent(n *Node) *Node {
	if n.Parent == NoParent {
		return nil
	}
	return t.nodes[n.Parent]
}

// Children returns the children of n in document order.
func (t *Tree) Children(n *Node) []*Node {
	out := make([]*Node, len(n.Children))
	for i, id := range n.Children {
		out[i] = t.nodes[id]
	}
	return out
}

// Path returns the dotted names from the first top-level ancestor down to n.
func (t *Tree) Path(n *Node) string {
	var names []string
	for cur := n; cur != nil && !cur.IsRoot(); cur = t.Parent(cur) {
		names = append(names, cur.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, ".")
}

func joinPath(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ".")
}
