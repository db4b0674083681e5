// Package compiler lowers a configuration document into MicroPython
// display-initialization source and the build tokens that select the
// matching firmware modules.
package compiler

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/document"
	"github.com/leapstack-labs/boardgen/internal/tokens"
)

// Compiler compiles documents against a fixed catalog. It holds no per-run
// state and can be reused; every Compile call gets a fresh Context.
type Compiler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// New creates a compiler. A nil catalog compiles with core types only;
// a nil logger discards log output.
func New(cat *catalog.Catalog, logger *slog.Logger) *Compiler {
	if cat == nil {
		cat = catalog.Empty()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Compiler{catalog: cat, logger: logger}
}

// Result is the output of one compilation.
type Result struct {
	// Source is the generated MicroPython text. Empty for an empty document.
	Source string
	// Imports lists imported modules in first-seen order.
	Imports []string
	// Constants lists hoisted constant declarations in first-seen order.
	Constants []string
	// Device is the target device, nil when the document declares none.
	Device *tokens.Device
	// Tokens is the ordered build token list.
	Tokens []string
	// Nodes counts tree nodes, root excluded.
	Nodes int
}

// Compile builds the tree, emits source and assembles build tokens.
// Any structural or semantic error aborts the run with no partial result.
func (c *Compiler) Compile(doc document.Mapping) (*Result, error) {
	tree, err := Build(doc)
	if err != nil {
		return nil, err
	}

	ctx := NewContext()
	src, err := newEmitter(tree, c.catalog, ctx, c.logger).document()
	if err != nil {
		return nil, err
	}

	imports := ctx.Imports()
	toks, err := tokens.Assemble(tree.Device(), imports, c.catalog)
	if err != nil {
		return nil, fmt.Errorf("assemble build tokens: %w", err)
	}

	res := &Result{
		Source:    src,
		Imports:   imports,
		Constants: ctx.Constants(),
		Device:    tree.Device(),
		Tokens:    toks,
		Nodes:     tree.Len() - 1,
	}

	c.logger.Debug("compiled document",
		slog.Int("nodes", res.Nodes),
		slog.Int("imports", len(res.Imports)),
		slog.Int("constants", len(res.Constants)),
		slog.Int("tokens", len(res.Tokens)),
	)
	return res, nil
}
