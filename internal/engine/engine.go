// Package engine runs compilations end to end: driver discovery, document
// loading, compilation, artifact write and build history.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/boardgen/internal/catalog"
	"github.com/leapstack-labs/boardgen/internal/compiler"
	"github.com/leapstack-labs/boardgen/internal/config"
	"github.com/leapstack-labs/boardgen/internal/document"
	"github.com/leapstack-labs/boardgen/internal/state"
)

// Engine compiles configuration documents against a discovered catalog.
type Engine struct {
	logger      *slog.Logger
	store       state.Store
	catalog     *catalog.Catalog
	catalogHash string
	compiler    *compiler.Compiler
	outputFile  string
	incremental bool
	keep        int
}

// Config holds engine configuration.
type Config struct {
	// Dirs are the driver directories scanned for the catalog.
	Dirs catalog.Dirs
	// Extra driver names merged into the discovered catalog (optional).
	Extra *config.CatalogConfig
	// OutputFile receives the generated source. Empty disables writing.
	OutputFile string
	// StatePath is the SQLite build history. Empty disables history.
	StatePath string
	// Incremental skips the write when input, catalog and output are
	// unchanged since the last successful build.
	Incremental bool
	// HistoryLimit is the number of builds kept after each record.
	// Zero keeps every build.
	HistoryLimit int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New discovers the catalog and opens the build history.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine",
		slog.String("display_dir", cfg.Dirs.Display),
		slog.String("output_file", cfg.OutputFile))

	cat, err := catalog.Discover(ctx, cfg.Dirs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to discover drivers: %w", err)
	}
	if cfg.Extra != nil {
		cat = cat.Merge(cfg.Extra.Display, cfg.Extra.Indev, cfg.Extra.Expander)
	}

	e := &Engine{
		logger:      logger,
		catalog:     cat,
		catalogHash: hashCatalog(cat),
		compiler:    compiler.New(cat, logger),
		outputFile:  cfg.OutputFile,
		incremental: cfg.Incremental,
		keep:        cfg.HistoryLimit,
	}

	if cfg.StatePath != "" {
		store, err := openStore(cfg.StatePath, logger)
		if err != nil {
			return nil, err
		}
		e.store = store
	}
	return e, nil
}

func openStore(path string, logger *slog.Logger) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store := state.NewSQLiteStore(logger)
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}
	return store, nil
}

// Close releases the build history.
func (e *Engine) Close() error {
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}

// Catalog returns the catalog compilations run against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Store returns the build history, or nil when disabled.
func (e *Engine) Store() state.Store { return e.store }

// Outcome describes one Compile call.
type Outcome struct {
	// Result is nil when the build was skipped.
	Result     *compiler.Result
	OutputPath string
	Written    bool
	Skipped    bool
	Build      *state.Build
}

// Compile loads the document at docPath, compiles it and writes the
// generated source. Nothing is written unless compilation succeeds.
func (e *Engine) Compile(ctx context.Context, docPath string) (*Outcome, error) {
	start := time.Now()
	build := &state.Build{
		ConfigPath:  docPath,
		CatalogHash: e.catalogHash,
		OutputPath:  e.outputFile,
		StartedAt:   start.UTC(),
	}

	data, doc, err := e.load(docPath)
	if err != nil {
		e.fail(ctx, build, start, err)
		return nil, err
	}
	build.ConfigHash = hashBytes(data)

	if last := e.unchanged(ctx, build); last != nil {
		build.Status = state.BuildStatusSkipped
		build.OutputHash = last.OutputHash
		build.Tokens = last.Tokens
		build.Device = last.Device
		e.record(ctx, build, start)
		e.logger.Info("build up to date", slog.String("config", docPath), slog.String("last_build", last.ID))
		return &Outcome{OutputPath: e.outputFile, Skipped: true, Build: build}, nil
	}

	res, err := e.compiler.Compile(doc)
	if err != nil {
		err = fmt.Errorf("compile %s: %w", docPath, err)
		e.fail(ctx, build, start, err)
		return nil, err
	}

	out := &Outcome{Result: res, OutputPath: e.outputFile, Build: build}
	if e.outputFile != "" && res.Source != "" {
		if err := WriteFileAtomic(e.outputFile, []byte(res.Source)); err != nil {
			e.fail(ctx, build, start, err)
			return nil, err
		}
		out.Written = true
		build.OutputHash = hashBytes([]byte(res.Source))
	}

	build.Status = state.BuildStatusSuccess
	build.Tokens = res.Tokens
	build.Imports = len(res.Imports)
	build.Constants = len(res.Constants)
	if res.Device != nil {
		build.Device = res.Device.Name
	}
	e.record(ctx, build, start)

	e.logger.Debug("build complete",
		slog.String("config", docPath),
		slog.Bool("written", out.Written),
		slog.Duration("duration", build.Duration))
	return out, nil
}

func (e *Engine) load(docPath string) ([]byte, document.Mapping, error) {
	format, err := document.DetectFormat(docPath)
	if err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(docPath) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, nil, &document.IOError{Op: "read", Path: docPath, Err: err}
	}

	doc, err := document.Parse(data, format)
	if err != nil {
		var pe *document.ParseError
		if errors.As(err, &pe) {
			pe.Path = docPath
		}
		return nil, nil, err
	}
	return data, doc, nil
}

// unchanged returns the last successful build when this one can be skipped.
func (e *Engine) unchanged(ctx context.Context, b *state.Build) *state.Build {
	if !e.incremental || e.store == nil || e.outputFile == "" {
		return nil
	}

	last, err := e.store.LastSuccess(ctx, b.ConfigPath)
	if err != nil {
		if !errors.Is(err, state.ErrNotFound) {
			e.logger.Warn("build history unavailable", slog.String("error", err.Error()))
		}
		return nil
	}
	if last.ConfigHash != b.ConfigHash || last.CatalogHash != b.CatalogHash || last.OutputPath != b.OutputPath {
		return nil
	}

	current, err := os.ReadFile(e.outputFile)
	if err != nil || hashBytes(current) != last.OutputHash {
		return nil
	}
	return last
}

func (e *Engine) fail(ctx context.Context, b *state.Build, start time.Time, err error) {
	b.Status = state.BuildStatusFailed
	b.Error = err.Error()
	e.record(ctx, b, start)
}

// record stores b. History failures never fail the build.
func (e *Engine) record(ctx context.Context, b *state.Build, start time.Time) {
	b.Duration = time.Since(start)
	if e.store == nil {
		return
	}
	if err := e.store.RecordBuild(ctx, b); err != nil {
		e.logger.Warn("failed to record build", slog.String("error", err.Error()))
		return
	}
	if e.keep > 0 {
		if _, err := e.store.PruneBuilds(ctx, e.keep); err != nil {
			e.logger.Warn("failed to prune build history", slog.String("error", err.Error()))
		}
	}
}

// WriteFileAtomic writes data to a temp file next to path and renames it
// into place, so readers never observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return &document.IOError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &document.IOError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &document.IOError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &document.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // generated source is not secret
		_ = os.Remove(tmpPath)
		return &document.IOError{Op: "write", Path: path, Err: err}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &document.IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hashCatalog(c *catalog.Catalog) string {
	var b strings.Builder
	for _, f := range catalog.Families {
		b.WriteString(f.String())
		b.WriteByte(':')
		b.WriteString(strings.Join(c.Names(f), ","))
		b.WriteByte('\n')
	}
	return hashBytes([]byte(b.String()))
}
