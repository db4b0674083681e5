package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Conventional driver directory layout below a drivers root.
const (
	DefaultDisplaySubdir  = "display"
	DefaultIndevSubdir    = "indev"
	DefaultExpanderSubdir = "io_expander"
)

// Dirs locates the driver directories to scan. Empty entries are skipped.
type Dirs struct {
	Display  string
	Indev    string
	Expander string
}

// DirsUnder returns the conventional layout below root.
func DirsUnder(root string) Dirs {
	if root == "" {
		return Dirs{}
	}
	return Dirs{
		Display:  filepath.Join(root, DefaultDisplaySubdir),
		Indev:    filepath.Join(root, DefaultIndevSubdir),
		Expander: filepath.Join(root, DefaultExpanderSubdir),
	}
}

// ScanError reports a driver directory that exists but cannot be read.
type ScanError struct {
	Family Family
	Dir    string
	Err    error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s drivers in %s: %v", e.Family, e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Discover builds a catalog from the driver directories.
// Display drivers are the directory entries that are neither ".py" files nor
// ".wip" entries; indev and expander drivers are the ".py" files.
// A missing directory yields an empty family.
func Discover(ctx context.Context, dirs Dirs, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var display, indev, expander []string

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		display, err = scan(ctx, FamilyDisplay, dirs.Display, func(name string) bool {
			return !strings.HasSuffix(name, ".py") && !strings.HasSuffix(name, ".wip")
		})
		return err
	})
	g.Go(func() error {
		var err error
		indev, err = scan(ctx, FamilyIndev, dirs.Indev, isPythonFile)
		return err
	})
	g.Go(func() error {
		var err error
		expander, err = scan(ctx, FamilyExpander, dirs.Expander, isPythonFile)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("discovered drivers",
		"display", len(display),
		"indev", len(indev),
		"expander", len(expander))

	return New(display, indev, expander), nil
}

func isPythonFile(name string) bool {
	return strings.HasSuffix(name, ".py") && !strings.HasPrefix(name, "__")
}

func scan(ctx context.Context, family Family, dir string, keep func(string) bool) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, &ScanError{Family: family, Dir: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !keep(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}
