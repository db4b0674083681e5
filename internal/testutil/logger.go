// Package testutil provides shared helpers for package tests.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// NewTestLogger returns a debug-level logger that writes through t.Log, so
// compiler and engine logs only show up for failing tests or with -v.
func NewTestLogger(t testing.TB) *slog.Logger {
	t.Helper()
	return slog.New(slog.NewTextHandler(tbWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type tbWriter struct {
	t testing.TB
}

func (w tbWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// WriteFile writes content below dir, creating parent directories.
// It returns the full path.
func WriteFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// SetupDriverTree creates a drivers root with the conventional display,
// indev and io_expander layout and returns its path.
func SetupDriverTree(t testing.TB, display, indev, expander []string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range display {
		if err := os.MkdirAll(filepath.Join(root, "display", d), 0o750); err != nil {
			t.Fatalf("failed to create display driver %s: %v", d, err)
		}
	}
	for _, f := range indev {
		WriteFile(t, root, filepath.Join("indev", f+".py"), "# indev driver\n")
	}
	for _, f := range expander {
		WriteFile(t, root, filepath.Join("io_expander", f+".py"), "# io expander driver\n")
	}
	return root
}
