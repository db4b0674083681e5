// Package state records compilation history in SQLite.
// The history backs the incremental skip of the compile command and the
// history command.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no build matches a lookup.
var ErrNotFound = errors.New("build not found")

// BuildStatus is the outcome of one compilation.
type BuildStatus string

// Build statuses.
const (
	BuildStatusSuccess BuildStatus = "success"
	BuildStatusFailed  BuildStatus = "failed"
	BuildStatusSkipped BuildStatus = "skipped"
)

// Build is one recorded compilation.
type Build struct {
	ID          string
	ConfigPath  string
	ConfigHash  string
	CatalogHash string
	OutputPath  string
	OutputHash  string
	Device      string
	Status      BuildStatus
	Tokens      []string
	Imports     int
	Constants   int
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

// Store persists build history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	// RecordBuild inserts b, assigning an ID when empty.
	RecordBuild(ctx context.Context, b *Build) error
	// LastSuccess returns the latest successful build of a config file.
	LastSuccess(ctx context.Context, configPath string) (*Build, error)
	// ListBuilds returns the most recent builds, newest first.
	ListBuilds(ctx context.Context, limit int) ([]*Build, error)
	// PruneBuilds keeps the newest keep builds and deletes the rest.
	PruneBuilds(ctx context.Context, keep int) (int64, error)
}

var _ Store = (*SQLiteStore)(nil)
