package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const buildColumns = `id, config_path, config_hash, catalog_hash, output_path, output_hash,
	device, status, tokens, imports, constants, error, started_at, duration_ms`

// RecordBuild inserts a build record.
func (s *SQLiteStore) RecordBuild(ctx context.Context, b *Build) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if b.ID == "" {
		b.ID = generateID()
	}
	if b.StartedAt.IsZero() {
		b.StartedAt = time.Now().UTC()
	}

	toks := b.Tokens
	if toks == nil {
		toks = []string{}
	}
	tokensJSON, err := json.Marshal(toks)
	if err != nil {
		return fmt.Errorf("failed to encode tokens: %w", err)
	}

	s.logger.Debug("recording build",
		slog.String("id", b.ID),
		slog.String("config", b.ConfigPath),
		slog.String("status", string(b.Status)))

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO builds (`+buildColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.ConfigPath, b.ConfigHash, b.CatalogHash, b.OutputPath, b.OutputHash,
		b.Device, string(b.Status), string(tokensJSON), b.Imports, b.Constants, b.Error,
		b.StartedAt.UnixMilli(), b.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}
	return nil
}

// LastSuccess returns the most recent successful build of configPath.
func (s *SQLiteStore) LastSuccess(ctx context.Context, configPath string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+buildColumns+` FROM builds
		WHERE config_path = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`,
		configPath, string(BuildStatusSuccess),
	)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last build: %w", err)
	}
	return b, nil
}

// ListBuilds returns up to limit builds, newest first. limit <= 0 lists all.
func (s *SQLiteStore) ListBuilds(ctx context.Context, limit int) ([]*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+buildColumns+` FROM builds ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var builds []*Build
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// PruneBuilds deletes all but the newest keep builds.
func (s *SQLiteStore) PruneBuilds(ctx context.Context, keep int) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM builds WHERE id NOT IN (
			SELECT id FROM builds ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune builds: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune builds: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned builds", slog.Int64("deleted", n), slog.Int("kept", keep))
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(row scanner) (*Build, error) {
	var (
		b          Build
		status     string
		tokensJSON string
		startedMs  int64
		durationMs int64
	)
	err := row.Scan(
		&b.ID, &b.ConfigPath, &b.ConfigHash, &b.CatalogHash, &b.OutputPath, &b.OutputHash,
		&b.Device, &status, &tokensJSON, &b.Imports, &b.Constants, &b.Error,
		&startedMs, &durationMs,
	)
	if err != nil {
		return nil, err
	}

	b.Status = BuildStatus(status)
	b.StartedAt = time.UnixMilli(startedMs).UTC()
	b.Duration = time.Duration(durationMs) * time.Millisecond
	if err := json.Unmarshal([]byte(tokensJSON), &b.Tokens); err != nil {
		return nil, fmt.Errorf("decode tokens of build %s: %w", b.ID, err)
	}
	return &b, nil
}
