package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boardgen/internal/cli/output"
	"github.com/leapstack-labs/boardgen/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
	Prune bool
	Keep  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded builds",
		Long: `Show the builds recorded in the state database, newest first.

Every compile records a build: successful, failed, or skipped because the
output was already up to date. Use --prune to drop old entries.`,
		Example: `  # Show the last 10 builds
  boardgen history --limit 10

  # Keep only the 5 newest builds
  boardgen history --prune --keep 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of builds to show (0 for all)")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "Delete old builds before listing")
	cmd.Flags().IntVar(&opts.Keep, "keep", 0, "Builds kept by --prune (default: history_limit)")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx, cleanup, err := newCommandContext(cmd, engineOptions{noOutput: true})
	if err != nil {
		return err
	}
	defer cleanup()

	store := cmdCtx.Engine.Store()
	if store == nil {
		return errors.New("build history is disabled: set state_path")
	}
	ctx := commandContext(cmd)

	var pruned int64
	if opts.Prune {
		keep := opts.Keep
		if keep <= 0 {
			keep = cmdCtx.Cfg.HistoryLimit
		}
		if pruned, err = store.PruneBuilds(ctx, keep); err != nil {
			return err
		}
	}

	builds, err := store.ListBuilds(ctx, opts.Limit)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		res := output.HistoryOutput{Builds: make([]output.BuildInfo, 0, len(builds)), Pruned: pruned}
		for _, b := range builds {
			res.Builds = append(res.Builds, buildInfo(b))
		}
		return r.JSON(res)
	}

	if opts.Prune {
		r.Success(fmt.Sprintf("Pruned %d builds", pruned))
	}
	r.Header(1, fmt.Sprintf("Builds (%d shown)", len(builds)))
	if len(builds) == 0 {
		r.Muted("No builds recorded yet.")
		return nil
	}

	rows := make([][]string, len(builds))
	for i, b := range builds {
		detail := strings.Join(b.Tokens, " ")
		if b.Status == state.BuildStatusFailed {
			detail = truncateOneLine(b.Error, 60)
		}
		rows[i] = []string{
			b.StartedAt.Local().Format("2006-01-02 15:04:05"),
			string(b.Status),
			b.ConfigPath,
			b.Device,
			fmt.Sprintf("%dms", b.Duration.Milliseconds()),
			detail,
		}
	}
	r.Table([]string{"Started", "Status", "Config", "Device", "Duration", "Tokens / Error"}, rows)
	return nil
}

func buildInfo(b *state.Build) output.BuildInfo {
	return output.BuildInfo{
		ID:         b.ID,
		Config:     b.ConfigPath,
		Status:     string(b.Status),
		Device:     b.Device,
		Tokens:     b.Tokens,
		Error:      b.Error,
		StartedAt:  b.StartedAt,
		DurationMs: b.Duration.Milliseconds(),
	}
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
