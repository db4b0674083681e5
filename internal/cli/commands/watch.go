package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const defaultDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch <config>",
		Short: "Recompile a board configuration whenever it changes",
		Long: `Compile a board configuration, then watch it and recompile on every
change until interrupted. Failed compilations are reported and leave the
previous output in place.`,
		Example: `  # Rebuild display.py on every save
  boardgen watch board.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], debounce)
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "Quiet period before recompiling")

	return cmd
}

func runWatch(cmd *cobra.Command, docPath string, debounce time.Duration) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := cmdCtx.Renderer
	rebuild := func() {
		out, err := cmdCtx.Engine.Compile(ctx, docPath)
		if err != nil {
			r.Error(err.Error())
			return
		}
		if err := renderOutcome(r, docPath, out); err != nil {
			cmdCtx.Logger.Warn("failed to render outcome", slog.String("error", err.Error()))
		}
	}

	rebuild()
	r.Muted(fmt.Sprintf("Watching %s (Ctrl+C to stop)", docPath))
	return watchDocument(ctx, docPath, debounce, cmdCtx.Logger, rebuild)
}

// watchDocument calls onChange after each burst of writes to path, once the
// burst has been quiet for debounce. The parent directory is watched so
// editors that save by rename are seen. onChange runs on the calling
// goroutine. Returns nil when ctx is done.
func watchDocument(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	// Debounce timer; it only signals, rebuilds stay on this goroutine.
	var debounceTimer *time.Timer
	trigger := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			logger.Debug("change detected", slog.String("config", path))
			onChange()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
