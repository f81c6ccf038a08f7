// Package watch re-runs the lint pipeline whenever the input template
// file changes, for the CLI's --watch mode.
package watch

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// RunFunc is called once at startup and again every time the watched file
// changes. It receives the context cancelled on shutdown.
type RunFunc func(ctx context.Context) error

// Options configures the watch behaviour.
type Options struct {
	// TemplatePath is the template file to watch.
	TemplatePath string

	// Debounce is the quiet period before triggering a rerun.
	Debounce time.Duration

	// Logger is used for structured logging.
	Logger *zap.Logger

	// Out is the writer for user-facing status messages.
	Out io.Writer
}

// DefaultOptions returns sensible default watch options.
func DefaultOptions() Options {
	return Options{
		Debounce: 300 * time.Millisecond,
		Logger:   zap.NewNop(),
		Out:      os.Stderr,
	}
}

// Run watches opts.TemplatePath and invokes runFn on startup and after
// every subsequent write, blocking until ctx is cancelled or a
// SIGINT/SIGTERM is received.
func Run(ctx context.Context, opts Options, runFn RunFunc) error {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the containing directory rather than the file itself: editors
	// commonly replace a file (write-to-temp, rename-over) rather than
	// writing in place, which drops a direct file watch.
	dir := filepath.Dir(opts.TemplatePath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(opts.Out, "watching %s (debounce=%s)\n", opts.TemplatePath, opts.Debounce)

	doRun(sigCtx, opts, runFn, "(initial)")

	db := newDebouncer(opts.Debounce, opts.Logger, func() {
		doRun(sigCtx, opts, runFn, filepath.Base(opts.TemplatePath))
	})
	defer db.stop()

	target := filepath.Clean(opts.TemplatePath)

	for {
		select {
		case <-sigCtx.Done():
			fmt.Fprintln(opts.Out, "\nshutting down watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !isRelevant(event) {
				continue
			}
			db.trigger()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Error("watcher error", zap.Error(watchErr))
		}
	}
}

func doRun(ctx context.Context, opts Options, runFn RunFunc, trigger string) {
	now := time.Now().Format("15:04:05")

	if err := runFn(ctx); err != nil {
		fmt.Fprintf(opts.Out, "[%s] %s -> ERROR: %v\n", now, trigger, err)
		return
	}
	fmt.Fprintf(opts.Out, "[%s] %s -> OK\n", now, trigger)
}

func isRelevant(event fsnotify.Event) bool {
	if event.Op == 0 {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
