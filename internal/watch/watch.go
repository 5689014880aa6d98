// Package watch re-runs the orthomosaic pipeline when the input directory
// changes, debouncing bursts of filesystem events.
package watch

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/S3OPS/autoflight/internal/imgio"
	"github.com/S3OPS/autoflight/internal/pipeline"
)

// DefaultDebounce is how long the watcher waits after the last event before
// rebuilding, so copy bursts trigger a single run.
const DefaultDebounce = 2 * time.Second

// Runner executes one pipeline run. Satisfied by *pipeline.Controller.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Watcher monitors one input directory and rebuilds the mosaic on changes.
type Watcher struct {
	runner   Runner
	req      pipeline.Request
	debounce time.Duration
	log      *slog.Logger
}

// New creates a Watcher for the request's input directory. A zero debounce
// falls back to DefaultDebounce.
func New(runner Runner, req pipeline.Request, debounce time.Duration, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{runner: runner, req: req, debounce: debounce, log: log}
}

// Start runs an initial build, then watches until ctx is canceled. Run
// failures are logged and watching continues.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.req.InputDir); err != nil {
		return err
	}
	w.log.Info("watching directory", "dir", w.req.InputDir, "output", w.req.OutputPath)

	w.rebuild(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.log.Debug("input changed", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", "error", err)
		case <-timerC:
			timer = nil
			timerC = nil
			w.rebuild(ctx)
		}
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	result, err := w.runner.Run(ctx, w.req)
	if err != nil {
		w.log.Error("rebuild failed", "dir", w.req.InputDir, "error", err)
		return
	}
	w.log.Info("rebuild complete",
		"output", result.OutputPath,
		"images", result.ImageCount,
		"width", result.Width,
		"height", result.Height,
	)
}

// relevant filters events down to creates, writes, renames, and removals of
// supported image files.
func relevant(event fsnotify.Event) bool {
	if !imgio.IsSupported(event.Name) {
		return false
	}
	return event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Rename) ||
		event.Op.Has(fsnotify.Remove)
}
