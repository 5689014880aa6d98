// Package loader discovers and loads candidate images from a directory with
// bounded parallelism. Output order is always the canonical path-sorted
// order, never load completion order.
package loader

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
	"github.com/S3OPS/autoflight/internal/progress"
	"github.com/S3OPS/autoflight/internal/security"
)

// DefaultMaxWorkers bounds the load pool when the caller does not override.
const DefaultMaxWorkers = 4

// LoadedImage is one decoded raster plus its canonical index in the
// path-sorted candidate list. Never mutated after load.
type LoadedImage struct {
	Index  int
	Path   string
	Pixels image.Image
}

// Options tunes loading behavior for one call.
type Options struct {
	Parallel   bool
	MaxWorkers int
}

// Loader loads images under security limits and reports progress.
type Loader struct {
	log *slog.Logger
}

// New creates a Loader. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{log: log}
}

// Discover lists the supported image files directly under dir in canonical
// (lexicographic path) order. It does not read any image bytes.
func (l *Loader) Discover(dir string) ([]string, error) {
	if err := security.ValidatePath(dir, true, true); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errs.Wrap(errs.KindImageLoad, err, "failed to list directory").WithPath(dir)
	}
	var paths []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if imgio.IsSupported(entry.Name()) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	// os.ReadDir returns entries sorted by filename, so paths are already
	// in canonical order.
	return paths, nil
}

// LoadAll discovers and loads every supported image under dir. The returned
// slice is indexed by canonical position regardless of completion timing.
// Progress fractions are completed/N * 0.5; the upper half of the scale is
// reserved for the stitch and write stages.
func (l *Loader) LoadAll(ctx context.Context, dir string, opts Options, limits security.Limits, onProgress progress.Func) ([]LoadedImage, error) {
	paths, err := l.Discover(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errs.New(errs.KindImageLoad, "no supported images found (supported: %s)",
			strings.Join(imgio.SupportedExtensions(), ", ")).WithPath(dir)
	}
	if err := security.ValidateFileCount(len(paths), limits); err != nil {
		return nil, err
	}
	for _, p := range paths {
		if _, err := security.ValidateContainment(p, dir); err != nil {
			return nil, err
		}
	}

	l.log.Info("loading images", "dir", dir, "count", len(paths), "parallel", opts.Parallel)

	if !opts.Parallel || len(paths) < 2 {
		return l.loadSequential(ctx, paths, limits, onProgress)
	}
	return l.loadParallel(ctx, paths, opts.MaxWorkers, limits, onProgress)
}

func (l *Loader) loadSequential(ctx context.Context, paths []string, limits security.Limits, onProgress progress.Func) ([]LoadedImage, error) {
	images := make([]LoadedImage, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, errs.Wrap(errs.KindImageLoad, err, "loading canceled")
		}
		img, err := loadOne(path, limits)
		if err != nil {
			progress.Emit(onProgress, fraction(i, len(paths)), fmt.Sprintf("Failed loading %s", filepath.Base(path)))
			return nil, err
		}
		images[i] = LoadedImage{Index: i, Path: path, Pixels: img}
		progress.Emit(onProgress, fraction(i+1, len(paths)), fmt.Sprintf("Loaded %s", filepath.Base(path)))
	}
	return images, nil
}

func (l *Loader) loadParallel(ctx context.Context, paths []string, maxWorkers int, limits security.Limits, onProgress progress.Func) ([]LoadedImage, error) {
	if maxWorkers < 1 {
		maxWorkers = DefaultMaxWorkers
	}

	// Each task is tagged with its canonical index at dispatch and writes
	// its slot exactly once; indices never collide, so the slice needs no
	// further synchronization.
	images := make([]LoadedImage, len(paths))

	var (
		mu        sync.Mutex
		completed int
	)
	report := func(path string, failed bool) {
		mu.Lock()
		defer mu.Unlock()
		completed++
		msg := fmt.Sprintf("Loaded %s", filepath.Base(path))
		if failed {
			msg = fmt.Sprintf("Failed loading %s", filepath.Base(path))
		}
		progress.Emit(onProgress, fraction(completed, len(paths)), msg)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				// A sibling already failed; skip without reporting.
				return nil
			}
			img, err := loadOne(path, limits)
			if err != nil {
				report(path, true)
				return err
			}
			images[i] = LoadedImage{Index: i, Path: path, Pixels: img}
			report(path, false)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func loadOne(path string, limits security.Limits) (image.Image, error) {
	if err := security.ValidateFileSize(path, limits); err != nil {
		return nil, err
	}
	img, err := imgio.DecodeFile(path)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if err := security.ValidateDimensions(bounds.Dx(), bounds.Dy(), limits); err != nil {
		return nil, err
	}
	return img, nil
}

func fraction(completed, total int) float64 {
	return float64(completed) / float64(total) * 0.5
}
