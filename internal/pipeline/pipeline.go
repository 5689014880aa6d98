// Package pipeline sequences the orthomosaic stages: security guard, image
// loading, stitching, and output writing, with one aggregated progress
// scale and run-history recording.
package pipeline

import (
	"context"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
	"github.com/S3OPS/autoflight/internal/loader"
	"github.com/S3OPS/autoflight/internal/output"
	"github.com/S3OPS/autoflight/internal/progress"
	"github.com/S3OPS/autoflight/internal/security"
	"github.com/S3OPS/autoflight/internal/stitch"
	"github.com/S3OPS/autoflight/internal/storage"
)

// Request describes one orthomosaic run. Limits and options are scoped to
// the call; concurrent runs with different settings never interfere. A nil
// Output means the documented defaults; a non-nil value is used verbatim,
// so explicit out-of-range settings fail validation rather than being
// silently replaced.
type Request struct {
	InputDir   string
	OutputPath string
	Mode       stitch.Mode
	Loading    loader.Options
	Output     *output.Options
	Limits     security.Limits
	OnProgress progress.Func
}

// Result is the externally visible outcome of a successful run. Created
// once, never mutated.
type Result struct {
	RunID      string `json:"run_id"`
	OutputPath string `json:"output_path"`
	ImageCount int    `json:"image_count"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

// Controller wires the stages together. The store may be nil; history
// recording is then skipped.
type Controller struct {
	loader *loader.Loader
	orch   *stitch.Orchestrator
	writer *output.Writer
	store  *storage.Store
	log    *slog.Logger

	mu        sync.Mutex
	subs      map[int]chan storage.RunRecord
	nextSubID int
}

// New creates a Controller around the given engine.
func New(engine stitch.Engine, store *storage.Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		loader: loader.New(log),
		orch:   stitch.NewOrchestrator(engine, log),
		writer: output.New(log),
		store:  store,
		log:    log,
		subs:   make(map[int]chan storage.RunRecord),
	}
}

// Run executes the full pipeline. Aggregated progress covers 0-50% loading,
// 50-95% stitching, 95-100% writing, terminating at exactly 1.0 on
// success. The first stage failure aborts the rest and propagates
// unchanged; no output file is written on failures before the write call.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	req = withDefaults(req)

	mode, ok := stitch.ParseMode(string(req.Mode))
	if !ok {
		return nil, errs.New(errs.KindValidation, "invalid stitching mode %q", req.Mode)
	}

	runID := uuid.NewString()
	rec := storage.RunRecord{
		ID:         runID,
		InputPath:  req.InputDir,
		OutputPath: req.OutputPath,
		Mode:       string(mode),
	}
	if c.store != nil {
		if err := c.store.RecordRunStarted(rec); err != nil {
			c.log.Warn("failed to record run start", "run_id", runID, "error", err)
		}
	}

	result, err := c.run(ctx, req, mode, runID)
	if err != nil {
		rec.Status = "failed"
		rec.Error = err.Error()
		if c.store != nil {
			if dbErr := c.store.RecordRunFailed(runID, err); dbErr != nil {
				c.log.Warn("failed to record run failure", "run_id", runID, "error", dbErr)
			}
		}
		c.publish(rec)
		return nil, err
	}

	rec.Status = "completed"
	rec.ImageCount = result.ImageCount
	rec.Width = result.Width
	rec.Height = result.Height
	if c.store != nil {
		if dbErr := c.store.RecordRunCompleted(runID, result.ImageCount, result.Width, result.Height); dbErr != nil {
			c.log.Warn("failed to record run completion", "run_id", runID, "error", dbErr)
		}
	}
	c.publish(rec)
	return result, nil
}

func (c *Controller) run(ctx context.Context, req Request, mode stitch.Mode, runID string) (*Result, error) {
	cb := progress.Monotonic(req.OnProgress)

	if err := security.ValidatePath(req.InputDir, true, true); err != nil {
		return nil, err
	}

	images, err := c.loader.LoadAll(ctx, req.InputDir, req.Loading, req.Limits, cb)
	if err != nil {
		return nil, err
	}

	rasters := make([]image.Image, len(images))
	for i, img := range images {
		rasters[i] = img.Pixels
	}

	mosaic, err := c.orch.Stitch(rasters, mode, progress.Scale(cb, 0.5, 0.95))
	if err != nil {
		return nil, err
	}

	progress.Emit(cb, 0.95, "Writing output...")
	if err := c.writer.Write(mosaic, req.OutputPath, *req.Output); err != nil {
		return nil, err
	}
	progress.Emit(cb, 1.0, "Orthomosaic complete")

	bounds := mosaic.Bounds()
	c.log.Info("orthomosaic created",
		"run_id", runID,
		"output", req.OutputPath,
		"images", len(images),
		"width", bounds.Dx(),
		"height", bounds.Dy(),
	)
	return &Result{
		RunID:      runID,
		OutputPath: req.OutputPath,
		ImageCount: len(images),
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
	}, nil
}

// Validate performs the dry-run checks: directory validation, candidate
// discovery, and count/size guards, without decoding any pixels. It
// returns the number of candidates that would be loaded.
func (c *Controller) Validate(req Request) (int, error) {
	req = withDefaults(req)
	if _, ok := stitch.ParseMode(string(req.Mode)); !ok {
		return 0, errs.New(errs.KindValidation, "invalid stitching mode %q", req.Mode)
	}
	if err := security.ValidatePath(req.InputDir, true, true); err != nil {
		return 0, err
	}
	paths, err := c.loader.Discover(req.InputDir)
	if err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, errs.New(errs.KindImageLoad, "no supported images found (supported: %s)",
			strings.Join(imgio.SupportedExtensions(), ", ")).WithPath(req.InputDir)
	}
	if err := security.ValidateFileCount(len(paths), req.Limits); err != nil {
		return 0, err
	}
	for _, p := range paths {
		if err := security.ValidateFileSize(p, req.Limits); err != nil {
			return 0, err
		}
	}
	return len(paths), nil
}

func withDefaults(req Request) Request {
	if req.Limits == (security.Limits{}) {
		req.Limits = security.DefaultLimits()
	}
	if req.Mode == "" {
		req.Mode = stitch.ModePanorama
	}
	if req.Output == nil {
		opts := output.DefaultOptions()
		req.Output = &opts
	}
	if req.Loading.MaxWorkers == 0 {
		req.Loading.MaxWorkers = loader.DefaultMaxWorkers
	}
	return req
}

// Subscribe registers a listener for run records. The returned function
// unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan storage.RunRecord, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	ch := make(chan storage.RunRecord, 8)
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			close(sub)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) publish(rec storage.RunRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- rec:
		default:
			// Slow subscribers drop events rather than stall runs.
		}
	}
}
