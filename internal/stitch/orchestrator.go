package stitch

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/progress"
)

// Orchestrator validates input, invokes the engine, and interprets its
// status codes. Progress is reported on a stage-local [0, 1] scale with
// exactly two markers around the engine call; there are no intermediate
// fractions because the engine exposes none.
type Orchestrator struct {
	engine Engine
	log    *slog.Logger
}

// NewOrchestrator wires an engine. A nil logger falls back to slog.Default.
func NewOrchestrator(engine Engine, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{engine: engine, log: log}
}

// Stitch composes images into one mosaic in the given mode.
func (o *Orchestrator) Stitch(images []image.Image, mode Mode, onProgress progress.Func) (image.Image, error) {
	if len(images) == 0 {
		return nil, errs.New(errs.KindValidation, "no images provided for stitching")
	}
	if _, ok := ParseMode(string(mode)); !ok {
		return nil, errs.New(errs.KindValidation, "invalid stitching mode %q, use %q or %q", mode, ModePanorama, ModeScans)
	}
	if len(images) == 1 {
		o.log.Warn("only one image provided, returning it unchanged")
		progress.Emit(onProgress, 1.0, "Single image - no stitching needed")
		return images[0], nil
	}

	o.log.Info("stitching images", "count", len(images), "mode", mode)
	progress.Emit(onProgress, 0.0, fmt.Sprintf("Stitching %d images...", len(images)))

	mosaic, status, err := o.engine.Stitch(images, mode)
	if err != nil {
		return nil, errs.Wrap(errs.KindStitching, err, "stitching engine failed")
	}
	if status != StatusOK {
		return nil, errs.New(errs.KindStitching, "stitching failed: %s", statusMessage(status))
	}
	if mosaic == nil {
		return nil, errs.New(errs.KindStitching, "stitching produced no output")
	}

	bounds := mosaic.Bounds()
	o.log.Info("stitching complete", "width", bounds.Dx(), "height", bounds.Dy())
	progress.Emit(onProgress, 1.0, "Stitching complete")
	return mosaic, nil
}

func statusMessage(status Status) string {
	switch status {
	case StatusNeedMoreImages:
		return "need more images with sufficient overlap"
	case StatusHomographyEstFail:
		return "homography estimation failed - images may not overlap sufficiently"
	case StatusCameraParamsAdjustFail:
		return "camera parameter adjustment failed"
	default:
		return fmt.Sprintf("unknown engine status %d", status)
	}
}
