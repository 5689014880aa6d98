//go:build !gocv
// +build !gocv

package stitch

import (
	"errors"
	"image"
)

// GoCVEngine is the no-OpenCV placeholder used when the binary is built
// without the gocv tag. Multi-image stitching is unavailable in this build;
// the orchestrator's single-image shortcut still works.
type GoCVEngine struct{}

// NewEngine returns the placeholder engine.
func NewEngine() *GoCVEngine {
	return &GoCVEngine{}
}

// Stitch always fails: there is no engine in this build.
func (e *GoCVEngine) Stitch(images []image.Image, mode Mode) (image.Image, Status, error) {
	return nil, StatusOK, errors.New("stitching engine unavailable: build with -tags gocv to enable OpenCV")
}
