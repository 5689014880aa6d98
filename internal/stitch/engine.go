// Package stitch drives the external stitching engine. The engine does the
// algorithmic work (feature matching, homography estimation, seam finding,
// blending) and is consumed as a black box behind the Engine interface.
package stitch

import "image"

// Mode selects the engine's alignment profile.
type Mode string

const (
	ModePanorama Mode = "panorama"
	ModeScans    Mode = "scans"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePanorama, ModeScans:
		return Mode(s), true
	}
	return "", false
}

// Status is the engine's classified outcome for one stitch call.
type Status int

const (
	StatusOK Status = iota
	StatusNeedMoreImages
	StatusHomographyEstFail
	StatusCameraParamsAdjustFail
)

// Engine composes multiple overlapping images into one mosaic. The call is
// blocking and unsplittable: the engine exposes no intermediate progress
// and cannot be canceled mid-stitch. A non-nil error reports an invocation
// failure rather than a classified stitching outcome.
type Engine interface {
	Stitch(images []image.Image, mode Mode) (image.Image, Status, error)
}
