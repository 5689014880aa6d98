//go:build gocv
// +build gocv

package stitch

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
)

// GoCVEngine stitches through OpenCV's high-level Stitcher.
type GoCVEngine struct{}

// NewEngine returns the OpenCV-backed engine.
func NewEngine() *GoCVEngine {
	return &GoCVEngine{}
}

// Stitch converts the inputs to Mats, runs the OpenCV stitcher once, and
// converts the composed panorama back. The underlying call is blocking and
// cannot report intermediate progress.
func (e *GoCVEngine) Stitch(images []image.Image, mode Mode) (image.Image, Status, error) {
	cvMode := gocv.PanoramaMode
	if mode == ModeScans {
		cvMode = gocv.ScansMode
	}

	mats := make([]gocv.Mat, 0, len(images))
	defer func() {
		for i := range mats {
			mats[i].Close()
		}
	}()
	for _, img := range images {
		mat, err := toBGRMat(img)
		if err != nil {
			return nil, StatusOK, err
		}
		mats = append(mats, mat)
	}

	stitcher := gocv.NewStitcher(cvMode)
	defer stitcher.Close()

	pano := gocv.NewMat()
	defer pano.Close()

	switch stitcher.Stitch(mats, &pano) {
	case gocv.StitcherOK:
	case gocv.StitcherErrNeedMoreImgs:
		return nil, StatusNeedMoreImages, nil
	case gocv.StitcherErrHomographyEstFail:
		return nil, StatusHomographyEstFail, nil
	case gocv.StitcherErrCameraParamsAdjustFail:
		return nil, StatusCameraParamsAdjustFail, nil
	default:
		return nil, Status(-1), nil
	}

	if pano.Empty() {
		return nil, StatusOK, nil
	}
	out, err := pano.ToImage()
	if err != nil {
		return nil, StatusOK, err
	}
	return out, StatusOK, nil
}

func toBGRMat(img image.Image) (gocv.Mat, error) {
	rgb, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), err
	}
	if rgb.Empty() {
		rgb.Close()
		return gocv.NewMat(), errors.New("image converted to empty mat")
	}
	bgr := gocv.NewMat()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)
	rgb.Close()
	return bgr, nil
}
