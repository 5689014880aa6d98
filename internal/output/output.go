// Package output persists a composed mosaic as a raster file or as a
// self-contained HTML document with the image embedded as a data URL.
package output

import (
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
)

// Default encoder settings.
const (
	DefaultJPEGQuality    = 95
	DefaultPNGCompression = 3
)

// Options controls encoding and directory behavior for one write.
type Options struct {
	JPEGQuality    int
	PNGCompression int
	CreateDirs     bool
	Title          string // HTML document title; empty means "Orthomosaic"
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		JPEGQuality:    DefaultJPEGQuality,
		PNGCompression: DefaultPNGCompression,
		CreateDirs:     true,
	}
}

// Writer persists images. The output path's suffix selects the format:
// .jpg/.jpeg, .png, .tif/.tiff write raster files, .html writes the
// embedded-image document.
type Writer struct {
	log *slog.Logger
}

// New creates a Writer. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Writer {
	if log == nil {
		log = slog.Default()
	}
	return &Writer{log: log}
}

// Write validates parameters, prepares the parent directory, and writes img
// to path in the suffix-selected format.
func (w *Writer) Write(img image.Image, path string, opts Options) error {
	if img == nil || img.Bounds().Empty() {
		return errs.New(errs.KindValidation, "cannot save empty image")
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		return errs.New(errs.KindValidation, "jpeg quality must be 1-100, got %d", opts.JPEGQuality)
	}
	if opts.PNGCompression < 0 || opts.PNGCompression > 9 {
		return errs.New(errs.KindValidation, "png compression must be 0-9, got %d", opts.PNGCompression)
	}

	parent := filepath.Dir(path)
	if opts.CreateDirs {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return errs.Wrap(errs.KindOutput, err, "failed to create output directory").WithPath(parent)
		}
	} else if _, err := os.Stat(parent); os.IsNotExist(err) {
		return errs.New(errs.KindValidation, "output directory does not exist").WithPath(parent)
	}

	suffix := strings.ToLower(filepath.Ext(path))
	if suffix == ".html" {
		return w.writeHTML(img, path, opts)
	}

	var (
		data []byte
		err  error
	)
	switch suffix {
	case ".jpg", ".jpeg":
		data, err = imgio.EncodeJPEG(img, opts.JPEGQuality)
	case ".png":
		data, err = imgio.EncodePNG(img, opts.PNGCompression)
	case ".tif", ".tiff":
		data, err = imgio.EncodeTIFF(img)
	default:
		return errs.New(errs.KindValidation, "unsupported output format %q", suffix).WithPath(path)
	}
	if err != nil {
		return errs.Wrap(errs.KindOutput, err, "failed to encode output image").WithPath(path)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errs.Wrap(errs.KindOutput, err, "failed to write output image").WithPath(path)
	}
	w.log.Info("output written", "path", path, "bytes", len(data), "format", suffix)
	return nil
}
