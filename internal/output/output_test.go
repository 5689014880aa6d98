package output

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/S3OPS/autoflight/internal/errs"
	"github.com/S3OPS/autoflight/internal/imgio"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(3 * x), G: uint8(5 * y), B: uint8(x + y), A: 255})
		}
	}
	return img
}

func TestWriteRejectsEmptyImage(t *testing.T) {
	w := New(nil)
	if err := w.Write(nil, filepath.Join(t.TempDir(), "out.png"), DefaultOptions()); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("nil image should fail validation, got %v", err)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if err := w.Write(empty, filepath.Join(t.TempDir(), "out.png"), DefaultOptions()); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("empty image should fail validation, got %v", err)
	}
}

func TestWriteValidatesQualityBeforeIO(t *testing.T) {
	w := New(nil)
	path := filepath.Join(t.TempDir(), "out.jpg")

	opts := DefaultOptions()
	opts.JPEGQuality = 150
	if err := w.Write(testImage(4, 4), path, opts); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("quality 150 should fail validation, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file may exist after a validation failure")
	}

	opts.JPEGQuality = 50
	if err := w.Write(testImage(4, 4), path, opts); err != nil {
		t.Fatalf("quality 50 should succeed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file should exist: %v", err)
	}
}

func TestWriteValidatesPNGCompression(t *testing.T) {
	w := New(nil)
	opts := DefaultOptions()
	opts.PNGCompression = 10
	err := w.Write(testImage(4, 4), filepath.Join(t.TempDir(), "out.png"), opts)
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("compression 10 should fail validation, got %v", err)
	}
}

func TestWriteDirectoryCreation(t *testing.T) {
	w := New(nil)
	base := t.TempDir()
	nested := filepath.Join(base, "a", "b", "out.png")

	opts := DefaultOptions()
	opts.CreateDirs = false
	if err := w.Write(testImage(4, 4), nested, opts); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("missing parent without create flag should fail validation, got %v", err)
	}

	opts.CreateDirs = true
	if err := w.Write(testImage(4, 4), nested, opts); err != nil {
		t.Fatalf("create-dirs write failed: %v", err)
	}
	if _, err := os.Stat(nested); err != nil {
		t.Fatalf("output file should exist: %v", err)
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	err := New(nil).Write(testImage(4, 4), filepath.Join(t.TempDir(), "out.bmp"), DefaultOptions())
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("unknown suffix should fail validation, got %v", err)
	}
}

func TestWriteRasterFormats(t *testing.T) {
	w := New(nil)
	dir := t.TempDir()
	for _, name := range []string{"out.jpg", "out.jpeg", "out.png", "out.tif", "out.tiff"} {
		path := filepath.Join(dir, name)
		if err := w.Write(testImage(12, 8), path, DefaultOptions()); err != nil {
			t.Fatalf("write %s failed: %v", name, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		img, err := imgio.Decode(data)
		if err != nil {
			t.Fatalf("reading back %s failed: %v", name, err)
		}
		if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
			t.Fatalf("%s: unexpected bounds %v", name, img.Bounds())
		}
	}
}

var dataURLPattern = regexp.MustCompile(`data:image/png;base64,([A-Za-z0-9+/=]+)`)

func TestWriteHTMLRoundTrip(t *testing.T) {
	w := New(nil)
	src := testImage(30, 20)
	path := filepath.Join(t.TempDir(), "mosaic.html")

	if err := w.Write(src, path, DefaultOptions()); err != nil {
		t.Fatalf("html write failed: %v", err)
	}

	doc, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(doc)
	if !strings.HasPrefix(content, "<!DOCTYPE html>") {
		t.Fatalf("document must begin with a doctype")
	}
	if !strings.Contains(content, "<title>Orthomosaic</title>") {
		t.Fatalf("document must carry the default title")
	}

	match := dataURLPattern.FindStringSubmatch(content)
	if match == nil {
		t.Fatalf("document must embed a PNG data URL")
	}
	raw, err := base64.StdEncoding.DecodeString(match[1])
	if err != nil {
		t.Fatalf("payload is not valid base64: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("payload is not a PNG: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Fatalf("embedded image bounds changed: %v", decoded.Bounds())
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			r1, g1, b1, a1 := src.At(x, y).RGBA()
			r2, g2, b2, a2 := decoded.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed through HTML embedding", x, y)
			}
		}
	}
}

func TestWriteHTMLCustomTitle(t *testing.T) {
	w := New(nil)
	path := filepath.Join(t.TempDir(), "report.html")
	opts := DefaultOptions()
	opts.Title = "Survey <42>"

	if err := w.Write(testImage(4, 4), path, opts); err != nil {
		t.Fatalf("html write failed: %v", err)
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(doc), "Survey &lt;42&gt;") {
		t.Fatalf("title must be escaped in the document")
	}
}
