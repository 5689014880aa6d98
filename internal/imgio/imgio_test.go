package imgio

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"
)

func TestIsSupportedCaseInsensitive(t *testing.T) {
	supported := []string{"a.jpg", "b.JPG", "c.Jpeg", "d.png", "e.PNG", "f.tif", "g.TIFF"}
	for _, name := range supported {
		if !IsSupported(name) {
			t.Fatalf("%s should be supported", name)
		}
	}
	rejected := []string{"a.gif", "b.bmp", "c.webp", "d.txt", "e", "f.jpg.bak"}
	for _, name := range rejected {
		if IsSupported(name) {
			t.Fatalf("%s should be rejected", name)
		}
	}
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 255})
		}
	}
	return img
}

func TestEncodePNGRoundTrip(t *testing.T) {
	src := testImage(32, 24)
	data, err := EncodePNG(src, 3)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds() != src.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", decoded.Bounds(), src.Bounds())
	}
	for y := 0; y < 24; y++ {
		for x := 0; x < 32; x++ {
			r1, g1, b1, a1 := src.At(x, y).RGBA()
			r2, g2, b2, a2 := decoded.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed through PNG round trip", x, y)
			}
		}
	}
}

func TestEncodeTIFFRoundTrip(t *testing.T) {
	src := testImage(16, 16)
	data, err := EncodeTIFF(src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("tiff decode failed: %v", err)
	}
	if decoded.Bounds().Dx() != 16 || decoded.Bounds().Dy() != 16 {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestDecodeBase64StripsDataURLPrefix(t *testing.T) {
	data, err := EncodePNG(testImage(8, 8), 3)
	if err != nil {
		t.Fatal(err)
	}
	raw := base64.StdEncoding.EncodeToString(data)

	for _, payload := range []string{raw, "data:image/png;base64," + raw} {
		img, err := DecodeBase64(payload)
		if err != nil {
			t.Fatalf("decode failed for payload form: %v", err)
		}
		if img.Bounds().Dx() != 8 {
			t.Fatalf("unexpected width %d", img.Bounds().Dx())
		}
	}
}

func TestDecodeBase64RejectsGarbage(t *testing.T) {
	if _, err := DecodeBase64("not-base64!!"); err == nil {
		t.Fatalf("expected error for invalid base64")
	}
	if _, err := DecodeBase64(base64.StdEncoding.EncodeToString([]byte("not an image"))); err == nil {
		t.Fatalf("expected error for undecodable bytes")
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(testImage(20, 10), 80)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	img, err := Decode(data)
	if err != nil {
		t.Fatalf("jpeg decode failed: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 10 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}
