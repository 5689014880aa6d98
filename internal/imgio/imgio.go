// Package imgio centralizes raster decode/encode for the formats the
// pipeline accepts: JPEG and PNG via the standard library, TIFF via
// golang.org/x/image.
package imgio

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"github.com/S3OPS/autoflight/internal/errs"
)

var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tif":  true,
	".tiff": true,
}

// IsSupported reports whether path has a supported image extension. The
// check is case-insensitive.
func IsSupported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// SupportedExtensions returns the accepted extension set, lowercased with
// leading dots.
func SupportedExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}
}

// DecodeFile reads and decodes one image from disk.
func DecodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindImageLoad, err, "failed to read image").WithPath(path)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, errs.Wrap(errs.KindImageLoad, err, "failed to decode image").WithPath(path)
	}
	return img, nil
}

// Decode decodes raw image bytes in any supported format. Format sniffing
// follows the registered decoders (jpeg, png, tiff).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// EncodeJPEG encodes img as JPEG with the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePNG encodes img as PNG. The compression parameter follows the 0-9
// convention and maps onto the encoder's discrete levels.
func EncodePNG(img image.Image, compression int) ([]byte, error) {
	enc := png.Encoder{CompressionLevel: pngLevel(compression)}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTIFF encodes img as deflate-compressed TIFF.
func EncodeTIFF(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	opts := &tiff.Options{Compression: tiff.Deflate, Predictor: true}
	if err := tiff.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pngLevel(compression int) png.CompressionLevel {
	switch {
	case compression <= 0:
		return png.NoCompression
	case compression <= 3:
		return png.BestSpeed
	case compression <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// DecodeBase64 decodes a base64 image payload, tolerating an optional
// "data:<mime>;base64," prefix as produced by browsers.
func DecodeBase64(payload string) (image.Image, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, err
	}
	return Decode(raw)
}

// EncodeBase64PNG encodes img as PNG and returns the base64 text form used
// by the HTTP gateway and the HTML writer.
func EncodeBase64PNG(img image.Image, compression int) (string, error) {
	data, err := EncodePNG(img, compression)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}
