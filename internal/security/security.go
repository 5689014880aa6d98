// Package security enforces resource and path-containment limits before any
// untrusted image bytes are decoded.
package security

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/S3OPS/autoflight/internal/errs"
)

// Default ceilings applied when a caller does not override Limits.
const (
	DefaultMaxFileSizeBytes = 500_000_000 // 500 MB
	DefaultMaxImagePixels   = 100_000_000 // 100 megapixels
	DefaultMaxFileCount     = 1000
)

// Limits bounds resource consumption for one pipeline run. A Limits value is
// immutable for the duration of a run; concurrent runs may carry different
// values without interfering.
type Limits struct {
	MaxFileSizeBytes int64 `json:"max_file_size_bytes"`
	MaxImagePixels   int64 `json:"max_image_pixels"`
	MaxFileCount     int   `json:"max_file_count"`
}

// DefaultLimits returns the documented default ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxFileSizeBytes: DefaultMaxFileSizeBytes,
		MaxImagePixels:   DefaultMaxImagePixels,
		MaxFileCount:     DefaultMaxFileCount,
	}
}

// Validate checks that every limit is a positive integer.
func (l Limits) Validate() error {
	if l.MaxFileSizeBytes <= 0 {
		return errs.New(errs.KindValidation, "max_file_size_bytes must be positive, got %d", l.MaxFileSizeBytes)
	}
	if l.MaxImagePixels <= 0 {
		return errs.New(errs.KindValidation, "max_image_pixels must be positive, got %d", l.MaxImagePixels)
	}
	if l.MaxFileCount <= 0 {
		return errs.New(errs.KindValidation, "max_file_count must be positive, got %d", l.MaxFileCount)
	}
	return nil
}

// ValidatePath checks existence and type expectations for a path.
func ValidatePath(path string, mustExist, mustBeDir bool) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return errs.New(errs.KindValidation, "path does not exist").WithPath(path)
			}
			return nil
		}
		return errs.Wrap(errs.KindValidation, err, "cannot access path").WithPath(path)
	}
	if mustBeDir && !info.IsDir() {
		return errs.New(errs.KindValidation, "path is not a directory").WithPath(path)
	}
	return nil
}

// ValidateContainment resolves path (following symlinks) and verifies the
// result lies within baseDir's resolved subtree. It returns the resolved
// path so callers operate on the canonical form.
func ValidateContainment(path, baseDir string) (string, error) {
	resolved, err := canonicalize(path)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "cannot resolve path").WithPath(path)
	}
	base, err := canonicalize(baseDir)
	if err != nil {
		return "", errs.Wrap(errs.KindSecurity, err, "cannot resolve base directory").WithPath(baseDir)
	}
	rel, err := filepath.Rel(base, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errs.New(errs.KindSecurity, "path escapes base directory %s", base).WithPath(path)
	}
	return resolved, nil
}

func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			// Not-yet-existing outputs canonicalize through their parent.
			parent, errP := filepath.EvalSymlinks(filepath.Dir(abs))
			if errP != nil {
				return "", err
			}
			return filepath.Join(parent, filepath.Base(abs)), nil
		}
		return "", err
	}
	return resolved, nil
}

// ValidateFileSize checks the on-disk size of path against the limit. The
// limit is inclusive: a file of exactly MaxFileSizeBytes passes.
func ValidateFileSize(path string, limits Limits) error {
	info, err := os.Stat(path)
	if err != nil {
		return errs.Wrap(errs.KindValidation, err, "cannot stat file").WithPath(path)
	}
	if info.Size() > limits.MaxFileSizeBytes {
		return errs.New(errs.KindSecurity,
			"file size (%d bytes) exceeds limit (%d bytes)", info.Size(), limits.MaxFileSizeBytes).WithPath(path)
	}
	return nil
}

// ValidateFileCount checks a candidate count against the limit, inclusive.
func ValidateFileCount(count int, limits Limits) error {
	if count > limits.MaxFileCount {
		return errs.New(errs.KindSecurity,
			"file count (%d) exceeds limit (%d)", count, limits.MaxFileCount)
	}
	return nil
}

// ValidateDimensions checks a decoded image's pixel budget. It runs after
// decode since dimensions are only known then; a file can pass the size
// check and still be rejected here.
func ValidateDimensions(width, height int, limits Limits) error {
	total := int64(width) * int64(height)
	if total > limits.MaxImagePixels {
		return errs.New(errs.KindSecurity,
			"image dimensions (%dx%d = %d pixels) exceed limit (%d pixels)",
			width, height, total, limits.MaxImagePixels)
	}
	return nil
}
