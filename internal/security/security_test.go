package security

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/S3OPS/autoflight/internal/errs"
)

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(dir, true, true); err != nil {
		t.Fatalf("existing directory should pass: %v", err)
	}
	if err := ValidatePath(file, true, false); err != nil {
		t.Fatalf("existing file should pass: %v", err)
	}
	if err := ValidatePath(file, true, true); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("file with mustBeDir should fail validation, got %v", err)
	}
	if err := ValidatePath(filepath.Join(dir, "missing"), true, false); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("missing path should fail validation, got %v", err)
	}
	if err := ValidatePath(filepath.Join(dir, "missing"), false, false); err != nil {
		t.Fatalf("missing path without mustExist should pass: %v", err)
	}
}

func TestValidateContainment(t *testing.T) {
	base := t.TempDir()
	inside := filepath.Join(base, "sub", "img.jpg")
	if err := os.MkdirAll(filepath.Dir(inside), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(inside, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved, err := ValidateContainment(inside, base)
	if err != nil {
		t.Fatalf("contained path should pass: %v", err)
	}
	if resolved == "" {
		t.Fatalf("expected resolved path")
	}

	escape := filepath.Join(base, "..", "escape.jpg")
	if _, err := ValidateContainment(escape, base); !errs.IsKind(err, errs.KindSecurity) {
		t.Fatalf("traversal should fail with security error, got %v", err)
	}
}

func TestValidateContainmentSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.jpg")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(base, "link.jpg")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := ValidateContainment(link, base); !errs.IsKind(err, errs.KindSecurity) {
		t.Fatalf("symlink escape should fail with security error, got %v", err)
	}
}

func TestValidateFileSizeBoundary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.jpg")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, 100), 0o644); err != nil {
		t.Fatal(err)
	}

	limits := DefaultLimits()
	limits.MaxFileSizeBytes = 100
	if err := ValidateFileSize(path, limits); err != nil {
		t.Fatalf("file at exactly the limit should pass: %v", err)
	}

	limits.MaxFileSizeBytes = 99
	err := ValidateFileSize(path, limits)
	if !errs.IsKind(err, errs.KindSecurity) {
		t.Fatalf("file above the limit should fail with security error, got %v", err)
	}
}

func TestValidateFileCountBoundary(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxFileCount = 10

	if err := ValidateFileCount(10, limits); err != nil {
		t.Fatalf("count equal to limit should pass: %v", err)
	}
	if err := ValidateFileCount(11, limits); !errs.IsKind(err, errs.KindSecurity) {
		t.Fatalf("count above limit should fail with security error, got %v", err)
	}
}

func TestValidateDimensions(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxImagePixels = 1_000_000

	if err := ValidateDimensions(1000, 1000, limits); err != nil {
		t.Fatalf("image at the pixel budget should pass: %v", err)
	}
	if err := ValidateDimensions(1001, 1000, limits); !errs.IsKind(err, errs.KindSecurity) {
		t.Fatalf("image above the pixel budget should fail, got %v", err)
	}
}

func TestLimitsValidate(t *testing.T) {
	if err := DefaultLimits().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	bad := DefaultLimits()
	bad.MaxFileCount = 0
	if err := bad.Validate(); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("non-positive limit should fail validation, got %v", err)
	}
}
