// Package errs defines the closed error taxonomy shared by every stage of
// the orthomosaic pipeline. Callers can match broadly with errors.As on
// *Error, or narrowly on a single Kind via IsKind.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind uint8

const (
	// KindUnknown is the zero value and never produced by this package.
	KindUnknown Kind = iota
	// KindValidation covers malformed input: bad paths, bad modes,
	// out-of-range parameters, empty image sets.
	KindValidation
	// KindSecurity covers limit violations: file size, file count,
	// pixel budget, path containment.
	KindSecurity
	// KindImageLoad covers decode and read failures.
	KindImageLoad
	// KindStitching covers engine-reported failures and absent output.
	KindStitching
	// KindOutput covers encode and write failures.
	KindOutput
)

// String returns the taxonomy name for a kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindSecurity:
		return "security"
	case KindImageLoad:
		return "image_load"
	case KindStitching:
		return "stitching"
	case KindOutput:
		return "output"
	default:
		return "unknown"
	}
}

// Error is the single root error type for the pipeline. Path carries the
// offending file when one is known.
type Error struct {
	Kind Kind
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a classified error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates a classified error around a cause.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithPath returns a copy of the error annotated with the offending path.
func (e *Error) WithPath(path string) *Error {
	dup := *e
	dup.Path = path
	return &dup
}

// KindOf reports the taxonomy kind of err, or KindUnknown when err does not
// wrap an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
