package downscale

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfmin/core"
)

var (
	// ErrDegenerateGeometry is matched by DegenerateGeometryError.
	ErrDegenerateGeometry = errors.New("degenerate image geometry")

	// ErrInvalidResolution is returned for a non-positive or non-finite
	// resolution.
	ErrInvalidResolution = errors.New("invalid resolution")

	// ErrCodecFailure is matched by CodecError.
	ErrCodecFailure = errors.New("codec failure")
)

// DegenerateGeometryError reports an image whose placed size has a zero,
// negative or non-finite side, so no resolution can be derived.
type DegenerateGeometryError struct {
	Width  float64 // millimetres
	Height float64 // millimetres
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("degenerate image geometry: %gx%g mm", e.Width, e.Height)
}

// Is reports whether target is ErrDegenerateGeometry.
func (e *DegenerateGeometryError) Is(target error) bool {
	return target == ErrDegenerateGeometry
}

// CodecError reports that the codec could not resample an image. The
// original image is left in place.
type CodecError struct {
	Ref core.IndirectRef
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("codec failure for image %s: %v", e.Ref, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCodecFailure.
func (e *CodecError) Is(target error) bool {
	return target == ErrCodecFailure
}
