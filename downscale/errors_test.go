package downscale

import (
	"errors"
	"io"
	"testing"

	"github.com/tsawler/pdfmin/core"
)

func TestDegenerateGeometryError(t *testing.T) {
	var err error = &DegenerateGeometryError{Width: 0, Height: 5}
	if !errors.Is(err, ErrDegenerateGeometry) {
		t.Error("expected errors.Is to match ErrDegenerateGeometry")
	}
	if errors.Is(err, ErrCodecFailure) {
		t.Error("unexpected match with ErrCodecFailure")
	}
	if err.Error() != "degenerate image geometry: 0x5 mm" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCodecError(t *testing.T) {
	var err error = &CodecError{Ref: core.IndirectRef{Number: 4}, Err: io.ErrUnexpectedEOF}
	if !errors.Is(err, ErrCodecFailure) {
		t.Error("expected errors.Is to match ErrCodecFailure")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("expected cause to be unwrapped")
	}

	var codecErr *CodecError
	if !errors.As(err, &codecErr) || codecErr.Ref.Number != 4 {
		t.Errorf("errors.As failed: %v", codecErr)
	}
}
