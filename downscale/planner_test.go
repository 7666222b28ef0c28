package downscale

import (
	"errors"
	"math"
	"testing"
)

func TestPlanScaleRange(t *testing.T) {
	resolutions := []float64{1, 36, 72, 149.9, 150, 150.1, 300, 508, 1200, 2400}

	for _, current := range resolutions {
		for _, target := range resolutions {
			scale, err := PlanScale(current, target)
			if err != nil {
				t.Fatalf("PlanScale(%v, %v) failed: %v", current, target, err)
			}
			if !(scale > 0 && scale <= 1) {
				t.Errorf("PlanScale(%v, %v) = %v, outside (0, 1]", current, target, scale)
			}
			if target >= current && scale != 1 {
				t.Errorf("PlanScale(%v, %v) = %v, expected exactly 1", current, target, scale)
			}
		}
	}
}

func TestPlanScaleWorkedExample(t *testing.T) {
	dpi, err := ResolveDPI(2000, 1000, 100, 50)
	if err != nil {
		t.Fatalf("ResolveDPI failed: %v", err)
	}
	if math.Abs(dpi-508) > 1e-9 {
		t.Fatalf("expected 508 dpi, got %v", dpi)
	}

	scale, err := PlanScale(dpi, 150)
	if err != nil {
		t.Fatalf("PlanScale failed: %v", err)
	}
	if math.Abs(scale-0.2953) > 1e-4 {
		t.Errorf("expected scale ~0.2953, got %v", scale)
	}

	w, h := TargetDimensions(2000, 1000, scale)
	if w != 591 || h != 295 {
		t.Errorf("expected 591x295, got %dx%d", w, h)
	}
}

func TestPlanScaleInvalid(t *testing.T) {
	tests := []struct {
		name            string
		current, target float64
	}{
		{"zero current", 0, 150},
		{"zero target", 300, 0},
		{"negative target", 300, -150},
		{"nan current", math.NaN(), 150},
		{"inf current", math.Inf(1), 150},
		{"inf target", 300, math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PlanScale(tt.current, tt.target); !errors.Is(err, ErrInvalidResolution) {
				t.Errorf("expected ErrInvalidResolution, got %v", err)
			}
		})
	}
}

func TestTargetDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		scale         float64
		wantW, wantH  int
	}{
		{"identity", 640, 480, 1, 640, 480},
		{"half", 640, 480, 0.5, 320, 240},
		{"round half up", 3, 5, 0.5, 2, 3},
		{"clamp to one pixel", 1000, 2, 0.001, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetDimensions(tt.width, tt.height, tt.scale)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}
