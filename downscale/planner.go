package downscale

import (
	"fmt"
	"math"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/imagecodec"
)

// Plan describes the rescale decided for one image.
type Plan struct {
	Ref          core.IndirectRef
	Resource     *imagecodec.Resource
	CurrentDPI   float64
	Scale        float64 // in (0, 1]
	TargetWidth  int
	TargetHeight int
}

// PlanScale returns the factor that brings an image from currentDPI to
// targetDPI. Images are never enlarged: when targetDPI >= currentDPI the
// result is exactly 1.
func PlanScale(currentDPI, targetDPI float64) (float64, error) {
	if !validResolution(currentDPI) {
		return 0, fmt.Errorf("%w: current %g dpi", ErrInvalidResolution, currentDPI)
	}
	if !validResolution(targetDPI) {
		return 0, fmt.Errorf("%w: target %g dpi", ErrInvalidResolution, targetDPI)
	}
	if targetDPI >= currentDPI {
		return 1, nil
	}
	return targetDPI / currentDPI, nil
}

func validResolution(dpi float64) bool {
	return dpi > 0 && !math.IsInf(dpi, 0) && !math.IsNaN(dpi)
}

// TargetDimensions scales a pixel size, rounding half away from zero and
// keeping at least one pixel on each axis.
func TargetDimensions(width, height int, scale float64) (int, int) {
	return scaleAxis(width, scale), scaleAxis(height, scale)
}

func scaleAxis(n int, scale float64) int {
	v := int(math.Round(float64(n) * scale))
	if v < 1 {
		return 1
	}
	return v
}
