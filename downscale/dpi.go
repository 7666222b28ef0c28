package downscale

import "github.com/tsawler/pdfmin/model"

// ResolveDPI returns the effective resolution of an image of pixelW x
// pixelH pixels placed at maxWmm x maxHmm millimetres. The smaller of
// the horizontal and vertical resolutions wins, so downscaling never
// drops the sharper-placed axis below the target.
func ResolveDPI(pixelW, pixelH int, maxWmm, maxHmm float64) (float64, error) {
	extent := model.Extent{Width: maxWmm, Height: maxHmm}
	if extent.IsDegenerate() {
		return 0, &DegenerateGeometryError{Width: maxWmm, Height: maxHmm}
	}

	dpiW := float64(pixelW) / (maxWmm / model.MillimetresPerInch)
	dpiH := float64(pixelH) / (maxHmm / model.MillimetresPerInch)
	if dpiW < dpiH {
		return dpiW, nil
	}
	return dpiH, nil
}
