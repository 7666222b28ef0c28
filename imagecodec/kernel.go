package imagecodec

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// Kernel selects the resampling filter.
type Kernel string

const (
	KernelLanczos    Kernel = "lanczos"
	KernelCatmullRom Kernel = "catmullrom"
	KernelLinear     Kernel = "linear"
	KernelBox        Kernel = "box"
)

// ParseKernel parses a kernel name, ignoring case. The empty string
// selects KernelLanczos.
func ParseKernel(s string) (Kernel, error) {
	switch k := Kernel(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KernelLanczos, nil
	case KernelLanczos, KernelCatmullRom, KernelLinear, KernelBox:
		return k, nil
	default:
		return "", fmt.Errorf("unknown resampling kernel %q", s)
	}
}

// resize scales src to exactly width x height pixels.
func (k Kernel) resize(src image.Image, width, height int) *image.NRGBA {
	switch k {
	case KernelCatmullRom:
		dst := image.NewNRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return dst
	case KernelLinear:
		return imaging.Resize(src, width, height, imaging.Linear)
	case KernelBox:
		return imaging.Resize(src, width, height, imaging.Box)
	default:
		return imaging.Resize(src, width, height, imaging.Lanczos)
	}
}

// resizePlane scales a single-channel plane.
func (k Kernel) resizePlane(src *image.Gray, width, height int) *image.Gray {
	if k == KernelCatmullRom {
		dst := image.NewGray(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		return dst
	}
	return toGray(k.resize(src, width, height))
}

// toGray takes the red channel of an image whose channels are equal.
func toGray(src *image.NRGBA) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < b.Dx(); x++ {
			dst.Pix[y*dst.Stride+x] = row[x*4]
		}
	}
	return dst
}
