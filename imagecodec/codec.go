package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/internal/filters"
)

// DefaultJPEGQuality is the quality used when re-encoding DCT images.
const DefaultJPEGQuality = 85

// Codec decodes image XObjects, resamples them and encodes the result in
// the image's original format.
type Codec struct {
	Kernel      Kernel
	JPEGQuality int // 1..100; zero means DefaultJPEGQuality
	FlateLevel  int // zlib level; zero means filters.BestCompression
}

// NewCodec creates a codec with the given kernel and JPEG quality.
func NewCodec(kernel Kernel, jpegQuality int) *Codec {
	return &Codec{Kernel: kernel, JPEGQuality: jpegQuality}
}

// Rescale resamples the image to exactly width x height pixels and
// returns a replacement stream in the same format. The image dictionary
// is copied with /Width, /Height, /Length and the filter entries updated.
func (c *Codec) Rescale(res *Resource, width, height int) (*core.Stream, error) {
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if _, _, err := res.Dimensions(); err != nil {
		return nil, err
	}
	if err := res.Supported(); err != nil {
		return nil, err
	}

	data, err := res.Stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}

	dict := res.Stream.Dict.Clone()
	dict.Delete("DecodeParms")
	dict.Delete("DP")
	dict.Set("Width", core.Int(width))
	dict.Set("Height", core.Int(height))

	var out []byte
	switch res.Format {
	case FormatJPEG:
		out, err = c.rescaleJPEG(data, width, height)
		dict.Set("Filter", core.Name("DCTDecode"))
	case FormatFlate:
		var samples []byte
		samples, err = c.rescaleSamples(res, data, width, height)
		if err == nil {
			out, err = filters.FlateEncode(samples, c.flateLevel())
		}
		dict.Set("Filter", core.Name("FlateDecode"))
	default:
		out, err = c.rescaleSamples(res, data, width, height)
		dict.Delete("Filter")
	}
	if err != nil {
		return nil, err
	}

	dict.Set("Length", core.Int(len(out)))
	return &core.Stream{Dict: dict, Data: out}, nil
}

func (c *Codec) flateLevel() int {
	if c.FlateLevel == 0 {
		return filters.BestCompression
	}
	return c.FlateLevel
}

func (c *Codec) jpegQuality() int {
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return DefaultJPEGQuality
	}
	return c.JPEGQuality
}

// rescaleJPEG decodes a baseline or progressive JPEG, resamples it and
// re-encodes it. Grayscale input stays grayscale.
func (c *Codec) rescaleJPEG(data []byte, width, height int) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode JPEG: %w", err)
	}

	var dst image.Image
	switch img := src.(type) {
	case *image.CMYK:
		return nil, fmt.Errorf("%w: CMYK JPEG", ErrUnsupported)
	case *image.Gray:
		dst = c.Kernel.resizePlane(img, width, height)
	default:
		dst = c.Kernel.resize(src, width, height)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.jpegQuality()}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// rescaleSamples resamples interleaved 8-bit samples channel by channel,
// so any component count is handled without colour conversion.
func (c *Codec) rescaleSamples(res *Resource, data []byte, width, height int) ([]byte, error) {
	planes, err := deinterleave(data, res.Width, res.Height, res.Components)
	if err != nil {
		return nil, err
	}
	for i, plane := range planes {
		planes[i] = c.Kernel.resizePlane(plane, width, height)
	}
	return interleave(planes), nil
}

// deinterleave splits 8-bit samples into one plane per component.
func deinterleave(data []byte, width, height, components int) ([]*image.Gray, error) {
	expectedSize := width * height * components
	if len(data) < expectedSize {
		return nil, fmt.Errorf("insufficient image data: got %d, expected %d", len(data), expectedSize)
	}

	planes := make([]*image.Gray, components)
	for i := range planes {
		planes[i] = image.NewGray(image.Rect(0, 0, width, height))
	}
	if components == 1 {
		copy(planes[0].Pix, data[:expectedSize])
		return planes, nil
	}
	for p := 0; p < width*height; p++ {
		src := data[p*components:]
		for i, plane := range planes {
			plane.Pix[p] = src[i]
		}
	}
	return planes, nil
}

// interleave joins equally sized planes into 8-bit samples.
func interleave(planes []*image.Gray) []byte {
	b := planes[0].Bounds()
	n := b.Dx() * b.Dy()
	out := make([]byte, n*len(planes))
	for i, plane := range planes {
		for p := 0; p < n; p++ {
			out[p*len(planes)+i] = plane.Pix[p]
		}
	}
	return out
}
