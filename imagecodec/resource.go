package imagecodec

import (
	"errors"
	"fmt"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/document"
)

var (
	// ErrMissingDimensions is returned for an image without a usable
	// /Width or /Height.
	ErrMissingDimensions = errors.New("image missing Width or Height")

	// ErrUnsupported is returned for images this package cannot resample.
	ErrUnsupported = errors.New("unsupported image")

	// ErrNotImage is returned when an object is not an image XObject.
	ErrNotImage = errors.New("not an image XObject")
)

// Format identifies how an image's samples are stored.
type Format int

const (
	FormatRaw   Format = iota // unfiltered samples, possibly behind ASCII filters
	FormatFlate               // Flate-compressed samples
	FormatJPEG                // DCTDecode
	FormatJPX                 // JPXDecode
	FormatJBIG2               // JBIG2Decode
	FormatCCITT               // CCITTFaxDecode
	FormatOther               // a filter chain this package cannot decode
)

var formatNames = [...]string{"raw", "flate", "jpeg", "jpx", "jbig2", "ccitt", "other"}

func (f Format) String() string {
	if int(f) < 0 || int(f) >= len(formatNames) {
		return "unknown"
	}
	return formatNames[f]
}

// Resource describes an image XObject and what is needed to resample it.
type Resource struct {
	Ref    core.IndirectRef
	Stream *core.Stream

	Width         int
	Height        int
	HasDimensions bool

	BitsPerComponent int
	ColorSpace       string // colour space family, e.g. DeviceRGB or ICCBased
	Components       int    // colour components per sample; 0 when unknown
	Format           Format

	ImageMask bool
	Indexed   bool
	HasDecode bool
}

// Inspect describes the image stored under ref. obj is the object the
// table holds for ref; r resolves references inside the image dictionary.
func Inspect(ref core.IndirectRef, obj core.Object, r document.Resolver) (*Resource, error) {
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrNotImage, ref, obj)
	}
	if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Image" {
		return nil, fmt.Errorf("%w: %s has subtype %q", ErrNotImage, ref, subtype)
	}
	stream, err := stream.ResolveFilters(r)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", ref, err)
	}

	dict := stream.Dict
	res := &Resource{
		Ref:              ref,
		Stream:           stream,
		BitsPerComponent: 8,
		HasDecode:        dict.Has("Decode"),
	}

	w, okW := intEntry(dict, "Width", r)
	h, okH := intEntry(dict, "Height", r)
	if okW && okH && w > 0 && h > 0 {
		res.Width, res.Height, res.HasDimensions = w, h, true
	}

	if bpc, ok := intEntry(dict, "BitsPerComponent", r); ok {
		res.BitsPerComponent = bpc
	}
	if mask, ok := dict.GetBool("ImageMask"); ok && bool(mask) {
		res.ImageMask = true
		res.BitsPerComponent = 1
		res.Components = 1
	}

	if cs := dict.Get("ColorSpace"); cs != nil {
		res.ColorSpace, res.Components, res.Indexed = colorSpace(cs, r)
	}

	format, err := detectFormat(stream)
	if err != nil {
		return nil, fmt.Errorf("image %s: %w", ref, err)
	}
	res.Format = format
	return res, nil
}

// EncodedLen returns the size of the encoded image payload in bytes.
func (res *Resource) EncodedLen() int {
	return len(res.Stream.Data)
}

// Dimensions returns the pixel size, or ErrMissingDimensions.
func (res *Resource) Dimensions() (width, height int, err error) {
	if !res.HasDimensions {
		return 0, 0, fmt.Errorf("image %s: %w", res.Ref, ErrMissingDimensions)
	}
	return res.Width, res.Height, nil
}

// Supported returns nil when the image can be decoded, resampled and
// re-encoded in its own format, and an error wrapping ErrUnsupported
// naming the reason otherwise.
func (res *Resource) Supported() error {
	unsupported := func(reason string) error {
		return fmt.Errorf("image %s: %w: %s", res.Ref, ErrUnsupported, reason)
	}

	switch res.Format {
	case FormatJPX, FormatJBIG2, FormatCCITT:
		return unsupported(res.Format.String() + " compression")
	case FormatOther:
		return unsupported("filter chain")
	}
	switch {
	case res.ImageMask:
		return unsupported("image mask")
	case res.Indexed:
		return unsupported("indexed colour space")
	case res.HasDecode:
		return unsupported("decode array")
	case res.BitsPerComponent != 8:
		return unsupported(fmt.Sprintf("%d bits per component", res.BitsPerComponent))
	}

	if res.Format == FormatJPEG {
		if res.Components == 4 {
			return unsupported("CMYK JPEG")
		}
		return nil
	}
	if res.Components == 0 {
		return unsupported("unknown colour space " + res.ColorSpace)
	}
	return nil
}

// detectFormat classifies the stream's filter chain.
func detectFormat(stream *core.Stream) (Format, error) {
	names, err := stream.Filters()
	if err != nil {
		return FormatOther, err
	}

	format := FormatRaw
	for _, name := range names {
		switch name {
		case "FlateDecode", "Fl":
			format = FormatFlate
		case "ASCIIHexDecode", "AHx", "ASCII85Decode", "A85":
		case "DCTDecode", "DCT":
			return FormatJPEG, nil
		case "JPXDecode":
			return FormatJPX, nil
		case "JBIG2Decode":
			return FormatJBIG2, nil
		case "CCITTFaxDecode", "CCF":
			return FormatCCITT, nil
		default:
			return FormatOther, nil
		}
	}
	return format, nil
}

// colorSpace returns the colour space family, its component count and
// whether it is indexed. Unknown spaces report zero components.
func colorSpace(obj core.Object, r document.Resolver) (family string, components int, indexed bool) {
	resolved, err := r.Resolve(obj)
	if err != nil {
		return "", 0, false
	}

	switch v := resolved.(type) {
	case core.Name:
		return string(v), deviceComponents(string(v)), false
	case core.Array:
		name, ok := v.Get(0).(core.Name)
		if !ok {
			return "", 0, false
		}
		family = string(name)
		switch family {
		case "ICCBased":
			profile, err := r.Resolve(v.Get(1))
			if err != nil {
				return family, 0, false
			}
			if s, ok := profile.(*core.Stream); ok {
				if n, ok := s.Dict.GetInt("N"); ok {
					return family, int(n), false
				}
			}
			return family, 0, false
		case "Indexed", "I":
			return "Indexed", 1, true
		case "DeviceN":
			names, err := r.Resolve(v.Get(1))
			if err != nil {
				return family, 0, false
			}
			if arr, ok := names.(core.Array); ok {
				return family, len(arr), false
			}
			return family, 0, false
		default:
			return family, deviceComponents(family), false
		}
	}
	return "", 0, false
}

func deviceComponents(family string) int {
	switch family {
	case "DeviceGray", "G", "CalGray", "Separation":
		return 1
	case "DeviceRGB", "RGB", "CalRGB", "Lab":
		return 3
	case "DeviceCMYK", "CMYK":
		return 4
	}
	return 0
}

// intEntry reads an integer dictionary entry, following a reference.
func intEntry(dict core.Dict, key string, r document.Resolver) (int, bool) {
	obj := dict.Get(key)
	if obj == nil {
		return 0, false
	}
	resolved, err := r.Resolve(obj)
	if err != nil {
		return 0, false
	}
	i, ok := resolved.(core.Int)
	return int(i), ok
}
