package downscale

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/imagecodec"
)

// Codec resamples an image to an exact pixel size and returns the
// replacement stream, encoded in the image's original format.
type Codec interface {
	Rescale(res *imagecodec.Resource, width, height int) (*core.Stream, error)
}

// ObjectTable is the document storage that images are read from and
// replacements are written to.
type ObjectTable interface {
	Lookup(ref core.IndirectRef) (core.Object, error)
	Replace(ref core.IndirectRef, obj core.Object) error
	Resolve(obj core.Object) (core.Object, error)
}

// Replacement is a resampled image ready to be substituted under the
// identity of the image it replaces.
type Replacement struct {
	Ref         core.IndirectRef
	Stream      *core.Stream
	Width       int
	Height      int
	BytesBefore int
	BytesAfter  int
}

// Savings holds byte totals over the images that were actually rescaled.
type Savings struct {
	Images        int
	OriginalBytes int64
	NewBytes      int64
}

// Saved returns OriginalBytes - NewBytes. It is negative when the
// rescaled images grew.
func (s Savings) Saved() int64 {
	return s.OriginalBytes - s.NewBytes
}

// Ratio returns NewBytes / OriginalBytes, or 1 when nothing was rescaled.
func (s Savings) Ratio() float64 {
	if s.OriginalBytes == 0 {
		return 1
	}
	return float64(s.NewBytes) / float64(s.OriginalBytes)
}

// Format renders the totals with the digit grouping of tag.
func (s Savings) Format(tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("%d images rescaled, %d -> %d bytes (saved %d bytes, %.1f%%)",
		s.Images, s.OriginalBytes, s.NewBytes, s.Saved(), (1-s.Ratio())*100)
}

func (s Savings) String() string {
	return s.Format(language.English)
}

// Rescaler applies rescale factors through a Codec and keeps the savings
// totals. It is safe for concurrent use.
type Rescaler struct {
	codec Codec

	mu      sync.Mutex
	savings Savings
}

// NewRescaler creates a rescaler that resamples through codec.
func NewRescaler(codec Codec) *Rescaler {
	return &Rescaler{codec: codec}
}

// Apply resamples res by scale and measures the byte sizes before and
// after. The replacement carries res's identity. On failure a
// *CodecError is returned.
func (r *Rescaler) Apply(res *imagecodec.Resource, scale float64) (Replacement, error) {
	if !(scale > 0 && scale <= 1) {
		return Replacement{}, fmt.Errorf("image %s: scale %g out of range (0, 1]", res.Ref, scale)
	}
	width, height, err := res.Dimensions()
	if err != nil {
		return Replacement{}, err
	}

	w, h := TargetDimensions(width, height, scale)
	stream, err := r.codec.Rescale(res, w, h)
	if err != nil {
		return Replacement{}, &CodecError{Ref: res.Ref, Err: err}
	}

	rep := Replacement{
		Ref:         res.Ref,
		Stream:      stream,
		Width:       w,
		Height:      h,
		BytesBefore: res.EncodedLen(),
		BytesAfter:  len(stream.Data),
	}
	return rep, nil
}

// Commit substitutes the replacement into table under its identity and
// adds it to the savings totals. A failed substitution is not counted.
func (r *Rescaler) Commit(table ObjectTable, rep Replacement) error {
	if err := table.Replace(rep.Ref, rep.Stream); err != nil {
		return fmt.Errorf("failed to substitute image %s: %w", rep.Ref, err)
	}

	r.mu.Lock()
	r.savings.Images++
	r.savings.OriginalBytes += int64(rep.BytesBefore)
	r.savings.NewBytes += int64(rep.BytesAfter)
	r.mu.Unlock()
	return nil
}

// Savings returns the current totals.
func (r *Rescaler) Savings() Savings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.savings
}
