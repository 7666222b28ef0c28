package downscale

import (
	"sort"
	"sync"

	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/graphicsstate"
	"github.com/tsawler/pdfmin/model"
)

// Extents maps each drawn image to the largest size at which it is
// placed anywhere in the document.
type Extents map[core.IndirectRef]model.Extent

// Tracker accumulates placement extents per image. For every image the
// stored width and height never decrease, and the result does not depend
// on the order in which draws are recorded. A Tracker is safe for
// concurrent use.
type Tracker struct {
	mu      sync.Mutex
	extents Extents
}

// Ensure Tracker is a draw visitor
var _ graphicsstate.Visitor = (*Tracker)(nil)

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{extents: make(Extents)}
}

// Record notes that ref is drawn at width x height millimetres. Negative
// sizes (mirrored placements) count by magnitude. The stored extent
// becomes the component-wise maximum of the old one and the new one.
func (t *Tracker) Record(ref core.IndirectRef, width, height float64) {
	t.record(ref, model.Extent{Width: width, Height: height}.Abs())
}

func (t *Tracker) record(ref core.IndirectRef, e model.Extent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.extents[ref]; ok {
		e = old.Max(e)
	}
	t.extents[ref] = e
}

// VisitDraw records a draw event.
func (t *Tracker) VisitDraw(ev graphicsstate.DrawEvent) error {
	t.Record(ev.Ref, ev.Extent.Width, ev.Extent.Height)
	return nil
}

// Merge folds other into t using the same maximum rule as Record.
func (t *Tracker) Merge(other *Tracker) {
	for ref, e := range other.Extents() {
		t.record(ref, e)
	}
}

// Extent returns the extent recorded for ref.
func (t *Tracker) Extent(ref core.IndirectRef) (model.Extent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.extents[ref]
	return e, ok
}

// Extents returns a copy of the recorded extents.
func (t *Tracker) Extents() Extents {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(Extents, len(t.extents))
	for ref, e := range t.extents {
		out[ref] = e
	}
	return out
}

// Refs returns the tracked images sorted by object number and generation.
func (t *Tracker) Refs() []core.IndirectRef {
	t.mu.Lock()
	refs := make([]core.IndirectRef, 0, len(t.extents))
	for ref := range t.extents {
		refs = append(refs, ref)
	}
	t.mu.Unlock()

	sort.Slice(refs, func(i, j int) bool { return refs[i].Less(refs[j]) })
	return refs
}

// Len returns the number of tracked images.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.extents)
}
