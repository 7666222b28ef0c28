package downscale

import (
	"sort"

	"github.com/tsawler/pdfmin/core"
)

// SkipReason says why an image was left untouched.
type SkipReason string

const (
	SkipMissingDimensions  SkipReason = "missing-dimensions"
	SkipDegenerateGeometry SkipReason = "degenerate-geometry"
	SkipInvalidResolution  SkipReason = "invalid-resolution"
	SkipAtTarget           SkipReason = "at-target"
	SkipUnsupported        SkipReason = "unsupported-format"
	SkipUnreadable         SkipReason = "unreadable" // lookup or dictionary errors
)

// Skip records an image that was not rescaled.
type Skip struct {
	Ref    core.IndirectRef
	Reason SkipReason
	Err    error // detail; nil for SkipAtTarget
}

// Failure records an image whose rescale failed. The original image is
// still in the document.
type Failure struct {
	Ref core.IndirectRef
	Err error
}

// Report summarises one run.
type Report struct {
	Pages    int // pages walked
	Tracked  int // distinct images drawn
	Savings  Savings
	Plans    []Plan // images planned for rescale, in object order
	Skipped  []Skip
	Failures []Failure
}

// Rescaled returns the number of images substituted in the document.
func (r *Report) Rescaled() int {
	return r.Savings.Images
}

func (r *Report) sortFailures() {
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Ref.Less(r.Failures[j].Ref)
	})
}
