package graphicsstate

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfmin/contentstream"
	"github.com/tsawler/pdfmin/core"
	"github.com/tsawler/pdfmin/document"
	"github.com/tsawler/pdfmin/model"
)

// DrawEvent reports one image-draw instruction.
type DrawEvent struct {
	Ref    core.IndirectRef // the drawn image XObject
	Extent model.Extent     // placed size in millimetres
	Page   int              // 0-based page index
}

// Visitor receives draw events from a Walker.
type Visitor interface {
	VisitDraw(DrawEvent) error
}

// VisitorFunc adapts an ordinary function to the Visitor interface.
type VisitorFunc func(DrawEvent) error

// VisitDraw calls f(ev).
func (f VisitorFunc) VisitDraw(ev DrawEvent) error {
	return f(ev)
}

// Walker interprets page content streams and reports every image XObject
// draw together with its placed size.
type Walker struct {
	// MaxFormDepth bounds form XObject nesting. Zero means DefaultMaxFormDepth.
	MaxFormDepth int
}

// DefaultMaxFormDepth is the form nesting limit used by a zero Walker.
const DefaultMaxFormDepth = 32

// NewWalker creates a walker with default settings.
func NewWalker() *Walker {
	return &Walker{}
}

// walk holds the state of a single Walk call.
type walk struct {
	page     *document.Page
	visitor  Visitor
	userUnit float64
	maxDepth int
	active   map[core.IndirectRef]bool // forms on the current recursion path
}

// Walk reads the page's content and calls v once per image-draw
// instruction, including repeated draws of the same image. An error
// from v stops the walk and is returned wrapped with the page index.
func (w *Walker) Walk(page *document.Page, v Visitor) error {
	data, err := page.Contents()
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Index, err)
	}
	resources, err := page.Resources()
	if err != nil {
		return fmt.Errorf("page %d: %w", page.Index, err)
	}

	maxDepth := w.MaxFormDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxFormDepth
	}
	st := &walk{
		page:     page,
		visitor:  v,
		userUnit: page.UserUnit(),
		maxDepth: maxDepth,
		active:   make(map[core.IndirectRef]bool),
	}
	if err := st.content(data, resources, NewGraphicsState(model.Identity())); err != nil {
		return fmt.Errorf("page %d: %w", page.Index, err)
	}
	return nil
}

// content interprets one content stream with the given resources.
func (st *walk) content(data []byte, resources core.Dict, gs *GraphicsState) error {
	p := contentstream.NewParser(data)
	for {
		op, err := p.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch op.Operator {
		case "q":
			gs.Save()
		case "Q":
			// Unbalanced Q is ignored, as viewers do.
			_ = gs.Restore()
		case "cm":
			if m, ok := operandsToMatrix(op.Operands); ok {
				gs.Transform(m)
			}
		case "Do":
			if len(op.Operands) == 0 {
				continue
			}
			name, ok := op.Operands[0].(core.Name)
			if !ok {
				continue
			}
			if err := st.draw(name, resources, gs); err != nil {
				return err
			}
		}
	}
}

// draw handles a Do operator.
func (st *walk) draw(name core.Name, resources core.Dict, gs *GraphicsState) error {
	xobjects, err := st.dict(resources.Get("XObject"))
	if err != nil || xobjects == nil {
		return nil
	}
	ref, ok := xobjects.GetIndirectRef(string(name))
	if !ok {
		return nil
	}
	obj, err := st.page.Resolve(ref)
	if err != nil {
		return nil
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil
	}

	subtype, _ := stream.Dict.GetName("Subtype")
	switch subtype {
	case "Image":
		return st.visitor.VisitDraw(DrawEvent{
			Ref:    ref,
			Extent: model.PlacementExtent(gs.CTM, st.userUnit),
			Page:   st.page.Index,
		})
	case "Form":
		return st.form(ref, stream, resources, gs)
	}
	return nil
}

// form recurses into a form XObject. The form's own resources are used
// when present, otherwise the caller's.
func (st *walk) form(ref core.IndirectRef, stream *core.Stream, parent core.Dict, gs *GraphicsState) error {
	if st.active[ref] || len(st.active) >= st.maxDepth {
		return nil
	}
	st.active[ref] = true
	defer delete(st.active, ref)

	data, err := st.page.Decode(stream)
	if err != nil {
		return fmt.Errorf("form %s: %w", ref, err)
	}

	resources := parent
	if own, err := st.dict(stream.Dict.Get("Resources")); err == nil && own != nil {
		resources = own
	}

	// The form runs on its own stack so unbalanced operators inside it
	// cannot disturb the caller's state.
	inner := NewGraphicsState(gs.CTM)
	if arr, ok := stream.Dict.GetArray("Matrix"); ok {
		if m, ok := operandsToMatrix(arr); ok {
			inner.Transform(m)
		}
	}
	return st.content(data, resources, inner)
}

// dict resolves obj to a dictionary. A nil object yields a nil dictionary.
func (st *walk) dict(obj core.Object) (core.Dict, error) {
	if obj == nil {
		return nil, nil
	}
	resolved, err := st.page.Resolve(obj)
	if err != nil {
		return nil, err
	}
	d, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("expected dictionary, got %T", resolved)
	}
	return d, nil
}

func operandsToMatrix(operands []core.Object) (model.Matrix, bool) {
	nums, err := core.Array(operands).Numbers()
	if err != nil || len(nums) != 6 {
		return model.Matrix{}, false
	}
	return model.Matrix(nums), true
}
