// Package graphicsstate interprets page content streams to find where
// images are drawn and how large they appear.
//
// [GraphicsState] tracks the current transformation matrix (CTM) and the
// q/Q save stack:
//
//	gs := graphicsstate.NewGraphicsState(model.Identity())
//	gs.Save()              // q
//	gs.Transform(matrix)   // cm: CTM = matrix x CTM
//	gs.Restore()           // Q
//
// [Walker] runs a page's content through a [contentstream.Parser] and
// emits a [DrawEvent] for every Do operator that paints an image
// XObject. The event extent is the bounding box of the unit square under
// the CTM, in millimetres, scaled by the page /UserUnit:
//
//	w := graphicsstate.NewWalker()
//	err := w.Walk(page, graphicsstate.VisitorFunc(func(ev graphicsstate.DrawEvent) error {
//	    fmt.Println(ev.Ref, ev.Extent.Width, ev.Extent.Height)
//	    return nil
//	}))
//
// Form XObjects are entered recursively with their /Matrix applied. A
// form that draws itself, directly or through another form, is entered
// only once per recursion path. Inline images carry no object identity
// and produce no events.
package graphicsstate
