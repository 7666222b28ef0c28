package graphicsstate

import (
	"fmt"

	"github.com/tsawler/pdfmin/model"
)

// GraphicsState represents the part of the PDF graphics state that
// positions images: the current transformation matrix and its q/Q stack.
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Graphics state stack (for q/Q operators)
	stack []model.Matrix
}

// NewGraphicsState creates a graphics state whose CTM is ctm.
func NewGraphicsState(ctm model.Matrix) *GraphicsState {
	return &GraphicsState{CTM: ctm}
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, gs.CTM)
}

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}
	gs.CTM = gs.stack[len(gs.stack)-1]
	gs.stack = gs.stack[:len(gs.stack)-1]
	return nil
}

// Transform concatenates m to the CTM (cm operator). m applies first,
// so the new CTM is m x CTM.
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}
