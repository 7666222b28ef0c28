// Package contentstream provides parsing of PDF content streams.
//
// Content streams contain the instructions for rendering page content,
// including graphics state changes and image placement. A [Parser] turns
// the raw (already decoded) stream bytes into [Operation] values:
//
//	p := contentstream.NewParser(data)
//	for {
//	    op, err := p.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(op.Operator, op.Operands)
//	}
//
// Operators relevant to image placement:
//   - q, Q - Save/restore graphics state
//   - cm - Modify CTM (current transformation matrix)
//   - Do - Paint an XObject (image or form)
//   - BI - Inline image; reported with its dictionary, data skipped
//
// Operands are core objects: numbers (core.Int, core.Real), strings,
// names, arrays, dictionaries, booleans and null.
package contentstream
