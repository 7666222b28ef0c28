// Package document provides an in-memory PDF object table and page tree
// traversal.
//
// A [Document] maps indirect references to objects. It is the table that
// image downscaling reads from and writes replacements into:
//
//	doc := document.New()
//	imgRef := doc.Add(imageStream)
//	pageRef, _ := doc.AppendPage(core.Dict{"Contents": contentsRef})
//
//	pages, _ := doc.Pages()
//	for _, page := range pages {
//	    data, _ := page.Contents()
//	    res, _ := page.Resources()
//	}
//
// # Page Tree
//
// [Document.Pages] walks the tree from the catalog's /Pages entry and
// returns the leaves in document order. /Resources is inherited from any
// ancestor node, not just the direct parent.
//
// # Concurrency
//
// Lookup and Replace are guarded by a read/write mutex, so a replacement
// is never observed half-written.
package document
