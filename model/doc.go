// Package model provides the page geometry used to measure image
// placements: affine transformation matrices, points, bounding boxes and
// physical extents.
//
// PDF user space is measured in points (1/72 inch). A content stream
// places an image by mapping the unit square through the current
// transformation matrix; [PlacementExtent] turns that matrix into the
// width and height of the placement in millimetres:
//
//	ctm := model.Scale(283.46, 141.73) // 100mm x 50mm
//	ext := model.PlacementExtent(ctm, 1)
//
// Extents of the same image seen on several pages are combined with
// [Extent.Max], which is associative, commutative and idempotent.
package model
