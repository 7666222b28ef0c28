package model

import "math"

// Unit conversion constants. PDF user space is measured in points.
const (
	PointsPerInch      = 72.0
	MillimetresPerInch = 25.4
)

// PointsToMillimetres converts a length in PDF points to millimetres.
func PointsToMillimetres(pt float64) float64 {
	return pt * MillimetresPerInch / PointsPerInch
}

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// BBox represents an axis-aligned bounding box
type BBox struct {
	X      float64 // Left
	Y      float64 // Bottom (PDF coordinate system)
	Width  float64
	Height float64
}

// BoundingBox returns the smallest box containing all points. The
// result of an empty call is the zero box.
func BoundingBox(points ...Point) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return BBox{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Matrix represents a 2D affine transformation matrix [a b c d e f]
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m × other: the transform that applies m first, then
// other. The content stream operator "cm" therefore updates the CTM as
// m.Multiply(ctm).
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate creates a rotation matrix (angle in radians)
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}

// UnitSquare returns the bounding box of the unit square (0,0)-(1,1)
// under m. Image XObjects are painted into exactly this square.
func (m Matrix) UnitSquare() BBox {
	return BoundingBox(
		m.Transform(Point{0, 0}),
		m.Transform(Point{1, 0}),
		m.Transform(Point{1, 1}),
		m.Transform(Point{0, 1}),
	)
}

// Extent is the physical width and height at which something is placed
// on a page.
type Extent struct {
	Width  float64
	Height float64
}

// Abs returns the extent with both components made non-negative.
func (e Extent) Abs() Extent {
	return Extent{Width: math.Abs(e.Width), Height: math.Abs(e.Height)}
}

// Max returns the component-wise maximum of e and other. The operation
// is associative, commutative and idempotent.
func (e Extent) Max(other Extent) Extent {
	return Extent{
		Width:  math.Max(e.Width, other.Width),
		Height: math.Max(e.Height, other.Height),
	}
}

// IsDegenerate reports whether either component is zero, negative or
// not finite.
func (e Extent) IsDegenerate() bool {
	return !(e.Width > 0 && e.Height > 0) ||
		math.IsInf(e.Width, 0) || math.IsInf(e.Height, 0)
}

// PlacementExtent converts the unit-square bounding box under the
// transform m, given in PDF points, to an Extent in millimetres.
// userUnit scales user space (PDF 1.6 /UserUnit; 1 means points).
func PlacementExtent(m Matrix, userUnit float64) Extent {
	box := m.UnitSquare()
	return Extent{
		Width:  PointsToMillimetres(box.Width * userUnit),
		Height: PointsToMillimetres(box.Height * userUnit),
	}.Abs()
}
