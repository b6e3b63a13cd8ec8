// Package geom provides the 2D projective transform used for output calibration.
//
// Transform follows the row-vector convention: a point (x, y) maps to
//
//	x' = M11*x + M21*y + M31
//	y' = M12*x + M22*y + M32
//	w  = M13*x + M23*y + M33
//
// and the result is divided by w when the transform is projective.
package geom

import "math"

// eps is the tolerance used for degenerate determinants and affine checks.
const eps = 1e-12

// Point is a 2D coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Quad is a quadrilateral given as four corners in drawing order.
type Quad [4]Point

// Transform is a 3x3 projective transform.
type Transform struct {
	M11, M12, M13 float64
	M21, M22, M23 float64
	M31, M32, M33 float64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{M11: 1, M22: 1, M33: 1}
}

// Scale returns a transform scaling x by sx and y by sy.
func Scale(sx, sy float64) Transform {
	return Transform{M11: sx, M22: sy, M33: 1}
}

// Mul returns the transform that applies t first and then o.
func (t Transform) Mul(o Transform) Transform {
	return Transform{
		M11: t.M11*o.M11 + t.M12*o.M21 + t.M13*o.M31,
		M12: t.M11*o.M12 + t.M12*o.M22 + t.M13*o.M32,
		M13: t.M11*o.M13 + t.M12*o.M23 + t.M13*o.M33,
		M21: t.M21*o.M11 + t.M22*o.M21 + t.M23*o.M31,
		M22: t.M21*o.M12 + t.M22*o.M22 + t.M23*o.M32,
		M23: t.M21*o.M13 + t.M22*o.M23 + t.M23*o.M33,
		M31: t.M31*o.M11 + t.M32*o.M21 + t.M33*o.M31,
		M32: t.M31*o.M12 + t.M32*o.M22 + t.M33*o.M32,
		M33: t.M31*o.M13 + t.M32*o.M23 + t.M33*o.M33,
	}
}

// IsAffine reports whether the projective row is (0, 0, 1).
func (t Transform) IsAffine() bool {
	return math.Abs(t.M13) < eps && math.Abs(t.M23) < eps && math.Abs(t.M33-1) < eps
}

// Map applies the transform to p.
func (t Transform) Map(p Point) Point {
	x := t.M11*p.X + t.M21*p.Y + t.M31
	y := t.M12*p.X + t.M22*p.Y + t.M32
	if t.IsAffine() {
		return Point{X: x, Y: y}
	}
	w := t.M13*p.X + t.M23*p.Y + t.M33
	if w == 0 {
		return Point{X: math.Inf(1), Y: math.Inf(1)}
	}
	return Point{X: x / w, Y: y / w}
}

// W returns the homogeneous weight of p under t.
func (t Transform) W(p Point) float64 {
	return t.M13*p.X + t.M23*p.Y + t.M33
}

// Determinant returns the determinant of the matrix.
func (t Transform) Determinant() float64 {
	return t.M11*(t.M33*t.M22-t.M32*t.M23) -
		t.M21*(t.M33*t.M12-t.M32*t.M13) +
		t.M31*(t.M23*t.M12-t.M22*t.M13)
}

// Adjoint returns the transpose of the cofactor matrix.
func (t Transform) Adjoint() Transform {
	return Transform{
		M11: t.M22*t.M33 - t.M23*t.M32,
		M12: t.M13*t.M32 - t.M12*t.M33,
		M13: t.M12*t.M23 - t.M13*t.M22,
		M21: t.M23*t.M31 - t.M21*t.M33,
		M22: t.M11*t.M33 - t.M13*t.M31,
		M23: t.M13*t.M21 - t.M11*t.M23,
		M31: t.M21*t.M32 - t.M22*t.M31,
		M32: t.M12*t.M31 - t.M11*t.M32,
		M33: t.M11*t.M22 - t.M12*t.M21,
	}
}

// Inverted returns the inverse of t. ok is false when t is singular.
func (t Transform) Inverted() (Transform, bool) {
	det := t.Determinant()
	if math.Abs(det) < eps {
		return Transform{}, false
	}
	adj := t.Adjoint()
	return adj.scaled(1 / det), true
}

// Normalized rescales t so that M33 is 1. Projectively the result is the same
// mapping. A transform with M33 == 0 is returned unchanged.
func (t Transform) Normalized() Transform {
	if math.Abs(t.M33) < eps {
		return t
	}
	return t.scaled(1 / t.M33)
}

func (t Transform) scaled(k float64) Transform {
	return Transform{
		M11: t.M11 * k, M12: t.M12 * k, M13: t.M13 * k,
		M21: t.M21 * k, M22: t.M22 * k, M23: t.M23 * k,
		M31: t.M31 * k, M32: t.M32 * k, M33: t.M33 * k,
	}
}

// ColumnMajor returns the matrix in column-vector layout: row 0 produces x,
// row 1 produces y and row 2 produces w.
func (t Transform) ColumnMajor() [3][3]float64 {
	return [3][3]float64{
		{t.M11, t.M21, t.M31},
		{t.M12, t.M22, t.M32},
		{t.M13, t.M23, t.M33},
	}
}

// FromColumnMajor is the inverse of ColumnMajor.
func FromColumnMajor(m [3][3]float64) Transform {
	return Transform{
		M11: m[0][0], M21: m[0][1], M31: m[0][2],
		M12: m[1][0], M22: m[1][1], M32: m[1][2],
		M13: m[2][0], M23: m[2][1], M33: m[2][2],
	}
}

// IsFinite reports whether every element is a finite number.
func (t Transform) IsFinite() bool {
	for _, v := range [9]float64{t.M11, t.M12, t.M13, t.M21, t.M22, t.M23, t.M31, t.M32, t.M33} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// SquareToQuad returns the transform mapping the unit square
// (0,0),(1,0),(1,1),(0,1) onto q.
func SquareToQuad(q Quad) (Transform, bool) {
	x0, y0 := q[0].X, q[0].Y
	x1, y1 := q[1].X, q[1].Y
	x2, y2 := q[2].X, q[2].Y
	x3, y3 := q[3].X, q[3].Y

	ax := x0 - x1 + x2 - x3
	ay := y0 - y1 + y2 - y3

	if ax == 0 && ay == 0 {
		return Transform{
			M11: x1 - x0, M12: y1 - y0, M13: 0,
			M21: x2 - x1, M22: y2 - y1, M23: 0,
			M31: x0, M32: y0, M33: 1,
		}, true
	}

	ax1 := x1 - x2
	ax2 := x3 - x2
	ay1 := y1 - y2
	ay2 := y3 - y2

	bottom := ax1*ay2 - ax2*ay1
	if bottom == 0 {
		return Transform{}, false
	}
	g := (ax*ay2 - ax2*ay) / bottom
	h := (ax1*ay - ax*ay1) / bottom

	return Transform{
		M11: x1 - x0 + g*x1, M12: y1 - y0 + g*y1, M13: g,
		M21: x3 - x0 + h*x3, M22: y3 - y0 + h*y3, M23: h,
		M31: x0, M32: y0, M33: 1,
	}, true
}

// QuadToSquare returns the transform mapping q onto the unit square.
func QuadToSquare(q Quad) (Transform, bool) {
	t, ok := SquareToQuad(q)
	if !ok {
		return Transform{}, false
	}
	return t.Inverted()
}

// QuadToQuad returns the transform mapping the corners of src onto the
// corresponding corners of dst. The result is normalized. A destination that
// collapses the plane (zero determinant) is rejected.
func QuadToQuad(src, dst Quad) (Transform, bool) {
	toSquare, ok := QuadToSquare(src)
	if !ok {
		return Transform{}, false
	}
	fromSquare, ok := SquareToQuad(dst)
	if !ok {
		return Transform{}, false
	}
	t := toSquare.Mul(fromSquare).Normalized()
	if !t.IsFinite() || math.Abs(t.Determinant()) < eps {
		return Transform{}, false
	}
	return t, true
}
