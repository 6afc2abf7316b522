package geom

// Matrix2D is an affine transform in Canvas2D setTransform order
// [a, b, c, d, e, f]:
//
//	| a  c  e |
//	| b  d  f |
//
// Viewport and minimap transforms only scale and translate, so b and c are
// zero for everything the engine builds.
type Matrix2D [6]float64

func Identity() Matrix2D { return Matrix2D{1, 0, 0, 1, 0, 0} }

func Translate(tx, ty float64) Matrix2D { return Matrix2D{1, 0, 0, 1, tx, ty} }

func Scale(sx, sy float64) Matrix2D { return Matrix2D{sx, 0, 0, sy, 0, 0} }

// Multiply composes m after other: the result maps p to m.Apply(other.Apply(p)).
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	a, b, c, d := m[0], m[1], m[2], m[3]
	origin := m.Apply(Point{X: other[4], Y: other[5]})
	return Matrix2D{
		a*other[0] + c*other[1],
		b*other[0] + d*other[1],
		a*other[2] + c*other[3],
		b*other[2] + d*other[3],
		origin.X,
		origin.Y,
	}
}

func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyRect maps the corners of r. The result is exact only while b and c
// are zero; a flipping scale is normalized.
func (m Matrix2D) ApplyRect(r Rect) Rect {
	return RectFromPoints(m.Apply(r.Min()), m.Apply(r.Max()))
}

// Invert returns the inverse transform. A singular matrix inverts to Identity.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}
	inv := Matrix2D{m[3] / det, -m[1] / det, -m[2] / det, m[0] / det}
	t := inv.Apply(Point{X: m[4], Y: m[5]})
	inv[4], inv[5] = -t.X, -t.Y
	return inv
}

// ToSlice is the JSON form handed to setTransform.
func (m Matrix2D) ToSlice() []float64 { return m[:] }

// IsIdentity reports whether m is the identity within Epsilon.
func (m Matrix2D) IsIdentity() bool {
	return m.Apply(Point{}).Near(Point{}) &&
		Point{X: m[0], Y: m[1]}.Near(Point{X: 1}) &&
		Point{X: m[2], Y: m[3]}.Near(Point{Y: 1})
}
