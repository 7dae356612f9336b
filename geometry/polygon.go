package geometry

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrTooFewVertices      = errors.New("polygon needs at least 3 vertices")
	ErrNotConvex           = errors.New("polygon is not convex")
	ErrNotCounterClockwise = errors.New("polygon is not counter-clockwise")
)

// Polygon is an ordered list of vertices describing a convex shape.
// Winding and convexity are checked by Validate, never corrected.
type Polygon struct {
	Points []mgl64.Vec2
}

// NewPolygon copies points into a new Polygon.
func NewPolygon(points ...mgl64.Vec2) Polygon {
	p := make([]mgl64.Vec2, len(points))
	copy(p, points)
	return Polygon{Points: p}
}

// NewBox creates an axis-aligned rectangle centered on the origin.
func NewBox(halfWidth, halfHeight float64) Polygon {
	return NewPolygon(
		mgl64.Vec2{-halfWidth, -halfHeight},
		mgl64.Vec2{halfWidth, -halfHeight},
		mgl64.Vec2{halfWidth, halfHeight},
		mgl64.Vec2{-halfWidth, halfHeight},
	)
}

// NewRegularPolygon creates a regular polygon with the given number of sides
// inscribed in a circle of the given radius, centered on the origin.
func NewRegularPolygon(sides int, radius float64) Polygon {
	points := make([]mgl64.Vec2, sides)
	step := 2 * math.Pi / float64(sides)
	for i := range points {
		angle := step * float64(i)
		points[i] = mgl64.Vec2{radius * math.Cos(angle), radius * math.Sin(angle)}
	}
	return Polygon{Points: points}
}

func (p Polygon) Len() int {
	return len(p.Points)
}

// Vertex returns the i-th vertex, wrapping around in both directions.
func (p Polygon) Vertex(i int) mgl64.Vec2 {
	n := len(p.Points)
	return p.Points[((i%n)+n)%n]
}

// Edge returns the vector from vertex i to vertex i+1.
func (p Polygon) Edge(i int) mgl64.Vec2 {
	return p.Vertex(i + 1).Sub(p.Vertex(i))
}

// EdgeNormal returns the outward unit normal of edge i.
func (p Polygon) EdgeNormal(i int) mgl64.Vec2 {
	e := p.Edge(i)
	return SafeNormalize(mgl64.Vec2{e[1], -e[0]}, mgl64.Vec2{1, 0})
}

// VertexNormal returns the normalized average of the normals of the two
// edges meeting at vertex i.
func (p Polygon) VertexNormal(i int) mgl64.Vec2 {
	n := p.EdgeNormal(i - 1).Add(p.EdgeNormal(i))
	return SafeNormalize(n, p.EdgeNormal(i))
}

// SignedArea is positive for counter-clockwise polygons.
func (p Polygon) SignedArea() float64 {
	var sum float64
	n := len(p.Points)
	for i := 0; i < n; i++ {
		sum += Cross(p.Points[i], p.Points[(i+1)%n])
	}
	return sum / 2
}

func (p Polygon) Area() float64 {
	return math.Abs(p.SignedArea())
}

// Centroid returns the area-weighted center of the polygon. The vertices are
// walked counter-clockwise whatever their stored order, so the weights
// always use a positive area.
func (p Polygon) Centroid() mgl64.Vec2 {
	n := len(p.Points)
	if n == 0 {
		return mgl64.Vec2{}
	}

	area := p.SignedArea()
	if math.Abs(area) < Epsilon {
		var sum mgl64.Vec2
		for _, v := range p.Points {
			sum = sum.Add(v)
		}
		return sum.Mul(1.0 / float64(n))
	}

	at := func(i int) mgl64.Vec2 { return p.Points[i] }
	if area < 0 {
		at = func(i int) mgl64.Vec2 { return p.Points[n-1-i] }
		area = -area
	}

	var c mgl64.Vec2
	for i := 0; i < n; i++ {
		a, b := at(i), at((i+1)%n)
		c = c.Add(a.Add(b).Mul(Cross(a, b)))
	}
	return c.Mul(1.0 / (6 * area))
}

// IsCCW reports whether the polygon winds counter-clockwise.
func (p Polygon) IsCCW() bool {
	return p.SignedArea() > 0
}

// IsConvex reports whether every turn along the boundary goes the same way.
// Collinear vertices are tolerated.
func (p Polygon) IsConvex() bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		c := Cross(p.Edge(i), p.Edge(i+1))
		if math.Abs(c) < Epsilon {
			continue
		}
		s := 1
		if c < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0
}

// Validate checks the vertex count, the convexity and the winding order.
func (p Polygon) Validate() error {
	if len(p.Points) < 3 {
		return ErrTooFewVertices
	}
	if !p.IsConvex() {
		return ErrNotConvex
	}
	if !p.IsCCW() {
		return ErrNotCounterClockwise
	}
	return nil
}

// Contains tests whether point lies inside or on the polygon boundary.
// It binary searches the fan of triangles around vertex 0, which is only
// valid for convex counter-clockwise polygons.
func (p Polygon) Contains(point mgl64.Vec2) bool {
	n := len(p.Points)
	if n < 3 {
		return false
	}
	v0 := p.Points[0]
	rel := point.Sub(v0)

	if Cross(p.Points[1].Sub(v0), rel) < 0 || Cross(p.Points[n-1].Sub(v0), rel) > 0 {
		return false
	}

	lo, hi := 1, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if Cross(p.Points[mid].Sub(v0), rel) >= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}

	return Cross(p.Points[hi].Sub(p.Points[lo]), point.Sub(p.Points[lo])) >= 0
}

// Translate moves every vertex by offset.
func (p *Polygon) Translate(offset mgl64.Vec2) {
	for i := range p.Points {
		p.Points[i] = p.Points[i].Add(offset)
	}
}

// Scale scales every vertex around the origin. A negative factor on exactly
// one axis reverses the winding.
func (p *Polygon) Scale(factor mgl64.Vec2) {
	for i := range p.Points {
		p.Points[i] = mgl64.Vec2{p.Points[i][0] * factor[0], p.Points[i][1] * factor[1]}
	}
}

// Rotate rotates every vertex by angle radians around the origin.
func (p *Polygon) Rotate(angle float64) {
	if angle == 0 {
		return
	}
	m := mgl64.Rotate2D(angle)
	for i := range p.Points {
		p.Points[i] = m.Mul2x1(p.Points[i])
	}
}

// Transform writes the polygon rotated by rotation and then moved to position
// into dst, reusing its storage, and returns it.
func (p Polygon) Transform(dst Polygon, position mgl64.Vec2, rotation float64) Polygon {
	if cap(dst.Points) < len(p.Points) {
		dst.Points = make([]mgl64.Vec2, len(p.Points))
	}
	dst.Points = dst.Points[:len(p.Points)]

	m := mgl64.Rotate2D(rotation)
	for i, v := range p.Points {
		dst.Points[i] = m.Mul2x1(v).Add(position)
	}
	return dst
}

// Support returns the vertex farthest along direction and its index.
func (p Polygon) Support(direction mgl64.Vec2) (mgl64.Vec2, int) {
	best := 0
	bestDot := math.Inf(-1)
	for i, v := range p.Points {
		if d := v.Dot(direction); d > bestDot {
			bestDot = d
			best = i
		}
	}
	return p.Points[best], best
}

func (p Polygon) AABB() AABB {
	return AABBFromPoints(p.Points)
}

// MassData returns the mass and the rotational inertia about the centroid
// of a uniform plate of the given density.
func (p Polygon) MassData(density float64) (mass, inertia float64) {
	c := p.Centroid()
	n := len(p.Points)

	var area, moment float64
	for i := 0; i < n; i++ {
		a := p.Points[i].Sub(c)
		b := p.Points[(i+1)%n].Sub(c)
		cr := Cross(a, b)
		area += cr / 2
		moment += cr * (a.Dot(a) + a.Dot(b) + b.Dot(b))
	}

	mass = density * math.Abs(area)
	inertia = density * math.Abs(moment) / 12
	return mass, inertia
}

func (p Polygon) Clone() Polygon {
	return NewPolygon(p.Points...)
}
