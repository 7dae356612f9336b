// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for 2D convex polygons.
//
// GJK detects whether two convex polygons overlap by testing if their Minkowski difference
// contains the origin. In 2D the simplex grows from a point to a segment to a triangle;
// a triangle that encloses the origin proves the intersection.
//
// Every simplex vertex remembers the two polygon vertices it was built from, so EPA can
// turn the final polytope edge back into contact points on each polygon.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"math"
	"sync"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// MaxIterations bounds the main GJK loop. Polygons converge in a handful of
// iterations; the limit only protects against numerical cycling.
const MaxIterations = 128

// degenerateEpsilon is the squared length below which a direction or an edge is
// considered zero.
const degenerateEpsilon = 1e-12

// SupportPoint is a vertex of the Minkowski difference A - B together with the
// vertices of A and B that produced it.
type SupportPoint struct {
	Point mgl64.Vec2
	A     mgl64.Vec2
	B     mgl64.Vec2
}

// Simplex represents a set of 1-3 points in the Minkowski difference space.
// Points[Count-1] is always the most recently added support point.
type Simplex struct {
	Points [3]SupportPoint
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B):
// the vertex of A farthest along direction minus the vertex of B farthest along
// -direction. Both polygons must be in world space.
func MinkowskiSupport(a, b geometry.Polygon, direction mgl64.Vec2) SupportPoint {
	supportA, _ := a.Support(direction)
	supportB, _ := b.Support(direction.Mul(-1))
	return SupportPoint{
		Point: supportA.Sub(supportB),
		A:     supportA,
		B:     supportB,
	}
}

// initialDirection points from the centre of B to the centre of A, which is
// roughly where A - B lies.
func initialDirection(a, b geometry.Polygon) mgl64.Vec2 {
	direction := a.Centroid().Sub(b.Centroid())
	if direction.LenSqr() < degenerateEpsilon {
		return mgl64.Vec2{1, 0}
	}
	return direction
}

// GJK performs an intersection test between two convex polygons.
//
// Algorithm overview:
//  1. Start with a support point along the centre-to-centre direction
//  2. Search towards the origin from the current simplex
//  3. If the new support point does not pass the origin → separated
//  4. Reduce the simplex to the feature closest to the origin
//  5. A triangle enclosing the origin → intersection
//
// Touching polygons (support projection exactly zero) are reported as
// separated. On success the simplex holds a triangle containing the origin,
// which EPA uses as its initial polytope.
func GJK(a, b geometry.Polygon, simplex *Simplex) bool {
	direction := initialDirection(a, b)

	simplex.Points[0] = MinkowskiSupport(a, b, direction)
	simplex.Count = 1

	direction = simplex.Points[0].Point.Mul(-1)
	if direction.LenSqr() < degenerateEpsilon {
		// The origin is a vertex of A - B: the polygons only touch.
		return false
	}

	for i := 0; i < MaxIterations; i++ {
		newPoint := MinkowskiSupport(a, b, direction)

		// The new point does not pass the origin along the search direction,
		// so the origin lies outside A - B.
		if newPoint.Point.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = newPoint
		simplex.Count++

		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

// containsOrigin reduces the simplex to the feature closest to the origin and
// updates the search direction. Only a triangle can contain the origin.
func containsOrigin(simplex *Simplex, direction *mgl64.Vec2) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	}
	return false
}

// line handles the segment simplex (A most recent, B older).
func line(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if ab.LenSqr() < degenerateEpsilon || ab.Dot(ao) <= 0 {
		simplex.Points[0] = a
		simplex.Count = 1
		*direction = ao
		return false
	}

	perp := geometry.TripleProduct(ab, ao, ab)
	if perp.LenSqr() < degenerateEpsilon {
		// The segment passes through the origin; either side will do.
		perp = geometry.Perp(ab)
	}
	*direction = perp
	return false
}

// triangle handles the triangle simplex (A most recent, then B, then C).
//
// The origin is already known to lie beyond BC (that is how A was found), so
// only the regions outside AB and AC need testing.
func triangle(simplex *Simplex, direction *mgl64.Vec2) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if math.Abs(geometry.Cross(ab, ac)) < degenerateEpsilon {
		// Collinear points: keep the newest edge and carry on as a segment.
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		return line(simplex, direction)
	}

	// Perpendiculars of AB and AC pointing away from the third vertex.
	abPerp := geometry.TripleProduct(ac, ab, ab)
	acPerp := geometry.TripleProduct(ab, ac, ac)

	if abPerp.Dot(ao) > 0 {
		simplex.Points[0] = b
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = abPerp
		return false
	}

	if acPerp.Dot(ao) > 0 {
		simplex.Points[0] = c
		simplex.Points[1] = a
		simplex.Count = 2
		*direction = acPerp
		return false
	}

	return true
}
