package gjk

import (
	"math"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// distanceTolerance is the relative progress below which the distance search
// stops.
const distanceTolerance = 1e-10

// DistanceResult describes the closest features of two separated polygons.
type DistanceResult struct {
	// Intersecting is true when the polygons overlap; the other fields are then zero.
	Intersecting bool
	Distance     float64
	// PointA and PointB are the closest points on A and on B.
	PointA mgl64.Vec2
	PointB mgl64.Vec2
	// Normal is the unit direction from PointA to PointB.
	Normal mgl64.Vec2
}

// Distance computes the separation between two convex polygons with the GJK
// closest-point iteration.
//
// Algorithm overview:
//  1. Find the point v of the simplex closest to the origin
//  2. Take the support point w of A - B along -v
//  3. If w brings no progress (|v|² - v·w small) → v is the closest point
//  4. Otherwise add w and keep only the simplex vertices supporting v
//
// The closest points on A and B are recovered from the barycentric weights of
// v over the simplex.
func Distance(a, b geometry.Polygon) DistanceResult {
	var points [3]SupportPoint
	count := 1
	points[0] = MinkowskiSupport(a, b, initialDirection(a, b).Mul(-1))

	var weights [3]float64
	for i := 0; i < MaxIterations; i++ {
		var v mgl64.Vec2
		var inside bool
		v, weights, count, inside = closestOnSimplex(&points, count)
		if inside || v.LenSqr() < degenerateEpsilon {
			return DistanceResult{Intersecting: true}
		}

		w := MinkowskiSupport(a, b, v.Mul(-1))
		vv := v.LenSqr()
		if vv-v.Dot(w.Point) <= distanceTolerance*vv || isDuplicate(points[:count], w) {
			break
		}

		points[count] = w
		count++
	}

	var pointA, pointB mgl64.Vec2
	for i := 0; i < count; i++ {
		pointA = pointA.Add(points[i].A.Mul(weights[i]))
		pointB = pointB.Add(points[i].B.Mul(weights[i]))
	}

	separation := pointB.Sub(pointA)
	distance := separation.Len()
	return DistanceResult{
		Distance: distance,
		PointA:   pointA,
		PointB:   pointB,
		Normal:   geometry.SafeNormalize(separation, mgl64.Vec2{1, 0}),
	}
}

func isDuplicate(points []SupportPoint, w SupportPoint) bool {
	for _, p := range points {
		if p.Point.Sub(w.Point).LenSqr() < degenerateEpsilon {
			return true
		}
	}
	return false
}

// closestOnSimplex returns the point of the simplex closest to the origin and
// its barycentric weights. The simplex is reduced in place to the vertices with
// a non-zero weight. inside reports a triangle enclosing the origin.
func closestOnSimplex(points *[3]SupportPoint, count int) (closest mgl64.Vec2, weights [3]float64, kept int, inside bool) {
	switch count {
	case 1:
		weights[0] = 1
		return points[0].Point, weights, 1, false

	case 2:
		return closestOnSegment(points, 0, 1)

	default:
		p0, p1, p2 := points[0].Point, points[1].Point, points[2].Point
		d0 := geometry.Cross(p1.Sub(p0), p0.Mul(-1))
		d1 := geometry.Cross(p2.Sub(p1), p1.Mul(-1))
		d2 := geometry.Cross(p0.Sub(p2), p2.Mul(-1))
		if (d0 >= 0 && d1 >= 0 && d2 >= 0) || (d0 <= 0 && d1 <= 0 && d2 <= 0) {
			if math.Abs(geometry.Cross(p1.Sub(p0), p2.Sub(p0))) > degenerateEpsilon {
				return mgl64.Vec2{}, weights, 3, true
			}
		}

		// Outside the triangle: the closest feature is on one of its edges.
		best := math.Inf(1)
		var bestEdge [2]int
		for _, edge := range [3][2]int{{0, 1}, {1, 2}, {2, 0}} {
			p, _ := geometry.ClosestPointOnSegment(points[edge[0]].Point, points[edge[1]].Point, mgl64.Vec2{})
			if d := p.LenSqr(); d < best {
				best = d
				bestEdge = edge
			}
		}
		return closestOnSegment(points, bestEdge[0], bestEdge[1])
	}
}

// closestOnSegment reduces the simplex to the segment i-j (or one of its end
// points) and moves the kept vertices to the front.
func closestOnSegment(points *[3]SupportPoint, i, j int) (mgl64.Vec2, [3]float64, int, bool) {
	var weights [3]float64
	a, b := points[i], points[j]
	p, t := geometry.ClosestPointOnSegment(a.Point, b.Point, mgl64.Vec2{})

	switch {
	case t <= 0:
		points[0] = a
		weights[0] = 1
		return a.Point, weights, 1, false
	case t >= 1:
		points[0] = b
		weights[0] = 1
		return b.Point, weights, 1, false
	}

	points[0], points[1] = a, b
	weights[0], weights[1] = 1-t, t
	return p, weights, 2, false
}
