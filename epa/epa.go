// Package epa implements the Expanding Polytope Algorithm for computing penetration depth
// of two intersecting 2D convex polygons.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far the polygons overlap)
//   - Contact normal (direction to separate them)
//   - Contact points (where they touch)
//
// In 2D the polytope is a convex polygon inside the Minkowski difference, starting
// from GJK's final triangle. It is expanded edge by edge towards the boundary of
// the Minkowski difference until the edge closest to the origin stops moving; that
// edge gives the Minimum Translation Vector.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"math"
	"sync"

	"github.com/akmonengine/planar/geometry"
	"github.com/akmonengine/planar/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// EPAMaxIterations limits polytope expansion. Polygons with a few dozen
	// vertices converge well below this.
	EPAMaxIterations = 64

	// EPAConvergenceTolerance defines when EPA has converged: the new support point
	// lies less than this beyond the closest edge.
	EPAConvergenceTolerance = 1e-6

	polytopeInitialCapacity = 16
)

var ErrDegenerateSimplex = errors.New("epa: degenerate simplex")

type polytope struct {
	points []gjk.SupportPoint
}

var polytopePool = sync.Pool{
	New: func() interface{} {
		return &polytope{points: make([]gjk.SupportPoint, 0, polytopeInitialCapacity)}
	},
}

type edge struct {
	index    int // start vertex; the edge runs to index+1
	normal   mgl64.Vec2
	distance float64
}

// EPA computes penetration depth and contact information for overlapping convex polygons.
//
// Algorithm overview:
//  1. Start with the GJK triangle (contains the origin)
//  2. Determine its winding once, so every edge normal points outwards
//  3. Find the edge closest to the origin
//  4. Get the support point along that edge's normal
//  5. If it is no further than the edge (within tolerance) → done
//  6. Otherwise insert it between the edge's vertices and repeat from 3
//
// The normal points from A towards B: moving A by -Normal*Depth (or B by
// +Normal*Depth) separates the polygons. Contact points come from the clipping
// manifold, falling back to the barycentric witness points of the closest edge.
func EPA(a, b geometry.Polygon, simplex *gjk.Simplex) (geometry.Manifold, error) {
	if simplex.Count < 3 {
		return geometry.Manifold{}, ErrDegenerateSimplex
	}

	poly := polytopePool.Get().(*polytope)
	defer polytopePool.Put(poly)
	poly.points = append(poly.points[:0], simplex.Points[:3]...)

	winding := geometry.Cross(
		poly.points[1].Point.Sub(poly.points[0].Point),
		poly.points[2].Point.Sub(poly.points[1].Point),
	)
	if math.Abs(winding) < 1e-12 {
		return geometry.Manifold{}, ErrDegenerateSimplex
	}
	ccw := winding > 0

	var closest edge
	for i := 0; i < EPAMaxIterations; i++ {
		var ok bool
		closest, ok = poly.closestEdge(ccw)
		if !ok {
			return geometry.Manifold{}, ErrDegenerateSimplex
		}

		support := gjk.MinkowskiSupport(a, b, closest.normal)
		if support.Point.Dot(closest.normal)-closest.distance < EPAConvergenceTolerance {
			break
		}

		poly.insert(closest.index+1, support)
	}

	// Out of iterations: the closest edge found so far is the best estimate.
	return poly.manifold(a, b, closest), nil
}

// closestEdge returns the polytope edge nearest to the origin. Degenerate
// edges are skipped.
func (p *polytope) closestEdge(ccw bool) (edge, bool) {
	best := edge{distance: math.Inf(1)}
	found := false

	n := len(p.points)
	for i := 0; i < n; i++ {
		start := p.points[i].Point
		end := p.points[(i+1)%n].Point
		e := end.Sub(start)
		if e.LenSqr() < 1e-18 {
			continue
		}

		normal := mgl64.Vec2{e[1], -e[0]}
		if !ccw {
			normal = normal.Mul(-1)
		}
		normal = normal.Normalize()

		distance := math.Abs(start.Dot(normal))
		if distance < best.distance {
			best = edge{index: i, normal: normal, distance: distance}
			found = true
		}
	}
	return best, found
}

func (p *polytope) insert(at int, point gjk.SupportPoint) {
	p.points = append(p.points, gjk.SupportPoint{})
	copy(p.points[at+1:], p.points[at:])
	p.points[at] = point
}

// witnessPoints interpolates the polygon vertices behind the closest edge at
// the point of that edge nearest to the origin.
func (p *polytope) witnessPoints(e edge) (mgl64.Vec2, mgl64.Vec2) {
	start := p.points[e.index]
	end := p.points[(e.index+1)%len(p.points)]

	_, t := geometry.ClosestPointOnSegment(start.Point, end.Point, mgl64.Vec2{})
	pointA := start.A.Add(end.A.Sub(start.A).Mul(t))
	pointB := start.B.Add(end.B.Sub(start.B).Mul(t))
	return pointA, pointB
}

func (p *polytope) manifold(a, b geometry.Polygon, e edge) geometry.Manifold {
	pointA, pointB := p.witnessPoints(e)

	points := GenerateManifold(a, b, e.normal, e.distance)
	if len(points) == 0 {
		points = []geometry.ContactPoint{{
			Position:    pointA.Add(pointB).Mul(0.5),
			Penetration: e.distance,
		}}
	}

	return geometry.Manifold{
		Normal: e.normal,
		Depth:  e.distance,
		Points: points,
		PointA: pointA,
		PointB: pointB,
	}
}
