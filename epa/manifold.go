package epa

import (
	"math"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// feature is the polygon edge most facing a direction.
type feature struct {
	start, end mgl64.Vec2
	normal     mgl64.Vec2 // outward normal of the edge
}

// GenerateManifold creates up to two contact points using reference/incident
// edge clipping.
//
// Algorithm:
//  1. Pick the edge of A most facing the normal, and of B most facing -normal
//  2. The edge more perpendicular to the normal becomes the reference edge,
//     the other one the incident edge
//  3. Clip the incident edge against the reference edge's two side planes
//  4. Keep the clipped points lying behind the reference edge
//
// Each contact point is placed halfway between the incident point and the
// reference edge, with its own penetration depth.
//
// Parameters:
//   - a, b: The two colliding polygons in world space
//   - normal: Contact normal (from A toward B)
//   - depth: Penetration depth (positive value)
//
// Returns:
//
//	0-2 ContactPoints. An empty result means clipping failed and the caller
//	should fall back to a single point.
func GenerateManifold(a, b geometry.Polygon, normal mgl64.Vec2, depth float64) []geometry.ContactPoint {
	featureA := bestEdge(a, normal)
	featureB := bestEdge(b, normal.Mul(-1))

	reference, incident := featureA, featureB
	if math.Abs(featureB.normal.Dot(normal)) > math.Abs(featureA.normal.Dot(normal))+1e-9 {
		reference, incident = featureB, featureA
	}

	refVector := reference.end.Sub(reference.start)
	if refVector.LenSqr() < geometry.Epsilon {
		return nil
	}
	refVector = refVector.Normalize()

	clipped := clipSegment(incident.start, incident.end, refVector, refVector.Dot(reference.start))
	if len(clipped) < 2 {
		return nil
	}
	clipped = clipSegment(clipped[0], clipped[1], refVector.Mul(-1), -refVector.Dot(reference.end))
	if len(clipped) < 2 {
		return nil
	}

	refNormal := reference.normal
	maxDepth := refNormal.Dot(reference.start)

	points := make([]geometry.ContactPoint, 0, geometry.MaxContactPoints)
	for _, p := range clipped {
		penetration := maxDepth - refNormal.Dot(p)
		if penetration < 0 {
			continue
		}
		points = append(points, geometry.ContactPoint{
			Position:    p.Add(refNormal.Mul(penetration * 0.5)),
			Penetration: math.Min(penetration, depth+geometry.Epsilon),
		})
	}
	return points
}

// bestEdge returns the edge adjacent to the support vertex along direction
// whose normal is most aligned with direction.
func bestEdge(p geometry.Polygon, direction mgl64.Vec2) feature {
	_, index := p.Support(direction)
	n := p.Len()

	next := index
	prev := (index - 1 + n) % n

	// Edge leaving the support vertex vs edge arriving at it.
	if p.EdgeNormal(next).Dot(direction) >= p.EdgeNormal(prev).Dot(direction) {
		return feature{start: p.Vertex(next), end: p.Vertex(next + 1), normal: p.EdgeNormal(next)}
	}
	return feature{start: p.Vertex(prev), end: p.Vertex(prev + 1), normal: p.EdgeNormal(prev)}
}

// clipSegment keeps the part of segment [v1, v2] where n·p >= offset.
func clipSegment(v1, v2, n mgl64.Vec2, offset float64) []mgl64.Vec2 {
	clipped := make([]mgl64.Vec2, 0, 2)

	d1 := n.Dot(v1) - offset
	d2 := n.Dot(v2) - offset
	if d1 >= 0 {
		clipped = append(clipped, v1)
	}
	if d2 >= 0 {
		clipped = append(clipped, v2)
	}
	if d1*d2 < 0 {
		t := d1 / (d1 - d2)
		clipped = append(clipped, v1.Add(v2.Sub(v1).Mul(t)))
	}
	return clipped
}
