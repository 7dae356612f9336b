// Package geometry holds the 2D value types shared by every stage of the
// engine: convex polygons, axis-aligned boxes, rays and spheres.
//
// All vectors are mgl64.Vec2. Polygons are expected in counter-clockwise
// order, which here means a positive shoelace signed area. The outward
// normal of an edge e is therefore (e.y, -e.x).
package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the tolerance used for degenerate-length checks.
const Epsilon = 1e-10

// Cross returns the scalar (z) component of the cross product a × b.
func Cross(a, b mgl64.Vec2) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// CrossVS returns v × s, the vector (s*v.y, -s*v.x).
func CrossVS(v mgl64.Vec2, s float64) mgl64.Vec2 {
	return mgl64.Vec2{s * v[1], -s * v[0]}
}

// CrossSV returns s × v, the vector (-s*v.y, s*v.x).
func CrossSV(s float64, v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-s * v[1], s * v[0]}
}

// TripleProduct returns (a × b) × c = b(a·c) - a(b·c).
func TripleProduct(a, b, c mgl64.Vec2) mgl64.Vec2 {
	return b.Mul(a.Dot(c)).Sub(a.Mul(b.Dot(c)))
}

// Perp returns v rotated by +90 degrees.
func Perp(v mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{-v[1], v[0]}
}

// SafeNormalize returns v with unit length, or fallback when v is too short
// to be normalized.
func SafeNormalize(v, fallback mgl64.Vec2) mgl64.Vec2 {
	l := v.Len()
	if l < Epsilon || math.IsNaN(l) || math.IsInf(l, 0) {
		return fallback
	}
	return v.Mul(1.0 / l)
}

// Rotate rotates v by angle radians around the origin.
func Rotate(v mgl64.Vec2, angle float64) mgl64.Vec2 {
	if angle == 0 {
		return v
	}
	return mgl64.Rotate2D(angle).Mul2x1(v)
}

// ClosestPointOnSegment returns the point of segment [a, b] closest to p and
// the segment parameter t in [0, 1] of that point.
func ClosestPointOnSegment(a, b, p mgl64.Vec2) (mgl64.Vec2, float64) {
	ab := b.Sub(a)
	lenSqr := ab.LenSqr()
	if lenSqr < Epsilon {
		return a, 0
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSqr, 0, 1)
	return a.Add(ab.Mul(t)), t
}
