package geometry

import "github.com/go-gl/mathgl/mgl64"

// MaxContactPoints is the size of a 2D polygon manifold.
const MaxContactPoints = 2

type ContactPoint struct {
	Position    mgl64.Vec2
	Penetration float64
}

// Manifold is the narrowphase result for one intersecting pair.
type Manifold struct {
	// Normal is the unit collision normal, from A towards B.
	Normal mgl64.Vec2
	// Depth is the penetration depth along Normal.
	Depth float64
	// Points holds one or two contact points.
	Points []ContactPoint
	// PointA and PointB are the deepest points of A and B found by EPA.
	PointA mgl64.Vec2
	PointB mgl64.Vec2
}
