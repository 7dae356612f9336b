package actor

import (
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and an orientation in the plane.
// Rotation is in radians, counter-clockwise.
type Transform struct {
	Position mgl64.Vec2
	Rotation float64
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{}
}

// Apply maps a local point to world space.
func (t Transform) Apply(local mgl64.Vec2) mgl64.Vec2 {
	return geometry.Rotate(local, t.Rotation).Add(t.Position)
}

// ApplyInverse maps a world point to local space.
func (t Transform) ApplyInverse(world mgl64.Vec2) mgl64.Vec2 {
	return geometry.Rotate(world.Sub(t.Position), -t.Rotation)
}
