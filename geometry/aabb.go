package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrNegativeExtent = errors.New("aabb has a negative half-extent")

// AABB represents an axis-aligned bounding box stored as center and
// half-extents. Zero extents are allowed, negative ones are not.
type AABB struct {
	Center      mgl64.Vec2
	HalfExtents mgl64.Vec2
}

// NewAABB creates a box and panics on negative half-extents, which is always
// a programming error.
func NewAABB(center, halfExtents mgl64.Vec2) AABB {
	box := AABB{Center: center, HalfExtents: halfExtents}
	if err := box.Validate(); err != nil {
		panic(err)
	}
	return box
}

// AABBFromMinMax creates a box from its corners. Swapped corners are an error
// and panic like NewAABB.
func AABBFromMinMax(min, max mgl64.Vec2) AABB {
	return NewAABB(min.Add(max).Mul(0.5), max.Sub(min).Mul(0.5))
}

// AABBFromPoints returns the smallest box enclosing every point.
func AABBFromPoints(points []mgl64.Vec2) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	min, max := points[0], points[0]
	for _, p := range points[1:] {
		min[0] = math.Min(min[0], p[0])
		min[1] = math.Min(min[1], p[1])
		max[0] = math.Max(max[0], p[0])
		max[1] = math.Max(max[1], p[1])
	}
	return AABB{Center: min.Add(max).Mul(0.5), HalfExtents: max.Sub(min).Mul(0.5)}
}

func (a AABB) Validate() error {
	if a.HalfExtents[0] < 0 || a.HalfExtents[1] < 0 {
		return fmt.Errorf("%w: %v", ErrNegativeExtent, a.HalfExtents)
	}
	return nil
}

func (a AABB) Min() mgl64.Vec2 {
	return a.Center.Sub(a.HalfExtents)
}

func (a AABB) Max() mgl64.Vec2 {
	return a.Center.Add(a.HalfExtents)
}

// Intersects checks if two boxes overlap. Touching boxes overlap.
func (a AABB) Intersects(other AABB) bool {
	aMin, aMax := a.Min(), a.Max()
	bMin, bMax := other.Min(), other.Max()
	return aMin[0] <= bMax[0] && bMin[0] <= aMax[0] &&
		aMin[1] <= bMax[1] && bMin[1] <= aMax[1]
}

// Contains checks if a point is inside the box, boundary included.
func (a AABB) Contains(point mgl64.Vec2) bool {
	min, max := a.Min(), a.Max()
	return point[0] >= min[0] && point[0] <= max[0] &&
		point[1] >= min[1] && point[1] <= max[1]
}

// Union returns the smallest box enclosing both a and other.
func (a AABB) Union(other AABB) AABB {
	return AABBFromPoints([]mgl64.Vec2{a.Min(), a.Max(), other.Min(), other.Max()})
}

// Polygon returns the four corners of the box as a counter-clockwise polygon.
func (a AABB) Polygon() Polygon {
	min, max := a.Min(), a.Max()
	return NewPolygon(
		min,
		mgl64.Vec2{max[0], min[1]},
		max,
		mgl64.Vec2{min[0], max[1]},
	)
}
