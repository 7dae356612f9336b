package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray is a half-line. Direction is kept at unit length so that the ray
// parameter of a hit is also its distance from Origin.
type Ray struct {
	Origin    mgl64.Vec2
	Direction mgl64.Vec2
}

// RayHit describes where a ray first meets a shape.
type RayHit struct {
	Point    mgl64.Vec2
	Normal   mgl64.Vec2
	Distance float64
}

// NewRay normalizes direction. A zero direction falls back to +X.
func NewRay(origin, direction mgl64.Vec2) Ray {
	return Ray{Origin: origin, Direction: SafeNormalize(direction, mgl64.Vec2{1, 0})}
}

func (r Ray) At(t float64) mgl64.Vec2 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// IntersectAABB runs the slab test and returns the entry distance.
// When the origin is inside the box the hit is reported at distance 0 if
// insideIsCollision is set, and not at all otherwise.
func (r Ray) IntersectAABB(box AABB, insideIsCollision bool) (float64, bool) {
	min, max := box.Min(), box.Max()
	tMin := math.Inf(-1)
	tMax := math.Inf(1)

	for axis := 0; axis < 2; axis++ {
		o, d := r.Origin[axis], r.Direction[axis]
		if math.Abs(d) < Epsilon {
			if o < min[axis] || o > max[axis] {
				return 0, false
			}
			continue
		}
		t1 := (min[axis] - o) / d
		t2 := (max[axis] - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	// Both slab intervals lie behind the origin.
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		if insideIsCollision {
			return 0, true
		}
		return 0, false
	}
	return tMin, true
}

// IntersectSphere solves the ray/circle quadratic and returns the entry
// distance, with the same inside rule as IntersectAABB.
func (r Ray) IntersectSphere(s Sphere, insideIsCollision bool) (float64, bool) {
	m := r.Origin.Sub(s.Center)
	b := m.Dot(r.Direction)
	c := m.Dot(m) - s.Radius*s.Radius

	if c > 0 && b > 0 {
		return 0, false
	}
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	if c <= 0 {
		if insideIsCollision {
			return 0, true
		}
		return 0, false
	}
	return -b - math.Sqrt(disc), true
}

// IntersectPolygon clips the ray against the half-plane of every edge of the
// convex polygon. The ray enters at the last entering edge and leaves at the
// first leaving one; it misses when it leaves before it enters. Rays that
// only graze a vertex or run along an edge miss.
func (r Ray) IntersectPolygon(p Polygon, insideIsCollision bool) (RayHit, bool) {
	n := p.Len()
	if n < 3 {
		return RayHit{}, false
	}

	tEnter, tExit := math.Inf(-1), math.Inf(1)
	enterEdge := -1
	for i := 0; i < n; i++ {
		normal := p.EdgeNormal(i)
		// The ray is inside the edge while t*den <= num.
		num := normal.Dot(p.Points[i].Sub(r.Origin))
		den := normal.Dot(r.Direction)

		if math.Abs(den) < Epsilon {
			if num <= Epsilon {
				return RayHit{}, false
			}
			continue
		}

		t := num / den
		if den < 0 {
			if t > tEnter {
				tEnter = t
				enterEdge = i
			}
		} else if t < tExit {
			tExit = t
		}
	}

	if tExit < 0 || tEnter >= tExit-Epsilon {
		return RayHit{}, false
	}
	if tEnter < 0 {
		if insideIsCollision {
			return RayHit{Point: r.Origin, Normal: r.Direction.Mul(-1), Distance: 0}, true
		}
		return RayHit{}, false
	}
	return RayHit{
		Point:    r.At(tEnter),
		Normal:   p.EdgeNormal(enterEdge),
		Distance: tEnter,
	}, true
}
