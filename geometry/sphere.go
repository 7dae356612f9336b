package geometry

import "github.com/go-gl/mathgl/mgl64"

// Sphere is a circle in the plane.
type Sphere struct {
	Center mgl64.Vec2
	Radius float64
}

func (s Sphere) AABB() AABB {
	return AABB{Center: s.Center, HalfExtents: mgl64.Vec2{s.Radius, s.Radius}}
}

func (s Sphere) Contains(point mgl64.Vec2) bool {
	return point.Sub(s.Center).LenSqr() <= s.Radius*s.Radius
}

// OverlapsPolygon is gated by the bounding boxes, then checks whether the
// center is inside the polygon or within Radius of one of its edges.
func (s Sphere) OverlapsPolygon(p Polygon) bool {
	if p.Len() < 3 || !s.AABB().Intersects(p.AABB()) {
		return false
	}
	if p.Contains(s.Center) {
		return true
	}
	r2 := s.Radius * s.Radius
	for i := 0; i < p.Len(); i++ {
		closest, _ := ClosestPointOnSegment(p.Vertex(i), p.Vertex(i+1), s.Center)
		if closest.Sub(s.Center).LenSqr() <= r2 {
			return true
		}
	}
	return false
}
