package planar

import (
	"cmp"
	"math"
	"slices"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/broadphase"
	"github.com/akmonengine/planar/geometry"
	"github.com/akmonengine/planar/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// RayCastHit is a geom hit by a ray.
type RayCastHit struct {
	Geom *actor.Geom
	geometry.RayHit
}

// candidates resolves broadphase ids to the geoms that belong to group,
// sorted by id.
func (w *World) candidates(ids []broadphase.ProxyID, group actor.CollisionGroup) []*actor.Geom {
	slices.Sort(ids)
	geoms := make([]*actor.Geom, 0, len(ids))
	for _, id := range ids {
		geom := w.geoms[id]
		if geom == nil || !geom.CollisionEnabled || !geom.BelongsTo.Has(group) {
			continue
		}
		geoms = append(geoms, geom)
	}
	return geoms
}

// nearest returns the geom whose centroid is closest to point.
func nearest(geoms []*actor.Geom, point mgl64.Vec2) (*actor.Geom, bool) {
	var best *actor.Geom
	bestDistance := math.Inf(1)
	for _, geom := range geoms {
		if d := geom.Position().Sub(point).LenSqr(); d < bestDistance {
			best, bestDistance = geom, d
		}
	}
	return best, best != nil
}

// QueryPoint returns the geoms of group containing point.
func (w *World) QueryPoint(point mgl64.Vec2, group actor.CollisionGroup) []*actor.Geom {
	return slices.DeleteFunc(w.candidates(w.broadphase.QueryPoint(point), group), func(g *actor.Geom) bool {
		return !g.WorldPolygon().Contains(point)
	})
}

// CastPoint returns the geom containing point whose centroid is the closest.
func (w *World) CastPoint(point mgl64.Vec2, group actor.CollisionGroup) (*actor.Geom, bool) {
	return nearest(w.QueryPoint(point, group), point)
}

// QueryAABB returns the geoms of group overlapping box.
func (w *World) QueryAABB(box geometry.AABB, group actor.CollisionGroup) []*actor.Geom {
	polygon := box.Polygon()
	return slices.DeleteFunc(w.candidates(w.broadphase.QueryAABB(box), group), func(g *actor.Geom) bool {
		return !Intersects(polygon, g.WorldPolygon())
	})
}

// CastAABB returns the overlapping geom whose centroid is closest to the
// center of box.
func (w *World) CastAABB(box geometry.AABB, group actor.CollisionGroup) (*actor.Geom, bool) {
	return nearest(w.QueryAABB(box, group), box.Center)
}

// QuerySphere returns the geoms of group overlapping sphere.
func (w *World) QuerySphere(sphere geometry.Sphere, group actor.CollisionGroup) []*actor.Geom {
	return slices.DeleteFunc(w.candidates(w.broadphase.QueryAABB(sphere.AABB()), group), func(g *actor.Geom) bool {
		return !sphere.OverlapsPolygon(g.WorldPolygon())
	})
}

func (w *World) CastSphere(sphere geometry.Sphere, group actor.CollisionGroup) (*actor.Geom, bool) {
	return nearest(w.QuerySphere(sphere, group), sphere.Center)
}

// RayCastAll returns every geom of group hit by ray within maxDistance,
// nearest first. A ray starting inside a geom hits it at distance 0.
func (w *World) RayCastAll(ray geometry.Ray, maxDistance float64, group actor.CollisionGroup) []RayCastHit {
	var hits []RayCastHit
	for _, geom := range w.candidates(w.broadphase.QueryRay(ray, maxDistance), group) {
		hit, ok := ray.IntersectPolygon(geom.WorldPolygon(), true)
		if !ok || hit.Distance > maxDistance {
			continue
		}
		hits = append(hits, RayCastHit{Geom: geom, RayHit: hit})
	}

	slices.SortStableFunc(hits, func(a, b RayCastHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}

// RayCast returns the nearest geom of group hit by ray within maxDistance.
func (w *World) RayCast(ray geometry.Ray, maxDistance float64, group actor.CollisionGroup) (RayCastHit, bool) {
	hits := w.RayCastAll(ray, maxDistance, group)
	if len(hits) == 0 {
		return RayCastHit{}, false
	}
	return hits[0], true
}

// Distance returns the separation between two geoms and their closest points.
// Overlapping geoms report Intersecting with a zero distance.
func (w *World) Distance(a, b *actor.Geom) gjk.DistanceResult {
	return gjk.Distance(a.WorldPolygon(), b.WorldPolygon())
}
