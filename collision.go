package planar

import (
	"github.com/akmonengine/planar/epa"
	"github.com/akmonengine/planar/geometry"
	"github.com/akmonengine/planar/gjk"
)

// Collide runs the narrowphase on two convex polygons: GJK decides whether
// they overlap, EPA measures the penetration and builds the manifold.
// The manifold normal points from a towards b.
func Collide(a, b geometry.Polygon) (geometry.Manifold, bool) {
	manifold, ok, _ := collide(a, b)
	return manifold, ok
}

// collide also returns the EPA error, so the world can report it. A pair
// EPA cannot expand is treated as not colliding.
func collide(a, b geometry.Polygon) (geometry.Manifold, bool, error) {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.GJK(a, b, simplex) {
		return geometry.Manifold{}, false, nil
	}

	manifold, err := epa.EPA(a, b, simplex)
	if err != nil {
		return geometry.Manifold{}, false, err
	}
	return manifold, true, nil
}

// Intersects reports whether two convex polygons overlap. Touching polygons
// do not intersect.
func Intersects(a, b geometry.Polygon) bool {
	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	return gjk.GJK(a, b, simplex)
}

// flipped returns the manifold seen from the other geom.
func flipped(m geometry.Manifold) geometry.Manifold {
	m.Normal = m.Normal.Mul(-1)
	m.PointA, m.PointB = m.PointB, m.PointA
	return m
}
