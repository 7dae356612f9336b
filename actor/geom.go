package actor

import (
	"fmt"
	"sync/atomic"

	"github.com/akmonengine/planar/broadphase"
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

var lastGeomID atomic.Uint64

// Tracker is the broadphase a geom is registered in. It is told about every
// change of the geom's bounding box.
type Tracker interface {
	Update(id broadphase.ProxyID, aabb geometry.AABB) bool
}

// CollisionHandler receives the collisions of one geom. OnCollision returns
// false to veto the collision response for this step; the contact is still
// reported. OnSeparation fires once when the pair stops touching.
type CollisionHandler interface {
	OnCollision(self, other *Geom, manifold *geometry.Manifold) bool
	OnSeparation(self, other *Geom)
}

// Geom binds a convex polygon to a world transform, collision filtering and
// an optional rigid body.
//
// The local polygon is stored relative to its centroid, so the geom position
// is the centroid of the world polygon and matches a body's center of mass.
type Geom struct {
	id uint64

	local     geometry.Polygon
	world     geometry.Polygon
	aabb      geometry.AABB
	transform Transform

	body    *RigidBody
	tracker Tracker

	// CollisionEnabled turns every collision test off when false.
	CollisionEnabled bool
	// ResponseEnabled false makes the geom a trigger: collisions are reported
	// but never resolved.
	ResponseEnabled bool

	BelongsTo    CollisionGroup
	CollidesWith CollisionGroup

	// Material may be shared between geoms. Nil means DefaultMaterial.
	Material *Material
	Handler  CollisionHandler
	Tag      any
}

// NewGeom creates a geom from a convex counter-clockwise polygon. The polygon
// is re-centered on its centroid and placed at transform.
func NewGeom(shape geometry.Polygon, transform Transform) (*Geom, error) {
	g := &Geom{
		id:               lastGeomID.Add(1),
		transform:        transform,
		CollisionEnabled: true,
		ResponseEnabled:  true,
		BelongsTo:        GroupAll,
		CollidesWith:     GroupAll,
	}
	if err := g.setLocal(shape); err != nil {
		return nil, err
	}
	g.refresh()
	return g, nil
}

func (g *Geom) ID() uint64 {
	return g.id
}

func (g *Geom) ProxyID() broadphase.ProxyID {
	return broadphase.ProxyID(g.id)
}

func (g *Geom) setLocal(shape geometry.Polygon) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("geom %d: %w", g.id, err)
	}
	local := shape.Clone()
	local.Translate(shape.Centroid().Mul(-1))
	g.local = local
	return nil
}

// refresh recomputes the world polygon and bounding box, and reports the new
// box to the tracker.
func (g *Geom) refresh() {
	g.world = g.local.Transform(g.world, g.transform.Position, g.transform.Rotation)
	g.aabb = g.world.AABB()
	if g.tracker != nil {
		g.tracker.Update(g.ProxyID(), g.aabb)
	}
}

// SetShape replaces the polygon. The geom keeps its transform.
func (g *Geom) SetShape(shape geometry.Polygon) error {
	if err := g.setLocal(shape); err != nil {
		return err
	}
	g.refresh()
	return nil
}

func (g *Geom) SetTransform(transform Transform) {
	g.transform = transform
	g.refresh()
}

func (g *Geom) SetPosition(position mgl64.Vec2) {
	g.transform.Position = position
	g.refresh()
}

func (g *Geom) SetRotation(rotation float64) {
	g.transform.Rotation = rotation
	g.refresh()
}

func (g *Geom) Transform() Transform {
	return g.transform
}

func (g *Geom) Position() mgl64.Vec2 {
	return g.transform.Position
}

func (g *Geom) Rotation() float64 {
	return g.transform.Rotation
}

// SetBody attaches a body. The geom does not own it; several geoms may share
// one body.
func (g *Geom) SetBody(body *RigidBody) {
	g.body = body
}

func (g *Geom) Body() *RigidBody {
	return g.body
}

// SetTracker is called by the world when the geom is registered in or
// removed from a broadphase.
func (g *Geom) SetTracker(tracker Tracker) {
	g.tracker = tracker
}

// SyncFromBody copies the transform of the attached body. Unattached geoms
// and geoms on fixed bodies are left untouched.
func (g *Geom) SyncFromBody() bool {
	if g.body == nil || g.body.BodyType() == BodyTypeFixed {
		return false
	}
	transform := g.body.Transform()
	if transform == g.transform {
		return false
	}
	g.SetTransform(transform)
	return true
}

// WorldPolygon returns the polygon in world space. It must not be modified.
func (g *Geom) WorldPolygon() geometry.Polygon {
	return g.world
}

// LocalPolygon returns the centroid-relative polygon. It must not be modified.
func (g *Geom) LocalPolygon() geometry.Polygon {
	return g.local
}

func (g *Geom) AABB() geometry.AABB {
	return g.aabb
}

// EffectiveMaterial returns the geom material or DefaultMaterial.
func (g *Geom) EffectiveMaterial() Material {
	if g.Material == nil {
		return DefaultMaterial
	}
	return *g.Material
}

func (g *Geom) IsTrigger() bool {
	return !g.ResponseEnabled
}

// IsDynamic reports whether the geom follows a dynamic body.
func (g *Geom) IsDynamic() bool {
	return g.body != nil && g.body.BodyType() == BodyTypeDynamic
}

// CanCollide reports whether two geoms may generate a contact: both enabled,
// not sharing a body, and each one's groups accepted by the other.
func CanCollide(a, b *Geom) bool {
	if a == b || !a.CollisionEnabled || !b.CollisionEnabled {
		return false
	}
	if a.body != nil && a.body == b.body {
		return false
	}
	return a.BelongsTo.Has(b.CollidesWith) && b.BelongsTo.Has(a.CollidesWith)
}
