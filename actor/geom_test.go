package actor

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/planar/broadphase"
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

type recordingTracker struct {
	updates []geometry.AABB
}

func (r *recordingTracker) Update(id broadphase.ProxyID, aabb geometry.AABB) bool {
	r.updates = append(r.updates, aabb)
	return true
}

func createBoxGeom(t *testing.T, position mgl64.Vec2, halfWidth, halfHeight float64) *Geom {
	t.Helper()
	g, err := NewGeom(geometry.NewBox(halfWidth, halfHeight), Transform{Position: position})
	if err != nil {
		t.Fatalf("NewGeom() error = %v", err)
	}
	return g
}

// =============================================================================
// Construction
// =============================================================================

func TestNewGeom_IDsIncrease(t *testing.T) {
	a := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	b := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	if b.ID() <= a.ID() {
		t.Errorf("ids not increasing: %d then %d", a.ID(), b.ID())
	}
	if a.ProxyID() != broadphase.ProxyID(a.ID()) {
		t.Error("ProxyID must match ID")
	}
}

func TestNewGeom_Defaults(t *testing.T) {
	g := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	if !g.CollisionEnabled || !g.ResponseEnabled {
		t.Error("collision and response should be enabled by default")
	}
	if g.BelongsTo != GroupAll || g.CollidesWith != GroupAll {
		t.Error("groups should default to GroupAll")
	}
	if g.EffectiveMaterial() != DefaultMaterial {
		t.Error("nil material should resolve to DefaultMaterial")
	}
}

func TestNewGeom_RejectsInvalidShapes(t *testing.T) {
	tests := []struct {
		name    string
		shape   geometry.Polygon
		wantErr error
	}{
		{"two points", geometry.NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{1, 0}), geometry.ErrTooFewVertices},
		{"clockwise", geometry.NewPolygon(mgl64.Vec2{0, 0}, mgl64.Vec2{0, 1}, mgl64.Vec2{1, 1}), geometry.ErrNotCounterClockwise},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGeom(tt.shape, NewTransform())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewGeom() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewGeom_RecentersOnCentroid(t *testing.T) {
	shape := geometry.NewPolygon(mgl64.Vec2{10, 10}, mgl64.Vec2{12, 10}, mgl64.Vec2{12, 12}, mgl64.Vec2{10, 12})
	g, err := NewGeom(shape, Transform{Position: mgl64.Vec2{1, 1}})
	if err != nil {
		t.Fatal(err)
	}

	if c := g.LocalPolygon().Centroid(); !vec2AlmostEqual(c, mgl64.Vec2{}, 1e-12) {
		t.Errorf("local centroid = %v, want origin", c)
	}
	if c := g.WorldPolygon().Centroid(); !vec2AlmostEqual(c, mgl64.Vec2{1, 1}, 1e-12) {
		t.Errorf("world centroid = %v, want [1 1]", c)
	}
	box := g.AABB()
	if !vec2AlmostEqual(box.Min(), mgl64.Vec2{0, 0}, 1e-12) || !vec2AlmostEqual(box.Max(), mgl64.Vec2{2, 2}, 1e-12) {
		t.Errorf("AABB = %v..%v", box.Min(), box.Max())
	}
}

// =============================================================================
// Transform changes
// =============================================================================

func TestGeom_TransformRecomputesAndNotifies(t *testing.T) {
	g := createBoxGeom(t, mgl64.Vec2{}, 2, 1)
	tracker := &recordingTracker{}
	g.SetTracker(tracker)

	g.SetPosition(mgl64.Vec2{5, 0})
	if box := g.AABB(); !vec2AlmostEqual(box.Center, mgl64.Vec2{5, 0}, 1e-12) {
		t.Errorf("AABB center = %v, want [5 0]", box.Center)
	}

	g.SetRotation(math.Pi / 2)
	if box := g.AABB(); !vec2AlmostEqual(box.HalfExtents, mgl64.Vec2{1, 2}, 1e-9) {
		t.Errorf("rotated half extents = %v, want [1 2]", box.HalfExtents)
	}

	if err := g.SetShape(geometry.NewBox(3, 3)); err != nil {
		t.Fatal(err)
	}
	if len(tracker.updates) != 3 {
		t.Errorf("tracker got %d updates, want 3", len(tracker.updates))
	}

	if err := g.SetShape(geometry.NewPolygon(mgl64.Vec2{0, 0})); err == nil {
		t.Error("SetShape() accepted an invalid polygon")
	}
	if len(tracker.updates) != 3 {
		t.Error("a rejected shape must not notify the tracker")
	}
}

func TestGeom_SyncFromBody(t *testing.T) {
	g := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	if g.SyncFromBody() {
		t.Error("unattached geom should not sync")
	}

	body := NewRigidBody(BodyTypeDynamic, Transform{Position: mgl64.Vec2{3, 4}, Rotation: 0.2})
	g.SetBody(body)
	if !g.SyncFromBody() {
		t.Fatal("attached geom should sync")
	}
	if g.Transform() != body.Transform() {
		t.Errorf("geom transform = %+v, want %+v", g.Transform(), body.Transform())
	}
	if g.SyncFromBody() {
		t.Error("second sync without motion should report no change")
	}

	fixed := NewRigidBody(BodyTypeFixed, Transform{Position: mgl64.Vec2{9, 9}})
	g.SetBody(fixed)
	if g.SyncFromBody() {
		t.Error("fixed bodies should not drive their geom")
	}
	if g.Position() != (mgl64.Vec2{3, 4}) {
		t.Errorf("geom moved to %v", g.Position())
	}
}

// =============================================================================
// Filtering
// =============================================================================

func TestCanCollide_Groups(t *testing.T) {
	a := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	b := createBoxGeom(t, mgl64.Vec2{}, 1, 1)

	a.BelongsTo, a.CollidesWith = Group1, Group2
	b.BelongsTo, b.CollidesWith = Group2, Group1
	if !CanCollide(a, b) || !CanCollide(b, a) {
		t.Error("GROUP1/GROUP2 pair should collide in both orders")
	}

	b.CollidesWith = Group3
	if CanCollide(a, b) || CanCollide(b, a) {
		t.Error("pair should not collide once B only collides with GROUP3, in either order")
	}
}

func TestCanCollide_Flags(t *testing.T) {
	tests := []struct {
		name  string
		setup func(a, b *Geom)
		want  bool
	}{
		{"defaults", func(a, b *Geom) {}, true},
		{"a disabled", func(a, b *Geom) { a.CollisionEnabled = false }, false},
		{"b disabled", func(a, b *Geom) { b.CollisionEnabled = false }, false},
		{"trigger still collides", func(a, b *Geom) { a.ResponseEnabled = false }, true},
		{"none group", func(a, b *Geom) { a.BelongsTo = GroupNone }, false},
		{
			"shared body",
			func(a, b *Geom) {
				body := NewRigidBody(BodyTypeDynamic, NewTransform())
				a.SetBody(body)
				b.SetBody(body)
			},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
			b := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
			tt.setup(a, b)
			if got := CanCollide(a, b); got != tt.want {
				t.Errorf("CanCollide() = %v, want %v", got, tt.want)
			}
		})
	}

	a := createBoxGeom(t, mgl64.Vec2{}, 1, 1)
	if CanCollide(a, a) {
		t.Error("a geom never collides with itself")
	}
}

func TestCollisionGroup(t *testing.T) {
	if GroupBit(1) != Group1 || GroupBit(16) != Group16 {
		t.Error("GroupBit positions are 1-based")
	}
	if GroupBit(0) != GroupNone || GroupBit(17) != GroupNone {
		t.Error("out of range positions should give GroupNone")
	}
	if GroupAll.Count() != 32 || (Group1 | Group5).Count() != 2 {
		t.Error("Count() mismatch")
	}
	if !(Group1 | Group2).Has(Group2) || Group1.Has(Group2) {
		t.Error("Has() mismatch")
	}
}
