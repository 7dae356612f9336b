package planar

import (
	"math"
	"testing"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/constraint"
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const dt = 1.0 / 60.0

type recordingHandler struct {
	collisions  int
	separations int
	veto        bool
}

func (h *recordingHandler) OnCollision(self, other *actor.Geom, manifold *geometry.Manifold) bool {
	h.collisions++
	return !h.veto
}

func (h *recordingHandler) OnSeparation(self, other *actor.Geom) {
	h.separations++
}

func newBoxGeom(t *testing.T, position mgl64.Vec2, halfWidth, halfHeight float64, bodyType *actor.BodyType) *actor.Geom {
	t.Helper()
	g, err := actor.NewGeom(geometry.NewBox(halfWidth, halfHeight), actor.Transform{Position: position})
	require.NoError(t, err)
	if bodyType != nil {
		g.SetBody(actor.NewRigidBody(*bodyType, actor.Transform{Position: position}))
	}
	return g
}

func bodyType(t actor.BodyType) *actor.BodyType {
	return &t
}

func newTestWorld(t *testing.T, gravity mgl64.Vec2, enabled bool) (*World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	w := NewWorld(zap.New(core), DefaultSettings())
	w.Initialize(gravity, enabled)
	return w, logs
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestWorld_StepBeforeInitializePanics(t *testing.T) {
	w := NewWorld(nil, Settings{})
	assert.Panics(t, func() { w.Step(dt) })
}

func TestWorld_SettingsDefaults(t *testing.T) {
	w := NewWorld(nil, Settings{SleepThreshold: 0.5})
	s := w.Settings()
	assert.Equal(t, 10, s.Iterations)
	assert.Equal(t, 0.5, s.SleepThreshold)
	assert.Equal(t, 1.0, s.LinearDamping)
	assert.Equal(t, 0.01, s.Slop)
	assert.Equal(t, 0.2, s.Baumgarte)

	noSlop := NewWorld(nil, Settings{Settings: constraint.Settings{Slop: -1}})
	assert.Equal(t, 0.0, noSlop.Settings().Slop)
}

func TestWorld_StagingAppliesAtStep(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	g := newBoxGeom(t, mgl64.Vec2{}, 1, 1, nil)

	w.AddGeom(g)
	assert.Empty(t, w.Geoms(), "geoms are only added at the next step")
	assert.Empty(t, w.QueryPoint(mgl64.Vec2{}, actor.GroupAll))

	w.Step(dt)
	assert.Equal(t, []*actor.Geom{g}, w.Geoms())
	assert.Equal(t, 1, w.broadphase.Len())
	assert.Equal(t, uint64(1), w.StepCount())
	assert.InDelta(t, dt, w.Time(), 1e-12)

	w.RemoveGeom(g)
	assert.Len(t, w.Geoms(), 1)
	w.Step(dt)
	assert.Empty(t, w.Geoms())
	assert.Equal(t, 0, w.broadphase.Len())
}

func TestWorld_AddThenRemoveBeforeStep(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	g := newBoxGeom(t, mgl64.Vec2{}, 1, 1, bodyType(actor.BodyTypeDynamic))

	w.AddGeom(g)
	w.RemoveGeom(g)
	w.Step(dt)

	assert.Empty(t, w.Geoms())
	assert.Equal(t, 0, w.broadphase.Len())
	assert.Equal(t, 0, w.broadphase.PairCount())
}

func TestWorld_ReAddPanics(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	g := newBoxGeom(t, mgl64.Vec2{}, 1, 1, nil)
	w.AddGeom(g)
	w.Step(dt)

	w.AddGeom(g)
	assert.Panics(t, func() { w.Step(dt) })
}

func TestWorld_RemoveUnknownWarns(t *testing.T) {
	w, logs := newTestWorld(t, mgl64.Vec2{}, false)
	w.RemoveGeom(newBoxGeom(t, mgl64.Vec2{}, 1, 1, nil))
	ghost := actor.NewRigidBody(actor.BodyTypeDynamic, actor.NewTransform())
	ghost.Tag = "ghost"
	w.RemoveBody(ghost)

	assert.NotPanics(t, func() { w.Step(dt) })
	assert.Equal(t, 1, logs.FilterMessage("removal of a geom not in world").Len())
	bodyLogs := logs.FilterMessage("removal of a body not in world").All()
	require.Len(t, bodyLogs, 1)
	assert.Equal(t, "ghost", bodyLogs[0].ContextMap()["body"])
}

func TestWorld_BodyDamping(t *testing.T) {
	settings := DefaultSettings()
	settings.LinearDamping = 0.5
	settings.AngularDamping = 0.25
	w := NewWorld(nil, settings)
	w.Initialize(mgl64.Vec2{}, false)

	damped := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	undamped := newBoxGeom(t, mgl64.Vec2{5, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	undamped.Body().SetLinearDamping(1)
	undamped.Body().SetAngularDamping(1)

	w.AddGeom(damped)
	w.AddGeom(undamped)
	w.Step(dt)

	assert.Equal(t, 0.5, damped.Body().LinearDamping())
	assert.Equal(t, 0.25, damped.Body().AngularDamping())
	assert.Equal(t, 1.0, undamped.Body().LinearDamping(), "an explicit damping of 1 is kept")
	assert.Equal(t, 1.0, undamped.Body().AngularDamping())

	undamped.Body().SetVelocity(mgl64.Vec2{1, 0})
	w.Step(dt)
	assert.Equal(t, mgl64.Vec2{1, 0}, undamped.Body().Velocity())
}

func TestWorld_AddGeomAssignsMass(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	g := newBoxGeom(t, mgl64.Vec2{}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	g.Material = &actor.Material{Density: 2, Friction: 0.4}

	w.AddGeom(g)
	w.Step(dt)

	body := g.Body()
	require.Len(t, w.Bodies(), 1, "the geom body is added with it")
	assert.True(t, body.HasMassData())
	assert.InDelta(t, 2.0, body.Mass(), 1e-9)
	assert.InDelta(t, 1.0/3.0, body.Inertia(), 1e-9)
	assert.Equal(t, w.Settings().SleepThreshold, body.SleepThreshold())
}

func TestWorld_RemoveBodyLeavesStaticGeom(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{0, 10}, true)
	g := newBoxGeom(t, mgl64.Vec2{}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	w.AddGeom(g)
	w.Step(dt)

	w.RemoveBody(g.Body())
	w.Step(dt)
	position := g.Position()
	w.Step(dt)

	assert.Nil(t, g.Body())
	assert.Empty(t, w.Bodies())
	assert.Equal(t, position, g.Position())
}

// =============================================================================
// Collision groups
// =============================================================================

func TestWorld_Groups(t *testing.T) {
	w, logs := newTestWorld(t, mgl64.Vec2{}, false)

	assert.Equal(t, actor.Group3, w.Group("GROUP3"))
	assert.Equal(t, actor.GroupAll, w.Group("ALL"))

	w.RegisterGroup("walls", actor.Group1|actor.Group2)
	assert.Equal(t, actor.Group1|actor.Group2, w.Group("walls"))

	assert.Equal(t, actor.GroupNone, w.Group("ghosts"))
	assert.Equal(t, 1, logs.FilterMessage("unknown collision group").Len())
}

func TestWorld_GroupFiltering(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	a.BelongsTo, a.CollidesWith = w.Group("GROUP1"), w.Group("GROUP2")
	b.BelongsTo, b.CollidesWith = w.Group("GROUP2"), w.Group("GROUP3")

	w.AddGeom(a)
	w.AddGeom(b)
	w.Step(dt)

	assert.Equal(t, 1, w.broadphase.PairCount(), "the broadphase still reports the overlap")
	assert.Equal(t, 0, w.ContactCount())
	assert.Equal(t, mgl64.Vec2{}, a.Body().Velocity())
}

// =============================================================================
// Contacts and handlers
// =============================================================================

func TestWorld_OverlappingBodiesPushApart(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	handler := &recordingHandler{}
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	a.Handler = handler

	capture := &eventCapture{}
	subscribeAll(&w.Events, capture)

	w.AddGeom(a)
	w.AddGeom(b)

	w.Step(dt)
	require.Equal(t, 1, w.ContactCount())
	require.Len(t, w.Contacts(), 1)
	assert.Less(t, a.Body().Velocity().X(), 0.0)
	assert.Greater(t, b.Body().Velocity().X(), 0.0)

	for range 120 {
		w.Step(dt)
	}

	assert.Equal(t, 0, w.ContactCount())
	assert.Greater(t, handler.collisions, 0)
	assert.Equal(t, 1, handler.separations, "separation is reported once")

	enters, exits := 0, 0
	for _, e := range capture.events {
		switch e.Type() {
		case COLLISION_ENTER:
			enters++
		case COLLISION_EXIT:
			exits++
		}
	}
	assert.Equal(t, 1, enters)
	assert.Equal(t, 1, exits)
}

func TestWorld_HandlerVeto(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b.Handler = &recordingHandler{veto: true}

	w.AddGeom(a)
	w.AddGeom(b)
	for range 10 {
		w.Step(dt)
	}

	require.Equal(t, 1, w.ContactCount())
	assert.False(t, w.Contacts()[0].Enabled())
	assert.Equal(t, mgl64.Vec2{}, a.Body().Velocity())
	assert.Equal(t, mgl64.Vec2{}, b.Body().Velocity())
}

func TestWorld_TriggerReportsWithoutResponse(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	sensor := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, nil)
	sensor.ResponseEnabled = false

	capture := &eventCapture{}
	subscribeAll(&w.Events, capture)

	w.AddGeom(a)
	w.AddGeom(sensor)
	w.Step(dt)

	assert.True(t, capture.hasEventType(TRIGGER_ENTER))
	assert.False(t, capture.hasEventType(COLLISION_ENTER))
	assert.Equal(t, mgl64.Vec2{}, a.Body().Velocity())
}

func TestWorld_RemoveGeomPurgesContacts(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	handlerA := &recordingHandler{veto: true}
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	a.Handler = handlerA

	capture := &eventCapture{}
	w.Events.Subscribe(COLLISION_EXIT, capture.capture)

	w.AddGeom(a)
	w.AddGeom(b)
	w.Step(dt)
	require.Equal(t, 1, w.ContactCount())

	w.RemoveGeom(b)
	w.Step(dt)

	assert.Equal(t, 0, w.ContactCount())
	assert.Empty(t, w.Contacts())
	assert.Equal(t, 0, w.broadphase.PairCount())
	assert.Equal(t, 1, handlerA.separations)
	assert.Equal(t, 1, capture.count())

	w.Step(dt)
	assert.Equal(t, 1, handlerA.separations)
	assert.Equal(t, 1, capture.count())
}

func TestWorld_HandlerMayStageRemoval(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	a := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	b := newBoxGeom(t, mgl64.Vec2{0.9, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	a.Handler = removeOnCollision{world: w}

	w.AddGeom(a)
	w.AddGeom(b)
	w.Step(dt)
	assert.Len(t, w.Geoms(), 2, "removal requested during a step waits for the next one")

	w.Step(dt)
	assert.Equal(t, []*actor.Geom{a}, w.Geoms())
}

type removeOnCollision struct {
	world *World
}

func (h removeOnCollision) OnCollision(self, other *actor.Geom, manifold *geometry.Manifold) bool {
	h.world.RemoveGeom(other)
	return true
}

func (h removeOnCollision) OnSeparation(self, other *actor.Geom) {}

// =============================================================================
// Motion
// =============================================================================

func TestWorld_BodyRestsOnGround(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{0, 9.8}, true)
	box := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	ground := newBoxGeom(t, mgl64.Vec2{0, 2}, 10, 0.5, bodyType(actor.BodyTypeFixed))

	w.AddGeom(box)
	w.AddGeom(ground)
	for range 300 {
		w.Step(dt)
	}

	groundTop := ground.AABB().Min().Y()
	assert.InDelta(t, groundTop, box.AABB().Max().Y(), 0.02)
	assert.InDelta(t, 0.0, box.Body().Velocity().Y(), 0.05)
	assert.InDelta(t, 0.0, box.Position().X(), 0.02)
	for _, c := range w.Contacts() {
		assert.Less(t, c.Depth, 0.02)
	}
	assert.Equal(t, mgl64.Vec2{0, 2}, ground.Position())
}

func TestWorld_FallingBodySleepsAndWakes(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{0, 9.8}, true)
	box := newBoxGeom(t, mgl64.Vec2{0, 0.9}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	ground := newBoxGeom(t, mgl64.Vec2{0, 2}, 10, 0.5, nil)

	capture := &eventCapture{}
	w.Events.Subscribe(ON_SLEEP, capture.capture)
	w.Events.Subscribe(ON_WAKE, capture.capture)

	w.AddGeom(box)
	w.AddGeom(ground)
	for range 600 {
		w.Step(dt)
	}
	require.False(t, box.Body().IsAwake(), "a resting body falls asleep")
	assert.True(t, capture.hasEventType(ON_SLEEP))

	box.Body().ApplyImpulse(mgl64.Vec2{1, 0})
	w.Step(dt)
	assert.True(t, box.Body().IsAwake())
	assert.True(t, capture.hasEventType(ON_WAKE))
}

func TestWorld_GravityRules(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{0, 10}, true)
	falling := newBoxGeom(t, mgl64.Vec2{0, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	floating := newBoxGeom(t, mgl64.Vec2{5, 0}, 0.5, 0.5, bodyType(actor.BodyTypeDynamic))
	floating.Body().IgnoreGravity = true
	kinematic := newBoxGeom(t, mgl64.Vec2{10, 0}, 0.5, 0.5, bodyType(actor.BodyTypeKinematic))
	kinematic.Body().SetVelocity(mgl64.Vec2{1, 0})

	w.AddGeom(falling)
	w.AddGeom(floating)
	w.AddGeom(kinematic)
	w.Step(0.1)

	assert.InDelta(t, 1.0, falling.Body().Velocity().Y(), 1e-9)
	assert.InDelta(t, 0.1, falling.Position().Y(), 1e-9)
	assert.Equal(t, mgl64.Vec2{5, 0}, floating.Position())
	assert.InDelta(t, 10.1, kinematic.Position().X(), 1e-9)
	assert.Equal(t, 0.0, kinematic.Body().Velocity().Y())

	w.SetGravity(mgl64.Vec2{0, -10})
	w.Step(0.1)
	assert.InDelta(t, 0.0, falling.Body().Velocity().Y(), 1e-9)

	w.SetGravityEnabled(false)
	w.Step(0.1)
	assert.InDelta(t, 0.0, falling.Body().Velocity().Y(), 1e-9)
}

func TestWorld_GeomFollowsRotatingBody(t *testing.T) {
	w, _ := newTestWorld(t, mgl64.Vec2{}, false)
	g := newBoxGeom(t, mgl64.Vec2{}, 2, 1, bodyType(actor.BodyTypeKinematic))
	g.Body().SetAngularVelocity(math.Pi / 2)

	w.AddGeom(g)
	w.Step(1)

	assert.InDelta(t, math.Pi/2, g.Rotation(), 1e-12)
	box, ok := w.broadphase.AABB(g.ProxyID())
	require.True(t, ok)
	assert.InDelta(t, 1.0, box.HalfExtents.X(), 1e-9)
	assert.InDelta(t, 2.0, box.HalfExtents.Y(), 1e-9)
}
