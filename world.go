// Package planar is a 2D rigid body physics engine for convex polygons.
//
// A World owns geoms (shapes placed in the world) and rigid bodies (the
// motion behind them). Each Step runs the whole pipeline: staged additions
// and removals, broadphase pairs, GJK/EPA narrowphase, collision handlers,
// the sequential impulse solver and integration. Events are dispatched once
// the step is complete.
package planar

import (
	"fmt"
	"maps"
	"slices"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/broadphase"
	"github.com/akmonengine/planar/constraint"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

type stagedOp struct {
	add  bool
	geom *actor.Geom
	body *actor.RigidBody
}

type World struct {
	logger   *zap.Logger
	settings Settings

	initialized    bool
	gravity        mgl64.Vec2
	gravityEnabled bool

	broadphase *broadphase.SweepAndPrune
	solver     *constraint.Solver

	geoms    map[broadphase.ProxyID]*actor.Geom
	geomList []*actor.Geom
	bodies   []*actor.RigidBody
	bodySet  map[*actor.RigidBody]struct{}

	contacts    map[broadphase.Pair]*constraint.Contact
	contactList []*constraint.Contact
	touching    map[broadphase.Pair]struct{}

	// Requests made since the last step, applied in order at the start of
	// the next one.
	staged []stagedOp

	groups map[string]actor.CollisionGroup

	stepCount uint64
	time      float64

	Events Events
}

// NewWorld creates an empty world. A nil logger disables diagnostics; zero
// fields of settings take their default value.
func NewWorld(logger *zap.Logger, settings Settings) *World {
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.withDefaults()

	w := &World{
		logger:     logger,
		settings:   settings,
		broadphase: broadphase.New(logger.Named("broadphase")),
		solver:     constraint.NewSolver(settings.Iterations),
		geoms:      make(map[broadphase.ProxyID]*actor.Geom),
		bodySet:    make(map[*actor.RigidBody]struct{}),
		contacts:   make(map[broadphase.Pair]*constraint.Contact),
		touching:   make(map[broadphase.Pair]struct{}),
		groups:     make(map[string]actor.CollisionGroup),
		Events:     NewEvents(),
	}

	w.groups["ALL"] = actor.GroupAll
	w.groups["NONE"] = actor.GroupNone
	for i := 1; i <= 16; i++ {
		w.groups[fmt.Sprintf("GROUP%d", i)] = actor.GroupBit(i)
	}
	return w
}

// Initialize must be called once before the first Step.
func (w *World) Initialize(gravity mgl64.Vec2, enabled bool) {
	w.gravity = gravity
	w.gravityEnabled = enabled
	w.initialized = true
}

func (w *World) SetGravity(gravity mgl64.Vec2) {
	w.gravity = gravity
}

func (w *World) Gravity() mgl64.Vec2 {
	return w.gravity
}

func (w *World) SetGravityEnabled(enabled bool) {
	w.gravityEnabled = enabled
}

func (w *World) Settings() Settings {
	return w.settings
}

// AddGeom stages a geom for the next step. Its body, if any and not in the
// world yet, is added with it.
func (w *World) AddGeom(geom *actor.Geom) {
	w.staged = append(w.staged, stagedOp{add: true, geom: geom})
}

// RemoveGeom stages the removal of a geom. Its contacts are dropped and
// their separation reported.
func (w *World) RemoveGeom(geom *actor.Geom) {
	w.staged = append(w.staged, stagedOp{geom: geom})
}

func (w *World) AddBody(body *actor.RigidBody) {
	w.staged = append(w.staged, stagedOp{add: true, body: body})
}

// RemoveBody stages the removal of a body. Geoms attached to it stay in the
// world as static geoms.
func (w *World) RemoveBody(body *actor.RigidBody) {
	w.staged = append(w.staged, stagedOp{body: body})
}

// RegisterGroup names a collision group mask. GROUP1 to GROUP16, ALL and
// NONE are predefined.
func (w *World) RegisterGroup(name string, group actor.CollisionGroup) {
	w.groups[name] = group
}

// Group returns the mask registered under name, or GroupNone.
func (w *World) Group(name string) actor.CollisionGroup {
	group, ok := w.groups[name]
	if !ok {
		w.logger.Warn("unknown collision group", zap.String("group", name))
		return actor.GroupNone
	}
	return group
}

// Geoms returns the geoms in the world, in insertion order.
func (w *World) Geoms() []*actor.Geom {
	return slices.Clone(w.geomList)
}

func (w *World) Geom(id uint64) (*actor.Geom, bool) {
	g, ok := w.geoms[broadphase.ProxyID(id)]
	return g, ok
}

func (w *World) Bodies() []*actor.RigidBody {
	return slices.Clone(w.bodies)
}

// Contacts returns the contacts of the last step, in pair order.
func (w *World) Contacts() []*constraint.Contact {
	return slices.Clone(w.contactList)
}

func (w *World) ContactCount() int {
	return len(w.contacts)
}

func (w *World) StepCount() uint64 {
	return w.stepCount
}

// Time returns the simulated time.
func (w *World) Time() float64 {
	return w.time
}

// Step advances the simulation by dt.
func (w *World) Step(dt float64) {
	if !w.initialized {
		panic("planar: Step called before Initialize")
	}

	// Phase 1: staged additions and removals
	w.commit()

	// Phase 2: broadphase pairs, narrowphase and contacts
	w.detectCollisions()

	// Phase 3: forces and velocities
	w.applyGravity()
	for _, body := range w.bodies {
		body.Update(dt)
	}

	// Phase 4: contact solver
	w.solver.Solve(w.contactList, dt)

	// Phase 5: positions, then geoms follow their body
	for _, body := range w.bodies {
		body.Integrate(dt)
	}
	for _, geom := range w.geomList {
		geom.SyncFromBody()
	}

	w.stepCount++
	w.time += dt

	w.Events.processSleepEvents(w.bodies)
	w.Events.flush()
}

func (w *World) commit() {
	staged := w.staged
	w.staged = nil

	for _, op := range staged {
		switch {
		case op.geom != nil && op.add:
			w.addGeom(op.geom)
		case op.geom != nil:
			w.removeGeom(op.geom)
		case op.body != nil && op.add:
			if _, ok := w.bodySet[op.body]; ok {
				panic("planar: body already in world")
			}
			w.addBody(op.body)
		case op.body != nil:
			w.removeBody(op.body)
		}
	}
}

func (w *World) addGeom(geom *actor.Geom) {
	if _, ok := w.geoms[geom.ProxyID()]; ok {
		panic(fmt.Sprintf("planar: geom %d already in world", geom.ID()))
	}

	if body := geom.Body(); body != nil {
		if _, ok := w.bodySet[body]; !ok {
			w.addBody(body)
		}
		if body.BodyType() == actor.BodyTypeDynamic && !body.HasMassData() {
			body.SetMassData(geom.LocalPolygon().MassData(geom.EffectiveMaterial().Density))
		}
		geom.SyncFromBody()
	}

	if err := w.broadphase.Add(geom.ProxyID(), geom.AABB()); err != nil {
		w.logger.Error("geom rejected", zap.Uint64("geom", geom.ID()), zap.Error(err))
		return
	}
	geom.SetTracker(w.broadphase)
	w.geoms[geom.ProxyID()] = geom
	w.geomList = append(w.geomList, geom)
}

func (w *World) removeGeom(geom *actor.Geom) {
	if _, ok := w.geoms[geom.ProxyID()]; !ok {
		w.logger.Warn("removal of a geom not in world", zap.Uint64("geom", geom.ID()))
		return
	}

	w.broadphase.Remove(geom.ProxyID())
	geom.SetTracker(nil)
	delete(w.geoms, geom.ProxyID())
	w.geomList = slices.DeleteFunc(w.geomList, func(g *actor.Geom) bool { return g == geom })

	stale := make([]broadphase.Pair, 0)
	for pair := range w.contacts {
		if pair.Contains(geom.ProxyID()) {
			stale = append(stale, pair)
		}
	}
	slices.SortFunc(stale, broadphase.Pair.Compare)
	for _, pair := range stale {
		w.separate(pair)
	}
	w.contactList = slices.DeleteFunc(w.contactList, func(c *constraint.Contact) bool {
		return c.GeomA == geom || c.GeomB == geom
	})
}

func (w *World) addBody(body *actor.RigidBody) {
	if !body.HasSleepThreshold() {
		body.SetSleepThreshold(w.settings.SleepThreshold)
	}
	if !body.HasLinearDamping() {
		body.SetLinearDamping(w.settings.LinearDamping)
	}
	if !body.HasAngularDamping() {
		body.SetAngularDamping(w.settings.AngularDamping)
	}
	w.bodySet[body] = struct{}{}
	w.bodies = append(w.bodies, body)
}

func (w *World) removeBody(body *actor.RigidBody) {
	if _, ok := w.bodySet[body]; !ok {
		w.logger.Warn("removal of a body not in world", zap.Any("body", body.Tag))
		return
	}

	delete(w.bodySet, body)
	w.bodies = slices.DeleteFunc(w.bodies, func(b *actor.RigidBody) bool { return b == body })
	for _, geom := range w.geomList {
		if geom.Body() == body {
			geom.SetBody(nil)
		}
	}
	w.Events.forgetBody(body)
}

// detectCollisions walks the broadphase pairs in canonical order, runs the
// narrowphase on the ones allowed to collide, and keeps one contact per
// touching pair.
func (w *World) detectCollisions() {
	pairs := slices.SortedFunc(maps.Keys(w.broadphase.Pairs()), broadphase.Pair.Compare)

	clear(w.touching)
	clear(w.contactList)
	w.contactList = w.contactList[:0]

	for _, pair := range pairs {
		geomA, geomB := w.geoms[pair.A], w.geoms[pair.B]
		if geomA == nil || geomB == nil {
			continue
		}
		if !actor.CanCollide(geomA, geomB) || !geomA.AABB().Intersects(geomB.AABB()) {
			continue
		}

		manifold, ok, err := collide(geomA.WorldPolygon(), geomB.WorldPolygon())
		if err != nil {
			w.logger.Debug("degenerate penetration",
				zap.Uint64("geomA", geomA.ID()), zap.Uint64("geomB", geomB.ID()), zap.Error(err))
		}
		if !ok {
			continue
		}

		// Both handlers run, either one may veto the response.
		respond := true
		if geomA.Handler != nil && !geomA.Handler.OnCollision(geomA, geomB, &manifold) {
			respond = false
		}
		if geomB.Handler != nil {
			other := flipped(manifold)
			if !geomB.Handler.OnCollision(geomB, geomA, &other) {
				respond = false
			}
		}

		contact, exists := w.contacts[pair]
		if exists {
			contact.Update(manifold)
		} else {
			contact = constraint.NewContact(geomA, geomB, manifold, w.settings.Settings)
			w.contacts[pair] = contact
		}
		if !respond {
			contact.Disable()
		}

		w.touching[pair] = struct{}{}
		w.contactList = append(w.contactList, contact)
		w.Events.recordCollision(geomA, geomB, manifold)
	}

	stale := make([]broadphase.Pair, 0)
	for pair := range w.contacts {
		if _, ok := w.touching[pair]; !ok {
			stale = append(stale, pair)
		}
	}
	slices.SortFunc(stale, broadphase.Pair.Compare)
	for _, pair := range stale {
		w.separate(pair)
	}
}

// separate drops the contact of a pair and notifies both handlers.
func (w *World) separate(pair broadphase.Pair) {
	contact, ok := w.contacts[pair]
	if !ok {
		return
	}
	delete(w.contacts, pair)

	if h := contact.GeomA.Handler; h != nil {
		h.OnSeparation(contact.GeomA, contact.GeomB)
	}
	if h := contact.GeomB.Handler; h != nil {
		h.OnSeparation(contact.GeomB, contact.GeomA)
	}
}

func (w *World) applyGravity() {
	if !w.gravityEnabled {
		return
	}
	for _, body := range w.bodies {
		if body.BodyType() != actor.BodyTypeDynamic || !body.IsAwake() || body.IgnoreGravity {
			continue
		}
		body.AddForce(w.gravity.Mul(body.Mass()))
	}
}
