package constraint

import (
	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// Point is one contact point with its accumulated impulses.
type Point struct {
	Position    mgl64.Vec2
	Penetration float64

	NormalImpulse  float64
	TangentImpulse float64

	rA, rB      mgl64.Vec2
	normalMass  float64
	tangentMass float64
	bias        float64
}

var _ Constraint = (*Contact)(nil)

// Contact is the persistent contact between two geoms. It lives as long as
// the geoms keep touching, so accumulated impulses warm start the next step.
type Contact struct {
	GeomA *actor.Geom
	GeomB *actor.Geom

	// Normal points from A to B.
	Normal mgl64.Vec2
	Depth  float64
	Points []Point

	Friction    float64
	Restitution float64

	enabled  bool
	settings Settings
}

// NewContact creates the contact for a fresh manifold.
func NewContact(geomA, geomB *actor.Geom, manifold geometry.Manifold, settings Settings) *Contact {
	matA, matB := geomA.EffectiveMaterial(), geomB.EffectiveMaterial()
	c := &Contact{
		GeomA:       geomA,
		GeomB:       geomB,
		Friction:    CombineFriction(matA, matB),
		Restitution: CombineRestitution(matA, matB),
		settings:    settings,
	}
	c.Update(manifold)
	return c
}

// Update replaces the geometry of the contact. A new point close enough to an
// old one keeps its accumulated impulses.
func (c *Contact) Update(manifold geometry.Manifold) {
	old := c.Points
	points := make([]Point, len(manifold.Points))
	tolerance := c.settings.MatchTolerance * c.settings.MatchTolerance

	for i, cp := range manifold.Points {
		points[i] = Point{Position: cp.Position, Penetration: cp.Penetration}

		best := -1
		bestDistance := tolerance
		for j := range old {
			d := old[j].Position.Sub(cp.Position).LenSqr()
			if d <= bestDistance {
				best, bestDistance = j, d
			}
		}
		if best >= 0 {
			points[i].NormalImpulse = old[best].NormalImpulse
			points[i].TangentImpulse = old[best].TangentImpulse
		}
	}

	c.Normal = manifold.Normal
	c.Depth = manifold.Depth
	c.Points = points
	c.enabled = c.responsive()
}

// responsive reports whether the pair gets a collision response at all:
// at least one dynamic side and no trigger.
func (c *Contact) responsive() bool {
	if !c.GeomA.ResponseEnabled || !c.GeomB.ResponseEnabled {
		return false
	}
	return c.GeomA.IsDynamic() || c.GeomB.IsDynamic()
}

func (c *Contact) Enabled() bool {
	return c.enabled
}

// Disable turns the response off until the next Update.
func (c *Contact) Disable() {
	c.enabled = false
}

func (c *Contact) BodyA() *actor.RigidBody {
	return c.GeomA.Body()
}

func (c *Contact) BodyB() *actor.RigidBody {
	return c.GeomB.Body()
}

// Manifold rebuilds the collision manifold the contact was last updated with.
func (c *Contact) Manifold() geometry.Manifold {
	points := make([]geometry.ContactPoint, len(c.Points))
	for i, p := range c.Points {
		points[i] = geometry.ContactPoint{Position: p.Position, Penetration: p.Penetration}
	}
	return geometry.Manifold{Normal: c.Normal, Depth: c.Depth, Points: points}
}

func center(g *actor.Geom) mgl64.Vec2 {
	if rb := g.Body(); rb != nil {
		return rb.Position()
	}
	return g.Position()
}

func (c *Contact) relativeVelocity(p *Point) mgl64.Vec2 {
	bodyA, bodyB := c.BodyA(), c.BodyB()
	vA := pointVelocity(bodyA, p.Position)
	vB := pointVelocity(bodyB, p.Position)
	return vB.Sub(vA)
}

func (c *Contact) apply(p *Point, impulse mgl64.Vec2) {
	applyImpulse(c.BodyA(), impulse.Mul(-1), p.Position)
	applyImpulse(c.BodyB(), impulse, p.Position)
}

// wake wakes a sleeping dynamic body touched by a moving one.
func (c *Contact) wake() {
	bodyA, bodyB := c.BodyA(), c.BodyB()
	if bodyA == nil || bodyB == nil {
		return
	}
	if moving(bodyA) && sleeping(bodyB) {
		bodyB.WakeUp()
	}
	if moving(bodyB) && sleeping(bodyA) {
		bodyA.WakeUp()
	}
}

func moving(rb *actor.RigidBody) bool {
	switch rb.BodyType() {
	case actor.BodyTypeDynamic:
		return rb.IsAwake()
	case actor.BodyTypeKinematic:
		return true
	}
	return false
}

func sleeping(rb *actor.RigidBody) bool {
	return rb.BodyType() == actor.BodyTypeDynamic && !rb.IsAwake()
}

// PreStep computes the effective masses and velocity biases of every point,
// then applies the impulses accumulated during the previous step.
func (c *Contact) PreStep(dt float64) {
	if !c.enabled || len(c.Points) == 0 || dt <= 0 {
		return
	}
	c.wake()

	bodyA, bodyB := c.BodyA(), c.BodyB()
	invMassA, invMassB := inverseMass(bodyA), inverseMass(bodyB)
	invInertiaA, invInertiaB := inverseInertia(bodyA), inverseInertia(bodyB)
	centerA, centerB := center(c.GeomA), center(c.GeomB)
	tangent := geometry.CrossVS(c.Normal, 1)

	for i := range c.Points {
		p := &c.Points[i]
		p.rA = p.Position.Sub(centerA)
		p.rB = p.Position.Sub(centerB)

		// ========== EFFECTIVE MASS ==========
		rnA := geometry.Cross(p.rA, c.Normal)
		rnB := geometry.Cross(p.rB, c.Normal)
		kNormal := invMassA + invMassB + invInertiaA*rnA*rnA + invInertiaB*rnB*rnB
		p.normalMass = 0
		if kNormal > geometry.Epsilon {
			p.normalMass = 1.0 / kNormal
		}

		rtA := geometry.Cross(p.rA, tangent)
		rtB := geometry.Cross(p.rB, tangent)
		kTangent := invMassA + invMassB + invInertiaA*rtA*rtA + invInertiaB*rtB*rtB
		p.tangentMass = 0
		if kTangent > geometry.Epsilon {
			p.tangentMass = 1.0 / kTangent
		}

		// ========== BIAS ==========
		// Position correction and bounce both ask for a separating speed;
		// the larger one wins.
		p.bias = c.settings.Baumgarte / dt * max(0, p.Penetration-c.settings.Slop)
		vn := c.relativeVelocity(p).Dot(c.Normal)
		if vn < -c.settings.RestitutionThreshold {
			p.bias = max(p.bias, -c.Restitution*vn)
		}

		// ========== WARM START ==========
		impulse := c.Normal.Mul(p.NormalImpulse).Add(tangent.Mul(p.TangentImpulse))
		c.apply(p, impulse)
	}
}

// Solve runs one velocity iteration: a normal impulse keeping the
// accumulated impulse non-negative, then a friction impulse bounded by the
// Coulomb cone.
func (c *Contact) Solve() {
	if !c.enabled {
		return
	}
	tangent := geometry.CrossVS(c.Normal, 1)

	for i := range c.Points {
		p := &c.Points[i]

		// ========== NORMAL ==========
		vn := c.relativeVelocity(p).Dot(c.Normal)
		delta := p.normalMass * (-vn + p.bias)

		previous := p.NormalImpulse
		p.NormalImpulse = max(previous+delta, 0)
		delta = p.NormalImpulse - previous
		c.apply(p, c.Normal.Mul(delta))

		// ========== FRICTION ==========
		vt := c.relativeVelocity(p).Dot(tangent)
		delta = p.tangentMass * -vt

		limit := c.Friction * p.NormalImpulse
		previous = p.TangentImpulse
		p.TangentImpulse = mgl64.Clamp(previous+delta, -limit, limit)
		delta = p.TangentImpulse - previous
		c.apply(p, tangent.Mul(delta))
	}
}
