package constraint

import (
	"math"

	"github.com/akmonengine/planar/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Constraint is anything the sequential impulse solver can iterate on.
type Constraint interface {
	PreStep(dt float64)
	Solve()
}

// Settings tunes the contact solver.
type Settings struct {
	// Iterations is the number of velocity passes per step.
	Iterations int
	// Baumgarte is the fraction of the penetration removed per step.
	Baumgarte float64
	// Slop is the penetration left uncorrected, so resting contacts stay in
	// touch from one step to the next. The world reads a negative Slop as
	// none.
	Slop float64
	// RestitutionThreshold is the approach speed under which contacts do not
	// bounce.
	RestitutionThreshold float64
	// MatchTolerance is the distance under which a new contact point inherits
	// the accumulated impulses of an old one.
	MatchTolerance float64
}

func DefaultSettings() Settings {
	return Settings{
		Iterations:           10,
		Baumgarte:            0.2,
		Slop:                 0.01,
		RestitutionThreshold: 0.5,
		MatchTolerance:       0.05,
	}
}

// CombineRestitution averages the restitution of two materials.
func CombineRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

// CombineFriction returns the geometric mean of two friction coefficients.
func CombineFriction(matA, matB actor.Material) float64 {
	return math.Sqrt(matA.Friction * matB.Friction)
}

// active reports whether impulses may change the body velocity.
func active(rb *actor.RigidBody) bool {
	return rb != nil && rb.BodyType() == actor.BodyTypeDynamic && rb.IsAwake()
}

func inverseMass(rb *actor.RigidBody) float64 {
	if !active(rb) {
		return 0
	}
	return rb.InverseMass()
}

func inverseInertia(rb *actor.RigidBody) float64 {
	if !active(rb) {
		return 0
	}
	return rb.InverseInertia()
}

func pointVelocity(rb *actor.RigidBody, point mgl64.Vec2) mgl64.Vec2 {
	if rb == nil || rb.BodyType() == actor.BodyTypeFixed {
		return mgl64.Vec2{}
	}
	return rb.PointVelocity(point)
}

func applyImpulse(rb *actor.RigidBody, impulse, point mgl64.Vec2) {
	if !active(rb) {
		return
	}
	rb.ApplyImpulseAtPoint(impulse, point)
}
