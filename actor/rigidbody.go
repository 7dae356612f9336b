package actor

import (
	"math"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeKinematic bodies move with their own velocity and acceleration
	// They ignore forces and behave as infinite mass in collisions
	BodyTypeKinematic

	// BodyTypeFixed bodies never move (e.g., ground, walls)
	BodyTypeFixed
)

func (t BodyType) String() string {
	switch t {
	case BodyTypeDynamic:
		return "dynamic"
	case BodyTypeKinematic:
		return "kinematic"
	case BodyTypeFixed:
		return "fixed"
	}
	return "unknown"
}

const (
	// DefaultSleepThreshold is the smoothed squared speed below which a body
	// falls asleep, when no other threshold has been set.
	DefaultSleepThreshold = 0.01

	// motionClampFactor caps the motion accumulator, so a body that moved fast
	// once does not take forever to fall asleep.
	motionClampFactor = 10.0
)

// RigidBody represents a rigid body in the physics simulation.
//
// Kinematic quantities are only changed through methods, and every such
// change wakes the body up.
type RigidBody struct {
	transform Transform

	velocity            mgl64.Vec2
	angularVelocity     float64
	acceleration        mgl64.Vec2
	angularAcceleration float64

	accumulatedForce  mgl64.Vec2
	accumulatedTorque float64

	mass           float64
	inverseMass    float64
	inertia        float64
	inverseInertia float64

	// Mass data kept while the body is not dynamic, restored by SetBodyType.
	dynamicMass    float64
	dynamicInertia float64
	massSet        bool

	bodyType BodyType

	awake          bool
	motion         float64
	sleepThreshold float64

	// Damping is the fraction of velocity kept per second:
	// velocity *= damping^dt. 1 disables damping.
	linearDamping     float64
	angularDamping    float64
	linearDampingSet  bool
	angularDampingSet bool

	// IgnoreGravity excludes the body from world gravity.
	IgnoreGravity bool
	// CanSleep allows the body to fall asleep.
	CanSleep bool

	Tag any
}

// NewRigidBody creates an awake body with no mass data. Dynamic bodies get
// mass from SetMassData, or from their geom's shape when added to a world.
func NewRigidBody(bodyType BodyType, transform Transform) *RigidBody {
	rb := &RigidBody{
		transform:      transform,
		bodyType:       bodyType,
		linearDamping:  1.0,
		angularDamping: 1.0,
		CanSleep:       true,
		awake:          true,
	}
	rb.motion = 2 * rb.SleepThreshold()
	if bodyType == BodyTypeDynamic {
		rb.setMass(1, 0)
	}
	return rb
}

func (rb *RigidBody) BodyType() BodyType {
	return rb.bodyType
}

func (rb *RigidBody) Transform() Transform {
	return rb.transform
}

func (rb *RigidBody) Position() mgl64.Vec2 {
	return rb.transform.Position
}

func (rb *RigidBody) Rotation() float64 {
	return rb.transform.Rotation
}

func (rb *RigidBody) Velocity() mgl64.Vec2 {
	return rb.velocity
}

func (rb *RigidBody) AngularVelocity() float64 {
	return rb.angularVelocity
}

func (rb *RigidBody) Acceleration() mgl64.Vec2 {
	return rb.acceleration
}

func (rb *RigidBody) Force() mgl64.Vec2 {
	return rb.accumulatedForce
}

func (rb *RigidBody) Torque() float64 {
	return rb.accumulatedTorque
}

func (rb *RigidBody) Mass() float64 {
	return rb.mass
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

func (rb *RigidBody) Inertia() float64 {
	return rb.inertia
}

func (rb *RigidBody) InverseInertia() float64 {
	return rb.inverseInertia
}

// HasMassData reports whether SetMassData was called.
func (rb *RigidBody) HasMassData() bool {
	return rb.massSet
}

func (rb *RigidBody) IsAwake() bool {
	return rb.awake
}

// Motion returns the smoothed squared speed used for sleeping.
func (rb *RigidBody) Motion() float64 {
	return rb.motion
}

func (rb *RigidBody) SleepThreshold() float64 {
	if rb.sleepThreshold <= 0 {
		return DefaultSleepThreshold
	}
	return rb.sleepThreshold
}

// HasSleepThreshold reports whether a threshold was set explicitly.
func (rb *RigidBody) HasSleepThreshold() bool {
	return rb.sleepThreshold > 0
}

func (rb *RigidBody) SetSleepThreshold(threshold float64) {
	rb.sleepThreshold = threshold
	if rb.awake {
		rb.motion = 2 * rb.SleepThreshold()
	}
}

func (rb *RigidBody) LinearDamping() float64 {
	return rb.linearDamping
}

func (rb *RigidBody) AngularDamping() float64 {
	return rb.angularDamping
}

// HasLinearDamping reports whether linear damping was set explicitly, 1
// included.
func (rb *RigidBody) HasLinearDamping() bool {
	return rb.linearDampingSet
}

func (rb *RigidBody) HasAngularDamping() bool {
	return rb.angularDampingSet
}

// SetLinearDamping sets the fraction of linear velocity kept per second,
// clamped to [0, 1].
func (rb *RigidBody) SetLinearDamping(damping float64) {
	rb.linearDamping = mgl64.Clamp(damping, 0, 1)
	rb.linearDampingSet = true
}

func (rb *RigidBody) SetAngularDamping(damping float64) {
	rb.angularDamping = mgl64.Clamp(damping, 0, 1)
	rb.angularDampingSet = true
}

// SetMassData sets the dynamic mass and rotational inertia. A non-positive
// mass falls back to 1; a non-positive inertia locks rotation.
func (rb *RigidBody) SetMassData(mass, inertia float64) {
	if mass <= 0 {
		mass = 1
	}
	if inertia < 0 {
		inertia = 0
	}
	rb.dynamicMass = mass
	rb.dynamicInertia = inertia
	rb.massSet = true

	if rb.bodyType == BodyTypeDynamic {
		rb.setMass(mass, inertia)
	}
}

func (rb *RigidBody) setMass(mass, inertia float64) {
	rb.mass = mass
	rb.inverseMass = 0
	if mass > 0 {
		rb.inverseMass = 1.0 / mass
	}
	rb.inertia = inertia
	rb.inverseInertia = 0
	if inertia > 0 {
		rb.inverseInertia = 1.0 / inertia
	}
}

// SetBodyType switches the motion kind. Velocities, accelerations and
// accumulated force/torque are reset. Fixed and kinematic bodies have zero
// mass and inertia; dynamic bodies get back their last mass data.
func (rb *RigidBody) SetBodyType(bodyType BodyType) {
	rb.bodyType = bodyType

	rb.velocity = mgl64.Vec2{}
	rb.angularVelocity = 0
	rb.acceleration = mgl64.Vec2{}
	rb.angularAcceleration = 0
	rb.ClearForces()

	if bodyType == BodyTypeDynamic {
		mass, inertia := rb.dynamicMass, rb.dynamicInertia
		if !rb.massSet {
			mass, inertia = 1, 0
		}
		rb.setMass(mass, inertia)
	} else {
		rb.setMass(0, 0)
	}

	rb.WakeUp()
}

// SetPosition teleports the body.
func (rb *RigidBody) SetPosition(position mgl64.Vec2) {
	rb.transform.Position = position
	rb.WakeUp()
}

func (rb *RigidBody) SetRotation(rotation float64) {
	rb.transform.Rotation = rotation
	rb.WakeUp()
}

func (rb *RigidBody) SetVelocity(velocity mgl64.Vec2) {
	rb.velocity = velocity
	rb.WakeUp()
}

func (rb *RigidBody) SetAngularVelocity(angularVelocity float64) {
	rb.angularVelocity = angularVelocity
	rb.WakeUp()
}

// SetAcceleration sets a constant acceleration, added on top of the force
// term for dynamic bodies.
func (rb *RigidBody) SetAcceleration(acceleration mgl64.Vec2) {
	rb.acceleration = acceleration
	rb.WakeUp()
}

func (rb *RigidBody) SetAngularAcceleration(angularAcceleration float64) {
	rb.angularAcceleration = angularAcceleration
	rb.WakeUp()
}

// AddForce accumulates a force applied at the center of mass.
func (rb *RigidBody) AddForce(force mgl64.Vec2) {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.WakeUp()
}

// AddForceAtPoint accumulates a force applied at a world point, which also
// produces a torque.
func (rb *RigidBody) AddForceAtPoint(force, point mgl64.Vec2) {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	r := point.Sub(rb.transform.Position)
	rb.accumulatedForce = rb.accumulatedForce.Add(force)
	rb.accumulatedTorque += geometry.Cross(r, force)
	rb.WakeUp()
}

func (rb *RigidBody) AddTorque(torque float64) {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	rb.accumulatedTorque += torque
	rb.WakeUp()
}

// ApplyImpulse changes the linear velocity instantly.
func (rb *RigidBody) ApplyImpulse(impulse mgl64.Vec2) {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	rb.velocity = rb.velocity.Add(impulse.Mul(rb.inverseMass))
	rb.WakeUp()
}

// ApplyImpulseAtPoint applies an impulse at a world point, changing both the
// linear and the angular velocity.
func (rb *RigidBody) ApplyImpulseAtPoint(impulse, point mgl64.Vec2) {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	r := point.Sub(rb.transform.Position)
	rb.velocity = rb.velocity.Add(impulse.Mul(rb.inverseMass))
	rb.angularVelocity += rb.inverseInertia * geometry.Cross(r, impulse)
	rb.WakeUp()
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec2{}
	rb.accumulatedTorque = 0
}

// WakeUp marks the body awake. A body that was asleep restarts its motion
// accumulator above the threshold so it does not fall straight back asleep.
func (rb *RigidBody) WakeUp() {
	if rb.awake {
		return
	}
	rb.awake = true
	rb.motion = 2 * rb.SleepThreshold()
}

// Sleep puts a dynamic body to sleep: velocities and forces are cleared.
func (rb *RigidBody) Sleep() {
	if rb.bodyType != BodyTypeDynamic {
		return
	}
	rb.awake = false
	rb.motion = 0
	rb.velocity = mgl64.Vec2{}
	rb.angularVelocity = 0
	rb.ClearForces()
}

// Update integrates velocities. Kinematic bodies also move here, since
// nothing in the solver can change their course.
func (rb *RigidBody) Update(dt float64) {
	switch rb.bodyType {
	case BodyTypeFixed:
		return

	case BodyTypeKinematic:
		rb.velocity = rb.velocity.Add(rb.acceleration.Mul(dt))
		rb.angularVelocity += rb.angularAcceleration * dt
		rb.transform.Position = rb.transform.Position.Add(rb.velocity.Mul(dt))
		rb.transform.Rotation += rb.angularVelocity * dt

	case BodyTypeDynamic:
		if !rb.awake {
			return
		}
		linear := rb.acceleration.Add(rb.accumulatedForce.Mul(rb.inverseMass))
		rb.velocity = rb.velocity.Add(linear.Mul(dt))

		angular := rb.angularAcceleration + rb.accumulatedTorque*rb.inverseInertia
		rb.angularVelocity += angular * dt

		rb.ClearForces()
	}
}

// Integrate moves an awake dynamic body from its velocity, then updates the
// sleep accumulator.
func (rb *RigidBody) Integrate(dt float64) {
	if rb.bodyType != BodyTypeDynamic || !rb.awake {
		return
	}

	// ========== DAMPING ==========
	if rb.linearDamping != 1 {
		rb.velocity = rb.velocity.Mul(math.Pow(rb.linearDamping, dt))
	}
	if rb.angularDamping != 1 {
		rb.angularVelocity *= math.Pow(rb.angularDamping, dt)
	}

	// ========== POSITION ==========
	rb.transform.Position = rb.transform.Position.Add(rb.velocity.Mul(dt))
	rb.transform.Rotation += rb.angularVelocity * dt

	// ========== SLEEP ==========
	if !rb.CanSleep {
		return
	}
	threshold := rb.SleepThreshold()
	current := rb.velocity.LenSqr() + rb.angularVelocity*rb.angularVelocity
	bias := math.Pow(0.5, dt)
	rb.motion = bias*rb.motion + (1-bias)*current

	if rb.motion < threshold {
		rb.Sleep()
	} else if rb.motion > motionClampFactor*threshold {
		rb.motion = motionClampFactor * threshold
	}
}

// PointVelocity returns the velocity of a world point attached to the body.
func (rb *RigidBody) PointVelocity(point mgl64.Vec2) mgl64.Vec2 {
	r := point.Sub(rb.transform.Position)
	return rb.velocity.Add(geometry.CrossSV(rb.angularVelocity, r))
}
