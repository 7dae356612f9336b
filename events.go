package planar

import (
	"maps"
	"slices"

	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/broadphase"
	"github.com/akmonengine/planar/geometry"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Trigger events
type TriggerEnterEvent struct {
	GeomA *actor.Geom
	GeomB *actor.Geom
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	GeomA *actor.Geom
	GeomB *actor.Geom
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	GeomA *actor.Geom
	GeomB *actor.Geom
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events. The manifold normal points from GeomA to GeomB.
type CollisionEnterEvent struct {
	GeomA    *actor.Geom
	GeomB    *actor.Geom
	Manifold geometry.Manifold
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	GeomA    *actor.Geom
	GeomB    *actor.Geom
	Manifold geometry.Manifold
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	GeomA *actor.Geom
	GeomB *actor.Geom
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// Sleep/Wake events
type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

type activePair struct {
	geomA    *actor.Geom
	geomB    *actor.Geom
	manifold geometry.Manifold
}

func (p activePair) isTrigger() bool {
	return p.geomA.IsTrigger() || p.geomB.IsTrigger()
}

// resting reports whether nothing can move the pair: each side is static or
// asleep.
func (p activePair) resting() bool {
	return geomResting(p.geomA) && geomResting(p.geomB)
}

func geomResting(g *actor.Geom) bool {
	body := g.Body()
	if body == nil {
		return true
	}
	switch body.BodyType() {
	case actor.BodyTypeFixed:
		return true
	case actor.BodyTypeDynamic:
		return !body.IsAwake()
	}
	return false
}

// Events buffers what happened during a step and dispatches it to the
// listeners once the step is complete.
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Collision tracking for Enter/Stay/Exit detection
	previousActivePairs map[broadphase.Pair]activePair
	currentActivePairs  map[broadphase.Pair]activePair

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[broadphase.Pair]activePair),
		currentActivePairs:  make(map[broadphase.Pair]activePair),
		sleepStates:         make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordCollision marks a pair as touching during the current step.
func (e *Events) recordCollision(geomA, geomB *actor.Geom, manifold geometry.Manifold) {
	pair := broadphase.MakePair(geomA.ProxyID(), geomB.ProxyID())
	if pair.A != geomA.ProxyID() {
		geomA, geomB = geomB, geomA
		manifold = flipped(manifold)
	}
	e.currentActivePairs[pair] = activePair{geomA: geomA, geomB: geomB, manifold: manifold}
}

// forgetBody drops the sleep tracking of a body leaving the world.
func (e *Events) forgetBody(body *actor.RigidBody) {
	delete(e.sleepStates, body)
}

// processCollisionEvents compares current and previous pairs to detect Enter/Stay/Exit
func (e *Events) processCollisionEvents() {
	for _, key := range slices.SortedFunc(maps.Keys(e.currentActivePairs), broadphase.Pair.Compare) {
		pair := e.currentActivePairs[key]

		if _, ok := e.previousActivePairs[key]; ok {
			// Skip if nothing can move, to avoid spamming events
			if pair.resting() {
				continue
			}
			if pair.isTrigger() {
				e.buffer = append(e.buffer, TriggerStayEvent{GeomA: pair.geomA, GeomB: pair.geomB})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{GeomA: pair.geomA, GeomB: pair.geomB, Manifold: pair.manifold})
			}
			continue
		}

		if pair.isTrigger() {
			e.buffer = append(e.buffer, TriggerEnterEvent{GeomA: pair.geomA, GeomB: pair.geomB})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{GeomA: pair.geomA, GeomB: pair.geomB, Manifold: pair.manifold})
		}
	}

	for _, key := range slices.SortedFunc(maps.Keys(e.previousActivePairs), broadphase.Pair.Compare) {
		if _, ok := e.currentActivePairs[key]; ok {
			continue
		}
		pair := e.previousActivePairs[key]
		if pair.isTrigger() {
			e.buffer = append(e.buffer, TriggerExitEvent{GeomA: pair.geomA, GeomB: pair.geomB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{GeomA: pair.geomA, GeomB: pair.geomB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		if body.BodyType() != actor.BodyTypeDynamic {
			continue
		}
		sleeping := !body.IsAwake()
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = sleeping
			continue
		}

		if !trackedState && sleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !sleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	clear(e.buffer)
	e.buffer = e.buffer[:0]
}
