// Package broadphase keeps the set of object pairs whose bounding boxes
// overlap, using a persistent sweep-and-prune structure.
//
// Each axis holds a doubly linked list of box endpoints sorted by value.
// Lists are never rebuilt: adding a box inserts its endpoints, updating a
// box slides its endpoints to their new place and toggles pairs as
// endpoints of other boxes are crossed. With small per-step motion an
// update only touches the few endpoints actually crossed.
package broadphase

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const axes = 2

var ErrInvalidAABB = errors.New("broadphase: invalid aabb")

type endpoint struct {
	value float64
	isMin bool
	box   *box // nil for the list sentinels
	prev  *endpoint
	next  *endpoint
}

// less orders endpoints by value. At equal values a min endpoint sorts
// before a max endpoint, so touching boxes count as overlapping.
func less(a, b *endpoint) bool {
	return a.value < b.value || (a.value == b.value && a.isMin && !b.isMin)
}

type box struct {
	id   ProxyID
	aabb geometry.AABB
	min  [axes]*endpoint
	max  [axes]*endpoint
}

// SweepAndPrune is the persistent broadphase collider.
type SweepAndPrune struct {
	heads [axes]*endpoint
	tails [axes]*endpoint

	boxes map[ProxyID]*box
	pairs PairSet

	logger *zap.Logger
}

// New creates an empty broadphase. A nil logger disables diagnostics.
func New(logger *zap.Logger) *SweepAndPrune {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SweepAndPrune{
		boxes:  make(map[ProxyID]*box),
		pairs:  make(PairSet),
		logger: logger,
	}
	for axis := 0; axis < axes; axis++ {
		head := &endpoint{value: math.Inf(-1), isMin: true}
		tail := &endpoint{value: math.Inf(1)}
		head.next = tail
		tail.prev = head
		s.heads[axis] = head
		s.tails[axis] = tail
	}
	return s
}

// Len returns the number of tracked proxies.
func (s *SweepAndPrune) Len() int {
	return len(s.boxes)
}

func (s *SweepAndPrune) Contains(id ProxyID) bool {
	_, ok := s.boxes[id]
	return ok
}

// AABB returns the box last registered for id.
func (s *SweepAndPrune) AABB(id ProxyID) (geometry.AABB, bool) {
	b, ok := s.boxes[id]
	if !ok {
		return geometry.AABB{}, false
	}
	return b.aabb, true
}

// Pairs returns the live set of overlapping pairs. The set is owned by the
// broadphase and must not be modified.
func (s *SweepAndPrune) Pairs() PairSet {
	return s.pairs
}

func (s *SweepAndPrune) PairCount() int {
	return len(s.pairs)
}

// Add registers a new proxy. Boxes with negative extents are rejected.
// Adding an id twice is a programming error and panics.
func (s *SweepAndPrune) Add(id ProxyID, aabb geometry.AABB) error {
	if err := aabb.Validate(); err != nil {
		return fmt.Errorf("%w: proxy %d: %w", ErrInvalidAABB, id, err)
	}
	if _, ok := s.boxes[id]; ok {
		panic(fmt.Sprintf("broadphase: proxy %d already registered", id))
	}

	b := &box{id: id, aabb: aabb}
	min, max := aabb.Min(), aabb.Max()
	for axis := 0; axis < axes; axis++ {
		b.min[axis] = &endpoint{value: min[axis], isMin: true, box: b}
		b.max[axis] = &endpoint{value: max[axis], box: b}
		s.insert(axis, b.min[axis], s.heads[axis].next)
		s.insert(axis, b.max[axis], b.min[axis].next)
	}
	s.boxes[id] = b

	// Every box whose min endpoint precedes our max on the primary axis
	// overlaps on that axis; the full box test settles the other one.
	for ep := s.heads[0].next; ep != b.max[0]; ep = ep.next {
		if ep.isMin && ep.box != b && b.aabb.Intersects(ep.box.aabb) {
			s.pairs[MakePair(id, ep.box.id)] = struct{}{}
		}
	}
	return nil
}

// Update moves a proxy to a new box. Unknown ids and invalid boxes are
// logged and ignored.
func (s *SweepAndPrune) Update(id ProxyID, aabb geometry.AABB) bool {
	b, ok := s.boxes[id]
	if !ok {
		s.logger.Warn("broadphase: update of unknown proxy", zap.Uint64("proxy", uint64(id)))
		return false
	}
	if err := aabb.Validate(); err != nil {
		s.logger.Warn("broadphase: rejected aabb", zap.Uint64("proxy", uint64(id)), zap.Error(err))
		return false
	}

	b.aabb = aabb
	min, max := aabb.Min(), aabb.Max()
	for axis := 0; axis < axes; axis++ {
		b.min[axis].value = min[axis]
		b.max[axis].value = max[axis]

		// Growing moves go first so a min never overtakes its own max.
		s.slideLeft(b.min[axis])
		s.slideRight(b.max[axis])
		s.slideRight(b.min[axis])
		s.slideLeft(b.max[axis])
	}
	return true
}

// Remove unlinks a proxy and drops every pair referencing it.
func (s *SweepAndPrune) Remove(id ProxyID) bool {
	b, ok := s.boxes[id]
	if !ok {
		s.logger.Warn("broadphase: removal of unknown proxy", zap.Uint64("proxy", uint64(id)))
		return false
	}

	for axis := 0; axis < axes; axis++ {
		unlink(b.min[axis])
		unlink(b.max[axis])
	}
	delete(s.boxes, id)

	for pair := range s.pairs {
		if pair.Contains(id) {
			delete(s.pairs, pair)
		}
	}
	return true
}

// insert walks forward from start and links ep before the first endpoint
// that does not sort before it.
func (s *SweepAndPrune) insert(axis int, ep *endpoint, start *endpoint) {
	cur := start
	for cur != s.tails[axis] && less(cur, ep) {
		cur = cur.next
	}
	linkBefore(ep, cur)
}

// slideLeft moves ep towards the head while it sorts before its neighbour.
func (s *SweepAndPrune) slideLeft(ep *endpoint) {
	for prev := ep.prev; prev.box != nil && less(ep, prev); prev = ep.prev {
		if other := prev.box; other != ep.box {
			switch {
			case ep.isMin && !prev.isMin:
				// Our min is now at or before their max.
				if ep.box.aabb.Intersects(other.aabb) {
					s.pairs[MakePair(ep.box.id, other.id)] = struct{}{}
				}
			case !ep.isMin && prev.isMin:
				// Our max is now strictly before their min.
				delete(s.pairs, MakePair(ep.box.id, other.id))
			}
		}
		unlink(ep)
		linkBefore(ep, prev)
	}
}

// slideRight moves ep towards the tail while its neighbour sorts before it.
func (s *SweepAndPrune) slideRight(ep *endpoint) {
	for next := ep.next; next.box != nil && less(next, ep); next = ep.next {
		if other := next.box; other != ep.box {
			switch {
			case !ep.isMin && next.isMin:
				// Our max is now at or after their min.
				if ep.box.aabb.Intersects(other.aabb) {
					s.pairs[MakePair(ep.box.id, other.id)] = struct{}{}
				}
			case ep.isMin && !next.isMin:
				// Our min is now strictly after their max.
				delete(s.pairs, MakePair(ep.box.id, other.id))
			}
		}
		unlink(ep)
		linkBefore(ep, next.next)
	}
}

func unlink(ep *endpoint) {
	ep.prev.next = ep.next
	ep.next.prev = ep.prev
	ep.prev = nil
	ep.next = nil
}

func linkBefore(ep, at *endpoint) {
	ep.prev = at.prev
	ep.next = at
	at.prev.next = ep
	at.prev = ep
}

// QueryPoint returns every proxy whose box contains point. The primary axis
// walk stops at the first endpoint past point.
func (s *SweepAndPrune) QueryPoint(point mgl64.Vec2) []ProxyID {
	var result []ProxyID
	for ep := s.heads[0].next; ep.box != nil; ep = ep.next {
		if ep.value > point[0] {
			break
		}
		if ep.isMin && ep.box.aabb.Contains(point) {
			result = append(result, ep.box.id)
		}
	}
	return result
}

// QueryAABB returns every proxy whose box overlaps query.
func (s *SweepAndPrune) QueryAABB(query geometry.AABB) []ProxyID {
	var result []ProxyID
	limit := query.Max()[0]
	for ep := s.heads[0].next; ep.box != nil; ep = ep.next {
		if ep.value > limit {
			break
		}
		if ep.isMin && ep.box.aabb.Intersects(query) {
			result = append(result, ep.box.id)
		}
	}
	return result
}

// QueryRay returns every proxy whose box is hit by ray within maxDistance,
// counting boxes that contain the ray origin. Pass math.Inf(1) for an
// unbounded ray.
func (s *SweepAndPrune) QueryRay(ray geometry.Ray, maxDistance float64) []ProxyID {
	limit := ray.Origin[0]
	switch {
	case !math.IsInf(maxDistance, 1):
		limit = math.Max(limit, ray.At(maxDistance)[0])
	case ray.Direction[0] > 0:
		limit = math.Inf(1)
	}

	var result []ProxyID
	for ep := s.heads[0].next; ep.box != nil; ep = ep.next {
		if ep.value > limit {
			break
		}
		if !ep.isMin {
			continue
		}
		if t, ok := ray.IntersectAABB(ep.box.aabb, true); ok && t <= maxDistance {
			result = append(result, ep.box.id)
		}
	}
	return result
}
