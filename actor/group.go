package actor

import (
	"math"
	"math/bits"
)

// CollisionGroup is a bitmask of collision layers. A geom declares the groups
// it belongs to and the groups it collides with.
type CollisionGroup uint32

const (
	Group1 CollisionGroup = 1 << iota
	Group2
	Group3
	Group4
	Group5
	Group6
	Group7
	Group8
	Group9
	Group10
	Group11
	Group12
	Group13
	Group14
	Group15
	Group16
)

const (
	GroupNone CollisionGroup = 0
	GroupAll  CollisionGroup = math.MaxUint32
)

// GroupBit returns the group for bit position n, counted from 1.
// Positions outside 1..16 give GroupNone.
func GroupBit(n int) CollisionGroup {
	if n < 1 || n > 16 {
		return GroupNone
	}
	return CollisionGroup(1) << (n - 1)
}

func (g CollisionGroup) Has(other CollisionGroup) bool {
	return g&other != GroupNone
}

// Count returns the number of groups set in the mask.
func (g CollisionGroup) Count() int {
	return bits.OnesCount32(uint32(g))
}
