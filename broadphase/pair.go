package broadphase

import "cmp"

// ProxyID identifies an object tracked by the broadphase. Geoms use their
// own id, so equality and hashing never look at the object itself.
type ProxyID uint64

// Pair is an unordered pair of proxies stored with A < B, so (a, b) and
// (b, a) are the same map key.
type Pair struct {
	A, B ProxyID
}

// MakePair builds the canonical pair for a and b.
func MakePair(a, b ProxyID) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// Contains reports whether id is one side of the pair.
func (p Pair) Contains(id ProxyID) bool {
	return p.A == id || p.B == id
}

// Other returns the side of the pair that is not id.
func (p Pair) Other(id ProxyID) ProxyID {
	if p.A == id {
		return p.B
	}
	return p.A
}

// Compare orders pairs by A then B.
func (p Pair) Compare(other Pair) int {
	if c := cmp.Compare(p.A, other.A); c != 0 {
		return c
	}
	return cmp.Compare(p.B, other.B)
}

// PairSet is the set of potentially colliding pairs.
type PairSet map[Pair]struct{}

func (s PairSet) Has(p Pair) bool {
	_, ok := s[p]
	return ok
}
