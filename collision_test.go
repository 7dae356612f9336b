package planar

import (
	"math"
	"math/rand"
	"testing"

	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boxAt(position mgl64.Vec2, halfWidth, halfHeight, rotation float64) geometry.Polygon {
	return geometry.NewBox(halfWidth, halfHeight).Transform(geometry.Polygon{}, position, rotation)
}

func TestCollide(t *testing.T) {
	tests := []struct {
		name      string
		a, b      geometry.Polygon
		collides  bool
		normal    mgl64.Vec2
		depth     float64
		numPoints int
	}{
		{
			name:      "side by side overlap",
			a:         boxAt(mgl64.Vec2{0, 0}, 1, 1, 0),
			b:         boxAt(mgl64.Vec2{1.5, 0}, 1, 1, 0),
			collides:  true,
			normal:    mgl64.Vec2{1, 0},
			depth:     0.5,
			numPoints: 2,
		},
		{
			name:      "stacked",
			a:         boxAt(mgl64.Vec2{0, 0}, 1, 1, 0),
			b:         boxAt(mgl64.Vec2{0.2, 1.9}, 1, 1, 0),
			collides:  true,
			normal:    mgl64.Vec2{0, 1},
			depth:     0.1,
			numPoints: 2,
		},
		{
			name:     "separated",
			a:        boxAt(mgl64.Vec2{0, 0}, 1, 1, 0),
			b:        boxAt(mgl64.Vec2{3, 0}, 1, 1, 0),
			collides: false,
		},
		{
			name:     "touching",
			a:        boxAt(mgl64.Vec2{0, 0}, 1, 1, 0),
			b:        boxAt(mgl64.Vec2{2, 0}, 1, 1, 0),
			collides: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifold, ok := Collide(tt.a, tt.b)
			require.Equal(t, tt.collides, ok)
			assert.Equal(t, tt.collides, Intersects(tt.a, tt.b))
			if !ok {
				return
			}
			assert.InDelta(t, tt.normal.X(), manifold.Normal.X(), 1e-6)
			assert.InDelta(t, tt.normal.Y(), manifold.Normal.Y(), 1e-6)
			assert.InDelta(t, tt.depth, manifold.Depth, 1e-6)
			assert.Len(t, manifold.Points, tt.numPoints)
		})
	}
}

// Pushing one polygon out along the normal by the depth leaves them at
// most touching.
func TestCollide_DepthSeparates(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	checked := 0

	for i := 0; i < 500; i++ {
		a := boxAt(mgl64.Vec2{0, 0}, 0.5+rng.Float64(), 0.5+rng.Float64(), rng.Float64()*math.Pi)
		sides := 3 + rng.Intn(5)
		b := geometry.NewRegularPolygon(sides, 0.5+rng.Float64()).
			Transform(geometry.Polygon{}, mgl64.Vec2{rng.Float64()*3 - 1.5, rng.Float64()*3 - 1.5}, rng.Float64()*math.Pi)

		manifold, ok := Collide(a, b)
		assert.Equal(t, Intersects(a, b), ok)
		if !ok {
			continue
		}
		checked++

		moved := b.Clone()
		moved.Translate(manifold.Normal.Mul(manifold.Depth + 1e-6))
		assert.False(t, Intersects(a, moved), "case %d still overlapping after separation", i)
	}
	assert.Greater(t, checked, 50)
}

func TestFlipped(t *testing.T) {
	m := geometry.Manifold{
		Normal: mgl64.Vec2{0, 1},
		PointA: mgl64.Vec2{1, 1},
		PointB: mgl64.Vec2{2, 2},
	}
	f := flipped(m)
	assert.Equal(t, mgl64.Vec2{0, -1}, f.Normal)
	assert.Equal(t, m.PointB, f.PointA)
	assert.Equal(t, m.PointA, f.PointB)
	assert.Equal(t, mgl64.Vec2{0, 1}, m.Normal, "the input manifold is left untouched")
}
