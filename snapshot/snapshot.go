// Package snapshot copies the committed state of a world after a step, for
// renderers, debug viewers and replay checks.
package snapshot

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/akmonengine/planar"
	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"
)

type Geom struct {
	ID       uint64       `json:"id"`
	Tag      string       `json:"tag,omitempty"`
	Polygon  []mgl64.Vec2 `json:"polygon"`
	Min      mgl64.Vec2   `json:"min"`
	Max      mgl64.Vec2   `json:"max"`
	Position mgl64.Vec2   `json:"position"`
	Rotation float64      `json:"rotation"`
	Trigger  bool         `json:"trigger,omitempty"`

	// Body fields are zero for geoms without a body.
	BodyType        string     `json:"bodyType,omitempty"`
	Awake           bool       `json:"awake,omitempty"`
	Velocity        mgl64.Vec2 `json:"velocity"`
	AngularVelocity float64    `json:"angularVelocity"`
}

type Contact struct {
	A       uint64       `json:"a"`
	B       uint64       `json:"b"`
	Normal  mgl64.Vec2   `json:"normal"`
	Depth   float64      `json:"depth"`
	Points  []mgl64.Vec2 `json:"points"`
	Enabled bool         `json:"enabled"`
}

type Snapshot struct {
	Step     uint64    `json:"step"`
	Time     float64   `json:"time"`
	Geoms    []Geom    `json:"geoms"`
	Contacts []Contact `json:"contacts"`
}

// Capture copies the world state. It must not run during Step.
func Capture(w *planar.World) Snapshot {
	s := Snapshot{
		Step: w.StepCount(),
		Time: w.Time(),
	}

	for _, g := range w.Geoms() {
		box := g.AABB()
		geom := Geom{
			ID:       g.ID(),
			Polygon:  append([]mgl64.Vec2(nil), g.WorldPolygon().Points...),
			Min:      box.Min(),
			Max:      box.Max(),
			Position: g.Position(),
			Rotation: g.Rotation(),
			Trigger:  g.IsTrigger(),
		}
		if g.Tag != nil {
			geom.Tag = fmt.Sprint(g.Tag)
		}
		if body := g.Body(); body != nil {
			geom.BodyType = body.BodyType().String()
			geom.Awake = body.IsAwake()
			geom.Velocity = body.Velocity()
			geom.AngularVelocity = body.AngularVelocity()
		}
		s.Geoms = append(s.Geoms, geom)
	}

	for _, c := range w.Contacts() {
		contact := Contact{
			A:       c.GeomA.ID(),
			B:       c.GeomB.ID(),
			Normal:  c.Normal,
			Depth:   c.Depth,
			Enabled: c.Enabled(),
		}
		for _, p := range c.Points {
			contact.Points = append(contact.Points, p.Position)
		}
		s.Contacts = append(s.Contacts, contact)
	}
	return s
}

// Digest hashes the simulated state: step, geom transforms, polygons and
// velocities, and contacts. Two runs of the same scene with the same steps
// give the same digest.
func (s Snapshot) Digest() uint64 {
	buf := make([]byte, 0, 64*(len(s.Geoms)+len(s.Contacts)+1))
	putFloat := func(f float64) {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	}
	putVec := func(v mgl64.Vec2) {
		putFloat(v[0])
		putFloat(v[1])
	}

	buf = binary.LittleEndian.AppendUint64(buf, s.Step)
	for _, g := range s.Geoms {
		buf = binary.LittleEndian.AppendUint64(buf, g.ID)
		putVec(g.Position)
		putFloat(g.Rotation)
		for _, p := range g.Polygon {
			putVec(p)
		}
		putVec(g.Velocity)
		putFloat(g.AngularVelocity)
	}
	for _, c := range s.Contacts {
		buf = binary.LittleEndian.AppendUint64(buf, c.A)
		buf = binary.LittleEndian.AppendUint64(buf, c.B)
		putVec(c.Normal)
		putFloat(c.Depth)
	}
	return xxhash.Sum64(buf)
}
