package constraint

import (
	"testing"

	"github.com/akmonengine/planar/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func TestNewSolver_DefaultIterations(t *testing.T) {
	tests := []struct {
		name       string
		iterations int
		want       int
	}{
		{"zero", 0, 10},
		{"negative", -3, 10},
		{"explicit", 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewSolver(tt.iterations).Iterations; got != tt.want {
				t.Errorf("Iterations = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSolver_SkipsDisabledContacts(t *testing.T) {
	mat := actor.Material{Density: 1}
	a := createBoxGeom(t, actor.BodyTypeDynamic, mgl64.Vec2{-1, 0}, mgl64.Vec2{1, 0}, mat)
	b := createBoxGeom(t, actor.BodyTypeDynamic, mgl64.Vec2{1, 0}, mgl64.Vec2{-1, 0}, mat)
	b.ResponseEnabled = false

	c := NewContact(a, b, headOnManifold(), DefaultSettings())
	solver := NewSolver(10)
	solver.Solve([]*Contact{c}, dt)

	for i, p := range c.Points {
		if p.NormalImpulse != 0 {
			t.Errorf("trigger contact point %d got impulse %v", i, p.NormalImpulse)
		}
	}
	if len(solver.active) != 0 || len(solver.contacts) != 0 {
		t.Error("solver should not retain contacts between steps")
	}
}

func TestSolver_StackedContacts(t *testing.T) {
	// A box resting on another box resting on static ground, both falling
	// at the same speed: after solving, nothing moves into the ground.
	mat := actor.Material{Density: 1}
	top := createBoxGeom(t, actor.BodyTypeDynamic, mgl64.Vec2{0, -2}, mgl64.Vec2{0, 1}, mat)
	middle := createBoxGeom(t, actor.BodyTypeDynamic, mgl64.Vec2{0, 0}, mgl64.Vec2{0, 1}, mat)
	ground := createBoxGeom(t, -1, mgl64.Vec2{0, 2}, mgl64.Vec2{}, mat)

	upper := groundManifold()
	for i := range upper.Points {
		upper.Points[i].Position = upper.Points[i].Position.Sub(mgl64.Vec2{0, 2})
	}
	upper.Depth = 0.001

	contacts := []*Contact{
		NewContact(top, middle, upper, DefaultSettings()),
		NewContact(middle, ground, groundManifold(), DefaultSettings()),
	}
	NewSolver(20).Solve(contacts, dt)

	if vy := middle.Body().Velocity().Y(); vy > 1e-4 {
		t.Errorf("middle box still moving into the ground: vy = %v", vy)
	}
	if vy := top.Body().Velocity().Y(); vy > 1e-4 {
		t.Errorf("top box still moving into the middle box: vy = %v", vy)
	}
}

type recordingConstraint struct {
	name  string
	calls *[]string
}

func (c recordingConstraint) PreStep(dt float64) { *c.calls = append(*c.calls, "prestep "+c.name) }
func (c recordingConstraint) Solve()             { *c.calls = append(*c.calls, "solve "+c.name) }

func TestSolver_SolveConstraints(t *testing.T) {
	var calls []string
	constraints := []Constraint{
		recordingConstraint{name: "a", calls: &calls},
		recordingConstraint{name: "b", calls: &calls},
	}

	NewSolver(2).SolveConstraints(constraints, dt)

	want := []string{"prestep a", "prestep b", "solve a", "solve b", "solve a", "solve b"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, calls[i], want[i])
		}
	}
}
