// Package config loads world settings and a population of geoms from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/akmonengine/planar"
	"github.com/akmonengine/planar/actor"
	"github.com/akmonengine/planar/geometry"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownShape    = errors.New("unknown shape")
	ErrUnknownBodyType = errors.New("unknown body type")
	ErrUnknownMaterial = errors.New("unknown material")
	ErrUnknownGroup    = errors.New("unknown collision group")
)

// Scene describes a world and what is in it.
type Scene struct {
	World     WorldConfig               `yaml:"world"`
	Groups    map[string][]int          `yaml:"groups"`
	Materials map[string]MaterialConfig `yaml:"materials"`
	Objects   []ObjectConfig            `yaml:"objects"`
}

type WorldConfig struct {
	Gravity        mgl64.Vec2 `yaml:"gravity"`
	GravityEnabled *bool      `yaml:"gravity_enabled"`
	Iterations     int        `yaml:"iterations"`
	SleepThreshold float64    `yaml:"sleep_threshold"`
	LinearDamping  float64    `yaml:"linear_damping"`
	AngularDamping float64    `yaml:"angular_damping"`
}

type MaterialConfig struct {
	Density     float64 `yaml:"density"`
	Restitution float64 `yaml:"restitution"`
	Friction    float64 `yaml:"friction"`
}

type ShapeConfig struct {
	Type        string       `yaml:"type"`
	HalfExtents mgl64.Vec2   `yaml:"half_extents,omitempty"`
	Points      []mgl64.Vec2 `yaml:"points,omitempty"`
	Sides       int          `yaml:"sides,omitempty"`
	Radius      float64      `yaml:"radius,omitempty"`
}

type ObjectConfig struct {
	Name     string      `yaml:"name"`
	Shape    ShapeConfig `yaml:"shape"`
	Body     string      `yaml:"body,omitempty"`
	Position mgl64.Vec2  `yaml:"position"`
	Rotation float64     `yaml:"rotation,omitempty"`
	Material string      `yaml:"material,omitempty"`

	Velocity        mgl64.Vec2 `yaml:"velocity,omitempty"`
	AngularVelocity float64    `yaml:"angular_velocity,omitempty"`
	LinearDamping   float64    `yaml:"linear_damping,omitempty"`
	AngularDamping  float64    `yaml:"angular_damping,omitempty"`
	IgnoreGravity   bool       `yaml:"ignore_gravity,omitempty"`

	BelongsTo    []string `yaml:"belongs_to,omitempty"`
	CollidesWith []string `yaml:"collides_with,omitempty"`
	Trigger      bool     `yaml:"trigger,omitempty"`
}

// Load decodes a scene from YAML.
func Load(r io.Reader) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return &s, nil
}

func LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Settings returns the world settings of the scene. Missing values keep
// their default.
func (s *Scene) Settings() planar.Settings {
	settings := planar.DefaultSettings()
	if s.World.Iterations > 0 {
		settings.Iterations = s.World.Iterations
	}
	if s.World.SleepThreshold > 0 {
		settings.SleepThreshold = s.World.SleepThreshold
	}
	if s.World.LinearDamping > 0 {
		settings.LinearDamping = s.World.LinearDamping
	}
	if s.World.AngularDamping > 0 {
		settings.AngularDamping = s.World.AngularDamping
	}
	return settings
}

// GravityEnabled defaults to true.
func (s *Scene) GravityEnabled() bool {
	return s.World.GravityEnabled == nil || *s.World.GravityEnabled
}

// NewWorld creates and initializes a world from the scene settings, then
// stages every object of the scene.
func (s *Scene) NewWorld(logger *zap.Logger) (*planar.World, []*actor.Geom, error) {
	w := planar.NewWorld(logger, s.Settings())
	w.Initialize(s.World.Gravity, s.GravityEnabled())
	geoms, err := s.Build(w)
	if err != nil {
		return nil, nil, err
	}
	return w, geoms, nil
}

// Build registers the scene groups and stages every object. Nothing is added
// when an object is invalid.
func (s *Scene) Build(w *planar.World) ([]*actor.Geom, error) {
	groups := make(map[string]actor.CollisionGroup, len(s.Groups))
	for name, bits := range s.Groups {
		var group actor.CollisionGroup
		for _, bit := range bits {
			group |= actor.GroupBit(bit)
		}
		groups[name] = group
	}

	materials := make(map[string]*actor.Material, len(s.Materials))
	for name, m := range s.Materials {
		materials[name] = &actor.Material{Density: m.Density, Restitution: m.Restitution, Friction: m.Friction}
	}

	geoms := make([]*actor.Geom, 0, len(s.Objects))
	for i, o := range s.Objects {
		g, err := o.build(groups, materials)
		if err != nil {
			return nil, fmt.Errorf("object %d (%s): %w", i, o.Name, err)
		}
		geoms = append(geoms, g)
	}

	for name, group := range groups {
		w.RegisterGroup(name, group)
	}
	for _, g := range geoms {
		w.AddGeom(g)
	}
	return geoms, nil
}

func (s ShapeConfig) polygon() (geometry.Polygon, error) {
	switch s.Type {
	case "box":
		return geometry.NewBox(s.HalfExtents.X(), s.HalfExtents.Y()), nil
	case "polygon":
		return geometry.NewPolygon(s.Points...), nil
	case "regular":
		return geometry.NewRegularPolygon(s.Sides, s.Radius), nil
	}
	return geometry.Polygon{}, fmt.Errorf("%w: %q", ErrUnknownShape, s.Type)
}

func parseBodyType(name string) (actor.BodyType, error) {
	switch name {
	case "dynamic":
		return actor.BodyTypeDynamic, nil
	case "kinematic":
		return actor.BodyTypeKinematic, nil
	case "fixed":
		return actor.BodyTypeFixed, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBodyType, name)
}

// resolveGroups combines named groups. An empty list means every group.
func resolveGroups(names []string, groups map[string]actor.CollisionGroup) (actor.CollisionGroup, error) {
	if len(names) == 0 {
		return actor.GroupAll, nil
	}

	var result actor.CollisionGroup
	for _, name := range names {
		if group, ok := groups[name]; ok {
			result |= group
			continue
		}
		group, ok := builtinGroup(name)
		if !ok {
			return actor.GroupNone, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
		}
		result |= group
	}
	return result, nil
}

func builtinGroup(name string) (actor.CollisionGroup, bool) {
	switch name {
	case "ALL":
		return actor.GroupAll, true
	case "NONE":
		return actor.GroupNone, true
	}
	var n int
	if _, err := fmt.Sscanf(name, "GROUP%d", &n); err == nil && n >= 1 && n <= 16 {
		return actor.GroupBit(n), true
	}
	return actor.GroupNone, false
}

func (o ObjectConfig) build(groups map[string]actor.CollisionGroup, materials map[string]*actor.Material) (*actor.Geom, error) {
	shape, err := o.Shape.polygon()
	if err != nil {
		return nil, err
	}

	transform := actor.Transform{Position: o.Position, Rotation: o.Rotation}
	g, err := actor.NewGeom(shape, transform)
	if err != nil {
		return nil, err
	}
	g.Tag = o.Name
	g.ResponseEnabled = !o.Trigger

	if o.Material != "" {
		m, ok := materials[o.Material]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMaterial, o.Material)
		}
		g.Material = m
	}

	if g.BelongsTo, err = resolveGroups(o.BelongsTo, groups); err != nil {
		return nil, err
	}
	if g.CollidesWith, err = resolveGroups(o.CollidesWith, groups); err != nil {
		return nil, err
	}

	if o.Body == "" {
		return g, nil
	}
	bodyType, err := parseBodyType(o.Body)
	if err != nil {
		return nil, err
	}

	body := actor.NewRigidBody(bodyType, transform)
	body.Tag = o.Name
	body.IgnoreGravity = o.IgnoreGravity
	if o.LinearDamping > 0 {
		body.SetLinearDamping(o.LinearDamping)
	}
	if o.AngularDamping > 0 {
		body.SetAngularDamping(o.AngularDamping)
	}
	body.SetVelocity(o.Velocity)
	body.SetAngularVelocity(o.AngularVelocity)
	g.SetBody(body)
	return g, nil
}
