// Package physics moves bodies, tests their shapes pairwise and resolves
// contacts with inverse-mass impulses. Rotation is not modelled.
package physics

import (
	"fmt"
	"time"

	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Category decides how the world treats a body.
type Category int

const (
	Dynamic   Category = iota // integrated and pushed by impulses
	Kinematic                 // moved by its own behaviors, infinite mass
	Trigger                   // overlap reports only
)

func (c Category) String() string {
	switch c {
	case Dynamic:
		return "dynamic"
	case Kinematic:
		return "kinematic"
	case Trigger:
		return "trigger"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps the names used in level files.
func ParseCategory(s string) (Category, error) {
	switch s {
	case "", "dynamic":
		return Dynamic, nil
	case "kinematic":
		return Kinematic, nil
	case "trigger":
		return Trigger, nil
	}
	return 0, fmt.Errorf("unknown body category %q", s)
}

// Body is a scene entity with mass, velocity and collision shapes.
// A Mass of 0 means immovable under impulses.
type Body struct {
	*scene.Entity

	Mass        float64
	Restitution float64
	Velocity    vmath.Vec3

	category Category
	shapes   []Shape
	world    *World
}

func NewBody(id ident.ID, pos vmath.Vec3, mass, restitution float64) *Body {
	b := &Body{
		Entity:      scene.NewEntity(id, pos),
		Mass:        mass,
		Restitution: restitution,
		category:    Dynamic,
	}
	b.Entity.Embed(b, scene.KindPhysics)
	return b
}

func (b *Body) Category() Category { return b.category }

// World returns the world the body is registered with, or nil.
func (b *Body) World() *World { return b.world }

// SetCategory moves the body between category lists. While its world is
// stepping the change is queued and Category keeps reporting the old value
// until the step ends.
func (b *Body) SetCategory(c Category) {
	if b.world == nil {
		b.category = c
		return
	}
	b.world.Recategorize(b, c)
}

func (b *Body) AddShape(s Shape) { b.shapes = append(b.shapes, s) }

func (b *Body) Shapes() []Shape { return b.shapes }

// InverseMass is the mass term used by collision resolution. Kinematic and
// zero-mass bodies report 0.
func (b *Body) InverseMass() float64 {
	if b.category == Kinematic || b.Mass <= 0 {
		return 0
	}
	return 1 / b.Mass
}

// EffectiveMass is the stored mass, forced to 0 for kinematic bodies.
func (b *Body) EffectiveMass() float64 {
	if b.category == Kinematic {
		return 0
	}
	return b.Mass
}

// Accelerate changes velocity by a·dt regardless of mass. dt of 0 applies a once.
func (b *Body) Accelerate(a vmath.Vec3, dt time.Duration) {
	b.Velocity = b.Velocity.Add(a.Mul(stepScale(dt)))
}

// ApplyForce changes velocity by f·dt/mass. Zero-mass bodies ignore forces.
func (b *Body) ApplyForce(f vmath.Vec3, dt time.Duration) {
	if b.Mass <= 0 {
		return
	}
	b.Velocity = b.Velocity.Add(f.Mul(stepScale(dt) / b.Mass))
}

// Integrate advances the local position by velocity·dt.
func (b *Body) Integrate(dt time.Duration) {
	b.Translate(b.Velocity.Mul(dt.Seconds()))
}

func stepScale(dt time.Duration) float64 {
	if dt <= 0 {
		return 1
	}
	return dt.Seconds()
}
