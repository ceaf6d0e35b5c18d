package input

import (
	"time"

	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Move walks its owner with W/A/S/D at Speed units per second.
type Move struct {
	scene.Base
	Speed float64

	in *State
}

func NewMove(in *State, speed float64) *Move {
	return &Move{Base: scene.NewBase("move"), Speed: speed, in: in}
}

func (m *Move) Update(dt time.Duration) {
	step := m.Speed * dt.Seconds()
	var d vmath.Vec3
	if m.in.IsPressed("w") {
		d[1] += step
	}
	if m.in.IsPressed("s") {
		d[1] -= step
	}
	if m.in.IsPressed("a") {
		d[0] -= step
	}
	if m.in.IsPressed("d") {
		d[0] += step
	}
	if d != vmath.Zero {
		m.Owner().Translate(d)
	}
}
