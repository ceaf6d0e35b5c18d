package system

import (
	"time"

	"github.com/runicrealm/engine/internal/core/physics"
	coresys "github.com/runicrealm/engine/internal/core/system"
)

// PhysicsSystem integrates dynamic bodies and resolves contacts.
// Phase 2 (Physics).
type PhysicsSystem struct {
	world *physics.World
}

func NewPhysicsSystem(w *physics.World) *PhysicsSystem {
	return &PhysicsSystem{world: w}
}

func (s *PhysicsSystem) Phase() coresys.Phase { return coresys.PhasePhysics }

func (s *PhysicsSystem) Update(dt time.Duration) {
	s.world.Step(dt)
}
