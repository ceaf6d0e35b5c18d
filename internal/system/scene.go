package system

import (
	"time"

	"github.com/runicrealm/engine/internal/core/scene"
	coresys "github.com/runicrealm/engine/internal/core/system"
)

// SceneSystem updates every root entity, which recurses into behaviors and
// children. Phase 3 (Update).
type SceneSystem struct {
	roots func() []*scene.Entity
}

// NewSceneSystem takes the root list provider; the list it returns must not
// change while the system iterates it.
func NewSceneSystem(roots func() []*scene.Entity) *SceneSystem {
	return &SceneSystem{roots: roots}
}

func (s *SceneSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *SceneSystem) Update(dt time.Duration) {
	for _, e := range s.roots() {
		e.Update(dt)
	}
}
