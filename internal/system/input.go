package system

import (
	"time"

	"github.com/runicrealm/engine/internal/assets"
	coresys "github.com/runicrealm/engine/internal/core/system"
	"github.com/runicrealm/engine/internal/input"
)

// InputSystem drains device events queued since the last tick into the input
// state. Phase 0 (Input).
type InputSystem struct {
	queue *input.Queue
	state *input.State
}

func NewInputSystem(queue *input.Queue, state *input.State) *InputSystem {
	return &InputSystem{queue: queue, state: state}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	s.queue.Drain(s.state)
}

// AssetSystem delivers background asset loads on the game thread, so asset
// listeners never race behaviors. Phase 0 (Input).
type AssetSystem struct {
	assets *assets.Manager
}

func NewAssetSystem(m *assets.Manager) *AssetSystem {
	return &AssetSystem{assets: m}
}

func (s *AssetSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *AssetSystem) Update(_ time.Duration) {
	s.assets.Poll()
}
