package system

import (
	"time"

	coresys "github.com/runicrealm/engine/internal/core/system"
)

// Committer applies changes that were staged during the tick.
type Committer interface {
	Commit()
}

// CleanupSystem flushes staged scene additions and removals at tick end.
// Phase 7 (Cleanup).
type CleanupSystem struct {
	target Committer
}

func NewCleanupSystem(target Committer) *CleanupSystem {
	return &CleanupSystem{target: target}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.target.Commit()
}
