package system

import (
	"fmt"
	"time"
)

// Phase orders systems within one logical tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain input, asset completions, network reads
	PhasePreUpdate               // 1: deliver last tick's events
	PhasePhysics                 // 2: integrate + resolve contacts
	PhaseUpdate                  // 3: entity tree behaviors
	PhasePostUpdate              // 4: game specific follow-up
	PhaseOutput                  // 5: network writes
	PhasePersist                 // 6: snapshots
	PhaseCleanup                 // 7: commit staged adds/removes
)

var phaseNames = [...]string{"input", "pre_update", "physics", "update", "post_update", "output", "persist", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// System is one step of the tick pipeline.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
