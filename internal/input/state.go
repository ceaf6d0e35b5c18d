// Package input tracks keyboard and pointer state for the game thread.
//
// Device goroutines push events into a Queue; the game drains the queue into
// a State once per tick and flushes edge state after every rendered frame.
package input

import (
	"strconv"

	"golang.org/x/text/cases"
)

// MouseButton returns the key symbol used for pointer button n.
func MouseButton(n int) string {
	return "MouseButton" + strconv.Itoa(n)
}

// State is the per-frame input snapshot. Not safe for concurrent use.
type State struct {
	fold cases.Caser

	pressed map[string]bool
	down    map[string]bool
	up      map[string]bool

	x, y   float64
	dx, dy float64
	wheel  float64
}

func NewState() *State {
	return &State{
		fold:    cases.Fold(),
		pressed: make(map[string]bool),
		down:    make(map[string]bool),
		up:      make(map[string]bool),
	}
}

func (s *State) key(sym string) string { return s.fold.String(sym) }

// Press marks sym held. Repeated presses while held do not re-trigger WentDown.
func (s *State) Press(sym string) {
	k := s.key(sym)
	if s.pressed[k] {
		return
	}
	s.pressed[k] = true
	s.down[k] = true
}

// Release marks sym up. Releasing a key that is not held does nothing.
func (s *State) Release(sym string) {
	k := s.key(sym)
	if !s.pressed[k] {
		return
	}
	s.pressed[k] = false
	s.up[k] = true
}

func (s *State) PressButton(n int)   { s.Press(MouseButton(n)) }
func (s *State) ReleaseButton(n int) { s.Release(MouseButton(n)) }

// MoveTo sets the pointer position and accumulates the delta since the last
// flush.
func (s *State) MoveTo(x, y float64) {
	s.dx += x - s.x
	s.dy += y - s.y
	s.x, s.y = x, y
}

func (s *State) Scroll(delta float64) { s.wheel += delta }

func (s *State) IsPressed(sym string) bool { return s.pressed[s.key(sym)] }

// WentDown reports a press since the last Flush.
func (s *State) WentDown(sym string) bool { return s.down[s.key(sym)] }

// WentUp reports a release since the last Flush.
func (s *State) WentUp(sym string) bool { return s.up[s.key(sym)] }

func (s *State) Pointer() (x, y float64)      { return s.x, s.y }
func (s *State) PointerDelta() (x, y float64) { return s.dx, s.dy }
func (s *State) Wheel() float64               { return s.wheel }

// Flush clears edge flags and deltas. Held keys stay held.
func (s *State) Flush() {
	clear(s.down)
	clear(s.up)
	s.dx, s.dy = 0, 0
	s.wheel = 0
}
