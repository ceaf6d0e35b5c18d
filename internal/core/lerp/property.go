// Package lerp keeps per-tick snapshots of a value so rendering can
// interpolate between logical ticks.
package lerp

import "github.com/runicrealm/engine/internal/core/vmath"

// Property snapshots an observable once per logical tick. Update must be
// called exactly once per tick and never from a render pass.
type Property[T any] struct {
	read   func() T
	mix    func(a, b T, t float64) T
	prev   T
	cur    T
	primed bool // cur holds a snapshot
	shifts bool // prev holds a snapshot
}

func New[T any](read func() T, mix func(a, b T, t float64) T) *Property[T] {
	if read == nil || mix == nil {
		panic("lerp: nil accessor or interpolator")
	}
	return &Property[T]{read: read, mix: mix}
}

func NewVec3(read func() vmath.Vec3) *Property[vmath.Vec3] {
	return New(read, vmath.Lerp)
}

func NewFloat(read func() float64) *Property[float64] {
	return New(read, vmath.LerpFloat)
}

// Update shifts current into previous and samples the accessor.
func (p *Property[T]) Update() {
	if p.primed {
		p.prev = p.cur
		p.shifts = true
	}
	p.cur = p.read()
	p.primed = true
}

// Get interpolates previous→current by alpha, clamped to [0, 1]. Before the
// first Update it returns the live value; with only one snapshot it returns it.
func (p *Property[T]) Get(alpha float64) T {
	if !p.primed {
		return p.read()
	}
	if !p.shifts {
		return p.cur
	}
	switch t := vmath.Clamp01(alpha); t {
	case 0:
		return p.prev
	case 1:
		return p.cur
	default:
		return p.mix(p.prev, p.cur, t)
	}
}

func (p *Property[T]) Previous() T {
	if !p.shifts {
		return p.cur
	}
	return p.prev
}

func (p *Property[T]) Current() T { return p.cur }

// Reset forgets both snapshots, e.g. after a teleport, so the next frame does not smear.
func (p *Property[T]) Reset() {
	var zero T
	p.prev, p.cur = zero, zero
	p.primed, p.shifts = false, false
}
