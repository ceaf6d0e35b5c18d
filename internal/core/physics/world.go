package physics

import (
	"slices"
	"time"
)

type changeOp int

const (
	opAdd changeOp = iota
	opRemove
	opRecategorize
)

type change struct {
	op   changeOp
	body *Body
	cat  Category
}

// Stats counts the work done by the last Step.
type Stats struct {
	PairsTested int
	Resolved    int
	Triggers    int
}

// World owns the per-category body lists. Bodies are tested pairwise; there
// is no broad phase. Single goroutine only.
//
// Membership changes requested while Step runs are queued and applied when
// the step ends, so no body is skipped or visited twice by the pass in flight.
type World struct {
	dynamic   []*Body
	kinematic []*Body
	trigger   []*Body

	stepping bool
	pending  []change
	stats    Stats

	// OnTrigger, when set, is called once per trigger hit after both bodies'
	// behaviors have been notified.
	OnTrigger func(a, b *Body)
}

func NewWorld() *World {
	return &World{
		dynamic:   make([]*Body, 0, 64),
		kinematic: make([]*Body, 0, 16),
		trigger:   make([]*Body, 0, 16),
	}
}

// Add registers b under its current category. Adding a registered body is a no-op.
func (w *World) Add(b *Body) {
	if w.stepping {
		w.pending = append(w.pending, change{op: opAdd, body: b})
		return
	}
	if b.world == w {
		return
	}
	b.world = w
	w.insert(b)
}

// Remove unregisters b. Removing a body that is not registered is a no-op.
func (w *World) Remove(b *Body) {
	if w.stepping {
		w.pending = append(w.pending, change{op: opRemove, body: b})
		return
	}
	if b.world != w {
		return
	}
	w.drop(b)
	b.world = nil
}

// Recategorize moves b into the list for c.
func (w *World) Recategorize(b *Body, c Category) {
	if w.stepping {
		w.pending = append(w.pending, change{op: opRecategorize, body: b, cat: c})
		return
	}
	if b.world != w {
		b.category = c
		return
	}
	if b.category == c {
		return
	}
	w.drop(b)
	b.category = c
	w.insert(b)
}

// Clear unregisters every body.
func (w *World) Clear() {
	for _, list := range [][]*Body{w.dynamic, w.kinematic, w.trigger} {
		for _, b := range list {
			b.world = nil
		}
	}
	w.dynamic = w.dynamic[:0]
	w.kinematic = w.kinematic[:0]
	w.trigger = w.trigger[:0]
	w.pending = w.pending[:0]
}

func (w *World) Bodies(c Category) []*Body { return slices.Clone(*w.list(c)) }

func (w *World) Len() int { return len(w.dynamic) + len(w.kinematic) + len(w.trigger) }

func (w *World) Pending() int { return len(w.pending) }

func (w *World) Stats() Stats { return w.stats }

// Step runs one physics tick: integrate dynamic bodies, then resolve
// dynamic/dynamic and dynamic/kinematic contacts, then report trigger overlaps
// against every category.
func (w *World) Step(dt time.Duration) {
	w.stepping = true
	w.stats = Stats{}
	defer func() {
		w.stepping = false
		w.commit()
	}()

	for _, b := range w.dynamic {
		b.Integrate(dt)
	}

	for i, a := range w.dynamic {
		for _, b := range w.dynamic[i+1:] {
			w.collide(a, b)
		}
	}
	for _, a := range w.dynamic {
		for _, k := range w.kinematic {
			w.collide(a, k)
		}
	}

	for i, t := range w.trigger {
		for _, o := range w.trigger[i+1:] {
			w.overlap(t, o)
		}
	}
	for _, t := range w.trigger {
		for _, d := range w.dynamic {
			w.overlap(t, d)
		}
	}
	for _, t := range w.trigger {
		for _, k := range w.kinematic {
			w.overlap(t, k)
		}
	}
}

// collide resolves the first colliding shape pair of a and b.
func (w *World) collide(a, b *Body) {
	w.stats.PairsTested++
	wa, wb := a.InverseMass(), b.InverseMass()
	if wa+wb == 0 {
		return
	}
	for _, sa := range a.shapes {
		for _, sb := range b.shapes {
			c, ok := sa.Collide(a, sb, b)
			if !ok {
				continue
			}
			Resolve(a, b, c)
			w.stats.Resolved++
			return
		}
	}
}

// overlap fires trigger notifications for the first overlapping shape pair.
func (w *World) overlap(a, b *Body) {
	w.stats.PairsTested++
	for _, sa := range a.shapes {
		for _, sb := range b.shapes {
			if !sa.Overlaps(a, sb, b) {
				continue
			}
			w.stats.Triggers++
			a.NotifyTriggerHit(b)
			b.NotifyTriggerHit(a)
			if w.OnTrigger != nil {
				w.OnTrigger(a, b)
			}
			return
		}
	}
}

// Resolve separates a and b along c.Normal (pointing a→b) and applies a
// restitution impulse. Each body moves by its share of the inverse mass, so a
// kinematic or zero-mass side stays put. Separating pairs only get the
// positional push.
func Resolve(a, b *Body, c Contact) {
	wa, wb := a.InverseMass(), b.InverseMass()
	sum := wa + wb
	if sum == 0 {
		return
	}

	push := c.Normal.Mul(c.Penetration / sum)
	a.Translate(push.Mul(-wa))
	b.Translate(push.Mul(wb))

	closing := a.Velocity.Sub(b.Velocity).Dot(c.Normal)
	if closing < 0 {
		return
	}
	e := min(a.Restitution, b.Restitution)
	j := (1 + e) * closing / sum
	a.Velocity = a.Velocity.Sub(c.Normal.Mul(j * wa))
	b.Velocity = b.Velocity.Add(c.Normal.Mul(j * wb))
}

func (w *World) commit() {
	if len(w.pending) == 0 {
		return
	}
	queued := w.pending
	w.pending = nil
	for _, ch := range queued {
		switch ch.op {
		case opAdd:
			w.Add(ch.body)
		case opRemove:
			w.Remove(ch.body)
		case opRecategorize:
			w.Recategorize(ch.body, ch.cat)
		}
	}
}

func (w *World) list(c Category) *[]*Body {
	switch c {
	case Kinematic:
		return &w.kinematic
	case Trigger:
		return &w.trigger
	}
	return &w.dynamic
}

func (w *World) insert(b *Body) {
	l := w.list(b.category)
	*l = append(*l, b)
}

func (w *World) drop(b *Body) {
	l := w.list(b.category)
	if i := slices.Index(*l, b); i >= 0 {
		*l = slices.Delete(*l, i, i+1)
	}
}
