package scene

import (
	"fmt"
	"slices"
	"time"

	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Kind tags what an entity is embedded in.
type Kind int

const (
	KindPlain Kind = iota
	KindPhysics
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindPhysics:
		return "physics"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Object is anything that can be placed in the scene tree.
type Object interface {
	Node() *Entity
}

// Listener hears about objects joining and leaving the active scene, including
// descendants added under an entity that is already active.
type Listener interface {
	EntityEntered(obj Object)
	EntityExited(obj Object)
}

// Entity is a scene tree node. Single goroutine only (the game loop).
//
// Children and behaviors are copied on removal, so a range over either slice
// taken before a hook runs stays stable if that hook detaches something.
type Entity struct {
	id    ident.ID
	kind  Kind
	outer Object

	local    vmath.Vec3
	parent   *Entity
	children []*Entity

	behaviors []Behavior

	inScene  bool
	listener Listener
	retired  bool
}

func NewEntity(id ident.ID, local vmath.Vec3) *Entity {
	return &Entity{id: id, local: local}
}

// Embed records the value that wraps this entity, e.g. a physics body.
// Listeners and trigger callbacks receive the wrapper instead of the bare entity.
func (e *Entity) Embed(outer Object, kind Kind) {
	e.outer = outer
	e.kind = kind
}

func (e *Entity) Node() *Entity { return e }

// Object returns the outermost value wrapping e.
func (e *Entity) Object() Object {
	if e.outer != nil {
		return e.outer
	}
	return e
}

func (e *Entity) ID() ident.ID      { return e.id }
func (e *Entity) Kind() Kind        { return e.kind }
func (e *Entity) Parent() *Entity   { return e.parent }
func (e *Entity) InScene() bool     { return e.inScene }
func (e *Entity) Retired() bool     { return e.retired }
func (e *Entity) Local() vmath.Vec3 { return e.local }

func (e *Entity) SetLocal(v vmath.Vec3) { e.local = v }

func (e *Entity) Translate(d vmath.Vec3) { e.local = e.local.Add(d) }

// GlobalPosition sums local positions up to the root.
func (e *Entity) GlobalPosition() vmath.Vec3 {
	pos := e.local
	for p := e.parent; p != nil; p = p.parent {
		pos = pos.Add(p.local)
	}
	return pos
}

// SetGlobalPosition moves e so that its global position becomes v.
func (e *Entity) SetGlobalPosition(v vmath.Vec3) {
	if e.parent == nil {
		e.local = v
		return
	}
	e.local = v.Sub(e.parent.GlobalPosition())
}

func (e *Entity) Children() []*Entity { return slices.Clone(e.children) }

func (e *Entity) Behaviors() []Behavior { return slices.Clone(e.behaviors) }

// Find returns the first attached behavior with the given name.
func (e *Entity) Find(name string) (Behavior, bool) {
	for _, b := range e.behaviors {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// AddChild makes child a child of e. With adjust set, child's local position
// is rewritten so that its global position does not change. A child that
// already has a parent is moved. Creating a cycle is a caller error.
func (e *Entity) AddChild(child *Entity, adjust bool) {
	e.mustBeLive()
	child.mustBeLive()
	if child == e {
		panic(fmt.Sprintf("scene: entity %d added to itself", e.id))
	}

	global := child.GlobalPosition()
	if old := child.parent; old != nil {
		old.children = without(old.children, child)
	}
	child.parent = e
	if adjust {
		child.local = global.Sub(e.GlobalPosition())
	}
	e.children = append(e.children, child)

	switch {
	case e.inScene && !child.inScene:
		child.Enter(e.listener)
	case !e.inScene && child.inScene:
		child.Exit()
	}
}

// RemoveChild detaches child from e. It reports false when child is not a child of e.
func (e *Entity) RemoveChild(child *Entity) bool {
	if child.parent != e {
		return false
	}
	e.children = without(e.children, child)
	child.parent = nil
	if child.inScene {
		child.Exit()
	}
	return true
}

// Attach appends b to the behavior list. Attaching a behavior that already
// has an owner panics.
func (e *Entity) Attach(b Behavior) {
	e.mustBeLive()
	if owner := b.Owner(); owner != nil {
		panic(fmt.Sprintf("scene: behavior %q already attached to entity %d", b.Name(), owner.id))
	}
	e.behaviors = append(e.behaviors, b)
	b.bind(e)
	if e.inScene {
		if h, ok := b.(SceneEnterer); ok {
			h.OnAddedToScene()
		}
	}
	if h, ok := b.(Attacher); ok {
		h.OnAttached()
	}
}

// Detach removes b. It reports false, and does nothing, when b is not attached to e.
func (e *Entity) Detach(b Behavior) bool {
	if b.Owner() != e || !slices.Contains(e.behaviors, b) {
		return false
	}
	e.behaviors = without(e.behaviors, b)
	if h, ok := b.(Detacher); ok {
		h.OnDetached()
	}
	if e.inScene {
		if h, ok := b.(SceneExiter); ok {
			h.OnRemovedFromScene()
		}
	}
	b.bind(nil)
	return true
}

// Update runs every behavior in attachment order, then every child in
// insertion order.
func (e *Entity) Update(dt time.Duration) {
	for _, b := range e.behaviors {
		if b.Owner() != e {
			continue // detached by an earlier hook this tick
		}
		if u, ok := b.(Updater); ok {
			u.Update(dt)
		}
	}
	for _, c := range e.children {
		if c.parent == e {
			c.Update(dt)
		}
	}
}

// Render mirrors Update's traversal order.
func (e *Entity) Render(alpha float64) {
	for _, b := range e.behaviors {
		if b.Owner() != e {
			continue
		}
		if r, ok := b.(Renderer); ok {
			r.Render(alpha)
		}
	}
	for _, c := range e.children {
		if c.parent == e {
			c.Render(alpha)
		}
	}
}

// Enter marks the subtree as part of the active scene. l may be nil.
func (e *Entity) Enter(l Listener) {
	e.mustBeLive()
	if e.inScene {
		return
	}
	e.inScene = true
	e.listener = l
	if l != nil {
		l.EntityEntered(e.Object())
	}
	for _, b := range e.behaviors {
		if h, ok := b.(SceneEnterer); ok {
			h.OnAddedToScene()
		}
	}
	for _, c := range e.children {
		c.Enter(l)
	}
}

// Exit removes the subtree from the active scene.
func (e *Entity) Exit() {
	if !e.inScene {
		return
	}
	for _, b := range e.behaviors {
		if h, ok := b.(SceneExiter); ok {
			h.OnRemovedFromScene()
		}
	}
	for _, c := range e.children {
		c.Exit()
	}
	e.inScene = false
	if l := e.listener; l != nil {
		e.listener = nil
		l.EntityExited(e.Object())
	}
}

// NotifyTriggerHit forwards a trigger overlap to every behavior that handles it.
func (e *Entity) NotifyTriggerHit(other Object) {
	for _, b := range e.behaviors {
		if b.Owner() != e {
			continue
		}
		if h, ok := b.(TriggerHandler); ok {
			h.OnTriggerHit(other)
		}
	}
}

// Retire marks the subtree unusable. Further structural calls on a retired
// entity panic.
func (e *Entity) Retire() {
	e.retired = true
	for _, c := range e.children {
		c.Retire()
	}
}

// Walk visits e and its descendants depth first, in update order.
func (e *Entity) Walk(fn func(*Entity)) {
	fn(e)
	for _, c := range e.children {
		c.Walk(fn)
	}
}

func (e *Entity) mustBeLive() {
	if e.retired {
		panic(fmt.Sprintf("scene: entity %d used after removal", e.id))
	}
}

func without[T comparable](s []T, v T) []T {
	i := slices.Index(s, v)
	if i < 0 {
		return s
	}
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}
