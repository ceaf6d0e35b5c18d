package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runicrealm/engine/internal/core/vmath"
)

type recorder struct {
	Base
	log *[]string
}

func newRecorder(name string, log *[]string) *recorder {
	return &recorder{Base: NewBase(name), log: log}
}

func (r *recorder) note(ev string)       { *r.log = append(*r.log, r.Name()+":"+ev) }
func (r *recorder) Update(time.Duration) { r.note("update") }
func (r *recorder) Render(float64)       { r.note("render") }
func (r *recorder) OnAttached()          { r.note("attached") }
func (r *recorder) OnDetached()          { r.note("detached") }
func (r *recorder) OnAddedToScene()      { r.note("enter") }
func (r *recorder) OnRemovedFromScene()  { r.note("exit") }
func (r *recorder) OnTriggerHit(Object)  { r.note("trigger") }

type listener struct {
	entered, exited []Object
}

func (l *listener) EntityEntered(o Object) { l.entered = append(l.entered, o) }
func (l *listener) EntityExited(o Object)  { l.exited = append(l.exited, o) }

func TestGlobalPositionSumsAncestors(t *testing.T) {
	root := NewEntity(1, vmath.V2(1, 1))
	mid := NewEntity(2, vmath.V2(2, 0))
	leaf := NewEntity(3, vmath.V3(0, 3, 1))
	root.AddChild(mid, false)
	mid.AddChild(leaf, false)

	assert.Equal(t, vmath.V2(1, 1), root.GlobalPosition())
	assert.Equal(t, mid.Parent().GlobalPosition().Add(mid.Local()), mid.GlobalPosition())
	assert.Equal(t, vmath.V3(3, 4, 1), leaf.GlobalPosition())
}

func TestAddChildAdjustPreservesGlobal(t *testing.T) {
	a := NewEntity(1, vmath.V2(10, -4))
	b := NewEntity(2, vmath.V2(-3, 7))
	child := NewEntity(3, vmath.V2(1, 1))
	a.AddChild(child, false)

	before := child.GlobalPosition()
	b.AddChild(child, true)

	assert.True(t, vmath.ApproxEqual(before, child.GlobalPosition(), 1e-12))
	assert.Same(t, b, child.Parent())
	assert.Empty(t, a.Children(), "reparenting removes the old membership")
	assert.Len(t, b.Children(), 1)
}

func TestAddChildWithoutAdjustKeepsLocal(t *testing.T) {
	p := NewEntity(1, vmath.V2(5, 5))
	c := NewEntity(2, vmath.V2(1, 0))
	p.AddChild(c, false)
	assert.Equal(t, vmath.V2(1, 0), c.Local())
	assert.Equal(t, vmath.V2(6, 5), c.GlobalPosition())
}

func TestUpdateAndRenderOrder(t *testing.T) {
	var log []string
	root := NewEntity(1, vmath.Zero)
	root.Attach(newRecorder("a", &log))
	root.Attach(newRecorder("b", &log))
	c1 := NewEntity(2, vmath.Zero)
	c1.Attach(newRecorder("c1", &log))
	c2 := NewEntity(3, vmath.Zero)
	c2.Attach(newRecorder("c2", &log))
	root.AddChild(c1, false)
	root.AddChild(c2, false)

	log = nil
	root.Update(time.Millisecond)
	root.Render(0.5)
	assert.Equal(t, []string{
		"a:update", "b:update", "c1:update", "c2:update",
		"a:render", "b:render", "c1:render", "c2:render",
	}, log)
}

func TestAttachDetachHooks(t *testing.T) {
	var log []string
	e := NewEntity(1, vmath.Zero)
	r := newRecorder("r", &log)

	e.Attach(r)
	assert.Same(t, e, r.Owner())
	assert.Equal(t, []string{"r:attached"}, log)

	e.Enter(nil)
	assert.Equal(t, []string{"r:attached", "r:enter"}, log)

	log = nil
	require.True(t, e.Detach(r))
	assert.Nil(t, r.Owner())
	assert.Equal(t, []string{"r:detached", "r:exit"}, log)

	log = nil
	late := newRecorder("late", &log)
	e.Attach(late)
	assert.Equal(t, []string{"late:enter", "late:attached"}, log)
}

func TestDetachUnknownIsNoop(t *testing.T) {
	var log []string
	e := NewEntity(1, vmath.Zero)
	other := NewEntity(2, vmath.Zero)
	r := newRecorder("r", &log)
	other.Attach(r)

	assert.False(t, e.Detach(r))
	assert.False(t, e.Detach(newRecorder("never", &log)))
	assert.Same(t, other, r.Owner())
}

func TestAttachOwnedBehaviorPanics(t *testing.T) {
	var log []string
	r := newRecorder("r", &log)
	NewEntity(1, vmath.Zero).Attach(r)
	assert.Panics(t, func() { NewEntity(2, vmath.Zero).Attach(r) })
}

func TestEnterPropagatesToSubtreeAndLateChildren(t *testing.T) {
	l := &listener{}
	root := NewEntity(1, vmath.Zero)
	child := NewEntity(2, vmath.Zero)
	root.AddChild(child, false)

	root.Enter(l)
	assert.True(t, child.InScene())
	assert.Len(t, l.entered, 2)

	late := NewEntity(3, vmath.Zero)
	child.AddChild(late, false)
	assert.True(t, late.InScene())
	assert.Len(t, l.entered, 3)

	require.True(t, root.RemoveChild(child))
	assert.False(t, child.InScene())
	assert.False(t, late.InScene())
	assert.Len(t, l.exited, 2)
	assert.False(t, root.RemoveChild(child))
}

func TestDetachDuringUpdateSkipsDetached(t *testing.T) {
	var log []string
	e := NewEntity(1, vmath.Zero)
	second := newRecorder("second", &log)
	e.Attach(&detacher{Base: NewBase("first"), target: second})
	e.Attach(second)

	log = nil
	e.Update(time.Millisecond)
	assert.NotContains(t, log, "second:update")
	assert.Len(t, e.Behaviors(), 1)
}

type detacher struct {
	Base
	target Behavior
}

func (d *detacher) Update(time.Duration) { d.Owner().Detach(d.target) }

func TestRetiredEntityPanics(t *testing.T) {
	e := NewEntity(1, vmath.Zero)
	e.Retire()
	assert.Panics(t, func() { NewEntity(2, vmath.Zero).AddChild(e, false) })
	assert.Panics(t, func() { e.Attach(&detacher{Base: NewBase("x")}) })
}

func TestFindAndTrigger(t *testing.T) {
	var log []string
	e := NewEntity(1, vmath.Zero)
	e.Attach(newRecorder("r", &log))

	b, ok := e.Find("r")
	require.True(t, ok)
	assert.Equal(t, "r", b.Name())
	_, ok = e.Find("missing")
	assert.False(t, ok)

	log = nil
	e.NotifyTriggerHit(NewEntity(2, vmath.Zero))
	assert.Equal(t, []string{"r:trigger"}, log)
}
