package input

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
)

func TestStateEdges(t *testing.T) {
	s := NewState()
	s.Press("W")
	assert.True(t, s.IsPressed("w"), "symbols are case folded")
	assert.True(t, s.WentDown("w"))
	assert.False(t, s.WentUp("w"))

	s.Flush()
	assert.True(t, s.IsPressed("w"))
	assert.False(t, s.WentDown("w"))

	s.Press("w")
	assert.False(t, s.WentDown("w"), "held key does not re-trigger")

	s.Release("w")
	assert.False(t, s.IsPressed("w"))
	assert.True(t, s.WentUp("w"))

	s.Flush()
	s.Release("w")
	assert.False(t, s.WentUp("w"), "release of an idle key is ignored")
}

func TestStatePointer(t *testing.T) {
	s := NewState()
	s.MoveTo(10, 5)
	s.MoveTo(12, 4)
	s.Scroll(1.5)
	s.PressButton(0)

	x, y := s.Pointer()
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 4.0, y)
	dx, dy := s.PointerDelta()
	assert.Equal(t, 12.0, dx)
	assert.Equal(t, 4.0, dy)
	assert.Equal(t, 1.5, s.Wheel())
	assert.True(t, s.IsPressed("MouseButton0"))

	s.Flush()
	dx, dy = s.PointerDelta()
	assert.Zero(t, dx)
	assert.Zero(t, dy)
	assert.Zero(t, s.Wheel())
	x, _ = s.Pointer()
	assert.Equal(t, 12.0, x)
}

func TestQueueDrainInOrder(t *testing.T) {
	q := NewQueue()
	s := NewState()
	q.Push(Event{Kind: KeyDown, Key: "a"})
	q.Push(Event{Kind: KeyUp, Key: "a"})
	q.Push(Event{Kind: ButtonDown, Button: 2})
	q.Push(Event{Kind: Wheel, Delta: -1})
	require.Equal(t, 4, q.Len())

	assert.Equal(t, 4, q.Drain(s))
	assert.Zero(t, q.Len())
	assert.False(t, s.IsPressed("a"))
	assert.True(t, s.WentDown("a"))
	assert.True(t, s.WentUp("a"))
	assert.True(t, s.IsPressed(MouseButton(2)))
	assert.Equal(t, -1.0, s.Wheel())
}

func TestQueueTapReleasesOnNextDrain(t *testing.T) {
	q := NewQueue()
	s := NewState()

	q.Tap("d")
	q.Drain(s)
	assert.True(t, s.IsPressed("d"))
	s.Flush()

	// repeat arrives before the next drain: still held
	q.Tap("D")
	q.Drain(s)
	assert.True(t, s.IsPressed("d"))
	s.Flush()

	q.Drain(s)
	assert.False(t, s.IsPressed("d"))
	assert.True(t, s.WentUp("d"))
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				q.Push(Event{Kind: PointerMove, X: float64(j)})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, q.Drain(NewState()))
}

func TestMoveBehavior(t *testing.T) {
	s := NewState()
	e := scene.NewEntity(ident.NewID(1, 0), vmath.Zero)
	e.Attach(NewMove(s, 2))

	s.Press("w")
	s.Press("d")
	e.Update(500 * time.Millisecond)
	assert.True(t, vmath.ApproxEqual(vmath.V2(1, 1), e.Local(), 1e-9))

	s.Release("w")
	s.Press("a")
	e.Update(time.Second)
	assert.True(t, vmath.ApproxEqual(vmath.V2(1, 1), e.Local(), 1e-9), "a and d cancel")
}
