package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventsDeliveredNextSwap(t *testing.T) {
	b := NewBus()
	var got []TriggerHit
	Subscribe(b, func(ev TriggerHit) { got = append(got, ev) })

	Emit(b, TriggerHit{A: 1, B: 2})
	assert.Equal(t, 1, b.Pending())
	b.DispatchAll()
	assert.Empty(t, got, "not visible before the swap")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Equal(t, []TriggerHit{{A: 1, B: 2}}, got)
	assert.Zero(t, b.Pending())

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "delivered once")
}

func TestDispatchOrderFollowsFirstEmit(t *testing.T) {
	b := NewBus()
	var log []string
	Subscribe(b, func(ev AssetLoaded) { log = append(log, "asset:"+ev.Name) })
	Subscribe(b, func(ev EntityAdded) { log = append(log, "entity") })

	for i := 0; i < 3; i++ {
		Emit(b, EntityAdded{ID: 7})
		Emit(b, AssetLoaded{Name: "tiles"})
		b.SwapBuffers()
		log = log[:0]
		b.DispatchAll()
		assert.Equal(t, []string{"entity", "asset:tiles"}, log)
	}
}

func TestEmitWithoutSubscribers(t *testing.T) {
	b := NewBus()
	Emit(b, PeerDisconnected{PeerID: 3})
	b.SwapBuffers()
	assert.NotPanics(t, b.DispatchAll)
}
