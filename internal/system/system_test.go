package system

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/core/event"
	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/physics"
	"github.com/runicrealm/engine/internal/core/scene"
	coresys "github.com/runicrealm/engine/internal/core/system"
	"github.com/runicrealm/engine/internal/core/vmath"
	"github.com/runicrealm/engine/internal/input"
	"github.com/runicrealm/engine/internal/netsync"
	"github.com/runicrealm/engine/internal/persist"
)

const tick = time.Second / 60

func TestPhases(t *testing.T) {
	cases := []struct {
		sys   coresys.System
		phase coresys.Phase
	}{
		{&InputSystem{}, coresys.PhaseInput},
		{&AssetSystem{}, coresys.PhaseInput},
		{&NetRecvSystem{}, coresys.PhaseInput},
		{&EventDispatchSystem{}, coresys.PhasePreUpdate},
		{&PhysicsSystem{}, coresys.PhasePhysics},
		{&SceneSystem{}, coresys.PhaseUpdate},
		{&NetSendSystem{}, coresys.PhaseOutput},
		{&PersistenceSystem{}, coresys.PhasePersist},
		{&ClockSyncSystem{}, coresys.PhasePostUpdate},
		{&CleanupSystem{}, coresys.PhaseCleanup},
	}
	for _, c := range cases {
		assert.Equal(t, c.phase, c.sys.Phase())
	}
}

func TestInputSystemDrains(t *testing.T) {
	q := input.NewQueue()
	st := input.NewState()
	s := NewInputSystem(q, st)

	q.Push(input.Event{Kind: input.KeyDown, Key: "a"})
	s.Update(tick)
	assert.True(t, st.IsPressed("a"))
	assert.Zero(t, q.Len())
}

func TestEventDispatchDeliversPreviousTick(t *testing.T) {
	bus := event.NewBus()
	var got []ident.ID
	event.Subscribe(bus, func(e event.EntityAdded) { got = append(got, e.ID) })
	s := NewEventDispatchSystem(bus)

	event.Emit(bus, event.EntityAdded{ID: 7})
	assert.Empty(t, got)
	s.Update(tick)
	assert.Equal(t, []ident.ID{7}, got)
	s.Update(tick)
	assert.Len(t, got, 1, "delivered once")
}

func TestPhysicsSystemSteps(t *testing.T) {
	w := physics.NewWorld()
	b := physics.NewBody(ident.NewID(1, 0), vmath.Zero, 1, 0)
	b.Velocity = vmath.V2(60, 0)
	w.Add(b)

	NewPhysicsSystem(w).Update(tick)
	assert.InDelta(t, 1.0, b.Local().X(), 1e-6)
}

type counter struct {
	scene.Base
	n int
}

func (c *counter) Update(time.Duration) { c.n++ }

func TestSceneSystemUpdatesRoots(t *testing.T) {
	a := scene.NewEntity(ident.NewID(1, 0), vmath.Zero)
	b := scene.NewEntity(ident.NewID(2, 0), vmath.Zero)
	ca := &counter{Base: scene.NewBase("counter")}
	cb := &counter{Base: scene.NewBase("counter")}
	a.Attach(ca)
	b.Attach(cb)

	s := NewSceneSystem(func() []*scene.Entity { return []*scene.Entity{a, b} })
	s.Update(tick)
	s.Update(tick)
	assert.Equal(t, 2, ca.n)
	assert.Equal(t, 2, cb.n)
}

type commitCounter int

func (c *commitCounter) Commit() { *c++ }

func TestCleanupCommits(t *testing.T) {
	var c commitCounter
	NewCleanupSystem(&c).Update(tick)
	assert.Equal(t, commitCounter(1), c)
}

type fakeSink struct {
	mu     sync.Mutex
	saved  []persist.Snapshot
	pruned []int
	err    error
}

func (f *fakeSink) Save(_ context.Context, s persist.Snapshot) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, s)
	return int64(len(f.saved)), nil
}

func (f *fakeSink) Prune(_ context.Context, keep int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pruned = append(f.pruned, keep)
	return 0, nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func TestPersistenceEveryInterval(t *testing.T) {
	sink := &fakeSink{}
	var ticks uint64
	s := NewPersistenceSystem(sink, func() persist.Snapshot {
		return persist.Snapshot{Tick: ticks}
	}, 3, 5, zap.NewNop())

	for i := 0; i < 7; i++ {
		ticks++
		s.Update(tick)
		s.Wait()
	}
	require.Equal(t, 2, sink.count())
	assert.Equal(t, uint64(3), sink.saved[0].Tick)
	assert.Equal(t, uint64(6), sink.saved[1].Tick)
	assert.Equal(t, []int{5, 5}, sink.pruned)

	require.NoError(t, s.SaveNow(context.Background()))
	assert.Equal(t, uint64(7), sink.saved[2].Tick)
}

func TestPersistenceErrorsAreLogged(t *testing.T) {
	sink := &fakeSink{err: errors.New("db down")}
	s := NewPersistenceSystem(sink, func() persist.Snapshot { return persist.Snapshot{} }, 1, 0, zap.NewNop())
	s.Update(tick)
	s.Wait()
	assert.Zero(t, sink.count())
	assert.Empty(t, sink.pruned)
	assert.Error(t, s.SaveNow(context.Background()))
}

func TestNetworkSystems(t *testing.T) {
	srv := netsync.NewServer(8, 8, zap.NewNop())
	ts := httptest.NewServer(srv)
	defer ts.Close()

	bus := event.NewBus()
	var connected, disconnected []uint64
	event.Subscribe(bus, func(e event.PeerConnected) { connected = append(connected, e.PeerID) })
	event.Subscribe(bus, func(e event.PeerDisconnected) { disconnected = append(disconnected, e.PeerID) })

	var hub netsync.Hub
	pos := vmath.V2(1, 2)
	host := netsync.NewNetwork(&hub, nil, zap.NewNop())
	host.AddWriting(netsync.NewVec3Var("pos", func() vmath.Vec3 { return pos }, nil))
	recv := NewNetRecvSystem(&hub, host, srv.NewPeers(), bus, zap.NewNop())
	send := NewNetSendSystem(host, &hub, func() float64 { return 1 })
	dispatch := NewEventDispatchSystem(bus)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := netsync.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), 8, 8, zap.NewNop())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		recv.Update(tick)
		return hub.Len() == 1
	}, 2*time.Second, 5*time.Millisecond)
	dispatch.Update(tick)
	assert.Len(t, connected, 1)

	send.Update(tick)
	var mirrored vmath.Vec3
	var clientHub netsync.Hub
	clientHub.Add(client)
	down := netsync.NewNetwork(client, nil, zap.NewNop())
	down.AddReading(netsync.NewVec3Var("pos", nil, func(v vmath.Vec3) { mirrored = v }))
	require.Eventually(t, func() bool {
		clientHub.Drain(func(_ *netsync.Peer, payload []byte) { _ = down.Receive(payload) })
		return vmath.ApproxEqual(mirrored, pos, 1e-6)
	}, 2*time.Second, 5*time.Millisecond)

	client.Close()
	require.Eventually(t, func() bool {
		recv.Update(tick)
		return hub.Len() == 0
	}, 2*time.Second, 5*time.Millisecond)
	dispatch.Update(tick)
	assert.Equal(t, connected, disconnected)
}

type nopSender struct{}

func (nopSender) Send([]byte) {}

func TestClockSyncFollowsRemoteTime(t *testing.T) {
	w := netsync.NewWriterWithOpcode(netsync.OpUpdate)
	w.WriteS("hp")
	w.WriteF(5)
	w.WriteF(12.5)

	client := netsync.NewNetwork(nopSender{}, nil, zap.NewNop())
	client.AddReading(netsync.NewFloatVar("hp", nil, nil))
	clock := -1.0
	s := NewClockSyncSystem(client, func(t float64) { clock = t })

	s.Update(tick)
	assert.Equal(t, -1.0, clock, "nothing applied yet")

	require.NoError(t, client.Receive(w.Bytes()))
	s.Update(tick)
	assert.Equal(t, 12.5, clock)

	clock = 0
	s.Update(tick)
	assert.Zero(t, clock, "no new message, no jump")
}
