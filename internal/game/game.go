// Package game is the composition root: it owns the scene roots, the physics
// world and the tick pipeline, and implements loop.Sim.
package game

import (
	"errors"
	"io/fs"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/assets"
	"github.com/runicrealm/engine/internal/core/event"
	"github.com/runicrealm/engine/internal/core/ident"
	"github.com/runicrealm/engine/internal/core/physics"
	"github.com/runicrealm/engine/internal/core/scene"
	coresys "github.com/runicrealm/engine/internal/core/system"
	"github.com/runicrealm/engine/internal/core/vmath"
	"github.com/runicrealm/engine/internal/input"
	"github.com/runicrealm/engine/internal/netsync"
	"github.com/runicrealm/engine/internal/persist"
	"github.com/runicrealm/engine/internal/render"
	"github.com/runicrealm/engine/internal/scripting"
	"github.com/runicrealm/engine/internal/system"
)

// ErrBusy is returned by StartScene when called from inside a tick or render.
var ErrBusy = errors.New("game: scene change requested during tick")

type Options struct {
	Physics bool // register the physics step
	Assets  fs.FS
	Backend render.Backend // nil renders into a Recorder
	Scripts *scripting.Engine
}

type opKind int

const (
	opAdd opKind = iota
	opRemove
)

type staged struct {
	kind opKind
	obj  scene.Object
}

// Game implements loop.Sim and scene.Listener. Single goroutine only.
type Game struct {
	log *zap.Logger

	pool   *ident.Pool
	roots  []*scene.Entity
	world  *physics.World
	runner *coresys.Runner
	bus    *event.Bus

	assets  *assets.Manager
	input   *input.State
	queue   *input.Queue
	frame   *render.Frame
	scripts *scripting.Engine

	net     *netsync.Network
	hub     *netsync.Hub
	syncs   map[ident.ID][]netsync.Syncable
	persist *system.PersistenceSystem

	busy    bool // inside Update or Render
	pending []staged

	ticks    uint64
	simTime  time.Duration
	gameTime float64 // seconds, may be corrected by SetGameTime
}

var (
	_ scene.Listener   = (*Game)(nil)
	_ system.Committer = (*Game)(nil)
)

func New(opts Options, log *zap.Logger) *Game {
	backend := opts.Backend
	if backend == nil {
		backend = &render.Recorder{Keep: 1}
	}
	assetFS := opts.Assets
	if assetFS == nil {
		assetFS = emptyFS{}
	}

	g := &Game{
		log:     log,
		pool:    ident.NewPool(),
		world:   physics.NewWorld(),
		runner:  coresys.NewRunner(),
		bus:     event.NewBus(),
		assets:  assets.NewManager(assetFS, log),
		input:   input.NewState(),
		queue:   input.NewQueue(),
		frame:   render.NewFrame(backend, log),
		scripts: opts.Scripts,
		syncs:   make(map[ident.ID][]netsync.Syncable),
	}
	if g.scripts != nil {
		g.scripts.SetInput(g.input)
	}

	g.world.OnTrigger = func(a, b *physics.Body) {
		event.Emit(g.bus, event.TriggerHit{A: a.ID(), B: b.ID()})
	}
	g.assets.OnLoaded = func(name string) {
		event.Emit(g.bus, event.AssetLoaded{Name: name})
	}
	g.assets.OnFailed = func(name string, err error) {
		event.Emit(g.bus, event.AssetFailed{Name: name, Err: err})
	}

	g.runner.Register(system.NewInputSystem(g.queue, g.input))
	g.runner.Register(system.NewAssetSystem(g.assets))
	g.runner.Register(system.NewEventDispatchSystem(g.bus))
	if opts.Physics {
		g.runner.Register(system.NewPhysicsSystem(g.world))
	}
	g.runner.Register(system.NewSceneSystem(g.Roots))
	g.runner.Register(system.NewCleanupSystem(g))
	return g
}

// EnableNetwork registers the network receive and send systems. newPeers may
// be nil when hub's peers are added up front.
func (g *Game) EnableNetwork(net *netsync.Network, hub *netsync.Hub, newPeers <-chan *netsync.Peer) {
	g.net = net
	g.hub = hub
	g.runner.Register(system.NewNetRecvSystem(hub, net, newPeers, g.bus, g.log))
	g.runner.Register(system.NewNetSendSystem(net, hub, g.GameTime))
}

// EnablePersistence snapshots the world into sink every intervalTicks.
func (g *Game) EnablePersistence(sink system.SnapshotSink, intervalTicks, keep int) *system.PersistenceSystem {
	g.persist = system.NewPersistenceSystem(sink, g.Snapshot, intervalTicks, keep, g.log)
	g.runner.Register(g.persist)
	return g.persist
}

// Register adds a game specific system to the tick pipeline.
func (g *Game) Register(s coresys.System) { g.runner.Register(s) }

func (g *Game) NewEntity(pos vmath.Vec3) *scene.Entity {
	return scene.NewEntity(g.pool.Next(), pos)
}

func (g *Game) NewBody(pos vmath.Vec3, mass, restitution float64) *physics.Body {
	return physics.NewBody(g.pool.Next(), pos, mass, restitution)
}

// Add makes obj a root of the active scene. During a tick or render the add
// is applied at the next cleanup.
func (g *Game) Add(obj scene.Object) {
	if g.busy {
		g.pending = append(g.pending, staged{opAdd, obj})
		return
	}
	g.addNow(obj)
}

// Remove takes a root or a descendant out of the scene and retires its
// subtree. Staged like Add.
func (g *Game) Remove(obj scene.Object) {
	if g.busy {
		g.pending = append(g.pending, staged{opRemove, obj})
		return
	}
	g.removeNow(obj)
}

// Commit applies staged adds and removes in request order. Changes staged by
// the hooks they trigger are applied in the same call.
func (g *Game) Commit() {
	for len(g.pending) > 0 {
		ops := g.pending
		g.pending = nil
		for _, op := range ops {
			switch op.kind {
			case opAdd:
				g.addNow(op.obj)
			case opRemove:
				g.removeNow(op.obj)
			}
		}
	}
}

func (g *Game) addNow(obj scene.Object) {
	e := obj.Node()
	if slices.Contains(g.roots, e) {
		return
	}
	if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	}
	g.roots = append(g.roots, e)
	e.Enter(g)
}

func (g *Game) removeNow(obj scene.Object) {
	e := obj.Node()
	if e.Retired() {
		return
	}
	if i := slices.Index(g.roots, e); i >= 0 {
		g.roots = slices.Delete(g.roots, i, i+1)
		e.Exit()
	} else if p := e.Parent(); p != nil {
		p.RemoveChild(e)
	} else {
		return
	}
	e.Walk(func(n *scene.Entity) { g.pool.Release(n.ID()) })
	e.Retire()
}

// EntityEntered registers bodies with the physics world.
func (g *Game) EntityEntered(obj scene.Object) {
	if b, ok := obj.(*physics.Body); ok {
		g.world.Add(b)
	}
	event.Emit(g.bus, event.EntityAdded{ID: obj.Node().ID()})
}

func (g *Game) EntityExited(obj scene.Object) {
	if b, ok := obj.(*physics.Body); ok {
		g.world.Remove(b)
	}
	id := obj.Node().ID()
	for _, s := range g.syncs[id] {
		g.net.RemoveReading(s)
		g.net.RemoveWriting(s)
	}
	delete(g.syncs, id)
	event.Emit(g.bus, event.EntityRemoved{ID: id})
}

// StartScene removes every root, clears the physics world, then runs setup.
func (g *Game) StartScene(setup func(*Game) error) error {
	if g.busy {
		return ErrBusy
	}
	g.pending = nil
	for _, e := range slices.Clone(g.roots) {
		g.removeNow(e)
	}
	g.world.Clear()
	if setup == nil {
		return nil
	}
	return setup(g)
}

// Update runs one logical tick through every registered system.
func (g *Game) Update(dt time.Duration) {
	g.busy = true
	g.runner.Tick(dt)
	g.busy = false
	g.ticks++
	g.simTime += dt
	g.gameTime += dt.Seconds()
}

// Render draws the scene with the interpolation fraction alpha, then clears
// per-frame input edges.
func (g *Game) Render(alpha float64) {
	g.busy = true
	for _, e := range g.roots {
		e.Render(alpha)
	}
	g.busy = false
	g.frame.Render()
	g.input.Flush()
}

// Snapshot captures the registered bodies for the persistence store.
func (g *Game) Snapshot() persist.Snapshot {
	return persist.Snapshot{
		Tick:    g.ticks,
		SimTime: g.simTime,
		Bodies:  persist.CaptureBodies(g.world),
	}
}

// Restore applies a saved snapshot to the bodies currently in the world and
// returns how many matched.
func (g *Game) Restore(s *persist.Snapshot) int {
	n := persist.RestoreBodies(g.world, s.Bodies)
	g.log.Info("snapshot restored",
		zap.Uint64("tick", s.Tick),
		zap.Int("matched", n),
		zap.Int("saved", len(s.Bodies)))
	return n
}

func (g *Game) Roots() []*scene.Entity    { return g.roots }
func (g *Game) World() *physics.World     { return g.world }
func (g *Game) Bus() *event.Bus           { return g.bus }
func (g *Game) Assets() *assets.Manager   { return g.assets }
func (g *Game) Input() *input.State       { return g.input }
func (g *Game) InputQueue() *input.Queue  { return g.queue }
func (g *Game) Frame() *render.Frame      { return g.frame }
func (g *Game) Network() *netsync.Network { return g.net }
func (g *Game) Ticks() uint64             { return g.ticks }
func (g *Game) SimTime() time.Duration    { return g.simTime }
func (g *Game) GameTime() float64         { return g.gameTime }

// SetGameTime replaces the clock sent with sync messages, e.g. to follow the
// host's time on a client.
func (g *Game) SetGameTime(t float64) { g.gameTime = t }

type emptyFS struct{}

func (emptyFS) Open(name string) (fs.File, error) {
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}
