package scripting

import (
	"time"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/core/physics"
	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Behavior drives its owner from a Lua module table:
//
//	function mod.update(self, dt) end
//	function mod.on_trigger_hit(self, other_id) end
//
// self keeps its fields between calls. id, x, y, z and, for bodies, vx, vy,
// vz are refreshed before each call and read back afterwards. Entity ids are
// passed as decimal strings.
type Behavior struct {
	scene.Base
	engine *Engine
	module string
	self   *lua.LTable

	disabled bool
}

func NewBehavior(e *Engine, module string) *Behavior {
	return &Behavior{
		Base:   scene.NewBase("script:" + module),
		engine: e,
		module: module,
		self:   e.vm.NewTable(),
	}
}

func (b *Behavior) Module() string { return b.module }

// Disabled is true after the script failed once.
func (b *Behavior) Disabled() bool { return b.disabled }

func (b *Behavior) Update(dt time.Duration) {
	b.invoke("update", lua.LNumber(dt.Seconds()))
}

func (b *Behavior) OnTriggerHit(other scene.Object) {
	b.invoke("on_trigger_hit", lua.LString(other.Node().ID().String()))
}

func (b *Behavior) invoke(fn string, arg lua.LValue) {
	if b.disabled {
		return
	}
	owner := b.Owner()
	b.push(owner)
	called, err := b.engine.call(b.module, fn, b.self, arg)
	if err != nil {
		b.disabled = true
		b.engine.log.Error("script disabled",
			zap.String("module", b.module),
			zap.Uint64("entity", uint64(owner.ID())),
			zap.Error(err))
		return
	}
	if called {
		b.pull(owner)
	}
}

func (b *Behavior) push(owner *scene.Entity) {
	t := b.self
	p := owner.Local()
	t.RawSetString("id", lua.LString(owner.ID().String()))
	t.RawSetString("x", lua.LNumber(p[0]))
	t.RawSetString("y", lua.LNumber(p[1]))
	t.RawSetString("z", lua.LNumber(p[2]))
	if body, ok := owner.Object().(*physics.Body); ok {
		t.RawSetString("vx", lua.LNumber(body.Velocity[0]))
		t.RawSetString("vy", lua.LNumber(body.Velocity[1]))
		t.RawSetString("vz", lua.LNumber(body.Velocity[2]))
	}
}

func (b *Behavior) pull(owner *scene.Entity) {
	t := b.self
	p := owner.Local()
	owner.SetLocal(vmath.V3(lNum(t, "x", p[0]), lNum(t, "y", p[1]), lNum(t, "z", p[2])))
	if body, ok := owner.Object().(*physics.Body); ok {
		v := body.Velocity
		body.Velocity = vmath.V3(lNum(t, "vx", v[0]), lNum(t, "vy", v[1]), lNum(t, "vz", v[2]))
	}
}
