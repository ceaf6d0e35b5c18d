package scene

import "time"

// Behavior is a named unit of per-tick and per-frame logic attached to one
// Entity. Implementations embed Base, which supplies the owner bookkeeping.
type Behavior interface {
	Name() string
	Owner() *Entity
	bind(owner *Entity)
}

// Base is embedded by every behavior.
type Base struct {
	name  string
	owner *Entity
}

func NewBase(name string) Base {
	return Base{name: name}
}

func (b *Base) Name() string   { return b.name }
func (b *Base) Owner() *Entity { return b.owner }

func (b *Base) bind(owner *Entity) { b.owner = owner }

// Optional capabilities. The entity checks for each with a type assertion,
// so a behavior implements only the hooks it needs.

type Updater interface {
	Update(dt time.Duration)
}

type Renderer interface {
	Render(alpha float64)
}

type Attacher interface {
	OnAttached()
}

type Detacher interface {
	OnDetached()
}

type SceneEnterer interface {
	OnAddedToScene()
}

type SceneExiter interface {
	OnRemovedFromScene()
}

// TriggerHandler is notified when the owning body overlaps a trigger, or is one.
type TriggerHandler interface {
	OnTriggerHit(other Object)
}
