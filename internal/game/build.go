package game

import (
	"context"
	"fmt"
	"image"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/assets"
	"github.com/runicrealm/engine/internal/core/physics"
	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
	"github.com/runicrealm/engine/internal/data"
	"github.com/runicrealm/engine/internal/input"
	"github.com/runicrealm/engine/internal/netsync"
	"github.com/runicrealm/engine/internal/render"
	"github.com/runicrealm/engine/internal/scripting"
)

const defaultGlyph = '@'

// LoadLevel registers the level file at path (relative to the asset file
// system) as an asset, loads it and builds it into the scene.
func (g *Game) LoadLevel(ctx context.Context, path string) (*data.Level, error) {
	name := "level:" + path
	if !g.assets.Has(name) {
		g.assets.Add("levels", assets.NewLevelAsset(g.assets.FS(), name, path))
	}
	if err := g.assets.Load(ctx, name); err != nil {
		return nil, err
	}
	a, err := assets.Lookup[*data.Level](g.assets, name)
	if err != nil {
		return nil, err
	}
	lvl, _ := a.Resource()
	if err := g.Build(ctx, lvl); err != nil {
		return nil, err
	}
	return lvl, nil
}

// Build creates the level's entities and tiles and adds them as roots.
// When any definition fails nothing is added, and the ids and sync vars drawn
// so far are given back. Texture loads already started still finish and stay
// cached in the asset manager.
func (g *Game) Build(ctx context.Context, lvl *data.Level) error {
	var roots []scene.Object
	for i := range lvl.Entities {
		obj, err := g.buildEntity(ctx, &lvl.Entities[i])
		if err != nil {
			for _, built := range roots {
				g.discard(built.Node())
			}
			return fmt.Errorf("level %q: %w", lvl.Name, err)
		}
		roots = append(roots, obj)
	}
	if lvl.Tiles != nil {
		for _, t := range lvl.Tiles.Cells() {
			roots = append(roots, g.buildTile(lvl.Tiles.Size, t))
		}
	}
	for _, obj := range roots {
		g.Add(obj)
	}
	g.log.Info("level built",
		zap.String("level", lvl.Name),
		zap.Int("roots", len(roots)),
		zap.Int("bodies", g.world.Len()))
	return nil
}

func (g *Game) buildEntity(ctx context.Context, def *data.EntityDef) (_ scene.Object, err error) {
	pos := def.Position.Vec3()

	var (
		obj scene.Object
		e   *scene.Entity
	)
	defer func() {
		if err != nil && e != nil {
			g.discard(e)
		}
	}()
	if bd := def.Body; bd != nil {
		b, err := g.buildBody(pos, bd)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
		obj, e = b, b.Entity
	} else {
		e = g.NewEntity(pos)
		obj = e
	}

	if sd := def.Sprite; sd != nil {
		if err := g.attachSprite(ctx, e, sd); err != nil {
			return nil, fmt.Errorf("%s: %w", def.Name, err)
		}
	}
	if def.Script != "" {
		if g.scripts == nil {
			return nil, fmt.Errorf("%s: script %q needs a script engine", def.Name, def.Script)
		}
		if !g.scripts.HasModule(def.Script) {
			return nil, fmt.Errorf("%s: %w: %s", def.Name, scripting.ErrNoModule, def.Script)
		}
		e.Attach(scripting.NewBehavior(g.scripts, def.Script))
	}
	if def.Move != nil {
		e.Attach(input.NewMove(g.input, def.Move.Speed))
	}
	if def.Camera {
		e.Attach(render.NewFollow(g.frame.Camera()))
	}
	if def.Sync != "" {
		if err := g.bindSync(e, def); err != nil {
			return nil, err
		}
	}

	for i := range def.Children {
		child, err := g.buildEntity(ctx, &def.Children[i])
		if err != nil {
			return nil, err
		}
		e.AddChild(child.Node(), false)
	}
	return obj, nil
}

// discard undoes a build that never reached the scene: it drops the sync vars
// bound to e and its children, releases their ids and retires them.
func (g *Game) discard(e *scene.Entity) {
	e.Walk(func(n *scene.Entity) {
		id := n.ID()
		for _, s := range g.syncs[id] {
			g.net.RemoveReading(s)
			g.net.RemoveWriting(s)
		}
		delete(g.syncs, id)
		g.pool.Release(id)
	})
	e.Retire()
}

func (g *Game) buildBody(pos vmath.Vec3, bd *data.BodyDef) (*physics.Body, error) {
	cat, err := physics.ParseCategory(bd.Category)
	if err != nil {
		return nil, err
	}
	b := g.NewBody(pos, bd.Mass, bd.Restitution)
	b.SetCategory(cat)
	b.Velocity = bd.Velocity.Vec3()
	for _, bx := range bd.Boxes {
		box := physics.NewBox(bx.Width, bx.Height)
		box.Offset = bx.Offset.Vec3()
		b.AddShape(box)
	}
	for _, c := range bd.Circles {
		circle := physics.NewCircle(c.Radius)
		circle.Offset = c.Offset.Vec3()
		b.AddShape(circle)
	}
	return b, nil
}

func (g *Game) attachSprite(ctx context.Context, e *scene.Entity, sd *data.SpriteDef) error {
	glyph := rune(defaultGlyph)
	if r, _ := utf8.DecodeRuneInString(sd.Glyph); r != utf8.RuneError {
		glyph = r
	}
	c, err := render.ParseColor(sd.Color)
	if err != nil {
		return err
	}
	scale := sd.Scale
	if scale <= 0 {
		scale = 1
	}
	sprite := render.NewSprite(g.frame.Scene(), glyph, vmath.V3(scale, scale, scale), c)
	e.Attach(sprite)

	if sd.Texture == "" {
		return nil
	}
	if !g.assets.Has(sd.Texture) {
		g.assets.Add("textures", assets.NewTextureAsset(g.assets.FS(), sd.Texture, sd.Texture))
	}
	// a texture that fails to load leaves the sprite with its own colour
	return assets.GetOrLoad[image.Image](ctx, g.assets, sd.Texture, sprite.SetTexture, func(err error) {
		g.log.Warn("sprite texture unavailable",
			zap.Uint64("entity", uint64(e.ID())),
			zap.String("texture", sd.Texture),
			zap.Error(err))
	})
}

func (g *Game) bindSync(e *scene.Entity, def *data.EntityDef) error {
	if g.net == nil {
		g.log.Warn("network disabled, sync ignored", zap.String("entity", def.Name))
		return nil
	}
	if def.Name == "" {
		return fmt.Errorf("entity at %v: sync needs a name", def.Position)
	}
	v := netsync.NewVec3Var("pos:"+def.Name, e.Local, e.SetLocal)
	switch def.Sync {
	case "write":
		g.net.AddWriting(v)
	case "read":
		g.net.AddReading(v)
	}
	g.syncs[e.ID()] = append(g.syncs[e.ID()], v)
	return nil
}

func (g *Game) buildTile(size float64, t data.Tile) *physics.Body {
	b := g.NewBody(t.Position, 0, 0)
	b.SetCategory(physics.Kinematic)
	b.AddShape(physics.NewBox(size, size))
	b.Attach(render.NewSprite(g.frame.Scene(), t.Glyph, vmath.V3(size, size, size), render.White))
	return b
}
