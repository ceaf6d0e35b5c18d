package render

import (
	"image"
	"image/color"
	"time"

	"github.com/runicrealm/engine/internal/core/lerp"
	"github.com/runicrealm/engine/internal/core/scene"
	"github.com/runicrealm/engine/internal/core/vmath"
)

// Sprite draws its owner as a single glyph. The mesh exists only while the
// owner is in the scene.
type Sprite struct {
	scene.Base
	Glyph rune
	Scale vmath.Vec3
	Color color.RGBA

	target *Scene
	mesh   *Mesh
	pos    *lerp.Property[vmath.Vec3]
}

func NewSprite(target *Scene, glyph rune, scale vmath.Vec3, c color.RGBA) *Sprite {
	return &Sprite{Base: scene.NewBase("sprite"), Glyph: glyph, Scale: scale, Color: c, target: target}
}

// Mesh is nil while the owner is out of the scene.
func (s *Sprite) Mesh() *Mesh { return s.mesh }

func (s *Sprite) OnAttached() {
	s.pos = lerp.NewVec3(s.Owner().GlobalPosition)
}

func (s *Sprite) OnAddedToScene() {
	s.mesh = &Mesh{
		Glyph:    s.Glyph,
		Position: s.Owner().GlobalPosition(),
		Scale:    s.Scale,
		Color:    s.Color,
		Visible:  true,
	}
	s.target.Add(s.mesh)
}

func (s *Sprite) OnRemovedFromScene() {
	s.target.Remove(s.mesh)
	s.mesh = nil
}

func (s *Sprite) Update(time.Duration) {
	s.pos.Update()
}

func (s *Sprite) Render(alpha float64) {
	if s.mesh == nil {
		return
	}
	s.mesh.Position = s.pos.Get(alpha)
	s.mesh.Scale = s.Scale
	s.mesh.Color = s.Color
	s.mesh.Glyph = s.Glyph
}

// Teleport drops the previous snapshot so the next frame draws at the new
// position without sliding.
func (s *Sprite) Teleport() { s.pos.Reset() }

// SetTexture tints the sprite with the texture's average colour. Terminal
// backends cannot draw the image itself.
func (s *Sprite) SetTexture(img image.Image) {
	s.Color = averageColor(img)
}

func averageColor(img image.Image) color.RGBA {
	b := img.Bounds()
	var r, g, bl, n uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cr, cg, cb, ca := img.At(x, y).RGBA()
			if ca == 0 {
				continue
			}
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			bl += uint64(cb >> 8)
			n++
		}
	}
	if n == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(bl / n), A: 255}
}

// Follow moves a camera with its owner, interpolated like a sprite.
type Follow struct {
	scene.Base
	cam *Camera
	pos *lerp.Property[vmath.Vec3]
}

func NewFollow(cam *Camera) *Follow {
	return &Follow{Base: scene.NewBase("camera"), cam: cam}
}

func (f *Follow) OnAttached() {
	f.pos = lerp.NewVec3(f.Owner().GlobalPosition)
}

func (f *Follow) Update(time.Duration) { f.pos.Update() }

func (f *Follow) Render(alpha float64) {
	f.cam.Position = f.pos.Get(alpha)
}
