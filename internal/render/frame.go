// Package render holds the draw-side view of the game: a retained set of
// meshes, a camera and a pluggable backend that draws them once per frame.
package render

import (
	"fmt"
	"image/color"
	"slices"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/runicrealm/engine/internal/core/vmath"
)

// Mesh is one drawable. Behaviors own their meshes and update them in Render.
type Mesh struct {
	Glyph    rune
	Position vmath.Vec3
	Scale    vmath.Vec3
	Color    color.RGBA
	Visible  bool
}

// Scene is the ordered set of meshes drawn each frame. Later meshes draw on
// top of earlier ones.
type Scene struct {
	meshes []*Mesh
}

func (s *Scene) Add(m *Mesh) {
	if slices.Contains(s.meshes, m) {
		return
	}
	s.meshes = append(s.meshes, m)
}

func (s *Scene) Remove(m *Mesh) bool {
	i := slices.Index(s.meshes, m)
	if i < 0 {
		return false
	}
	s.meshes = slices.Delete(s.meshes, i, i+1)
	return true
}

func (s *Scene) Meshes() []*Mesh { return s.meshes }

func (s *Scene) Len() int { return len(s.meshes) }

type Camera struct {
	Position vmath.Vec3
	Zoom     float64 // world units to backend units; 0 means 1
}

func (c *Camera) Scale() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// Backend draws a scene as seen from a camera.
type Backend interface {
	Draw(s *Scene, c *Camera) error
}

// Frame ties a backend to the scene and camera the game writes into.
type Frame struct {
	backend Backend
	scene   Scene
	camera  Camera
	log     *zap.Logger

	frames   uint64
	failures uint64
}

func NewFrame(backend Backend, log *zap.Logger) *Frame {
	return &Frame{backend: backend, log: log, camera: Camera{Zoom: 1}}
}

func (f *Frame) Scene() *Scene    { return &f.scene }
func (f *Frame) Camera() *Camera  { return &f.camera }
func (f *Frame) Backend() Backend { return f.backend }

// Render draws one frame. Backend errors are logged and the frame is skipped.
func (f *Frame) Render() {
	f.frames++
	if err := f.backend.Draw(&f.scene, &f.camera); err != nil {
		f.failures++
		f.log.Warn("draw failed", zap.Uint64("frame", f.frames), zap.Error(err))
	}
}

func (f *Frame) Frames() uint64   { return f.frames }
func (f *Frame) Failures() uint64 { return f.failures }

// White is the default mesh colour.
var White = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// ParseColor accepts "#rrggbb" or a W3C colour name. Empty means white.
func ParseColor(s string) (color.RGBA, error) {
	if s == "" {
		return White, nil
	}
	c := tcell.GetColor(s)
	if c == tcell.ColorDefault {
		return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
	}
	r, g, b := c.RGB()
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}, nil
}
