package data

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/runicrealm/engine/internal/core/physics"
	"github.com/runicrealm/engine/internal/core/vmath"
)

var ErrInvalidLevel = errors.New("invalid level")

// Vec is a 2 or 3 element YAML sequence. Missing components are zero.
type Vec []float64

func (v Vec) Vec3() vmath.Vec3 {
	var out vmath.Vec3
	copy(out[:], v)
	return out
}

// Level describes the entities a scene starts with.
type Level struct {
	Name     string      `yaml:"name"`
	Entities []EntityDef `yaml:"entities"`
	Tiles    *TileMap    `yaml:"tiles"`
}

type EntityDef struct {
	Name     string      `yaml:"name"`
	Position Vec         `yaml:"position"`
	Body     *BodyDef    `yaml:"body"`
	Sprite   *SpriteDef  `yaml:"sprite"`
	Script   string      `yaml:"script"` // Lua module name
	Move     *MoveDef    `yaml:"move"`
	Camera   bool        `yaml:"camera"` // camera follows this entity
	Sync     string      `yaml:"sync"`   // "", "write" or "read": network position sync
	Children []EntityDef `yaml:"children"`
}

type BodyDef struct {
	Mass        float64     `yaml:"mass"`
	Restitution float64     `yaml:"restitution"`
	Category    string      `yaml:"category"` // dynamic, kinematic, trigger
	Velocity    Vec         `yaml:"velocity"`
	Boxes       []BoxDef    `yaml:"boxes"`
	Circles     []CircleDef `yaml:"circles"`
}

type BoxDef struct {
	Offset Vec     `yaml:"offset"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

type CircleDef struct {
	Offset Vec     `yaml:"offset"`
	Radius float64 `yaml:"radius"`
}

type SpriteDef struct {
	Glyph   string  `yaml:"glyph"`
	Color   string  `yaml:"color"`   // "#rrggbb" or a colour name
	Texture string  `yaml:"texture"` // asset name; its average colour tints the sprite
	Scale   float64 `yaml:"scale"`
}

type MoveDef struct {
	Speed float64 `yaml:"speed"`
}

// TileMap is a character grid. Row 0 is the top row; every character listed
// in Solid becomes a kinematic box of Size×Size.
type TileMap struct {
	Size   float64  `yaml:"size"`
	Origin Vec      `yaml:"origin"` // world position of the bottom-left cell centre
	Solid  string   `yaml:"solid"`
	Rows   []string `yaml:"rows"`
}

// Tile is one solid cell.
type Tile struct {
	Position vmath.Vec3
	Glyph    rune
}

// LoadLevel reads and validates a level file.
func LoadLevel(path string) (*Level, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	lvl, err := ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("level %s: %w", path, err)
	}
	return lvl, nil
}

func ParseLevel(raw []byte) (*Level, error) {
	var lvl Level
	if err := yaml.Unmarshal(raw, &lvl); err != nil {
		return nil, fmt.Errorf("parse level: %w", err)
	}
	if err := lvl.Validate(); err != nil {
		return nil, err
	}
	return &lvl, nil
}

func (l *Level) Validate() error {
	for i := range l.Entities {
		if err := l.Entities[i].validate(fmt.Sprintf("entities[%d]", i)); err != nil {
			return err
		}
	}
	if t := l.Tiles; t != nil {
		if t.Size <= 0 {
			return fmt.Errorf("%w: tiles.size must be positive", ErrInvalidLevel)
		}
		if err := checkVec("tiles.origin", t.Origin); err != nil {
			return err
		}
	}
	return nil
}

func (e *EntityDef) validate(at string) error {
	if err := checkVec(at+".position", e.Position); err != nil {
		return err
	}
	switch e.Sync {
	case "", "write", "read":
	default:
		return fmt.Errorf("%w: %s.sync: unknown mode %q", ErrInvalidLevel, at, e.Sync)
	}
	if b := e.Body; b != nil {
		if b.Mass < 0 {
			return fmt.Errorf("%w: %s.body.mass is negative", ErrInvalidLevel, at)
		}
		if _, err := physics.ParseCategory(b.Category); err != nil {
			return fmt.Errorf("%w: %s.body: %v", ErrInvalidLevel, at, err)
		}
		if err := checkVec(at+".body.velocity", b.Velocity); err != nil {
			return err
		}
		for j, box := range b.Boxes {
			if box.Width <= 0 || box.Height <= 0 {
				return fmt.Errorf("%w: %s.body.boxes[%d] needs a positive size", ErrInvalidLevel, at, j)
			}
		}
		for j, c := range b.Circles {
			if c.Radius <= 0 {
				return fmt.Errorf("%w: %s.body.circles[%d] needs a positive radius", ErrInvalidLevel, at, j)
			}
		}
	}
	for i := range e.Children {
		if err := e.Children[i].validate(fmt.Sprintf("%s.children[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}

func checkVec(at string, v Vec) error {
	switch len(v) {
	case 0, 2, 3:
		return nil
	}
	return fmt.Errorf("%w: %s must have 2 or 3 components, got %d", ErrInvalidLevel, at, len(v))
}

// Cells lists the solid tiles with Y pointing up.
func (t *TileMap) Cells() []Tile {
	var out []Tile
	origin := t.Origin.Vec3()
	last := len(t.Rows) - 1
	for row, line := range t.Rows {
		col := 0
		for _, r := range line {
			if isSolid(t.Solid, r) {
				out = append(out, Tile{
					Position: origin.Add(vmath.V2(float64(col)*t.Size, float64(last-row)*t.Size)),
					Glyph:    r,
				})
			}
			col++
		}
	}
	return out
}

func isSolid(solid string, r rune) bool {
	for _, s := range solid {
		if s == r {
			return true
		}
	}
	return false
}
