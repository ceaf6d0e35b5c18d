package physics

import (
	"math"

	"github.com/runicrealm/engine/internal/core/vmath"
)

// Contact describes how two shapes intersect. Normal is a unit vector
// pointing from the first body towards the second.
type Contact struct {
	Normal      vmath.Vec3
	Penetration float64
	Point       vmath.Vec3
}

// Shape is a narrow-phase test object attached to a body. Both methods take
// the owning bodies because shapes are positioned relative to them.
// Unsupported shape pairs report no contact.
type Shape interface {
	Collide(us *Body, other Shape, them *Body) (Contact, bool)
	Overlaps(us *Body, other Shape, them *Body) bool
}

var (
	_ Shape = (*Box)(nil)
	_ Shape = (*Circle)(nil)
)

// Box is an axis-aligned rectangle in the XY plane centred on the body's
// global position plus Offset.
type Box struct {
	Offset vmath.Vec3
	Width  float64
	Height float64
}

func NewBox(w, h float64) *Box { return &Box{Width: w, Height: h} }

func (s *Box) center(b *Body) vmath.Vec3 { return b.GlobalPosition().Add(s.Offset) }

func (s *Box) half() (float64, float64) { return s.Width / 2, s.Height / 2 }

func (s *Box) Collide(us *Body, other Shape, them *Body) (Contact, bool) {
	switch o := other.(type) {
	case *Box:
		return boxBox(s.center(us), s, o.center(them), o)
	case *Circle:
		return boxCircle(s.center(us), s, o.center(them), o.Radius)
	}
	return Contact{}, false
}

func (s *Box) Overlaps(us *Body, other Shape, them *Body) bool {
	if o, ok := other.(*Box); ok {
		ca, cb := s.center(us), o.center(them)
		ahw, ahh := s.half()
		bhw, bhh := o.half()
		return math.Abs(cb.X()-ca.X()) < ahw+bhw && math.Abs(cb.Y()-ca.Y()) < ahh+bhh
	}
	_, ok := s.Collide(us, other, them)
	return ok
}

// Circle is a disc in the XY plane.
type Circle struct {
	Offset vmath.Vec3
	Radius float64
}

func NewCircle(r float64) *Circle { return &Circle{Radius: r} }

func (s *Circle) center(b *Body) vmath.Vec3 { return b.GlobalPosition().Add(s.Offset) }

func (s *Circle) Collide(us *Body, other Shape, them *Body) (Contact, bool) {
	switch o := other.(type) {
	case *Circle:
		return circleCircle(s.center(us), s.Radius, o.center(them), o.Radius)
	case *Box:
		c, ok := boxCircle(o.center(them), o, s.center(us), s.Radius)
		if !ok {
			return Contact{}, false
		}
		c.Normal = c.Normal.Mul(-1)
		return c, true
	}
	return Contact{}, false
}

func (s *Circle) Overlaps(us *Body, other Shape, them *Body) bool {
	_, ok := s.Collide(us, other, them)
	return ok
}

// boxBox separates along the axis of least overlap. Equal overlaps pick X.
// Touching edges do not count.
func boxBox(ca vmath.Vec3, a *Box, cb vmath.Vec3, b *Box) (Contact, bool) {
	ahw, ahh := a.half()
	bhw, bhh := b.half()
	dx := cb.X() - ca.X()
	dy := cb.Y() - ca.Y()
	ox := ahw + bhw - math.Abs(dx)
	oy := ahh + bhh - math.Abs(dy)
	if ox <= 0 || oy <= 0 {
		return Contact{}, false
	}

	px := (math.Max(ca.X()-ahw, cb.X()-bhw) + math.Min(ca.X()+ahw, cb.X()+bhw)) / 2
	py := (math.Max(ca.Y()-ahh, cb.Y()-bhh) + math.Min(ca.Y()+ahh, cb.Y()+bhh)) / 2
	c := Contact{Point: vmath.V3(px, py, ca.Z())}
	if ox <= oy {
		c.Normal = vmath.V2(sign(dx), 0)
		c.Penetration = ox
	} else {
		c.Normal = vmath.V2(0, sign(dy))
		c.Penetration = oy
	}
	return c, true
}

// boxCircle reports the contact with the normal pointing from the box to the circle.
func boxCircle(cb vmath.Vec3, box *Box, cc vmath.Vec3, r float64) (Contact, bool) {
	hw, hh := box.half()
	dx := cc.X() - cb.X()
	dy := cc.Y() - cb.Y()
	qx := clamp(dx, -hw, hw)
	qy := clamp(dy, -hh, hh)
	closest := vmath.V3(cb.X()+qx, cb.Y()+qy, cb.Z())

	if qx != dx || qy != dy {
		diff := vmath.V2(cc.X()-closest.X(), cc.Y()-closest.Y())
		dist := diff.Len()
		if dist >= r {
			return Contact{}, false
		}
		return Contact{Normal: diff.Mul(1 / dist), Penetration: r - dist, Point: closest}, true
	}

	// centre inside the box: push out through the nearest face
	fx := hw - math.Abs(dx)
	fy := hh - math.Abs(dy)
	c := Contact{Point: closest}
	if fx <= fy {
		c.Normal = vmath.V2(sign(dx), 0)
		c.Penetration = fx + r
	} else {
		c.Normal = vmath.V2(0, sign(dy))
		c.Penetration = fy + r
	}
	return c, true
}

func circleCircle(ca vmath.Vec3, ra float64, cb vmath.Vec3, rb float64) (Contact, bool) {
	d := vmath.V2(cb.X()-ca.X(), cb.Y()-ca.Y())
	dist := d.Len()
	sum := ra + rb
	if dist >= sum {
		return Contact{}, false
	}
	n := vmath.UnitX
	if dist > 0 {
		n = d.Mul(1 / dist)
	}
	pen := sum - dist
	return Contact{
		Normal:      n,
		Penetration: pen,
		Point:       ca.Add(n.Mul(ra - pen/2)),
	}, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
