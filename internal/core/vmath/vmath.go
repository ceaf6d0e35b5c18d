// Package vmath is the vector glue shared by the scene, physics and render
// packages. Vectors are mathgl values, so copying a Vec3 clones it.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vec3 is a 3D vector. Physics only uses X and Y; Z is carried for rendering depth.
type Vec3 = mgl64.Vec3

// Zero is the origin.
var Zero = Vec3{}

// Axis unit vectors.
var (
	UnitX = Vec3{1, 0, 0}
	UnitY = Vec3{0, 1, 0}
	UnitZ = Vec3{0, 0, 1}
)

func V2(x, y float64) Vec3    { return Vec3{x, y, 0} }
func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Lerp interpolates a→b by t. t is not clamped.
func Lerp(a, b Vec3, t float64) Vec3 {
	return Vec3{LerpFloat(a[0], b[0], t), LerpFloat(a[1], b[1], t), LerpFloat(a[2], b[2], t)}
}

// LerpFloat interpolates scalars. The weighted form returns a and b exactly
// at t=0 and t=1 whatever their magnitudes.
func LerpFloat(a, b, t float64) float64 {
	return a*(1-t) + b*t
}

// Clamp01 clamps t into [0, 1]. NaN maps to 0.
func Clamp01(t float64) float64 {
	if t != t || t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// ApproxEqual reports whether every component of a and b differs by at most eps.
func ApproxEqual(a, b Vec3, eps float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			return false
		}
	}
	return true
}

// Normalize returns v scaled to unit length, or the zero vector when v has none.
func Normalize(v Vec3) Vec3 {
	l := v.Len()
	if l == 0 {
		return Zero
	}
	return v.Mul(1 / l)
}
