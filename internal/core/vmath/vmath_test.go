package vmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLerpEndpoints(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(5, -2, 7)

	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
	assert.True(t, ApproxEqual(V3(3, 0, 5), Lerp(a, b, 0.5), 1e-12))
}

func TestLerpEndpointsMixedMagnitudes(t *testing.T) {
	cases := []struct{ a, b float64 }{
		{1e16, 1},
		{48.84004173065114, -98.21180991437704},
		{-3.5e-12, 7.25e9},
		{0.1, 0.7},
	}
	for _, c := range cases {
		assert.Equal(t, c.a, LerpFloat(c.a, c.b, 0))
		assert.Equal(t, c.b, LerpFloat(c.a, c.b, 1))
	}

	a := V3(0.1, 1e17, -2)
	b := V3(0.7, 3, 1e-9)
	assert.Equal(t, a, Lerp(a, b, 0))
	assert.Equal(t, b, Lerp(a, b, 1))
}

func TestCloneIsValueCopy(t *testing.T) {
	a := V2(1, 1)
	b := a
	b[0] = 9
	assert.Equal(t, 1.0, a.X())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-3))
	assert.Equal(t, 1.0, Clamp01(2))
	assert.Equal(t, 0.25, Clamp01(0.25))
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, Zero, Normalize(Zero))
	assert.InDelta(t, 1.0, Normalize(V2(3, 4)).Len(), 1e-12)
	assert.InDelta(t, 5.0, V2(3, 4).Len(), 1e-12)
	assert.InDelta(t, 11.0, V2(3, 4).Dot(V2(1, 2)), 1e-12)
}
