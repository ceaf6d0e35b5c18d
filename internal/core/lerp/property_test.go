package lerp

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runicrealm/engine/internal/core/vmath"
)

func TestGetBeforeUpdateReadsLive(t *testing.T) {
	v := 3.0
	p := NewFloat(func() float64 { return v })
	assert.Equal(t, 3.0, p.Get(0.5))
	v = 4
	assert.Equal(t, 4.0, p.Get(0.5))
}

func TestFirstSnapshotHasNoMotion(t *testing.T) {
	pos := vmath.V2(2, 2)
	p := NewVec3(func() vmath.Vec3 { return pos })
	p.Update()

	pos = vmath.V2(100, 100)
	assert.Equal(t, vmath.V2(2, 2), p.Get(0))
	assert.Equal(t, vmath.V2(2, 2), p.Get(1))
	assert.Equal(t, p.Current(), p.Previous())
}

func TestGetEndpointsAndMidpoint(t *testing.T) {
	x := 0.0
	p := NewFloat(func() float64 { return x })
	p.Update()
	x = 10
	p.Update()

	assert.Equal(t, 0.0, p.Get(0))
	assert.Equal(t, 10.0, p.Get(1))
	assert.Equal(t, 5.0, p.Get(0.5))
	assert.Equal(t, 10.0, p.Get(7), "alpha is clamped")
	assert.Equal(t, 0.0, p.Get(-1), "alpha is clamped")
}

func TestGetEndpointsAreExact(t *testing.T) {
	pairs := [][2]float64{
		{1e16, 1},
		{48.84004173065114, -98.21180991437704},
		{-1e-300, 1e300},
		{0.1, 0.7},
	}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		pairs = append(pairs, [2]float64{rng.Float64()*200 - 100, rng.Float64()*200 - 100})
	}

	for _, pair := range pairs {
		x := pair[0]
		p := NewFloat(func() float64 { return x })
		p.Update()
		x = pair[1]
		p.Update()

		assert.Equal(t, p.Previous(), p.Get(0), "prev=%v cur=%v", pair[0], pair[1])
		assert.Equal(t, p.Current(), p.Get(1), "prev=%v cur=%v", pair[0], pair[1])
	}
}

func TestGetEndpointsAreExactVec3(t *testing.T) {
	pos := vmath.V2(0.1, 1e17)
	p := NewVec3(func() vmath.Vec3 { return pos })
	p.Update()
	pos = vmath.V2(0.7, 3)
	p.Update()

	assert.Equal(t, vmath.V2(0.1, 1e17), p.Get(0))
	assert.Equal(t, vmath.V2(0.7, 3), p.Get(1))
}

func TestUpdateShiftsOnce(t *testing.T) {
	x := 1.0
	p := NewFloat(func() float64 { return x })
	p.Update()
	x = 2
	p.Update()
	x = 3
	p.Update()

	assert.Equal(t, 2.0, p.Previous())
	assert.Equal(t, 3.0, p.Current())
}

func TestReset(t *testing.T) {
	x := 1.0
	p := NewFloat(func() float64 { return x })
	p.Update()
	x = 5
	p.Update()
	p.Reset()

	x = 9
	assert.Equal(t, 9.0, p.Get(0))
}
