package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolSequenceIsDeterministic(t *testing.T) {
	a, b := NewPool(), NewPool()
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestPoolNeverReturnsZero(t *testing.T) {
	p := NewPool()
	id := p.Next()
	assert.False(t, id.IsZero())
	assert.Equal(t, uint32(1), id.Index())
	assert.False(t, p.Alive(0))
}

func TestPoolReleaseBumpsGeneration(t *testing.T) {
	p := NewPool()
	first := p.Next()
	require.True(t, p.Alive(first))

	p.Release(first)
	assert.False(t, p.Alive(first))
	assert.Equal(t, 0, p.Live())

	reused := p.Next()
	assert.Equal(t, first.Index(), reused.Index())
	assert.Equal(t, first.Generation()+1, reused.Generation())
	assert.NotEqual(t, first, reused)

	// stale release must not free the reused slot
	p.Release(first)
	assert.True(t, p.Alive(reused))
	assert.Equal(t, 1, p.Live())
}

func TestNewNetIDIsUUID(t *testing.T) {
	a, b := NewNetID(), NewNetID()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
