package netsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var greeted string
	reg.Register(OpUser, func(r *Reader) { greeted = r.ReadS() })

	out := &captureSender{}
	host := NewNetwork(out, reg.Handle, zap.NewNop())
	require.NoError(t, host.SendCustom(OpUser, func(w *Writer) { w.WriteS("hello") }))
	require.Len(t, out.msgs, 1)

	require.NoError(t, host.Receive(out.msgs[0]))
	assert.Equal(t, "hello", greeted)

	require.NoError(t, host.Receive([]byte{OpUser + 1}))
	assert.Equal(t, uint64(1), reg.Unknown())
	assert.Panics(t, func() { reg.Register(OpUpdate, func(*Reader) {}) })
}

func TestResyncRequest(t *testing.T) {
	out := &captureSender{}
	host := NewNetwork(out, nil, zap.NewNop())
	reg := NewRegistry(zap.NewNop())
	reg.Register(OpResync, func(*Reader) { host.Resync() })
	host.custom = reg.Handle

	host.AddWriting(NewIntVar("score", func() int32 { return 3 }, nil))
	assert.Equal(t, 1, host.Update(0))
	assert.Equal(t, 0, host.Update(0), "unchanged")

	require.NoError(t, host.Receive([]byte{OpResync}))
	assert.Equal(t, 1, host.Update(0))
}
