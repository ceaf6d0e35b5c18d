package assets

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// wavBytes builds a 16-bit mono PCM file holding the given samples.
func wavBytes(samples []int16) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	dataLen := uint32(len(samples) * 2)
	buf.WriteString("RIFF")
	binary.Write(&buf, le, 36+dataLen)
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1))    // PCM
	binary.Write(&buf, le, uint16(1))    // mono
	binary.Write(&buf, le, uint32(8000)) // sample rate
	binary.Write(&buf, le, uint32(16000))
	binary.Write(&buf, le, uint16(2))
	binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, le, dataLen)
	binary.Write(&buf, le, samples)
	return buf.Bytes()
}

func testFS(t *testing.T) fstest.MapFS {
	return fstest.MapFS{
		"text/hello.txt":    {Data: []byte("hello")},
		"img/red.png":       {Data: pngBytes(t)},
		"img/broken.png":    {Data: []byte("not a png")},
		"sfx/blip.wav":      {Data: wavBytes([]int16{0, 1000, -1000, 0})},
		"levels/small.yaml": {Data: []byte("name: small\nentities: [{name: a}]\n")},
	}
}

func TestAssetLifecycle(t *testing.T) {
	a := NewTextAsset(testFS(t), "hello", "text/hello.txt")
	assert.Equal(t, NotStarted, a.Status())
	assert.Zero(t, a.Progress())
	_, ok := a.Resource()
	assert.False(t, ok)

	var got string
	a.OnComplete(func(s string) { got = s })
	require.NoError(t, a.Fetch(context.Background()))
	assert.Equal(t, Loaded, a.Status())
	assert.Equal(t, 1.0, a.Progress())
	assert.Empty(t, got, "listeners wait for Dispatch")

	assert.True(t, a.Dispatch())
	assert.Equal(t, "hello", got)
	assert.False(t, a.Dispatch(), "delivered once")

	var late string
	a.OnComplete(func(s string) { late = s })
	assert.Equal(t, "hello", late, "attach after delivery fires at once")
}

func TestAssetFailure(t *testing.T) {
	a := NewTextAsset(testFS(t), "missing", "text/nope.txt")
	var gotErr error
	a.OnError(func(err error) { gotErr = err })
	a.OnComplete(func(string) { t.Fatal("must not complete") })

	err := a.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, Failed, a.Status())
	assert.ErrorIs(t, gotErr, err)
	assert.Contains(t, a.Err().Error(), "missing")

	var late error
	a.OnError(func(err error) { late = err })
	assert.Equal(t, gotErr, late)
}

func TestAssetCancelStopsForwarding(t *testing.T) {
	a := NewTextAsset(testFS(t), "hello", "text/hello.txt")
	called := false
	a.OnComplete(func(string) { called = true })
	a.Cancel()
	require.NoError(t, a.Load(context.Background()))
	assert.False(t, called)
	assert.Equal(t, Loaded, a.Status())
}

func TestLoaders(t *testing.T) {
	fsys := testFS(t)
	ctx := context.Background()

	tex := NewTextureAsset(fsys, "red", "img/red.png")
	require.NoError(t, tex.Load(ctx))
	img, ok := tex.Resource()
	require.True(t, ok)
	assert.Equal(t, 2, img.Bounds().Dx())

	broken := NewTextureAsset(fsys, "broken", "img/broken.png")
	assert.Error(t, broken.Load(ctx))

	snd := NewSoundAsset(fsys, "blip", "sfx/blip.wav")
	require.NoError(t, snd.Load(ctx))
	s, ok := snd.Resource()
	require.True(t, ok)
	assert.Equal(t, 4, s.Buffer.Len())
	assert.Equal(t, 1, s.Format.NumChannels)

	lvl := NewLevelAsset(fsys, "small", "levels/small.yaml")
	require.NoError(t, lvl.Load(ctx))
	l, _ := lvl.Resource()
	assert.Equal(t, "small", l.Name)
}

func TestLoaderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewTextAsset(testFS(t), "hello", "text/hello.txt")
	assert.ErrorIs(t, a.Load(ctx), context.Canceled)
}

func newManager(t *testing.T) *Manager {
	m := NewManager(testFS(t), zap.NewNop())
	m.Add("boot", NewTextAsset(m.FS(), "hello", "text/hello.txt"))
	m.Add("boot", NewTextureAsset(m.FS(), "red", "img/red.png"))
	m.Add("bad", NewTextAsset(m.FS(), "missing", "text/nope.txt"))
	m.Add("bad", NewTextAsset(m.FS(), "after", "text/hello.txt"))
	return m
}

func TestManagerLookup(t *testing.T) {
	m := newManager(t)
	assert.True(t, m.Has("hello"))
	_, ok := m.Get("nope")
	assert.False(t, ok)

	_, err := Lookup[string](m, "hello")
	assert.NoError(t, err)
	_, err = Lookup[image.Image](m, "hello")
	assert.ErrorIs(t, err, ErrAssetType)
	_, err = Lookup[string](m, "nope")
	assert.ErrorIs(t, err, ErrUnknownAsset)
	assert.ErrorIs(t, m.Load(context.Background(), "nope"), ErrUnknownAsset)
}

func TestManagerLoadGroup(t *testing.T) {
	m := newManager(t)
	var loaded []string
	m.OnLoaded = func(name string) { loaded = append(loaded, name) }

	require.NoError(t, m.LoadGroup(context.Background(), "boot"))
	assert.True(t, m.GroupLoaded("boot"))
	assert.False(t, m.GroupFailed("boot"))
	assert.ElementsMatch(t, []string{"hello", "red"}, loaded)
}

func TestManagerLoadGroupOrderedStopsAtFailure(t *testing.T) {
	m := newManager(t)
	var failed []string
	m.OnFailed = func(name string, err error) { failed = append(failed, name) }

	err := m.LoadGroupOrdered(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, []string{"missing"}, failed)
	assert.True(t, m.GroupFailed("bad"))
	assert.False(t, m.GroupLoaded("bad"))

	after, _ := m.Get("after")
	assert.Equal(t, NotStarted, after.Status())
}

func TestManagerAsyncDeliversOnPoll(t *testing.T) {
	m := newManager(t)
	m.LoadGroupAsync(context.Background(), "boot")
	m.Wait()

	assert.True(t, m.GroupLoaded("boot"))
	assert.Equal(t, 2, m.Poll())
	assert.Zero(t, m.Poll())
}

func TestGetOrLoad(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	var got string
	require.NoError(t, GetOrLoad(ctx, m, "hello", func(s string) { got = s }, nil))
	m.Wait()
	assert.Empty(t, got)
	assert.Equal(t, 1, m.Poll())
	assert.Equal(t, "hello", got)

	// already delivered: the listener runs immediately
	var again string
	require.NoError(t, GetOrLoad(ctx, m, "hello", func(s string) { again = s }, nil))
	assert.Equal(t, "hello", again)

	var failErr error
	require.NoError(t, GetOrLoad[string](ctx, m, "missing", nil, func(err error) { failErr = err }))
	m.Wait()
	m.Poll()
	assert.Error(t, failErr)

	assert.ErrorIs(t, GetOrLoad[string](ctx, m, "nope", nil, nil), ErrUnknownAsset)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
