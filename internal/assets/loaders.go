package assets

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/runicrealm/engine/internal/data"
)

func NewTextAsset(fsys fs.FS, name, path string) *Asset[string] {
	return New(name, func(ctx context.Context) (string, error) {
		raw, err := readAll(ctx, fsys, path)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	})
}

// NewTextureAsset decodes a PNG or JPEG image.
func NewTextureAsset(fsys fs.FS, name, path string) *Asset[image.Image] {
	return New(name, func(ctx context.Context) (image.Image, error) {
		f, err := open(ctx, fsys, path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		img, _, err := image.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return img, nil
	})
}

// Sound is a fully decoded clip. Play it with Buffer.Streamer(0, Buffer.Len()).
type Sound struct {
	Format beep.Format
	Buffer *beep.Buffer
}

// NewSoundAsset decodes a WAV file into memory.
func NewSoundAsset(fsys fs.FS, name, path string) *Asset[*Sound] {
	return New(name, func(ctx context.Context) (*Sound, error) {
		f, err := open(ctx, fsys, path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		stream, format, err := wav.Decode(f)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		defer stream.Close()
		buf := beep.NewBuffer(format)
		buf.Append(stream)
		return &Sound{Format: format, Buffer: buf}, nil
	})
}

// NewLevelAsset parses a YAML level description.
func NewLevelAsset(fsys fs.FS, name, path string) *Asset[*data.Level] {
	return New(name, func(ctx context.Context) (*data.Level, error) {
		raw, err := readAll(ctx, fsys, path)
		if err != nil {
			return nil, err
		}
		return data.ParseLevel(raw)
	})
}

func open(ctx context.Context, fsys fs.FS, path string) (fs.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func readAll(ctx context.Context, fsys fs.FS, path string) ([]byte, error) {
	f, err := open(ctx, fsys, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}
