// Package term draws the render scene into a terminal with tcell and feeds
// terminal key and mouse events into the input queue.
package term

import (
	"context"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/runicrealm/engine/internal/input"
	"github.com/runicrealm/engine/internal/render"
)

// Terminal cells are roughly twice as tall as they are wide, so one world
// unit spans two columns per row.
const columnsPerRow = 2

type Backend struct {
	screen       tcell.Screen
	cellsPerUnit float64

	buttons tcell.ButtonMask
}

var _ render.Backend = (*Backend)(nil)

// Open initialises the real terminal.
func Open(cellsPerUnit float64) (*Backend, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("new screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.EnableMouse()
	return New(screen, cellsPerUnit), nil
}

// New wraps an initialised screen.
func New(screen tcell.Screen, cellsPerUnit float64) *Backend {
	if cellsPerUnit <= 0 {
		cellsPerUnit = 1
	}
	return &Backend{screen: screen, cellsPerUnit: cellsPerUnit}
}

func (b *Backend) Screen() tcell.Screen { return b.screen }

func (b *Backend) Close() { b.screen.Fini() }

// Draw clears the screen and paints every visible mesh as a block of its
// glyph, centred on the camera with Y up.
func (b *Backend) Draw(s *render.Scene, c *render.Camera) error {
	b.screen.Clear()
	w, h := b.screen.Size()
	if w == 0 || h == 0 {
		return fmt.Errorf("terminal has no area (%dx%d)", w, h)
	}
	scale := b.cellsPerUnit * c.Scale()
	for _, m := range s.Meshes() {
		if !m.Visible {
			continue
		}
		rel := m.Position.Sub(c.Position)
		col := w/2 + int(math.Round(rel[0]*scale*columnsPerRow))
		row := h/2 - int(math.Round(rel[1]*scale))
		cw := max(1, int(math.Round(m.Scale[0]*scale*columnsPerRow)))
		ch := max(1, int(math.Round(m.Scale[1]*scale)))
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(m.Color.R), int32(m.Color.G), int32(m.Color.B)))
		for y := row - ch/2; y < row-ch/2+ch; y++ {
			for x := col - cw/2; x < col-cw/2+cw; x++ {
				if x >= 0 && y >= 0 && x < w && y < h {
					b.screen.SetContent(x, y, m.Glyph, nil, style)
				}
			}
		}
	}
	b.screen.Show()
	return nil
}

// Pump forwards terminal events into q until ctx is cancelled or the screen
// is finalised. Escape and Ctrl-C call quit.
func (b *Backend) Pump(ctx context.Context, q *input.Queue, quit func()) error {
	stop := context.AfterFunc(ctx, func() {
		_ = b.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := b.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				if quit != nil {
					quit()
				}
				continue
			}
			if sym := keySymbol(ev); sym != "" {
				// terminals report repeats, never releases
				q.Tap(sym)
			}
		case *tcell.EventMouse:
			b.mouse(ev, q)
		case *tcell.EventResize:
			b.screen.Sync()
		}
	}
}

var mouseButtons = [...]tcell.ButtonMask{tcell.Button1, tcell.Button2, tcell.Button3}

func (b *Backend) mouse(ev *tcell.EventMouse, q *input.Queue) {
	x, y := ev.Position()
	q.Push(input.Event{Kind: input.PointerMove, X: float64(x), Y: float64(y)})

	btn := ev.Buttons()
	for i, m := range mouseButtons {
		was, is := b.buttons&m != 0, btn&m != 0
		switch {
		case is && !was:
			q.Push(input.Event{Kind: input.ButtonDown, Button: i})
		case was && !is:
			q.Push(input.Event{Kind: input.ButtonUp, Button: i})
		}
	}
	if btn&tcell.WheelUp != 0 {
		q.Push(input.Event{Kind: input.Wheel, Delta: -1})
	}
	if btn&tcell.WheelDown != 0 {
		q.Push(input.Event{Kind: input.Wheel, Delta: 1})
	}
	b.buttons = btn
}

// keySymbol names keys the way browsers do, so scripts and behaviors can use
// the same symbols on every backend.
func keySymbol(ev *tcell.EventKey) string {
	switch ev.Key() {
	case tcell.KeyRune:
		return string(ev.Rune())
	case tcell.KeyUp:
		return "ArrowUp"
	case tcell.KeyDown:
		return "ArrowDown"
	case tcell.KeyLeft:
		return "ArrowLeft"
	case tcell.KeyRight:
		return "ArrowRight"
	case tcell.KeyEnter:
		return "Enter"
	case tcell.KeyTab:
		return "Tab"
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return "Backspace"
	}
	return tcell.KeyNames[ev.Key()]
}
