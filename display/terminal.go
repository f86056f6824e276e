// Package display presents frames on a terminal through tcell and turns input into interrupts
package display

import (
	"context"
	"fmt"
	"image"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/autozoom/engine"
)

// halfBlock paints the upper half of a cell with the foreground colour
const halfBlock = '▀'

// Terminal draws frames stretched over the whole screen, two frame rows per cell
type Terminal struct {
	screen tcell.Screen

	// HUD draws a status line over the top row
	HUD bool
}

var _ engine.Presenter = (*Terminal)(nil)

// New initializes a terminal screen
func New() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return NewWithScreen(screen)
}

// NewWithScreen adopts an allocated screen and initializes it
func NewWithScreen(screen tcell.Screen) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.HideCursor()
	screen.Clear()
	return &Terminal{screen: screen}, nil
}

// Screen exposes the underlying screen
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// Close restores the terminal
func (t *Terminal) Close() {
	t.screen.Fini()
}

// Present implements engine.Presenter
func (t *Terminal) Present(frame *image.RGBA, st engine.Status) error {
	cols, rows := t.screen.Size()
	if cols <= 0 || rows <= 0 || frame == nil || frame.Rect.Empty() {
		return nil
	}

	b := frame.Rect
	srcW, srcH := b.Dx(), b.Dy()
	gridH := rows * 2

	for y := 0; y < rows; y++ {
		// Sample centers of the two half-cells
		top := b.Min.Y + min(((2*y)*srcH+srcH/2)/gridH, srcH-1)
		bottom := b.Min.Y + min(((2*y+1)*srcH+srcH/2)/gridH, srcH-1)

		for x := 0; x < cols; x++ {
			sx := b.Min.X + min((x*srcW+srcW/2)/cols, srcW-1)

			style := tcell.StyleDefault.
				Foreground(rgbAt(frame, sx, top)).
				Background(rgbAt(frame, sx, bottom))
			t.screen.SetContent(x, y, halfBlock, nil, style)
		}
	}

	if t.HUD {
		t.drawHUD(st, cols)
	}

	t.screen.Show()
	return nil
}

func (t *Terminal) drawHUD(st engine.Status, cols int) {
	phase := st.Mode.String()
	if st.Holding {
		phase = "hold"
	}
	line := fmt.Sprintf(" %s  w=%.3e  c=(%.9f, %.9f)  tick %d  renders %d ",
		phase, st.Size.W, st.Center.X, st.Center.Y, st.Frames, st.Renders)

	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for i, r := range []rune(line) {
		if i >= cols {
			break
		}
		t.screen.SetContent(i, 0, r, nil, style)
	}
}

// isHardKey reports Esc and Ctrl-C, the latter in either key or rune form
func isHardKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Modifiers()&tcell.ModCtrl != 0 && (ev.Rune() == 'c' || ev.Rune() == 'C')
	}
	return false
}

func rgbAt(frame *image.RGBA, x, y int) tcell.Color {
	c := frame.RGBAAt(x, y)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// Interrupts polls input until ctx ends or the screen is finalized.
// Keys, mouse buttons and motion become interrupts; Ctrl-C and Esc are hard.
func (t *Terminal) Interrupts(ctx context.Context) <-chan engine.Interrupt {
	out := make(chan engine.Interrupt, 16)
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})

	go t.screen.ChannelEvents(events, quit)

	go func() {
		defer close(out)
		defer close(quit)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				in, forward := t.translate(ev)
				if !forward {
					continue
				}
				select {
				case out <- in:
				default:
					// Consumer busy, one pending interrupt is enough
				}
			}
		}
	}()
	return out
}

// translate maps a tcell event to an interrupt
func (t *Terminal) translate(ev tcell.Event) (engine.Interrupt, bool) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return engine.Interrupt{Hard: isHardKey(ev)}, true
	case *tcell.EventMouse:
		return engine.Interrupt{}, true
	case *tcell.EventResize:
		t.screen.Sync()
	}
	return engine.Interrupt{}, false
}
