package vip

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/nf/ocho/chip8"
)

// Terminals report key presses but not releases, so a key typed in the
// terminal is held for this long.
const termKeyHold = 150 * time.Millisecond

// Term presents frames in a terminal, two CHIP-8 rows per text row, and
// rings the terminal bell when the buzzer turns on. Log output written
// to LogWriter is shown in a pane below the frame.
type Term struct {
	scr   *Screen
	keys  *Keypad
	beep  *Beeper
	title string

	app    *tview.Application
	view   *frameView
	logs   *tview.TextView
	status *tview.TextView
	rows   *tview.Flex

	screen      tcell.Screen // if nil, Run opens the terminal
	feedOnce    sync.Once
	logsChanged atomic.Bool

	release [chip8.NumKeys]*time.Timer
}

func NewTerm(scr *Screen, keys *Keypad, beep *Beeper, cfg Config, title string) *Term {
	t := &Term{
		scr:   scr,
		keys:  keys,
		beep:  beep,
		title: title,
		app:   tview.NewApplication(),
		view:  newFrameView(cfg.Palette),
		logs: tview.NewTextView().
			SetDynamicColors(true).
			SetMaxLines(1000),
		status: tview.NewTextView().
			SetWrap(false),
		rows: tview.NewFlex().
			SetDirection(tview.FlexRow),
	}
	t.logs.SetChangedFunc(func() { t.logsChanged.Store(true) })
	t.status.SetBackgroundColor(tcell.ColorDarkGrey)
	t.status.SetTextColor(tcell.ColorBlack)
	t.rows.
		AddItem(t.view, chip8.Height/2+2, 0, false).
		AddItem(t.logs, 0, 1, false).
		AddItem(t.status, 1, 0, false)
	t.app.SetRoot(t.rows, true)
	t.app.SetInputCapture(t.input)
	t.setStatus(false)
	return t
}

// LogWriter returns a writer whose output appears in the log pane.
// ANSI colour sequences are translated.
func (t *Term) LogWriter() io.Writer { return tview.ANSIWriter(t.logs) }

// Run runs the terminal UI until Escape or Ctrl-C is pressed or ctx is
// cancelled.
func (t *Term) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	if t.screen != nil {
		t.app.SetScreen(t.screen)
	}

	done := make(chan struct{})
	defer close(done)
	// Stop only takes effect once the application is running, so the
	// feed, which stops it on cancellation, starts after the first draw.
	t.app.SetAfterDrawFunc(func(s tcell.Screen) {
		t.feedOnce.Do(func() { go t.feed(ctx, s, done) })
	})

	return t.app.Run()
}

// feed moves frames and buzzer changes into the UI.
func (t *Term) feed(ctx context.Context, s tcell.Screen, done <-chan struct{}) {
	tick := time.NewTicker(time.Second / 60)
	defer tick.Stop()
	beeping := false
	for {
		select {
		case <-ctx.Done():
			t.app.Stop()
			return
		case <-done:
			return
		case f := <-t.scr.Frames():
			t.app.QueueUpdateDraw(func() { t.view.frame = f })
		case <-tick.C:
			redraw := t.logsChanged.Swap(false)
			if on := t.beep.On(); on != beeping {
				beeping = on
				if on {
					if err := s.Beep(); err != nil {
						fmt.Fprintf(t.logs, "terminal bell: %v\n", err)
					}
				}
				t.app.QueueUpdate(func() { t.setStatus(on) })
				redraw = true
			}
			if redraw {
				t.app.Draw()
			}
		}
	}
}

func (t *Term) input(ev *tcell.EventKey) *tcell.EventKey {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		t.app.Stop()
		return nil
	case tcell.KeyRune:
		if i, ok := KeyForRune(ev.Rune()); ok {
			t.press(i)
		}
	}
	return nil
}

// press holds key i for termKeyHold, extending the hold if the key is
// already down (keyboard auto-repeat).
func (t *Term) press(i int) {
	t.keys.Set(i, true)
	if r := t.release[i]; r != nil {
		r.Stop()
	}
	t.release[i] = time.AfterFunc(termKeyHold, func() { t.keys.Set(i, false) })
}

func (t *Term) setStatus(beeping bool) {
	bell := ""
	if beeping {
		bell = "  ♪"
	}
	t.status.SetText(fmt.Sprintf(" %s  keys %s  esc quits%s", t.title, Layout, bell))
}

// frameView draws a frame using upper half blocks: the foreground colour
// is the top pixel and the background colour the bottom one.
type frameView struct {
	*tview.Box
	pal   Palette
	frame Frame // only touched on the UI goroutine
}

func newFrameView(p Palette) *frameView {
	v := &frameView{Box: tview.NewBox(), pal: p}
	v.SetBorder(true)
	return v
}

func (v *frameView) Draw(s tcell.Screen) {
	v.Box.DrawForSubclass(s, v)
	x0, y0, w, h := v.GetInnerRect()
	for y := 0; y < chip8.Height/2 && y < h; y++ {
		for x := 0; x < chip8.Width && x < w; x++ {
			style := tcell.StyleDefault.
				Foreground(tcellColor(v.pal.At(&v.frame, x, 2*y))).
				Background(tcellColor(v.pal.At(&v.frame, x, 2*y+1)))
			s.SetContent(x0+x, y0+y, '▀', nil, style)
		}
	}
}

func tcellColor(c color.RGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
