package vip

import (
	"context"
	"image"
	"image/draw"
	"time"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/nf/ocho/chip8"
)

// GUI presents frames in a window and feeds key events to a Keypad.
type GUI struct {
	scr   *Screen
	keys  *Keypad
	pal   Palette
	scale int
	log   *log.Logger

	buf   screen.Buffer
	tex   screen.Texture
	dirty bool
}

func NewGUI(scr *Screen, keys *Keypad, cfg Config, logger *log.Logger) *GUI {
	scale := cfg.Scale
	if scale <= 0 {
		scale = DefaultConfig().Scale
	}
	return &GUI{
		scr:   scr,
		keys:  keys,
		pal:   cfg.Palette,
		scale: scale,
		log:   logger,
	}
}

// Run opens the window and processes its events until the window is
// closed, Escape is pressed or ctx is cancelled. It must be called from
// the main goroutine.
func (g *GUI) Run(ctx context.Context) (err error) {
	driver.Main(func(s screen.Screen) {
		err = g.run(ctx, s)
	})
	return err
}

func (g *GUI) run(ctx context.Context, s screen.Screen) error {
	w, err := s.NewWindow(&screen.NewWindowOptions{
		Title:  "ocho",
		Width:  chip8.Width * g.scale,
		Height: chip8.Height * g.scale,
	})
	if err != nil {
		return err
	}
	defer w.Release()

	sz := image.Point{chip8.Width, chip8.Height}
	if g.buf, err = s.NewBuffer(sz); err != nil {
		return err
	}
	defer g.buf.Release()
	if g.tex, err = s.NewTexture(sz); err != nil {
		return err
	}
	defer g.tex.Release()
	g.upload(&Frame{})

	type update struct{}
	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(time.Second / 60)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				w.Send(update{})
			case <-ctx.Done():
				w.Send(update{})
				return
			case <-done:
				return
			}
		}
	}()

	var ws size.Event
	for {
		e := w.NextEvent()

		if ctx.Err() != nil {
			return nil
		}

		switch e := e.(type) {
		case size.Event:
			ws = e
			if ws.WidthPx+ws.HeightPx == 0 {
				return nil
			}
			g.dirty = true

		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				g.keys.Release()
			}

		case paint.Event:
			g.dirty = true

		case key.Event:
			if e.Code == key.CodeEscape {
				return nil
			}
			if i, ok := KeyForCode(e.Code); ok {
				g.keys.Set(i, e.Direction != key.DirRelease)
			}

		case update:
			select {
			case f := <-g.scr.Frames():
				g.upload(&f)
			default:
				// no new frame
			}
			if g.dirty {
				w.Scale(ws.Bounds(), g.tex, g.tex.Bounds(), draw.Src, nil)
				w.Publish()
				g.dirty = false
			}

		case error:
			if g.log != nil {
				g.log.Warn("Window error", log.Err(e))
			}
		}
	}
}

func (g *GUI) upload(f *Frame) {
	copy(g.buf.RGBA().Pix, g.pal.Image(f).Pix)
	g.tex.Upload(image.Point{}, g.buf, g.buf.Bounds())
	g.dirty = true
}
