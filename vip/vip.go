// Package vip hosts a chip8.Machine the way the COSMAC VIP hosted the
// first CHIP-8 interpreter: it paces frames, feeds keypad state into the
// machine, publishes the buzzer level and hands finished frames to a
// display.
package vip

import (
	"context"
	"errors"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ocho/chip8"
)

// Config holds the host settings.
type Config struct {
	CyclesPerFrame int // instructions executed per frame
	FrameRate      int // frames per second
	Scale          int // window pixels per CHIP-8 pixel
	Palette        Palette

	// Dev keeps the runner alive after a halt so that a new ROM can
	// be loaded with Reset.
	Dev bool
}

// DefaultConfig returns 8 instructions per frame at 60 frames per
// second, shown at 10x in the default palette.
func DefaultConfig() Config {
	return Config{
		CyclesPerFrame: 8,
		FrameRate:      60,
		Scale:          10,
		Palette:        DefaultPalette,
	}
}

// Frame is a copy of the machine's framebuffer.
type Frame = chip8.Framebuffer

// Display receives frames from the runner. Present must not block for
// long; it is called on the runner's goroutine.
type Display interface {
	Present(Frame)
}

// Runner drives a Machine one frame at a time.
type Runner struct {
	cfg  Config
	m    *chip8.Machine
	keys *Keypad
	beep *Beeper
	log  *log.Logger

	reset     chan []byte
	resetDone chan error
}

// NewRunner returns a runner for m. Keys are read from k once per frame
// and the buzzer level is written to b once per frame.
func NewRunner(m *chip8.Machine, cfg Config, k *Keypad, b *Beeper, logger *log.Logger) *Runner {
	if cfg.CyclesPerFrame <= 0 {
		cfg.CyclesPerFrame = DefaultConfig().CyclesPerFrame
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = DefaultConfig().FrameRate
	}
	return &Runner{
		cfg:       cfg,
		m:         m,
		keys:      k,
		beep:      b,
		log:       logger,
		reset:     make(chan []byte),
		resetDone: make(chan error),
	}
}

// Reset replaces the running program with rom, restarting the machine
// from its power-on state. It may only be called in dev mode, while Run
// is running.
func (r *Runner) Reset(ctx context.Context, rom []byte) error {
	if !r.cfg.Dev {
		panic("Reset called while not running in dev mode")
	}
	select {
	case r.reset <- rom:
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-r.resetDone
}

// Run executes frames at the configured rate, presenting them to d,
// until ctx is cancelled. It returns nil on cancellation and the
// HaltError if the machine halts outside dev mode.
func (r *Runner) Run(ctx context.Context, d Display) error {
	t := time.NewTicker(time.Second / time.Duration(r.cfg.FrameRate))
	defer t.Stop()
	defer r.beep.Set(false)

	halted := false
	for {
		select {
		case <-ctx.Done():
			return nil

		case rom := <-r.reset:
			r.m.Reset()
			err := r.m.Load(rom)
			halted = err != nil
			r.beep.Set(false)
			r.resetDone <- err

		case <-t.C:
			if halted {
				continue
			}
			err := r.frame(d)
			if err == nil {
				continue
			}
			var h chip8.HaltError
			if !errors.As(err, &h) || !r.cfg.Dev {
				return err
			}
			if r.log != nil {
				r.log.Error("Machine halted", err)
			}
			r.beep.Set(false)
			halted = true
		}
	}
}

// frame runs a single frame: snapshot the keypad, execute up to
// CyclesPerFrame instructions, tick the timers and present the display
// if it changed. A frame that halts is still presented.
func (r *Runner) frame(d Display) (err error) {
	r.m.SetKeys(r.keys.Snapshot())
	for i := 0; i < r.cfg.CyclesPerFrame; i++ {
		if err = r.m.Exec(); err != nil {
			break
		}
		if r.m.Waiting() {
			break
		}
	}
	if err == nil {
		r.beep.Set(r.m.Tick())
	}
	if r.m.Redraw {
		d.Present(r.m.Gfx)
		r.m.Redraw = false
	}
	return err
}
