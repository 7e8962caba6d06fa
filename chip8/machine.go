// Package chip8 provides an implementation of a CHIP-8 virtual machine,
// called Machine, that can be used to execute CHIP-8 programs.
//
// The machine holds no references to the outside world. A host drives it
// one frame at a time: it stores the keypad state with SetKeys, calls Exec
// some number of times, calls Tick once, and presents Gfx when Redraw is
// set.
package chip8

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/retroenv/retrogolib/log"
)

const (
	MemSize      = 0x1000
	ProgramStart = 0x200
	MaxROMSize   = MemSize - ProgramStart

	Width  = 64
	Height = 32

	NumKeys = 16

	fontGlyphSize = 5
)

var font = [16 * fontGlyphSize]byte{
	0xf0, 0x90, 0x90, 0x90, 0xf0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xf0, 0x10, 0xf0, 0x80, 0xf0, // 2
	0xf0, 0x10, 0xf0, 0x10, 0xf0, // 3
	0x90, 0x90, 0xf0, 0x10, 0x10, // 4
	0xf0, 0x80, 0xf0, 0x10, 0xf0, // 5
	0xf0, 0x80, 0xf0, 0x90, 0xf0, // 6
	0xf0, 0x10, 0x20, 0x40, 0x40, // 7
	0xf0, 0x90, 0xf0, 0x90, 0xf0, // 8
	0xf0, 0x90, 0xf0, 0x10, 0xf0, // 9
	0xf0, 0x90, 0xf0, 0x90, 0x90, // A
	0xe0, 0x90, 0xe0, 0x90, 0xe0, // B
	0xf0, 0x80, 0x80, 0x80, 0xf0, // C
	0xe0, 0x90, 0x90, 0x90, 0xe0, // D
	0xf0, 0x80, 0xf0, 0x80, 0xf0, // E
	0xf0, 0x80, 0xf0, 0x80, 0x80, // F
}

// Framebuffer is the 64x32 display, row-major, one cell per pixel.
// Each cell is 0 or 1.
type Framebuffer [Width * Height]byte

// At reports whether the pixel at x, y is lit.
func (f *Framebuffer) At(x, y int) bool { return f[y*Width+x] != 0 }

// Keys holds the pressed state of the 16 keypad keys.
type Keys [NumKeys]bool

// Machine is an implementation of a CHIP-8 CPU and its memory,
// display, timers and keypad.
type Machine struct {
	Mem   [MemSize]byte
	V     [16]byte
	I     uint16
	PC    uint16
	Stack Stack

	DT, ST byte // delay and sound timers

	Gfx    Framebuffer
	Redraw bool

	Keys     Keys
	PrevKeys Keys

	// Rand is the source for RND. NewMachine seeds it from the clock.
	Rand *rand.Rand

	// Logger receives diagnostics for ignored and unknown opcodes.
	// It may be nil.
	Logger *log.Logger

	waiting bool
}

// NewMachine returns a CHIP-8 machine in its power-on state: memory
// zeroed apart from the font, PC at ProgramStart and Redraw set so that
// the first frame presents a blank screen.
func NewMachine() *Machine {
	m := &Machine{
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	m.Reset()
	return m
}

// Reset returns the machine to its power-on state. Rand and Logger are
// kept.
func (m *Machine) Reset() {
	*m = Machine{Rand: m.Rand, Logger: m.Logger}
	copy(m.Mem[:], font[:])
	m.PC = ProgramStart
	m.Redraw = true
}

// ErrROMTooLarge is returned when a ROM does not fit in program memory.
var ErrROMTooLarge = errors.New("rom too large")

// LoadError is returned when a ROM cannot be loaded.
type LoadError struct {
	Size int // -1 if unknown
	Err  error
}

func (e *LoadError) Error() string {
	if e.Size >= 0 {
		return fmt.Sprintf("loading rom (%d bytes): %v", e.Size, e.Err)
	}
	return fmt.Sprintf("loading rom: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load copies rom into memory at ProgramStart. If rom is larger than
// MaxROMSize it returns an error and memory is left unchanged.
func (m *Machine) Load(rom []byte) error {
	if len(rom) > MaxROMSize {
		return &LoadError{Size: len(rom), Err: ErrROMTooLarge}
	}
	copy(m.Mem[ProgramStart:], rom)
	return nil
}

// ReadROM reads a ROM image from r. It stops reading as soon as the
// image is known to exceed MaxROMSize.
func ReadROM(r io.Reader) ([]byte, error) {
	rom, err := io.ReadAll(io.LimitReader(r, MaxROMSize+1))
	if err != nil {
		return nil, &LoadError{Size: -1, Err: err}
	}
	if len(rom) > MaxROMSize {
		return nil, &LoadError{Size: -1, Err: ErrROMTooLarge}
	}
	return rom, nil
}

// SetKeys records the keypad state for a new frame. The previous
// current state becomes PrevKeys. Call it once per frame, before the
// frame's instructions execute.
func (m *Machine) SetKeys(k Keys) {
	m.PrevKeys = m.Keys
	m.Keys = k
}

// Tick decrements the delay and sound timers, stopping at zero. It
// reports whether the sound timer was running at the start of the tick,
// which is the level the buzzer should have until the next tick.
func (m *Machine) Tick() (beep bool) {
	if m.DT > 0 {
		m.DT--
	}
	if m.ST > 0 {
		m.ST--
		return true
	}
	return false
}

// Waiting reports whether the last executed instruction was FX0A and it
// is still waiting for a key to be released. Executing again before the
// next SetKeys cannot make progress.
func (m *Machine) Waiting() bool { return m.waiting }
