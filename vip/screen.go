package vip

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/nf/ocho/chip8"
)

// Palette holds the colours of lit and unlit pixels.
type Palette struct {
	FG, BG color.RGBA
}

var DefaultPalette = Palette{
	FG: color.RGBA{0x00, 0x69, 0x94, 0xff},
	BG: color.RGBA{0xf4, 0xe8, 0xd1, 0xff},
}

// At returns the colour of pixel x, y of f.
func (p Palette) At(f *Frame, x, y int) color.RGBA {
	if f.At(x, y) {
		return p.FG
	}
	return p.BG
}

// Image returns f rendered at one image pixel per CHIP-8 pixel.
func (p Palette) Image(f *Frame) *image.RGBA {
	m := newImage(chip8.Width, chip8.Height, p.BG)
	for y := 0; y < chip8.Height; y++ {
		for x := 0; x < chip8.Width; x++ {
			if f.At(x, y) {
				m.SetRGBA(x, y, p.FG)
			}
		}
	}
	return m
}

// ParseColor parses a colour given as #rrggbb or as an SVG colour name
// such as "teal".
func ParseColor(s string) (color.RGBA, error) {
	if hex, ok := strings.CutPrefix(s, "#"); ok {
		if len(hex) != 6 {
			return color.RGBA{}, fmt.Errorf("bad colour %q: want #rrggbb", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
		return color.RGBA{byte(v >> 16), byte(v >> 8), byte(v), 0xff}, nil
	}
	c, ok := colornames.Map[strings.ToLower(s)]
	if !ok {
		return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
	}
	return c, nil
}

func newImage(w, h int, c color.RGBA) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for b := m.Pix; len(b) >= 4; b = b[4:] {
		b[0] = c.R
		b[1] = c.G
		b[2] = c.B
		b[3] = c.A
	}
	return m
}

// Screen is a Display that hands frames to a frontend running on
// another goroutine. If the frontend falls behind, older frames are
// dropped in favour of the newest.
type Screen struct {
	frames chan Frame
}

func NewScreen() *Screen {
	return &Screen{frames: make(chan Frame, 1)}
}

// Present queues f, replacing any frame not yet taken.
func (s *Screen) Present(f Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
		default:
		}
	}
}

// Frames returns the channel on which presented frames are delivered.
func (s *Screen) Frames() <-chan Frame { return s.frames }
