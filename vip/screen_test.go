package vip

import (
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/retroenv/retrogolib/assert"

	"github.com/nf/ocho/chip8"
)

func TestParseColor(t *testing.T) {
	for s, want := range map[string]color.RGBA{
		"#006994": {0x00, 0x69, 0x94, 0xff},
		"#F4E8D1": {0xf4, 0xe8, 0xd1, 0xff},
		"teal":    {0x00, 0x80, 0x80, 0xff},
		"Black":   {0x00, 0x00, 0x00, 0xff},
	} {
		got, err := ParseColor(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	for _, s := range []string{"", "#", "#12345", "#1234567", "#zzzzzz", "nope"} {
		_, err := ParseColor(s)
		assert.True(t, err != nil)
	}
}

func TestPaletteImage(t *testing.T) {
	var f Frame
	f[0] = 1
	f[chip8.Width*chip8.Height-1] = 1
	m := DefaultPalette.Image(&f)

	assert.Equal(t, chip8.Width, m.Bounds().Dx())
	assert.Equal(t, chip8.Height, m.Bounds().Dy())
	assert.Equal(t, DefaultPalette.FG, m.RGBAAt(0, 0))
	assert.Equal(t, DefaultPalette.BG, m.RGBAAt(1, 0))
	assert.Equal(t, DefaultPalette.BG, m.RGBAAt(0, 1))
	assert.Equal(t, DefaultPalette.FG, m.RGBAAt(chip8.Width-1, chip8.Height-1))
}

func TestScreenNewestWins(t *testing.T) {
	s := NewScreen()
	var a, b Frame
	a[1] = 1
	b[2] = 1
	s.Present(a)
	s.Present(b)

	got := <-s.Frames()
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("frame (-want +got):\n%s", diff)
	}
	select {
	case f := <-s.Frames():
		t.Errorf("stale frame still queued: %v", f.At(1, 0))
	default:
	}
}

func TestScreenPresentCopies(t *testing.T) {
	s := NewScreen()
	m := chip8.NewMachine()
	m.Gfx[5] = 1
	s.Present(m.Gfx)
	m.Gfx[5] = 0
	f := <-s.Frames()
	assert.True(t, f.At(5, 0))
}
