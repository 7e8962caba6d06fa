package main

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ocho/chip8"
	"github.com/nf/ocho/vip"
)

func TestReadROM(t *testing.T) {
	dir := t.TempDir()

	ok := filepath.Join(dir, "ok.ch8")
	assert.NoError(t, os.WriteFile(ok, []byte{0x12, 0x00}, 0o644))
	rom, err := readROM(ok)
	assert.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x00}, rom)

	big := filepath.Join(dir, "big.ch8")
	assert.NoError(t, os.WriteFile(big, make([]byte, chip8.MaxROMSize+1), 0o644))
	_, err = readROM(big)
	assert.True(t, errors.Is(err, chip8.ErrROMTooLarge))

	_, err = readROM(filepath.Join(dir, "missing.ch8"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestParsePalette(t *testing.T) {
	p, err := parsePalette("#006994", "#f4e8d1")
	assert.NoError(t, err)
	assert.Equal(t, vip.DefaultPalette, p)

	p, err = parsePalette("white", "black")
	assert.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, p.FG)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, p.BG)

	_, err = parsePalette("white", "nope")
	assert.True(t, err != nil)
}

func TestRunMissingROM(t *testing.T) {
	err := run(context.Background(), options{
		romFile: filepath.Join(t.TempDir(), "missing.ch8"),
		cfg:     vip.DefaultConfig(),
	})
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestCreateLoggerOutput(t *testing.T) {
	var buf bytes.Buffer
	createLogger(false, false, &buf).Info("Reloaded ROM")
	assert.True(t, strings.Contains(buf.String(), "Reloaded ROM"))

	buf.Reset()
	quiet := createLogger(false, true, &buf)
	quiet.Info("Reloaded ROM")
	assert.Equal(t, "", buf.String())
	quiet.Error("Reloading ROM failed", errors.New("disk on fire"))
	assert.True(t, strings.Contains(buf.String(), "disk on fire"))
}

func TestDevReload(t *testing.T) {
	file := filepath.Join(t.TempDir(), "prog.ch8")
	assert.NoError(t, os.WriteFile(file, []byte{0x12, 0x00}, 0o644)) // JP 200

	rw, err := watchROM(file)
	assert.NoError(t, err)
	defer rw.Close()

	cfg := vip.DefaultConfig()
	cfg.Dev = true
	cfg.FrameRate = 1000
	m := chip8.NewMachine()
	rom, err := readROM(file)
	assert.NoError(t, err)
	assert.NoError(t, m.Load(rom))

	var (
		logger = log.NewTestLogger(t)
		r      = vip.NewRunner(m, cfg, &vip.Keypad{}, &vip.Beeper{}, logger)
		scr    = vip.NewScreen()
	)
	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	watchDone := make(chan struct{})
	go func() { runErr <- r.Run(ctx, scr) }()
	go func() {
		rw.Run(ctx, r, logger)
		close(watchDone)
	}()

	// LD I, 000; DRW V0, V0, 5; JP 204
	prog := []byte{0xa0, 0x00, 0xd0, 0x05, 0x12, 0x04}
	assert.NoError(t, os.WriteFile(file, prog, 0o644))

	timeout := time.After(10 * time.Second)
	for drawn := false; !drawn; {
		select {
		case f := <-scr.Frames():
			drawn = f.At(0, 0)
		case <-timeout:
			t.Fatal("reloaded program did not draw")
		}
	}

	cancel()
	assert.NoError(t, <-runErr)
	<-watchDone
}
