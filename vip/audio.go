package vip

import (
	"context"
	"io"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	SampleRate = 44100 // samples per second, mono
	ToneHz     = 440
	Amplitude  = 10000

	wavePeriod = SampleRate / ToneHz // samples
)

// Beeper is the buzzer. The runner sets its level once per frame; Read
// synthesizes the tone as signed 16-bit little-endian PCM while the
// level is on and silence while it is off.
//
// Set and On may be called from any goroutine. Read must be called from
// one goroutine at a time.
type Beeper struct {
	on atomic.Bool

	pos    uint   // bytes produced so far
	sample uint16 // sample whose high byte is still to be read
}

// Set switches the buzzer on or off.
func (b *Beeper) Set(on bool) { b.on.Store(on) }

// On reports whether the buzzer is on.
func (b *Beeper) On() bool { return b.on.Load() }

// Read fills p with a square wave, or with silence when the buzzer is
// off. It never fails and always fills p; a sample split across two
// reads keeps the level it started with. The wave's phase advances
// during silence too.
func (b *Beeper) Read(p []byte) (int, error) {
	on := b.On()
	for i := range p {
		if b.pos%2 == 0 {
			var v int16
			if on {
				v = -Amplitude
				if b.pos/2/(wavePeriod/2)%2 == 1 {
					v = Amplitude
				}
			}
			b.sample = uint16(v)
			p[i] = byte(b.sample)
		} else {
			p[i] = byte(b.sample >> 8)
		}
		b.pos++
	}
	return len(p), nil
}

// Stream writes the buzzer's PCM output to w in real time, one frame's
// worth of samples per tick, until ctx is cancelled or a write fails.
func (b *Beeper) Stream(ctx context.Context, w io.Writer, frameRate int) error {
	buf := make([]byte, SampleRate/frameRate*2)
	t := time.NewTicker(time.Second / time.Duration(frameRate))
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			n, err := b.Read(buf)
			if err != nil {
				return err
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return err
			}
		}
	}
}

// AudioOptions returns the audio device settings that match the PCM
// format produced by Read.
func AudioOptions() *oto.NewContextOptions {
	return &oto.NewContextOptions{
		SampleRate:   SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Second / 20,
	}
}

// Play plays the buzzer on the default audio device until ctx is
// cancelled. Only one call may be made per process.
func (b *Beeper) Play(ctx context.Context) error {
	c, ready, err := oto.NewContext(AudioOptions())
	if err != nil {
		return err
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return nil
	}
	p := c.NewPlayer(b)
	p.Play()
	<-ctx.Done()
	return p.Close()
}
