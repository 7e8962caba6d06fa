package vip

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/retroenv/retrogolib/assert"
)

func newTestTerm() *Term {
	t := NewTerm(NewScreen(), &Keypad{}, &Beeper{}, DefaultConfig(), "test.ch8")
	t.screen = tcell.NewSimulationScreen("UTF-8")
	return t
}

func runTerm(ctx context.Context, term *Term) <-chan error {
	errc := make(chan error, 1)
	go func() { errc <- term.Run(ctx) }()
	return errc
}

func waitTerm(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTermLogWriter(t *testing.T) {
	term := newTestTerm()
	fmt.Fprintf(term.LogWriter(), "\x1b[31mMachine halted\x1b[0m pc=0x200\n")
	text := term.logs.GetText(true)
	assert.True(t, strings.Contains(text, "Machine halted pc=0x200"))
	assert.False(t, strings.Contains(text, "\x1b"))

	// tview reports the change from its own goroutine.
	deadline := time.Now().Add(5 * time.Second)
	for !term.logsChanged.Load() {
		if time.Now().After(deadline) {
			t.Fatal("log pane change not reported")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestTermRunCancelledBeforeStart(t *testing.T) {
	term := newTestTerm()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	waitTerm(t, runTerm(ctx, term))
}

func TestTermRunCancelledWhileStarting(t *testing.T) {
	term := newTestTerm()
	ctx, cancel := context.WithCancel(context.Background())
	errc := runTerm(ctx, term)
	cancel()
	waitTerm(t, errc)
}

func TestTermRunCancelledWhileRunning(t *testing.T) {
	term := newTestTerm()
	ctx, cancel := context.WithCancel(context.Background())
	errc := runTerm(ctx, term)
	term.scr.Present(Frame{1})
	fmt.Fprintln(term.LogWriter(), "Loaded ROM")
	time.Sleep(50 * time.Millisecond)
	cancel()
	waitTerm(t, errc)
}

func TestTermKeyHold(t *testing.T) {
	term := newTestTerm()
	term.input(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone))
	assert.True(t, term.keys.Snapshot()[0x4])

	deadline := time.Now().Add(5 * time.Second)
	for term.keys.Snapshot()[0x4] {
		if time.Now().After(deadline) {
			t.Fatal("key was never released")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
