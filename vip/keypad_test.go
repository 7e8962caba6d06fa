package vip

import (
	"sync"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"golang.org/x/mobile/event/key"

	"github.com/nf/ocho/chip8"
)

func TestKeypad(t *testing.T) {
	var k Keypad
	assert.Equal(t, chip8.Keys{}, k.Snapshot())

	k.Set(0x3, true)
	k.Set(0xf, true)
	k.Set(0x13, true) // same key as 0x3
	snap := k.Snapshot()
	assert.True(t, snap[0x3])
	assert.True(t, snap[0xf])
	assert.False(t, snap[0x0])

	k.Set(0x3, false)
	snap = k.Snapshot()
	assert.False(t, snap[0x3])
	assert.True(t, snap[0xf])

	k.Release()
	assert.Equal(t, chip8.Keys{}, k.Snapshot())
}

func TestKeypadConcurrent(t *testing.T) {
	var (
		k  Keypad
		wg sync.WaitGroup
	)
	for i := 0; i < chip8.NumKeys; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				k.Set(i, j%2 == 0)
				k.Snapshot()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, chip8.Keys{}, k.Snapshot())
}

func TestKeyForRune(t *testing.T) {
	for r, want := range map[rune]int{
		'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xc,
		'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xd,
		'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xe,
		'z': 0xa, 'x': 0x0, 'c': 0xb, 'v': 0xf,
		'Q': 0x4, 'V': 0xf,
	} {
		got, ok := KeyForRune(r)
		assert.True(t, ok)
		assert.Equal(t, want, got)
	}
	for _, r := range "5pPy0 " {
		_, ok := KeyForRune(r)
		assert.False(t, ok)
	}
}

func TestKeyForCode(t *testing.T) {
	// Every position of the layout maps to the same key by rune and
	// by code.
	for i, r := range Layout {
		got, ok := KeyForCode(codes[i])
		assert.True(t, ok)
		assert.Equal(t, i, got)
		byRune, _ := KeyForRune(r)
		assert.Equal(t, i, byRune)
	}
	got, ok := KeyForCode(key.CodeV)
	assert.True(t, ok)
	assert.Equal(t, 0xf, got)
	_, ok = KeyForCode(key.CodeEscape)
	assert.False(t, ok)
}
