package vip

import (
	"sync"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/nf/ocho/chip8"
)

// Keypad holds the state of the 16-key hex keypad. Input handlers set
// keys from their own goroutines; the runner reads one Snapshot per
// frame.
type Keypad struct {
	mu   sync.Mutex
	down uint16 // bit i set while key i is held
}

// Set records key i as pressed or released. Only the low nibble of i
// selects the key.
func (k *Keypad) Set(i int, pressed bool) {
	bit := uint16(1) << (i & 0xf)
	k.mu.Lock()
	defer k.mu.Unlock()
	if pressed {
		k.down |= bit
	} else {
		k.down &^= bit
	}
}

// Release releases every key.
func (k *Keypad) Release() {
	k.mu.Lock()
	k.down = 0
	k.mu.Unlock()
}

// Snapshot returns the current state of all keys.
func (k *Keypad) Snapshot() (keys chip8.Keys) {
	k.mu.Lock()
	down := k.down
	k.mu.Unlock()
	for i := range keys {
		keys[i] = down&(1<<i) != 0
	}
	return keys
}

// Layout is the keyboard layout used for the keypad, indexed by
// CHIP-8 key. On a QWERTY keyboard the keypad
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
//
// sits on
//
//	1 2 3 4
//	Q W E R
//	A S D F
//	Z X C V
const Layout = "x123qweasdzc4rfv"

var codes = [chip8.NumKeys]key.Code{
	key.CodeX, key.Code1, key.Code2, key.Code3,
	key.CodeQ, key.CodeW, key.CodeE, key.CodeA,
	key.CodeS, key.CodeD, key.CodeZ, key.CodeC,
	key.Code4, key.CodeR, key.CodeF, key.CodeV,
}

// KeyForRune returns the keypad key typed by r, ignoring case.
func KeyForRune(r rune) (int, bool) {
	r = unicode.ToLower(r)
	for i, l := range Layout {
		if l == r {
			return i, true
		}
	}
	return 0, false
}

// KeyForCode returns the keypad key at the physical key position c.
func KeyForCode(c key.Code) (int, bool) {
	for i, kc := range codes {
		if kc == c {
			return i, true
		}
	}
	return 0, false
}
