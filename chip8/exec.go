package chip8

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
)

// Exec executes the instruction at m.PC. It only returns a non-nil error,
// a HaltError, if the instruction would overflow or underflow the call
// stack or access memory outside the 4K address space. In that case PC
// still points at the faulting instruction.
func (m *Machine) Exec() (err error) {
	var (
		pc = m.PC
		in Instr
	)
	defer func() {
		if e := recover(); e != nil {
			if code, ok := e.(HaltCode); ok {
				m.PC = pc
				err = HaltError{
					HaltCode: code,
					Instr:    in,
					Addr:     pc,
				}
			} else {
				panic(e)
			}
		}
	}()

	if int(pc)+1 >= MemSize {
		panic(OutOfBounds)
	}
	in = Decode(Word(m.Mem[pc])<<8 | Word(m.Mem[pc+1]))
	m.waiting = false
	m.exec(in)
	return nil
}

func (m *Machine) exec(in Instr) {
	var (
		vx = &m.V[in.X]
		vy = m.V[in.Y]
		vf = &m.V[0xf]
	)
	switch in.Op {
	case OpCLS:
		m.Gfx = Framebuffer{}
		m.Redraw = true
	case OpRET:
		m.PC = m.Stack.pop()
	case OpSYS:
		m.debug("Ignoring SYS opcode", in)
	case OpJP:
		m.PC = in.NNN
		return
	case OpCALL:
		m.Stack.push(m.PC)
		m.PC = in.NNN
		return
	case OpSEImm:
		m.skipIf(*vx == in.NN)
	case OpSNEImm:
		m.skipIf(*vx != in.NN)
	case OpSEReg:
		m.skipIf(*vx == vy)
	case OpSNEReg:
		m.skipIf(*vx != vy)
	case OpLDImm:
		*vx = in.NN
	case OpADDImm:
		*vx += in.NN
	case OpLDReg:
		*vx = vy
	case OpOR:
		*vx |= vy
		*vf = 0
	case OpAND:
		*vx &= vy
		*vf = 0
	case OpXOR:
		*vx ^= vy
		*vf = 0
	case OpADDReg:
		sum := uint16(*vx) + uint16(vy)
		*vx = byte(sum)
		*vf = boolByte(sum > 0xff)
	case OpSUB:
		borrow := vy > *vx
		*vx -= vy
		*vf = boolByte(!borrow)
	case OpSUBN:
		borrow := *vx > vy
		*vx = vy - *vx
		*vf = boolByte(!borrow)
	case OpSHR:
		*vx = vy
		lsb := *vx & 0x01
		*vx >>= 1
		*vf = lsb
	case OpSHL:
		*vx = vy
		msb := *vx >> 7
		*vx <<= 1
		*vf = msb
	case OpLDI:
		m.I = in.NNN
	case OpJPV0:
		m.PC = in.NNN + uint16(m.V[0])
		return
	case OpRND:
		*vx = byte(m.Rand.Intn(0x100)) & in.NN
	case OpDRW:
		m.draw(*vx, vy, in.N)
	case OpSKP:
		m.skipIf(m.key(*vx))
	case OpSKNP:
		m.skipIf(!m.key(*vx))
	case OpLDVxDT:
		*vx = m.DT
	case OpLDK:
		for k := range m.Keys {
			if !m.Keys[k] && m.PrevKeys[k] {
				*vx = byte(k)
				m.PC += 2
				return
			}
		}
		m.waiting = true
		return
	case OpLDDTVx:
		m.DT = *vx
	case OpLDSTVx:
		m.ST = *vx
	case OpADDI:
		m.I += uint16(*vx)
	case OpLDF:
		m.I = uint16(*vx&0xf) * fontGlyphSize
	case OpBCD:
		v := *vx
		m.store(m.I, v/100)
		m.store(m.I+1, v/10%10)
		m.store(m.I+2, v%10)
	case OpSTORE:
		for i := 0; i <= int(in.X); i++ {
			m.store(m.I+uint16(i), m.V[i])
		}
		m.I += uint16(in.X) + 1
	case OpLOAD:
		for i := 0; i <= int(in.X); i++ {
			m.V[i] = m.load(m.I + uint16(i))
		}
		m.I += uint16(in.X) + 1
	default:
		m.warn("Unknown opcode", in)
	}
	m.PC += 2
}

// draw XORs an 8xn sprite read from memory at I onto the display with
// its top-left corner at x, y. A sprite whose origin is on screen is
// clipped at the edges; one whose origin is off screen wraps.
func (m *Machine) draw(x, y, n byte) {
	m.V[0xf] = 0
	clip := x < Width && y < Height
	for row := 0; row < int(n); row++ {
		bits := m.load(m.I + uint16(row))
		py := int(y) + row
		if clip && py >= Height {
			continue
		}
		py %= Height
		for col := 0; col < 8; col++ {
			if bits&(0x80>>col) == 0 {
				continue
			}
			px := int(x) + col
			if clip && px >= Width {
				continue
			}
			px %= Width
			p := &m.Gfx[py*Width+px]
			if *p == 1 {
				m.V[0xf] = 1
			}
			*p ^= 1
		}
	}
	m.Redraw = true
}

func (m *Machine) skipIf(cond bool) {
	if cond {
		m.PC += 2
	}
}

// key reports whether the key with index k is pressed. Only the low
// nibble of k selects the key.
func (m *Machine) key(k byte) bool { return m.Keys[k&0xf] }

func (m *Machine) load(addr uint16) byte {
	if int(addr) >= MemSize {
		panic(OutOfBounds)
	}
	return m.Mem[addr]
}

func (m *Machine) store(addr uint16, v byte) {
	if int(addr) >= MemSize {
		panic(OutOfBounds)
	}
	m.Mem[addr] = v
}

func (m *Machine) debug(msg string, in Instr) {
	if m.Logger != nil {
		m.Logger.Debug(msg,
			log.String("pc", fmt.Sprintf("0x%03X", m.PC)),
			log.String("opcode", fmt.Sprintf("0x%04X", uint16(in.Word))))
	}
}

func (m *Machine) warn(msg string, in Instr) {
	if m.Logger != nil {
		m.Logger.Warn(msg,
			log.String("pc", fmt.Sprintf("0x%03X", m.PC)),
			log.String("opcode", fmt.Sprintf("0x%04X", uint16(in.Word))))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// HaltError is returned by Exec if the machine cannot execute an
// instruction without corrupting state.
type HaltError struct {
	HaltCode
	Instr Instr
	Addr  uint16
}

func (e HaltError) Error() string {
	return fmt.Sprintf("%s executing %s (%.4x) at %.3x", e.HaltCode, e.Instr, uint16(e.Instr.Word), e.Addr)
}

// HaltCode signifies the type of condition that halted execution.
type HaltCode byte

const (
	StackOverflow  HaltCode = 0x01
	StackUnderflow HaltCode = 0x02
	OutOfBounds    HaltCode = 0x03
)

func (c HaltCode) String() string {
	if s, ok := map[HaltCode]string{
		StackOverflow:  "stack overflow",
		StackUnderflow: "stack underflow",
		OutOfBounds:    "memory access out of bounds",
	}[c]; ok {
		return s
	}
	return fmt.Sprintf("unknown (%.2x)", byte(c))
}
