package chip8

// Word is a raw CHIP-8 instruction word, read big-endian from memory.
type Word uint16

// Family returns the top nibble, which selects the opcode family.
func (w Word) Family() byte { return byte(w >> 12) }

// X returns the second nibble, usually a register index.
func (w Word) X() byte { return byte(w>>8) & 0xf }

// Y returns the third nibble, usually a register index.
func (w Word) Y() byte { return byte(w>>4) & 0xf }

// N returns the low nibble.
func (w Word) N() byte { return byte(w) & 0xf }

// NN returns the low byte.
func (w Word) NN() byte { return byte(w) }

// NNN returns the low 12 bits, an address.
func (w Word) NNN() uint16 { return uint16(w) & 0xfff }

// Op identifies one CHIP-8 instruction form.
type Op byte

const (
	OpUnknown Op = iota
	OpCLS        // 00E0
	OpRET        // 00EE
	OpSYS        // 0NNN
	OpJP         // 1NNN
	OpCALL       // 2NNN
	OpSEImm      // 3XNN
	OpSNEImm     // 4XNN
	OpSEReg      // 5XY0
	OpLDImm      // 6XNN
	OpADDImm     // 7XNN
	OpLDReg      // 8XY0
	OpOR         // 8XY1
	OpAND        // 8XY2
	OpXOR        // 8XY3
	OpADDReg     // 8XY4
	OpSUB        // 8XY5
	OpSHR        // 8XY6
	OpSUBN       // 8XY7
	OpSHL        // 8XYE
	OpSNEReg     // 9XY0
	OpLDI        // ANNN
	OpJPV0       // BNNN
	OpRND        // CXNN
	OpDRW        // DXYN
	OpSKP        // EX9E
	OpSKNP       // EXA1
	OpLDVxDT     // FX07
	OpLDK        // FX0A
	OpLDDTVx     // FX15
	OpLDSTVx     // FX18
	OpADDI       // FX1E
	OpLDF        // FX29
	OpBCD        // FX33
	OpSTORE      // FX55
	OpLOAD       // FX65
)

var opNames = [...]string{
	OpUnknown: "UNKNOWN",
	OpCLS:     "CLS",
	OpRET:     "RET",
	OpSYS:     "SYS",
	OpJP:      "JP",
	OpCALL:    "CALL",
	OpSEImm:   "SE",
	OpSNEImm:  "SNE",
	OpSEReg:   "SE",
	OpLDImm:   "LD",
	OpADDImm:  "ADD",
	OpLDReg:   "LD",
	OpOR:      "OR",
	OpAND:     "AND",
	OpXOR:     "XOR",
	OpADDReg:  "ADD",
	OpSUB:     "SUB",
	OpSHR:     "SHR",
	OpSUBN:    "SUBN",
	OpSHL:     "SHL",
	OpSNEReg:  "SNE",
	OpLDI:     "LDI",
	OpJPV0:    "JPV0",
	OpRND:     "RND",
	OpDRW:     "DRW",
	OpSKP:     "SKP",
	OpSKNP:    "SKNP",
	OpLDVxDT:  "LDDT",
	OpLDK:     "LDK",
	OpLDDTVx:  "SETDT",
	OpLDSTVx:  "SETST",
	OpADDI:    "ADDI",
	OpLDF:     "LDF",
	OpBCD:     "BCD",
	OpSTORE:   "STORE",
	OpLOAD:    "LOAD",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return opNames[OpUnknown]
}

// Instr is a decoded instruction. Operand fields that the instruction
// form does not use still hold the corresponding bits of Word.
type Instr struct {
	Op   Op
	Word Word
	X, Y byte
	N    byte
	NN   byte
	NNN  uint16
}

func (i Instr) String() string {
	return i.Op.String()
}

// Decode decodes w. Every word decodes; words that match no instruction
// form decode with Op set to OpUnknown.
func Decode(w Word) Instr {
	return Instr{
		Op:   decodeOp(w),
		Word: w,
		X:    w.X(),
		Y:    w.Y(),
		N:    w.N(),
		NN:   w.NN(),
		NNN:  w.NNN(),
	}
}

func decodeOp(w Word) Op {
	switch w.Family() {
	case 0x0:
		switch w {
		case 0x00e0:
			return OpCLS
		case 0x00ee:
			return OpRET
		}
		return OpSYS
	case 0x1:
		return OpJP
	case 0x2:
		return OpCALL
	case 0x3:
		return OpSEImm
	case 0x4:
		return OpSNEImm
	case 0x5:
		// Low nibble ignored, here and for 9XY0.
		return OpSEReg
	case 0x6:
		return OpLDImm
	case 0x7:
		return OpADDImm
	case 0x8:
		switch w.N() {
		case 0x0:
			return OpLDReg
		case 0x1:
			return OpOR
		case 0x2:
			return OpAND
		case 0x3:
			return OpXOR
		case 0x4:
			return OpADDReg
		case 0x5:
			return OpSUB
		case 0x6:
			return OpSHR
		case 0x7:
			return OpSUBN
		case 0xe:
			return OpSHL
		}
	case 0x9:
		return OpSNEReg
	case 0xa:
		return OpLDI
	case 0xb:
		return OpJPV0
	case 0xc:
		return OpRND
	case 0xd:
		return OpDRW
	case 0xe:
		switch w.NN() {
		case 0x9e:
			return OpSKP
		case 0xa1:
			return OpSKNP
		}
	case 0xf:
		switch w.NN() {
		case 0x07:
			return OpLDVxDT
		case 0x0a:
			return OpLDK
		case 0x15:
			return OpLDDTVx
		case 0x18:
			return OpLDSTVx
		case 0x1e:
			return OpADDI
		case 0x29:
			return OpLDF
		case 0x33:
			return OpBCD
		case 0x55:
			return OpSTORE
		case 0x65:
			return OpLOAD
		}
	}
	return OpUnknown
}
