package asm

import (
	"fmt"
	"strconv"
)

// Operand is anything that can appear after an instruction mnemonic.
type Operand interface {
	String() string
	operand()
}

// Register names the fixed scratch set the code generator uses.
type Register int

const (
	EAX Register = iota
	EBX
	ECX
	EDX
	ESI
	EDI
	ESP
	EBP
	AL
	CL
	XMM0
	XMM1
)

func (r Register) String() string {
	switch r {
	case EAX:
		return "eax"
	case EBX:
		return "ebx"
	case ECX:
		return "ecx"
	case EDX:
		return "edx"
	case ESI:
		return "esi"
	case EDI:
		return "edi"
	case ESP:
		return "esp"
	case EBP:
		return "ebp"
	case AL:
		return "al"
	case CL:
		return "cl"
	case XMM0:
		return "xmm0"
	case XMM1:
		return "xmm1"
	default:
		panic(fmt.Sprintf("asm: unknown register %d", int(r)))
	}
}

func (Register) operand() {}

// Size is the width of a memory access.
type Size int

const (
	Byte Size = iota
	Dword
	Qword
)

func (s Size) String() string {
	switch s {
	case Byte:
		return "byte"
	case Dword:
		return "dword"
	case Qword:
		return "qword"
	default:
		panic(fmt.Sprintf("asm: unknown size %d", int(s)))
	}
}

// Mem is a base+displacement memory operand, e.g. dword ptr [ebp - 8].
type Mem struct {
	Size Size
	Base Register
	Disp int
}

// At builds a memory operand.
func At(size Size, base Register, disp int) Mem {
	return Mem{Size: size, Base: base, Disp: disp}
}

func (m Mem) String() string {
	switch {
	case m.Disp > 0:
		return fmt.Sprintf("%s ptr [%s + %d]", m.Size, m.Base, m.Disp)
	case m.Disp < 0:
		return fmt.Sprintf("%s ptr [%s - %d]", m.Size, m.Base, -m.Disp)
	default:
		return fmt.Sprintf("%s ptr [%s]", m.Size, m.Base)
	}
}

// Resize returns the same address accessed with another width.
func (m Mem) Resize(size Size) Mem {
	m.Size = size
	return m
}

// Offset returns the address displaced by n bytes.
func (m Mem) Offset(n int) Mem {
	m.Disp += n
	return m
}

func (Mem) operand() {}

// Data is a memory operand addressed by a data label, e.g.
// qword ptr [__real@3ff0000000000000].
type Data struct {
	Size  Size
	Label string
}

func (d Data) String() string {
	return fmt.Sprintf("%s ptr [%s]", d.Size, d.Label)
}

func (Data) operand() {}

// Imm is an immediate integer.
type Imm int64

func (i Imm) String() string { return strconv.FormatInt(int64(i), 10) }

func (Imm) operand() {}

// Hex is an immediate written in MASM hexadecimal notation.
type Hex uint32

func (h Hex) String() string {
	s := strconv.FormatUint(uint64(h), 16)
	if s[0] >= 'a' {
		s = "0" + s
	}
	return s + "h"
}

func (Hex) operand() {}

// Symbol refers to a label by name (jump and call targets).
type Symbol string

func (s Symbol) String() string { return string(s) }

func (Symbol) operand() {}

// AddrOf is the address of a data label, written "offset name".
type AddrOf string

func (a AddrOf) String() string { return "offset " + string(a) }

func (AddrOf) operand() {}
