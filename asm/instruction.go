package asm

import (
	"fmt"
	"strings"
)

// Op is an instruction mnemonic. OpLabel is a pseudo-op that defines a
// label at the current position.
type Op int

const (
	OpLabel Op = iota

	OpMov
	OpMovsx
	OpMovzx
	OpLea
	OpPush
	OpPop

	OpAdd
	OpSub
	OpImul
	OpIdiv
	OpCdq
	OpNeg
	OpNot
	OpAnd
	OpOr
	OpXor
	OpShl
	OpSar
	OpDec
	OpCmp

	OpSete
	OpSetne
	OpSetl
	OpSetle
	OpSetg
	OpSetge
	OpSetb
	OpSetbe
	OpSeta
	OpSetae

	OpJmp
	OpJe
	OpJne
	OpJg
	OpJl
	OpJp
	OpCall

	OpMovsd
	OpAddsd
	OpSubsd
	OpMulsd
	OpDivsd
	OpUcomisd
	OpCvtsi2sd
	OpCvttsd2si

	OpEnter
	OpLeave
	OpRet
)

func (op Op) String() string {
	switch op {
	case OpLabel:
		return "label"
	case OpMov:
		return "mov"
	case OpMovsx:
		return "movsx"
	case OpMovzx:
		return "movzx"
	case OpLea:
		return "lea"
	case OpPush:
		return "push"
	case OpPop:
		return "pop"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpImul:
		return "imul"
	case OpIdiv:
		return "idiv"
	case OpCdq:
		return "cdq"
	case OpNeg:
		return "neg"
	case OpNot:
		return "not"
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpXor:
		return "xor"
	case OpShl:
		return "shl"
	case OpSar:
		return "sar"
	case OpDec:
		return "dec"
	case OpCmp:
		return "cmp"
	case OpSete:
		return "sete"
	case OpSetne:
		return "setne"
	case OpSetl:
		return "setl"
	case OpSetle:
		return "setle"
	case OpSetg:
		return "setg"
	case OpSetge:
		return "setge"
	case OpSetb:
		return "setb"
	case OpSetbe:
		return "setbe"
	case OpSeta:
		return "seta"
	case OpSetae:
		return "setae"
	case OpJmp:
		return "jmp"
	case OpJe:
		return "je"
	case OpJne:
		return "jne"
	case OpJg:
		return "jg"
	case OpJl:
		return "jl"
	case OpJp:
		return "jp"
	case OpCall:
		return "call"
	case OpMovsd:
		return "movsd"
	case OpAddsd:
		return "addsd"
	case OpSubsd:
		return "subsd"
	case OpMulsd:
		return "mulsd"
	case OpDivsd:
		return "divsd"
	case OpUcomisd:
		return "ucomisd"
	case OpCvtsi2sd:
		return "cvtsi2sd"
	case OpCvttsd2si:
		return "cvttsd2si"
	case OpEnter:
		return "enter"
	case OpLeave:
		return "leave"
	case OpRet:
		return "ret"
	default:
		panic(fmt.Sprintf("asm: unknown op %d", int(op)))
	}
}

// Instruction is one line of a function body.
type Instruction struct {
	Op   Op
	Args []Operand
}

func (in Instruction) String() string {
	if in.Op == OpLabel {
		return in.Args[0].String() + ":"
	}
	if len(in.Args) == 0 {
		return in.Op.String()
	}
	args := make([]string, len(in.Args))
	for i, a := range in.Args {
		args[i] = a.String()
	}
	return in.Op.String() + " " + strings.Join(args, ", ")
}
