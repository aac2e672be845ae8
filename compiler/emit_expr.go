package compiler

import "github.com/pasc-lang/pasc/asm"

func (cg *CodeGen) constant(n *Node, mode Mode) {
	if mode != ModeValue {
		invariant("address of a constant at %s", n.Pos)
	}
	switch n.Type.BaseType().Category {
	case CategoryInteger:
		cg.emit(asm.OpPush, asm.Imm(int32(n.Value.Int)))
	case CategoryChar:
		cg.emit(asm.OpPush, asm.Imm(int8(byte(n.Value.Int))))
	case CategoryReal:
		cg.emit(asm.OpSub, asm.ESP, asm.Imm(8))
		cg.emit(asm.OpMovsd, asm.XMM0, asm.Data{Size: asm.Qword, Label: cg.prog.InternDouble(n.Value.Real)})
		cg.emit(asm.OpMovsd, asm.At(asm.Qword, asm.ESP, 0), asm.XMM0)
	case CategoryString:
		cg.emit(asm.OpPush, asm.AddrOf(cg.prog.InternString(n.Value.Str)))
	default:
		invariant("constant of type %s", n.Type)
	}
}

// typedConstant reserves stack space for an array or record value and
// fills it element by element.
func (cg *CodeGen) typedConstant(n *Node) {
	cg.emit(asm.OpSub, asm.ESP, asm.Imm(stackSize(n.Type)))
	cg.fill(n, 0)
}

func (cg *CodeGen) fill(n *Node, base int) {
	t := n.Type.BaseType()
	for i, e := range n.Children {
		var off int
		var et *Type
		if t.Category == CategoryArray {
			et = t.Elem
			off = base + i*et.Size()
		} else {
			f := t.Fields.Entries()[i]
			start, err := t.Fields.Start(f.Name)
			if err != nil {
				invariant("%v", err)
			}
			et = f.Type
			off = base + start
		}
		if e.Kind == NodeTypedConstant {
			cg.fill(e, off)
			continue
		}
		e.Emit(cg, ModeValue)
		cg.popScalar(et, 0)
		cg.storeScalar(et, asm.At(memSize(et), asm.ESP, off), 0)
	}
}

// address computes the memory operand of an lvalue. Any code it emits
// leaves the stack as it found it; the result may be based on eax.
func (cg *CodeGen) address(n *Node) asm.Mem {
	size := memSize(n.Type)
	switch n.Kind {
	case NodeVariable:
		return cg.location(n, size)
	case NodeField:
		field := n.Operand()
		start, err := field.Binding.Table.Start(field.Name)
		if err != nil {
			invariant("%v", err)
		}
		return cg.address(n.Target).Offset(start).Resize(size)
	case NodeIndex:
		at := n.Target.Type.BaseType()
		elem := at.Elem.Size()
		if c := constantOf(n.Operand()); c != nil {
			return cg.address(n.Target).Offset(int(c.Value.Int-at.Min) * elem).Resize(size)
		}
		cg.pushAddress(cg.address(n.Target))
		n.Operand().Emit(cg, ModeValue)
		cg.emit(asm.OpPop, asm.EAX)
		if at.Min != 0 {
			cg.emit(asm.OpSub, asm.EAX, asm.Imm(at.Min))
		}
		if elem != 1 {
			cg.emit(asm.OpMov, asm.EBX, asm.Imm(elem))
			cg.emit(asm.OpImul, asm.EAX, asm.EBX)
		}
		cg.emit(asm.OpPop, asm.EBX)
		cg.emit(asm.OpAdd, asm.EAX, asm.EBX)
		return asm.At(size, asm.EAX, 0)
	case NodeCall:
		cg.call(n, ModeAddress)
		cg.emit(asm.OpPop, asm.EAX)
		return asm.At(size, asm.EAX, 0)
	default:
		invariant("address of %s", n.Kind)
		return asm.Mem{}
	}
}

// storage emits a variable, element or field reference.
func (cg *CodeGen) storage(n *Node, mode Mode) {
	mem := cg.address(n)
	if mode == ModeAddress {
		cg.pushAddress(mem)
		return
	}
	cg.pushValue(n.Type, mem, n.Pos)
}

func setFlag(op Operator, isReal bool) asm.Op {
	// Reals compare through the unsigned condition codes ucomisd sets.
	switch op {
	case OpEq:
		return asm.OpSete
	case OpNe:
		return asm.OpSetne
	case OpLt:
		if isReal {
			return asm.OpSetb
		}
		return asm.OpSetl
	case OpLe:
		if isReal {
			return asm.OpSetbe
		}
		return asm.OpSetle
	case OpGt:
		if isReal {
			return asm.OpSeta
		}
		return asm.OpSetg
	case OpGe:
		if isReal {
			return asm.OpSetae
		}
		return asm.OpSetge
	default:
		invariant("comparison %s", op)
		return asm.OpLabel
	}
}

func intInstruction(op Operator) asm.Op {
	switch op {
	case OpAdd:
		return asm.OpAdd
	case OpSub:
		return asm.OpSub
	case OpAnd:
		return asm.OpAnd
	case OpOr:
		return asm.OpOr
	case OpXor:
		return asm.OpXor
	case OpShl:
		return asm.OpShl
	case OpShr:
		return asm.OpSar
	default:
		invariant("integer operator %s", op)
		return asm.OpLabel
	}
}

// realInstruction also maps the compound assignments onto their
// arithmetic.
func realInstruction(op Operator) asm.Op {
	switch op {
	case OpAdd, OpAddAssign:
		return asm.OpAddsd
	case OpSub, OpSubAssign:
		return asm.OpSubsd
	case OpMul, OpMulAssign:
		return asm.OpMulsd
	case OpDivide, OpDivAssign:
		return asm.OpDivsd
	default:
		invariant("real operator %s", op)
		return asm.OpLabel
	}
}

func (cg *CodeGen) binary(n *Node, mode Mode) {
	if mode != ModeValue {
		invariant("address of %s expression", n.Op)
	}
	n.Left().Emit(cg, ModeValue)
	n.Right().Emit(cg, ModeValue)

	isReal := n.Left().Type.BaseType().Category == CategoryReal
	switch {
	case isReal && n.Op.IsRelational():
		cg.compareReals(n)
	case isReal:
		cg.emit(asm.OpMovsd, asm.XMM1, asm.At(asm.Qword, asm.ESP, 0))
		cg.emit(asm.OpAdd, asm.ESP, asm.Imm(8))
		cg.emit(asm.OpMovsd, asm.XMM0, asm.At(asm.Qword, asm.ESP, 0))
		cg.emit(realInstruction(n.Op), asm.XMM0, asm.XMM1)
		cg.emit(asm.OpMovsd, asm.At(asm.Qword, asm.ESP, 0), asm.XMM0)
	case n.Op.IsRelational():
		cg.emit(asm.OpPop, asm.EBX)
		cg.emit(asm.OpPop, asm.EAX)
		cg.emit(asm.OpCmp, asm.EAX, asm.EBX)
		cg.emit(setFlag(n.Op, false), asm.AL)
		cg.emit(asm.OpMovzx, asm.EAX, asm.AL)
		cg.emit(asm.OpNeg, asm.EAX)
		cg.emit(asm.OpPush, asm.EAX)
	default:
		cg.emit(asm.OpPop, asm.EBX)
		cg.emit(asm.OpPop, asm.EAX)
		switch n.Op {
		case OpMul:
			cg.emit(asm.OpImul, asm.EAX, asm.EBX)
		case OpDiv, OpMod:
			cg.emit(asm.OpCdq)
			cg.emit(asm.OpIdiv, asm.EBX)
			if n.Op == OpMod {
				cg.emit(asm.OpMov, asm.EAX, asm.EDX)
			}
		case OpShl, OpShr:
			cg.emit(asm.OpMov, asm.ECX, asm.EBX)
			cg.emit(intInstruction(n.Op), asm.EAX, asm.CL)
		default:
			cg.emit(intInstruction(n.Op), asm.EAX, asm.EBX)
		}
		cg.emit(asm.OpPush, asm.EAX)
	}
}

// compareReals leaves -1 or 0 on the stack. An unordered comparison (a
// NaN operand) is false for every operator except <>.
func (cg *CodeGen) compareReals(n *Node) {
	unordered := asm.LocalLabel(n.Pos.Row, n.Pos.Col, "unordered")
	done := asm.LocalLabel(n.Pos.Row, n.Pos.Col, "compared")

	cg.emit(asm.OpMovsd, asm.XMM1, asm.At(asm.Qword, asm.ESP, 0))
	cg.emit(asm.OpMovsd, asm.XMM0, asm.At(asm.Qword, asm.ESP, 8))
	cg.emit(asm.OpAdd, asm.ESP, asm.Imm(16))
	cg.emit(asm.OpUcomisd, asm.XMM0, asm.XMM1)
	cg.emit(asm.OpJp, asm.Symbol(unordered))
	cg.emit(setFlag(n.Op, true), asm.AL)
	cg.emit(asm.OpMovzx, asm.EAX, asm.AL)
	cg.emit(asm.OpNeg, asm.EAX)
	cg.emit(asm.OpJmp, asm.Symbol(done))
	cg.prog.Label(unordered)
	if n.Op == OpNe {
		cg.emit(asm.OpMov, asm.EAX, asm.Imm(-1))
	} else {
		cg.emit(asm.OpMov, asm.EAX, asm.Imm(0))
	}
	cg.prog.Label(done)
	cg.emit(asm.OpPush, asm.EAX)
}

func (cg *CodeGen) unary(n *Node, mode Mode) {
	if mode != ModeValue {
		invariant("address of unary %s", n.Op)
	}
	n.Operand().Emit(cg, ModeValue)
	switch {
	case n.Op == OpAdd:
	case n.Op == OpNot:
		cg.emit(asm.OpNot, asm.At(asm.Dword, asm.ESP, 0))
	case n.Type.BaseType().Category == CategoryReal:
		cg.emit(asm.OpXor, asm.At(asm.Dword, asm.ESP, 4), asm.Hex(0x80000000))
	default:
		cg.emit(asm.OpNeg, asm.At(asm.Dword, asm.ESP, 0))
	}
}

func (cg *CodeGen) cast(n *Node, mode Mode) {
	if mode != ModeValue {
		invariant("address of a conversion")
	}
	n.Target.Emit(cg, ModeValue)
	from := n.Target.Type.BaseType().Category
	to := n.Type.BaseType().Category
	switch {
	case from == to:
	case to == CategoryReal:
		cg.emit(asm.OpPop, asm.EAX)
		cg.emit(asm.OpCvtsi2sd, asm.XMM0, asm.EAX)
		cg.pushReal(asm.XMM0)
	case from == CategoryReal:
		cg.popReal(asm.XMM0)
		cg.emit(asm.OpCvttsd2si, asm.EAX, asm.XMM0)
		if to == CategoryChar {
			cg.emit(asm.OpMovsx, asm.EAX, asm.AL)
		}
		cg.emit(asm.OpPush, asm.EAX)
	case to == CategoryChar:
		cg.emit(asm.OpPop, asm.EAX)
		cg.emit(asm.OpMovsx, asm.EAX, asm.AL)
		cg.emit(asm.OpPush, asm.EAX)
	case from == CategoryChar && to == CategoryInteger:
		// Characters are already sign-extended on the stack.
	default:
		invariant("conversion from %s to %s", from, to)
	}
}

// call pushes arguments left to right and calls the function; the callee
// pops them. The result is pushed in value mode. In address mode a
// composite result is copied into a frame temporary whose address is
// pushed.
func (cg *CodeGen) call(n *Node, mode Mode) {
	fn := n.Target
	ft := fn.Type.BaseType()
	label, ok := cg.prog.FunctionLabel(fn.Name)
	if !ok {
		invariant("function %s has no label", fn.Name)
	}
	if want := asm.FuncLabel(ft.Decl.Row, ft.Decl.Col, fn.Name); label != want {
		invariant("call to %s resolved to %s", want, label)
	}
	for i, p := range ft.Params.Entries() {
		arg := p.Value
		if i < len(n.Children) && n.Children[i] != nil {
			arg = n.Children[i]
		}
		if p.Type.IsVarParam() {
			arg.Emit(cg, ModeAddress)
			continue
		}
		arg.Emit(cg, ModeValue)
	}
	cg.emit(asm.OpCall, asm.Symbol(label))

	rt := n.Type.BaseType()
	if mode == ModeAddress {
		if rt.Category != CategoryArray && rt.Category != CategoryRecord {
			invariant("address of a %s call result", rt)
		}
		tmp := cg.temp(rt.Size())
		cg.emit(asm.OpMov, asm.ESI, asm.AddrOf(asm.ResultBuffer))
		cg.emit(asm.OpLea, asm.EDI, tmp)
		cg.copyWords(n.Pos, "ret", rt.Size()/4)
		cg.emit(asm.OpLea, asm.EAX, tmp)
		cg.emit(asm.OpPush, asm.EAX)
		return
	}
	switch rt.Category {
	case CategoryNil:
	case CategoryInteger, CategoryChar, CategoryPointer, CategoryString:
		cg.emit(asm.OpPush, asm.EAX)
	case CategoryReal:
		cg.pushReal(asm.XMM0)
	case CategoryArray, CategoryRecord:
		cg.emit(asm.OpMov, asm.ESI, asm.AddrOf(asm.ResultBuffer))
		cg.emit(asm.OpSub, asm.ESP, asm.Imm(rt.Size()))
		cg.emit(asm.OpMov, asm.EDI, asm.ESP)
		cg.copyWords(n.Pos, "ret", rt.Size()/4)
	default:
		invariant("call result of type %s", rt)
	}
}
