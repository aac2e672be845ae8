package compiler

import "github.com/pasc-lang/pasc/asm"

func (cg *CodeGen) label(pos Position, purpose string) string {
	return asm.LocalLabel(pos.Row, pos.Col, purpose)
}

func (cg *CodeGen) assign(n *Node) {
	left, right := n.Left(), n.Right()
	lt := left.Type.BaseType()

	if lt.Category == CategoryArray || lt.Category == CategoryRecord {
		if n.Op != OpAssign {
			invariant("compound assignment to %s", lt)
		}
		left.Emit(cg, ModeAddress)
		right.Emit(cg, ModeAddress)
		cg.emit(asm.OpPop, asm.ESI)
		cg.emit(asm.OpPop, asm.EDI)
		cg.copyWords(n.Pos, "assign", lt.Size()/4)
		return
	}

	// Real compound operands go to xmm1 so xmm0 can load the target.
	which := 0
	if n.Op != OpAssign && lt.Category == CategoryReal {
		which = 1
	}

	var mem asm.Mem
	if cg.direct(left) {
		right.Emit(cg, ModeValue)
		cg.popScalar(lt, which)
		mem = cg.location(left, memSize(lt))
	} else {
		left.Emit(cg, ModeAddress)
		right.Emit(cg, ModeValue)
		cg.popScalar(lt, which)
		cg.emit(asm.OpPop, asm.EBX)
		mem = asm.At(memSize(lt), asm.EBX, 0)
	}

	switch {
	case n.Op == OpAssign:
		cg.storeScalar(lt, mem, 0)
	case lt.Category == CategoryReal:
		cg.emit(asm.OpMovsd, asm.XMM0, mem)
		cg.emit(realInstruction(n.Op), asm.XMM0, asm.XMM1)
		cg.emit(asm.OpMovsd, mem, asm.XMM0)
	case n.Op == OpAddAssign:
		cg.emit(asm.OpAdd, mem, asm.EAX)
	case n.Op == OpSubAssign:
		cg.emit(asm.OpSub, mem, asm.EAX)
	case n.Op == OpMulAssign:
		cg.emit(asm.OpImul, asm.EAX, mem)
		cg.emit(asm.OpMov, mem, asm.EAX)
	default:
		invariant("%s on %s", n.Op, lt)
	}
}

// branch pops a condition and jumps to target when it is false.
func (cg *CodeGen) branch(cond *Node, target string) {
	cond.Emit(cg, ModeValue)
	cg.emit(asm.OpPop, asm.EAX)
	cg.emit(asm.OpCmp, asm.EAX, asm.Imm(0))
	cg.emit(asm.OpJe, asm.Symbol(target))
}

func (cg *CodeGen) optional(n *Node) {
	if n != nil {
		cg.statement(n)
	}
}

func (cg *CodeGen) ifStatement(n *Node) {
	els := cg.label(n.Pos, "else")
	end := cg.label(n.Pos, "endif")
	cg.branch(n.Cond(), els)
	cg.optional(n.Then())
	cg.emit(asm.OpJmp, asm.Symbol(end))
	cg.prog.Label(els)
	cg.optional(n.Else())
	cg.prog.Label(end)
}

func (cg *CodeGen) whileStatement(n *Node) {
	cond := cg.label(n.Pos, "while")
	end := cg.label(n.Pos, "endwhile")
	cg.prog.Label(cond)
	cg.branch(n.Cond(), end)
	cg.prog.PushLoop(asm.Loop{Continue: cond, Break: end})
	cg.optional(n.Body())
	cg.prog.PopLoop()
	cg.emit(asm.OpJmp, asm.Symbol(cond))
	cg.prog.Label(end)
}

func (cg *CodeGen) repeatStatement(n *Node) {
	body := cg.label(n.Pos, "repeat")
	cond := cg.label(n.Pos, "until")
	end := cg.label(n.Pos, "endrepeat")
	cg.prog.Label(body)
	cg.prog.PushLoop(asm.Loop{Continue: cond, Break: end})
	cg.optional(n.Body())
	cg.prog.PopLoop()
	cg.prog.Label(cond)
	cg.branch(n.Cond(), body)
	cg.prog.Label(end)
}

// forStatement evaluates both bounds once. The limit lives in a frame
// temporary so break and exit leave the stack balanced.
func (cg *CodeGen) forStatement(n *Node) {
	v := n.Children[0]
	cond := cg.label(n.Pos, "for")
	step := cg.label(n.Pos, "step")
	end := cg.label(n.Pos, "endfor")

	n.Children[1].Emit(cg, ModeValue)
	n.Children[2].Emit(cg, ModeValue)
	limit := cg.temp(4)
	cg.emit(asm.OpPop, asm.EAX)
	cg.emit(asm.OpMov, limit, asm.EAX)
	cg.emit(asm.OpPop, asm.ECX)
	cg.emit(asm.OpMov, cg.location(v, asm.Dword), asm.ECX)

	cg.prog.Label(cond)
	cg.emit(asm.OpMov, asm.ECX, cg.location(v, asm.Dword))
	cg.emit(asm.OpCmp, asm.ECX, limit)
	if n.Downto {
		cg.emit(asm.OpJl, asm.Symbol(end))
	} else {
		cg.emit(asm.OpJg, asm.Symbol(end))
	}
	cg.prog.PushLoop(asm.Loop{Continue: step, Break: end})
	cg.optional(n.Body())
	cg.prog.PopLoop()
	cg.prog.Label(step)
	if n.Downto {
		cg.emit(asm.OpSub, cg.location(v, asm.Dword), asm.Imm(1))
	} else {
		cg.emit(asm.OpAdd, cg.location(v, asm.Dword), asm.Imm(1))
	}
	cg.emit(asm.OpJmp, asm.Symbol(cond))
	cg.prog.Label(end)
}

func printfFormat(t *Type) (format string, argSize int) {
	switch t.BaseType().Category {
	case CategoryInteger:
		return "%d", 4
	case CategoryChar:
		return "%c", 4
	case CategoryReal:
		return "%f", 8
	case CategoryString:
		return "%s", 4
	default:
		invariant("write %s", t)
		return "", 0
	}
}

func (cg *CodeGen) write(n *Node) {
	for _, arg := range n.Children {
		format, size := printfFormat(arg.Type)
		arg.Emit(cg, ModeValue)
		cg.emit(asm.OpPush, asm.AddrOf(cg.prog.InternString(format)))
		cg.emit(asm.OpCall, asm.Symbol("crt_printf"))
		cg.emit(asm.OpAdd, asm.ESP, asm.Imm(size+4))
	}
	if n.Newline {
		cg.emit(asm.OpPush, asm.AddrOf(cg.prog.InternString("\n")))
		cg.emit(asm.OpCall, asm.Symbol("crt_printf"))
		cg.emit(asm.OpAdd, asm.ESP, asm.Imm(4))
	}
}

func scanfFormat(t *Type) string {
	switch t.BaseType().Category {
	case CategoryInteger:
		return "%d"
	case CategoryChar:
		return "%c"
	case CategoryReal:
		return "%lf"
	default:
		invariant("read %s", t)
		return ""
	}
}

func (cg *CodeGen) read(n *Node) {
	for _, arg := range n.Children {
		arg.Emit(cg, ModeAddress)
		cg.emit(asm.OpPush, asm.AddrOf(cg.prog.InternString(scanfFormat(arg.Type))))
		cg.emit(asm.OpCall, asm.Symbol("crt_scanf"))
		cg.emit(asm.OpAdd, asm.ESP, asm.Imm(8))
	}
}
