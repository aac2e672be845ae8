package compiler

import (
	"github.com/pasc-lang/pasc/asm"
)

// Mode selects what an expression leaves on the stack.
type Mode int

const (
	ModeValue   Mode = iota // the value itself
	ModeAddress             // the address of the storage holding it
)

// Program is a compiled unit: the root scope holding predeclared types
// and the program entry, and the program itself as a function of depth 1.
type Program struct {
	Name string
	Root *SymbolTable
	Main *Type
	Body *Node
}

// CodeGen walks a typed tree and emits stack-machine code.
type CodeGen struct {
	prog *asm.Program
	fn   *frame
}

// frame is the function currently being emitted.
type frame struct {
	name  string
	typ   *Type
	depth int
}

// Generate emits the whole program as MASM32 source.
func Generate(p *Program) string {
	cg := &CodeGen{prog: asm.NewProgram()}
	label := cg.function(p.Name, p.Main, p.Body, 1)
	cg.prog.SetEntry(label)
	return cg.prog.Serialize()
}

// function emits fn and, before its body, every function nested in it.
func (cg *CodeGen) function(name string, fn *Type, body *Node, depth int) string {
	fn.Params.ComputeOffsets()
	fn.Locals.ComputeOffsets()
	label := asm.FuncLabel(fn.Decl.Row, fn.Decl.Col, name)
	cg.prog.BeginFunction(name, label, depth, fn.Locals, fn.Params)
	outer := cg.fn
	cg.fn = &frame{name: name, typ: fn, depth: depth}

	// Nested functions become visible one by one, in declaration order,
	// so a name resolves to the routine that was in scope where it was
	// used rather than to a later namesake.
	for _, s := range fn.Locals.Entries() {
		if s.Type.Category == CategoryFunction && s.Value != nil {
			cg.prog.Declare(s.Name, asm.FuncLabel(s.Type.Decl.Row, s.Type.Decl.Col, s.Name))
			cg.function(s.Name, s.Type, s.Value, depth+1)
		}
	}

	cg.initLocals()
	if body != nil {
		cg.statement(body)
	}
	cg.loadResult(fn.Decl)

	cg.prog.EndFunction()
	cg.fn = outer
	return label
}

func (cg *CodeGen) emit(op asm.Op, args ...asm.Operand) {
	cg.prog.Emit(op, args...)
}

// initLocals stores declared initial values, in declaration order.
func (cg *CodeGen) initLocals() {
	locals := cg.fn.typ.Locals
	for _, s := range locals.Entries() {
		if s.Value == nil || s.Type.Category == CategoryFunction || s.Type.Category == CategoryAlias {
			continue
		}
		v := NewVariable(s.Value.Pos, s.Name, s.Type, Binding{Table: locals, Depth: cg.fn.depth})
		t := s.Type.BaseType()
		if t.Category == CategoryArray || t.Category == CategoryRecord {
			s.Value.Emit(cg, ModeValue)
			cg.emit(asm.OpMov, asm.ESI, asm.ESP)
			cg.emit(asm.OpLea, asm.EDI, cg.location(v, asm.Dword))
			cg.copyWords(s.Value.Pos, "init", t.Size()/4)
			cg.emit(asm.OpAdd, asm.ESP, asm.Imm(t.Size()))
			continue
		}
		s.Value.Emit(cg, ModeValue)
		cg.popScalar(t, 0)
		cg.storeScalar(t, cg.location(v, memSize(t)), 0)
	}
}

// loadResult moves the function result into its return location: eax,
// xmm0, or the shared result buffer for composites.
func (cg *CodeGen) loadResult(pos Position) {
	fn := cg.fn.typ
	if fn.Return == nil {
		return
	}
	rt, err := fn.Locals.Type(resultName)
	if err != nil {
		invariant("function %s has no result slot", cg.fn.name)
	}
	v := NewVariable(pos, resultName, rt, Binding{Table: fn.Locals, Depth: cg.fn.depth})
	t := rt.BaseType()
	switch t.Category {
	case CategoryInteger, CategoryPointer, CategoryString:
		cg.emit(asm.OpMov, asm.EAX, cg.location(v, asm.Dword))
	case CategoryChar:
		cg.emit(asm.OpMovsx, asm.EAX, cg.location(v, asm.Byte))
	case CategoryReal:
		cg.emit(asm.OpMovsd, asm.XMM0, cg.location(v, asm.Qword))
	case CategoryArray, CategoryRecord:
		buf := cg.prog.ReserveResult(t.Size())
		cg.emit(asm.OpLea, asm.ESI, cg.location(v, asm.Dword))
		cg.emit(asm.OpMov, asm.EDI, asm.AddrOf(buf))
		cg.copyWords(pos, "result", t.Size()/4)
	default:
		invariant("function result of type %s", t)
	}
}

// stackSize is how many bytes a value of t occupies on the stack.
func stackSize(t *Type) int {
	t = t.BaseType()
	switch t.Category {
	case CategoryNil:
		return 0
	case CategoryChar:
		return 4
	default:
		return roundUp(t.Size(), 4)
	}
}

// memSize is the access width for a scalar stored in memory.
func memSize(t *Type) asm.Size {
	switch t.BaseType().Category {
	case CategoryChar:
		return asm.Byte
	case CategoryReal:
		return asm.Qword
	default:
		return asm.Dword
	}
}

// location addresses a variable's storage. Outer frames are reached
// through the display the enter instruction builds below ebp; reaching
// them, or dereferencing a var parameter, loads eax.
func (cg *CodeGen) location(v *Node, size asm.Size) asm.Mem {
	b := v.Binding
	if b.Depth > cg.fn.depth || b.Depth < 1 {
		invariant("variable %s of depth %d used at depth %d", v.Name, b.Depth, cg.fn.depth)
	}
	off, err := b.Table.Offset(v.Name)
	if err != nil {
		invariant("%v", err)
	}
	disp := -(4*b.Depth + off)
	if b.Param {
		disp = 8 + b.Table.Size() - off
	}
	base := asm.EBP
	if b.Depth != cg.fn.depth {
		cg.emit(asm.OpMov, asm.EAX, asm.At(asm.Dword, asm.EBP, -4*b.Depth))
		base = asm.EAX
	}
	if v.Type.IsVarParam() {
		cg.emit(asm.OpMov, asm.EAX, asm.At(asm.Dword, base, disp))
		return asm.At(size, asm.EAX, 0)
	}
	return asm.At(size, base, disp)
}

// direct reports whether location emits no code for v.
func (cg *CodeGen) direct(v *Node) bool {
	return v.Kind == NodeVariable && v.Binding.Depth == cg.fn.depth && !v.Type.IsVarParam()
}

// temp reserves a frame slot for the current function.
func (cg *CodeGen) temp(size int) asm.Mem {
	off := cg.prog.ReserveTemp(size)
	return asm.At(asm.Dword, asm.EBP, -(4*cg.fn.depth + off))
}

// pushAddress pushes the address of mem.
func (cg *CodeGen) pushAddress(mem asm.Mem) {
	if mem.Base != asm.EAX || mem.Disp != 0 {
		cg.emit(asm.OpLea, asm.EAX, mem.Resize(asm.Dword))
	}
	cg.emit(asm.OpPush, asm.EAX)
}

// pushValue pushes the value of type t stored at mem. Composites are
// copied word by word with a loop labelled from pos.
func (cg *CodeGen) pushValue(t *Type, mem asm.Mem, pos Position) {
	t = t.BaseType()
	switch t.Category {
	case CategoryInteger, CategoryPointer, CategoryString:
		cg.emit(asm.OpPush, mem.Resize(asm.Dword))
	case CategoryChar:
		cg.emit(asm.OpMovsx, asm.EAX, mem.Resize(asm.Byte))
		cg.emit(asm.OpPush, asm.EAX)
	case CategoryReal:
		cg.emit(asm.OpMovsd, asm.XMM0, mem.Resize(asm.Qword))
		cg.pushReal(asm.XMM0)
	case CategoryArray, CategoryRecord:
		cg.emit(asm.OpLea, asm.ESI, mem.Resize(asm.Dword))
		cg.emit(asm.OpSub, asm.ESP, asm.Imm(t.Size()))
		cg.emit(asm.OpMov, asm.EDI, asm.ESP)
		cg.copyWords(pos, "copy", t.Size()/4)
	default:
		invariant("load value of type %s", t)
	}
}

func (cg *CodeGen) pushReal(reg asm.Register) {
	cg.emit(asm.OpSub, asm.ESP, asm.Imm(8))
	cg.emit(asm.OpMovsd, asm.At(asm.Qword, asm.ESP, 0), reg)
}

func (cg *CodeGen) popReal(reg asm.Register) {
	cg.emit(asm.OpMovsd, reg, asm.At(asm.Qword, asm.ESP, 0))
	cg.emit(asm.OpAdd, asm.ESP, asm.Imm(8))
}

// popScalar pops a scalar of type t into eax (which = 0) or ebx
// (which = 1) for integers, and xmm0 or xmm1 for reals.
func (cg *CodeGen) popScalar(t *Type, which int) {
	if t.BaseType().Category == CategoryReal {
		cg.popReal([]asm.Register{asm.XMM0, asm.XMM1}[which])
		return
	}
	cg.emit(asm.OpPop, []asm.Register{asm.EAX, asm.EBX}[which])
}

// storeScalar writes the register popScalar filled to mem.
func (cg *CodeGen) storeScalar(t *Type, mem asm.Mem, which int) {
	switch t.BaseType().Category {
	case CategoryReal:
		cg.emit(asm.OpMovsd, mem.Resize(asm.Qword), []asm.Register{asm.XMM0, asm.XMM1}[which])
	case CategoryChar:
		if which != 0 {
			invariant("byte store from ebx")
		}
		cg.emit(asm.OpMov, mem.Resize(asm.Byte), asm.AL)
	default:
		cg.emit(asm.OpMov, mem.Resize(asm.Dword), []asm.Register{asm.EAX, asm.EBX}[which])
	}
}

// copyWords copies n dwords from [esi] to [edi].
func (cg *CodeGen) copyWords(pos Position, purpose string, n int) {
	if n == 0 {
		return
	}
	loop := asm.LocalLabel(pos.Row, pos.Col, purpose)
	cg.emit(asm.OpMov, asm.ECX, asm.Imm(n))
	cg.prog.Label(loop)
	cg.emit(asm.OpMov, asm.EDX, asm.At(asm.Dword, asm.ESI, 0))
	cg.emit(asm.OpMov, asm.At(asm.Dword, asm.EDI, 0), asm.EDX)
	cg.emit(asm.OpAdd, asm.ESI, asm.Imm(4))
	cg.emit(asm.OpAdd, asm.EDI, asm.Imm(4))
	cg.emit(asm.OpDec, asm.ECX)
	cg.emit(asm.OpJne, asm.Symbol(loop))
}

// Emit generates code for the node. Expressions push according to mode;
// statements ignore it.
func (n *Node) Emit(cg *CodeGen, mode Mode) {
	switch n.Kind {
	case NodeConstant:
		cg.constant(n, mode)
	case NodeTypedConstant:
		if mode != ModeValue {
			invariant("address of an initializer")
		}
		cg.typedConstant(n)
	case NodeVariable, NodeIndex, NodeField:
		cg.storage(n, mode)
	case NodeBinary:
		cg.binary(n, mode)
	case NodeUnary:
		cg.unary(n, mode)
	case NodeCast:
		cg.cast(n, mode)
	case NodeCall:
		cg.call(n, mode)
	case NodeAssign:
		cg.assign(n)
	case NodeBlock:
		for _, s := range n.Children {
			if s != nil {
				cg.statement(s)
			}
		}
	case NodeIf:
		cg.ifStatement(n)
	case NodeWhile:
		cg.whileStatement(n)
	case NodeRepeat:
		cg.repeatStatement(n)
	case NodeFor:
		cg.forStatement(n)
	case NodeBreak:
		cg.emit(asm.OpJmp, asm.Symbol(cg.prog.Loop().Break))
	case NodeContinue:
		cg.emit(asm.OpJmp, asm.Symbol(cg.prog.Loop().Continue))
	case NodeExit:
		cg.loadResult(n.Pos)
		cg.prog.Epilogue()
	case NodeWrite:
		cg.write(n)
	case NodeRead:
		cg.read(n)
	default:
		invariant("emit %s", n.Kind)
	}
}

// statement emits n and discards any value it leaves behind.
func (cg *CodeGen) statement(n *Node) {
	n.Emit(cg, ModeValue)
	if n.IsExpression() {
		if size := stackSize(n.Type); size > 0 {
			cg.emit(asm.OpAdd, asm.ESP, asm.Imm(size))
		}
	}
}
