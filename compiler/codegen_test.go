package compiler

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"
	"github.com/pasc-lang/pasc/asm"
)

// kitchenSink touches every statement form, nested routines reaching
// outer frames, var parameters, defaults and composite results.
const kitchenSink = `(program sink
  (type vec (array 1 3 real))
  (type cell (record (tag char) (n integer)))
  (var v vec)
  (var cells (array 0 4 cell))
  (var i integer)
  (var total real 0.5)
  (var ch char)
  (var pair (array 0 1 integer) (init 7 8))
  (function norm ((var a vec) (scale real 1.0)) real
    (var k integer)
    (begin
      (:= result 0)
      (for k 1 to 3
        (+= result (* (index a k) (index a k))))
      (*= result scale)))
  (function first () cell
    (begin
      (:= (field result tag) (char "a"))
      (:= (field result n) 1)
      (exit)))
  (procedure fill ((n integer))
    (procedure inner ()
      (begin (+= i n)))
    (begin
      (while (< i n)
        (begin
          (call inner)
          (if (= (mod i 2) 0) (continue))
          (if (> i 100) (break))))))
  (begin
    (read i)
    (read ch)
    (:= (index cells i) (call first))
    (:= (field (index cells 2) n) (field (call first) n))
    (call fill 10)
    (:= total (call norm v))
    (:= total (call norm v 2))
    (call first)
    (repeat (-= i 1) (<= i 0))
    (for i 3 downto 1 (write (index v i) " "))
    (writeln total ch (cast integer total) (index pair 1))
    (if (and (<> total 0.0) (not (= ch (char "x"))))
      (writeln "ok")
      (writeln "no"))))`

func generateFunctions(t *testing.T, src string) []*asm.Function {
	t.Helper()
	p, err := ReadProgram(src)
	be.Err(t, err, nil)
	cg := &CodeGen{prog: asm.NewProgram()}
	cg.prog.SetEntry(cg.function(p.Name, p.Main, p.Body, 1))
	return cg.prog.Functions()
}

// stackDelta is how far an instruction moves esp, counting a call as
// popping the callee's arguments.
func stackDelta(in asm.Instruction, params map[string]int) int {
	switch in.Op {
	case asm.OpPush:
		return 4
	case asm.OpPop:
		return -4
	case asm.OpSub, asm.OpAdd:
		if in.Args[0] != asm.ESP {
			return 0
		}
		n := int(in.Args[1].(asm.Imm))
		if in.Op == asm.OpAdd {
			return -n
		}
		return n
	case asm.OpCall:
		return -params[string(in.Args[0].(asm.Symbol))]
	default:
		return 0
	}
}

func TestGeneratedCodeBalancesStack(t *testing.T) {
	functions := generateFunctions(t, kitchenSink)
	be.Equal(t, len(functions), 5)

	params := make(map[string]int)
	for _, f := range functions {
		params[f.Label] = f.ParamsSize()
	}
	for _, f := range functions {
		t.Run(f.Name, func(t *testing.T) {
			depth := 0
			for _, in := range f.Code {
				depth += stackDelta(in, params)
				be.True(t, depth >= 0)
			}
			be.Equal(t, depth, 0)
		})
	}
}

func TestJumpsStayInsideTheirFunction(t *testing.T) {
	jumps := map[asm.Op]bool{
		asm.OpJmp: true, asm.OpJe: true, asm.OpJne: true,
		asm.OpJg: true, asm.OpJl: true, asm.OpJp: true,
	}
	for _, f := range generateFunctions(t, kitchenSink) {
		defined := make(map[string]bool)
		for _, in := range f.Code {
			if in.Op == asm.OpLabel {
				defined[string(in.Args[0].(asm.Symbol))] = true
			}
		}
		for _, in := range f.Code {
			if jumps[in.Op] {
				target := string(in.Args[0].(asm.Symbol))
				if !defined[target] {
					t.Errorf("%s jumps to %s, which it does not define", f.Name, target)
				}
			}
		}
	}
}

func TestFunctionsCloseInnermostFirst(t *testing.T) {
	var names []string
	var depths []int
	for _, f := range generateFunctions(t, kitchenSink) {
		names = append(names, f.Name)
		depths = append(depths, f.Depth)
	}
	be.Equal(t, names, []string{"norm", "first", "inner", "fill", "sink"})
	be.Equal(t, depths, []int{2, 2, 3, 2, 1})
}

func TestFrameSizes(t *testing.T) {
	for _, f := range generateFunctions(t, kitchenSink) {
		switch f.Name {
		case "norm":
			// result, k and the for limit
			be.Equal(t, f.LocalsSize(), 16)
			be.Equal(t, f.ParamsSize(), 12)
		case "first":
			be.Equal(t, f.LocalsSize(), 8)
			be.Equal(t, f.ParamsSize(), 0)
		case "fill":
			be.Equal(t, f.ParamsSize(), 4)
		}
	}
}

func TestGenerateProgramText(t *testing.T) {
	p, err := ReadProgram(kitchenSink)
	be.Err(t, err, nil)
	text := Generate(p)

	be.True(t, strings.HasPrefix(text, "include c:\\masm32\\include\\masm32rt.inc\n.xmm\n.const\n"))
	be.True(t, strings.HasSuffix(text, "start:\ncall __function@LN1AT1sink\nexit\nend start\n"))
	be.True(t, strings.Contains(text, "__result@ db 8 dup(?)\n"))

	// Every real constant is pooled once.
	be.Equal(t, strings.Count(text, "__real@3ff0000000000000 dq"), 1)
	be.Equal(t, strings.Count(text, "__real@3fe0000000000000 dq"), 1)

	// Strings are interned.
	be.Equal(t, strings.Count(text, "db 37,100,0\n"), 1)

	// The nested procedure reaches i through the program's display slot
	// and n through its parent's.
	be.True(t, strings.Contains(text, "mov eax, dword ptr [ebp - 4]\n"))
	be.True(t, strings.Contains(text, "mov eax, dword ptr [ebp - 8]\npush dword ptr [eax + 8]\n"))
}

func TestGenerateAfterOptimizing(t *testing.T) {
	p, err := ReadProgram(`(program p
  (var x integer)
  (begin
    (if 0 (writeln "never"))
    (for x 1 to 1 (write x))
    (while 0 (:= x 2))))`)
	be.Err(t, err, nil)
	OptimizeProgram(p)
	text := Generate(p)

	be.True(t, !strings.Contains(text, "never"))
	be.True(t, !strings.Contains(text, "while"))
	be.True(t, !strings.Contains(text, "endfor"))
	be.True(t, strings.Contains(text, "enter 4, 1\npush 1\npop eax\nmov dword ptr [ebp - 8], eax\npush dword ptr [ebp - 8]\n"))
}

func TestFoldedExpressionPushesOneLiteral(t *testing.T) {
	n, err := ReadExpression("(+ 5 3)")
	be.Err(t, err, nil)
	cg := &CodeGen{prog: asm.NewProgram()}
	cg.prog.BeginFunction("f", "f", 1, NewFrameTable(), NewFrameTable())
	n.Emit(cg, ModeValue)

	code := cg.prog.Current().Code
	be.Equal(t, len(code), 1)
	be.Equal(t, code[0].String(), "push 8")
}

// Every operator the constructors accept on a pair of operand classes
// emits without reaching an invariant.
func TestEveryTypedOperatorEmits(t *testing.T) {
	pos := Position{1, 1}
	pairs := [][2]*Type{
		{Integer, Integer}, {Real, Real}, {Char, Char},
		{Integer, Real}, {Real, Integer},
	}
	emitted := 0
	for op := range operatorNames {
		for _, pair := range pairs {
			st := frameWith(t, "a", pair[0], "b", pair[1])
			st.ComputeOffsets()
			var n *Node
			var err error
			if op.IsAssignment() {
				n, err = NewAssign(pos, op, variable(st, "a"), variable(st, "b"))
			} else {
				n, err = NewBinary(pos, op, variable(st, "a"), variable(st, "b"))
			}
			if err != nil {
				continue
			}
			t.Run(pair[0].String()+" "+op.String()+" "+pair[1].String(), func(t *testing.T) {
				cg := &CodeGen{prog: asm.NewProgram(), fn: &frame{name: "f", depth: 1}}
				cg.prog.BeginFunction("f", "f", 1, st, NewFrameTable())
				n.Emit(cg, ModeValue)
				be.True(t, len(cg.prog.Current().Code) > 0)
			})
			emitted++
		}
	}
	// 6 relations on 5 pairs, 4 arithmetic operators on 4 numeric
	// pairs, 7 integer-only operators, := on 4 pairs, 3 compound
	// assignments on 3 numeric pairs and /= on 2.
	be.Equal(t, emitted, 30+16+7+4+9+2)
}

func TestOperatorInstructionsCoverTheirOperators(t *testing.T) {
	for op := range operatorNames {
		if op.IsRelational() {
			setFlag(op, false)
			setFlag(op, true)
		} else {
			invariantPanic(t, func() { setFlag(op, false) })
			invariantPanic(t, func() { setFlag(op, true) })
		}

		switch op {
		case OpAdd, OpSub, OpAnd, OpOr, OpXor, OpShl, OpShr:
			intInstruction(op)
		default:
			invariantPanic(t, func() { intInstruction(op) })
		}

		switch op {
		case OpAdd, OpSub, OpMul, OpDivide, OpAddAssign, OpSubAssign, OpMulAssign, OpDivAssign:
			realInstruction(op)
		default:
			invariantPanic(t, func() { realInstruction(op) })
		}
	}
	be.Equal(t, setFlag(OpLt, true), asm.OpSetb)
	be.Equal(t, setFlag(OpLt, false), asm.OpSetl)
	be.Equal(t, intInstruction(OpShr), asm.OpSar)
	be.Equal(t, realInstruction(OpDivAssign), asm.OpDivsd)
}

func TestCallsBindToTheRoutineInScope(t *testing.T) {
	calls := make(map[string][]string)
	for _, f := range generateFunctions(t, `(program p
  (procedure g () (begin (writeln "outer")))
  (procedure f ()
    (procedure h () (begin (call g)))
    (procedure g () (begin (call g)))
    (begin (call h) (call g)))
  (begin (call f) (call g)))`) {
		for _, in := range f.Code {
			if in.Op == asm.OpCall && strings.HasPrefix(in.Args[0].String(), "__function@") {
				calls[f.Label] = append(calls[f.Label], in.Args[0].String())
			}
		}
	}

	outer, inner := "__function@LN2AT3g", "__function@LN5AT5g"
	// h was declared before f's own g, so it still sees the outer one.
	be.Equal(t, calls["__function@LN4AT5h"], []string{outer})
	be.Equal(t, calls[inner], []string{inner})
	be.Equal(t, calls["__function@LN3AT3f"], []string{"__function@LN4AT5h", inner})
	be.Equal(t, calls["__function@LN1AT1p"], []string{"__function@LN3AT3f", outer})
}
