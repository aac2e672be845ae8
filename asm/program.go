package asm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Frame reports the byte size of a parameter or locals area.
type Frame interface {
	Size() int
}

// ResultBuffer is the data label composite function results travel through.
const ResultBuffer = "__result@"

// FuncLabel builds the label of a function declared at row:col.
func FuncLabel(row, col int, name string) string {
	return fmt.Sprintf("__function@LN%dAT%d%s", row, col, name)
}

// LocalLabel builds a jump label owned by the node at row:col.
func LocalLabel(row, col int, purpose string) string {
	return fmt.Sprintf("$LN%dAT%d%s@", row, col, purpose)
}

// DoubleLabel returns the pool label of a float64 with the given bits.
// MASM requires a hex literal to start with a digit.
func DoubleLabel(bits uint64) string {
	return "__real@" + doubleHex(bits)
}

func doubleHex(bits uint64) string {
	s := fmt.Sprintf("%016x", bits)
	if s[0] >= 'a' {
		s = "0" + s
	}
	return s
}

// Loop holds the jump targets of the innermost enclosing loop.
type Loop struct {
	Continue string
	Break    string
}

// Function is one assembly procedure.
type Function struct {
	Name  string
	Label string
	Depth int
	Code  []Instruction

	locals Frame
	params Frame
	temps  int

	declared map[string]string
	defined  map[string]bool
}

// LocalsSize is the byte size reserved by enter: declared locals plus
// compiler temporaries.
func (f *Function) LocalsSize() int {
	return f.locals.Size() + f.temps
}

// ParamsSize is the number of argument bytes the callee pops on return.
func (f *Function) ParamsSize() int {
	return f.params.Size()
}

// Program accumulates functions and constant pools for one translation
// unit.
type Program struct {
	functions []*Function
	active    []*Function

	doubles     map[uint64]string
	doubleOrder []uint64

	strings     map[string]string
	stringOrder []string

	loops      []Loop
	resultSize int
	entry      string
}

func NewProgram() *Program {
	return &Program{
		doubles: make(map[uint64]string),
		strings: make(map[string]string),
	}
}

// BeginFunction opens a function; instructions go to it until the
// matching EndFunction. Calls nest LIFO.
func (p *Program) BeginFunction(name, label string, depth int, locals, params Frame) *Function {
	f := &Function{
		Name:     name,
		Label:    label,
		Depth:    depth,
		locals:   locals,
		params:   params,
		declared: make(map[string]string),
		defined:  make(map[string]bool),
	}
	p.active = append(p.active, f)
	return f
}

// EndFunction closes the innermost open function. Functions serialize in
// closing order.
func (p *Program) EndFunction() {
	f := p.Current()
	p.active = p.active[:len(p.active)-1]
	p.functions = append(p.functions, f)
}

// Current returns the innermost open function.
func (p *Program) Current() *Function {
	if len(p.active) == 0 {
		panic("asm: no open function")
	}
	return p.active[len(p.active)-1]
}

// Functions returns closed functions in closing order.
func (p *Program) Functions() []*Function {
	return p.functions
}

func (p *Program) Emit(op Op, args ...Operand) {
	f := p.Current()
	f.Code = append(f.Code, Instruction{Op: op, Args: args})
}

// Label defines a local label at the current position. Labels are derived
// from source positions, so a repeated definition is a code generator bug.
func (p *Program) Label(name string) {
	f := p.Current()
	if f.defined[name] {
		panic(fmt.Sprintf("asm: label %s defined twice in %s", name, f.Label))
	}
	f.defined[name] = true
	p.Emit(OpLabel, Symbol(name))
}

// Epilogue emits the frame teardown and callee-cleanup return.
func (p *Program) Epilogue() {
	p.Emit(OpLeave)
	p.Emit(OpRet, Imm(p.Current().ParamsSize()))
}

// Declare makes a nested function visible to calls emitted inside the
// current function.
func (p *Program) Declare(name, label string) {
	p.Current().declared[name] = label
}

// FunctionLabel resolves a function name through the open functions,
// innermost first.
func (p *Program) FunctionLabel(name string) (string, bool) {
	for i := len(p.active) - 1; i >= 0; i-- {
		if label, ok := p.active[i].declared[name]; ok {
			return label, true
		}
	}
	return "", false
}

// ReserveTemp grows the current frame by size bytes and returns the
// offset of the new slot, measured like a local's offset.
func (p *Program) ReserveTemp(size int) int {
	f := p.Current()
	f.temps += size
	return f.LocalsSize()
}

// ReserveResult makes sure the composite result buffer holds size bytes.
func (p *Program) ReserveResult(size int) string {
	if size > p.resultSize {
		p.resultSize = size
	}
	return ResultBuffer
}

// InternDouble returns the pool label for v. Values are pooled by bit
// pattern, so 0.0 and -0.0 get separate entries.
func (p *Program) InternDouble(v float64) string {
	bits := math.Float64bits(v)
	if label, ok := p.doubles[bits]; ok {
		return label
	}
	label := DoubleLabel(bits)
	p.doubles[bits] = label
	p.doubleOrder = append(p.doubleOrder, bits)
	return label
}

// InternString returns the pool label for s, numbering new strings
// sequentially.
func (p *Program) InternString(s string) string {
	if label, ok := p.strings[s]; ok {
		return label
	}
	label := "__string@" + strconv.Itoa(len(p.stringOrder))
	p.strings[s] = label
	p.stringOrder = append(p.stringOrder, s)
	return label
}

func (p *Program) PushLoop(l Loop) {
	p.loops = append(p.loops, l)
}

func (p *Program) PopLoop() {
	if len(p.loops) == 0 {
		panic("asm: loop stack underflow")
	}
	p.loops = p.loops[:len(p.loops)-1]
}

// Loop returns the innermost loop's labels.
func (p *Program) Loop() Loop {
	if len(p.loops) == 0 {
		panic("asm: break or continue outside of a loop")
	}
	return p.loops[len(p.loops)-1]
}

// SetEntry names the function the start stub calls.
func (p *Program) SetEntry(label string) {
	p.entry = label
}

// Serialize renders the whole program as MASM32 source.
func (p *Program) Serialize() string {
	if len(p.active) != 0 {
		panic("asm: serializing with open functions")
	}
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(`include c:\masm32\include\masm32rt.inc`)
	line(".xmm")
	line(".const")
	for _, bits := range p.doubleOrder {
		hex := doubleHex(bits)
		line("%s dq %sr", p.doubles[bits], hex)
	}
	line(".data")
	for _, s := range p.stringOrder {
		line("%s db %s", p.strings[s], stringBytes(s))
	}
	if p.resultSize > 0 {
		line(".data?")
		line("%s db %d dup(?)", ResultBuffer, p.resultSize)
	}
	line(".code")
	for _, f := range p.functions {
		line("%s:", f.Label)
		line("enter %d, %d", f.LocalsSize(), f.Depth)
		for _, in := range f.Code {
			line("%s", in)
		}
		line("leave")
		line("ret %d", f.ParamsSize())
	}
	line("start:")
	if p.entry != "" {
		line("call %s", p.entry)
	}
	line("exit")
	line("end start")
	return b.String()
}

func stringBytes(s string) string {
	parts := make([]string, 0, len(s)+1)
	for i := 0; i < len(s); i++ {
		parts = append(parts, strconv.Itoa(int(s[i])))
	}
	parts = append(parts, "0")
	return strings.Join(parts, ",")
}
