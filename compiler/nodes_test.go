package compiler

import (
	"testing"

	"github.com/nalgeon/be"
)

func frameWith(t *testing.T, entries ...any) *SymbolTable {
	t.Helper()
	st := NewFrameTable()
	for i := 0; i < len(entries); i += 2 {
		be.Err(t, st.Add(entries[i].(string), entries[i+1].(*Type), nil), nil)
	}
	return st
}

func variable(st *SymbolTable, name string) *Node {
	typ, err := st.Type(name)
	if err != nil {
		panic(err)
	}
	return NewVariable(Position{1, 1}, name, typ, Binding{Table: st, Depth: 1})
}

func TestNewBinaryFoldsConstants(t *testing.T) {
	sum, err := NewBinary(Position{2, 3}, OpAdd, NewInteger(Position{2, 6}, 1), NewInteger(Position{2, 8}, 2))
	be.Err(t, err, nil)
	be.Equal(t, sum.Kind, NodeConstant)
	be.Equal(t, sum.Value.Int, int64(3))
	be.Equal(t, sum.Pos, Position{2, 6})
}

func TestNewBinaryPromotesToReal(t *testing.T) {
	st := frameWith(t, "n", Integer, "y", Real)
	n, err := NewBinary(Position{1, 1}, OpMul, variable(st, "n"), variable(st, "y"))
	be.Err(t, err, nil)
	be.Equal(t, n.Type, Real)
	be.Equal(t, n.Left().Kind, NodeCast)
	be.Equal(t, n.Left().Target.Name, "n")
	be.Equal(t, n.Right().Kind, NodeVariable)

	// Comparisons keep an integer result but compare as reals.
	cmp, err := NewBinary(Position{1, 1}, OpLt, variable(st, "y"), variable(st, "n"))
	be.Err(t, err, nil)
	be.Equal(t, cmp.Type, Integer)
	be.Equal(t, cmp.Right().Type, Real)

	// Slash divides integers as reals.
	div, err := NewBinary(Position{1, 1}, OpDivide, variable(st, "n"), variable(st, "n"))
	be.Err(t, err, nil)
	be.Equal(t, div.Type, Real)
	be.Equal(t, div.Left().Type, Real)
	be.Equal(t, div.Right().Type, Real)
}

func TestNewBinaryErrorsCarryPosition(t *testing.T) {
	_, err := NewBinary(Position{4, 7}, OpDiv, NewInteger(Position{4, 12}, 1), NewInteger(Position{4, 14}, 0))
	be.Err(t, err, ErrDivisionByZero)
	be.Equal(t, err.Error(), "(4, 7) error: division by zero in 'div'")

	_, err = NewBinary(Position{5, 1}, OpAnd, NewReal(Position{5, 6}, 1), NewInteger(Position{5, 10}, 1))
	be.Err(t, err, ErrUnsupportedOperand)
	be.Equal(t, err.Error(), "(5, 1) error: operator 'and' requires integer operands, got real and integer")
}

func TestNewUnary(t *testing.T) {
	st := frameWith(t, "x", Integer)
	n, err := NewUnary(Position{1, 1}, OpSub, variable(st, "x"))
	be.Err(t, err, nil)
	be.Equal(t, n.Kind, NodeUnary)
	be.Equal(t, n.Type, Integer)

	plus, err := NewUnary(Position{3, 3}, OpAdd, NewInteger(Position{3, 6}, 4))
	be.Err(t, err, nil)
	be.Equal(t, plus.Value.Int, int64(4))
	be.Equal(t, plus.Pos, Position{3, 3})

	_, err = NewUnary(Position{1, 1}, OpNot, NewChar(Position{1, 1}, 'a'))
	be.Err(t, err, ErrUnsupportedOperand)
}

func TestNewCast(t *testing.T) {
	st := frameWith(t, "x", Integer, "c", Char)
	x := variable(st, "x")

	same, err := NewCast(Position{1, 1}, NewAlias("n", Integer), x)
	be.Err(t, err, nil)
	be.Equal(t, same, x)

	conv, err := NewCast(Position{1, 1}, Real, x)
	be.Err(t, err, nil)
	be.Equal(t, conv.Kind, NodeCast)
	be.Equal(t, conv.Type, Real)

	c, err := NewCast(Position{1, 1}, Char, NewReal(Position{1, 1}, 66.9))
	be.Err(t, err, nil)
	be.Equal(t, c.Kind, NodeConstant)
	be.Equal(t, c.Value.Int, int64('B'))

	_, err = NewCast(Position{1, 1}, Integer, NewString(Position{1, 1}, "7"))
	be.Err(t, err, ErrConversion)
}

func TestNewAssign(t *testing.T) {
	st := frameWith(t, "x", Integer, "y", Real, "k", NewModified(ModConst, Integer))

	n, err := NewAssign(Position{1, 1}, OpAssign, variable(st, "y"), variable(st, "x"))
	be.Err(t, err, nil)
	be.Equal(t, n.Right().Kind, NodeCast)

	_, err = NewAssign(Position{1, 1}, OpAssign, variable(st, "x"), variable(st, "y"))
	be.Err(t, err, ErrIncompatibleTypes)

	_, err = NewAssign(Position{1, 1}, OpAssign, variable(st, "k"), NewInteger(Position{1, 1}, 1))
	be.Err(t, err, "cannot assign to constant 'k'")

	_, err = NewAssign(Position{1, 1}, OpAssign, NewInteger(Position{1, 1}, 1), variable(st, "x"))
	be.Err(t, err, "is not assignable")

	_, err = NewAssign(Position{1, 1}, OpDivAssign, variable(st, "x"), NewInteger(Position{1, 1}, 2))
	be.Err(t, err, ErrUnsupportedOperand)

	n, err = NewAssign(Position{1, 1}, OpDivAssign, variable(st, "y"), NewInteger(Position{1, 1}, 2))
	be.Err(t, err, nil)
	be.Equal(t, n.Right().Kind, NodeConstant)
	be.Equal(t, n.Right().Value.Real, 2.0)
}

func TestNewCall(t *testing.T) {
	params := frameWith(t, "n", Integer, "ref", NewModified(ModVar, Integer))
	be.Err(t, params.Add("by", Integer, NewInteger(Position{1, 1}, 1)), nil)
	fn := NewFunction("f", params, NewFrameTable(), Real, Position{1, 1})
	scope := frameWith(t, "f", fn, "x", Integer, "c", NewModified(ModConst, Integer))
	f := variable(scope, "f")

	call, err := NewCall(Position{1, 1}, f, []*Node{NewInteger(Position{1, 1}, 3), variable(scope, "x")})
	be.Err(t, err, nil)
	be.Equal(t, call.Type, Real)
	be.Equal(t, len(call.Children), 2)

	_, err = NewCall(Position{1, 1}, f, []*Node{NewInteger(Position{1, 1}, 3)})
	be.Err(t, err, "missing argument 'ref' in call to 'f'")

	_, err = NewCall(Position{1, 1}, f, []*Node{NewInteger(Position{1, 1}, 3), NewInteger(Position{1, 1}, 4)})
	be.Err(t, err, "must be a variable of type integer")

	_, err = NewCall(Position{1, 1}, f, []*Node{NewInteger(Position{1, 1}, 3), variable(scope, "c")})
	be.Err(t, err, "constant 'c' passed by reference")

	args := []*Node{NewInteger(Position{1, 1}, 3), variable(scope, "x"), NewInteger(Position{1, 1}, 2), NewInteger(Position{1, 1}, 2)}
	_, err = NewCall(Position{1, 1}, f, args)
	be.Err(t, err, "too many arguments")

	_, err = NewCall(Position{1, 1}, variable(scope, "x"), nil)
	be.Err(t, err, "'x' is not a function")
}

func TestNewIndexAndField(t *testing.T) {
	fields := NewSymbolTable()
	be.Err(t, fields.Add("tag", Char, nil), nil)
	be.Err(t, fields.Add("v", Real, nil), nil)
	rec := NewRecord(fields)
	st := frameWith(t, "a", NewArray(1, 3, rec), "x", Integer)
	a := variable(st, "a")

	el, err := NewIndex(Position{1, 1}, a, variable(st, "x"))
	be.Err(t, err, nil)
	be.Equal(t, el.Type, rec)

	f, err := NewFieldAccess(Position{1, 1}, el, "v")
	be.Err(t, err, nil)
	be.Equal(t, f.Type, Real)
	be.True(t, isAddressable(f))
	be.Equal(t, rootVariable(f).Name, "a")

	_, err = NewIndex(Position{1, 1}, a, NewInteger(Position{2, 2}, 0))
	be.Err(t, err, "index 0 out of range 1..3")
	_, err = NewIndex(Position{1, 1}, a, NewReal(Position{1, 1}, 1))
	be.Err(t, err, "array index must be integer")
	_, err = NewIndex(Position{1, 1}, variable(st, "x"), NewInteger(Position{1, 1}, 1))
	be.Err(t, err, "cannot index integer")
	_, err = NewFieldAccess(Position{1, 1}, el, "w")
	be.Err(t, err, ErrSymbolNotFound)
}

func TestNewTypedConstant(t *testing.T) {
	pair := NewArray(0, 1, Real)
	tc, err := NewTypedConstant(Position{1, 1}, pair, []*Node{NewInteger(Position{1, 1}, 1), NewReal(Position{1, 1}, 2)})
	be.Err(t, err, nil)
	be.Equal(t, tc.Children[0].Type, Real)
	be.Equal(t, tc.Children[0].Value.Real, 1.0)

	_, err = NewTypedConstant(Position{1, 1}, pair, []*Node{NewInteger(Position{1, 1}, 1)})
	be.Err(t, err, "needs 2 values, got 1")

	st := frameWith(t, "x", Real)
	_, err = NewTypedConstant(Position{1, 1}, pair, []*Node{variable(st, "x"), variable(st, "x")})
	be.Err(t, err, "initializer element is not constant")
}

func TestStatementChecks(t *testing.T) {
	st := frameWith(t, "x", Integer, "y", Real, "k", NewModified(ModConst, Integer))
	one := NewInteger(Position{1, 1}, 1)

	_, err := NewIf(Position{1, 1}, variable(st, "y"), nil, nil)
	be.Err(t, err, "condition must be boolean (integer)")
	_, err = NewWhile(Position{1, 1}, NewString(Position{1, 1}, "s"), nil)
	be.Err(t, err, ErrIncompatibleTypes)
	_, err = NewRepeat(Position{1, 1}, nil, variable(st, "x"))
	be.Err(t, err, nil)

	_, err = NewFor(Position{1, 1}, variable(st, "y"), one, one, nil, false)
	be.Err(t, err, "for loop variable must be an integer variable")
	_, err = NewFor(Position{1, 1}, variable(st, "k"), one, one, nil, false)
	be.Err(t, err, "cannot assign to constant 'k'")
	_, err = NewFor(Position{1, 1}, variable(st, "x"), one, NewReal(Position{1, 1}, 2), nil, false)
	be.Err(t, err, "for loop bound must be integer")

	_, err = NewWrite(Position{1, 1}, []*Node{NewString(Position{1, 1}, "s"), variable(st, "y")}, true)
	be.Err(t, err, nil)
	_, err = NewRead(Position{1, 1}, []*Node{one})
	be.Err(t, err, "read needs a scalar variable")
	_, err = NewRead(Position{1, 1}, []*Node{variable(st, "k")})
	be.Err(t, err, "cannot assign to constant 'k'")
}

func TestConstantOfFollowsDeclarations(t *testing.T) {
	st := NewFrameTable()
	be.Err(t, st.Add("limit", NewModified(ModConst, Integer), NewInteger(Position{1, 1}, 10)), nil)
	ref := variable(st, "limit")

	c := constantOf(ref)
	be.True(t, c != nil)
	be.Equal(t, c.Value.Int, int64(10))

	doubled, err := NewBinary(Position{1, 1}, OpMul, ref, NewInteger(Position{1, 1}, 2))
	be.Err(t, err, nil)
	be.Equal(t, doubled.Kind, NodeConstant)
	be.Equal(t, doubled.Value.Int, int64(20))
}

// invariantPanic runs f and returns the InvariantViolation it panics with.
func invariantPanic(t *testing.T, f func()) (v InvariantViolation) {
	t.Helper()
	defer func() {
		r := recover()
		var ok bool
		if v, ok = r.(InvariantViolation); !ok {
			t.Errorf("want an invariant violation, got %v", r)
		}
	}()
	f()
	return v
}

func TestInvariantViolationPanics(t *testing.T) {
	v := invariantPanic(t, func() { (&Type{Category: Category(99)}).Size() })
	be.Equal(t, v.Error(), "internal error: size of Category(99)")
}
