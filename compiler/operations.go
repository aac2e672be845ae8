package compiler

import (
	"fmt"
	"math"
)

// Operator covers binary, unary and assignment operators.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDivide // "/", always real
	OpDiv    // integer division
	OpMod
	OpShl
	OpShr
	OpAnd
	OpOr
	OpXor
	OpNot

	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
)

var operatorNames = map[Operator]string{
	OpAdd:       "+",
	OpSub:       "-",
	OpMul:       "*",
	OpDivide:    "/",
	OpDiv:       "div",
	OpMod:       "mod",
	OpShl:       "shl",
	OpShr:       "shr",
	OpAnd:       "and",
	OpOr:        "or",
	OpXor:       "xor",
	OpNot:       "not",
	OpEq:        "=",
	OpNe:        "<>",
	OpLt:        "<",
	OpLe:        "<=",
	OpGt:        ">",
	OpGe:        ">=",
	OpAssign:    ":=",
	OpAddAssign: "+=",
	OpSubAssign: "-=",
	OpMulAssign: "*=",
	OpDivAssign: "/=",
}

func (op Operator) String() string {
	if s, ok := operatorNames[op]; ok {
		return s
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator maps an operator spelling to its Operator.
func ParseOperator(s string) (Operator, bool) {
	for op, name := range operatorNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

func (op Operator) IsRelational() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// IsIntegerOnly reports operators defined on integers alone.
func (op Operator) IsIntegerOnly() bool {
	switch op {
	case OpDiv, OpMod, OpShl, OpShr, OpAnd, OpOr, OpXor:
		return true
	default:
		return false
	}
}

func (op Operator) IsAssignment() bool {
	switch op {
	case OpAssign, OpAddAssign, OpSubAssign, OpMulAssign, OpDivAssign:
		return true
	default:
		return false
	}
}

// IsUnary reports operators that may take a single operand.
func (op Operator) IsUnary() bool {
	return op == OpAdd || op == OpSub || op == OpNot
}

// TypeFor computes the result type of a binary operator, or the reason
// the operands are rejected.
func TypeFor(left, right *Type, op Operator) (*Type, error) {
	l, r := left.BaseType(), right.BaseType()
	if op == OpNot || op.IsAssignment() {
		return nil, errorf(KindUnsupportedOperand, Position{}, "'%s' is not a binary operator", op)
	}
	if !l.IsScalar() || !r.IsScalar() {
		return nil, errorf(KindUnsupportedOperand, Position{}, "operator '%s' not applicable to %s and %s", op, l, r)
	}
	if op.IsIntegerOnly() {
		if l.Category != CategoryInteger || r.Category != CategoryInteger {
			return nil, errorf(KindUnsupportedOperand, Position{}, "operator '%s' requires integer operands, got %s and %s", op, l, r)
		}
		return Integer, nil
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpDivide:
		if l.Category == CategoryChar || r.Category == CategoryChar {
			return nil, errorf(KindUnsupportedOperand, Position{}, "operator '%s' not applicable to %s and %s", op, l, r)
		}
	}

	numeric := func(t *Type) bool {
		return t.Category == CategoryInteger || t.Category == CategoryReal
	}
	mixed := l.Category != r.Category && numeric(l) && numeric(r)

	switch {
	case op.IsRelational():
		if l.Category != r.Category && !mixed {
			return nil, errorf(KindIncompatibleTypes, Position{}, "cannot compare %s with %s", l, r)
		}
		return Integer, nil
	case op == OpDivide:
		return Real, nil
	case mixed:
		return Real, nil
	case l.Category != r.Category:
		return nil, errorf(KindIncompatibleTypes, Position{}, "incompatible types %s and %s", l, r)
	case op == OpAdd, op == OpSub, op == OpMul:
		return l, nil
	default:
		return nil, errorf(KindUnsupportedOperand, Position{}, "'%s' is not a binary operator", op)
	}
}

// UnaryTypeFor computes the result type of a unary operator.
func UnaryTypeFor(operand *Type, op Operator) (*Type, error) {
	t := operand.BaseType()
	switch op {
	case OpNot:
		if t.Category != CategoryInteger {
			return nil, errorf(KindUnsupportedOperand, Position{}, "operator 'not' requires an integer operand, got %s", t)
		}
		return Integer, nil
	case OpAdd, OpSub:
		if t.Category != CategoryInteger && t.Category != CategoryReal {
			return nil, errorf(KindUnsupportedOperand, Position{}, "unary '%s' requires a numeric operand, got %s", op, t)
		}
		return t, nil
	default:
		return nil, errorf(KindUnsupportedOperand, Position{}, "'%s' is not a unary operator", op)
	}
}

// Fold evaluates a binary operator over two constant nodes. The result
// takes the left operand's position.
func Fold(op Operator, left, right *Node) (*Node, error) {
	t, err := TypeFor(left.Type, right.Type, op)
	if err != nil {
		return nil, err
	}
	pos := left.Pos

	if op.IsRelational() {
		var holds bool
		if left.Type.BaseType().Category == CategoryReal || right.Type.BaseType().Category == CategoryReal {
			holds = compare(op, realOf(left), realOf(right))
		} else {
			holds = compare(op, left.Value.Int, right.Value.Int)
		}
		return NewInteger(pos, boolValue(holds)), nil
	}

	if t.Category == CategoryReal {
		a, b := realOf(left), realOf(right)
		switch op {
		case OpAdd:
			return NewReal(pos, a+b), nil
		case OpSub:
			return NewReal(pos, a-b), nil
		case OpMul:
			return NewReal(pos, a*b), nil
		case OpDivide:
			return NewReal(pos, a/b), nil
		}
		invariant("fold real %s", op)
	}

	a, b := left.Value.Int, right.Value.Int
	var v int64
	switch op {
	case OpAdd:
		v = a + b
	case OpSub:
		v = a - b
	case OpMul:
		v = a * b
	case OpDiv, OpMod:
		if b == 0 {
			return nil, errorf(KindDivisionByZero, Position{}, "division by zero in '%s'", op)
		}
		if op == OpDiv {
			v = a / b
		} else {
			v = a % b
		}
	case OpShl:
		v = a << uint(b&63)
	case OpShr:
		v = a >> uint(b&63)
	case OpAnd:
		v = a & b
	case OpOr:
		v = a | b
	case OpXor:
		v = a ^ b
	default:
		invariant("fold integer %s", op)
	}
	return NewInteger(pos, v), nil
}

// FoldUnary evaluates a unary operator over a constant node.
func FoldUnary(op Operator, operand *Node) (*Node, error) {
	t, err := UnaryTypeFor(operand.Type, op)
	if err != nil {
		return nil, err
	}
	pos := operand.Pos
	switch {
	case op == OpAdd:
		return operand, nil
	case op == OpNot:
		return NewInteger(pos, ^operand.Value.Int), nil
	case t.Category == CategoryReal:
		return NewReal(pos, -operand.Value.Real), nil
	default:
		return NewInteger(pos, -operand.Value.Int), nil
	}
}

func realOf(n *Node) float64 {
	if n.Type.BaseType().Category == CategoryReal {
		return n.Value.Real
	}
	return float64(n.Value.Int)
}

func compare[T int64 | float64](op Operator, a, b T) bool {
	switch op {
	case OpEq:
		return a == b
	case OpNe:
		return a != b
	case OpLt:
		return a < b
	case OpLe:
		return a <= b
	case OpGt:
		return a > b
	case OpGe:
		return a >= b
	default:
		invariant("compare with %s", op)
		return false
	}
}

// boolValue encodes a truth value the way the generated code does: all
// bits set for true.
func boolValue(b bool) int64 {
	if b {
		return -1
	}
	return 0
}

// truncate converts a real to an integer the way cvttsd2si does for
// values in range.
func truncate(f float64) int64 {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return math.MinInt64
	}
	return int64(f)
}
