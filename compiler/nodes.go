package compiler

// The constructors below are what a parser calls while it walks source
// text. Each one type-checks eagerly and folds constant operands, so an
// accepted tree is always well typed.

// NewBinary builds a binary operation, folding it when both operands are
// constants.
func NewBinary(pos Position, op Operator, left, right *Node) (*Node, error) {
	if op.IsAssignment() {
		return NewAssign(pos, op, left, right)
	}
	t, err := TypeFor(left.Type, right.Type, op)
	if err != nil {
		return nil, withPos(err, pos)
	}
	if lc, rc := constantOf(left), constantOf(right); lc != nil && rc != nil {
		folded, err := Fold(op, lc, rc)
		if err != nil {
			return nil, withPos(err, pos)
		}
		folded.Pos = left.Pos
		return folded, nil
	}

	operands := t
	if op.IsRelational() {
		operands = left.Type.BaseType()
		if right.Type.BaseType().Category == CategoryReal {
			operands = Real
		}
	}
	if op == OpDivide || operands.Category == CategoryReal {
		left, right = toReal(left), toReal(right)
	}
	return &Node{Kind: NodeBinary, Pos: pos, Type: t, Op: op, Children: []*Node{left, right}}, nil
}

// NewUnary builds a unary operation, folding constants.
func NewUnary(pos Position, op Operator, operand *Node) (*Node, error) {
	t, err := UnaryTypeFor(operand.Type, op)
	if err != nil {
		return nil, withPos(err, pos)
	}
	if c := constantOf(operand); c != nil {
		folded, err := FoldUnary(op, c)
		if err != nil {
			return nil, withPos(err, pos)
		}
		if folded == c {
			folded = &Node{Kind: NodeConstant, Type: c.Type, Value: c.Value}
		}
		folded.Pos = pos
		return folded, nil
	}
	return &Node{Kind: NodeUnary, Pos: pos, Type: t, Op: op, Children: []*Node{operand}}, nil
}

// NewCast converts between scalar types. Casting a constant yields a
// constant.
func NewCast(pos Position, to *Type, operand *Node) (*Node, error) {
	from := operand.Type.BaseType()
	to = to.BaseType()
	if !from.IsScalar() || !to.IsScalar() {
		return nil, errorf(KindConversion, pos, "cannot convert %s to %s", from, to)
	}
	if from == to {
		return operand, nil
	}
	if c := constantOf(operand); c != nil {
		return castConstant(pos, to, c), nil
	}
	return &Node{Kind: NodeCast, Pos: pos, Type: to, Target: operand}, nil
}

func castConstant(pos Position, to *Type, c *Node) *Node {
	from := c.Type.BaseType()
	switch to.Category {
	case CategoryReal:
		return NewReal(pos, float64(c.Value.Int))
	case CategoryInteger:
		if from.Category == CategoryReal {
			return NewInteger(pos, truncate(c.Value.Real))
		}
		return NewInteger(pos, c.Value.Int)
	case CategoryChar:
		v := c.Value.Int
		if from.Category == CategoryReal {
			v = truncate(c.Value.Real)
		}
		return NewChar(pos, byte(v))
	default:
		invariant("cast constant to %s", to)
		return nil
	}
}

// toReal wraps an integer expression in a conversion to real.
func toReal(n *Node) *Node {
	if n.Type.BaseType().Category == CategoryReal {
		return n
	}
	converted, err := NewCast(n.Pos, Real, n)
	if err != nil {
		invariant("promote %s to real: %v", n.Type, err)
	}
	return converted
}

// convert adapts a value to a destination type, allowing only the
// implicit integer to real widening.
func convert(n *Node, to *Type, pos Position) (*Node, error) {
	if n.Type == nil || n.Type.BaseType().Category == CategoryFunction {
		return nil, errorf(KindIncompatibleTypes, pos, "expected a value of type %s", to)
	}
	if TypesEqual(n.Type, to) {
		return n, nil
	}
	if to.BaseType().Category == CategoryReal && n.Type.BaseType().Category == CategoryInteger {
		return toReal(n), nil
	}
	return nil, errorf(KindIncompatibleTypes, pos, "cannot use %s as %s", n.Type.BaseType(), to.BaseType())
}

// NewAssign builds ":=" and the compound assignments.
func NewAssign(pos Position, op Operator, left, right *Node) (*Node, error) {
	if !isAddressable(left) {
		return nil, errorf(KindSyntax, pos, "left side of '%s' is not assignable", op)
	}
	if root := rootVariable(left); root != nil && root.Type.IsConstant() {
		return nil, &Error{Kind: KindSyntax, Pos: pos, Name: root.Name, Msg: "cannot assign to constant '" + root.Name + "'"}
	}
	lt := left.Type.BaseType()
	switch op {
	case OpAssign:
	case OpAddAssign, OpSubAssign, OpMulAssign:
		if lt.Category != CategoryInteger && lt.Category != CategoryReal {
			return nil, errorf(KindUnsupportedOperand, pos, "operator '%s' requires a numeric variable, got %s", op, lt)
		}
	case OpDivAssign:
		if lt.Category != CategoryReal {
			return nil, errorf(KindUnsupportedOperand, pos, "operator '/=' requires a real variable, got %s", lt)
		}
	default:
		invariant("%s is not an assignment", op)
	}
	right, err := convert(right, lt, pos)
	if err != nil {
		return nil, err
	}
	return &Node{Kind: NodeAssign, Pos: pos, Op: op, Children: []*Node{left, right}}, nil
}

// NewCall checks arguments against the callee's parameters. Omitted
// trailing arguments must have defaults.
func NewCall(pos Position, fn *Node, args []*Node) (*Node, error) {
	ft := fn.Type.BaseType()
	if ft.Category != CategoryFunction {
		return nil, &Error{Kind: KindUnsupportedOperand, Pos: pos, Name: fn.Name, Msg: "'" + fn.Name + "' is not a function"}
	}
	params := ft.Params.Entries()
	if len(args) > len(params) {
		return nil, errorf(KindSyntax, pos, "too many arguments to '%s': want at most %d, got %d", fn.Name, len(params), len(args))
	}
	checked := make([]*Node, len(args))
	for i, p := range params {
		if i >= len(args) {
			if p.Value == nil {
				return nil, errorf(KindSyntax, pos, "missing argument '%s' in call to '%s'", p.Name, fn.Name)
			}
			continue
		}
		arg := args[i]
		if p.Type.IsVarParam() {
			if !isAddressable(arg) || !TypesEqual(arg.Type, p.Type) {
				return nil, errorf(KindIncompatibleTypes, arg.Pos, "argument '%s' of '%s' must be a variable of type %s", p.Name, fn.Name, p.Type.BaseType())
			}
			if root := rootVariable(arg); root != nil && root.Type.IsConstant() {
				return nil, errorf(KindIncompatibleTypes, arg.Pos, "constant '%s' passed by reference", root.Name)
			}
			checked[i] = arg
			continue
		}
		converted, err := convert(arg, p.Type, arg.Pos)
		if err != nil {
			return nil, err
		}
		checked[i] = converted
	}
	result := ft.Return
	if result == nil {
		result = Nil
	}
	return &Node{Kind: NodeCall, Pos: pos, Type: result, Target: fn, Children: checked}, nil
}

// NewIndex selects an array element.
func NewIndex(pos Position, array, index *Node) (*Node, error) {
	at := array.Type.BaseType()
	if at.Category != CategoryArray {
		return nil, errorf(KindUnsupportedOperand, pos, "cannot index %s", at)
	}
	if !isAddressable(array) && array.Kind != NodeCall {
		return nil, errorf(KindUnsupportedOperand, pos, "cannot index a temporary %s", at)
	}
	if index.Type.BaseType().Category != CategoryInteger {
		return nil, errorf(KindIncompatibleTypes, index.Pos, "array index must be integer, got %s", index.Type.BaseType())
	}
	if c := constantOf(index); c != nil && (c.Value.Int < at.Min || c.Value.Int > at.Max) {
		return nil, errorf(KindIncompatibleTypes, index.Pos, "index %d out of range %d..%d", c.Value.Int, at.Min, at.Max)
	}
	return &Node{Kind: NodeIndex, Pos: pos, Type: at.Elem, Target: array, Children: []*Node{index}}, nil
}

// NewFieldAccess selects a record field by name.
func NewFieldAccess(pos Position, record *Node, name string) (*Node, error) {
	rt := record.Type.BaseType()
	if rt.Category != CategoryRecord {
		return nil, errorf(KindUnsupportedOperand, pos, "%s has no fields", rt)
	}
	if !isAddressable(record) && record.Kind != NodeCall {
		return nil, errorf(KindUnsupportedOperand, pos, "cannot select from a temporary %s", rt)
	}
	ft, err := rt.Fields.Type(name)
	if err != nil {
		return nil, withPos(err, pos)
	}
	field := NewVariable(pos, name, ft, Binding{Table: rt.Fields})
	return &Node{Kind: NodeField, Pos: pos, Type: ft, Target: record, Children: []*Node{field}}, nil
}

// NewTypedConstant builds an array or record initializer from element
// values in layout order.
func NewTypedConstant(pos Position, typ *Type, elems []*Node) (*Node, error) {
	bt := typ.BaseType()
	var want []*Type
	switch bt.Category {
	case CategoryArray:
		for i := 0; i < bt.Len(); i++ {
			want = append(want, bt.Elem)
		}
	case CategoryRecord:
		for _, f := range bt.Fields.Entries() {
			want = append(want, f.Type)
		}
	default:
		return nil, errorf(KindIncompatibleTypes, pos, "%s has no elements", bt)
	}
	if len(elems) != len(want) {
		return nil, errorf(KindIncompatibleTypes, pos, "%s initializer needs %d values, got %d", bt, len(want), len(elems))
	}
	converted := make([]*Node, len(elems))
	for i, e := range elems {
		if e.Kind != NodeTypedConstant && constantOf(e) == nil {
			return nil, errorf(KindIncompatibleTypes, e.Pos, "initializer element is not constant")
		}
		if c := constantOf(e); c != nil {
			e = c
		}
		var err error
		if converted[i], err = convert(e, want[i], e.Pos); err != nil {
			return nil, err
		}
	}
	return &Node{Kind: NodeTypedConstant, Pos: pos, Type: typ, Children: converted}, nil
}

func checkCondition(cond *Node) error {
	if cond.Type == nil || cond.Type.BaseType().Category != CategoryInteger {
		return errorf(KindIncompatibleTypes, cond.Pos, "condition must be boolean (integer)")
	}
	return nil
}

// NewIf builds a conditional; either branch may be nil.
func NewIf(pos Position, cond, then, els *Node) (*Node, error) {
	if err := checkCondition(cond); err != nil {
		return nil, err
	}
	return &Node{Kind: NodeIf, Pos: pos, Children: []*Node{cond, then, els}}, nil
}

func NewWhile(pos Position, cond, body *Node) (*Node, error) {
	if err := checkCondition(cond); err != nil {
		return nil, err
	}
	return &Node{Kind: NodeWhile, Pos: pos, Children: []*Node{cond, body}}, nil
}

// NewRepeat builds repeat ... until cond: the body runs until cond holds.
func NewRepeat(pos Position, body, cond *Node) (*Node, error) {
	if err := checkCondition(cond); err != nil {
		return nil, err
	}
	return &Node{Kind: NodeRepeat, Pos: pos, Children: []*Node{body, cond}}, nil
}

// NewFor builds a counting loop over an integer variable.
func NewFor(pos Position, variable, from, to, body *Node, downto bool) (*Node, error) {
	if variable.Kind != NodeVariable || variable.Type.BaseType().Category != CategoryInteger {
		return nil, errorf(KindIncompatibleTypes, variable.Pos, "for loop variable must be an integer variable")
	}
	if variable.Type.IsConstant() {
		return nil, &Error{Kind: KindSyntax, Pos: variable.Pos, Name: variable.Name, Msg: "cannot assign to constant '" + variable.Name + "'"}
	}
	for _, bound := range []*Node{from, to} {
		if bound.Type == nil || bound.Type.BaseType().Category != CategoryInteger {
			return nil, errorf(KindIncompatibleTypes, bound.Pos, "for loop bound must be integer")
		}
	}
	return &Node{Kind: NodeFor, Pos: pos, Downto: downto, Children: []*Node{variable, from, to, body}}, nil
}

// NewWrite prints scalars and string literals; newline appends "\n".
func NewWrite(pos Position, args []*Node, newline bool) (*Node, error) {
	for _, a := range args {
		if a.Type == nil || (!a.Type.IsScalar() && a.Type.BaseType().Category != CategoryString) {
			return nil, errorf(KindUnsupportedOperand, a.Pos, "cannot write a value of type %s", a.Type)
		}
	}
	return &Node{Kind: NodeWrite, Pos: pos, Children: args, Newline: newline}, nil
}

// NewRead reads scalars into variables.
func NewRead(pos Position, args []*Node) (*Node, error) {
	for _, a := range args {
		if !isAddressable(a) || !a.Type.IsScalar() {
			return nil, errorf(KindUnsupportedOperand, a.Pos, "read needs a scalar variable")
		}
		if root := rootVariable(a); root != nil && root.Type.IsConstant() {
			return nil, &Error{Kind: KindSyntax, Pos: a.Pos, Name: root.Name, Msg: "cannot assign to constant '" + root.Name + "'"}
		}
	}
	return &Node{Kind: NodeRead, Pos: pos, Children: args}, nil
}
