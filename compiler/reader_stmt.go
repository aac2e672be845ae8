package compiler

import (
	"github.com/pasc-lang/pasc/sexy"
)

// typeOf reads a type expression. Aliases are resolved to the type they
// name.
func (r *reader) typeOf(n *sexy.Node) (*Type, error) {
	if n.Type == sexy.NodeSymbol {
		sym, _, ok := r.lookup(n.Text)
		if !ok {
			return nil, &Error{Kind: KindSymbolNotFound, Pos: posOf(n), Name: n.Text, Msg: "unknown type '" + n.Text + "'"}
		}
		if sym.Type.Category != CategoryAlias {
			return nil, syntaxError(n, "'%s' is not a type", n.Text)
		}
		return sym.Type.BaseType(), nil
	}

	switch n.Head() {
	case "array":
		if len(n.Items) != 4 {
			return nil, syntaxError(n, "expected (array LO HI TYPE)")
		}
		lo, err := r.constantInt(n.Items[1])
		if err != nil {
			return nil, err
		}
		hi, err := r.constantInt(n.Items[2])
		if err != nil {
			return nil, err
		}
		if hi < lo {
			return nil, errorf(KindIncompatibleTypes, posOf(n), "empty array range %d..%d", lo, hi)
		}
		elem, err := r.typeOf(n.Items[3])
		if err != nil {
			return nil, err
		}
		return NewArray(lo, hi, elem), nil

	case "record":
		fields := NewSymbolTable()
		for _, f := range n.Items[1:] {
			if f.Type != sexy.NodeList || len(f.Items) != 2 {
				return nil, syntaxError(f, "expected (NAME TYPE) field")
			}
			name, err := symbolName(f.Items[0], "field")
			if err != nil {
				return nil, err
			}
			t, err := r.typeOf(f.Items[1])
			if err != nil {
				return nil, err
			}
			if err := fields.Add(name, t, nil); err != nil {
				return nil, withPos(err, posOf(f.Items[0]))
			}
		}
		return NewRecord(fields), nil

	case "pointer":
		if len(n.Items) != 2 {
			return nil, syntaxError(n, "expected (pointer TYPE)")
		}
		t, err := r.typeOf(n.Items[1])
		if err != nil {
			return nil, err
		}
		return NewPointer(t), nil

	default:
		return nil, syntaxError(n, "expected a type, got %s", n)
	}
}

func (r *reader) constantInt(n *sexy.Node) (int64, error) {
	e, err := r.expr(n)
	if err != nil {
		return 0, err
	}
	c := constantOf(e)
	if c == nil || c.Type.BaseType().Category != CategoryInteger {
		return 0, errorf(KindIncompatibleTypes, posOf(n), "expected an integer constant")
	}
	return c.Value.Int, nil
}

func (r *reader) statements(items []*sexy.Node) ([]*Node, error) {
	var out []*Node
	for _, item := range items {
		s, err := r.statement(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// loop reads a loop body with break and continue allowed.
func (r *reader) loop(n *sexy.Node) (*Node, error) {
	s := r.current()
	s.loops++
	defer func() { s.loops-- }()
	return r.statement(n)
}

func (r *reader) statement(n *sexy.Node) (*Node, error) {
	pos := posOf(n)
	head := n.Head()
	if head == "" {
		return nil, syntaxError(n, "expected a statement, got %s", n)
	}
	args := n.Items[1:]

	if op, ok := ParseOperator(head); ok && op.IsAssignment() {
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (%s LEFT RIGHT)", head)
		}
		left, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		right, err := r.expr(args[1])
		if err != nil {
			return nil, err
		}
		return NewAssign(pos, op, left, right)
	}

	switch head {
	case "begin":
		stmts, err := r.statements(args)
		if err != nil {
			return nil, err
		}
		return NewBlock(pos, stmts), nil

	case "if":
		if len(args) != 2 && len(args) != 3 {
			return nil, syntaxError(n, "expected (if COND THEN [ELSE])")
		}
		cond, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		then, err := r.statement(args[1])
		if err != nil {
			return nil, err
		}
		var els *Node
		if len(args) == 3 {
			if els, err = r.statement(args[2]); err != nil {
				return nil, err
			}
		}
		return NewIf(pos, cond, then, els)

	case "while":
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (while COND BODY)")
		}
		cond, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		body, err := r.loop(args[1])
		if err != nil {
			return nil, err
		}
		return NewWhile(pos, cond, body)

	case "repeat":
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (repeat BODY COND)")
		}
		body, err := r.loop(args[0])
		if err != nil {
			return nil, err
		}
		cond, err := r.expr(args[1])
		if err != nil {
			return nil, err
		}
		return NewRepeat(pos, body, cond)

	case "for":
		if len(args) != 5 || (!args[2].IsSymbol("to") && !args[2].IsSymbol("downto")) {
			return nil, syntaxError(n, "expected (for VAR FROM to|downto TO BODY)")
		}
		v, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		from, err := r.expr(args[1])
		if err != nil {
			return nil, err
		}
		to, err := r.expr(args[3])
		if err != nil {
			return nil, err
		}
		body, err := r.loop(args[4])
		if err != nil {
			return nil, err
		}
		return NewFor(pos, v, from, to, body, args[2].IsSymbol("downto"))

	case "break", "continue":
		if len(args) != 0 {
			return nil, syntaxError(n, "expected (%s)", head)
		}
		if r.current().loops == 0 {
			return nil, syntaxError(n, "'%s' outside a loop", head)
		}
		if head == "break" {
			return NewBreak(pos), nil
		}
		return NewContinue(pos), nil

	case "exit":
		if len(args) != 0 {
			return nil, syntaxError(n, "expected (exit)")
		}
		return NewExit(pos), nil

	case "write", "writeln":
		values, err := r.exprs(args)
		if err != nil {
			return nil, err
		}
		return NewWrite(pos, values, head == "writeln")

	case "read":
		targets, err := r.exprs(args)
		if err != nil {
			return nil, err
		}
		return NewRead(pos, targets)

	case "call":
		return r.call(n)

	default:
		return nil, syntaxError(n, "unknown statement %q", head)
	}
}

func (r *reader) exprs(items []*sexy.Node) ([]*Node, error) {
	out := make([]*Node, 0, len(items))
	for _, item := range items {
		e, err := r.expr(item)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *reader) call(n *sexy.Node) (*Node, error) {
	if len(n.Items) < 2 {
		return nil, syntaxError(n, "expected (call FUNCTION ARG...)")
	}
	fn, err := r.expr(n.Items[1])
	if err != nil {
		return nil, err
	}
	args, err := r.exprs(n.Items[2:])
	if err != nil {
		return nil, err
	}
	return NewCall(posOf(n), fn, args)
}

func (r *reader) expr(n *sexy.Node) (*Node, error) {
	pos := posOf(n)
	switch n.Type {
	case sexy.NodeInteger:
		v, err := n.Int()
		if err != nil {
			return nil, syntaxError(n, "integer %s out of range", n.Text)
		}
		return NewInteger(pos, v), nil
	case sexy.NodeFloat:
		v, err := n.Float()
		if err != nil {
			return nil, syntaxError(n, "malformed real %s", n.Text)
		}
		return NewReal(pos, v), nil
	case sexy.NodeString:
		return NewString(pos, n.Text), nil
	case sexy.NodeSymbol:
		return r.identifier(n)
	case sexy.NodeList:
	default:
		return nil, syntaxError(n, "unexpected %s", n)
	}

	head := n.Head()
	if head == "" {
		return nil, syntaxError(n, "expected an expression, got %s", n)
	}
	args := n.Items[1:]
	switch head {
	case "char":
		if len(args) != 1 || args[0].Type != sexy.NodeString || len(args[0].Text) != 1 {
			return nil, syntaxError(n, "expected (char \"c\")")
		}
		return NewChar(pos, args[0].Text[0]), nil
	case "index":
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (index ARRAY INDEX)")
		}
		array, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		index, err := r.expr(args[1])
		if err != nil {
			return nil, err
		}
		return NewIndex(pos, array, index)
	case "field":
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (field RECORD NAME)")
		}
		record, err := r.expr(args[0])
		if err != nil {
			return nil, err
		}
		name, err := symbolName(args[1], "field")
		if err != nil {
			return nil, err
		}
		return NewFieldAccess(pos, record, name)
	case "call":
		return r.call(n)
	case "cast":
		if len(args) != 2 {
			return nil, syntaxError(n, "expected (cast TYPE EXPR)")
		}
		t, err := r.typeOf(args[0])
		if err != nil {
			return nil, err
		}
		operand, err := r.expr(args[1])
		if err != nil {
			return nil, err
		}
		return NewCast(pos, t, operand)
	}

	op, ok := ParseOperator(head)
	if !ok || op.IsAssignment() {
		return nil, syntaxError(n, "unknown operator %q", head)
	}
	operands, err := r.exprs(args)
	if err != nil {
		return nil, err
	}
	switch {
	case len(operands) == 1 && (op == OpNot || op == OpAdd || op == OpSub):
		return NewUnary(pos, op, operands[0])
	case len(operands) == 2 && op != OpNot:
		return NewBinary(pos, op, operands[0], operands[1])
	default:
		return nil, syntaxError(n, "wrong number of operands for '%s'", head)
	}
}

func (r *reader) identifier(n *sexy.Node) (*Node, error) {
	sym, b, ok := r.lookup(n.Text)
	if !ok {
		return nil, &Error{Kind: KindSymbolNotFound, Pos: posOf(n), Name: n.Text, Msg: "unknown identifier '" + n.Text + "'"}
	}
	if sym.Type.Category == CategoryAlias {
		return nil, syntaxError(n, "type '%s' used as a value", n.Text)
	}
	if b.Table == r.root {
		return nil, syntaxError(n, "'%s' names the program", n.Text)
	}
	return NewVariable(posOf(n), n.Text, sym.Type, b), nil
}
