package compiler

import (
	"github.com/pasc-lang/pasc/sexy"
)

// resultName is the local every function stores its result in.
const resultName = "result"

// scope is one function being read.
type scope struct {
	fn    *Type
	depth int
	loops int // enclosing loops within this function
}

// reader builds a checked program from its s-expression form.
type reader struct {
	root   *SymbolTable
	scopes []*scope
}

func newReader() *reader {
	root := NewSymbolTable()
	for _, t := range []*Type{Integer, Real, Char} {
		if err := root.Add(t.Name, NewAlias(t.Name, t), nil); err != nil {
			invariant("predeclare %s: %v", t.Name, err)
		}
	}
	return &reader{root: root}
}

func posOf(n *sexy.Node) Position {
	return Position{Row: n.Line, Col: n.Col}
}

func syntaxError(n *sexy.Node, format string, args ...any) error {
	return errorf(KindSyntax, posOf(n), format, args...)
}

func parse(src string) (*sexy.Node, error) {
	node, err := sexy.Parse(src)
	if err != nil {
		return nil, &Error{Kind: KindSyntax, Msg: err.Error()}
	}
	return node, nil
}

// ReadProgram parses and checks a whole program:
//
//	(program NAME DECL... (begin STMT...))
func ReadProgram(src string) (*Program, error) {
	node, err := parse(src)
	if err != nil {
		return nil, err
	}
	if node.Head() != "program" || len(node.Items) < 3 || node.Items[1].Type != sexy.NodeSymbol {
		return nil, syntaxError(node, "expected (program NAME DECL... (begin ...))")
	}
	r := newReader()
	name := node.Items[1].Text
	main := NewFunction(name, NewFrameTable(), NewFrameTable(), nil, posOf(node))
	if err := r.root.Add(name, main, nil); err != nil {
		return nil, withPos(err, posOf(node.Items[1]))
	}

	body, err := r.function(main, 1, node.Items[2:])
	if err != nil {
		return nil, err
	}
	if err := r.root.Change(name, main, body); err != nil {
		return nil, err
	}
	return &Program{Name: name, Root: r.root, Main: main, Body: body}, nil
}

// ReadExpression checks a single expression in an empty program.
func ReadExpression(src string) (*Node, error) {
	node, err := parse(src)
	if err != nil {
		return nil, err
	}
	r := newReader()
	main := NewFunction("expr", NewFrameTable(), NewFrameTable(), nil, Position{})
	r.scopes = append(r.scopes, &scope{fn: main, depth: 1})
	return r.expr(node)
}

// function reads the declarations and body of fn, whose frame is at
// depth. The last item must be the (begin ...) body.
func (r *reader) function(fn *Type, depth int, items []*sexy.Node) (*Node, error) {
	r.scopes = append(r.scopes, &scope{fn: fn, depth: depth})
	defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

	last := items[len(items)-1]
	if last.Head() != "begin" {
		return nil, syntaxError(last, "expected (begin ...) body")
	}
	for _, decl := range items[:len(items)-1] {
		if err := r.declaration(decl); err != nil {
			return nil, err
		}
	}
	body, err := r.statement(last)
	if err != nil {
		return nil, err
	}
	fn.Params.ComputeOffsets()
	fn.Locals.ComputeOffsets()
	return body, nil
}

func (r *reader) current() *scope {
	return r.scopes[len(r.scopes)-1]
}

// declare adds a local to the current function, rejecting names its
// parameters already use.
func (r *reader) declare(at *sexy.Node, name string, typ *Type, value *Node) error {
	fn := r.current().fn
	if _, exists := fn.Params.Lookup(name); exists {
		return errorf(KindDuplicateSymbol, posOf(at), "identifier '%s' already declared", name)
	}
	if err := fn.Locals.Add(name, typ, value); err != nil {
		return withPos(err, posOf(at))
	}
	return nil
}

// lookup resolves a name from the innermost function outward, then in
// the predeclared scope.
func (r *reader) lookup(name string) (*Symbol, Binding, bool) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		s := r.scopes[i]
		if sym, ok := s.fn.Locals.Lookup(name); ok {
			return sym, Binding{Table: s.fn.Locals, Depth: s.depth}, true
		}
		if sym, ok := s.fn.Params.Lookup(name); ok {
			return sym, Binding{Table: s.fn.Params, Depth: s.depth, Param: true}, true
		}
	}
	if sym, ok := r.root.Lookup(name); ok {
		return sym, Binding{Table: r.root}, true
	}
	return nil, Binding{}, false
}

func symbolName(n *sexy.Node, what string) (string, error) {
	if n.Type != sexy.NodeSymbol {
		return "", syntaxError(n, "expected %s name, got %s", what, n)
	}
	return n.Text, nil
}

func (r *reader) declaration(n *sexy.Node) error {
	if len(n.Items) < 2 {
		return syntaxError(n, "malformed declaration %s", n)
	}
	name, err := symbolName(n.Items[1], "declared")
	if err != nil {
		return err
	}
	switch n.Head() {
	case "var":
		if len(n.Items) != 3 && len(n.Items) != 4 {
			return syntaxError(n, "expected (var NAME TYPE [INIT])")
		}
		t, err := r.typeOf(n.Items[2])
		if err != nil {
			return err
		}
		var init *Node
		if len(n.Items) == 4 {
			if init, err = r.initializer(n.Items[3], t); err != nil {
				return err
			}
		}
		return r.declare(n.Items[1], name, t, init)

	case "const":
		switch len(n.Items) {
		case 3:
			e, err := r.expr(n.Items[2])
			if err != nil {
				return err
			}
			c := constantOf(e)
			if c == nil {
				return errorf(KindIncompatibleTypes, posOf(n.Items[2]), "value of constant '%s' is not constant", name)
			}
			return r.declare(n.Items[1], name, NewModified(ModConst, c.Type.BaseType()), c)
		case 4:
			t, err := r.typeOf(n.Items[2])
			if err != nil {
				return err
			}
			init, err := r.initializer(n.Items[3], t)
			if err != nil {
				return err
			}
			if init.Kind != NodeTypedConstant && constantOf(init) == nil {
				return errorf(KindIncompatibleTypes, posOf(n.Items[3]), "value of constant '%s' is not constant", name)
			}
			return r.declare(n.Items[1], name, NewModified(ModConst, t), init)
		default:
			return syntaxError(n, "expected (const NAME EXPR) or (const NAME TYPE INIT)")
		}

	case "type":
		if len(n.Items) != 3 {
			return syntaxError(n, "expected (type NAME TYPE)")
		}
		t, err := r.typeOf(n.Items[2])
		if err != nil {
			return err
		}
		if t.Name == "" {
			t.Name = name
		}
		return r.declare(n.Items[1], name, NewAlias(name, t), nil)

	case "function", "procedure":
		return r.routine(n, name)

	default:
		return syntaxError(n, "unknown declaration %q", n.Head())
	}
}

// routine reads a function or procedure. The entry is declared before
// the body is read so the routine can call itself, and is completed
// with the body afterwards.
func (r *reader) routine(n *sexy.Node, name string) error {
	isFunction := n.Head() == "function"
	want := 4
	if isFunction {
		want = 5
	}
	if len(n.Items) < want || n.Items[2].Type != sexy.NodeList {
		if isFunction {
			return syntaxError(n, "expected (function NAME (PARAM...) TYPE DECL... (begin ...))")
		}
		return syntaxError(n, "expected (procedure NAME (PARAM...) DECL... (begin ...))")
	}

	params := NewFrameTable()
	defaulted := false
	for _, p := range n.Items[2].Items {
		if err := r.parameter(params, p); err != nil {
			return err
		}
		last, _ := params.At(params.Len() - 1)
		if last.Value != nil {
			defaulted = true
		} else if defaulted {
			return syntaxError(p, "default parameter should be last")
		}
	}
	locals := NewFrameTable()
	var result *Type
	rest := n.Items[3:]
	if isFunction {
		t, err := r.typeOf(n.Items[3])
		if err != nil {
			return err
		}
		result = t
		rest = n.Items[4:]
		if _, exists := params.Lookup(resultName); exists {
			return errorf(KindDuplicateSymbol, posOf(n.Items[2]), "identifier '%s' already declared", resultName)
		}
		if err := locals.Add(resultName, t, nil); err != nil {
			return withPos(err, posOf(n))
		}
	}

	fn := NewFunction(name, params, locals, result, posOf(n))
	if err := r.declare(n.Items[1], name, fn, nil); err != nil {
		return err
	}
	body, err := r.function(fn, r.current().depth+1, rest)
	if err != nil {
		return err
	}
	return r.current().fn.Locals.Change(name, fn, body)
}

// parameter reads (NAME TYPE [DEFAULT]), (var NAME TYPE) or
// (const NAME TYPE [DEFAULT]).
func (r *reader) parameter(params *SymbolTable, n *sexy.Node) error {
	items := n.Items
	byRef, constant := n.Head() == "var", n.Head() == "const"
	if byRef || constant {
		items = items[1:]
	}
	if n.Type != sexy.NodeList || len(items) < 2 || len(items) > 3 || (byRef && len(items) != 2) {
		return syntaxError(n, "malformed parameter %s", n)
	}
	name, err := symbolName(items[0], "parameter")
	if err != nil {
		return err
	}
	t, err := r.typeOf(items[1])
	if err != nil {
		return err
	}
	var def *Node
	if len(items) == 3 {
		e, err := r.expr(items[2])
		if err != nil {
			return err
		}
		c := constantOf(e)
		if c == nil {
			return errorf(KindIncompatibleTypes, posOf(items[2]), "default of '%s' is not constant", name)
		}
		if def, err = convert(c, t, posOf(items[2])); err != nil {
			return err
		}
	}
	switch {
	case byRef:
		t = NewModified(ModVar, t)
	case constant:
		t = NewModified(ModConst, t)
	}
	if err := params.Add(name, t, def); err != nil {
		return withPos(err, posOf(items[0]))
	}
	return nil
}

// initializer reads a scalar expression or an (init ...) list for t.
func (r *reader) initializer(n *sexy.Node, t *Type) (*Node, error) {
	if n.Head() != "init" {
		e, err := r.expr(n)
		if err != nil {
			return nil, err
		}
		return convert(e, t, posOf(n))
	}

	bt := t.BaseType()
	items := n.Items[1:]
	var elems []*Node
	switch bt.Category {
	case CategoryArray:
		for _, item := range items {
			e, err := r.initializer(item, bt.Elem)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	case CategoryRecord:
		fields := bt.Fields.Entries()
		if len(items) != len(fields) {
			return nil, errorf(KindIncompatibleTypes, posOf(n), "%s initializer needs %d values, got %d", bt, len(fields), len(items))
		}
		for i, item := range items {
			if item.Type != sexy.NodeList || len(item.Items) != 2 || !item.Items[0].IsSymbol(fields[i].Name) {
				return nil, syntaxError(item, "expected (%s VALUE)", fields[i].Name)
			}
			e, err := r.initializer(item.Items[1], fields[i].Type)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	default:
		return nil, errorf(KindIncompatibleTypes, posOf(n), "%s has no elements", bt)
	}
	return NewTypedConstant(posOf(n), bt, elems)
}
